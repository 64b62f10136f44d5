package auth

import (
	"testing"

	"github.com/creatorhub/apiserver/types"
	"github.com/stretchr/testify/assert"
)

func TestCan(t *testing.T) {
	cases := []struct {
		role types.Role
		cap  Capability
		want bool
	}{
		{types.RoleGuest, CapReadPublicContent, false},
		{types.RoleRegistered, CapReadPublicContent, true},
		{types.RoleConsumer, CapSaveReadingSession, true},
		{types.RoleConsumer, CapGenerateAffiliateLink, false},
		{types.RoleAffiliate, CapViewCommissions, true},
		{types.RoleAffiliate, CapMintNFT, false},
		{types.RoleCreator, CapMintNFT, true},
		{types.RoleCreator, CapManageUsers, false},
		{types.RoleAdmin, CapManageUsers, true},
		{types.RoleAdmin, CapViewAdminReports, true},
		{types.RoleAdmin, CapFullSystemAccess, false},
		{types.RoleSuperUser, CapFullSystemAccess, true},
		{types.Role("wizard"), CapReadPublicContent, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Can(tc.role, tc.cap), "%s/%s", tc.role, tc.cap)
	}
}

func TestEveryRoleHasAnEntry(t *testing.T) {
	for _, role := range types.AllRoles() {
		_, ok := rolePermissions[role]
		assert.True(t, ok, role)
	}
}

func TestHigherRolesIncludeLowerOnes(t *testing.T) {
	for _, c := range Capabilities(types.RoleCreator) {
		assert.True(t, Can(types.RoleAdmin, c), c)
	}
	for _, c := range Capabilities(types.RoleAdmin) {
		assert.True(t, Can(types.RoleSuperUser, c), c)
	}
}

func TestCapabilitiesReturnsCopy(t *testing.T) {
	caps := Capabilities(types.RoleAdmin)
	caps[0] = "tampered"
	assert.True(t, Can(types.RoleAdmin, CapReadPublicContent))
	assert.Empty(t, Capabilities(types.RoleGuest))
	assert.Empty(t, Capabilities(types.Role("wizard")))
}
