package auth

import (
	"slices"

	"github.com/creatorhub/apiserver/types"
)

// Capability names an operation a role may perform.
type Capability string

const (
	CapReadPublicContent     Capability = "read_public_content"
	CapSaveReadingSession    Capability = "save_reading_session"
	CapGenerateAffiliateLink Capability = "generate_affiliate_link"
	CapViewCommissions       Capability = "view_commissions"
	CapManageContent         Capability = "manage_content"
	CapCreateReadingSession  Capability = "create_reading_session"
	CapUploadMedia           Capability = "upload_media"
	CapViewCreatorDashboard  Capability = "view_creator_dashboard"
	CapMintNFT               Capability = "mint_nft"
	CapManageUsers           Capability = "manage_users"
	CapViewSystemLogs        Capability = "view_system_logs"
	CapViewAdminReports      Capability = "view_admin_reports"
	CapFullSystemAccess      Capability = "full_system_access"
)

var (
	memberCaps = []Capability{
		CapReadPublicContent,
		CapSaveReadingSession,
	}
	affiliateCaps = append(slices.Clone(memberCaps),
		CapGenerateAffiliateLink,
		CapViewCommissions,
	)
	creatorCaps = append(slices.Clone(memberCaps),
		CapManageContent,
		CapCreateReadingSession,
		CapUploadMedia,
		CapViewCreatorDashboard,
		CapMintNFT,
	)
	adminCaps = append(slices.Clone(creatorCaps),
		CapManageUsers,
		CapViewSystemLogs,
		CapViewAdminReports,
	)
	superUserCaps = append(slices.Clone(adminCaps),
		CapFullSystemAccess,
	)
)

// rolePermissions is never mutated after package init.
var rolePermissions = map[types.Role][]Capability{
	types.RoleGuest:      {},
	types.RoleRegistered: memberCaps,
	types.RoleConsumer:   memberCaps,
	types.RoleAffiliate:  affiliateCaps,
	types.RoleCreator:    creatorCaps,
	types.RoleAdmin:      adminCaps,
	types.RoleSuperUser:  superUserCaps,
}

// Capabilities returns a copy of the capability set of role. Unknown roles
// have none.
func Capabilities(role types.Role) []Capability {
	return slices.Clone(rolePermissions[role])
}

// Can reports whether role grants capability.
func Can(role types.Role, capability Capability) bool {
	return slices.Contains(rolePermissions[role], capability)
}
