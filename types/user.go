package types

import "time"

// Role is the coarse authorization class of a user.
type Role string

const (
	RoleGuest      Role = "guest"
	RoleRegistered Role = "registered"
	RoleConsumer   Role = "consumer"
	RoleAffiliate  Role = "affiliate"
	RoleCreator    Role = "creator"
	RoleAdmin      Role = "admin"
	RoleSuperUser  Role = "super_user"
)

// DefaultRole is assigned when a registration does not ask for one.
const DefaultRole = RoleRegistered

// DefaultPermissionsLevel is stored on every new account.
const DefaultPermissionsLevel = "standard_user"

// AllRoles lists every role in ascending order of privilege.
func AllRoles() []Role {
	return []Role{
		RoleGuest,
		RoleRegistered,
		RoleConsumer,
		RoleAffiliate,
		RoleCreator,
		RoleAdmin,
		RoleSuperUser,
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range AllRoles() {
		if r == known {
			return true
		}
	}
	return false
}

// User represents an account in the system.
// It contains identity, role, referral, profile, and audit metadata.
type User struct {
	// ID is the unique identifier of the user (UUID v4), assigned at creation.
	ID string `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's unique email address, stored lowercased.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt digest of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// IsActive gates authentication. Inactive users cannot use their tokens.
	IsActive bool `json:"is_active" db:"is_active"`

	// Role indicates the user's authorization class.
	Role Role `json:"role" db:"role"`

	// PermissionsLevel is an informational label kept alongside the role.
	PermissionsLevel string `json:"permissions_level" db:"permissions_level"`

	// AffiliateID is the public referral code handed out by this user.
	AffiliateID *string `json:"affiliate_id" db:"affiliate_id"`

	// ReferringAffiliateID is the primary ID of the user who referred this one.
	// Clients refer to the referrer by affiliate code; the store keeps the ID.
	ReferringAffiliateID *string `json:"referring_affiliate_id" db:"referring_affiliate_id"`

	FullName          *string `json:"full_name" db:"full_name"`
	Bio               *string `json:"bio" db:"bio"`
	ProfilePictureURL *string `json:"profile_picture_url" db:"profile_picture_url"`
	SocialLinks       *string `json:"social_links" db:"social_links"`

	// UserTypes are the descriptive tags (e.g. "Artist") attached to the user.
	UserTypes []UserTypeOption `json:"user_types"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ProfileUpdate carries the self-service changes a user may make to their
// own account. Nil fields are left untouched.
type ProfileUpdate struct {
	Email             *string
	PasswordHash      *string
	FullName          *string
	Bio               *string
	ProfilePictureURL *string
	SocialLinks       *string
	// UserTypeIDs replaces the user's tag set when non-nil.
	UserTypeIDs []int64
}
