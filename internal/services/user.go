package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/creatorhub/apiserver/internal/auth"
	"github.com/creatorhub/apiserver/internal/mq"
	"github.com/creatorhub/apiserver/internal/store"
	"github.com/creatorhub/apiserver/types"
	"go.uber.org/zap"
)

const (
	minPasswordLength = 8
	maxFieldLength    = 255
	maxLongField      = 1024
)

// selfAssignableRoles are the roles a client may ask for at registration.
var selfAssignableRoles = map[types.Role]bool{
	types.RoleGuest:      true,
	types.RoleRegistered: true,
	types.RoleConsumer:   true,
	types.RoleAffiliate:  true,
	types.RoleCreator:    true,
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByAffiliateID(ctx context.Context, affiliateID string) (types.User, error)
	List(ctx context.Context) ([]types.User, error)
	Create(ctx context.Context, user types.User, userTypeIDs []int64) (types.User, error)
	UpdateProfile(ctx context.Context, id string, upd types.ProfileUpdate) (types.User, error)
	SetRole(ctx context.Context, id string, role types.Role) (types.User, error)
	SetActive(ctx context.Context, id string, active bool) (types.User, error)
}

// Registration is a candidate account submitted to Register.
type Registration struct {
	Username          string
	Email             string
	Password          string
	FullName          *string
	Bio               *string
	ProfilePictureURL *string
	SocialLinks       *string
	Role              types.Role
	AffiliateID       *string
	// ReferringAffiliateID is the referrer's public affiliate code.
	ReferringAffiliateID *string
	UserTypeIDs          []int64
}

// ProfileChanges are the self-service edits accepted by UpdateProfile.
type ProfileChanges struct {
	Email             *string
	Password          *string
	FullName          *string
	Bio               *string
	ProfilePictureURL *string
	SocialLinks       *string
	UserTypeIDs       []int64
	ReplaceUserTypes  bool
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo   UserRepository
	hasher auth.PasswordHasher
	events EventPublisher
	log    *zap.Logger
}

func NewUserService(repo UserRepository, hasher auth.PasswordHasher, events EventPublisher, log *zap.Logger) *UserService {
	return &UserService{
		repo:   repo,
		hasher: hasher,
		events: events,
		log:    log,
	}
}

// Register creates an account. Every precondition is checked before the
// single insert, and racing duplicates are caught by the store constraints.
func (s *UserService) Register(ctx context.Context, reg Registration) (types.User, error) {
	username := strings.TrimSpace(reg.Username)
	if username == "" || utf8.RuneCountInString(username) > maxFieldLength {
		return types.User{}, validation("username is required and must be at most 255 characters")
	}
	email, err := normalizeEmail(reg.Email)
	if err != nil {
		return types.User{}, err
	}
	role := reg.Role
	if role == "" {
		role = types.DefaultRole
	}
	if !selfAssignableRoles[role] {
		return types.User{}, validation("role cannot be requested at registration")
	}
	affiliateID, err := optionalCode(reg.AffiliateID, "affiliate_id")
	if err != nil {
		return types.User{}, err
	}
	if err := validateProfileFields(reg.FullName, reg.Bio, reg.ProfilePictureURL, reg.SocialLinks); err != nil {
		return types.User{}, err
	}

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return types.User{}, conflict("Username already registered")
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, err
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return types.User{}, conflict("Email already registered")
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, err
	}

	var referrerID *string
	if code, err := optionalCode(reg.ReferringAffiliateID, "referring_affiliate_id"); err != nil {
		return types.User{}, err
	} else if code != nil {
		referrer, err := s.repo.GetByAffiliateID(ctx, *code)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return types.User{}, validation("Referring affiliate ID not found.")
			}
			return types.User{}, err
		}
		referrerID = &referrer.ID
	}

	if err := validatePassword(reg.Password); err != nil {
		return types.User{}, err
	}
	digest, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return types.User{}, err
	}

	user, err := s.repo.Create(ctx, types.User{
		Username:             username,
		Email:                email,
		PasswordHash:         digest,
		IsActive:             true,
		Role:                 role,
		PermissionsLevel:     types.DefaultPermissionsLevel,
		AffiliateID:          affiliateID,
		ReferringAffiliateID: referrerID,
		FullName:             reg.FullName,
		Bio:                  reg.Bio,
		ProfilePictureURL:    reg.ProfilePictureURL,
		SocialLinks:          reg.SocialLinks,
	}, reg.UserTypeIDs)
	if err != nil {
		return types.User{}, translateStoreError(err)
	}

	s.log.Info("user registered",
		zap.String("user_id", user.ID),
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)),
	)
	publishEvent(ctx, s.events, s.log, mq.TopicUserRegistered, UserRegisteredEvent{
		UserID:               user.ID,
		Username:             user.Username,
		Role:                 string(user.Role),
		ReferringAffiliateID: user.ReferringAffiliateID,
	})
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, notFound("User not found")
		}
		return types.User{}, err
	}
	return user, nil
}

// GetVisible returns the profile id as seen by actor. Users may read their
// own profile; reading others needs manage_users.
func (s *UserService) GetVisible(ctx context.Context, actor types.User, id string) (types.User, error) {
	if actor.ID != id && !auth.Can(actor.Role, auth.CapManageUsers) {
		return types.User{}, forbidden("Not permitted to view this user")
	}
	return s.GetByID(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, actor types.User, changes ProfileChanges) (types.User, error) {
	var upd types.ProfileUpdate
	if changes.Email != nil {
		email, err := normalizeEmail(*changes.Email)
		if err != nil {
			return types.User{}, err
		}
		upd.Email = &email
	}
	if changes.Password != nil {
		if err := validatePassword(*changes.Password); err != nil {
			return types.User{}, err
		}
		digest, err := s.hasher.Hash(*changes.Password)
		if err != nil {
			return types.User{}, err
		}
		upd.PasswordHash = &digest
	}
	if err := validateProfileFields(changes.FullName, changes.Bio, changes.ProfilePictureURL, changes.SocialLinks); err != nil {
		return types.User{}, err
	}
	upd.FullName = changes.FullName
	upd.Bio = changes.Bio
	upd.ProfilePictureURL = changes.ProfilePictureURL
	upd.SocialLinks = changes.SocialLinks
	if changes.ReplaceUserTypes {
		upd.UserTypeIDs = append([]int64{}, changes.UserTypeIDs...)
	}

	user, err := s.repo.UpdateProfile(ctx, actor.ID, upd)
	if err != nil {
		return types.User{}, translateStoreError(err)
	}
	return user, nil
}

// SetRole changes the role of user id. Granting or revoking super_user
// needs full_system_access on top of manage_users.
func (s *UserService) SetRole(ctx context.Context, actor types.User, id string, role types.Role) (types.User, error) {
	if !role.Valid() {
		return types.User{}, validation("unknown role")
	}
	if !auth.Can(actor.Role, auth.CapManageUsers) {
		return types.User{}, forbidden("Not permitted to manage users")
	}
	target, err := s.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}
	if (role == types.RoleSuperUser || target.Role == types.RoleSuperUser) && !auth.Can(actor.Role, auth.CapFullSystemAccess) {
		return types.User{}, forbidden("Not permitted to manage super users")
	}

	user, err := s.repo.SetRole(ctx, id, role)
	if err != nil {
		return types.User{}, translateStoreError(err)
	}
	s.log.Info("user role changed",
		zap.String("user_id", id),
		zap.String("role", string(role)),
		zap.String("changed_by", actor.ID),
	)
	return user, nil
}

// SetActive toggles whether user id may authenticate.
func (s *UserService) SetActive(ctx context.Context, actor types.User, id string, active bool) (types.User, error) {
	if !auth.Can(actor.Role, auth.CapManageUsers) {
		return types.User{}, forbidden("Not permitted to manage users")
	}
	target, err := s.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}
	if target.Role == types.RoleSuperUser && !auth.Can(actor.Role, auth.CapFullSystemAccess) {
		return types.User{}, forbidden("Not permitted to manage super users")
	}

	user, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return types.User{}, translateStoreError(err)
	}
	s.log.Info("user active flag changed",
		zap.String("user_id", id),
		zap.Bool("is_active", active),
		zap.String("changed_by", actor.ID),
	)
	return user, nil
}

func translateStoreError(err error) error {
	switch {
	case errors.Is(err, store.ErrUsernameTaken):
		return conflict("Username already registered")
	case errors.Is(err, store.ErrEmailTaken):
		return conflict("Email already registered")
	case errors.Is(err, store.ErrAffiliateTaken):
		return conflict("Affiliate ID already in use")
	case errors.Is(err, store.ErrNameTaken):
		return conflict("Name already in use")
	case errors.Is(err, store.ErrUnknownReferrer):
		return validation("Referring affiliate ID not found.")
	case errors.Is(err, store.ErrInvalidReference):
		return validation("Unknown user type option")
	case errors.Is(err, store.ErrNotFound):
		return notFound("User not found")
	default:
		return err
	}
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || utf8.RuneCountInString(email) > maxFieldLength {
		return "", validation("a valid email address is required")
	}
	return email, nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return validation("password must be at least 8 characters")
	}
	return nil
}

func optionalCode(value *string, field string) (*string, error) {
	if value == nil {
		return nil, nil
	}
	code := strings.TrimSpace(*value)
	if code == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(code) > maxFieldLength {
		return nil, validation(field + " must be at most 255 characters")
	}
	return &code, nil
}

func validateProfileFields(fullName, bio, pictureURL, socialLinks *string) error {
	checks := []struct {
		value *string
		max   int
		name  string
	}{
		{fullName, maxFieldLength, "full_name"},
		{bio, maxLongField, "bio"},
		{pictureURL, maxFieldLength, "profile_picture_url"},
		{socialLinks, maxLongField, "social_links"},
	}
	for _, c := range checks {
		if c.value != nil && utf8.RuneCountInString(*c.value) > c.max {
			return validation(c.name + " is too long")
		}
	}
	return nil
}
