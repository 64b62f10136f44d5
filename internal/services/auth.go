package services

import (
	"context"
	"errors"
	"strings"

	"github.com/creatorhub/apiserver/internal/auth"
	"github.com/creatorhub/apiserver/internal/store"
	"github.com/creatorhub/apiserver/types"
	"go.uber.org/zap"
)

const tokenTypeBearer = "bearer"

// AccessToken is the body of a successful login.
type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// AuthService issues tokens for credentials and resolves tokens to users.
type AuthService struct {
	users  UserRepository
	hasher auth.PasswordHasher
	tokens *auth.TokenIssuer
	log    *zap.Logger
}

func NewAuthService(users UserRepository, hasher auth.PasswordHasher, tokens *auth.TokenIssuer, log *zap.Logger) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		log:    log,
	}
}

// Login exchanges a username and password for a bearer token. Unknown users,
// wrong passwords and inactive accounts all fail with the same error.
func (s *AuthService) Login(ctx context.Context, username, password string) (AccessToken, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return AccessToken{}, invalidLogin()
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.log.Info("login rejected", zap.String("reason", "unknown_user"))
			return AccessToken{}, invalidLogin()
		}
		return AccessToken{}, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		s.log.Info("login rejected", zap.String("reason", "bad_password"), zap.String("user_id", user.ID))
		return AccessToken{}, invalidLogin()
	}
	if !user.IsActive {
		s.log.Info("login rejected", zap.String("reason", "inactive"), zap.String("user_id", user.ID))
		return AccessToken{}, invalidLogin()
	}

	token, err := s.tokens.IssueDefault(user.ID)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{AccessToken: token, TokenType: tokenTypeBearer}, nil
}

// Authenticate resolves a bearer token to an active user. Invalid tokens,
// unknown subjects and inactive users are indistinguishable to the caller.
func (s *AuthService) Authenticate(ctx context.Context, token string) (types.User, error) {
	subject, err := s.tokens.Validate(token)
	if err != nil {
		return types.User{}, ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrUnauthorized
		}
		return types.User{}, err
	}

	if !user.IsActive {
		return types.User{}, ErrUnauthorized
	}
	return user, nil
}

func invalidLogin() error {
	return &Error{Kind: ErrUnauthorized, Message: "Incorrect username or password"}
}
