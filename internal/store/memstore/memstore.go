// Package memstore provides in-memory repositories with the same contracts
// as the postgres-backed ones in package store. Services and handlers use
// them in unit tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/creatorhub/apiserver/internal/store"
	"github.com/creatorhub/apiserver/types"
	"github.com/google/uuid"
)

// Store holds users, user type options and content behind one lock.
type Store struct {
	mu       sync.RWMutex
	now      func() time.Time
	users    map[string]types.User
	order    []string
	links    map[string][]int64
	options  map[int64]types.UserTypeOption
	nextOpt  int64
	contents []types.Content
}

func New() *Store {
	return &Store{
		now:     time.Now,
		users:   make(map[string]types.User),
		links:   make(map[string][]int64),
		options: make(map[int64]types.UserTypeOption),
		nextOpt: 1,
	}
}

// SetClock replaces the time source used for timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Users returns a repository view over the store.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// UserTypes returns a repository view over the store.
func (s *Store) UserTypes() *UserTypeRepository { return &UserTypeRepository{s: s} }

// Contents returns a repository view over the store.
func (s *Store) Contents() *ContentRepository { return &ContentRepository{s: s} }

type UserRepository struct{ s *Store }

func (r *UserRepository) Create(_ context.Context, user types.User, userTypeIDs []int64) (types.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == user.Username {
			return types.User{}, store.ErrUsernameTaken
		}
		if existing.Email == user.Email {
			return types.User{}, store.ErrEmailTaken
		}
		if user.AffiliateID != nil && existing.AffiliateID != nil && *existing.AffiliateID == *user.AffiliateID {
			return types.User{}, store.ErrAffiliateTaken
		}
	}
	if user.ReferringAffiliateID != nil {
		if _, ok := s.users[*user.ReferringAffiliateID]; !ok {
			return types.User{}, store.ErrUnknownReferrer
		}
	}
	ids := dedupe(userTypeIDs)
	for _, id := range ids {
		if _, ok := s.options[id]; !ok {
			return types.User{}, store.ErrUnknownUserType
		}
	}

	now := s.now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.UserTypes = nil
	s.users[user.ID] = user
	s.order = append(s.order, user.ID)
	s.links[user.ID] = ids
	return s.hydrate(user), nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (types.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return s.hydrate(user), nil
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (types.User, error) {
	return r.find(func(u types.User) bool { return u.Username == username })
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (types.User, error) {
	return r.find(func(u types.User) bool { return u.Email == email })
}

func (r *UserRepository) GetByAffiliateID(_ context.Context, affiliateID string) (types.User, error) {
	return r.find(func(u types.User) bool { return u.AffiliateID != nil && *u.AffiliateID == affiliateID })
}

func (r *UserRepository) find(match func(types.User) bool) (types.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		if user := s.users[id]; match(user) {
			return s.hydrate(user), nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *UserRepository) List(_ context.Context) ([]types.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]types.User, 0, len(s.order))
	for _, id := range s.order {
		users = append(users, s.hydrate(s.users[id]))
	}
	return users, nil
}

func (r *UserRepository) UpdateProfile(_ context.Context, id string, upd types.ProfileUpdate) (types.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	if upd.Email != nil {
		for otherID, other := range s.users {
			if otherID != id && other.Email == *upd.Email {
				return types.User{}, store.ErrEmailTaken
			}
		}
		user.Email = *upd.Email
	}
	var ids []int64
	if upd.UserTypeIDs != nil {
		ids = dedupe(upd.UserTypeIDs)
		for _, optionID := range ids {
			if _, ok := s.options[optionID]; !ok {
				return types.User{}, store.ErrUnknownUserType
			}
		}
	}
	if upd.PasswordHash != nil {
		user.PasswordHash = *upd.PasswordHash
	}
	if upd.FullName != nil {
		user.FullName = upd.FullName
	}
	if upd.Bio != nil {
		user.Bio = upd.Bio
	}
	if upd.ProfilePictureURL != nil {
		user.ProfilePictureURL = upd.ProfilePictureURL
	}
	if upd.SocialLinks != nil {
		user.SocialLinks = upd.SocialLinks
	}
	if upd.UserTypeIDs != nil {
		s.links[id] = ids
	}
	user.UpdatedAt = s.now().UTC()
	s.users[id] = user
	return s.hydrate(user), nil
}

func (r *UserRepository) SetRole(_ context.Context, id string, role types.Role) (types.User, error) {
	return r.mutate(id, func(u *types.User) { u.Role = role })
}

func (r *UserRepository) SetActive(_ context.Context, id string, active bool) (types.User, error) {
	return r.mutate(id, func(u *types.User) { u.IsActive = active })
}

func (r *UserRepository) mutate(id string, apply func(*types.User)) (types.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	apply(&user)
	user.UpdatedAt = s.now().UTC()
	s.users[id] = user
	return s.hydrate(user), nil
}

// hydrate attaches the user's options. Callers hold the lock.
func (s *Store) hydrate(user types.User) types.User {
	options := make([]types.UserTypeOption, 0, len(s.links[user.ID]))
	for _, id := range s.links[user.ID] {
		options = append(options, s.options[id])
	}
	user.UserTypes = options
	return user
}

type UserTypeRepository struct{ s *Store }

func (r *UserTypeRepository) ListActive(_ context.Context) ([]types.UserTypeOption, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	options := make([]types.UserTypeOption, 0, len(s.options))
	for _, option := range s.options {
		if option.IsActive {
			options = append(options, option)
		}
	}
	sort.Slice(options, func(i, j int) bool { return options[i].ID < options[j].ID })
	return options, nil
}

func (r *UserTypeRepository) Get(_ context.Context, id int64) (types.UserTypeOption, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	option, ok := s.options[id]
	if !ok {
		return types.UserTypeOption{}, store.ErrNotFound
	}
	return option, nil
}

func (r *UserTypeRepository) Create(_ context.Context, option types.UserTypeOption) (types.UserTypeOption, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.options {
		if existing.Name == option.Name {
			return types.UserTypeOption{}, store.ErrNameTaken
		}
	}
	now := s.now().UTC()
	option.ID = s.nextOpt
	option.CreatedAt = now
	option.UpdatedAt = now
	s.nextOpt++
	s.options[option.ID] = option
	return option, nil
}

func (r *UserTypeRepository) Update(_ context.Context, option types.UserTypeOption) (types.UserTypeOption, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.options[option.ID]
	if !ok {
		return types.UserTypeOption{}, store.ErrNotFound
	}
	for id, existing := range s.options {
		if id != option.ID && existing.Name == option.Name {
			return types.UserTypeOption{}, store.ErrNameTaken
		}
	}
	option.CreatedAt = current.CreatedAt
	option.UpdatedAt = s.now().UTC()
	s.options[option.ID] = option
	return option, nil
}

type ContentRepository struct{ s *Store }

func (r *ContentRepository) List(_ context.Context) ([]types.Content, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Content(nil), s.contents...), nil
}

func (r *ContentRepository) Create(_ context.Context, item types.Content) (types.Content, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == 0 {
		item.ID = int64(len(s.contents) + 1)
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = s.now().UTC()
	}
	s.contents = append(s.contents, item)
	return item, nil
}

func dedupe(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
