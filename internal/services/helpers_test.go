package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/creatorhub/apiserver/internal/auth"
	"github.com/creatorhub/apiserver/internal/store/memstore"
	"github.com/creatorhub/apiserver/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

type recordedEvent struct {
	topic   string
	payload any
}

type fakeEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeEvents) PublishJSON(_ context.Context, topic string, payload any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{topic: topic, payload: payload})
	return "evt", nil
}

type fixture struct {
	store  *memstore.Store
	hasher auth.PasswordHasher
	tokens *auth.TokenIssuer
	events *fakeEvents
	users  *UserService
	auth   *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zaptest.NewLogger(t)
	st := memstore.New()
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	tokens := auth.NewTokenIssuer("test-secret", 30*time.Minute)
	events := &fakeEvents{}
	return &fixture{
		store:  st,
		hasher: hasher,
		tokens: tokens,
		events: events,
		users:  NewUserService(st.Users(), hasher, events, log),
		auth:   NewAuthService(st.Users(), hasher, tokens, log),
	}
}

func (f *fixture) register(t *testing.T, username string, mutate ...func(*Registration)) types.User {
	t.Helper()
	reg := Registration{
		Username: username,
		Email:    username + "@x.com",
		Password: "secret123",
	}
	for _, m := range mutate {
		m(&reg)
	}
	user, err := f.users.Register(context.Background(), reg)
	require.NoError(t, err)
	return user
}

func (f *fixture) promote(t *testing.T, id string, role types.Role) types.User {
	t.Helper()
	user, err := f.store.Users().SetRole(context.Background(), id, role)
	require.NoError(t, err)
	return user
}

func ptr[T any](v T) *T {
	return &v
}
