package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/creatorhub/apiserver/config"
	"github.com/creatorhub/apiserver/internal/auth"
	"github.com/creatorhub/apiserver/internal/chain"
	"github.com/creatorhub/apiserver/internal/services"
	"github.com/creatorhub/apiserver/internal/storage"
	"github.com/creatorhub/apiserver/internal/store/memstore"
	"github.com/creatorhub/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

type stubMinter struct {
	err error
}

func (m stubMinter) Mint(_ context.Context, req chain.MintRequest) (chain.MintOutcome, error) {
	if m.err != nil {
		return chain.MintOutcome{}, m.err
	}
	return chain.MintOutcome{
		TransactionHash: "E3FE6EA3D48F0C2B639448020EA4F03D4F4F8FFDB243A852A0F59177921B4879",
		Result:          map[string]any{"validated": true, "URI": req.URI},
	}, nil
}

type testAPI struct {
	t      *testing.T
	store  *memstore.Store
	server *httptest.Server
}

func newTestAPI(t *testing.T, minter services.Minter) *testAPI {
	t.Helper()
	log := zaptest.NewLogger(t)
	st := memstore.New()
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	tokens := auth.NewTokenIssuer("test-secret", 30*time.Minute)
	cfg := config.Config{
		RequestTimeout: 5 * time.Second,
		Ledger:         config.LedgerConfig{SubmitTimeout: 5 * time.Second},
	}

	svc := Services{
		Users:     services.NewUserService(st.Users(), hasher, nil, log),
		Auth:      services.NewAuthService(st.Users(), hasher, tokens, log),
		UserTypes: services.NewUserTypeService(st.UserTypes()),
		Reports:   services.NewReportService(st.Users(), st.Contents()),
		NFT:       services.NewNFTService(minter, nil, nil, log),
	}
	srv := httptest.NewServer(NewRouter(cfg, svc, log))
	t.Cleanup(srv.Close)
	return &testAPI{t: t, store: st, server: srv}
}

func (a *testAPI) do(method, path, token string, body any) (*http.Response, []byte) {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(a.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return resp, data
}

func (a *testAPI) register(username string, extra map[string]any) types.User {
	a.t.Helper()
	body := map[string]any{
		"username": username,
		"email":    username + "@x.com",
		"password": "secret123",
	}
	for k, v := range extra {
		body[k] = v
	}
	resp, data := a.do(http.MethodPost, "/auth/register", "", body)
	require.Equal(a.t, http.StatusCreated, resp.StatusCode, string(data))
	var user types.User
	require.NoError(a.t, json.Unmarshal(data, &user))
	return user
}

func (a *testAPI) login(username string) string {
	a.t.Helper()
	form := url.Values{"username": {username}, "password": {"secret123"}}
	resp, err := http.PostForm(a.server.URL+"/auth/token", form)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	require.Equal(a.t, http.StatusOK, resp.StatusCode)
	var token services.AccessToken
	require.NoError(a.t, json.NewDecoder(resp.Body).Decode(&token))
	assert.Equal(a.t, "bearer", token.TokenType)
	return token.AccessToken
}

func (a *testAPI) promote(id string, role types.Role) {
	a.t.Helper()
	_, err := a.store.Users().SetRole(context.Background(), id, role)
	require.NoError(a.t, err)
}

func errorBody(t *testing.T, data []byte) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(data, &body))
	return body.Error
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t, stubMinter{})
	resp, data := api.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(data))
}

func TestRegisterLoginAndProfile(t *testing.T) {
	api := newTestAPI(t, stubMinter{})
	user := api.register("alice", map[string]any{"full_name": "Alice A"})
	assert.Equal(t, types.RoleRegistered, user.Role)
	assert.True(t, user.IsActive)

	token := api.login("alice")

	resp, data := api.do(http.MethodGet, "/users/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, string(data), "password")
	var me types.User
	require.NoError(t, json.Unmarshal(data, &me))
	assert.Equal(t, user.ID, me.ID)

	first, firstBody := api.do(http.MethodGet, "/users/"+user.ID, token, nil)
	second, secondBody := api.do(http.MethodGet, "/users/"+user.ID, token, nil)
	assert.Equal(t, http.StatusOK, first.StatusCode)
	assert.Equal(t, http.StatusOK, second.StatusCode)
	assert.Equal(t, firstBody, secondBody)

	resp, data = api.do(http.MethodPut, "/users/me", token, map[string]any{"bio": "painter"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &me))
	require.NotNil(t, me.Bio)
	assert.Equal(t, "painter", *me.Bio)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	api := newTestAPI(t, stubMinter{})
	api.register("alice", nil)

	resp, data := api.do(http.MethodPost, "/auth/register", "", map[string]any{
		"username": "alice",
		"email":    "other@x.com",
		"password": "pw2",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Username already registered", errorBody(t, data))
}

func TestTokenAcceptsJSONAndRejectsBadPassword(t *testing.T) {
	api := newTestAPI(t, stubMinter{})
	api.register("alice", nil)

	resp, data := api.do(http.MethodPost, "/auth/token", "", map[string]string{"username": "alice", "password": "secret123"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "access_token")

	resp, data = api.do(http.MethodPost, "/auth/token", "", map[string]string{"username": "alice", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
	assert.Equal(t, "Incorrect username or password", errorBody(t, data))
}

func TestAuthGateRejectsMissingAndInvalidTokens(t *testing.T) {
	api := newTestAPI(t, stubMinter{})
	user := api.register("alice", nil)
	token := api.login("alice")

	for _, tok := range []string{"", "not-a-token"} {
		resp, data := api.do(http.MethodGet, "/users/me", tok, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
		assert.Equal(t, "could not validate credentials", errorBody(t, data))
	}

	_, err := api.store.Users().SetActive(context.Background(), user.ID, false)
	require.NoError(t, err)
	resp, data := api.do(http.MethodGet, "/users/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "could not validate credentials", errorBody(t, data))
}

func TestUserVisibilityAndAdministration(t *testing.T) {
	api := newTestAPI(t, stubMinter{})
	alice := api.register("alice", nil)
	bob := api.register("bob", nil)
	aliceToken := api.login("alice")

	resp, _ := api.do(http.MethodGet, "/users/"+bob.ID, aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = api.do(http.MethodPatch, "/users/"+bob.ID+"/active", aliceToken, map[string]any{"is_active": false})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	api.promote(alice.ID, types.RoleAdmin)

	resp, _ = api.do(http.MethodGet, "/users/"+bob.ID, aliceToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = api.do(http.MethodGet, "/users/00000000-0000-0000-0000-000000000000", aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, data := api.do(http.MethodPatch, "/users/"+bob.ID+"/role", aliceToken, map[string]any{"role": "creator"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated types.User
	require.NoError(t, json.Unmarshal(data, &updated))
	assert.Equal(t, types.RoleCreator, updated.Role)

	resp, _ = api.do(http.MethodPatch, "/users/"+bob.ID+"/role", aliceToken, map[string]any{"role": "super_user"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = api.do(http.MethodPatch, "/users/"+bob.ID+"/active", aliceToken, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReports(t *testing.T) {
	api := newTestAPI(t, stubMinter{})
	now := time.Now().UTC()
	for _, item := range []types.Content{
		{Type: "Music", Status: "published", Views: 900, Sales: 10, CreatedAt: now.Add(-2 * time.Hour)},
		{Type: "Music", Status: "published", Views: 3000, Sales: 5, CreatedAt: now.Add(-72 * time.Hour)},
		{Type: "Art", Status: "draft", Views: 10, Sales: 0, CreatedAt: now.Add(-1 * time.Hour)},
	} {
		_, err := api.store.Contents().Create(context.Background(), item)
		require.NoError(t, err)
	}

	resp, data := api.do(http.MethodGet, "/reports/public/top-content?content_type=Music&sort_by=views&limit=1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var top struct {
		TopContent []struct {
			Views int64 `json:"views"`
		} `json:"top_content"`
		Metric string `json:"metric"`
	}
	require.NoError(t, json.Unmarshal(data, &top))
	require.Len(t, top.TopContent, 1)
	assert.Equal(t, int64(3000), top.TopContent[0].Views)
	assert.Equal(t, "views", top.Metric)

	resp, _ = api.do(http.MethodGet, "/reports/public/top-content?sort_by=rating", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = api.do(http.MethodGet, "/reports/public/trending-content?limit=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, data = api.do(http.MethodGet, "/reports/public/trending-content?time_period_hours=24", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `"time_period_hours":24`)

	admin := api.register("root", nil)
	token := api.login("root")
	resp, _ = api.do(http.MethodGet, "/reports/admin/users-summary", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	api.promote(admin.ID, types.RoleAdmin)
	resp, data = api.do(http.MethodGet, "/reports/admin/users-summary", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `"total_users":1`)

	resp, data = api.do(http.MethodGet, "/reports/admin/content?content_status=published&min_views=1000", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(data, &rows))
	assert.Len(t, rows, 1)

	resp, _ = api.do(http.MethodGet, "/reports/admin/users?start_date=15-01-2025", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = api.do(http.MethodGet, "/reports/admin/users?limit=501", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMintRequiresPermission(t *testing.T) {
	api := newTestAPI(t, stubMinter{})
	creator := api.register("maker", map[string]any{"role": "creator"})
	api.register("reader", nil)
	meta := map[string]any{
		"name":        "First Light",
		"description": "Founding entry",
		"image":       "ipfs://QmImage",
	}

	resp, _ := api.do(http.MethodPost, "/nft/mint", "", meta)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = api.do(http.MethodPost, "/nft/mint", api.login("reader"), meta)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	token := api.login("maker")
	resp, data := api.do(http.MethodPost, "/nft/mint", token, meta)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	var result types.MintResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, creator.Username, result.InitiatedByUser)
	assert.Equal(t, "ipfs://QmImage", result.MetadataURI)

	resp, _ = api.do(http.MethodPost, "/nft/mint", token, map[string]any{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMintRelaysLedgerFailure(t *testing.T) {
	api := newTestAPI(t, stubMinter{err: &chain.SubmissionError{Code: "tecINSUFFICIENT_RESERVE", Message: "insufficient reserve"}})
	api.register("maker", map[string]any{"role": "creator"})

	resp, data := api.do(http.MethodPost, "/nft/mint", api.login("maker"), map[string]any{
		"name":        "First Light",
		"description": "Founding entry",
		"image":       "ipfs://QmImage",
	})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.True(t, strings.Contains(errorBody(t, data), "tecINSUFFICIENT_RESERVE"))
}

func TestUserTypeOptions(t *testing.T) {
	api := newTestAPI(t, stubMinter{})
	admin := api.register("root", nil)
	token := api.login("root")

	resp, _ := api.do(http.MethodPost, "/user-types/options", token, map[string]any{"name": "Artist"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	api.promote(admin.ID, types.RoleAdmin)
	resp, data := api.do(http.MethodPost, "/user-types/options", token, map[string]any{"name": "Artist"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var option types.UserTypeOption
	require.NoError(t, json.Unmarshal(data, &option))

	resp, _ = api.do(http.MethodPost, "/user-types/options", token, map[string]any{"name": "Artist"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, data = api.do(http.MethodGet, "/user-types/options", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "Artist")

	user := api.register("painter", map[string]any{"user_types": []int64{option.ID}})
	require.Len(t, user.UserTypes, 1)
	assert.Equal(t, "Artist", user.UserTypes[0].Name)

	resp, _ = api.do(http.MethodPut, "/user-types/options/abc", token, map[string]any{"name": "X"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = api.do(http.MethodPut, "/user-types/options/999", token, map[string]any{"name": "X"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

type closeCounter struct {
	closed int
}

func (c *closeCounter) EnsureBucket(context.Context) error { return nil }

func (c *closeCounter) Put(context.Context, string, io.Reader, int64, string) error { return nil }

func (c *closeCounter) Delete(context.Context, string) error { return nil }

func (c *closeCounter) URL(key string) string { return "mem://bucket/" + key }

func (c *closeCounter) Bucket() string { return "bucket" }

func (c *closeCounter) Close() error {
	c.closed++
	return nil
}

func TestShutdownClosesObjectStorage(t *testing.T) {
	backend := &closeCounter{}
	srv := &Server{
		httpServer: &http.Server{},
		objects:    storage.NewStorage(backend),
		log:        zaptest.NewLogger(t),
	}

	require.NoError(t, srv.Shutdown(context.Background()))
	assert.Equal(t, 1, backend.closed)
}
