package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourdesk/internal/client"
	"tourdesk/internal/config"
)

func apiConfig() config.APIConfig {
	return config.APIConfig{LoginPath: "/auth/login", LogoutPath: "/auth/logout"}
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)
	return s
}

type fakeAuthAPI struct {
	token   string
	logouts atomic.Int32
	srv     *httptest.Server
}

func newFakeAuthAPI(t *testing.T, token string) *fakeAuthAPI {
	f := &fakeAuthAPI{token: token}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/sanctum/csrf-cookie", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: "csrf", Path: "/"})
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		if req.Password != "correct horse" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Invalid credentials"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"token": f.token,
				"user":  map[string]interface{}{"id": 1, "name": "Ada", "email": req.Email, "role": "admin"},
			},
		})
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		f.logouts.Add(1)
		assert.Equal(t, "Bearer "+f.token, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAuthAPI) client(t *testing.T, ts client.TokenSource) *client.Client {
	c, err := client.New(f.srv.URL+"/api", client.WithTokenSource(ts))
	require.NoError(t, err)
	return c
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	fs := NewFileStore(path)
	ctx := context.Background()

	_, err := fs.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	s := &Session{Token: "abc", User: User{ID: 2, Email: "a@b.co"}, ExpiresAt: time.Now().Add(time.Hour).UTC()}
	require.NoError(t, fs.Save(ctx, s))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := fs.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", got.Token)
	assert.True(t, s.ExpiresAt.Equal(got.ExpiresAt))

	require.NoError(t, fs.Clear(ctx))
	require.NoError(t, fs.Clear(ctx), "clearing twice is fine")
	_, err = fs.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRedisStore_ExpiresWithToken(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	rs := NewRedisStore(rdb, "tourdesk:session")
	defer rs.Close()
	ctx := context.Background()

	s := &Session{Token: "abc", ExpiresAt: time.Now().Add(10 * time.Minute)}
	require.NoError(t, rs.Save(ctx, s))
	assert.InDelta(t, (10 * time.Minute).Seconds(), mr.TTL("tourdesk:session").Seconds(), 5)

	got, err := rs.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", got.Token)

	mr.FastForward(11 * time.Minute)
	_, err = rs.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	err = rs.Save(ctx, &Session{Token: "old", ExpiresAt: time.Now().Add(-time.Minute)})
	assert.ErrorIs(t, err, ErrExpired)
}

func TestNewStore(t *testing.T) {
	s, err := NewStore(config.SessionConfig{Store: "file", Path: filepath.Join(t.TempDir(), "s.json")}, config.RedisConfig{})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = NewStore(config.SessionConfig{Store: "redis"}, config.RedisConfig{})
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	s, err = NewStore(config.SessionConfig{Store: "redis", KeyPrefix: "x:"}, config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)

	_, err = NewStore(config.SessionConfig{Store: "etcd"}, config.RedisConfig{})
	assert.Error(t, err)
}

func TestManager_LoginPersistsAndAuthorises(t *testing.T) {
	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	api := newFakeAuthAPI(t, signedToken(t, exp))
	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	m := NewManager(store, apiConfig())
	c := api.client(t, m)
	ctx := context.Background()

	require.NoError(t, m.Init(ctx))
	_, err := m.Current()
	assert.ErrorIs(t, err, ErrNoSession)

	s, err := m.Login(ctx, c, "ada@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "Ada", s.User.Name)
	assert.True(t, exp.Equal(s.ExpiresAt), "expiry comes from the token")

	token, err := m.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, api.token, token)

	// a fresh manager restores the persisted session
	restored := NewManager(store, apiConfig())
	require.NoError(t, restored.Init(ctx))
	cur, err := restored.Current()
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", cur.User.Email)

	require.NoError(t, m.Logout(ctx, c))
	assert.Equal(t, int32(1), api.logouts.Load())
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.ErrorIs(t, m.Logout(ctx, c), ErrNoSession)
}

func TestManager_LoginRejected(t *testing.T) {
	api := newFakeAuthAPI(t, "unused")
	m := NewManager(NewFileStore(filepath.Join(t.TempDir(), "s.json")), apiConfig())
	c := api.client(t, m)

	_, err := m.Login(context.Background(), c, "ada@example.com", "wrong")

	var re *client.RequestError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusUnauthorized, re.Status)
	assert.Equal(t, "Invalid credentials", re.Message)
	_, err = m.Current()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestManager_InitDiscardsExpiredSession(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "s.json"))
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &Session{Token: "old", ExpiresAt: time.Now().Add(-time.Hour)}))

	m := NewManager(store, apiConfig())
	require.NoError(t, m.Init(ctx))

	_, err := m.Current()
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestManager_TokenDropsSessionThatExpiresLater(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "s.json"))
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &Session{Token: "live", ExpiresAt: time.Now().Add(time.Hour)}))

	m := NewManager(store, apiConfig())
	require.NoError(t, m.Init(ctx))
	token, _ := m.Token(ctx)
	assert.Equal(t, "live", token)

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err := m.Current()
	assert.ErrorIs(t, err, ErrExpired)

	token, err = m.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
	_, err = m.Current()
	assert.ErrorIs(t, err, ErrNoSession)
}
