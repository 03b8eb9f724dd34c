package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"tourdesk/internal/client"
	"tourdesk/internal/config"
	console "tourdesk/internal/utils/logger"
)

var log = console.New("SESSION")

var (
	ErrNoSession = errors.New("not logged in")
	ErrExpired   = errors.New("session expired, please log in again")
)

// User is the minimal profile kept alongside the token
type User struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type Session struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Poster is the slice of the API client a login needs
type Poster interface {
	Post(ctx context.Context, path string, body interface{}) (*client.Response, error)
}

// Manager is the single owner of the session for the life of the console:
// Init reads it once, Login replaces it, Logout ends it.
type Manager struct {
	mu          sync.RWMutex
	store       Store
	loginPath   string
	logoutPath  string
	current     *Session
	initialised bool
	now         func() time.Time
}

func NewManager(store Store, cfg config.APIConfig) *Manager {
	return &Manager{
		store:      store,
		loginPath:  cfg.LoginPath,
		logoutPath: cfg.LogoutPath,
		now:        time.Now,
	}
}

// Init restores a persisted session. It runs once; later calls are no-ops.
// An expired session is discarded rather than restored.
func (m *Manager) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialised {
		return nil
	}
	m.initialised = true

	s, err := m.store.Load(ctx)
	switch {
	case errors.Is(err, ErrNoSession):
		return nil
	case err != nil:
		return log.Error("Failed to load session", err)
	}
	if s.Expired(m.now()) {
		log.Warn("Stored session for %s expired at %s", s.User.Email, s.ExpiresAt.Format(time.RFC3339))
		if err := m.store.Clear(ctx); err != nil {
			log.Warn("Failed to clear expired session: %v", err)
		}
		return nil
	}
	m.current = s
	log.Debug("Restored session for %s", s.User.Email)
	return nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token       string     `json:"token"`
	AccessToken string     `json:"access_token"`
	User        User       `json:"user"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

func (r loginResponse) token() string {
	if r.Token != "" {
		return r.Token
	}
	return r.AccessToken
}

// Login exchanges credentials for a token and persists the session
func (m *Manager) Login(ctx context.Context, api Poster, email, password string) (*Session, error) {
	resp, err := api.Post(ctx, m.loginPath, loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	body, err := decodeLogin(resp.Body)
	if err != nil {
		return nil, err
	}
	if body.token() == "" {
		return nil, fmt.Errorf("login response carried no token")
	}

	s := &Session{Token: body.token(), User: body.User}
	if exp, ok := tokenExpiry(s.Token); ok {
		s.ExpiresAt = exp
	} else if body.ExpiresAt != nil {
		s.ExpiresAt = *body.ExpiresAt
	}
	if s.User.Email == "" {
		s.User.Email = email
	}

	if err := m.store.Save(ctx, s); err != nil {
		return nil, log.Error("Failed to persist session", err)
	}

	m.mu.Lock()
	m.current = s
	m.initialised = true
	m.mu.Unlock()
	log.Success("Logged in as %s", s.User.Email)
	return s, nil
}

// decodeLogin accepts the response bare or wrapped in {"data": ...}
func decodeLogin(raw []byte) (loginResponse, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	body := bytes.TrimSpace(raw)
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 && envelope.Data[0] == '{' {
		body = envelope.Data
	}
	var out loginResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decode login response: %w", err)
	}
	return out, nil
}

// tokenExpiry reads exp from a JWT without verifying it; only the backend
// can verify, the console just wants to know when to stop sending it.
func tokenExpiry(token string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Logout tells the backend and forgets the session. The local session is
// dropped even when the backend call fails.
func (m *Manager) Logout(ctx context.Context, api Poster) error {
	m.mu.RLock()
	s := m.current
	m.mu.RUnlock()
	if s == nil {
		return ErrNoSession
	}

	// the backend call still needs the token, so forget it afterwards
	var remoteErr error
	if api != nil && m.logoutPath != "" {
		if _, err := api.Post(ctx, m.logoutPath, nil); err != nil {
			log.Warn("Backend logout failed: %v", err)
			remoteErr = err
		}
	}

	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
	if err := m.store.Clear(ctx); err != nil {
		return log.Error("Failed to clear session", err)
	}
	log.Info("Logged out %s", s.User.Email)
	return remoteErr
}

// Current returns the live session
func (m *Manager) Current() (*Session, error) {
	m.mu.RLock()
	s := m.current
	m.mu.RUnlock()
	if s == nil {
		return nil, ErrNoSession
	}
	if s.Expired(m.now()) {
		return nil, ErrExpired
	}
	cp := *s
	return &cp, nil
}

// Token implements client.TokenSource. Without a session calls go out
// unauthenticated; an expired session is dropped on first use.
func (m *Manager) Token(ctx context.Context) (string, error) {
	s, err := m.Current()
	switch {
	case errors.Is(err, ErrExpired):
		m.mu.Lock()
		m.current = nil
		m.mu.Unlock()
		if cerr := m.store.Clear(ctx); cerr != nil {
			log.Warn("Failed to clear expired session: %v", cerr)
		}
		log.Warn("Session expired; continuing without a token")
		return "", nil
	case err != nil:
		return "", nil
	}
	return s.Token, nil
}

var _ client.TokenSource = (*Manager)(nil)
