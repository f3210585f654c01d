package v1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynhne/credential-service/internal/core/domain"
	logicv1 "github.com/duynhne/credential-service/internal/logic/v1"
	"github.com/duynhne/credential-service/internal/session"
	"github.com/duynhne/credential-service/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- helpers ---

type memUserRepo struct {
	mu         sync.Mutex
	byUsername map[string]*domain.UserRow
	failWith   error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byUsername: make(map[string]*domain.UserRow)}
}

func (m *memUserRepo) Create(ctx context.Context, id, username, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, exists := m.byUsername[username]; exists {
		return fmt.Errorf("insert user %q: %w", username, domain.ErrDuplicateUsername)
	}
	m.byUsername[username] = &domain.UserRow{ID: id, Username: username, PasswordHash: passwordHash}
	return nil
}

func (m *memUserRepo) GetByUsername(ctx context.Context, username string) (*domain.UserRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.byUsername[username]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (m *memUserRepo) GetUsernameByID(ctx context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.byUsername {
		if row.ID == id {
			return row.Username, nil
		}
	}
	return "", fmt.Errorf("user %q: %w", id, domain.ErrUserNotFound)
}

type memSessionRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.SessionRow
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{rows: make(map[string]*domain.SessionRow)}
}

func (m *memSessionRepo) Create(ctx context.Context, s *domain.SessionRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.rows[s.ID] = &cp
	return nil
}

func (m *memSessionRepo) GetByID(ctx context.Context, id string) (*domain.SessionRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memSessionRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

type testEnv struct {
	router   *gin.Engine
	users    *memUserRepo
	sessions *memSessionRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := newMemUserRepo()
	sessions := newMemSessionRepo()
	authority := session.New(sessions, "auth_session", time.Hour, false)
	svc := logicv1.NewAuthService(users, authority)
	handler := NewHandler(svc, authority)

	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(middleware.ResolveSession(authority))
	handler.RegisterRoutes(api)

	return &testEnv{router: r, users: users, sessions: sessions}
}

func (e *testEnv) postForm(path string, form url.Values, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "auth_session", Value: cookie})
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) get(path, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "auth_session", Value: cookie})
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func credentials(username, password string) url.Values {
	return url.Values{"username": {username}, "password": {password}}
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// sessionCookie extracts the auth_session value from Set-Cookie headers.
func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "auth_session" {
			return c.Value
		}
	}
	t.Fatal("no auth_session cookie in response")
	return ""
}

// --- tests ---

func TestSignup(t *testing.T) {
	env := newTestEnv(t)

	w := env.postForm("/api/v1/signup", credentials("alice", "hunter22"), "")

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "User Created", resp.Message)

	cookie := sessionCookie(t, w)
	assert.NotEmpty(t, cookie)
	assert.Len(t, env.users.byUsername, 1)
}

func TestSignupSetsCookieAttributes(t *testing.T) {
	env := newTestEnv(t)

	w := env.postForm("/api/v1/signup", credentials("alice", "hunter22"), "")

	var found *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "auth_session" {
			found = c
		}
	}
	require.NotNil(t, found)
	assert.True(t, found.HttpOnly)
	assert.Equal(t, "/", found.Path)
	assert.Equal(t, http.SameSiteLaxMode, found.SameSite)
}

func TestSignupValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		form url.Values
	}{
		{"missing username", url.Values{"password": {"hunter22"}}},
		{"missing password", url.Values{"username": {"alice"}}},
		{"short username", credentials("al", "hunter22")},
		{"short password", credentials("alice", "pw")},
		{"username with spaces", credentials("with spaces", "hunter22")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.postForm("/api/v1/signup", tt.form, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	assert.Empty(t, env.users.byUsername)
}

func TestSignupDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)

	w := env.postForm("/api/v1/signup", credentials("alice", "hunter22"), "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.postForm("/api/v1/signup", credentials("alice", "other-pass"), "")
	assert.Equal(t, http.StatusConflict, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "Username already used", resp.Message)

	assert.Len(t, env.users.byUsername, 1)
}

func TestSignupStoreFault(t *testing.T) {
	env := newTestEnv(t)
	env.users.failWith = errors.New("connection refused")

	w := env.postForm("/api/v1/signup", credentials("alice", "hunter22"), "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "Failed to create user", resp.Message)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	signup := env.postForm("/api/v1/signup", credentials("alice", "hunter22"), "")
	signupCookie := sessionCookie(t, signup)

	w := env.postForm("/api/v1/login", credentials("alice", "hunter22"), "")

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "Logged In", resp.Message)

	loginCookie := sessionCookie(t, w)
	assert.NotEqual(t, signupCookie, loginCookie, "login must mint a fresh session")
}

func TestLoginUnknownUsername(t *testing.T) {
	env := newTestEnv(t)

	w := env.postForm("/api/v1/login", credentials("nobody", "whatever1"), "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Incorrect username", decodeResponse(t, w).Message)
	assert.Empty(t, env.sessions.rows)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)

	env.postForm("/api/v1/signup", credentials("alice", "hunter22"), "")

	w := env.postForm("/api/v1/login", credentials("alice", "wrong-pass"), "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Incorrect password", decodeResponse(t, w).Message)
	assert.Len(t, env.sessions.rows, 1, "failed login must not mint a session")
}

func TestGetUser(t *testing.T) {
	env := newTestEnv(t)

	signup := env.postForm("/api/v1/signup", credentials("alice", "hunter22"), "")
	cookie := sessionCookie(t, signup)

	w := env.get("/api/v1/user", cookie)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "User fetched", resp.Message)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice", data["username"])
}

func TestGetUserWithoutSession(t *testing.T) {
	env := newTestEnv(t)

	w := env.get("/api/v1/user", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.get("/api/v1/user", "bogus-session-id")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetUserAfterUserDeleted(t *testing.T) {
	env := newTestEnv(t)

	signup := env.postForm("/api/v1/signup", credentials("alice", "hunter22"), "")
	cookie := sessionCookie(t, signup)

	// Session survives but the user row is gone: invariant violation, 500.
	env.users.mu.Lock()
	delete(env.users.byUsername, "alice")
	env.users.mu.Unlock()

	w := env.get("/api/v1/user", cookie)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestLogoutWithoutSession(t *testing.T) {
	env := newTestEnv(t)

	w := env.get("/api/v1/logout", "")

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Empty(t, w.Result().Cookies(), "logout without a session must not set cookies")
}

func TestLogoutInvalidatesSession(t *testing.T) {
	env := newTestEnv(t)

	signup := env.postForm("/api/v1/signup", credentials("alice", "hunter22"), "")
	cookie := sessionCookie(t, signup)

	w := env.get("/api/v1/logout", cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	var blank *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "auth_session" {
			blank = c
		}
	}
	require.NotNil(t, blank)
	assert.Empty(t, blank.Value)
	assert.Equal(t, -1, blank.MaxAge)

	// The revoked session no longer authenticates.
	assert.Equal(t, http.StatusUnauthorized, env.get("/api/v1/user", cookie).Code)
}

func TestLogoutTwiceWithSameCookie(t *testing.T) {
	env := newTestEnv(t)

	signup := env.postForm("/api/v1/signup", credentials("alice", "hunter22"), "")
	cookie := sessionCookie(t, signup)

	first := env.get("/api/v1/logout", cookie)
	assert.Equal(t, http.StatusFound, first.Code)

	// Second logout resolves no session and is a plain redirect.
	second := env.get("/api/v1/logout", cookie)
	assert.Equal(t, http.StatusFound, second.Code)
	assert.Empty(t, second.Result().Cookies())
}
