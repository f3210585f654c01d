// Package session issues, resolves, and invalidates server-side sessions
// and serializes them as HTTP cookies. The client only ever holds the
// opaque session id.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/duynhne/credential-service/internal/core/domain"
)

// tokenBytes is the entropy of a session id (32 bytes, 64 hex chars).
const tokenBytes = 32

// Authority mints and resolves sessions backed by a SessionRepository.
type Authority struct {
	sessions   domain.SessionRepository
	cookieName string
	ttl        time.Duration
	secure     bool
}

// New creates an Authority. secure controls the cookie's Secure attribute
// and should be true in production-like deployments.
func New(sessions domain.SessionRepository, cookieName string, ttl time.Duration, secure bool) *Authority {
	return &Authority{
		sessions:   sessions,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
	}
}

// Create mints a new session for the given user. The username is stored as
// a snapshot so request resolution does not need a users join.
func (a *Authority) Create(ctx context.Context, userID, username string) (*domain.SessionRow, error) {
	id, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	s := &domain.SessionRow{
		ID:        id,
		UserID:    userID,
		Username:  username,
		ExpiresAt: time.Now().Add(a.ttl),
	}

	if err := a.sessions.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return s, nil
}

// Resolve returns the live session for the given id, or (nil, nil) when the
// id is unknown. Expired sessions are deleted and treated as absent.
func (a *Authority) Resolve(ctx context.Context, id string) (*domain.SessionRow, error) {
	if id == "" {
		return nil, nil
	}

	s, err := a.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	if s == nil {
		return nil, nil
	}

	if time.Now().After(s.ExpiresAt) {
		// Best effort; an expired row left behind is still unusable.
		_ = a.sessions.Delete(ctx, s.ID)
		return nil, nil
	}

	return s, nil
}

// Invalidate revokes a session. Safe to call on an already-invalid id.
func (a *Authority) Invalidate(ctx context.Context, id string) error {
	return a.sessions.Delete(ctx, id)
}

// CookieName returns the name of the session cookie.
func (a *Authority) CookieName() string {
	return a.cookieName
}

// Cookie serializes a session id into a Set-Cookie descriptor.
func (a *Authority) Cookie(sessionID string) *http.Cookie {
	return &http.Cookie{
		Name:     a.cookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(a.ttl.Seconds()),
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// BlankCookie returns a descriptor that clears the session cookie on the
// client.
func (a *Authority) BlankCookie() *http.Cookie {
	return &http.Cookie{
		Name:     a.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
