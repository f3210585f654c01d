package v1

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/duynhne/credential-service/internal/core/domain"
	"github.com/duynhne/credential-service/internal/session"
	"github.com/duynhne/credential-service/middleware"
)

// AuthService implements authentication business rules.
// It depends on the repository interface and the session Authority
// (injected via constructor) and MUST NOT access the database or SQL
// directly.
type AuthService struct {
	users    domain.UserRepository
	sessions *session.Authority
}

// NewAuthService creates a new AuthService with the given dependencies.
func NewAuthService(users domain.UserRepository, sessions *session.Authority) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
	}
}

// Signup creates a new user and an initial session for it.
func (s *AuthService) Signup(ctx context.Context, req domain.CredentialsRequest) (*domain.SessionRow, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.signup", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("username", req.Username),
	))
	defer span.End()

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID := uuid.NewString()

	// No pre-check for an existing username: the unique constraint is the
	// single arbiter, so concurrent signups race safely.
	if err := s.users.Create(ctx, userID, req.Username, string(passwordHash)); err != nil {
		span.RecordError(err)
		if errors.Is(err, domain.ErrDuplicateUsername) {
			span.SetAttributes(attribute.Bool("signup.success", false))
			return nil, fmt.Errorf("signup user %q: %w", req.Username, ErrUsernameTaken)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	sess, err := s.sessions.Create(ctx, userID, req.Username)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("create session: %w", err)
	}

	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.Bool("signup.success", true),
	)
	span.AddEvent("user.created")

	return sess, nil
}

// Login verifies credentials and mints a fresh session.
func (s *AuthService) Login(ctx context.Context, req domain.CredentialsRequest) (*domain.SessionRow, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.login", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("username", req.Username),
	))
	defer span.End()

	row, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query user %q: %w", req.Username, err)
	}
	if row == nil {
		span.SetAttributes(attribute.Bool("auth.success", false))
		span.AddEvent("authentication.failed")
		return nil, fmt.Errorf("authenticate user %q: %w", req.Username, ErrIncorrectUsername)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(req.Password)); err != nil {
		span.SetAttributes(attribute.Bool("auth.success", false))
		span.AddEvent("authentication.failed")
		return nil, fmt.Errorf("authenticate user %q: %w", req.Username, ErrIncorrectPassword)
	}

	sess, err := s.sessions.Create(ctx, row.ID, row.Username)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("create session: %w", err)
	}

	span.SetAttributes(
		attribute.String("user.id", row.ID),
		attribute.Bool("auth.success", true),
	)
	span.AddEvent("user.authenticated")

	return sess, nil
}

// Logout invalidates the given session. Idempotent: revoking an unknown or
// already-revoked session id succeeds.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	ctx, span := middleware.StartSpan(ctx, "auth.logout", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if err := s.sessions.Invalidate(ctx, sessionID); err != nil {
		span.RecordError(err)
		return fmt.Errorf("invalidate session: %w", err)
	}

	span.AddEvent("session.invalidated")
	return nil
}

// CurrentUsername returns the username for an authenticated user id.
// The caller guarantees the id came from a resolved session; a missing row
// therefore means the user was deleted out from under a live session.
func (s *AuthService) CurrentUsername(ctx context.Context, userID string) (string, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.current_username", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("user.id", userID),
	))
	defer span.End()

	username, err := s.users.GetUsernameByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", fmt.Errorf("session user %q: %w", userID, ErrUserMissing)
		}
		return "", fmt.Errorf("query username: %w", err)
	}

	return username, nil
}
