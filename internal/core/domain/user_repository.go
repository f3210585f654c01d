package domain

import (
	"context"
	"errors"
)

// Tagged store errors. Repositories translate backend-specific failures
// into these so the Logic layer never inspects vendor error codes.
var (
	// ErrDuplicateUsername indicates an insert violated the username
	// uniqueness constraint.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrUserNotFound indicates a lookup by id matched no user. After the
	// access guard this means a session references a deleted user.
	ErrUserNotFound = errors.New("user not found")
)

// UserRow represents a user record returned from the database.
// It includes the password hash so the Logic layer can verify credentials;
// the hash never leaves that layer.
type UserRow struct {
	ID           string
	Username     string
	PasswordHash string
}

// UserRepository defines the data-access contract for user operations.
// Implementations live in internal/core/repository (Core layer).
// The Logic layer depends on this interface only — never on SQL or pgx directly.
type UserRepository interface {
	// Create inserts a new user with a caller-generated id.
	// Returns ErrDuplicateUsername (wrapped) when the username is taken.
	Create(ctx context.Context, id, username, passwordHash string) error

	// GetByUsername returns the user matching the given username.
	// Returns (nil, nil) when no user is found.
	GetByUsername(ctx context.Context, username string) (*UserRow, error)

	// GetUsernameByID returns the username for the given user id.
	// Returns ErrUserNotFound (wrapped) when the row is missing.
	GetUsernameByID(ctx context.Context, id string) (string, error)
}
