package domain

import (
	"context"
	"time"
)

// SessionRow represents a persisted session. Username is a snapshot taken
// at session creation so per-request resolution needs no users join.
type SessionRow struct {
	ID        string
	UserID    string
	Username  string
	ExpiresAt time.Time
}

// SessionRepository defines the data-access contract for session operations.
// Implementations live in internal/core/repository (Core layer).
type SessionRepository interface {
	// Create inserts a new session row.
	Create(ctx context.Context, s *SessionRow) error

	// GetByID looks up a session by its opaque id.
	// Returns (nil, nil) when the id does not match any session.
	GetByID(ctx context.Context, id string) (*SessionRow, error)

	// Delete removes a session. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
}
