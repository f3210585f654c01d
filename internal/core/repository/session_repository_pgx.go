package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duynhne/credential-service/internal/core/domain"
)

// PgxSessionRepository implements domain.SessionRepository using pgxpool.
type PgxSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new PgxSessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *PgxSessionRepository {
	return &PgxSessionRepository{pool: pool}
}

// Create inserts a new session row.
func (r *PgxSessionRepository) Create(ctx context.Context, s *domain.SessionRow) error {
	query := `INSERT INTO sessions (id, user_id, username, expires_at) VALUES ($1, $2, $3, $4)`
	_, err := r.pool.Exec(ctx, query, s.ID, s.UserID, s.Username, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetByID looks up a session by its opaque id.
// Returns (nil, nil) when the id does not match any session.
func (r *PgxSessionRepository) GetByID(ctx context.Context, id string) (*domain.SessionRow, error) {
	query := `SELECT id, user_id, username, expires_at FROM sessions WHERE id = $1`

	var row domain.SessionRow
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&row.ID, &row.UserID, &row.Username, &row.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query session: %w", err)
	}

	return &row, nil
}

// Delete removes a session. Deleting an unknown id is not an error, which
// makes logout idempotent.
func (r *PgxSessionRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM sessions WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
