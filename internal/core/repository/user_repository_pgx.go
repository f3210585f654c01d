package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duynhne/credential-service/internal/core/domain"
)

// uniqueViolation is the Postgres SQLSTATE for unique constraint failures.
const uniqueViolation = "23505"

// PgxUserRepository implements domain.UserRepository using pgxpool.
type PgxUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PgxUserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PgxUserRepository {
	return &PgxUserRepository{pool: pool}
}

// Create inserts a new user row. Uniqueness is enforced by the database
// constraint, so two concurrent inserts for the same username commit
// exactly one row; the loser gets ErrDuplicateUsername.
func (r *PgxUserRepository) Create(ctx context.Context, id, username, passwordHash string) error {
	query := `INSERT INTO users (id, username, password_hash) VALUES ($1, $2, $3)`

	_, err := r.pool.Exec(ctx, query, id, username, passwordHash)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("insert user %q: %w", username, domain.ErrDuplicateUsername)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByUsername returns the user matching the given username.
// Returns (nil, nil) when no user is found.
func (r *PgxUserRepository) GetByUsername(ctx context.Context, username string) (*domain.UserRow, error) {
	query := `SELECT id, username, password_hash FROM users WHERE username = $1`

	var row domain.UserRow
	err := r.pool.QueryRow(ctx, query, username).Scan(
		&row.ID, &row.Username, &row.PasswordHash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by username: %w", err)
	}

	return &row, nil
}

// GetUsernameByID returns the username for the given user id.
func (r *PgxUserRepository) GetUsernameByID(ctx context.Context, id string) (string, error) {
	query := `SELECT username FROM users WHERE id = $1`

	var username string
	err := r.pool.QueryRow(ctx, query, id).Scan(&username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("user %q: %w", id, domain.ErrUserNotFound)
		}
		return "", fmt.Errorf("query username by id: %w", err)
	}

	return username, nil
}
