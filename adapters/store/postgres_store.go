package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kubi-stream/kubi-auth/core"
	"github.com/kubi-stream/kubi-auth/ports"
)

// uniqueViolation is the SQLSTATE pgx reports when an insert hits a unique
// constraint.
const uniqueViolation = "23505"

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         UUID PRIMARY KEY,
		address    TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id         UUID PRIMARY KEY,
		user_id    UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		token_hash TEXT NOT NULL UNIQUE,
		issued_at  TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS sessions_user_id_idx ON sessions (user_id)`,
}

// PostgresStore implements UserStore and SessionStore on a pgx pool. Address
// lookups are case-insensitive via LOWER(); the unique constraint on the
// address column is the sole serialization point for concurrent first logins.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new Postgres store
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the schema if it does not exist
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	return nil
}

// CreateUser inserts a user row
func (s *PostgresStore) CreateUser(ctx context.Context, user *core.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, address, created_at)
		VALUES ($1, $2, $3)
	`, user.ID, user.Address, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ports.ErrDuplicateAddress
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByAddress returns (nil, nil) when no user matches
func (s *PostgresStore) FindUserByAddress(ctx context.Context, address string) (*core.User, error) {
	var user core.User
	row := s.pool.QueryRow(ctx, `
		SELECT id, address, created_at
		FROM users
		WHERE LOWER(address) = LOWER($1)
	`, address)
	if err := row.Scan(&user.ID, &user.Address, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by address: %w", err)
	}
	return &user, nil
}

// FindUserByID returns (nil, nil) when no user matches
func (s *PostgresStore) FindUserByID(ctx context.Context, id string) (*core.User, error) {
	var user core.User
	row := s.pool.QueryRow(ctx, `
		SELECT id, address, created_at
		FROM users
		WHERE id = $1
	`, id)
	if err := row.Scan(&user.ID, &user.Address, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by id: %w", err)
	}
	return &user, nil
}

// CreateSession inserts a session row
func (s *PostgresStore) CreateSession(ctx context.Context, session *core.Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (id, user_id, token_hash, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`, session.ID, session.UserID, session.TokenHash, session.IssuedAt, session.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindSessionByTokenHash returns (nil, nil) when no session matches
func (s *PostgresStore) FindSessionByTokenHash(ctx context.Context, tokenHash string) (*core.Session, error) {
	var session core.Session
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, token_hash, issued_at, expires_at
		FROM sessions
		WHERE token_hash = $1
	`, tokenHash)
	if err := row.Scan(&session.ID, &session.UserID, &session.TokenHash, &session.IssuedAt, &session.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return &session, nil
}

// DeleteSession removes a session row
func (s *PostgresStore) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteSessionsForUser removes every session owned by the user
func (s *PostgresStore) DeleteSessionsForUser(ctx context.Context, userID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete sessions for user: %w", err)
	}
	return nil
}

var (
	_ ports.UserStore    = (*PostgresStore)(nil)
	_ ports.SessionStore = (*PostgresStore)(nil)
)
