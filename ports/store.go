package ports

import (
	"context"
	"time"

	"github.com/kubi-stream/kubi-auth/core"
)

// NonceStore holds issued nonces until they are consumed or expire.
type NonceStore interface {
	// Save persists a nonce with a TTL.
	Save(ctx context.Context, nonce string, ttl time.Duration) error

	// Consume atomically removes a nonce and reports whether it was present.
	// A nonce can be consumed at most once, even under concurrent attempts.
	Consume(ctx context.Context, nonce string) (bool, error)
}

// UserStore persists user accounts keyed by wallet address.
type UserStore interface {
	// CreateUser inserts a user. The wallet address carries a uniqueness
	// constraint; concurrent creation surfaces as ErrDuplicateAddress.
	CreateUser(ctx context.Context, user *core.User) error

	FindUserByAddress(ctx context.Context, address string) (*core.User, error)
	FindUserByID(ctx context.Context, id string) (*core.User, error)
}

// SessionStore persists sessions keyed by token hash.
type SessionStore interface {
	CreateSession(ctx context.Context, session *core.Session) error

	// FindSessionByTokenHash returns (nil, nil) when no session matches.
	// Expiry is the caller's concern; the store returns whatever it holds.
	FindSessionByTokenHash(ctx context.Context, tokenHash string) (*core.Session, error)

	DeleteSession(ctx context.Context, id string) error

	// DeleteSessionsForUser removes every session owned by the user. Used to
	// enforce the one-active-session policy on login.
	DeleteSessionsForUser(ctx context.Context, userID string) error
}
