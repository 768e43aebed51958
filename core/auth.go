package core

import "time"

// Challenge represents a pending login attempt. The nonce is single-use:
// it is persisted server-side on issuance and consumed exactly once when a
// login attempt is verified against it.
type Challenge struct {
	ID        string    // Unique identifier for the challenge
	Address   string    // Ethereum address the login is claimed for
	Nonce     string    // Random nonce to be signed
	IssuedAt  time.Time // When the challenge was created
	ExpiresAt time.Time // When the challenge expires
}

// Session represents an authenticated login. The token itself is opaque and
// never persisted; only its hash is stored.
type Session struct {
	ID        string    // Unique session identifier
	UserID    string    // Owning user
	TokenHash string    // Hex-encoded sha256 of the opaque session token
	IssuedAt  time.Time // When the session was created
	ExpiresAt time.Time // When the session expires
}

// User represents an account, keyed by wallet address. The address is stored
// in EIP-55 checksum form and is immutable once created.
type User struct {
	ID        string
	Address   string
	CreatedAt time.Time
}

// SessionWithUser is what the resolver hands to request handlers.
type SessionWithUser struct {
	Session *Session
	User    *User
}
