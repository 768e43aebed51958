package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kubi-stream/kubi-auth/core"
	"github.com/kubi-stream/kubi-auth/internal/eth"
	"github.com/kubi-stream/kubi-auth/ports"
)

const (
	// DefaultChallengeTTL is how long a signed-in challenge stays valid
	DefaultChallengeTTL = 5 * time.Minute

	// DefaultSessionTTL is the fixed session expiry duration
	DefaultSessionTTL = 7 * 24 * time.Hour
)

// Config holds AuthService policy knobs. Zero values fall back to defaults.
type Config struct {
	ChallengeTTL time.Duration
	SessionTTL   time.Duration

	// SingleSession makes a new login supersede the user's prior sessions.
	SingleSession bool
}

// ChallengeResult carries a freshly issued challenge to the client
type ChallengeResult struct {
	Token   string
	Message string
}

// LoginResult carries the materialized session back to the transport layer,
// which decides how the token travels (cookie, response body).
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *core.User
}

// AuthService handles the wallet-signature authentication flow
type AuthService struct {
	tokenizer ports.Tokenizer
	nonces    ports.NonceStore
	users     ports.UserStore
	sessions  ports.SessionStore
	eventPub  ports.EventPublisher

	challengeTTL  time.Duration
	sessionTTL    time.Duration
	singleSession bool
}

// NewAuthService creates a new authentication service
func NewAuthService(
	tokenizer ports.Tokenizer,
	nonces ports.NonceStore,
	users ports.UserStore,
	sessions ports.SessionStore,
	eventPub ports.EventPublisher,
	cfg Config,
) *AuthService {
	if cfg.ChallengeTTL <= 0 {
		cfg.ChallengeTTL = DefaultChallengeTTL
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}

	return &AuthService{
		tokenizer:     tokenizer,
		nonces:        nonces,
		users:         users,
		sessions:      sessions,
		eventPub:      eventPub,
		challengeTTL:  cfg.ChallengeTTL,
		sessionTTL:    cfg.SessionTTL,
		singleSession: cfg.SingleSession,
	}
}

// CreateChallenge issues a new challenge for the given wallet address. The
// nonce is persisted server-side so it can be consumed exactly once.
func (s *AuthService) CreateChallenge(ctx context.Context, address string) (*ChallengeResult, error) {
	if !eth.ValidAddress(address) {
		return nil, core.ErrInvalidAddress
	}

	nonceBytes := make([]byte, 32)
	if _, err := rand.Read(nonceBytes); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	now := time.Now()
	challenge := &core.Challenge{
		ID:        uuid.New().String(),
		Address:   eth.ChecksumAddress(address),
		Nonce:     hex.EncodeToString(nonceBytes),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.challengeTTL),
	}

	if err := s.nonces.Save(ctx, challenge.Nonce, s.challengeTTL); err != nil {
		return nil, fmt.Errorf("failed to save nonce: %w", err)
	}

	token, err := s.tokenizer.ChallengeToToken(challenge)
	if err != nil {
		return nil, fmt.Errorf("failed to create challenge token: %w", err)
	}

	return &ChallengeResult{
		Token:   token,
		Message: s.tokenizer.SignInMessage(challenge),
	}, nil
}

// Login verifies a signed challenge and materializes a session. The nonce is
// consumed before the signature is checked, so a failed attempt burns it and
// the client has to request a fresh challenge.
func (s *AuthService) Login(ctx context.Context, challengeToken, signature, address string) (*LoginResult, error) {
	challenge, err := s.tokenizer.TokenToChallenge(challengeToken)
	if err != nil {
		return nil, err
	}

	if time.Now().After(challenge.ExpiresAt) {
		return nil, core.ErrExpiredChallenge
	}

	consumed, err := s.nonces.Consume(ctx, challenge.Nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to consume nonce: %w", err)
	}
	if !consumed {
		return nil, core.ErrInvalidNonce
	}

	if err := s.tokenizer.VerifySignature(challenge, signature, address); err != nil {
		return nil, err
	}

	user, err := s.getOrCreateUser(ctx, challenge.Address)
	if err != nil {
		return nil, err
	}

	if s.singleSession {
		if err := s.sessions.DeleteSessionsForUser(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("failed to supersede prior sessions: %w", err)
		}
	}

	token, err := generateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := time.Now()
	session := &core.Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		TokenHash: hashToken(token),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.sessionTTL),
	}

	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := s.eventPub.PublishLogin(ctx, user.ID, user.Address); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to publish login event")
	}

	return &LoginResult{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		User:      user,
	}, nil
}

// Resolve looks up a session token. Absent, malformed, unknown and expired
// tokens all resolve to (nil, nil); only store failures are errors.
func (s *AuthService) Resolve(ctx context.Context, token string) (*core.SessionWithUser, error) {
	if token == "" {
		return nil, nil
	}

	session, err := s.sessions.FindSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	if time.Now().After(session.ExpiresAt) {
		// Expired sessions are treated as absent. Deleting here is storage
		// hygiene, not a correctness requirement.
		if err := s.sessions.DeleteSession(ctx, session.ID); err != nil {
			log.Debug().Err(err).Str("session_id", session.ID).Msg("failed to delete expired session")
		}
		return nil, nil
	}

	user, err := s.users.FindUserByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, nil
	}

	return &core.SessionWithUser{Session: session, User: user}, nil
}

// Logout destroys the session behind the token. Logging out an absent or
// expired session succeeds.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	resolved, err := s.Resolve(ctx, token)
	if err != nil {
		return err
	}
	if resolved == nil {
		return nil
	}

	if err := s.sessions.DeleteSession(ctx, resolved.Session.ID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if err := s.eventPub.PublishLogout(ctx, resolved.User.ID, resolved.Session.ID); err != nil {
		log.Warn().Err(err).Str("session_id", resolved.Session.ID).Msg("failed to publish logout event")
	}

	return nil
}

// getOrCreateUser implements first-login-creates-account semantics. The
// uniqueness constraint on the address column is the serialization point for
// concurrent first logins: losing the race means the row exists, so re-read.
func (s *AuthService) getOrCreateUser(ctx context.Context, address string) (*core.User, error) {
	user, err := s.users.FindUserByAddress(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user != nil {
		return user, nil
	}

	user = &core.User{
		ID:        uuid.New().String(),
		Address:   address,
		CreatedAt: time.Now(),
	}

	err = s.users.CreateUser(ctx, user)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ports.ErrDuplicateAddress) {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user, err = s.users.FindUserByAddress(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to re-read user after create race: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user vanished after create race")
	}
	return user, nil
}

// generateSessionToken returns an opaque 256-bit token
func generateSessionToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// hashToken returns the hex sha256 of a session token. Only the hash is
// persisted, so a leaked sessions table does not leak usable tokens.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
