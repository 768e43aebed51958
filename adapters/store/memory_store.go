package store

import (
	"context"
	"strings"
	"sync"

	"github.com/kubi-stream/kubi-auth/core"
	"github.com/kubi-stream/kubi-auth/ports"
)

// MemoryStore is an in-memory implementation of UserStore and SessionStore.
// It enforces the same wallet-address uniqueness the Postgres schema does, so
// the service's race-recovery path is exercised in tests too.
type MemoryStore struct {
	users    map[string]*core.User    // by lowercased address
	sessions map[string]*core.Session // by token hash
	mu       sync.Mutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*core.User),
		sessions: make(map[string]*core.Session),
	}
}

// CreateUser inserts a user, enforcing address uniqueness
func (s *MemoryStore) CreateUser(ctx context.Context, user *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(user.Address)
	if _, exists := s.users[key]; exists {
		return ports.ErrDuplicateAddress
	}

	u := *user
	s.users[key] = &u
	return nil
}

// FindUserByAddress returns (nil, nil) when no user matches
func (s *MemoryStore) FindUserByAddress(ctx context.Context, address string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[strings.ToLower(address)]
	if !exists {
		return nil, nil
	}

	u := *user
	return &u, nil
}

// FindUserByID returns (nil, nil) when no user matches
func (s *MemoryStore) FindUserByID(ctx context.Context, id string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.ID == id {
			u := *user
			return &u, nil
		}
	}
	return nil, nil
}

// CreateSession inserts a session
func (s *MemoryStore) CreateSession(ctx context.Context, session *core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := *session
	s.sessions[session.TokenHash] = &sess
	return nil
}

// FindSessionByTokenHash returns (nil, nil) when no session matches
func (s *MemoryStore) FindSessionByTokenHash(ctx context.Context, tokenHash string) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[tokenHash]
	if !exists {
		return nil, nil
	}

	sess := *session
	return &sess, nil
}

// DeleteSession removes a session by id
func (s *MemoryStore) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for hash, session := range s.sessions {
		if session.ID == id {
			delete(s.sessions, hash)
		}
	}
	return nil
}

// DeleteSessionsForUser removes every session owned by the user
func (s *MemoryStore) DeleteSessionsForUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for hash, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, hash)
		}
	}
	return nil
}

var (
	_ ports.UserStore    = (*MemoryStore)(nil)
	_ ports.SessionStore = (*MemoryStore)(nil)
)
