package store

import (
	"context"
	"sync"
	"time"

	"github.com/kubi-stream/kubi-auth/ports"
)

// MemoryNonceStore is an in-memory implementation of the NonceStore
// interface, intended for tests and single-process deployments.
type MemoryNonceStore struct {
	nonces map[string]time.Time
	mu     sync.Mutex
}

// NewMemoryNonceStore creates a new in-memory nonce store
func NewMemoryNonceStore() *MemoryNonceStore {
	return &MemoryNonceStore{
		nonces: make(map[string]time.Time),
	}
}

// Save persists a nonce with a TTL
func (s *MemoryNonceStore) Save(ctx context.Context, nonce string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nonces[nonce] = time.Now().Add(ttl)
	return nil
}

// Consume removes a nonce under the lock and reports whether it was present
// and unexpired. The delete-and-check under a single lock acquisition is what
// makes double consumption impossible.
func (s *MemoryNonceStore) Consume(ctx context.Context, nonce string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, exists := s.nonces[nonce]
	if !exists {
		return false, nil
	}
	delete(s.nonces, nonce)

	if time.Now().After(expiry) {
		return false, nil
	}

	return true, nil
}

var _ ports.NonceStore = (*MemoryNonceStore)(nil)
