package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubi-stream/kubi-auth/core"
	"github.com/kubi-stream/kubi-auth/ports"
)

func TestNonceConsumeOnce(t *testing.T) {
	s := NewMemoryNonceStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "nonce-1", time.Minute))

	ok, err := s.Consume(ctx, "nonce-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Consume(ctx, "nonce-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNonceConsumeUnknown(t *testing.T) {
	s := NewMemoryNonceStore()

	ok, err := s.Consume(context.Background(), "never-issued")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNonceConsumeExpired(t *testing.T) {
	s := NewMemoryNonceStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "nonce-2", -time.Second))

	ok, err := s.Consume(ctx, "nonce-2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNonceConcurrentConsume(t *testing.T) {
	s := NewMemoryNonceStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "contended", time.Minute))

	var wins int64
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.Consume(ctx, "contended")
			assert.NoError(t, err)
			if ok {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins)
}

func TestUserUniqueness(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	user := &core.User{ID: "u1", Address: "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B", CreatedAt: time.Now()}
	require.NoError(t, s.CreateUser(ctx, user))

	// Same address, different case, different id.
	dup := &core.User{ID: "u2", Address: "0xab5801a7d398351b8be11c439e05c5b3259aec9b", CreatedAt: time.Now()}
	err := s.CreateUser(ctx, dup)
	assert.ErrorIs(t, err, ports.ErrDuplicateAddress)

	found, err := s.FindUserByAddress(ctx, "0xAB5801A7D398351B8BE11C439E05C5B3259AEC9B")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "u1", found.ID)
}

func TestSessionLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	session := &core.Session{
		ID:        "s1",
		UserID:    "u1",
		TokenHash: "hash-1",
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, s.CreateSession(ctx, session))

	found, err := s.FindSessionByTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "u1", found.UserID)

	missing, err := s.FindSessionByTokenHash(ctx, "nonexistent-token")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, s.DeleteSession(ctx, "s1"))

	found, err = s.FindSessionByTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestDeleteSessionsForUser(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for _, sess := range []*core.Session{
		{ID: "s1", UserID: "u1", TokenHash: "h1", ExpiresAt: time.Now().Add(time.Hour)},
		{ID: "s2", UserID: "u1", TokenHash: "h2", ExpiresAt: time.Now().Add(time.Hour)},
		{ID: "s3", UserID: "u2", TokenHash: "h3", ExpiresAt: time.Now().Add(time.Hour)},
	} {
		require.NoError(t, s.CreateSession(ctx, sess))
	}

	require.NoError(t, s.DeleteSessionsForUser(ctx, "u1"))

	for _, hash := range []string{"h1", "h2"} {
		found, err := s.FindSessionByTokenHash(ctx, hash)
		require.NoError(t, err)
		assert.Nil(t, found)
	}

	kept, err := s.FindSessionByTokenHash(ctx, "h3")
	require.NoError(t, err)
	assert.NotNil(t, kept)
}
