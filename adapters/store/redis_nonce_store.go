package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kubi-stream/kubi-auth/ports"
)

// RedisNonceStore is a Redis implementation of the NonceStore interface.
// Consumption uses GETDEL so a nonce cannot be consumed twice even under
// concurrent verification attempts.
type RedisNonceStore struct {
	client *redis.Client
	prefix string
}

// NewRedisNonceStore creates a new Redis nonce store
func NewRedisNonceStore(client *redis.Client) ports.NonceStore {
	return &RedisNonceStore{
		client: client,
		prefix: "kubi:nonce:",
	}
}

// Save persists a nonce with a TTL
func (s *RedisNonceStore) Save(ctx context.Context, nonce string, ttl time.Duration) error {
	key := s.prefix + nonce

	if err := s.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to save nonce: %w", err)
	}

	return nil
}

// Consume atomically removes a nonce and reports whether it was present
func (s *RedisNonceStore) Consume(ctx context.Context, nonce string) (bool, error) {
	key := s.prefix + nonce

	_, err := s.client.GetDel(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to consume nonce: %w", err)
	}

	return true, nil
}
