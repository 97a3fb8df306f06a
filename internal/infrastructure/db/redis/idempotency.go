package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyTTL = 24 * time.Hour

// IdempotencyStore remembers which entity a create request produced.
// Key format: idem:<scope>:<client key>
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore creates an IdempotencyStore wrapping the given Redis client.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: idempotencyTTL}
}

// Lookup returns the id stored under key, if any.
func (s *IdempotencyStore) Lookup(ctx context.Context, scope, key string) (uint, bool, error) {
	val, err := s.client.Get(ctx, s.key(scope, key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("idempotency lookup: %w", err)
	}
	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("idempotency lookup: bad value %q", val)
	}
	return uint(id), true, nil
}

// Remember stores id under key unless another request got there first.
func (s *IdempotencyStore) Remember(ctx context.Context, scope, key string, id uint) error {
	return s.client.SetNX(ctx, s.key(scope, key), strconv.FormatUint(uint64(id), 10), s.ttl).Err()
}

func (s *IdempotencyStore) key(scope, key string) string {
	return fmt.Sprintf("idem:%s:%s", scope, key)
}
