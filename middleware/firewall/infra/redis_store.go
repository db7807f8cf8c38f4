package infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"middleware-firewall/middleware/firewall/domain"
)

// RedisStore implementa domain.CounterStore sobre Redis.
// Aceita *redis.Client, *redis.ClusterClient ou qualquer redis.Cmdable.
type RedisStore struct {
	rdb redis.Cmdable
}

var _ domain.CounterStore = (*RedisStore)(nil)

func NewRedisStore(rdb redis.Cmdable) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key domain.Key) ([]byte, bool, error) {
	b, err := s.rdb.Get(ctx, string(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: get %s: %w", domain.ErrStoreUnavailable, key, err)
	}
	return b, true, nil
}

func (s *RedisStore) SetWithExpiry(ctx context.Context, key domain.Key, value []byte, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, string(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %w", domain.ErrStoreUnavailable, key, err)
	}
	return nil
}
