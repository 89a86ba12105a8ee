package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// pendingMarker is stored while the first request is still running
const pendingMarker = "__pending__"

// RedisStore implements Store using Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new store backed by Redis.
func NewRedisStore(addr, password string, db int) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{client: rdb}
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Reserve claims key with SET NX. A key that expires between the failed SET
// and the GET is claimed on the second attempt.
func (s *RedisStore) Reserve(ctx context.Context, key string, lockTTL time.Duration) (*Record, error) {
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.client.SetNX(ctx, key, pendingMarker, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("redis idempotency reserve: %w", err)
		}
		if ok {
			return nil, nil
		}

		raw, err := s.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("redis idempotency lookup: %w", err)
		}
		if string(raw) == pendingMarker {
			return nil, ErrInProgress
		}

		var record Record
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("invalid idempotency record for %s: %w", key, err)
		}
		return &record, nil
	}

	return nil, ErrInProgress
}

// Save stores the completed response.
func (s *RedisStore) Save(ctx context.Context, key string, record Record, ttl time.Duration) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis idempotency save: %w", err)
	}
	return nil
}

// Release deletes the reservation.
func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis idempotency release: %w", err)
	}
	return nil
}
