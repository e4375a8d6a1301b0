package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "feedboard:snapshot:"

// RedisStore keeps snapshots in Redis so concurrent replicas share one cache
// entry per source. The TTL is enforced by Redis key expiry.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore constructs a store from a Redis URL.
func NewRedisStore(url string, ttl time.Duration) (*RedisStore, error) {
	if url == "" {
		return nil, errors.New("redis cache: empty url")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisStore{client: redis.NewClient(opts), ttl: ttl}, nil
}

// Get returns the cached snapshot for the source, if present.
func (s *RedisStore) Get(ctx context.Context, source string) (Snapshot, bool, error) {
	if s == nil || s.client == nil {
		return Snapshot{}, false, nil
	}
	data, err := s.client.Get(ctx, redisKeyPrefix+source).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

// Put stores a snapshot under the source key with the freshness TTL.
func (s *RedisStore) Put(ctx context.Context, source string, snap Snapshot) error {
	if s == nil || s.client == nil {
		return nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKeyPrefix+source, data, s.ttl).Err()
}

// Invalidate drops the snapshot for the source.
func (s *RedisStore) Invalidate(ctx context.Context, source string) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Del(ctx, redisKeyPrefix+source).Err()
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
