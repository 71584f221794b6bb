package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"

	"SearchScorer/internal/ports"
)

// DriverRedis selects the redis-backed key-value store.
const DriverRedis = "redis"

// Store is a closable key-value backend.
type Store interface {
	ports.KVStore
	io.Closer
}

// RedisStore keeps settings and cached scores as plain redis strings.
type RedisStore struct {
	client *redis.Client
}

var _ Store = (*RedisStore)(nil)

// OpenStore connects to any supported driver. The redis DSN is a
// redis:// or rediss:// URL.
func OpenStore(ctx context.Context, driver, dsn string) (Store, error) {
	if driver == DriverRedis {
		return OpenRedis(ctx, dsn)
	}
	return Open(ctx, driver, dsn)
}

// OpenRedis parses the URL and checks the connection with PING.
func OpenRedis(ctx context.Context, dsn string) (*RedisStore, error) {
	opts, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStore(client), nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Close releases the client's connections.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Get returns the stored value and whether the key exists.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// GetMany reads keys with one MGET; absent keys are omitted.
func (s *RedisStore) GetMany(ctx context.Context, keys []string) (map[string]string, error) {
	result := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget: %w", err)
	}
	for i, v := range values {
		if str, ok := v.(string); ok {
			result[keys[i]] = str
		}
	}
	return result, nil
}

// Put overwrites the value without expiry; score freshness is checked on read.
func (s *RedisStore) Put(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
