// Package rediscache provides a Redis implementation of httpcache.Store
// using github.com/redis/go-redis/v9.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds the configuration for creating a Redis store.
type Config struct {
	// Address is the Redis server address (e.g., "localhost:6379").
	// Required field.
	Address string

	// Password is the Redis password for authentication.
	// Optional - leave empty if no authentication is required.
	Password string

	// DB is the Redis database number to use.
	// Optional - defaults to 0.
	DB int

	// KeyPrefix is a prefix added to all cache keys to avoid collision with
	// other data stored in Redis.
	// Optional - defaults to "httpcache:".
	KeyPrefix string

	// TTL is the expiration applied to stored values. Zero means no
	// expiration; HTTP staleness is always re-judged from the stored policy
	// regardless of this value.
	TTL time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{KeyPrefix: "httpcache:"}
}

// Store is an implementation of httpcache.Store that keeps values in a
// Redis server.
type Store struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// New creates a Store connected per config.
func New(config Config) (*Store, error) {
	if config.Address == "" {
		return nil, fmt.Errorf("rediscache: address is required")
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = DefaultConfig().KeyPrefix
	}
	client := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
	})
	return &Store{client: client, keyPrefix: config.KeyPrefix, ttl: config.TTL}, nil
}

// NewWithClient returns a Store using an existing Redis client, which the
// caller remains responsible for closing.
func NewWithClient(client redis.UniversalClient, keyPrefix string) *Store {
	if keyPrefix == "" {
		keyPrefix = DefaultConfig().KeyPrefix
	}
	return &Store{client: client, keyPrefix: keyPrefix}
}

func (s *Store) key(key string) string {
	return s.keyPrefix + key
}

// Get returns the value stored under key if present.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis cache get failed for key %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any existing value.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis cache set failed for key %q: %w", key, err)
	}
	return nil
}

// Delete removes key from the store.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis cache delete failed for key %q: %w", key, err)
	}
	return nil
}

// Close releases the underlying client's connections.
func (s *Store) Close() error {
	return s.client.Close()
}
