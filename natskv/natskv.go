// Package natskv provides a NATS JetStream Key/Value implementation of
// httpcache.Store.
package natskv

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Config holds the configuration for creating a NATS K/V store.
type Config struct {
	// NATSUrl is the URL of the NATS server (e.g., "nats://localhost:4222").
	// If empty, defaults to nats.DefaultURL.
	NATSUrl string

	// Bucket is the name of the K/V bucket to use for caching.
	// Required field.
	Bucket string

	// Description is an optional description for the K/V bucket.
	Description string

	// TTL is the time-to-live for stored values. If zero, values don't
	// expire on the NATS side.
	TTL time.Duration

	// NATSOptions are additional options to pass to nats.Connect.
	// Optional.
	NATSOptions []nats.Option
}

// Store is an implementation of httpcache.Store that keeps values in a NATS
// JetStream Key/Value bucket.
type Store struct {
	kv jetstream.KeyValue
	nc *nats.Conn
}

// storeKey maps an httpcache key onto the restricted NATS K/V key alphabet.
// Cache keys contain characters such as ':' and '?' that NATS rejects, so
// the key is hashed.
func storeKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return "httpcache." + hex.EncodeToString(sum[:])
}

// Get returns the value stored under key if present.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	entry, err := s.kv.Get(ctx, storeKey(key))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("nats kv get failed for key %q: %w", key, err)
	}
	return entry.Value(), true, nil
}

// Set stores value under key, replacing any existing value.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.kv.Put(ctx, storeKey(key), value); err != nil {
		return fmt.Errorf("nats kv set failed for key %q: %w", key, err)
	}
	return nil
}

// Delete removes key from the store. Deleting an absent key succeeds.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.kv.Delete(ctx, storeKey(key)); err != nil {
		if !errors.Is(err, jetstream.ErrKeyNotFound) {
			return fmt.Errorf("nats kv delete failed for key %q: %w", key, err)
		}
	}
	return nil
}

// Close closes the underlying NATS connection if it was created by New().
// It is a no-op when using NewWithKeyValue().
func (s *Store) Close() error {
	if s.nc != nil {
		s.nc.Close()
	}
	return nil
}

// New connects to NATS, creates or updates the configured K/V bucket and
// returns a Store over it. The caller should Close the store when done.
func New(ctx context.Context, config Config) (*Store, error) {
	if config.Bucket == "" {
		return nil, fmt.Errorf("natskv: bucket name is required")
	}

	url := config.NATSUrl
	if url == "" {
		url = nats.DefaultURL
	}

	nc, err := nats.Connect(url, config.NATSOptions...)
	if err != nil {
		return nil, fmt.Errorf("natskv: connecting to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("natskv: creating JetStream context: %w", err)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      config.Bucket,
		Description: config.Description,
		TTL:         config.TTL,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("natskv: creating K/V bucket: %w", err)
	}

	return &Store{kv: kv, nc: nc}, nil
}

// NewWithKeyValue returns a Store over an existing JetStream KeyValue
// bucket. The caller manages the NATS connection.
func NewWithKeyValue(kv jetstream.KeyValue) *Store {
	return &Store{kv: kv}
}
