// Package memcache provides an implementation of httpcache.Store that
// stores values in a memcached cluster via github.com/bradfitz/gomemcache.
package memcache

import (
	"context"
	"errors"
	"fmt"

	"github.com/bradfitz/gomemcache/memcache"
)

// Store is an implementation of httpcache.Store backed by memcached.
type Store struct {
	client *memcache.Client
}

// New returns a new Store using the provided memcached server addresses
// (host:port) with equal weight.
func New(servers ...string) *Store {
	return NewWithClient(memcache.New(servers...))
}

// NewWithClient returns a Store using the provided memcache client.
func NewWithClient(client *memcache.Client) *Store {
	return &Store{client: client}
}

// Get returns the value stored under key if present.
// The context parameter is accepted for interface compliance; gomemcache
// does not support request-scoped cancellation.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	item, err := s.client.Get(key)
	if err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("memcache get failed for key %q: %w", key, err)
	}
	return item.Value, true, nil
}

// Set stores value under key, replacing any existing value.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	if err := s.client.Set(&memcache.Item{Key: key, Value: value}); err != nil {
		return fmt.Errorf("memcache set failed for key %q: %w", key, err)
	}
	return nil
}

// Delete removes key from the store. Deleting an absent key succeeds.
func (s *Store) Delete(_ context.Context, key string) error {
	err := s.client.Delete(key)
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		return fmt.Errorf("memcache delete failed for key %q: %w", key, err)
	}
	return nil
}
