// Package freecache provides a zero-GC overhead implementation of
// httpcache.Store using github.com/coocood/freecache as the underlying
// storage, with automatic LRU eviction when the cache is full.
package freecache

import (
	"context"
	"fmt"

	"github.com/coocood/freecache"
)

// Store is an implementation of httpcache.Store backed by freecache.
type Store struct {
	cache *freecache.Cache
	ttl   int // seconds; 0 means no expiry
}

// New creates a new Store with the given size in bytes. The underlying
// cache enforces a 512KB minimum. Entries never expire on their own;
// staleness remains a read-time policy judgment.
func New(size int) *Store {
	return &Store{cache: freecache.NewCache(size)}
}

// NewWithTTL creates a new Store whose entries are evicted by freecache
// after ttlSeconds, independent of HTTP freshness.
func NewWithTTL(size, ttlSeconds int) *Store {
	return &Store{cache: freecache.NewCache(size), ttl: ttlSeconds}
}

// Get returns the value stored under key if present.
// The context parameter is accepted for interface compliance; freecache
// operations are in-process and do not block.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, err := s.cache.Get([]byte(key))
	if err != nil {
		// freecache reports both misses and expired entries as ErrNotFound.
		return nil, false, nil
	}
	return value, true, nil
}

// Set stores value under key, replacing any existing value. Values larger
// than 1/1024 of the cache size are rejected by freecache and surface as an
// error.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	if err := s.cache.Set([]byte(key), value, s.ttl); err != nil {
		return fmt.Errorf("freecache set failed for key %q: %w", key, err)
	}
	return nil
}

// Delete removes key from the store.
func (s *Store) Delete(_ context.Context, key string) error {
	s.cache.Del([]byte(key))
	return nil
}

// Clear removes all entries.
func (s *Store) Clear() {
	s.cache.Clear()
}

// EntryCount returns the number of live entries.
func (s *Store) EntryCount() int64 {
	return s.cache.EntryCount()
}
