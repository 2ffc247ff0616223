package httpcache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// A Store is a byte-blob key/value backend. It is the minimal contract the
// backend subpackages (leveldb, diskv, redis, mongodb, memcached, postgres,
// NATS K/V, freecache) implement; NewStoreManager layers the Manager
// contract on top of any Store.
//
// Implementations must be safe for concurrent use, must observe Set
// atomically per key, and should honor ctx cancellation where the
// underlying client supports it. Backend I/O failures surface as errors
// rather than blocking the request pipeline.
type Store interface {
	// Get returns the value stored under key, with found=false when absent.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Set stores value under key, replacing any existing value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key succeeds.
	Delete(ctx context.Context, key string) error
}

// StoreManager adapts a byte-blob Store into a Manager by serializing
// entries as JSON. A stored record that no longer decodes is treated as a
// cache miss; the corrupt value is overwritten by the next Put to its key.
type StoreManager struct {
	store Store
	log   *slog.Logger
}

// NewStoreManager returns a Manager backed by store. A nil logger falls
// back to slog.Default().
func NewStoreManager(store Store, log *slog.Logger) *StoreManager {
	if log == nil {
		log = slog.Default()
	}
	return &StoreManager{store: store, log: log}
}

// Get returns the stored response and policy for key if present. A record
// that fails to decode is reported as a miss, not as an error.
func (m *StoreManager) Get(ctx context.Context, key string) (*Response, *Policy, bool, error) {
	value, found, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, nil, false, fmt.Errorf("httpcache: store get %q: %w", key, err)
	}
	if !found {
		return nil, nil, false, nil
	}

	var entry Entry
	if err := json.Unmarshal(value, &entry); err != nil {
		m.log.Warn("discarding undecodable cache entry", "key", key, "error", err)
		return nil, nil, false, nil
	}
	if entry.Response == nil || entry.Policy == nil {
		m.log.Warn("discarding incomplete cache entry", "key", key)
		return nil, nil, false, nil
	}
	return entry.Response, entry.Policy, true, nil
}

// Put stores (resp, policy) under key, replacing any existing record.
func (m *StoreManager) Put(ctx context.Context, key string, resp *Response, policy *Policy) error {
	value, err := json.Marshal(Entry{Key: key, Response: resp, Policy: policy})
	if err != nil {
		return fmt.Errorf("httpcache: encoding entry %q: %w", key, err)
	}
	if err := m.store.Set(ctx, key, value); err != nil {
		return fmt.Errorf("httpcache: store set %q: %w", key, err)
	}
	return nil
}

// Delete removes the record under key.
func (m *StoreManager) Delete(ctx context.Context, key string) error {
	if err := m.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("httpcache: store delete %q: %w", key, err)
	}
	return nil
}
