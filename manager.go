package httpcache

import (
	"context"
	"sync"
)

// Entry is the unit of storage: a cache key, the stored response and its
// write-time freshness policy.
type Entry struct {
	Key      string    `json:"key"`
	Response *Response `json:"response"`
	Policy   *Policy   `json:"policy"`
}

// A Manager stores and retrieves cached responses together with their
// freshness policies. Implementations must be safe for concurrent use and
// must make each Put visible to concurrent readers all-or-nothing; a reader
// never observes a partially written entry.
//
// Get never filters by freshness: deciding whether a stored entry may be
// served belongs to the Transport.
type Manager interface {
	// Get returns the stored response and policy for key, with found=false
	// when the key is absent.
	Get(ctx context.Context, key string) (resp *Response, policy *Policy, found bool, err error)
	// Put stores (resp, policy) under key, unconditionally replacing any
	// existing entry.
	Put(ctx context.Context, key string, resp *Response, policy *Policy) error
	// Delete removes the entry under key. Deleting an absent key succeeds.
	Delete(ctx context.Context, key string) error
}

// MemoryManager is a Manager backed by an in-process map. Entries do not
// survive a process restart.
type MemoryManager struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemoryManager returns an empty in-memory Manager.
func NewMemoryManager() *MemoryManager {
	return &MemoryManager{entries: map[string]*Entry{}}
}

// Get returns the stored response and policy for key if present.
func (m *MemoryManager) Get(_ context.Context, key string) (*Response, *Policy, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil, false, nil
	}
	return entry.Response, entry.Policy, true, nil
}

// Put stores (resp, policy) under key, replacing any existing entry. The
// response is deep-copied so later caller mutations cannot leak into the
// stored entry.
func (m *MemoryManager) Put(_ context.Context, key string, resp *Response, policy *Policy) error {
	entry := &Entry{Key: key, Response: resp.Clone(), Policy: policy}
	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}

// Delete removes the entry under key.
func (m *MemoryManager) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries.
func (m *MemoryManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Clear removes all entries.
func (m *MemoryManager) Clear() {
	m.mu.Lock()
	m.entries = map[string]*Entry{}
	m.mu.Unlock()
}
