package multicache

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpcache "github.com/yan4rust/http-cache"
	"github.com/yan4rust/http-cache/test"
)

// mockStore is a simple in-memory store for testing.
type mockStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	failSet    bool
	failDelete bool
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string][]byte)}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	return value, ok, nil
}

func (m *mockStore) Set(_ context.Context, key string, value []byte) error {
	if m.failSet {
		return errors.New("tier down")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockStore) Delete(_ context.Context, key string) error {
	if m.failDelete {
		return errors.New("tier down")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func TestInterface(t *testing.T) {
	var _ httpcache.Store = &MultiStore{}
}

func TestMultiStoreContract(t *testing.T) {
	test.Store(t, New(newMockStore(), newMockStore()))
}

func TestNew(t *testing.T) {
	tier1 := newMockStore()
	tier2 := newMockStore()
	tier3 := newMockStore()

	tests := []struct {
		name   string
		tiers  []httpcache.Store
		expect bool
	}{
		{name: "valid single tier", tiers: []httpcache.Store{tier1}, expect: true},
		{name: "valid two tiers", tiers: []httpcache.Store{tier1, tier2}, expect: true},
		{name: "valid three tiers", tiers: []httpcache.Store{tier1, tier2, tier3}, expect: true},
		{name: "no tiers", tiers: []httpcache.Store{}, expect: false},
		{name: "nil tier", tiers: []httpcache.Store{tier1, nil, tier3}, expect: false},
		{name: "duplicate tier", tiers: []httpcache.Store{tier1, tier2, tier1}, expect: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := New(tt.tiers...)
			if tt.expect {
				require.NotNil(t, ms)
				assert.Equal(t, len(tt.tiers), len(ms.tiers))
			} else {
				assert.Nil(t, ms)
			}
		})
	}
}

func TestWritesReachAllTiers(t *testing.T) {
	ctx := context.Background()
	fast, slow := newMockStore(), newMockStore()
	store := New(fast, slow)

	require.NoError(t, store.Set(ctx, "k", []byte("v")))

	for _, tier := range []*mockStore{fast, slow} {
		value, ok, err := tier.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte("v"), value)
	}
}

func TestSetAbortsOnTierFailure(t *testing.T) {
	ctx := context.Background()
	fast, slow := newMockStore(), newMockStore()
	fast.failSet = true
	store := New(fast, slow)

	assert.Error(t, store.Set(ctx, "k", []byte("v")))
}

func TestGetPromotesToFasterTiers(t *testing.T) {
	ctx := context.Background()
	fast, slow := newMockStore(), newMockStore()
	store := New(fast, slow)

	// Seed the slow tier only.
	require.NoError(t, slow.Set(ctx, "k", []byte("v")))

	value, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), value)

	promoted, ok, err := fast.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok, "hit was not promoted to the fast tier")
	assert.Equal(t, []byte("v"), promoted)
}

func TestPromotionFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	fast, slow := newMockStore(), newMockStore()
	fast.failSet = true
	store := New(fast, slow)

	require.NoError(t, slow.Set(ctx, "k", []byte("v")))

	value, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), value)
}

func TestDeleteContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	fast, slow := newMockStore(), newMockStore()
	store := New(fast, slow)

	require.NoError(t, store.Set(ctx, "k", []byte("v")))

	fast.failDelete = true
	assert.Error(t, store.Delete(ctx, "k"), "the failing tier's error must surface")

	_, ok, err := slow.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "failing fast tier pinned the entry in the slow tier")
}
