package compresscache

import (
	"bytes"
	"context"
	"sync"
	"testing"

	httpcache "github.com/yan4rust/http-cache"
	"github.com/yan4rust/http-cache/test"
)

// memStore is a minimal in-process Store for wrapper tests.
type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.data[key]
	return value, ok, nil
}

func (s *memStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func compressible(n int) []byte {
	return bytes.Repeat([]byte("compressible data "), n)
}

func TestCompressStoreContract(t *testing.T) {
	for _, algorithm := range []Algorithm{Gzip, Brotli, Snappy} {
		t.Run(algorithm.String(), func(t *testing.T) {
			store, err := New(Config{Store: newMemStore(), Algorithm: algorithm})
			if err != nil {
				t.Fatal(err)
			}
			test.Store(t, store)
		})
	}
}

func TestRoundTripCompressed(t *testing.T) {
	ctx := context.Background()
	for _, algorithm := range []Algorithm{Gzip, Brotli, Snappy} {
		t.Run(algorithm.String(), func(t *testing.T) {
			backend := newMemStore()
			store, err := New(Config{Store: backend, Algorithm: algorithm})
			if err != nil {
				t.Fatal(err)
			}

			value := compressible(100)
			if err := store.Set(ctx, "k", value); err != nil {
				t.Fatalf("Set: %v", err)
			}

			// The backend holds the marker plus a smaller payload.
			raw, ok, _ := backend.Get(ctx, "k")
			if !ok {
				t.Fatal("backend missing the record")
			}
			if raw[0] != byte(algorithm)+1 {
				t.Errorf("marker = %d, want %d", raw[0], byte(algorithm)+1)
			}
			if len(raw) >= len(value) {
				t.Errorf("stored %d bytes for a %d byte compressible value", len(raw), len(value))
			}

			got, ok, err := store.Get(ctx, "k")
			if err != nil || !ok {
				t.Fatalf("Get: ok=%v err=%v", ok, err)
			}
			if !bytes.Equal(got, value) {
				t.Error("round-tripped value differs")
			}
		})
	}
}

func TestSmallValuesStoredRaw(t *testing.T) {
	ctx := context.Background()
	backend := newMemStore()
	store, err := New(Config{Store: backend, MinSize: 64})
	if err != nil {
		t.Fatal(err)
	}

	value := []byte("tiny")
	if err := store.Set(ctx, "k", value); err != nil {
		t.Fatalf("Set: %v", err)
	}

	raw, _, _ := backend.Get(ctx, "k")
	if raw[0] != markerRaw {
		t.Errorf("marker = %d, want raw", raw[0])
	}
	if !bytes.Equal(raw[1:], value) {
		t.Error("raw value was transformed")
	}

	got, ok, err := store.Get(ctx, "k")
	if err != nil || !ok || !bytes.Equal(got, value) {
		t.Errorf("Get = %q, ok=%v, err=%v", got, ok, err)
	}

	stats := store.Stats()
	if stats.RawCount != 1 || stats.CompressedCount != 0 {
		t.Errorf("stats = %+v, want one raw write", stats)
	}
}

func TestAlgorithmChangeKeepsOldEntriesReadable(t *testing.T) {
	ctx := context.Background()
	backend := newMemStore()

	gzipStore, err := New(Config{Store: backend, Algorithm: Gzip})
	if err != nil {
		t.Fatal(err)
	}
	value := compressible(100)
	if err := gzipStore.Set(ctx, "k", value); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// A store configured for snappy still decodes the gzip record.
	snappyStore, err := New(Config{Store: backend, Algorithm: Snappy})
	if err != nil {
		t.Fatal(err)
	}
	got, ok, err := snappyStore.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(got, value) {
		t.Error("cross-algorithm read differs")
	}
}

func TestCorruptRecordIsMiss(t *testing.T) {
	ctx := context.Background()
	backend := newMemStore()
	store, err := New(Config{Store: backend})
	if err != nil {
		t.Fatal(err)
	}

	// Gzip marker followed by garbage.
	if err := backend.Set(ctx, "bad", []byte{byte(Gzip) + 1, 0xde, 0xad}); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := store.Get(ctx, "bad"); err != nil || ok {
		t.Errorf("corrupt record: ok=%v err=%v, want miss without error", ok, err)
	}

	// Unknown marker byte.
	if err := backend.Set(ctx, "unknown", []byte{0xff, 0x01}); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := store.Get(ctx, "unknown"); err != nil || ok {
		t.Errorf("unknown marker: ok=%v err=%v, want miss without error", ok, err)
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	store, err := New(Config{Store: newMemStore()})
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Set(ctx, "big", compressible(100)); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, "small", []byte("x")); err != nil {
		t.Fatal(err)
	}

	stats := store.Stats()
	if stats.CompressedCount != 1 || stats.RawCount != 1 {
		t.Errorf("counts = %+v", stats)
	}
	if stats.CompressedBytes >= stats.UncompressedBytes {
		t.Errorf("no compression gain recorded: %+v", stats)
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for nil store")
	}
	if _, err := New(Config{Store: newMemStore(), Algorithm: Algorithm(99)}); err == nil {
		t.Error("expected error for unknown algorithm")
	}
}

var _ httpcache.Store = (*Store)(nil)
