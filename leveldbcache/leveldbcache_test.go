package leveldbcache

import (
	"context"
	"path/filepath"
	"testing"

	httpcache "github.com/yan4rust/http-cache"
	"github.com/yan4rust/http-cache/test"
)

func TestLevelDBStore(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatalf("New leveldb: %v", err)
	}
	defer store.Close()

	test.Store(t, store)
}

func TestLevelDBStoreManager(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatalf("New leveldb: %v", err)
	}
	defer store.Close()

	test.Manager(t, httpcache.NewStoreManager(store, nil))
}

func TestLevelDBPersistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db")

	store, err := New(path)
	if err != nil {
		t.Fatalf("New leveldb: %v", err)
	}
	if err := store.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("reopen leveldb: %v", err)
	}
	defer reopened.Close()

	value, ok, err := reopened.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || string(value) != "v" {
		t.Errorf("reopened value = %q, ok=%v", value, ok)
	}
}
