package securecache

import (
	"bytes"
	"context"
	"sync"
	"testing"

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

func (s *memStore) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.data))
	for key := range s.data {
		keys = append(keys, key)
	}
	return keys
}

func TestSecureStoreContract(t *testing.T) {
	store, err := New(Config{Store: newMemStore()})
	if err != nil {
		t.Fatal(err)
	}
	test.Store(t, store)
}

func TestSecureStoreContractEncrypted(t *testing.T) {
	store, err := New(Config{Store: newMemStore(), Passphrase: "secret"})
	if err != nil {
		t.Fatal(err)
	}
	test.Store(t, store)
}

func TestNewRequiresStore(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for nil store")
	}
}

func TestKeysAreHashed(t *testing.T) {
	ctx := context.Background()
	backend := newMemStore()
	store, err := New(Config{Store: backend})
	if err != nil {
		t.Fatal(err)
	}

	key := "GET:https://example.com/secret-path?token=abc"
	if err := store.Set(ctx, key, []byte("v")); err != nil {
		t.Fatal(err)
	}

	for _, stored := range backend.keys() {
		if stored == key {
			t.Fatal("cache key reached the backend in clear text")
		}
		if len(stored) != 64 {
			t.Errorf("backend key %q is not a sha256 hex digest", stored)
		}
	}
}

func TestValuesAreEncrypted(t *testing.T) {
	ctx := context.Background()
	backend := newMemStore()
	store, err := New(Config{Store: backend, Passphrase: "secret"})
	if err != nil {
		t.Fatal(err)
	}

	value := []byte("confidential response body")
	if err := store.Set(ctx, "k", value); err != nil {
		t.Fatal(err)
	}

	raw, ok, _ := backend.Get(ctx, hashKey("k"))
	if !ok {
		t.Fatal("backend missing the record")
	}
	if bytes.Contains(raw, value) {
		t.Error("plaintext visible in the backend")
	}

	got, ok, err := store.Get(ctx, "k")
	if err != nil || !ok || !bytes.Equal(got, value) {
		t.Errorf("Get = %q, ok=%v, err=%v", got, ok, err)
	}
}

func TestWrongPassphraseIsMiss(t *testing.T) {
	ctx := context.Background()
	backend := newMemStore()

	writer, err := New(Config{Store: backend, Passphrase: "right"})
	if err != nil {
		t.Fatal(err)
	}
	if err := writer.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}

	reader, err := New(Config{Store: backend, Passphrase: "wrong"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok, err := reader.Get(ctx, "k"); err != nil || ok {
		t.Errorf("wrong passphrase: ok=%v err=%v, want miss without error", ok, err)
	}
}

func TestTamperedCiphertextIsMiss(t *testing.T) {
	ctx := context.Background()
	backend := newMemStore()
	store, err := New(Config{Store: backend, Passphrase: "secret"})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}

	raw, _, _ := backend.Get(ctx, hashKey("k"))
	raw[len(raw)-1] ^= 0xff
	if err := backend.Set(ctx, hashKey("k"), raw); err != nil {
		t.Fatal(err)
	}

	if _, ok, err := store.Get(ctx, "k"); err != nil || ok {
		t.Errorf("tampered record: ok=%v err=%v, want miss without error", ok, err)
	}
}
