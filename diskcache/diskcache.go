// Package diskcache provides an implementation of httpcache.Store that uses
// the diskv package to supplement an in-memory map with persistent storage.
package diskcache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/peterbourgon/diskv"
)

// Store is an implementation of httpcache.Store backed by diskv.
type Store struct {
	d *diskv.Diskv
}

// Get returns the value stored under key if present.
// The context parameter is accepted for interface compliance but not used
// for disk operations.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, err := s.d.Read(keyToFilename(key))
	if err != nil {
		// A missing file is a miss, not an error.
		return nil, false, nil
	}
	return value, true, nil
}

// Set stores value under key, replacing any existing value.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	if err := s.d.WriteStream(keyToFilename(key), bytes.NewReader(value), true); err != nil {
		return fmt.Errorf("disk cache set failed for key %q: %w", key, err)
	}
	return nil
}

// Delete removes key from the store.
func (s *Store) Delete(_ context.Context, key string) error {
	// Erase errors for files that don't exist are not real errors.
	_ = s.d.Erase(keyToFilename(key)) //nolint:errcheck // idempotent delete
	return nil
}

func keyToFilename(key string) string {
	h := sha256.New()
	//nolint:errcheck // io.WriteString to hash.Hash never fails
	_, _ = io.WriteString(h, key)
	return hex.EncodeToString(h.Sum(nil))
}

// New returns a new Store that will store files in basePath.
func New(basePath string) *Store {
	return &Store{
		d: diskv.New(diskv.Options{
			BasePath:     basePath,
			CacheSizeMax: 100 * 1024 * 1024, // 100MB
		}),
	}
}

// NewWithDiskv returns a new Store using the provided Diskv as underlying
// storage.
func NewWithDiskv(d *diskv.Diskv) *Store {
	return &Store{d: d}
}
