// Package leveldbcache provides an implementation of httpcache.Store that
// uses github.com/syndtr/goleveldb/leveldb for persistent local storage.
package leveldbcache

import (
	"context"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
)

// Store is an implementation of httpcache.Store with leveldb storage.
type Store struct {
	db *leveldb.DB
}

// Get returns the value stored under key if present.
// The context parameter is accepted for interface compliance but not used
// for LevelDB operations.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, err := s.db.Get([]byte(key), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("leveldb cache get failed for key %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any existing value.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	if err := s.db.Put([]byte(key), value, nil); err != nil {
		return fmt.Errorf("leveldb cache set failed for key %q: %w", key, err)
	}
	return nil
}

// Delete removes key from the store.
func (s *Store) Delete(_ context.Context, key string) error {
	if err := s.db.Delete([]byte(key), nil); err != nil {
		return fmt.Errorf("leveldb cache delete failed for key %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// New returns a new Store persisting to a leveldb database at path.
func New(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("leveldb cache open %q: %w", path, err)
	}
	return &Store{db: db}, nil
}

// NewWithDB returns a new Store using the provided leveldb database as
// underlying storage.
func NewWithDB(db *leveldb.DB) *Store {
	return &Store{db: db}
}
