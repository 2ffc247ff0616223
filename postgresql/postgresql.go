// Package postgresql provides a PostgreSQL implementation of
// httpcache.Store using github.com/jackc/pgx/v5.
package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNilPool is returned when a nil pool is provided.
var ErrNilPool = errors.New("postgresql: pool cannot be nil")

const (
	// DefaultTableName is the default table name for cache storage.
	DefaultTableName = "httpcache"
	// DefaultKeyPrefix is the default prefix for cache keys.
	DefaultKeyPrefix = "cache:"
	// DefaultTimeout is the default per-operation timeout.
	DefaultTimeout = 5 * time.Second
)

// Config holds the configuration for the PostgreSQL store.
type Config struct {
	// TableName is the table cache entries are stored in.
	// Optional - defaults to "httpcache".
	TableName string

	// KeyPrefix is a prefix added to all cache keys.
	// Optional - defaults to "cache:".
	KeyPrefix string

	// Timeout bounds each database operation.
	// Optional - defaults to 5 seconds.
	Timeout time.Duration
}

// Store is an implementation of httpcache.Store that keeps values in a
// PostgreSQL table.
type Store struct {
	pool      *pgxpool.Pool
	tableName string
	keyPrefix string
	timeout   time.Duration
}

// NewWithPool returns a Store using the provided connection pool, which the
// caller remains responsible for closing.
func NewWithPool(pool *pgxpool.Pool, config Config) (*Store, error) {
	if pool == nil {
		return nil, ErrNilPool
	}
	if config.TableName == "" {
		config.TableName = DefaultTableName
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = DefaultKeyPrefix
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	return &Store{
		pool:      pool,
		tableName: config.TableName,
		keyPrefix: config.KeyPrefix,
		timeout:   config.Timeout,
	}, nil
}

// New connects to PostgreSQL at connString and returns a Store over a new
// pool. The caller should Close the store when done.
func New(ctx context.Context, connString string, config Config) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("postgresql: connect: %w", err)
	}
	store, err := NewWithPool(pool, config)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// CreateTable creates the cache table if it does not exist.
func (s *Store) CreateTable(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key TEXT PRIMARY KEY,
		value BYTEA NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, s.tableName)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("postgresql: creating table %s: %w", s.tableName, err)
	}
	return nil
}

func (s *Store) key(key string) string {
	return s.keyPrefix + key
}

// Get returns the value stored under key if present.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := fmt.Sprintf("SELECT value FROM %s WHERE key = $1", s.tableName)
	var value []byte
	err := s.pool.QueryRow(ctx, query, s.key(key)).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("postgresql cache get failed for key %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any existing row.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := fmt.Sprintf(`INSERT INTO %s (key, value, created_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, created_at = now()`, s.tableName)
	if _, err := s.pool.Exec(ctx, query, s.key(key), value); err != nil {
		return fmt.Errorf("postgresql cache set failed for key %q: %w", key, err)
	}
	return nil
}

// Delete removes key from the store. Deleting an absent key succeeds.
func (s *Store) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := fmt.Sprintf("DELETE FROM %s WHERE key = $1", s.tableName)
	if _, err := s.pool.Exec(ctx, query, s.key(key)); err != nil {
		return fmt.Errorf("postgresql cache delete failed for key %q: %w", key, err)
	}
	return nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}
