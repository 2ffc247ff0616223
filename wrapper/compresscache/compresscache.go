// Package compresscache provides a httpcache.Store wrapper that
// transparently compresses stored values to reduce backend storage.
// Supported algorithms: gzip, brotli and snappy.
package compresscache

import (
	"context"
	"fmt"
	"sync/atomic"

	httpcache "github.com/yan4rust/http-cache"
)

// Algorithm identifies a compression algorithm.
type Algorithm int

const (
	// Gzip offers a good balance of compression ratio and speed.
	Gzip Algorithm = iota
	// Brotli offers the best compression ratio at lower speed.
	Brotli
	// Snappy is the fastest with a lower compression ratio.
	Snappy
)

func (a Algorithm) String() string {
	switch a {
	case Gzip:
		return "gzip"
	case Brotli:
		return "brotli"
	case Snappy:
		return "snappy"
	}
	return "unknown"
}

// Values are stored with a one-byte marker: 0 for raw data, otherwise
// 1+Algorithm. Reads decode by marker, so existing entries stay readable
// after the configured algorithm changes.
const markerRaw = byte(0)

// Stats holds compression statistics.
type Stats struct {
	// CompressedBytes is the total stored size of compressed values.
	CompressedBytes int64
	// UncompressedBytes is the total original size of compressed values.
	UncompressedBytes int64
	// CompressedCount is the number of values stored compressed.
	CompressedCount int64
	// RawCount is the number of values stored raw (below MinSize).
	RawCount int64
}

// Config holds the configuration for a compressing store.
type Config struct {
	// Store is the underlying store. Required.
	Store httpcache.Store

	// Algorithm selects the compression used for writes.
	// Default: Gzip.
	Algorithm Algorithm

	// MinSize is the value size in bytes below which values are stored
	// raw; compressing tiny values costs more than it saves.
	// Default: 256.
	MinSize int
}

// Store wraps a httpcache.Store with transparent compression.
type Store struct {
	store     httpcache.Store
	algorithm Algorithm
	minSize   int

	compressedBytes   atomic.Int64
	uncompressedBytes atomic.Int64
	compressedCount   atomic.Int64
	rawCount          atomic.Int64
}

// New returns a compressing wrapper around config.Store.
func New(config Config) (*Store, error) {
	if config.Store == nil {
		return nil, fmt.Errorf("compresscache: store cannot be nil")
	}
	if config.MinSize <= 0 {
		config.MinSize = 256
	}
	if _, ok := encoders[config.Algorithm]; !ok {
		return nil, fmt.Errorf("compresscache: unknown algorithm %d", config.Algorithm)
	}
	return &Store{
		store:     config.Store,
		algorithm: config.Algorithm,
		minSize:   config.MinSize,
	}, nil
}

// Get returns the value stored under key, decompressing as indicated by the
// stored marker. A value that fails to decompress is reported as a miss.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, found, err := s.store.Get(ctx, key)
	if err != nil || !found {
		return nil, found, err
	}
	if len(data) == 0 {
		return data, true, nil
	}

	marker := data[0]
	if marker == markerRaw {
		return data[1:], true, nil
	}

	decode, ok := decoders[Algorithm(marker-1)]
	if !ok {
		return nil, false, nil
	}
	value, err := decode(data[1:])
	if err != nil {
		// Corrupt compressed data degrades to a miss; the record is
		// replaced by the next write to this key.
		return nil, false, nil
	}
	return value, true, nil
}

// Set stores value under key, compressed when it is at least MinSize bytes.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if len(value) < s.minSize {
		s.rawCount.Add(1)
		return s.store.Set(ctx, key, append([]byte{markerRaw}, value...))
	}

	compressed, err := encoders[s.algorithm](value)
	if err != nil {
		return fmt.Errorf("compresscache: %s encode failed for key %q: %w", s.algorithm, key, err)
	}
	s.compressedCount.Add(1)
	s.uncompressedBytes.Add(int64(len(value)))
	s.compressedBytes.Add(int64(len(compressed)))
	return s.store.Set(ctx, key, append([]byte{byte(s.algorithm) + 1}, compressed...))
}

// Delete removes key from the underlying store.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.store.Delete(ctx, key)
}

// Stats returns a snapshot of the compression statistics.
func (s *Store) Stats() Stats {
	return Stats{
		CompressedBytes:   s.compressedBytes.Load(),
		UncompressedBytes: s.uncompressedBytes.Load(),
		CompressedCount:   s.compressedCount.Load(),
		RawCount:          s.rawCount.Load(),
	}
}
