package prometheus

import (
	"context"
	"time"

	httpcache "github.com/yan4rust/http-cache"
	"github.com/yan4rust/http-cache/wrapper/metrics"
)

// Metric result values.
const (
	resultHit     = "hit"
	resultMiss    = "miss"
	resultSuccess = "success"
	resultError   = "error"
)

// InstrumentedStore wraps a httpcache.Store and records a measurement for
// every operation.
type InstrumentedStore struct {
	underlying httpcache.Store
	collector  metrics.Collector
	backend    string
}

// NewInstrumentedStore wraps store, labelling measurements with the backend
// name (e.g. "disk", "redis", "leveldb"). A nil collector falls back to
// metrics.DefaultCollector.
func NewInstrumentedStore(store httpcache.Store, backend string, collector metrics.Collector) *InstrumentedStore {
	if collector == nil {
		collector = metrics.DefaultCollector
	}
	return &InstrumentedStore{underlying: store, collector: collector, backend: backend}
}

// Get retrieves a value, recording hit/miss/error and duration.
func (s *InstrumentedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	value, found, err := s.underlying.Get(ctx, key)

	result := resultMiss
	if err != nil {
		result = resultError
	} else if found {
		result = resultHit
	}
	s.collector.RecordStoreOperation("get", s.backend, result, time.Since(start))

	return value, found, err
}

// Set stores a value, recording success/error and duration.
func (s *InstrumentedStore) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := s.underlying.Set(ctx, key, value)

	result := resultSuccess
	if err != nil {
		result = resultError
	}
	s.collector.RecordStoreOperation("set", s.backend, result, time.Since(start))

	return err
}

// Delete removes a value, recording success/error and duration.
func (s *InstrumentedStore) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := s.underlying.Delete(ctx, key)

	result := resultSuccess
	if err != nil {
		result = resultError
	}
	s.collector.RecordStoreOperation("delete", s.backend, result, time.Since(start))

	return err
}
