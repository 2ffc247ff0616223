// Package metrics defines a collector interface for HTTP cache metrics so
// monitoring backends can be plugged in without adding dependencies to the
// core httpcache package.
package metrics

import "time"

// Collector receives cache and transport measurements.
type Collector interface {
	// RecordStoreOperation records a store operation.
	// operation is "get", "set" or "delete"; backend names the store
	// implementation (e.g. "memory", "redis", "leveldb"); result is "hit",
	// "miss", "success" or "error".
	RecordStoreOperation(operation, backend, result string, duration time.Duration)

	// RecordHTTPRequest records a request through the cache transport.
	// cacheStatus is "hit", "miss" or "revalidated".
	RecordHTTPRequest(method, cacheStatus string, statusCode int, duration time.Duration)

	// RecordHTTPResponseSize records the body size of a delivered response.
	RecordHTTPResponseSize(cacheStatus string, sizeBytes int64)
}

// NoOpCollector implements Collector with no-op operations; it is the
// default when metrics are not enabled.
type NoOpCollector struct{}

func (NoOpCollector) RecordStoreOperation(operation, backend, result string, duration time.Duration) {
}
func (NoOpCollector) RecordHTTPRequest(method, cacheStatus string, statusCode int, duration time.Duration) {
}
func (NoOpCollector) RecordHTTPResponseSize(cacheStatus string, sizeBytes int64) {}

// DefaultCollector is used when a nil collector is supplied.
var DefaultCollector Collector = NoOpCollector{}
