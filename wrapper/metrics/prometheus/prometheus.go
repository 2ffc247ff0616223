// Package prometheus provides a Prometheus implementation of
// metrics.Collector plus instrumented wrappers for stores and transports.
package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/yan4rust/http-cache/wrapper/metrics"
)

// Collector implements metrics.Collector backed by Prometheus metrics.
type Collector struct {
	storeOps         *prometheus.CounterVec
	storeOpDuration  *prometheus.HistogramVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	httpResponseSize *prometheus.CounterVec
}

// CollectorConfig configures a Prometheus collector.
type CollectorConfig struct {
	// Registry is the Prometheus registry to register metrics with.
	// If nil, prometheus.DefaultRegisterer is used.
	Registry prometheus.Registerer

	// Namespace for metric names (default: "httpcache").
	Namespace string

	// ConstLabels are added to all metrics.
	ConstLabels prometheus.Labels
}

// NewCollector creates a collector on the default registry.
func NewCollector() *Collector {
	return NewCollectorWithConfig(CollectorConfig{})
}

// NewCollectorWithConfig creates a collector with custom configuration.
func NewCollectorWithConfig(config CollectorConfig) *Collector {
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}
	if config.Namespace == "" {
		config.Namespace = "httpcache"
	}

	factory := promauto.With(config.Registry)

	return &Collector{
		storeOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   config.Namespace,
				Name:        "store_operations_total",
				Help:        "Total number of cache store operations",
				ConstLabels: config.ConstLabels,
			},
			[]string{"operation", "backend", "result"},
		),
		storeOpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   config.Namespace,
				Name:        "store_operation_duration_seconds",
				Help:        "Duration of cache store operations in seconds",
				Buckets:     []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
				ConstLabels: config.ConstLabels,
			},
			[]string{"operation", "backend"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   config.Namespace,
				Name:        "http_requests_total",
				Help:        "Total number of HTTP requests through the cache transport",
				ConstLabels: config.ConstLabels,
			},
			[]string{"method", "cache_status", "status_code"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   config.Namespace,
				Name:        "http_request_duration_seconds",
				Help:        "Duration of HTTP requests in seconds",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: config.ConstLabels,
			},
			[]string{"method", "cache_status"},
		),
		httpResponseSize: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   config.Namespace,
				Name:        "http_response_size_bytes_total",
				Help:        "Total bytes delivered, by cache status",
				ConstLabels: config.ConstLabels,
			},
			[]string{"cache_status"},
		),
	}
}

// RecordStoreOperation implements metrics.Collector.
func (c *Collector) RecordStoreOperation(operation, backend, result string, duration time.Duration) {
	c.storeOps.WithLabelValues(operation, backend, result).Inc()
	c.storeOpDuration.WithLabelValues(operation, backend).Observe(duration.Seconds())
}

// RecordHTTPRequest implements metrics.Collector.
func (c *Collector) RecordHTTPRequest(method, cacheStatus string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, cacheStatus, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.WithLabelValues(method, cacheStatus).Observe(duration.Seconds())
}

// RecordHTTPResponseSize implements metrics.Collector.
func (c *Collector) RecordHTTPResponseSize(cacheStatus string, sizeBytes int64) {
	c.httpResponseSize.WithLabelValues(cacheStatus).Add(float64(sizeBytes))
}

var _ metrics.Collector = (*Collector)(nil)
