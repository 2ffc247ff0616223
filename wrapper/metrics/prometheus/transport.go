package prometheus

import (
	"net/http"
	"time"

	httpcache "github.com/yan4rust/http-cache"
	"github.com/yan4rust/http-cache/wrapper/metrics"
)

// InstrumentedTransport wraps a httpcache.Transport and records a
// measurement for every request, labelled by cache status.
type InstrumentedTransport struct {
	underlying *httpcache.Transport
	collector  metrics.Collector
}

// NewInstrumentedTransport wraps transport. A nil collector falls back to
// metrics.DefaultCollector. Cache status detection relies on the transport
// marking cached responses (the NewTransport default).
func NewInstrumentedTransport(transport *httpcache.Transport, collector metrics.Collector) *InstrumentedTransport {
	if collector == nil {
		collector = metrics.DefaultCollector
	}
	return &InstrumentedTransport{underlying: transport, collector: collector}
}

// Client returns an *http.Client that caches and measures responses.
func (t *InstrumentedTransport) Client() *http.Client {
	return &http.Client{Transport: t}
}

// RoundTrip executes the request with metrics recording.
func (t *InstrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.underlying.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		return resp, err
	}

	cacheStatus := resultMiss
	switch {
	case resp.Header.Get(httpcache.XRevalidated) == "1":
		cacheStatus = "revalidated"
	case resp.Header.Get(httpcache.XFromCache) == "1":
		cacheStatus = resultHit
	}

	t.collector.RecordHTTPRequest(req.Method, cacheStatus, resp.StatusCode, duration)
	if resp.ContentLength > 0 {
		t.collector.RecordHTTPResponseSize(cacheStatus, resp.ContentLength)
	}

	return resp, nil
}
