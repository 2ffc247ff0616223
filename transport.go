package httpcache

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
)

const (
	// XFromCache is the header added to responses served from storage.
	XFromCache = "X-From-Cache"
	// XRevalidated is the header added to responses that were revalidated
	// with the origin and merged into storage.
	XRevalidated = "X-Revalidated"
)

// Transport is a http.RoundTripper that serves responses from a Manager
// where the configured Mode allows it, revalidates stale entries with
// conditional requests, and writes cacheable origin responses through to
// storage. Storage failures degrade to direct origin traffic; only
// transport-level failures surface to the caller.
type Transport struct {
	// Transport is the RoundTripper used to reach the origin.
	// If nil, http.DefaultTransport is used.
	Transport http.RoundTripper
	// Manager is the storage backend.
	Manager Manager
	// Mode governs the per-request decision protocol. Default: ModeDefault.
	Mode Mode
	// MarkCachedResponses adds the X-From-Cache / X-Revalidated headers to
	// responses served from storage.
	MarkCachedResponses bool

	cacheKey   CacheKeyFunc
	shared     bool
	logger     *slog.Logger
	resilience *ResilienceConfig
}

// NewTransport returns a Transport over manager with shared-cache semantics,
// the default cache key and MarkCachedResponses enabled, further configured
// by opts.
func NewTransport(manager Manager, opts ...TransportOption) (*Transport, error) {
	t := &Transport{
		Manager:             manager,
		Mode:                ModeDefault,
		MarkCachedResponses: true,
		cacheKey:            DefaultCacheKey,
		shared:              true,
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Client returns an *http.Client that caches responses through t.
func (t *Transport) Client() *http.Client {
	return &http.Client{Transport: t}
}

// Key returns the cache key t derives for req.
func (t *Transport) Key(req *http.Request) string {
	return t.cacheKey(req)
}

// Delete removes the stored entry for req, if any. A later lookup for the
// same request misses.
func (t *Transport) Delete(ctx context.Context, req *http.Request) error {
	return t.Manager.Delete(ctx, t.cacheKey(req))
}

// cacheableRequest reports whether req may be answered from storage:
// GET or HEAD without a Range header.
func cacheableRequest(req *http.Request) bool {
	return (req.Method == http.MethodGet || req.Method == http.MethodHead) &&
		req.Header.Get("Range") == ""
}

// RoundTrip executes the cache-mode decision protocol for req.
//
// On a miss the request is forwarded and the response stored when cacheable.
// On a hit, ModeDefault serves fresh entries directly and revalidates stale
// ones (serving the stored body on 304 Not Modified); ModeNoCache always
// forwards and refreshes storage; ModeForceCache and ModeOnlyIfCached serve
// the entry regardless of freshness. ModeNoStore bypasses storage entirely.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Mode == ModeNoStore {
		return t.fetch(req)
	}

	if !cacheableRequest(req) {
		resp, err := t.fetch(req)
		if err != nil {
			return nil, err
		}
		t.invalidate(req, resp)
		return resp, nil
	}

	key := t.cacheKey(req)
	stored, policy, found, err := t.Manager.Get(req.Context(), key)
	if err != nil {
		// A failed lookup degrades to a miss rather than failing the request.
		t.log().Warn("cache lookup failed, treating as miss", "key", key, "error", err)
		found = false
	}

	if !found {
		if t.Mode == ModeOnlyIfCached {
			return newGatewayTimeoutResponse(req), nil
		}
		return t.fetchAndStore(req, key)
	}

	switch t.Mode {
	case ModeNoCache:
		return t.fetchAndStore(req, key)
	case ModeForceCache, ModeOnlyIfCached:
		return t.serveStored(req, stored, false), nil
	}

	// ModeDefault: freshness decides.
	now := clock.now()
	if policy.Evaluate(now) == Fresh {
		return t.serveStored(req, stored, false), nil
	}
	if policy.Revalidatable() {
		return t.revalidate(req, key, &Entry{Key: key, Response: stored, Policy: policy})
	}
	// Stale without validators: same as a miss, overwriting the entry.
	return t.fetchAndStore(req, key)
}

// fetch forwards req to the origin, applying resilience policies when
// configured. Transport errors are returned unchanged.
func (t *Transport) fetch(req *http.Request) (*http.Response, error) {
	transport := t.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return t.executeWithResilience(func() (*http.Response, error) {
		return transport.RoundTrip(req)
	})
}

// fetchAndStore forwards req to the origin and writes the response through
// to storage when it is storable under the configured cache rules.
func (t *Transport) fetchAndStore(req *http.Request, key string) (*http.Response, error) {
	resp, err := t.fetch(req)
	if err != nil {
		return nil, err
	}
	t.store(req, resp, key)
	return resp, nil
}

// store assesses storability and writes (response, policy) under key. A
// non-storable response removes any previous entry under the same key; a
// failed write leaves the response uncached but still delivered.
func (t *Transport) store(req *http.Request, resp *http.Response, key string) {
	ctx := req.Context()

	record, err := NewResponse(resp)
	if err != nil {
		t.log().Warn("response not cached: body capture failed", "key", key, "error", err)
		return
	}
	if record.URL == "" {
		record.URL = req.URL.String()
	}

	policy, storable := newPolicy(req, record, clock.now(), t.shared, t.log())
	if !storable {
		if err := t.Manager.Delete(ctx, key); err != nil {
			t.log().Warn("failed to drop stale cache entry", "key", key, "error", err)
		}
		return
	}

	if err := t.Manager.Put(ctx, key, record, policy); err != nil {
		t.log().Warn("response not cached: store write failed", "key", key, "error", err)
	}
}

// serveStored materializes the stored response for req, optionally marking
// it as revalidated.
func (t *Transport) serveStored(req *http.Request, stored *Response, revalidated bool) *http.Response {
	resp := stored.ToHTTPResponse(req)
	if t.MarkCachedResponses {
		resp.Header.Set(XFromCache, "1")
		if revalidated {
			resp.Header.Set(XRevalidated, "1")
		}
	}
	return resp
}

// revalidate issues a conditional request for a stale entry. A 304 Not
// Modified merges the new headers into the entry, resets its freshness
// clock and serves the stored body; any other status replaces the entry.
func (t *Transport) revalidate(req *http.Request, key string, entry *Entry) (*http.Response, error) {
	resp, err := t.fetch(entry.Policy.ConditionalRequest(req))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotModified {
		drainBody(resp.Body, t.log())
		merged := mergeRevalidation(entry, resp, clock.now(), t.log())
		if err := t.Manager.Put(req.Context(), key, merged.Response, merged.Policy); err != nil {
			t.log().Warn("failed to store revalidated entry", "key", key, "error", err)
		}
		return t.serveStored(req, merged.Response, true), nil
	}

	t.store(req, resp, key)
	return resp, nil
}

// invalidate removes entries made stale by a non-error response to an
// unsafe method: the request URI itself plus any same-origin Location /
// Content-Location target (RFC 9111 Section 4.4).
func (t *Transport) invalidate(req *http.Request, resp *http.Response) {
	switch req.Method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
	default:
		return
	}
	if resp.StatusCode >= 400 {
		return
	}

	t.invalidateURL(req.Context(), req.URL)
	for _, header := range []string{"Location", "Content-Location"} {
		target := resp.Header.Get(header)
		if target == "" {
			continue
		}
		u, err := req.URL.Parse(target)
		if err != nil || u.Scheme != req.URL.Scheme || u.Host != req.URL.Host {
			continue
		}
		t.invalidateURL(req.Context(), u)
	}
}

// invalidateURL deletes the GET and HEAD entries for u.
func (t *Transport) invalidateURL(ctx context.Context, u *url.URL) {
	for _, method := range []string{http.MethodGet, http.MethodHead} {
		probe := &http.Request{Method: method, URL: u, Header: http.Header{}}
		if err := t.Manager.Delete(ctx, t.cacheKey(probe)); err != nil {
			t.log().Warn("cache invalidation failed", "url", u.String(), "error", err)
		}
	}
}

// newGatewayTimeoutResponse synthesizes the 504 returned in only-if-cached
// mode when no stored entry exists.
func newGatewayTimeoutResponse(req *http.Request) *http.Response {
	var braw bytes.Buffer
	braw.WriteString("HTTP/1.1 504 Gateway Timeout\r\n\r\n")
	resp, err := http.ReadResponse(bufio.NewReader(&braw), req)
	if err != nil {
		panic(err)
	}
	return resp
}

const bodyDrainSize = 1 << 15

// drainBody reads and discards up to bodyDrainSize bytes of a response body
// being thrown away (e.g. a 304) so the connection can be reused.
func drainBody(body io.ReadCloser, log *slog.Logger) {
	if body == nil {
		return
	}
	if _, err := io.Copy(io.Discard, io.LimitReader(body, bodyDrainSize)); err != nil {
		log.Warn("failed to drain response body", "error", err)
	}
	if err := body.Close(); err != nil {
		log.Warn("failed to close response body", "error", err)
	}
}
