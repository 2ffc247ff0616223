package httpcache

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Freshness is the read-time judgment over a stored entry.
type Freshness int

const (
	// Fresh means the stored response may be served without contacting the
	// origin.
	Fresh Freshness = iota
	// Stale means the freshness lifetime has elapsed; the response needs
	// revalidation (or replacement) before it can be served in Default mode.
	Stale
)

func (f Freshness) String() string {
	if f == Fresh {
		return "fresh"
	}
	return "stale"
}

// timer abstracts elapsed-time measurement so tests can advance the clock.
type timer interface {
	now() time.Time
}

type realClock struct{}

func (realClock) now() time.Time { return time.Now() }

var clock timer = realClock{}

// statusCacheable lists the status codes a cache may store by default
// (RFC 9111 Section 3, heuristically cacheable status codes).
var statusCacheable = map[int]struct{}{
	http.StatusOK:                   {},
	http.StatusNonAuthoritativeInfo: {},
	http.StatusNoContent:            {},
	http.StatusMultipleChoices:      {},
	http.StatusMovedPermanently:     {},
	http.StatusNotFound:             {},
	http.StatusMethodNotAllowed:     {},
	http.StatusGone:                 {},
	http.StatusRequestURITooLong:    {},
	http.StatusNotImplemented:       {},
}

// Policy is the write-time freshness snapshot stored next to a response.
// All read-time judgments (fresh/stale, age, remaining lifetime) are
// recomputed from these fields against the current clock; staleness is
// never stored as a boolean that could itself go stale.
type Policy struct {
	// ResponseTime is the instant the response was received (or merged on
	// revalidation). It anchors all age arithmetic.
	ResponseTime time.Time `json:"response_time"`
	// Date is the origin's Date header value, falling back to ResponseTime.
	Date time.Time `json:"date"`
	// Lifetime is the freshness lifetime computed from s-maxage/max-age/
	// Expires at write time.
	Lifetime time.Duration `json:"lifetime"`
	// InitialAge is the Age header value at receipt.
	InitialAge time.Duration `json:"initial_age"`
	// ETag and LastModified are the stored validators used to build
	// conditional revalidation requests.
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
	// NoCache forces revalidation on every use regardless of lifetime.
	NoCache bool `json:"no_cache,omitempty"`
	// MustRevalidate forbids serving the response stale.
	MustRevalidate bool `json:"must_revalidate,omitempty"`
	// Shared records whether the policy was computed under shared-cache
	// rules (s-maxage honored, private responses rejected).
	Shared bool `json:"shared"`
}

// NewPolicy assesses whether resp may be stored for req and, if so, returns
// the freshness policy snapshot to store alongside it. It returns (nil,
// false) for responses that must not be cached: explicit no-store, private
// responses under shared-cache rules, non-cacheable status codes, or the
// absence of both a freshness lifetime and validators. A malformed
// Cache-Control header is treated as "not cacheable", never as an error.
func NewPolicy(req *http.Request, resp *Response, now time.Time, shared bool) (*Policy, bool) {
	return newPolicy(req, resp, now, shared, slog.Default())
}

func newPolicy(req *http.Request, resp *Response, now time.Time, shared bool, log *slog.Logger) (*Policy, bool) {
	respHeaders := resp.Header()
	respCC := parseCacheControl(respHeaders, log)
	reqCC := parseCacheControl(req.Header, log)

	if respCC.has(ccNoStore) || reqCC.has(ccNoStore) {
		return nil, false
	}
	if shared && respCC.has(ccPrivate) {
		return nil, false
	}
	// RFC 9111 Section 3.5: a shared cache must not reuse a response to a
	// request with Authorization unless explicitly allowed.
	if shared && req.Header.Get("Authorization") != "" &&
		!respCC.has(ccPublic) && !respCC.has(ccSMaxAge) {
		return nil, false
	}
	if _, ok := statusCacheable[resp.Status]; !ok {
		return nil, false
	}

	p := snapshotPolicy(respHeaders, respCC, now, shared)

	if p.Lifetime <= 0 && !p.Revalidatable() && !p.NoCache {
		return nil, false
	}
	return p, true
}

// snapshotPolicy captures the freshness-relevant header state at instant
// now. It performs no storability checks; NewPolicy gates on those.
func snapshotPolicy(respHeaders http.Header, respCC cacheControl, now time.Time, shared bool) *Policy {
	date := now
	if d, err := time.Parse(time.RFC1123, respHeaders.Get("Date")); err == nil {
		date = d
	}

	var initialAge time.Duration
	if ageHeader := strings.TrimSpace(respHeaders.Get("Age")); ageHeader != "" {
		if n, err := strconv.ParseInt(ageHeader, 10, 64); err == nil && n >= 0 {
			initialAge = time.Duration(n) * time.Second
		}
	}

	return &Policy{
		ResponseTime:   now,
		Date:           date,
		Lifetime:       freshnessLifetime(respCC, respHeaders, date, shared),
		InitialAge:     initialAge,
		ETag:           respHeaders.Get("Etag"),
		LastModified:   respHeaders.Get("Last-Modified"),
		NoCache:        respCC.has(ccNoCache),
		MustRevalidate: respCC.has(ccMustRevalidate),
		Shared:         shared,
	}
}

// freshnessLifetime computes the freshness lifetime from the stored
// response. s-maxage wins under shared-cache rules, then max-age, then
// Expires relative to Date. A max-age directive overrides Expires even when
// Expires is more restrictive. Malformed values yield a zero lifetime.
func freshnessLifetime(respCC cacheControl, respHeaders http.Header, date time.Time, shared bool) time.Duration {
	if shared {
		if lifetime, ok := respCC.seconds(ccSMaxAge); ok {
			return lifetime
		}
	}
	if _, present := respCC[ccMaxAge]; present {
		lifetime, ok := respCC.seconds(ccMaxAge)
		if !ok {
			return 0
		}
		return lifetime
	}
	if expiresHeader := respHeaders.Get("Expires"); expiresHeader != "" {
		expires, err := time.Parse(time.RFC1123, expiresHeader)
		if err != nil {
			return 0
		}
		return expires.Sub(date)
	}
	return 0
}

// Age returns the response's current age at instant now, per the RFC 9111
// Section 4.2.3 calculation: the apparent age at receipt corrected by any
// Age header, plus the resident time since.
func (p *Policy) Age(now time.Time) time.Duration {
	apparentAge := p.ResponseTime.Sub(p.Date)
	if apparentAge < 0 {
		apparentAge = 0
	}
	correctedInitialAge := apparentAge
	if p.InitialAge > correctedInitialAge {
		correctedInitialAge = p.InitialAge
	}
	return correctedInitialAge + now.Sub(p.ResponseTime)
}

// TimeToLive returns the remaining freshness lifetime at instant now, or
// zero once the entry has gone stale.
func (p *Policy) TimeToLive(now time.Time) time.Duration {
	ttl := p.Lifetime - p.Age(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// Evaluate recomputes the freshness of the stored response at instant now.
// A no-cache response is always stale (it must be revalidated before use).
func (p *Policy) Evaluate(now time.Time) Freshness {
	if p.NoCache {
		return Stale
	}
	if p.Age(now) < p.Lifetime {
		return Fresh
	}
	return Stale
}

// Revalidatable reports whether the stored response carries a validator
// that a conditional request can be built from.
func (p *Policy) Revalidatable() bool {
	return p.ETag != "" || p.LastModified != ""
}

// ConditionalRequest returns a copy of req carrying If-None-Match and/or
// If-Modified-Since headers derived from the stored validators. When the
// policy has no validators the request is returned unchanged.
func (p *Policy) ConditionalRequest(req *http.Request) *http.Request {
	if !p.Revalidatable() {
		return req
	}
	clone := cloneRequest(req)
	if p.ETag != "" {
		clone.Header.Set("If-None-Match", p.ETag)
	}
	if p.LastModified != "" {
		clone.Header.Set("If-Modified-Since", p.LastModified)
	}
	return clone
}

// MergeRevalidation merges a 304 Not Modified response into a stored entry:
// end-to-end headers from the 304 override same-named stored headers, the
// body and status are retained, and the freshness clock restarts at now.
// The returned entry carries a policy recomputed from the merged headers.
func MergeRevalidation(entry *Entry, notModified *http.Response, now time.Time) *Entry {
	return mergeRevalidation(entry, notModified, now, slog.Default())
}

func mergeRevalidation(entry *Entry, notModified *http.Response, now time.Time, log *slog.Logger) *Entry {
	merged := entry.Response.Clone()
	for _, name := range endToEndHeaders(notModified.Header) {
		merged.SetHeader(name, strings.Join(notModified.Header[name], ", "))
	}

	mergedHeaders := merged.Header()
	policy := snapshotPolicy(mergedHeaders, parseCacheControl(mergedHeaders, log), now, entry.Policy.Shared)

	return &Entry{
		Key:      entry.Key,
		Response: merged,
		Policy:   policy,
	}
}

// cloneRequest returns a shallow copy of r with a deep-copied Header.
func cloneRequest(r *http.Request) *http.Request {
	r2 := new(http.Request)
	*r2 = *r
	r2.Header = make(http.Header, len(r.Header))
	for k, v := range r.Header {
		r2.Header[k] = v
	}
	return r2
}
