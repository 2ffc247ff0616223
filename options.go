package httpcache

import (
	"fmt"
	"log/slog"
	"net/http"
)

// TransportOption configures a Transport. Use the With* functions to create
// TransportOptions.
type TransportOption func(*Transport) error

// WithMode sets the cache mode governing the per-request decision protocol.
// Default: ModeDefault.
func WithMode(mode Mode) TransportOption {
	return func(t *Transport) error {
		t.Mode = mode
		return nil
	}
}

// WithTransport sets the underlying http.RoundTripper used to reach the
// origin. If nil, http.DefaultTransport is used.
func WithTransport(rt http.RoundTripper) TransportOption {
	return func(t *Transport) error {
		t.Transport = rt
		return nil
	}
}

// WithCacheKey replaces the default "{METHOD}:{URI}" cache key derivation.
// The function must be pure and side-effect free; it is used for every
// lookup, store and delete performed by the Transport.
func WithCacheKey(fn CacheKeyFunc) TransportOption {
	return func(t *Transport) error {
		if fn == nil {
			return fmt.Errorf("httpcache: cache key function cannot be nil")
		}
		t.cacheKey = fn
		return nil
	}
}

// WithShared selects shared (public) or private cache semantics for
// storability and lifetime computation. A shared cache honors s-maxage,
// rejects Cache-Control: private responses and refuses to store responses
// to authorized requests unless explicitly allowed.
// Default: true.
func WithShared(shared bool) TransportOption {
	return func(t *Transport) error {
		t.shared = shared
		return nil
	}
}

// WithMarkCachedResponses configures whether responses served from storage
// carry the X-From-Cache / X-Revalidated headers.
// Default: true when using NewTransport.
func WithMarkCachedResponses(mark bool) TransportOption {
	return func(t *Transport) error {
		t.MarkCachedResponses = mark
		return nil
	}
}

// WithLogger sets the slog logger used by the Transport and the policy
// engine. If nil, slog.Default() is used.
func WithLogger(log *slog.Logger) TransportOption {
	return func(t *Transport) error {
		t.logger = log
		return nil
	}
}

// WithResilience enables retry and/or circuit breaker policies around
// origin fetches. See ResilienceConfig.
func WithResilience(config *ResilienceConfig) TransportOption {
	return func(t *Transport) error {
		t.resilience = config
		return nil
	}
}
