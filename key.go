package httpcache

import "net/http"

// CacheKeyFunc derives the cache key for a request. Implementations must be
// pure: two requests with the same method and URL must map to the same key,
// and deriving a key must not modify the request.
type CacheKeyFunc func(req *http.Request) string

// DefaultCacheKey derives the cache key as "{METHOD}:{URI}", e.g.
// "GET:http://example.com/". Distinct method/URI pairs never collide because
// method names cannot contain ':'.
func DefaultCacheKey(req *http.Request) string {
	return req.Method + ":" + req.URL.String()
}
