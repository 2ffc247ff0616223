package httpcache

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Cache-Control directive names.
const (
	ccNoStore        = "no-store"
	ccNoCache        = "no-cache"
	ccMaxAge         = "max-age"
	ccSMaxAge        = "s-maxage"
	ccPublic         = "public"
	ccPrivate        = "private"
	ccMustRevalidate = "must-revalidate"
)

// cacheControl is a map of Cache-Control directive names to their values.
type cacheControl map[string]string

// parseCacheControl parses a Cache-Control header value into a directive map.
// Duplicate directives keep the first occurrence; a warning is logged and
// the request keeps going, a malformed header is never fatal.
func parseCacheControl(headers http.Header, log *slog.Logger) cacheControl {
	cc := cacheControl{}
	ccHeader := headers.Get("Cache-Control")

	for _, part := range strings.Split(ccHeader, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		directive, value, _ := strings.Cut(part, "=")
		directive = strings.ToLower(strings.TrimSpace(directive))
		value = strings.Trim(strings.TrimSpace(value), `"`)

		if _, dup := cc[directive]; dup {
			log.Warn("duplicate Cache-Control directive, keeping first value",
				"directive", directive,
				"ignored_value", value)
			continue
		}
		cc[directive] = value
	}

	return cc
}

func (cc cacheControl) has(directive string) bool {
	_, ok := cc[directive]
	return ok
}

// seconds parses the value of a delta-seconds directive. The second return
// is false when the directive is absent or its value is not a non-negative
// integer; malformed values are reported to the caller, never panicked on.
func (cc cacheControl) seconds(directive string) (time.Duration, bool) {
	value, ok := cc[directive]
	if !ok || value == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return time.Duration(n) * time.Second, true
}

// hopByHopHeaders are never merged into a stored entry on revalidation.
var hopByHopHeaders = map[string]struct{}{
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailers":            {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
}

// endToEndHeaders returns the header names from h that are end-to-end:
// everything except the well-known hop-by-hop set and any name listed in
// the Connection header.
func endToEndHeaders(h http.Header) []string {
	hopByHop := make(map[string]struct{}, len(hopByHopHeaders))
	for name := range hopByHopHeaders {
		hopByHop[name] = struct{}{}
	}
	for _, extra := range strings.Split(h.Get("Connection"), ",") {
		if extra = strings.TrimSpace(extra); extra != "" {
			hopByHop[http.CanonicalHeaderKey(extra)] = struct{}{}
		}
	}

	names := make([]string, 0, len(h))
	for name := range h {
		if _, ok := hopByHop[name]; !ok {
			names = append(names, name)
		}
	}
	return names
}
