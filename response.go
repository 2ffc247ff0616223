// Package httpcache provides a http.RoundTripper implementation that caches
// HTTP responses in a pluggable storage backend and serves, revalidates or
// bypasses them according to a per-transport cache mode.
package httpcache

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Version identifies the HTTP protocol version of a stored response.
type Version string

// Supported HTTP protocol versions.
const (
	VersionHTTP09 Version = "HTTP/0.9"
	VersionHTTP10 Version = "HTTP/1.0"
	VersionHTTP11 Version = "HTTP/1.1"
	VersionHTTP2  Version = "HTTP/2.0"
	VersionHTTP3  Version = "HTTP/3.0"
)

// versionFromProto maps a http.Response Proto string to a Version.
// Unknown protocol strings default to HTTP/1.1.
func versionFromProto(proto string) Version {
	switch proto {
	case "HTTP/0.9":
		return VersionHTTP09
	case "HTTP/1.0":
		return VersionHTTP10
	case "HTTP/1.1":
		return VersionHTTP11
	case "HTTP/2", "HTTP/2.0":
		return VersionHTTP2
	case "HTTP/3", "HTTP/3.0":
		return VersionHTTP3
	}
	return VersionHTTP11
}

// protoNumbers returns the major/minor protocol numbers for the version.
func (v Version) protoNumbers() (major, minor int) {
	switch v {
	case VersionHTTP09:
		return 0, 9
	case VersionHTTP10:
		return 1, 0
	case VersionHTTP2:
		return 2, 0
	case VersionHTTP3:
		return 3, 0
	}
	return 1, 1
}

// Response is the unit of cached response data: status line, headers, body
// and the URL the response was obtained from. It is what cache managers
// store and retrieve; a Response is never mutated in place, only replaced
// through Manager.Put.
type Response struct {
	// Status is the HTTP status code of the stored response.
	Status int `json:"status"`
	// Headers holds the response headers, one value per name. Multiple
	// header values are joined with ", " per RFC 9110 field-line folding.
	Headers map[string]string `json:"headers"`
	// Body is the full response body.
	Body []byte `json:"body"`
	// URL is the absolute URL the response was fetched from. It is the tag
	// under which indexed backends group entries.
	URL string `json:"url"`
	// Version is the HTTP protocol version of the response.
	Version Version `json:"version"`
}

// NewResponse builds a Response from a live *http.Response, reading and
// replacing its body so the caller can still consume it.
func NewResponse(resp *http.Response) (*Response, error) {
	var body []byte
	if resp.Body != nil {
		b, err := io.ReadAll(resp.Body)
		closeErr := resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("httpcache: reading response body: %w", err)
		}
		if closeErr != nil {
			return nil, fmt.Errorf("httpcache: closing response body: %w", closeErr)
		}
		body = b
		resp.Body = io.NopCloser(bytes.NewReader(body))
	}

	headers := make(map[string]string, len(resp.Header))
	for name, values := range resp.Header {
		headers[name] = strings.Join(values, ", ")
	}

	url := ""
	if resp.Request != nil && resp.Request.URL != nil {
		url = resp.Request.URL.String()
	}

	return &Response{
		Status:  resp.StatusCode,
		Headers: headers,
		Body:    body,
		URL:     url,
		Version: versionFromProto(resp.Proto),
	}, nil
}

// Header returns the stored headers as a http.Header.
func (r *Response) Header() http.Header {
	h := make(http.Header, len(r.Headers))
	for name, value := range r.Headers {
		h.Set(name, value)
	}
	return h
}

// SetHeader stores a single header value, canonicalizing the name.
func (r *Response) SetHeader(name, value string) {
	if r.Headers == nil {
		r.Headers = map[string]string{}
	}
	r.Headers[http.CanonicalHeaderKey(name)] = value
}

// GetHeader returns the stored value for name, or "" if absent.
func (r *Response) GetHeader(name string) string {
	return r.Headers[http.CanonicalHeaderKey(name)]
}

// ToHTTPResponse materializes the stored response as a *http.Response
// associated with req, suitable for returning from a RoundTripper.
func (r *Response) ToHTTPResponse(req *http.Request) *http.Response {
	major, minor := r.Version.protoNumbers()
	return &http.Response{
		StatusCode:    r.Status,
		Status:        fmt.Sprintf("%d %s", r.Status, http.StatusText(r.Status)),
		Proto:         string(r.Version),
		ProtoMajor:    major,
		ProtoMinor:    minor,
		Header:        r.Header(),
		Body:          io.NopCloser(bytes.NewReader(r.Body)),
		ContentLength: int64(len(r.Body)),
		Request:       req,
	}
}

// Clone returns a deep copy of the response.
func (r *Response) Clone() *Response {
	headers := make(map[string]string, len(r.Headers))
	for name, value := range r.Headers {
		headers[name] = value
	}
	body := make([]byte, len(r.Body))
	copy(body, r.Body)
	return &Response{
		Status:  r.Status,
		Headers: headers,
		Body:    body,
		URL:     r.URL,
		Version: r.Version,
	}
}
