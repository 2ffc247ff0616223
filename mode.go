package httpcache

// Mode selects how the Transport interacts with storage and the origin for
// each request it handles.
type Mode int

const (
	// ModeDefault serves fresh stored responses directly, revalidates stale
	// revalidatable ones, and otherwise fetches from the origin and stores
	// the result when cacheable.
	ModeDefault Mode = iota
	// ModeNoStore never reads from nor writes to storage.
	ModeNoStore
	// ModeNoCache always forwards to the origin, ignoring stored freshness,
	// but still writes the new response through to storage when cacheable.
	// Every request costs exactly one origin call.
	ModeNoCache
	// ModeForceCache serves any stored response regardless of freshness and
	// falls back to the origin only on a miss.
	ModeForceCache
	// ModeOnlyIfCached serves any stored response regardless of freshness
	// and synthesizes a 504 Gateway Timeout on a miss; the origin is never
	// contacted.
	ModeOnlyIfCached
)

func (m Mode) String() string {
	switch m {
	case ModeDefault:
		return "default"
	case ModeNoStore:
		return "no-store"
	case ModeNoCache:
		return "no-cache"
	case ModeForceCache:
		return "force-cache"
	case ModeOnlyIfCached:
		return "only-if-cached"
	}
	return "unknown"
}
