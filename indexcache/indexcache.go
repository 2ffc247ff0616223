// Package indexcache provides a httpcache.Manager that keeps every entry in
// an in-process table under secondary indexes: a tag index by response URL
// and numeric range queries over the entries' current age and remaining
// time-to-live. A lazily evaluated stale view recomputes freshness from the
// stored policy snapshots at query time.
//
// Entries can optionally be journaled to a LevelDB store so the cache
// survives process restarts; the table and indexes are rebuilt from the
// journal on open.
package indexcache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	httpcache "github.com/yan4rust/http-cache"
)

// Queryable numeric fields for Range.
const (
	// FieldAge selects the entries' current age, in seconds.
	FieldAge = "age"
	// FieldTTL selects the entries' remaining freshness lifetime, in
	// seconds. An expired entry has a TTL of zero.
	FieldTTL = "ttl"
)

// Placement selects where entries live.
type Placement int

const (
	// MemoryOnly keeps entries in process memory; they are lost on restart.
	MemoryOnly Placement = iota
	// Persistent additionally journals every entry to LevelDB under the
	// configured path and reloads it on open.
	Persistent
)

// timeNow is swapped by tests to control freshness evaluation.
var timeNow = time.Now

// Config holds the configuration for opening an indexed cache.
type Config struct {
	// Path is the storage root directory for the persistent journal.
	// Required when Placement is Persistent.
	Path string

	// Name is the namespace the journal keys are prefixed with, so several
	// caches can share one storage root.
	// Optional - defaults to "httpcache".
	Name string

	// Placement selects in-memory or journaled entries.
	// Optional - defaults to MemoryOnly.
	Placement Placement

	// Sync forces every journal write to be fsynced before Put returns.
	// Optional - defaults to false.
	Sync bool

	// Logger is used for non-fatal storage events.
	// Optional - defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{Name: "httpcache"}
}

// Manager is an indexed httpcache.Manager implementation. The primary
// table, the tag index and the journal are updated under one per-manager
// critical section, so no reader observes an index entry whose key is
// absent from the primary table or vice versa.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]*httpcache.Entry
	byURL   map[string]map[string]struct{}

	db     *leveldb.DB // nil when MemoryOnly
	prefix string
	wo     *opt.WriteOptions
	log    *slog.Logger
}

// Open creates a Manager from config. With Persistent placement the journal
// is opened (created if absent) under config.Path and all journaled entries
// are loaded back into the table and its indexes.
func Open(config Config) (*Manager, error) {
	if config.Name == "" {
		config.Name = DefaultConfig().Name
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	m := &Manager{
		entries: map[string]*httpcache.Entry{},
		byURL:   map[string]map[string]struct{}{},
		prefix:  config.Name + "/",
		wo:      &opt.WriteOptions{Sync: config.Sync},
		log:     config.Logger,
	}

	if config.Placement == Persistent {
		if config.Path == "" {
			return nil, fmt.Errorf("indexcache: storage path is required for persistent placement")
		}
		db, err := leveldb.OpenFile(filepath.Join(config.Path, config.Name), nil)
		if err != nil {
			return nil, fmt.Errorf("indexcache: opening journal: %w", err)
		}
		m.db = db
		if err := m.load(); err != nil {
			_ = db.Close() //nolint:errcheck // already failing
			return nil, err
		}
	}

	return m, nil
}

// New returns an in-memory Manager with no journal.
func New() *Manager {
	m, err := Open(DefaultConfig())
	if err != nil {
		// MemoryOnly open cannot fail.
		panic(err)
	}
	return m
}

// load rebuilds the table and indexes from the journal.
func (m *Manager) load() error {
	iter := m.db.NewIterator(util.BytesPrefix([]byte(m.prefix)), nil)
	defer iter.Release()

	for iter.Next() {
		var entry httpcache.Entry
		if err := json.Unmarshal(iter.Value(), &entry); err != nil {
			m.log.Warn("skipping undecodable journal record", "key", string(iter.Key()), "error", err)
			continue
		}
		if entry.Response == nil || entry.Policy == nil {
			continue
		}
		m.insertLocked(entry.Key, &entry)
	}
	if err := iter.Error(); err != nil {
		return fmt.Errorf("indexcache: reading journal: %w", err)
	}
	return nil
}

// Get returns the stored response and policy for key if present. Freshness
// is never filtered here; that judgment belongs to the Transport.
func (m *Manager) Get(_ context.Context, key string) (*httpcache.Response, *httpcache.Policy, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil, false, nil
	}
	return entry.Response, entry.Policy, true, nil
}

// Put stores (resp, policy) under key, replacing any existing entry. The
// primary table, the tag index and the journal move in one atomic step with
// respect to other callers; a failed journal write leaves the table
// untouched.
func (m *Manager) Put(_ context.Context, key string, resp *httpcache.Response, policy *httpcache.Policy) error {
	entry := &httpcache.Entry{Key: key, Response: resp.Clone(), Policy: policy}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db != nil {
		value, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("indexcache: encoding entry %q: %w", key, err)
		}
		if err := m.db.Put([]byte(m.prefix+key), value, m.wo); err != nil {
			return fmt.Errorf("indexcache: journal put %q: %w", key, err)
		}
	}

	m.removeLocked(key)
	m.insertLocked(key, entry)
	return nil
}

// Delete removes the entry under key along with all its index entries.
// Deleting an absent key succeeds.
func (m *Manager) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db != nil {
		if err := m.db.Delete([]byte(m.prefix+key), m.wo); err != nil {
			return fmt.Errorf("indexcache: journal delete %q: %w", key, err)
		}
	}
	m.removeLocked(key)
	return nil
}

// insertLocked adds entry to the table and the tag index. Callers hold mu.
func (m *Manager) insertLocked(key string, entry *httpcache.Entry) {
	m.entries[key] = entry
	url := entry.Response.URL
	keys, ok := m.byURL[url]
	if !ok {
		keys = map[string]struct{}{}
		m.byURL[url] = keys
	}
	keys[key] = struct{}{}
}

// removeLocked drops key from the table and the tag index. Callers hold mu.
func (m *Manager) removeLocked(key string) {
	entry, ok := m.entries[key]
	if !ok {
		return
	}
	delete(m.entries, key)
	url := entry.Response.URL
	if keys, ok := m.byURL[url]; ok {
		delete(keys, key)
		if len(keys) == 0 {
			delete(m.byURL, url)
		}
	}
}

// LookupByTag returns all current entries whose response URL equals url,
// reflecting the latest Put and Delete for each key.
func (m *Manager) LookupByTag(url string) []httpcache.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]httpcache.Entry, 0, len(m.byURL[url]))
	for key := range m.byURL[url] {
		result = append(result, *m.entries[key])
	}
	sortByKey(result)
	return result
}

// Range returns the entries whose named numeric field lies in [lo, hi]
// inclusive. The field value is recomputed from each entry's policy against
// the current clock: FieldAge is the entry's current age in seconds and
// FieldTTL its remaining freshness lifetime in seconds.
func (m *Manager) Range(field string, lo, hi float64) ([]httpcache.Entry, error) {
	var value func(p *httpcache.Policy, now time.Time) float64
	switch field {
	case FieldAge:
		value = func(p *httpcache.Policy, now time.Time) float64 { return p.Age(now).Seconds() }
	case FieldTTL:
		value = func(p *httpcache.Policy, now time.Time) float64 { return p.TimeToLive(now).Seconds() }
	default:
		return nil, fmt.Errorf("indexcache: unknown range field %q", field)
	}

	now := timeNow()

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []httpcache.Entry
	for _, entry := range m.entries {
		if v := value(entry.Policy, now); v >= lo && v <= hi {
			result = append(result, *entry)
		}
	}
	sortByKey(result)
	return result, nil
}

// StaleEntries returns the entries whose freshness, recomputed from their
// policy snapshot at the current instant, is stale. Staleness is never
// memoized: the same entry can move in and out of this view purely through
// the passage of time.
func (m *Manager) StaleEntries() []httpcache.Entry {
	now := timeNow()

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []httpcache.Entry
	for _, entry := range m.entries {
		if entry.Policy.Evaluate(now) == httpcache.Stale {
			result = append(result, *entry)
		}
	}
	sortByKey(result)
	return result
}

// Len returns the number of stored entries.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Clear removes every entry, including journaled ones.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db != nil {
		batch := new(leveldb.Batch)
		for key := range m.entries {
			batch.Delete([]byte(m.prefix + key))
		}
		if err := m.db.Write(batch, m.wo); err != nil {
			return fmt.Errorf("indexcache: journal clear: %w", err)
		}
	}
	m.entries = map[string]*httpcache.Entry{}
	m.byURL = map[string]map[string]struct{}{}
	return nil
}

// Close releases the journal, if any. The in-memory table stays readable.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	return err
}

func sortByKey(entries []httpcache.Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
}
