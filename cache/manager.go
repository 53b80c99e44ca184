package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sync"
	"sync/atomic"
	"time"

	"github.com/harvestra/corpus/core"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Policy selects the eviction order used to keep resident size under quota.
type Policy string

const (
	PolicyLRU Policy = "lru"
	PolicyLFU Policy = "lfu"
	PolicyTTL Policy = "ttl"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyLRU, PolicyLFU, PolicyTTL:
		return Policy(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
}

const (
	defaultCapacityBytes = 64 << 20
	defaultFastEntries   = 512
	defaultTTL           = 5 * time.Minute
)

// LoadFunc produces the value for a key on a cache miss.
type LoadFunc func(ctx context.Context) (Value, error)

// Stats reports cache effectiveness counters.
type Stats struct {
	Hits         int64
	Misses       int64
	Entries      int
	ResidentSize int64
}

// HitRate returns hits / (hits + misses), or 0 before any lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Manager is the tiered cache: a count-bounded LRU fast tier over a
// persistent tier, read-through with promotion. Inserts keep the tracked
// resident size at or under the byte quota by evicting per the configured
// policy. Concurrent loads of the same key collapse to one underlying call.
type Manager struct {
	fast     *lru.Cache[string, *Entry]
	store    Tier
	capacity int64
	policy   Policy
	ttls     map[string]time.Duration
	ttl      time.Duration

	mu    sync.Mutex
	meta  map[string]*Entry
	sizes int64

	group  singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64
	logger *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager) error

// WithCapacity sets the resident size quota in bytes.
// Default is 64 MiB.
func WithCapacity(bytes int64) ManagerOption {
	return func(m *Manager) error {
		if bytes <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidCapacity, bytes)
		}
		m.capacity = bytes
		return nil
	}
}

// WithPolicy sets the eviction policy.
// Default is PolicyLRU.
func WithPolicy(p Policy) ManagerOption {
	return func(m *Manager) error {
		if _, err := ParsePolicy(string(p)); err != nil {
			return err
		}
		m.policy = p
		return nil
	}
}

// WithTTL sets the TTL for one operation prefix, e.g. "doc" or "search".
func WithTTL(op string, d time.Duration) ManagerOption {
	return func(m *Manager) error {
		m.ttls[op] = d
		return nil
	}
}

// WithDefaultTTL sets the TTL for operations with no explicit TTL.
// Default is 5m.
func WithDefaultTTL(d time.Duration) ManagerOption {
	return func(m *Manager) error {
		m.ttl = d
		return nil
	}
}

// WithFastEntries sets the fast-tier entry count.
// Default is 512.
func WithFastEntries(n int) ManagerOption {
	return func(m *Manager) error {
		if n < 1 {
			n = 1
		}
		fast, err := lru.New[string, *Entry](n)
		if err != nil {
			return err
		}
		m.fast = fast
		return nil
	}
}

// WithManagerLogger sets a custom logger.
// Default is slog.Default().
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
		return nil
	}
}

// NewManager creates a cache manager over the given persistent tier.
func NewManager(store Tier, opts ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, errors.New("persistent tier is required")
	}

	fast, err := lru.New[string, *Entry](defaultFastEntries)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		fast:     fast,
		store:    store,
		capacity: defaultCapacityBytes,
		policy:   PolicyLRU,
		ttls:     make(map[string]time.Duration),
		ttl:      defaultTTL,
		meta:     make(map[string]*Entry),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// GetOrLoad returns the cached value for key, or runs load exactly once to
// produce and cache it. Concurrent callers for the same key share one load.
// The second return reports whether the value came from cache.
func (m *Manager) GetOrLoad(ctx context.Context, key string, load LoadFunc) (Value, bool, error) {
	if v, ok := m.Get(key); ok {
		return v, true, nil
	}

	type loaded struct {
		value  Value
		cached bool
	}
	res, err, _ := m.group.Do(key, func() (any, error) {
		// A racing caller may have populated the key between our miss
		// and the flight starting. The outer Get already counted this
		// lookup, so the re-check leaves the counters alone.
		if v, ok := m.get(key, false); ok {
			return loaded{value: v, cached: true}, nil
		}
		v, err := load(ctx)
		if err != nil {
			return loaded{}, err
		}
		if err := m.Put(key, v); err != nil {
			m.logger.Warn("failed to cache value", "key", key, "err", err)
		}
		return loaded{value: v}, nil
	})
	if err != nil {
		return Value{}, false, err
	}
	l := res.(loaded)
	return l.value, l.cached, nil
}

// Get returns the cached value for key. Expired and corrupt entries read
// as misses and are removed.
func (m *Manager) Get(key string) (Value, bool) {
	return m.get(key, true)
}

// get implements Get. With record false the counters are left alone, so a
// re-check inside a flight cannot count the same logical lookup twice.
func (m *Manager) get(key string, record bool) (Value, bool) {
	now := time.Now()

	if e, ok := m.fast.Get(key); ok {
		if e.Expired(now) {
			m.remove(key)
			if record {
				m.misses.Add(1)
			}
			return Value{}, false
		}
		m.touch(e, now)
		if record {
			m.hits.Add(1)
		}
		return e.Value, true
	}

	e, err := m.store.Get(key)
	if err != nil {
		if errors.Is(err, ErrCorruptEntry) {
			m.remove(key)
		} else if !errors.Is(err, core.ErrNotFound) {
			m.logger.Warn("persistent tier read failed", "key", key, "err", err)
		}
		if record {
			m.misses.Add(1)
		}
		return Value{}, false
	}
	if e.Expired(now) {
		m.remove(key)
		if record {
			m.misses.Add(1)
		}
		return Value{}, false
	}

	m.touch(e, now)
	m.promote(e)
	if record {
		m.hits.Add(1)
	}
	return e.Value, true
}

// Put caches a value under key with the operation's TTL. Values larger
// than the whole quota are not cached. After the insert the tracked
// resident size is at or under the quota.
func (m *Manager) Put(key string, v Value) error {
	size := payloadSize(v)
	if size > m.capacity {
		m.logger.Debug("value exceeds cache capacity, not cached", "key", key, "size", size)
		return nil
	}

	now := time.Now()
	e := &Entry{
		Key:        key,
		Value:      v,
		CreatedAt:  now,
		TTL:        m.ttlFor(key),
		Size:       size,
		LastAccess: now,
	}

	if err := m.store.Set(e); err != nil {
		return err
	}

	m.mu.Lock()
	if old, ok := m.meta[key]; ok {
		m.sizes -= old.Size
	}
	m.meta[key] = e
	m.sizes += size
	victims := m.evictLocked(key)
	m.mu.Unlock()

	m.fast.Add(key, e)
	for _, victim := range victims {
		m.fast.Remove(victim)
		if err := m.store.Delete(victim); err != nil {
			m.logger.Warn("failed to delete evicted entry", "key", victim, "err", err)
		}
		m.logger.Debug("evicted cache entry", "key", victim, "policy", m.policy)
	}
	return nil
}

// evictLocked selects victims per policy until resident size fits the
// quota. The just-inserted key is spared so an insert cannot evict itself
// while older entries remain. Caller holds mu.
func (m *Manager) evictLocked(inserted string) []string {
	var victims []string
	for m.sizes > m.capacity && len(m.meta) > 1 {
		victim := m.victimLocked(inserted)
		if victim == "" {
			break
		}
		m.sizes -= m.meta[victim].Size
		delete(m.meta, victim)
		victims = append(victims, victim)
	}
	return victims
}

func (m *Manager) victimLocked(spare string) string {
	var best string
	var bestEntry *Entry
	for key, e := range m.meta {
		if key == spare {
			continue
		}
		if bestEntry == nil || m.worse(e, bestEntry) || (m.ties(e, bestEntry) && key < best) {
			best, bestEntry = key, e
			continue
		}
	}
	return best
}

// worse reports whether a is a better eviction victim than b.
func (m *Manager) worse(a, b *Entry) bool {
	switch m.policy {
	case PolicyLFU:
		if a.AccessCount != b.AccessCount {
			return a.AccessCount < b.AccessCount
		}
		return a.LastAccess.Before(b.LastAccess)
	case PolicyTTL:
		return a.CreatedAt.Add(a.TTL).Before(b.CreatedAt.Add(b.TTL))
	default: // PolicyLRU
		return a.LastAccess.Before(b.LastAccess)
	}
}

func (m *Manager) ties(a, b *Entry) bool {
	switch m.policy {
	case PolicyLFU:
		return a.AccessCount == b.AccessCount && a.LastAccess.Equal(b.LastAccess)
	case PolicyTTL:
		return a.CreatedAt.Add(a.TTL).Equal(b.CreatedAt.Add(b.TTL))
	default:
		return a.LastAccess.Equal(b.LastAccess)
	}
}

// Invalidate removes every key matching the glob pattern, in both tiers.
// Returns the number of keys removed.
func (m *Manager) Invalidate(pattern string) (int, error) {
	keys, err := m.store.Keys()
	if err != nil {
		return 0, err
	}

	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		seen[key] = true
	}
	m.mu.Lock()
	for key := range m.meta {
		if !seen[key] {
			keys = append(keys, key)
		}
	}
	m.mu.Unlock()

	removed := 0
	for _, key := range keys {
		ok, err := path.Match(pattern, key)
		if err != nil {
			return removed, fmt.Errorf("%w: pattern %q: %v", core.ErrValidation, pattern, err)
		}
		if !ok {
			continue
		}
		m.remove(key)
		removed++
	}
	m.logger.Debug("invalidated cache entries", "pattern", pattern, "removed", removed)
	return removed, nil
}

// Clear drops every entry from both tiers. Counters are preserved.
func (m *Manager) Clear() error {
	m.fast.Purge()
	m.mu.Lock()
	m.meta = make(map[string]*Entry)
	m.sizes = 0
	m.mu.Unlock()
	return m.store.Clear()
}

// Stats returns a snapshot of the cache counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	entries := len(m.meta)
	resident := m.sizes
	m.mu.Unlock()
	return Stats{
		Hits:         m.hits.Load(),
		Misses:       m.misses.Load(),
		Entries:      entries,
		ResidentSize: resident,
	}
}

// Close closes the persistent tier.
func (m *Manager) Close() error {
	return m.store.Close()
}

func (m *Manager) ttlFor(key string) time.Duration {
	if d, ok := m.ttls[Op(key)]; ok {
		return d
	}
	return m.ttl
}

func (m *Manager) touch(e *Entry, now time.Time) {
	var victims []string
	m.mu.Lock()
	e.Touch(now)
	if _, ok := m.meta[e.Key]; !ok {
		// Promotion after restart: the persistent tier outlives meta. The
		// promoted size counts against the quota, so reads of a warm store
		// can trigger eviction just like inserts.
		m.meta[e.Key] = e
		m.sizes += e.Size
		victims = m.evictLocked(e.Key)
	}
	m.mu.Unlock()

	for _, victim := range victims {
		m.fast.Remove(victim)
		if err := m.store.Delete(victim); err != nil {
			m.logger.Warn("failed to delete evicted entry", "key", victim, "err", err)
		}
		m.logger.Debug("evicted cache entry", "key", victim, "policy", m.policy)
	}
}

func (m *Manager) promote(e *Entry) {
	m.fast.Add(e.Key, e)
}

// remove deletes key from both tiers and the accounting table.
func (m *Manager) remove(key string) {
	m.fast.Remove(key)
	m.mu.Lock()
	if e, ok := m.meta[key]; ok {
		m.sizes -= e.Size
		delete(m.meta, key)
	}
	m.mu.Unlock()
	if err := m.store.Delete(key); err != nil {
		m.logger.Warn("failed to delete cache entry", "key", key, "err", err)
	}
}
