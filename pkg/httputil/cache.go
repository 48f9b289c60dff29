package httputil

import (
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrExpired is returned by [Cache.Get] when an entry exists but is older
// than the cache TTL. The stale entry stays in place until the next [Cache.Set]
// for the same key; nothing is evicted proactively.
var ErrExpired = errors.New("cache entry expired")

// DefaultCacheTTL matches the refresh cadence of the upstream APIs.
const DefaultCacheTTL = 5 * time.Minute

// Entry is a cached response body and the time it was fetched.
type Entry struct {
	FetchedAt time.Time
	Body      []byte
}

// Cache is an in-memory store of raw response bodies keyed by resource identity
// (e.g. "owner/repo"). It lives exactly as long as the client that owns it.
//
// Use [Cache.Namespace] to create scoped views that prefix keys:
//
//	repos := cache.Namespace("repo:")
//	repos.Set("owner/name", body)  // key becomes "repo:owner/name"
type Cache struct {
	ttl     time.Duration
	clock   clockwork.Clock
	prefix  string
	entries map[string]Entry
}

// NewCache creates a Cache with the given TTL. A TTL of 0 means entries never
// expire. A nil clock means the real clock.
func NewCache(ttl time.Duration, clock clockwork.Clock) *Cache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cache{ttl: ttl, clock: clock, entries: make(map[string]Entry)}
}

// TTL returns the time-to-live for entries.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns the body cached under key.
//
//   - (body, true, nil): fresh hit
//   - (nil, false, nil): no entry
//   - (nil, false, ErrExpired): entry older than the TTL
func (c *Cache) Get(key string) ([]byte, bool, error) {
	e, ok := c.entries[c.prefix+key]
	if !ok {
		return nil, false, nil
	}
	if c.ttl > 0 && c.clock.Since(e.FetchedAt) >= c.ttl {
		return nil, false, ErrExpired
	}
	return e.Body, true, nil
}

// Set stores body under key, stamped with the current time.
func (c *Cache) Set(key string, body []byte) {
	c.entries[c.prefix+key] = Entry{FetchedAt: c.clock.Now(), Body: body}
}

// Len returns the number of entries across all namespaces, stale ones included.
func (c *Cache) Len() int { return len(c.entries) }

// Namespace returns a view of the same entries with keys prefixed by prefix.
// Namespaces can be chained.
func (c *Cache) Namespace(prefix string) *Cache {
	return &Cache{
		ttl:     c.ttl,
		clock:   c.clock,
		prefix:  c.prefix + prefix,
		entries: c.entries,
	}
}
