// Package cache stores normalized responses keyed by request URL for a fixed
// sixty seconds.
//
// [Cache] holds the TTL policy and talks to a [Store], the persistence
// collaborator. Stores differ only in where rows live:
//
//   - [SQLStore]: SQLite (default) or PostgreSQL through database/sql
//   - [RedisStore]: one hash per URL
//   - [MongoStore]: one document per URL
//   - [FileStore]: one JSON file per URL under the user cache directory
//   - [MemoryStore]: process memory
//   - [NullStore]: stores nothing
//
// Every backend keeps at most one entry per URL and writes with an upsert, so
// two concurrent misses for the same URL overwrite each other instead of
// producing duplicates. A lookup that still finds more than one row fails
// with CACHE_CORRUPTION.
package cache

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ctabridge/pkg/errors"
	"github.com/matzehuels/ctabridge/pkg/observability"
)

// TTL is how long an entry is served. It is not configurable.
const TTL = 60 * time.Second

// Entry is one cached response.
type Entry struct {
	URL      string
	Payload  string
	StoredAt time.Time
}

// Store persists entries. Implementations must be safe for concurrent use.
type Store interface {
	// Load returns the entry for url, or nil if there is none. An entry stored
	// before cutoff is deleted in the same operation and reported as nil.
	// More than one entry for url is CACHE_CORRUPTION.
	Load(ctx context.Context, url string, cutoff time.Time) (*Entry, error)

	// Save inserts or replaces the entry for e.URL.
	Save(ctx context.Context, e Entry) error

	// Delete removes every entry for url.
	Delete(ctx context.Context, url string) error

	// Purge removes entries stored before cutoff and reports how many.
	Purge(ctx context.Context, cutoff time.Time) (int, error)

	// Clear removes all entries and reports how many.
	Clear(ctx context.Context) (int, error)

	// Name identifies the backend in logs and hooks.
	Name() string

	Close() error
}

// Cache applies the TTL policy on top of a Store.
type Cache struct {
	store  Store
	now    func() time.Time
	logger *log.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// New wraps store with the TTL policy.
func New(store Store, opts ...Option) *Cache {
	c := &Cache{store: store, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	return c
}

// Get returns the payload stored for url. An entry older than [TTL] is
// evicted and reported as a miss.
func (c *Cache) Get(ctx context.Context, url string) (string, bool, error) {
	e, err := c.store.Load(ctx, url, c.now().Add(-TTL))
	if err != nil {
		return "", false, err
	}
	if e == nil {
		observability.Cache().OnCacheMiss(ctx, c.store.Name())
		c.logger.Debug("cache miss", "key", shortKey(url))
		return "", false, nil
	}
	observability.Cache().OnCacheHit(ctx, c.store.Name())
	c.logger.Debug("cache hit", "key", shortKey(url), "age", c.now().Sub(e.StoredAt).Round(time.Millisecond))
	return e.Payload, true, nil
}

// Set stores payload for url with the current time.
func (c *Cache) Set(ctx context.Context, url, payload string) error {
	if err := c.store.Save(ctx, Entry{URL: url, Payload: payload, StoredAt: c.now()}); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, c.store.Name(), len(payload))
	c.logger.Debug("cache store", "key", shortKey(url), "bytes", len(payload))
	return nil
}

// Delete removes url from the cache.
func (c *Cache) Delete(ctx context.Context, url string) error {
	return c.store.Delete(ctx, url)
}

// Purge removes every expired entry.
func (c *Cache) Purge(ctx context.Context) (int, error) {
	return c.store.Purge(ctx, c.now().Add(-TTL))
}

// Clear removes every entry.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	return c.store.Clear(ctx)
}

// Backend returns the store name.
func (c *Cache) Backend() string {
	return c.store.Name()
}

// Close releases the store.
func (c *Cache) Close() error {
	return c.store.Close()
}

// pick applies the lookup rules shared by all stores to the rows found for
// one URL. It returns the live entry, or nil with stale set when the single
// row must be evicted.
func pick(url string, rows []Entry, cutoff time.Time) (e *Entry, stale bool, err error) {
	switch len(rows) {
	case 0:
		return nil, false, nil
	case 1:
		if rows[0].StoredAt.Before(cutoff) {
			return nil, true, nil
		}
		return &rows[0], false, nil
	default:
		return nil, false, errors.New(errors.ErrCodeCacheCorruption, "%d cache entries for %s", len(rows), url)
	}
}

// shortKey identifies a URL in logs without exposing the API key it carries.
func shortKey(url string) string {
	return Hash([]byte(url))[:12]
}

// evicted reports an expired entry removed during Load.
func evicted(ctx context.Context, backend string, storedAt, cutoff time.Time) {
	observability.Cache().OnCacheEvict(ctx, backend, cutoff.Add(TTL).Sub(storedAt))
}
