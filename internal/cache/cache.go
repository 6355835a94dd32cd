// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package cache

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/logging"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/metrics"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/storage"
)

// keyPrefix namespaces cache entries inside the shared store.
const keyPrefix = "cache:"

// entry is the persisted record.
type entry struct {
	Key      string          `json:"key"`
	Value    json.RawMessage `json:"value"`
	CachedAt time.Time       `json:"cached_at"`
	TTL      time.Duration   `json:"ttl"`
}

// entryHeader decodes only what the expiry sweep needs.
type entryHeader struct {
	CachedAt time.Time     `json:"cached_at"`
	TTL      time.Duration `json:"ttl"`
}

func isStale(cachedAt time.Time, ttl time.Duration, now time.Time) bool {
	return now.Sub(cachedAt) > ttl
}

// Result is the outcome of a cache read.
//
// Found is false only when nothing is stored under the key; in that case
// IsStale is true. Found with a nil Value is a cached "known absent".
type Result[T any] struct {
	Value   *T
	Found   bool
	IsStale bool
}

// Stats are cumulative counters since construction.
type Stats struct {
	Hits      int64
	StaleHits int64
	Misses    int64
	Writes    int64
	Evictions int64
	Errors    int64
}

// Cache is the persistent TTL cache. A single instance is shared by every
// consumer of a process.
type Cache struct {
	store  storage.Store
	now    func() time.Time
	logger zerolog.Logger

	flight    singleflight.Group
	refreshes sync.WaitGroup

	hits      atomic.Int64
	staleHits atomic.Int64
	misses    atomic.Int64
	writes    atomic.Int64
	evictions atomic.Int64
	errs      atomic.Int64
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates a Cache over store.
func New(store storage.Store, opts ...Option) *Cache {
	c := &Cache{
		store:  store,
		now:    time.Now,
		logger: logging.WithComponent("cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get reads key. It never fails: storage and decode errors are logged and
// reported as a miss.
func Get[T any](c *Cache, key string) Result[T] {
	e, ok := c.read(key)
	if !ok {
		c.misses.Add(1)
		metrics.RecordCacheRead(family(key), false, true)
		return Result[T]{Value: nil, Found: false, IsStale: true}
	}

	stale := isStale(e.CachedAt, e.TTL, c.now())
	if stale {
		c.staleHits.Add(1)
	} else {
		c.hits.Add(1)
	}
	metrics.RecordCacheRead(family(key), true, stale)

	if isNull(e.Value) {
		return Result[T]{Value: nil, Found: true, IsStale: stale}
	}
	var v T
	if err := json.Unmarshal(e.Value, &v); err != nil {
		c.errs.Add(1)
		c.logger.Warn().Err(err).Str("key", key).Msg("undecodable cache value, treating as miss")
		return Result[T]{Value: nil, Found: false, IsStale: true}
	}
	return Result[T]{Value: &v, Found: true, IsStale: stale}
}

// Set stores value under key with the TTL of class and cachedAt = now.
func Set[T any](c *Cache, key string, value T, class Class) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value %s: %w", key, err)
	}
	return c.write(key, raw, class.TTL())
}

// SetAbsent caches an explicit "known absent upstream" result for key.
func (c *Cache) SetAbsent(key string, class Class) error {
	return c.write(key, json.RawMessage("null"), class.TTL())
}

// InvalidateByPrefix deletes every entry whose key starts with prefix.
func (c *Cache) InvalidateByPrefix(prefix string) (int, error) {
	n, err := storage.DeletePrefix(c.store, keyPrefix+prefix)
	if err != nil {
		c.errs.Add(1)
		return n, fmt.Errorf("invalidate %q: %w", prefix, err)
	}
	metrics.CacheInvalidations.WithLabelValues(prefix).Add(float64(n))
	c.logger.Info().Str("prefix", prefix).Int("removed", n).Msg("cache invalidated")
	return n, nil
}

// EvictExpired deletes every entry past its TTL and returns how many were
// removed. Undecodable entries are removed as well. Scheduling is the
// caller's concern.
func (c *Cache) EvictExpired() (int, error) {
	now := c.now()
	n, err := c.store.DeleteWhere(keyPrefix, func(_ string, value []byte) bool {
		var h entryHeader
		if err := json.Unmarshal(value, &h); err != nil {
			return true
		}
		return isStale(h.CachedAt, h.TTL, now)
	})
	if err != nil {
		c.errs.Add(1)
		return n, fmt.Errorf("evict expired: %w", err)
	}
	c.evictions.Add(int64(n))
	metrics.CacheEvictions.Add(float64(n))
	if n > 0 {
		c.logger.Debug().Int("removed", n).Msg("expired cache entries evicted")
	}
	return n, nil
}

// Len counts stored entries, stale or not.
func (c *Cache) Len() (int, error) {
	n := 0
	err := c.store.Scan(keyPrefix, func(string, []byte) error {
		n++
		return nil
	})
	return n, err
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		StaleHits: c.staleHits.Load(),
		Misses:    c.misses.Load(),
		Writes:    c.writes.Load(),
		Evictions: c.evictions.Load(),
		Errors:    c.errs.Load(),
	}
}

// Wait blocks until in-flight background refreshes have finished.
func (c *Cache) Wait() {
	c.refreshes.Wait()
}

func (c *Cache) read(key string) (entry, bool) {
	raw, err := c.store.Get(keyPrefix + key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			c.errs.Add(1)
			c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		return entry{}, false
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		c.errs.Add(1)
		c.logger.Warn().Err(err).Str("key", key).Msg("corrupt cache entry")
		return entry{}, false
	}
	return e, true
}

func (c *Cache) write(key string, value json.RawMessage, ttl time.Duration) error {
	raw, err := json.Marshal(entry{Key: key, Value: value, CachedAt: c.now(), TTL: ttl})
	if err != nil {
		return fmt.Errorf("marshal cache entry %s: %w", key, err)
	}
	if err := c.store.Set(keyPrefix+key, raw); err != nil {
		c.errs.Add(1)
		return fmt.Errorf("write cache entry %s: %w", key, err)
	}
	c.writes.Add(1)
	return nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
