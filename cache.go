package main

import (
	"sync"
	"time"
)

// DefaultCacheTTL is how long a resolved payload stays fresh
const DefaultCacheTTL = 24 * time.Hour

type cacheEntry struct {
	data      ResolvedMetadata
	timestamp time.Time
}

// MetadataCache holds resolved metadata keyed by URL for the life of the
// process. Entries expire after the TTL and are evicted by the lookup that
// finds them stale.
type MetadataCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// CacheOption configures a MetadataCache
type CacheOption func(*MetadataCache)

// WithClock replaces the wall clock used for timestamps and expiry
func WithClock(now func() time.Time) CacheOption {
	return func(c *MetadataCache) {
		c.now = now
	}
}

// NewMetadataCache creates an empty cache. A non-positive ttl uses DefaultCacheTTL.
func NewMetadataCache(ttl time.Duration, opts ...CacheOption) *MetadataCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &MetadataCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached payload for url. A stale entry is removed and
// reported as absent.
func (c *MetadataCache) Get(url string) (ResolvedMetadata, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[url]
	if !ok {
		cacheLookups.WithLabelValues(cacheResultMiss).Inc()
		return ResolvedMetadata{}, false
	}

	if c.now().Sub(entry.timestamp) > c.ttl {
		delete(c.entries, url)
		cacheEntries.Set(float64(len(c.entries)))
		cacheLookups.WithLabelValues(cacheResultExpired).Inc()
		debugLog("cache entry for %s expired", url)
		return ResolvedMetadata{}, false
	}

	cacheLookups.WithLabelValues(cacheResultHit).Inc()
	return entry.data, true
}

// Put stores data for url, overwriting any previous entry and resetting its age
func (c *MetadataCache) Put(url string, data ResolvedMetadata) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[url] = cacheEntry{data: data, timestamp: c.now()}
	cacheEntries.Set(float64(len(c.entries)))
}

// Len reports the number of stored entries, stale ones included
func (c *MetadataCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
