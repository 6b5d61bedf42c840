package main

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// CacheKey identifies one cached list or aggregate read. It is built
// from the resource kind, the filter set and the page number so that
// identical reads within the cache lifetime share one entry.
type CacheKey string

// NewCacheKey builds a deterministic key: filters are sorted by name
// so that equal filter sets always produce equal keys.
func NewCacheKey(resource string, filters map[string]string, page int) CacheKey {
	parts := make([]string, 0, len(filters))
	for k, v := range filters {
		if v == "" {
			continue
		}
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)
	return CacheKey(fmt.Sprintf("%s?%s&page=%d", resource, strings.Join(parts, "&"), page))
}

// Resource returns the resource kind segment of the key.
func (k CacheKey) Resource() string {
	s := string(k)
	if i := strings.IndexByte(s, '?'); i >= 0 {
		return s[:i]
	}
	return s
}

type cacheEntry struct {
	value   interface{}
	expires time.Time
}

// QueryCache is the in-memory read cache in front of list and
// aggregate reads. Entries expire after the configured lifetime and
// every mutation invalidates all entries of the affected resource
// kinds, forcing the next identical read to refetch. Handlers run in
// their own goroutines so access is mutex guarded.
type QueryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	clock   Clocker
	entries map[CacheKey]cacheEntry
}

// NewQueryCache provides a ready to use QueryCache.
func NewQueryCache(ttl time.Duration, clock Clocker) *QueryCache {
	return &QueryCache{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[CacheKey]cacheEntry),
	}
}

// Get returns the cached value of the key if present and not expired.
func (c *QueryCache) Get(key CacheKey) (interface{}, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.clock.Now().After(entry.expires) {
		return nil, false
	}
	return entry.value, true
}

// Set stores a value under the key with the configured lifetime.
func (c *QueryCache) Set(key CacheKey, value interface{}) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, expires: c.clock.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// Invalidate drops every cached entry belonging to the given resource
// kinds. The next read with any matching key refetches from storage.
func (c *QueryCache) Invalidate(resources ...string) {
	c.mu.Lock()
	for key := range c.entries {
		res := key.Resource()
		for _, r := range resources {
			if res == r {
				delete(c.entries, key)
				break
			}
		}
	}
	c.mu.Unlock()
}

// Len reports the number of live entries, expired ones included.
func (c *QueryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
