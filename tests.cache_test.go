package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestNewCacheKey ensures equal filter sets always build equal keys
// whatever the map iteration order, and empty filters are skipped.
func TestNewCacheKey(t *testing.T) {
	a := NewCacheKey(ResourceBooks, map[string]string{"search": "go", "genre": "tech", "limit": "10"}, 2)
	b := NewCacheKey(ResourceBooks, map[string]string{"limit": "10", "genre": "tech", "search": "go"}, 2)
	assert.Equal(t, a, b)
	assert.Equal(t, CacheKey("books?genre=tech&limit=10&search=go&page=2"), a)
	assert.Equal(t, ResourceBooks, a.Resource())

	c := NewCacheKey(ResourceBooks, map[string]string{"search": "", "genre": "tech"}, 1)
	assert.Equal(t, CacheKey("books?genre=tech&page=1"), c)

	d := NewCacheKey(ResourceGenres, nil, 1)
	assert.Equal(t, CacheKey("genres?&page=1"), d)
	assert.Equal(t, ResourceGenres, d.Resource())
}

// TestQueryCacheExpiry ensures an entry dies after the configured
// lifetime.
func TestQueryCacheExpiry(t *testing.T) {
	clock := NewMockClocker()
	cache := NewQueryCache(30*time.Second, clock)
	key := NewCacheKey(ResourceBooks, nil, 1)

	cache.Set(key, BookList{Total: 3})
	v, ok := cache.Get(key)
	assert.True(t, ok)
	assert.Equal(t, BookList{Total: 3}, v.(BookList))

	// within the lifetime the entry survives.
	clock.MockNow = clock.MockNow.Add(29 * time.Second)
	_, ok = cache.Get(key)
	assert.True(t, ok)

	// past the lifetime the entry is gone.
	clock.MockNow = clock.MockNow.Add(2 * time.Second)
	_, ok = cache.Get(key)
	assert.False(t, ok)
}

// TestQueryCacheInvalidate ensures invalidation only drops the entries
// of the named resource kinds.
func TestQueryCacheInvalidate(t *testing.T) {
	clock := NewMockClocker()
	cache := NewQueryCache(time.Minute, clock)

	booksPage1 := NewCacheKey(ResourceBooks, map[string]string{"search": "go"}, 1)
	booksPage2 := NewCacheKey(ResourceBooks, map[string]string{"search": "go"}, 2)
	genres := NewCacheKey(ResourceGenres, nil, 1)
	dashboard := NewCacheKey(ResourceDashboard, map[string]string{"user": "u:1"}, 1)

	cache.Set(booksPage1, 1)
	cache.Set(booksPage2, 2)
	cache.Set(genres, 3)
	cache.Set(dashboard, 4)
	assert.Equal(t, 4, cache.Len())

	cache.Invalidate(ResourceBooks, ResourceDashboard)

	_, ok := cache.Get(booksPage1)
	assert.False(t, ok)
	_, ok = cache.Get(booksPage2)
	assert.False(t, ok)
	_, ok = cache.Get(dashboard)
	assert.False(t, ok)

	// untouched resource kinds survive the invalidation.
	v, ok := cache.Get(genres)
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 1, cache.Len())
}

// TestListQueryNormalize ensures pagination defaults and bounds.
func TestListQueryNormalize(t *testing.T) {
	q := ListQuery{}.Normalize()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 10, q.Limit)

	q = ListQuery{Page: -3, Limit: 1000}.Normalize()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 100, q.Limit)

	q = ListQuery{Page: 2, Limit: 10}
	start, end := q.Bounds(25)
	assert.Equal(t, 10, start)
	assert.Equal(t, 20, end)

	// a page past the end collapses to an empty window.
	q = ListQuery{Page: 9, Limit: 10}
	start, end = q.Bounds(25)
	assert.Equal(t, 25, start)
	assert.Equal(t, 25, end)
}
