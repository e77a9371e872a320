// Package embedding resolves text embeddings through an external
// provider, caching results by exact source text.
package embedding

import (
	"container/list"
	"sync"
)

// DefaultCacheCapacity bounds the embedding cache in server deployments.
// A capacity of 0 disables eviction entirely, matching the behavior of a
// short-lived client process.
const DefaultCacheCapacity = 10000

// Cache is a thread-safe embedding cache keyed by exact source text.
// The key is not normalized or hashed: two strings that differ only in
// case or whitespace get separate entries. Insert-only from the caller's
// point of view; with a capacity set, the least recently used entry is
// evicted when the cache is full.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*list.Element
	order    *list.List
	capacity int
}

type cacheEntry struct {
	text   string
	vector []float32
}

// NewCache creates a cache with the given capacity. Pass 0 for an
// unbounded cache.
func NewCache(capacity int) *Cache {
	return &Cache{
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		capacity: capacity,
	}
}

// Get returns the cached vector for the exact text, if present.
func (c *Cache) Get(text string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[text]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).vector, true
}

// Put stores the vector under the exact text. Storing the same text
// twice replaces the entry, so there is never more than one entry per
// text even under concurrent misses.
func (c *Cache) Put(text string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[text]; ok {
		elem.Value.(*cacheEntry).vector = vector
		c.order.MoveToFront(elem)
		return
	}

	if c.capacity > 0 && c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).text)
		}
	}

	c.entries[text] = c.order.PushFront(&cacheEntry{text: text, vector: vector})
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
