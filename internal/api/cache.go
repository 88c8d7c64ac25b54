package api

import (
	"sync"

	"github.com/inkguard/inkguard/internal/pipeline"
)

// AssessmentCache is a thread-safe LRU cache for stored listing records.
type AssessmentCache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]*pipeline.Enriched
	order   []string // oldest first
}

// NewAssessmentCache creates a cache with the given maximum number of entries.
// If maxSize <= 0, it defaults to 256.
func NewAssessmentCache(maxSize int) *AssessmentCache {
	if maxSize <= 0 {
		maxSize = 256
	}
	return &AssessmentCache{
		maxSize: maxSize,
		entries: make(map[string]*pipeline.Enriched),
	}
}

// Get retrieves a record from the cache, or nil if not found.
func (c *AssessmentCache) Get(id string) *pipeline.Enriched {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		return nil
	}
	c.moveToEnd(id)
	return e
}

// Put adds a record to the cache, evicting the oldest if full.
func (c *AssessmentCache) Put(id string, e *pipeline.Enriched) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[id]; ok {
		c.entries[id] = e
		c.moveToEnd(id)
		return
	}

	for len(c.entries) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[id] = e
	c.order = append(c.order, id)
}

// Purge drops every entry. Called after a batch run rewrites stored records.
func (c *AssessmentCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*pipeline.Enriched)
	c.order = nil
}

// Len returns the number of cached entries.
func (c *AssessmentCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *AssessmentCache) moveToEnd(id string) {
	for i, k := range c.order {
		if k == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			c.order = append(c.order, id)
			return
		}
	}
}
