package tessellate

import "sync"

// CacheKey identifies a cached result by geometry and options digest.
type CacheKey struct {
	ID      string
	Options uint64
}

// Cache memoizes tessellation results for callers that re-tessellate the same
// geometry. It is owned by the caller and safe for concurrent use. Cached
// results share buffers between hits and must be treated as read-only.
type Cache struct {
	mu      sync.RWMutex
	entries map[CacheKey]Result
	hits    int
	misses  int
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[CacheKey]Result)}
}

// Get looks up the result for id under opts.
func (c *Cache) Get(id string, opts Options) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[CacheKey{ID: id, Options: opts.Hash()}]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return r, ok
}

// Put stores r for id under opts.
func (c *Cache) Put(id string, opts Options, r Result) {
	c.mu.Lock()
	c.entries[CacheKey{ID: id, Options: opts.Hash()}] = r
	c.mu.Unlock()
}

// Tessellate returns the cached result for g or computes and stores it.
// Geometry without an ID bypasses the cache.
func (c *Cache) Tessellate(g Geometry, opts Options) (Result, error) {
	if g.ID == "" {
		return Tessellate(g, opts)
	}
	if r, ok := c.Get(g.ID, opts); ok {
		return r, nil
	}
	r, err := Tessellate(g, opts)
	if err != nil {
		return Result{}, err
	}
	c.Put(g.ID, opts, r)
	return r, nil
}

// Invalidate drops every entry for id, whatever the options.
func (c *Cache) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.ID == id {
			delete(c.entries, k)
		}
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns the hit and miss counts.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
