package godine

import (
	"sync"
)

// valueCache is the name-keyed store for created values. The container
// keeps one for App values and every scope keeps one for Request
// values. Once sealed the cache refuses writes, so a factory that
// finishes after its owner closed can release the fresh value instead
// of leaking it.
type valueCache struct {
	mu      sync.RWMutex
	entries map[string]any
	sealed  bool
}

func newValueCache() *valueCache {
	return &valueCache{
		entries: make(map[string]any),
	}
}

// get retrieves the value cached under name.
func (c *valueCache) get(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.entries[name]
	return value, ok
}

// set caches value under name. It reports false once the cache is
// sealed, leaving the caller to release the value.
func (c *valueCache) set(name string, value any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sealed {
		return false
	}
	c.entries[name] = value
	return true
}

// delete removes the entry cached under name.
func (c *valueCache) delete(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, name)
}

// seal drops every entry and rejects all further writes.
func (c *valueCache) seal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.sealed = true
}

// len returns the number of cached entries.
func (c *valueCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
