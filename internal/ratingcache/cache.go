// Package ratingcache memoizes computed rating views per data and config version.
package ratingcache

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Key identifies one computed view. Storing a key with a newer version evicts
// entries keyed on older versions.
type Key struct {
	ResultsVersion int64
	ConfigVersion  int64
	View           string
}

type generation struct {
	id      uint64
	entries map[Key]any
	// newest versions stored so far
	results int64
	config  int64
}

// store keeps v under key unless key is older than what the generation
// already holds.
func (g *generation) store(key Key, v any) {
	if key.ResultsVersion < g.results || key.ConfigVersion < g.config {
		return
	}
	if key.ResultsVersion > g.results || key.ConfigVersion > g.config {
		for k := range g.entries {
			if k.ResultsVersion < key.ResultsVersion || k.ConfigVersion < key.ConfigVersion {
				delete(g.entries, k)
			}
		}
		g.results, g.config = key.ResultsVersion, key.ConfigVersion
	}
	g.entries[key] = v
}

// Cache holds computed values of any type. Concurrent misses on the same key
// share one computation.
type Cache struct {
	mu    sync.RWMutex
	gen   *generation
	group singleflight.Group
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{gen: &generation{entries: make(map[Key]any)}}
}

// Get returns the cached value for key, or runs compute once and stores its
// result. hit reports whether the value came from the cache. Errors are not cached.
func (c *Cache) Get(key Key, compute func() (any, error)) (v any, hit bool, err error) {
	c.mu.RLock()
	gen := c.gen
	v, ok := gen.entries[key]
	c.mu.RUnlock()
	if ok {
		return v, true, nil
	}

	flight := fmt.Sprintf("%d/%d/%d/%s", gen.id, key.ResultsVersion, key.ConfigVersion, key.View)
	v, err, _ = c.group.Do(flight, func() (any, error) {
		v, err := compute()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		// A value computed before an Invalidate is dropped.
		if c.gen == gen {
			gen.store(key, v)
		}
		c.mu.Unlock()
		return v, nil
	})
	return v, false, err
}

// Invalidate drops every cached view at once.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.gen = &generation{id: c.gen.id + 1, entries: make(map[Key]any)}
	c.mu.Unlock()
}

// Len returns the number of cached views.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.gen.entries)
}
