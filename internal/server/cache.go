package server

import (
	"os"
	"sync"
	"time"

	"github.com/ironsheep/frame-cleaner/internal/cleaner"
)

// InspectionCache keeps dry-run inspections keyed by drawing path so that
// detect, snapshot and preview calls on the same drawing read it once.
//
// An entry is reused only while the file's size and modification time are
// unchanged. Paths that cannot be stat'ed are never cached.
//
// InspectionCache is safe for concurrent use.
type InspectionCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	modTime time.Time
	size    int64
	in      *cleaner.Inspection
}

// NewInspectionCache creates an empty cache.
func NewInspectionCache() *InspectionCache {
	return &InspectionCache{entries: make(map[string]cacheEntry)}
}

// Get returns the cached inspection of path if the file is unchanged.
func (c *InspectionCache) Get(path string) (*cleaner.Inspection, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.entries[path]
	c.mu.RUnlock()
	if !ok || !e.modTime.Equal(info.ModTime()) || e.size != info.Size() {
		return nil, false
	}
	return e.in, true
}

// Put stores in for path, stamped with the file's current size and
// modification time.
func (c *InspectionCache) Put(path string, in *cleaner.Inspection) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.entries[path] = cacheEntry{modTime: info.ModTime(), size: info.Size(), in: in}
	c.mu.Unlock()
}

// Evict removes path from the cache.
func (c *InspectionCache) Evict(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}

// Len returns the number of cached inspections.
func (c *InspectionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
