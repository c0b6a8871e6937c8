package cache

import (
	"sync"
	"time"

	"github.com/pharmaprocure/backend/internal/domain"
)

// SnapshotCache is a thread-safe holder for the catalog snapshot with TTL
// support. Readers share one immutable slice; writers replace it wholesale,
// so concurrent resolution against a cached snapshot needs no locking
// beyond the swap itself.
type SnapshotCache struct {
	mutex     sync.RWMutex
	entries   []domain.CatalogEntry
	loadedAt  time.Time
	ttl       time.Duration
	populated bool
}

// NewSnapshotCache creates a snapshot cache. A non-positive ttl means
// entries only leave the cache through Invalidate.
func NewSnapshotCache(ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{ttl: ttl}
}

// Get returns the cached snapshot and whether it is still valid.
func (c *SnapshotCache) Get() ([]domain.CatalogEntry, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if !c.populated {
		return nil, false
	}
	if c.ttl > 0 && time.Since(c.loadedAt) > c.ttl {
		return nil, false
	}
	return c.entries, true
}

// Set replaces the cached snapshot.
func (c *SnapshotCache) Set(entries []domain.CatalogEntry) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = entries
	c.loadedAt = time.Now()
	c.populated = true
}

// Invalidate drops the cached snapshot. Called after catalog imports so the
// next resolution sees the new entries.
func (c *SnapshotCache) Invalidate() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = nil
	c.populated = false
}
