package cache

import (
	"sync"

	"github.com/Tiliavir/medrem/internal/model"
)

// Cache is the client's in-memory mirror of the server's record collection.
// It is only ever replaced wholesale; there is no per-record update path.
type Cache struct {
	mu      sync.RWMutex
	records []model.Medicine
	byID    map[int64]int
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{
		records: []model.Medicine{},
		byID:    map[int64]int{},
	}
}

// ReplaceAll swaps the whole collection for records, keeping their order.
// If an id occurs more than once the last occurrence wins, at the position
// of the first.
func (c *Cache) ReplaceAll(records []model.Medicine) {
	next := make([]model.Medicine, 0, len(records))
	byID := make(map[int64]int, len(records))
	for _, r := range records {
		if i, dup := byID[r.ID]; dup {
			next[i] = r
			continue
		}
		byID[r.ID] = len(next)
		next = append(next, r)
	}

	c.mu.Lock()
	c.records = next
	c.byID = byID
	c.mu.Unlock()
}

// Find returns the record with the given id.
func (c *Cache) Find(id int64) (model.Medicine, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return model.Medicine{}, false
	}
	return c.records[i], true
}

// Size returns the number of cached records.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// All returns a copy of the cached records in server order.
func (c *Cache) All() []model.Medicine {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Medicine, len(c.records))
	copy(out, c.records)
	return out
}
