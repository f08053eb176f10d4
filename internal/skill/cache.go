package skill

import "context"

// Loader loads a record on cache miss.
type Loader func(ctx context.Context, accountID int64) Record

// Cache memoizes records for one processing context (one render turn / request).
// Create a new Cache per context; it must not be shared between concurrent contexts,
// so it carries no locking.
type Cache struct {
	records map[int64]Record
}

// NewCache creates an empty per-context cache.
func NewCache() *Cache {
	return &Cache{records: make(map[int64]Record)}
}

// Get returns the cached record for accountID, calling load on the first request only.
func (c *Cache) Get(ctx context.Context, accountID int64, load Loader) Record {
	if rec, ok := c.records[accountID]; ok {
		return rec
	}
	rec := load(ctx, accountID)
	c.records[accountID] = rec
	return rec
}

// Len returns number of cached records.
func (c *Cache) Len() int { return len(c.records) }

// Reset drops all cached records at context teardown.
func (c *Cache) Reset() {
	clear(c.records)
}
