package jobs

import "github.com/google/uuid"

// failureCache tracks how many more failures a worker will tolerate from
// each posting before giving up on it. Entries are lazily defaulted to the
// configured threshold on first access. The cache is owned by a single
// worker goroutine and never shared, so it needs no locking.
type failureCache struct {
	defaultValue int
	cache        map[uuid.UUID]int
}

func newFailureCache(defaultValue int) *failureCache {
	return &failureCache{
		defaultValue: defaultValue,
		cache:        make(map[uuid.UUID]int),
	}
}

// Remaining returns the number of failures still tolerated for the posting,
// inserting the default on first access.
func (c *failureCache) Remaining(postingID uuid.UUID) int {
	if v, ok := c.cache[postingID]; ok {
		return v
	}
	c.cache[postingID] = c.defaultValue
	return c.defaultValue
}

// Decrement consumes one tolerated failure for the posting.
func (c *failureCache) Decrement(postingID uuid.UUID) {
	c.cache[postingID] = c.Remaining(postingID) - 1
}
