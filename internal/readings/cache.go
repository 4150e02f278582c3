package readings

import (
	"sync"
	"time"

	"github.com/farmtech/irrigation/pkg/models"
)

// recentCache memoizes Recent results per limit for a short TTL. Every
// write invalidates it, so it only saves repeated reads between writes.
type recentCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[int]cacheEntry
}

type cacheEntry struct {
	readings []models.SensorReading
	expires  time.Time
}

func newRecentCache(ttl time.Duration) *recentCache {
	return &recentCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[int]cacheEntry),
	}
}

// get returns a deep copy of the cached readings for limit.
func (c *recentCache) get(limit int) ([]models.SensorReading, bool) {
	if c == nil || c.ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[limit]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expires) {
		delete(c.entries, limit)
		return nil, false
	}
	return cloneReadings(e.readings), true
}

func (c *recentCache) put(limit int, readings []models.SensorReading) {
	if c == nil || c.ttl <= 0 {
		return
	}
	stored := cloneReadings(readings)

	c.mu.Lock()
	c.entries[limit] = cacheEntry{readings: stored, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *recentCache) invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
}

// cloneReadings copies rs including the optional temperature, so neither
// the cache nor its callers share mutable state.
func cloneReadings(rs []models.SensorReading) []models.SensorReading {
	out := make([]models.SensorReading, len(rs))
	copy(out, rs)
	for i := range out {
		if t := out[i].Temperature; t != nil {
			out[i].Temperature = models.Float(*t)
		}
	}
	return out
}
