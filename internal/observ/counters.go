package observ

import (
	"fmt"
	"sync/atomic"
)

// Counters tracks what a run did. Workers update it concurrently.
type Counters struct {
	Units      atomic.Int64 // source units checked
	Entities   atomic.Int64 // entities extracted
	Violations atomic.Int64
	CacheHits  atomic.Int64
	CacheMiss  atomic.Int64
	LoadErrors atomic.Int64
}

// String summarizes the counters on one line.
func (c *Counters) String() string {
	hits, miss := c.CacheHits.Load(), c.CacheMiss.Load()
	rate := 0.0
	if hits+miss > 0 {
		rate = float64(hits) / float64(hits+miss) * 100
	}
	return fmt.Sprintf("units: %d (%d unreadable) | entities: %d | violations: %d | cache: %d/%d (%.1f%%)",
		c.Units.Load(), c.LoadErrors.Load(), c.Entities.Load(), c.Violations.Load(),
		hits, hits+miss, rate)
}
