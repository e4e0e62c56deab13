package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/fmtcache/cache"
)

// CacheSource is a cache whose counters can be inspected. *cache.LRU
// implements it.
type CacheSource interface {
	Name() string
	Len() int
	Stats() cache.Stats
}

// bounded is implemented by caches that expose their policy.
type bounded interface {
	Policy() cache.Policy
}

// CacheChecker reports a cache as degraded when it is full and has evicted
// entries, which means lookups are repeating work the cache should save.
type CacheChecker struct {
	source CacheSource
}

// NewCacheChecker creates a checker for c.
func NewCacheChecker(c CacheSource) *CacheChecker {
	return &CacheChecker{source: c}
}

// Name returns "cache:" followed by the cache name.
func (c *CacheChecker) Name() string {
	return "cache:" + c.source.Name()
}

// Check inspects the cache counters.
func (c *CacheChecker) Check(context.Context) Result {
	s := c.source.Stats()
	entries := c.source.Len()

	details := map[string]any{
		"entries":       entries,
		"hits":          s.Hits,
		"negative_hits": s.NegativeHits,
		"misses":        s.Misses,
		"evictions":     s.Evictions,
		"expirations":   s.Expirations,
	}
	if lookups := s.Hits + s.NegativeHits + s.Misses; lookups > 0 {
		details["hit_ratio"] = float64(s.Hits+s.NegativeHits) / float64(lookups)
	}

	if b, ok := c.source.(bounded); ok && b.Policy().Bounded() {
		limit := b.Policy().MaxEntries
		details["max_entries"] = limit
		if entries >= limit && s.Evictions > 0 {
			return Degraded(fmt.Sprintf("cache full at %d entries with %d evictions", limit, s.Evictions)).
				WithDetails(details)
		}
	}
	return Healthy(fmt.Sprintf("%d entries", entries)).WithDetails(details)
}
