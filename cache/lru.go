package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU is an in-memory cache with least-recently-used eviction, age expiry
// and negative entries.
//
// A map gives O(1) key lookup and a doubly-linked list keeps recency order.
// Front is the most recently used entry, back the least.
type LRU[K comparable, V any] struct {
	name   string
	policy Policy

	mu    sync.Mutex
	items map[K]*list.Element
	order *list.List
	stats Stats
}

type lruEntry[K comparable, V any] struct {
	key      K
	value    V
	negative bool
	storedAt time.Time
}

// Stats holds cumulative counters for an LRU.
type Stats struct {
	Hits         int64
	NegativeHits int64
	Misses       int64
	Evictions    int64
	Expirations  int64
}

// NewLRU creates an LRU with the given name and policy.
// The name is only used for metrics and health reporting.
func NewLRU[K comparable, V any](name string, policy Policy) *LRU[K, V] {
	return &LRU[K, V]{
		name:   name,
		policy: policy,
		items:  make(map[K]*list.Element),
		order:  list.New(),
	}
}

// Name returns the cache name.
func (c *LRU[K, V]) Name() string {
	return c.name
}

// Policy returns the cache policy.
func (c *LRU[K, V]) Policy() Policy {
	return c.policy
}

// Get returns the entry for key. An entry older than MaxAge is removed and
// reported as a Miss. Hits and negative hits move the entry to the front.
func (c *LRU[K, V]) Get(key K) Lookup[V] {
	now := c.policy.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return Lookup[V]{State: Miss}
	}

	e := el.Value.(*lruEntry[K, V])
	if c.policy.Expired(e.storedAt, now) {
		c.removeLocked(el)
		c.stats.Expirations++
		c.stats.Misses++
		return Lookup[V]{State: Miss}
	}

	c.order.MoveToFront(el)
	if e.negative {
		c.stats.NegativeHits++
		return Lookup[V]{State: NegativeHit}
	}
	c.stats.Hits++
	return Lookup[V]{State: Hit, Value: e.value}
}

// Set stores value for key.
func (c *LRU[K, V]) Set(key K, value V) {
	c.store(key, value, false)
}

// SetNegative records that key resolved to nothing.
func (c *LRU[K, V]) SetNegative(key K) {
	var zero V
	c.store(key, zero, true)
}

// Len returns the number of stored entries, including aged entries that have
// not been read since they expired.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Keys returns keys in most to least recently used order.
func (c *LRU[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]K, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*lruEntry[K, V]).key)
	}
	return out
}

// Stats returns a snapshot of the cache counters.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *LRU[K, V]) store(key K, value V, negative bool) {
	now := c.policy.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Overwrites count as use and restart the entry's age.
	if el, ok := c.items[key]; ok {
		e := el.Value.(*lruEntry[K, V])
		e.value = value
		e.negative = negative
		e.storedAt = now
		c.order.MoveToFront(el)
		return
	}

	el := c.order.PushFront(&lruEntry[K, V]{
		key:      key,
		value:    value,
		negative: negative,
		storedAt: now,
	})
	c.items[key] = el

	if !c.policy.Bounded() {
		return
	}
	for len(c.items) > c.policy.MaxEntries {
		back := c.order.Back()
		if back == nil {
			return
		}
		c.removeLocked(back)
		c.stats.Evictions++
	}
}

func (c *LRU[K, V]) removeLocked(el *list.Element) {
	e := el.Value.(*lruEntry[K, V])
	delete(c.items, e.key)
	c.order.Remove(el)
}

// Ensure LRU implements Cache
var _ Cache[string, int] = (*LRU[string, int])(nil)
