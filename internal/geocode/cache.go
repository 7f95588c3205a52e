package geocode

import (
	"context"
	"fmt"
	"sync"

	"github.com/stormbuster/hailrisk/internal/domain"
	"github.com/stormbuster/hailrisk/internal/observability"
)

// Cached wraps a ReverseGeocoder with an in-memory LRU cache keyed by the
// coordinates rounded to 4 decimal places (~11 m). Entries are evicted only
// by capacity; there is no time-based staleness.
type Cached struct {
	inner   ReverseGeocoder
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCached creates a cache decorator around a resolver.
func NewCached(inner ReverseGeocoder, maxEntries int, metrics *observability.Metrics) *Cached {
	return &Cached{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *Cached) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.Address, error) {
	key := fmt.Sprintf("%.4f,%.4f", lat, lon)
	if addr, ok := c.cache.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return addr, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	addr, err := c.inner.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return addr, err
	}
	c.cache.put(key, addr)
	return addr, nil
}

// EnhancedReverseGeocode delegates to the wrapped resolver when it supports
// supplementary lookups. The address cache is not consulted: enriched
// responses carry per-request payloads that must stay fresh.
func (c *Cached) EnhancedReverseGeocode(ctx context.Context, lat, lon float64) (domain.EnrichedLookupResult, error) {
	if e, ok := c.inner.(interface {
		EnhancedReverseGeocode(ctx context.Context, lat, lon float64) (domain.EnrichedLookupResult, error)
	}); ok {
		return e.EnhancedReverseGeocode(ctx, lat, lon)
	}

	addr, err := c.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return domain.EnrichedLookupResult{}, err
	}
	return domain.EnrichedLookupResult{Address: addr}, nil
}

// lruCache is a simple thread-safe LRU cache for addresses.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.Address
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.Address, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.Address{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
