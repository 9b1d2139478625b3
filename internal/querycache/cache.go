// Package querycache implements the optional short-lived query cache
// SPEC_FULL.md's Supplemented Features add: a small TTL-and-LRU bounded
// cache in front of the Scheduler, keyed by (name, type, class), so
// repeated lookups for a hot name within its answer's TTL window don't
// re-issue wire queries.
package querycache

import (
	"container/list"
	"fmt"
	"time"
)

// EntryType categorizes a cached reply so positive and negative answers
// can carry different TTL caps (RFC 2308).
type EntryType int

const (
	EntryPositive EntryType = iota // successful response with answers
	EntryNXDomain                  // NXDOMAIN
	EntryNoData                    // name exists, no data for this type
	EntryServFail                  // upstream SERVFAIL
)

func (t EntryType) String() string {
	switch t {
	case EntryPositive:
		return "positive"
	case EntryNXDomain:
		return "nxdomain"
	case EntryNoData:
		return "nodata"
	case EntryServFail:
		return "servfail"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

type entry[V any] struct {
	value     V
	cachedAt  time.Time
	expiresAt time.Time
	entryType EntryType
	elem      *list.Element
}

// TTLCache is a thread-naive (single-goroutine; the host-driven model
// never calls it concurrently), TTL-and-LRU bounded cache generic over key
// and value, the same design as a forwarding resolver's response cache,
// adapted here to the Scheduler's narrower per-question keying.
type TTLCache[K comparable, V any] struct {
	maxTTL         time.Duration
	maxNegativeTTL time.Duration
	maxEntries     int
	negativeOK     bool

	lru  *list.List
	data map[K]*entry[V]

	hits, misses, negativeHits int
}

// Config controls cap behavior; zero values fall back to sane defaults.
type Config struct {
	MaxEntries     int
	MaxTTL         time.Duration
	MaxNegativeTTL time.Duration
	NegativeOK     bool
}

// New builds an empty TTLCache per cfg.
func New[K comparable, V any](cfg Config) *TTLCache[K, V] {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 1024
	}
	if cfg.MaxTTL <= 0 {
		cfg.MaxTTL = 24 * time.Hour
	}
	if cfg.MaxNegativeTTL <= 0 {
		cfg.MaxNegativeTTL = time.Hour
	}
	return &TTLCache[K, V]{
		maxTTL:         cfg.MaxTTL,
		maxNegativeTTL: cfg.MaxNegativeTTL,
		maxEntries:     cfg.MaxEntries,
		negativeOK:     cfg.NegativeOK,
		lru:            list.New(),
		data:           make(map[K]*entry[V]),
	}
}

// Get returns the cached value for key along with its type, or
// (zero, false, _) on miss or expiry.
func (c *TTLCache[K, V]) Get(key K, now time.Time) (V, bool, EntryType) {
	var zero V
	e := c.data[key]
	if e == nil {
		c.misses++
		return zero, false, EntryPositive
	}
	if !e.expiresAt.After(now) {
		c.lru.Remove(e.elem)
		delete(c.data, key)
		c.misses++
		return zero, false, EntryPositive
	}
	c.lru.MoveToBack(e.elem)
	c.hits++
	if e.entryType != EntryPositive {
		c.negativeHits++
	}
	return e.value, true, e.entryType
}

// Set stores val under key with the given ttl and entry type, applying the
// configured caps. A ttl <= 0, or a negative entryType while negative
// caching is disabled, is a no-op.
func (c *TTLCache[K, V]) Set(key K, val V, ttl time.Duration, entryType EntryType, now time.Time) {
	ttl = c.capTTL(ttl, entryType)
	if ttl <= 0 {
		return
	}
	expires := now.Add(ttl)

	if existing := c.data[key]; existing != nil {
		existing.value = val
		existing.cachedAt = now
		existing.expiresAt = expires
		existing.entryType = entryType
		c.lru.MoveToBack(existing.elem)
		return
	}
	e := &entry[V]{value: val, cachedAt: now, expiresAt: expires, entryType: entryType}
	e.elem = c.lru.PushBack(key)
	c.data[key] = e
	c.evictOldest()
}

func (c *TTLCache[K, V]) capTTL(ttl time.Duration, entryType EntryType) time.Duration {
	if ttl <= 0 {
		return 0
	}
	if entryType != EntryPositive {
		if !c.negativeOK {
			return 0
		}
		if ttl > c.maxNegativeTTL {
			return c.maxNegativeTTL
		}
		return ttl
	}
	if ttl > c.maxTTL {
		return c.maxTTL
	}
	return ttl
}

func (c *TTLCache[K, V]) evictOldest() {
	for len(c.data) > c.maxEntries {
		front := c.lru.Front()
		if front == nil {
			break
		}
		k := front.Value.(K)
		c.lru.Remove(front)
		delete(c.data, k)
	}
}

// Len reports the number of live (not necessarily unexpired) entries.
func (c *TTLCache[K, V]) Len() int { return len(c.data) }

// Stats returns cumulative hit/miss counters, mainly for host-side metrics.
func (c *TTLCache[K, V]) Stats() (hits, misses, negativeHits int) {
	return c.hits, c.misses, c.negativeHits
}
