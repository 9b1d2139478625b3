package querycache

import (
	"time"

	"github.com/aresgo/aresgo/internal/dnswire"
)

// DefaultNegativeTTL is the TTL Store gives every NXDOMAIN and NODATA
// entry; the reply's SOA record is not consulted (RFC 2308 recommends 5
// minutes for NXDOMAIN/NODATA).
const DefaultNegativeTTL = 5 * time.Minute

// DefaultServFailTTL keeps a failing upstream from being re-queried more
// than a couple times a minute.
const DefaultServFailTTL = 30 * time.Second

// Cache is the Scheduler-facing query cache: a TTLCache keyed by
// (name, type, class) storing whole decoded replies.
type Cache struct {
	ttl *TTLCache[Key, *dnswire.Message]
}

// NewCache builds a Cache. maxTTL is the qcache_max_ttl configuration
// value (spec.md §6); 0 falls back to a 24h cap.
func NewCache(maxEntries int, maxTTL time.Duration) *Cache {
	return &Cache{ttl: New[Key, *dnswire.Message](Config{
		MaxEntries: maxEntries,
		MaxTTL:     maxTTL,
		NegativeOK: true,
	})}
}

// Lookup returns a cached reply for (name, qtype, qclass), if present and
// unexpired.
func (c *Cache) Lookup(name string, qtype dnswire.RecordType, qclass dnswire.RecordClass, now time.Time) (*dnswire.Message, bool) {
	msg, ok, _ := c.ttl.Get(NewKey(name, qtype, qclass), now)
	return msg, ok
}

// Store caches msg for (name, qtype, qclass) under a TTL derived from the
// reply itself: the minimum answer TTL for a positive reply, or a fixed
// negative TTL for NXDOMAIN/NODATA/SERVFAIL.
func (c *Cache) Store(name string, qtype dnswire.RecordType, qclass dnswire.RecordClass, msg *dnswire.Message, now time.Time) {
	key := NewKey(name, qtype, qclass)
	switch msg.RCode() {
	case dnswire.RCodeNXDomain:
		c.ttl.Set(key, msg, DefaultNegativeTTL, EntryNXDomain, now)
	case dnswire.RCodeServFail:
		c.ttl.Set(key, msg, DefaultServFailTTL, EntryServFail, now)
	case dnswire.RCodeNoError:
		if len(msg.Answers) == 0 {
			c.ttl.Set(key, msg, DefaultNegativeTTL, EntryNoData, now)
			return
		}
		c.ttl.Set(key, msg, minAnswerTTL(msg), EntryPositive, now)
	}
}

// minAnswerTTL returns the smallest TTL among msg's answer records: the
// standard DNS rule that a cached set expires when its shortest-lived
// member does.
func minAnswerTTL(msg *dnswire.Message) time.Duration {
	var min uint32
	for i, rr := range msg.Answers {
		ttl := rr.Header().TTL
		if i == 0 || ttl < min {
			min = ttl
		}
	}
	return time.Duration(min) * time.Second
}

// Stats exposes the underlying cache's hit/miss counters.
func (c *Cache) Stats() (hits, misses, negativeHits int) { return c.ttl.Stats() }

// Len reports the number of cached entries.
func (c *Cache) Len() int { return c.ttl.Len() }
