package querycache_test

import (
	"testing"
	"time"

	"github.com/aresgo/aresgo/internal/querycache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetRoundTrip(t *testing.T) {
	cache := querycache.New[string, string](querycache.Config{MaxEntries: 10})
	now := time.Unix(1000, 0)

	cache.Set("key1", "value1", time.Hour, querycache.EntryPositive, now)
	val, found, entryType := cache.Get("key1", now)
	require.True(t, found)
	assert.Equal(t, "value1", val)
	assert.Equal(t, querycache.EntryPositive, entryType)

	_, found, _ = cache.Get("nonexistent", now)
	assert.False(t, found)
}

func TestExpirationRemovesEntry(t *testing.T) {
	cache := querycache.New[string, string](querycache.Config{MaxEntries: 10})
	now := time.Unix(1000, 0)

	cache.Set("key1", "value1", time.Millisecond, querycache.EntryPositive, now)
	_, found, _ := cache.Get("key1", now.Add(5*time.Millisecond))
	assert.False(t, found)
}

func TestZeroTTLIsNotStored(t *testing.T) {
	cache := querycache.New[string, string](querycache.Config{MaxEntries: 10})
	now := time.Unix(1000, 0)

	cache.Set("key1", "value1", 0, querycache.EntryPositive, now)
	_, found, _ := cache.Get("key1", now)
	assert.False(t, found)
}

func TestNegativeEntryRejectedWhenDisabled(t *testing.T) {
	cache := querycache.New[string, string](querycache.Config{MaxEntries: 10, NegativeOK: false})
	now := time.Unix(1000, 0)

	cache.Set("key1", "nxdomain", time.Minute, querycache.EntryNXDomain, now)
	_, found, _ := cache.Get("key1", now)
	assert.False(t, found)
}

func TestPositiveTTLCappedAtMaxTTL(t *testing.T) {
	cache := querycache.New[string, string](querycache.Config{MaxEntries: 10, MaxTTL: time.Minute})
	now := time.Unix(1000, 0)

	cache.Set("key1", "value1", time.Hour, querycache.EntryPositive, now)
	_, found, _ := cache.Get("key1", now.Add(2*time.Minute))
	assert.False(t, found, "TTL should have been capped to 1 minute")
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	cache := querycache.New[string, string](querycache.Config{MaxEntries: 2})
	now := time.Unix(1000, 0)

	cache.Set("a", "1", time.Hour, querycache.EntryPositive, now)
	cache.Set("b", "2", time.Hour, querycache.EntryPositive, now)
	_, _, _ = cache.Get("a", now) // touch a so b is the least recently used
	cache.Set("c", "3", time.Hour, querycache.EntryPositive, now)

	_, found, _ := cache.Get("b", now)
	assert.False(t, found, "b should have been evicted")
	_, found, _ = cache.Get("a", now)
	assert.True(t, found)
	_, found, _ = cache.Get("c", now)
	assert.True(t, found)
}

func TestStatsCountHitsAndMisses(t *testing.T) {
	cache := querycache.New[string, string](querycache.Config{MaxEntries: 10})
	now := time.Unix(1000, 0)

	cache.Set("a", "1", time.Hour, querycache.EntryPositive, now)
	_, _, _ = cache.Get("a", now)
	_, _, _ = cache.Get("missing", now)

	hits, misses, _ := cache.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
}
