package search

import (
	"net"
	"time"

	"github.com/aresgo/aresgo/internal/dnswire"
	"github.com/aresgo/aresgo/internal/scheduler"
)

// Result is delivered to a lookup's callback exactly once, terminally
// (spec.md §4.7 / §4.8).
type Result struct {
	Status scheduler.Status
	Addrs  []net.IP
	// TTLCeiling is the minimum TTL across the CNAME chain (if any) and the
	// final address records, the cap spec.md §4.7 step 6 requires.
	TTLCeiling time.Duration
	Raw        *dnswire.Message
}

// ResultFunc is a lookup's completion callback.
type ResultFunc func(Result)
