package aresgo

import (
	"net"
	"time"

	"github.com/aresgo/aresgo/internal/dnswire"
	"github.com/aresgo/aresgo/internal/querytable"
)

// HostResult is delivered by GetHostByName: every address record found for
// the resolved name, plus the CNAME-chain TTL ceiling (spec.md §4.7 step
// 6).
type HostResult struct {
	Name  string
	Addrs []net.IP
	TTL   time.Duration
}

// AddrInfoResult is delivered by GetAddrInfo: HostResult plus the resolved
// port, mirroring getaddrinfo(3)'s combined name+service resolution.
type AddrInfoResult struct {
	HostResult
	Port int
}

// RawResult is delivered by Search and SendRaw: the decoded wire message
// as-is, for callers that want full control over record interpretation.
type RawResult struct {
	Message *dnswire.Message
}

// rawCompletion wraps a callback for any query sent directly through the
// Scheduler (GetHostByAddr, Search, SendRaw) rather than through the
// Search Pipeline, stashed in Query.SearchState the same way
// search.state is (spec.md §9's coroutine-like control flow). The
// Channel's single onComplete dispatches on its presence: anything that
// is not a *rawCompletion is assumed to belong to the pipeline.
type rawCompletion struct {
	cb func(status Status, msg *dnswire.Message)
}

func (c *Channel) onComplete(q *querytable.Query, status Status, msg *dnswire.Message) {
	if raw, ok := q.SearchState.(*rawCompletion); ok {
		raw.cb(status, msg)
		return
	}
	c.pipeline.Resume(q, status, msg)
}
