// Package serverpool holds the ordered set of configured recursive name
// servers a Channel may query, tracking per-server health and latency so
// the Scheduler can pick the best candidate for each attempt (spec.md
// §4.3).
package serverpool

import (
	"net"
	"time"
)

// Server is one configured recursive name server.
type Server struct {
	Addr    net.IP
	UDPPort int
	TCPPort int

	index int // insertion order, used as the final tie-break

	consecutiveFailures int
	lastFailureAt       time.Time

	latency latencyMetrics
}

// NewServer builds a Server at the given pool index.
func NewServer(addr net.IP, udpPort, tcpPort, index int) *Server {
	return &Server{Addr: addr, UDPPort: udpPort, TCPPort: tcpPort, index: index}
}

// Index returns this server's configured position in the pool.
func (s *Server) Index() int { return s.index }

// Failures returns the current consecutive-failure count.
func (s *Server) Failures() int { return s.consecutiveFailures }

// AverageLatency reports the current rolling-average latency sample,
// zero if no successful reply has been recorded yet. Exposed for
// Channel.Metrics (SPEC_FULL.md §6's per-server health surface).
func (s *Server) AverageLatency() time.Duration { return s.latency.average() }

// onSuccess resets the failure counter and folds a latency sample in.
func (s *Server) onSuccess(latency time.Duration, now time.Time) {
	s.consecutiveFailures = 0
	s.latency.record(latency, now)
}

// onFailure increments the failure counter and records the failure time
// for the retry-delay check in Pool.BestServer.
func (s *Server) onFailure(now time.Time) {
	s.consecutiveFailures++
	s.lastFailureAt = now
}

// adaptiveTimeout implements spec.md §4.3's formula:
// clamp(avg_latency_ms * 5, 250ms, max(user_max, 5000ms)). baseTimeout is
// used verbatim (no adaptive override) until at least one sample has been
// recorded.
func (s *Server) adaptiveTimeout(baseTimeout, userMax time.Duration) time.Duration {
	avg := s.latency.average()
	if avg == 0 {
		return baseTimeout
	}
	floor := 250 * time.Millisecond
	ceiling := 5 * time.Second
	if userMax > ceiling {
		ceiling = userMax
	}
	t := avg * 5
	if t < floor {
		return floor
	}
	if t > ceiling {
		return ceiling
	}
	return t
}
