package serverpool

import (
	"sort"
	"time"
)

// Defaults for the failover-probe mechanism (spec.md §4.3).
const (
	DefaultRetryChance = 0.10
	DefaultRetryDelay  = 5 * time.Second
)

// RandSource supplies the uniform float the failover probe compares
// against RetryChance. Satisfied by *math/rand.Rand; injected so tests can
// supply a deterministic source.
type RandSource interface {
	Float64() float64
}

// Pool holds the configured servers for one channel, ordered by
// (consecutive_failures asc, index asc) unless Rotate is set, in which case
// BestServer round-robins instead.
type Pool struct {
	servers []*Server

	Rotate      bool
	RetryChance float64
	RetryDelay  time.Duration

	rand RandSource
	next int // round-robin cursor, used only when Rotate is set
}

// New builds a Pool over servers, which must be pre-populated with their
// pool index (serverpool.NewServer's index argument).
func New(servers []*Server, rand RandSource) *Pool {
	return &Pool{
		servers:     servers,
		RetryChance: DefaultRetryChance,
		RetryDelay:  DefaultRetryDelay,
		rand:        rand,
	}
}

// Len reports the number of configured servers.
func (p *Pool) Len() int { return len(p.servers) }

// Server returns the server at pool index i.
func (p *Pool) Server(i int) *Server { return p.servers[i] }

// BestServer returns the server the next attempt should use: in rotation
// mode, the next server round-robin; otherwise the lowest-failure,
// lowest-index server, subject to the failover-probe override below.
func (p *Pool) BestServer(now time.Time) *Server {
	if len(p.servers) == 0 {
		return nil
	}
	if p.Rotate {
		s := p.servers[p.next%len(p.servers)]
		p.next++
		return s
	}

	ordered := p.orderedByHealth()
	best := ordered[0]

	// Failover probe: with probability RetryChance, deliberately reselect
	// a previously-failed server whose retry delay has elapsed, to
	// discover recovery without waiting for every healthy server to also
	// fail.
	if p.rand != nil && p.rand.Float64() < p.RetryChance {
		for _, s := range ordered[1:] {
			if s.consecutiveFailures > 0 && now.Sub(s.lastFailureAt) >= p.RetryDelay {
				return s
			}
		}
	}
	return best
}

func (p *Pool) orderedByHealth() []*Server {
	ordered := make([]*Server, len(p.servers))
	copy(ordered, p.servers)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].consecutiveFailures != ordered[j].consecutiveFailures {
			return ordered[i].consecutiveFailures < ordered[j].consecutiveFailures
		}
		return ordered[i].index < ordered[j].index
	})
	return ordered
}

// OnSuccess resets server i's failure counter and records latency.
func (p *Pool) OnSuccess(i int, latency time.Duration, now time.Time) {
	p.servers[i].onSuccess(latency, now)
}

// OnFailure increments server i's failure counter.
func (p *Pool) OnFailure(i int, now time.Time) {
	p.servers[i].onFailure(now)
}

// AdaptiveTimeout returns server i's adaptive per-attempt timeout.
func (p *Pool) AdaptiveTimeout(i int, baseTimeout, userMax time.Duration) time.Duration {
	return p.servers[i].adaptiveTimeout(baseTimeout, userMax)
}

// NextIndex returns the next server index to try after i, wrapping around
// the pool — used by the Scheduler to rotate to a different server on
// retry after an attempt failure.
func (p *Pool) NextIndex(i int) int {
	if len(p.servers) == 0 {
		return 0
	}
	return (i + 1) % len(p.servers)
}
