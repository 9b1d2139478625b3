package serverpool_test

import (
	"net"
	"testing"
	"time"

	"github.com/aresgo/aresgo/internal/serverpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedRand struct{ v float64 }

func (f fixedRand) Float64() float64 { return f.v }

func newPool(rand serverpool.RandSource, n int) *serverpool.Pool {
	servers := make([]*serverpool.Server, n)
	for i := 0; i < n; i++ {
		servers[i] = serverpool.NewServer(net.ParseIP("127.0.0.1"), 53, 53, i)
	}
	return serverpool.New(servers, rand)
}

func TestBestServerOrdersByFailuresThenIndex(t *testing.T) {
	p := newPool(fixedRand{v: 1.0}, 3)
	now := time.Now()
	p.OnFailure(0, now)

	best := p.BestServer(now)
	assert.Equal(t, 1, best.Index())
}

func TestBestServerReturnsHeadWhenNoFailures(t *testing.T) {
	p := newPool(fixedRand{v: 0.0}, 3)
	best := p.BestServer(time.Now())
	assert.Equal(t, 0, best.Index())
}

func TestOnSuccessResetsFailures(t *testing.T) {
	p := newPool(fixedRand{v: 1.0}, 2)
	now := time.Now()
	p.OnFailure(0, now)
	require.Equal(t, 1, p.Server(0).Failures())
	p.OnSuccess(0, 10*time.Millisecond, now)
	assert.Equal(t, 0, p.Server(0).Failures())
}

func TestFailoverProbeReselectsAfterRetryDelay(t *testing.T) {
	p := newPool(fixedRand{v: 0.0}, 2) // v=0.0 always wins the probability check
	p.RetryDelay = 10 * time.Millisecond
	base := time.Now()
	p.OnFailure(0, base)

	// Server 1 (failure-free) is the head; immediately after the failure,
	// the retry delay has not elapsed, so the probe finds no eligible
	// failed server and falls back to the head.
	best := p.BestServer(base.Add(time.Millisecond))
	assert.Equal(t, 1, best.Index())

	// After RetryDelay has elapsed, the probe deliberately reselects the
	// previously-failed server 0 instead of the healthy head.
	best = p.BestServer(base.Add(20 * time.Millisecond))
	assert.Equal(t, 0, best.Index())
}

func TestRotationModeRoundRobins(t *testing.T) {
	p := newPool(nil, 3)
	p.Rotate = true
	now := time.Now()
	var seen []int
	for i := 0; i < 6; i++ {
		seen = append(seen, p.BestServer(now).Index())
	}
	assert.Equal(t, []int{0, 1, 2, 0, 1, 2}, seen)
}

func TestAdaptiveTimeoutUsesBaseBeforeFirstSample(t *testing.T) {
	p := newPool(nil, 1)
	got := p.AdaptiveTimeout(0, 2*time.Second, 0)
	assert.Equal(t, 2*time.Second, got)
}

func TestAdaptiveTimeoutClampedToFloor(t *testing.T) {
	p := newPool(nil, 1)
	now := time.Now()
	p.OnSuccess(0, 1*time.Millisecond, now)
	got := p.AdaptiveTimeout(0, 2*time.Second, 0)
	assert.Equal(t, 250*time.Millisecond, got)
}

func TestAdaptiveTimeoutClampedToCeiling(t *testing.T) {
	p := newPool(nil, 1)
	now := time.Now()
	p.OnSuccess(0, 10*time.Second, now)
	got := p.AdaptiveTimeout(0, 2*time.Second, 0)
	assert.Equal(t, 5*time.Second, got)
}

func TestNextIndexWraps(t *testing.T) {
	p := newPool(nil, 3)
	assert.Equal(t, 1, p.NextIndex(0))
	assert.Equal(t, 2, p.NextIndex(1))
	assert.Equal(t, 0, p.NextIndex(2))
}
