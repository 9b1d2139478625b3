package serverpool

import (
	"math"
	"time"
)

// latencyWindows are the five rolling windows spec.md §4.3 requires:
// 1 minute, 15 minutes, 1 hour, 1 day, and "since inception" (no decay).
var latencyWindows = [4]time.Duration{time.Minute, 15 * time.Minute, time.Hour, 24 * time.Hour}

// latencyMetrics tracks a server's observed round-trip latency across the
// five windows as exponentially-weighted moving averages: each window's
// weight decays with time constant equal to the window itself, so a
// sample's influence on the 1m bucket has mostly faded after a minute while
// the inception bucket (no decay) remembers the lifetime average.
type latencyMetrics struct {
	ewma      [4]float64 // milliseconds, one per latencyWindows entry
	inception float64    // milliseconds, cumulative mean
	samples   int
	lastSeen  time.Time
}

// record folds one new latency sample into all five buckets.
func (m *latencyMetrics) record(sample time.Duration, now time.Time) {
	ms := float64(sample.Milliseconds())

	if m.samples == 0 {
		for i := range m.ewma {
			m.ewma[i] = ms
		}
		m.inception = ms
		m.samples = 1
		m.lastSeen = now
		return
	}

	dt := now.Sub(m.lastSeen)
	if dt < 0 {
		dt = 0
	}
	for i, window := range latencyWindows {
		alpha := 1 - expNeg(float64(dt)/float64(window))
		m.ewma[i] = m.ewma[i] + alpha*(ms-m.ewma[i])
	}
	m.samples++
	m.inception += (ms - m.inception) / float64(m.samples)
	m.lastSeen = now
}

// average returns the shortest window that has absorbed at least one
// sample; with no samples at all it returns zero, signaling the caller
// should use the configured base timeout instead of an adaptive one.
func (m *latencyMetrics) average() time.Duration {
	if m.samples == 0 {
		return 0
	}
	return time.Duration(m.ewma[0]) * time.Millisecond
}

func expNeg(x float64) float64 {
	return math.Exp(-x)
}
