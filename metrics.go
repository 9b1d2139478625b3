package aresgo

import (
	"net"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
)

// ServerMetrics reports the current health of one configured server,
// the per-server half of SPEC_FULL.md §6's metrics surface (spec.md's
// `ares_get_servers` plus the original c-ares server-state fields the
// distilled spec dropped).
type ServerMetrics struct {
	Addr            net.IP
	ConsecutiveFail int
	AverageLatency  time.Duration
}

// ChannelMetrics bundles every configured server's health with a host
// CPU-load sample, grounded on the teacher's /stats endpoint.
type ChannelMetrics struct {
	Servers     []ServerMetrics
	CPUPercent  float64
	SampleError error
}

// Metrics returns a point-in-time snapshot of server health and host CPU
// load. The CPU sample blocks for the given window (pass 0 to skip it and
// leave CPUPercent unset); call it off the event-loop goroutine in owned
// mode so the sample window doesn't stall query processing.
func (c *Channel) Metrics(cpuSampleWindow time.Duration) ChannelMetrics {
	var m ChannelMetrics
	m.Servers = make([]ServerMetrics, c.pool.Len())
	for i := 0; i < c.pool.Len(); i++ {
		s := c.pool.Server(i)
		m.Servers[i] = ServerMetrics{
			Addr:            s.Addr,
			ConsecutiveFail: s.Failures(),
			AverageLatency:  s.AverageLatency(),
		}
	}

	if cpuSampleWindow <= 0 {
		return m
	}
	percents, err := cpu.Percent(cpuSampleWindow, false)
	if err != nil {
		m.SampleError = err
		return m
	}
	if len(percents) > 0 {
		m.CPUPercent = percents[0]
	}
	return m
}
