// Command bench load-tests an aresgo Channel: concurrent goroutines issue
// GetHostByName against it and the run reports throughput and latency
// percentiles, exercising WithOwnedEventLoop under concurrent callers.
package main

import (
	"flag"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/aresgo/aresgo"
)

func main() {
	var (
		server      = flag.String("server", "127.0.0.1:53", "recursive server HOST:PORT")
		name        = flag.String("name", "example.com", "query name")
		concurrency = flag.Int("concurrency", 200, "number of concurrent workers")
		requests    = flag.Int("requests", 20000, "total number of requests")
		timeout     = flag.Duration("timeout", 2*time.Second, "per-request timeout")
	)
	flag.Parse()

	host, portStr, err := net.SplitHostPort(*server)
	if err != nil {
		host, portStr = *server, "53"
	}
	ip := net.ParseIP(host)
	if ip == nil {
		panic(fmt.Sprintf("invalid server address %q", *server))
	}
	port := 53
	fmt.Sscanf(portStr, "%d", &port)

	ch, err := aresgo.NewChannel(aresgo.Config{
		Servers: []aresgo.ServerAddr{{Addr: ip, UDPPort: port, TCPPort: port}},
		Timeout: *timeout,
	}, aresgo.WithOwnedEventLoop())
	if err != nil {
		panic(err)
	}
	defer ch.Close()

	conc := *concurrency
	if conc < 1 {
		conc = 1
	}
	total := *requests
	if total < 1 {
		total = 1
	}
	per := total / conc
	rem := total % conc

	lat := make([]float64, 0, total)
	var latMu sync.Mutex

	t0 := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < conc; i++ {
		n := per
		if i < rem {
			n++
		}
		if n <= 0 {
			continue
		}
		wg.Add(1)
		go func(num int) {
			defer wg.Done()
			for j := 0; j < num; j++ {
				start := time.Now()
				done := make(chan struct{})
				ch.GetHostByName(*name, aresgo.FamilyV4, func(_ aresgo.HostResult, err error) {
					close(done)
				})
				select {
				case <-done:
				case <-time.After(*timeout):
					continue
				}
				ms := float64(time.Since(start).Microseconds()) / 1000.0
				latMu.Lock()
				lat = append(lat, ms)
				latMu.Unlock()
			}
		}(n)
	}
	wg.Wait()
	elapsed := time.Since(t0).Seconds()

	if len(lat) == 0 {
		fmt.Printf("no successful requests\n")
		return
	}
	sort.Float64s(lat)
	p50 := percentile(lat, 50)
	p95 := percentile(lat, 95)
	p99 := percentile(lat, 99)
	qps := float64(len(lat)) / elapsed

	fmt.Printf("server=%s name=%q concurrency=%d requests=%d\n", *server, *name, conc, len(lat))
	fmt.Printf("elapsed_s=%.3f qps=%.1f\n", elapsed, qps)
	fmt.Printf("latency_ms p50=%.3f p95=%.3f p99=%.3f min=%.3f max=%.3f\n", p50, p95, p99, lat[0], lat[len(lat)-1])
}

func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	idx := int(float64(len(sorted))*float64(p)/100.0) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
