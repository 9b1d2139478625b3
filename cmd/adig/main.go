// Command adig is a minimal dig(1)-style client for aresgo, exercising
// GetHostByName, GetHostByAddr, and the generic Search entry point from
// the command line in host-driven mode (spec.md §5a).
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/aresgo/aresgo"
	"github.com/aresgo/aresgo/internal/dnswire"
	"github.com/aresgo/aresgo/internal/logging"
)

func main() {
	var (
		server  = flag.String("server", "8.8.8.8:53", "recursive server HOST:PORT")
		qtype   = flag.String("type", "A", "query type: A, AAAA, PTR, MX, TXT, NS, CNAME, SOA, SRV, NAPTR, CAA")
		timeout = flag.Duration("timeout", 3*time.Second, "per-query timeout")
		debug   = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: adig [flags] <name-or-addr>")
		os.Exit(2)
	}
	target := flag.Arg(0)

	level := "INFO"
	if *debug {
		level = "DEBUG"
	}
	logger := logging.Configure(logging.Config{Level: level})

	addr, port, err := splitHostPort(*server)
	if err != nil {
		fmt.Fprintf(os.Stderr, "adig: %v\n", err)
		os.Exit(1)
	}

	cfg := aresgo.Config{
		Servers: []aresgo.ServerAddr{{Addr: addr, UDPPort: port, TCPPort: port}},
		Timeout: *timeout,
	}
	ch, err := aresgo.NewChannel(cfg, aresgo.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "adig: new channel: %v\n", err)
		os.Exit(1)
	}
	defer ch.Close()

	done := make(chan struct{})

	if ip := net.ParseIP(target); ip != nil && strings.EqualFold(*qtype, "PTR") {
		ch.GetHostByAddr(ip, func(name string, err error) {
			defer close(done)
			if err != nil {
				fmt.Fprintf(os.Stderr, "adig: %v\n", err)
				return
			}
			fmt.Println(name)
		})
	} else {
		rtype, ok := parseType(*qtype)
		if !ok {
			fmt.Fprintf(os.Stderr, "adig: unknown query type %q\n", *qtype)
			os.Exit(2)
		}
		ch.Search(target, rtype, dnswire.ClassIN, func(r aresgo.RawResult, err error) {
			defer close(done)
			if err != nil {
				fmt.Fprintf(os.Stderr, "adig: %v\n", err)
				return
			}
			printAnswers(r.Message)
		})
	}

	drivePump(ch, done, *timeout+time.Second)
}

// drivePump implements spec.md §5a's host-driven event loop on a single
// UDP/TCP socket set: block in Timeout/Process until the callback fires or
// the overall deadline passes.
func drivePump(ch *aresgo.Channel, done <-chan struct{}, hardDeadline time.Duration) {
	deadline := time.Now().Add(hardDeadline)
	for {
		select {
		case <-done:
			return
		default:
		}
		if time.Now().After(deadline) {
			fmt.Fprintln(os.Stderr, "adig: timed out")
			return
		}
		t, ok := ch.Timeout(time.Now(), 50*time.Millisecond)
		if !ok {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		time.Sleep(time.Until(t))
		_ = ch.Process(-1, -1)
	}
}

func printAnswers(msg *dnswire.Message) {
	if msg == nil {
		fmt.Println(";; no answer")
		return
	}
	fmt.Printf(";; ->>HEADER<<- rcode=%d, answers=%d\n", msg.RCode(), len(msg.Answers))
	for _, rr := range msg.Answers {
		fmt.Printf("%s\t%d\tIN\t%v\n", rr.Header().Name, rr.Header().TTL, rr)
	}
}

func splitHostPort(s string) (net.IP, int, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		host, portStr = s, "53"
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return nil, 0, fmt.Errorf("invalid server address %q", s)
	}
	port := 53
	if portStr != "" {
		if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil {
			return nil, 0, fmt.Errorf("invalid port in %q", s)
		}
	}
	return ip, port, nil
}

func parseType(s string) (dnswire.RecordType, bool) {
	switch strings.ToUpper(s) {
	case "A":
		return dnswire.TypeA, true
	case "AAAA":
		return dnswire.TypeAAAA, true
	case "NS":
		return dnswire.TypeNS, true
	case "CNAME":
		return dnswire.TypeCNAME, true
	case "SOA":
		return dnswire.TypeSOA, true
	case "PTR":
		return dnswire.TypePTR, true
	case "MX":
		return dnswire.TypeMX, true
	case "TXT":
		return dnswire.TypeTXT, true
	case "SRV":
		return dnswire.TypeSRV, true
	case "NAPTR":
		return dnswire.TypeNAPTR, true
	case "CAA":
		return dnswire.TypeCAA, true
	default:
		return 0, false
	}
}
