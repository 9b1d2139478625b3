package aresgo

import (
	"net"
	"time"

	"github.com/aresgo/aresgo/internal/helpers"
)

// Flags is a bitset of per-channel behavior switches (spec.md §6).
type Flags uint16

const (
	// FlagUsevc forces every query over TCP, skipping the UDP attempt.
	FlagUsevc Flags = 1 << iota
	// FlagPrimary restricts the server pool to the first configured server.
	FlagPrimary
	// FlagIgntc ignores the TC bit on UDP replies instead of retrying over TCP.
	FlagIgntc
	// FlagNorecurse is kept in the bitset, but the channel does not read it:
	// outbound queries always carry the RD bit.
	FlagNorecurse
	// FlagStayopen keeps TCP connections open between queries (the default
	// connset behavior; this flag exists for parity with spec.md's list).
	FlagStayopen
	// FlagNoaliases turns off hosts-file lookups: NewChannel does not load
	// the hosts file when it is set.
	FlagNoaliases
	// FlagNoreload is kept in the bitset, but the channel does not read it:
	// the hosts file is loaded once, in NewChannel, and never reloaded.
	FlagNoreload
	// FlagEdns enables EDNS0 on outbound queries (OPT pseudo-record, larger
	// UDP payload advertisement).
	FlagEdns
)

// Has reports whether every bit in want is set in f.
func (f Flags) Has(want Flags) bool { return f&want == want }

// ServerAddr is one configured recursive name server (spec.md §6
// "servers: ordered list of (family, addr, udp_port, tcp_port)"). Family
// is inferred from Addr rather than stored redundantly.
type ServerAddr struct {
	Addr    net.IP
	UDPPort int
	TCPPort int
}

// Config is the full set of tunables a Channel is constructed with
// (spec.md §6). It is consumed by value at NewChannel, never retained by
// reference, so a caller may safely reuse or mutate a Config after
// building a channel from it.
type Config struct {
	// Servers is the ordered set of recursive name servers to query.
	// Defaults to a single 127.0.0.1:53 entry.
	Servers []ServerAddr

	// Search is the list of domains appended to unqualified names during
	// search-list expansion (spec.md §4.7 step 3).
	Search []string

	// Ndots is the label-count threshold below which the search list is
	// tried before the bare name. Default 1.
	Ndots int

	// Tries is the number of attempts per query across all servers.
	// Default 3.
	Tries int

	// Timeout is the initial per-attempt timeout. Default 2000ms.
	Timeout time.Duration

	// MaxTimeout optionally bounds the adaptive per-server timeout
	// (spec.md §4.3). Zero means no override beyond the formula's own
	// 5-second floor.
	MaxTimeout time.Duration

	// Flags is the behavior bitset described above.
	Flags Flags

	// EDNSUDPSize is the UDP payload size advertised in the EDNS0 OPT
	// record when FlagEdns is set. Default 1232 (DNS Flag Day 2020).
	EDNSUDPSize int

	// UDPPort, TCPPort are the default ports used for any ServerAddr that
	// leaves its own port fields at zero.
	UDPPort int
	TCPPort int

	// Rotate selects round-robin server ordering instead of
	// failures-then-index ordering (spec.md §4.3).
	Rotate bool

	// UDPMaxQueries caps how many queries a single UDP socket serves
	// before being discarded and reopened. Zero means unlimited.
	UDPMaxQueries int

	// HostsPath overrides the hosts file NewChannel loads (default
	// /etc/hosts). ResolvConfPath is carried in the Config (internal/aresconfig
	// fills it in), but nothing in this module reads a resolv.conf file.
	ResolvConfPath string
	HostsPath      string

	// QCacheMaxTTL, if non-zero, enables the optional short-lived query
	// cache and caps any cached entry's TTL at this value.
	QCacheMaxTTL time.Duration

	// ServerRetryChance and ServerRetryDelay control the failover-probe
	// re-selection of a failed server (spec.md §4.3).
	ServerRetryChance float64
	ServerRetryDelay  time.Duration
}

// WithDefaults returns a copy of cfg with every unset field filled in per
// spec.md §6's documented defaults, mirroring the teacher's
// internal/config setDefaults pass.
func (cfg Config) WithDefaults() Config {
	if len(cfg.Servers) == 0 {
		cfg.Servers = []ServerAddr{{Addr: net.ParseIP("127.0.0.1"), UDPPort: 53, TCPPort: 53}}
	}
	if cfg.Ndots <= 0 {
		cfg.Ndots = 1
	}
	if cfg.Tries <= 0 {
		cfg.Tries = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2000 * time.Millisecond
	}
	if cfg.EDNSUDPSize <= 0 {
		cfg.EDNSUDPSize = 1232
	}
	cfg.EDNSUDPSize = int(helpers.ClampIntToUint16(cfg.EDNSUDPSize))
	if cfg.UDPPort <= 0 {
		cfg.UDPPort = 53
	}
	if cfg.TCPPort <= 0 {
		cfg.TCPPort = 53
	}
	cfg.UDPPort = int(helpers.ClampIntToUint16(cfg.UDPPort))
	cfg.TCPPort = int(helpers.ClampIntToUint16(cfg.TCPPort))
	if cfg.ServerRetryChance <= 0 {
		cfg.ServerRetryChance = 0.1
	}
	if cfg.ServerRetryDelay <= 0 {
		cfg.ServerRetryDelay = 5000 * time.Millisecond
	}
	for i := range cfg.Servers {
		if cfg.Servers[i].UDPPort <= 0 {
			cfg.Servers[i].UDPPort = cfg.UDPPort
		}
		if cfg.Servers[i].TCPPort <= 0 {
			cfg.Servers[i].TCPPort = cfg.TCPPort
		}
	}
	return cfg
}
