// Package aresconfig loads an aresgo.Config from an optional YAML file
// overlaid with ARESGO_*-prefixed environment variables, for host
// applications that prefer resolv.conf-style file configuration over
// constructing aresgo.Config literals by hand. The core library itself
// never touches the filesystem; NewChannel always takes a Config by
// value (spec.md §6, SPEC_FULL.md §2.3).
package aresconfig

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/aresgo/aresgo"
)

// initViper sets up the loader with defaults, env binding, and an
// optional config file, mirroring the teacher's internal/config
// initConfig/setDefaults split.
func initViper(configPath string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ARESGO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("aresconfig: read config file: %w", err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("servers", []string{"127.0.0.1:53"})
	v.SetDefault("search", []string{})
	v.SetDefault("ndots", 1)
	v.SetDefault("tries", 3)
	v.SetDefault("timeout_ms", 2000)
	v.SetDefault("max_timeout_ms", 0)
	v.SetDefault("flags", []string{})
	v.SetDefault("edns_udp_size", 1232)
	v.SetDefault("udp_port", 53)
	v.SetDefault("tcp_port", 53)
	v.SetDefault("rotate", false)
	v.SetDefault("udp_max_queries", 0)
	v.SetDefault("resolvconf_path", "")
	v.SetDefault("hosts_path", "")
	v.SetDefault("qcache_max_ttl_ms", 0)
	v.SetDefault("server_retry_chance", 0.1)
	v.SetDefault("server_retry_delay_ms", 5000)
}

// Load reads configPath (empty for defaults-plus-env-only) and returns a
// ready-to-use aresgo.Config. The returned Config has already had
// WithDefaults applied, so it can be passed straight to aresgo.NewChannel.
func Load(configPath string) (aresgo.Config, error) {
	v, err := initViper(configPath)
	if err != nil {
		return aresgo.Config{}, err
	}

	cfg := aresgo.Config{
		Search:            v.GetStringSlice("search"),
		Ndots:             v.GetInt("ndots"),
		Tries:             v.GetInt("tries"),
		Timeout:           time.Duration(v.GetInt("timeout_ms")) * time.Millisecond,
		EDNSUDPSize:       v.GetInt("edns_udp_size"),
		UDPPort:           v.GetInt("udp_port"),
		TCPPort:           v.GetInt("tcp_port"),
		Rotate:            v.GetBool("rotate"),
		UDPMaxQueries:     v.GetInt("udp_max_queries"),
		ResolvConfPath:    v.GetString("resolvconf_path"),
		HostsPath:         v.GetString("hosts_path"),
		ServerRetryChance: v.GetFloat64("server_retry_chance"),
		ServerRetryDelay:  time.Duration(v.GetInt("server_retry_delay_ms")) * time.Millisecond,
	}

	if ms := v.GetInt("max_timeout_ms"); ms > 0 {
		cfg.MaxTimeout = time.Duration(ms) * time.Millisecond
	}
	if ms := v.GetInt("qcache_max_ttl_ms"); ms > 0 {
		cfg.QCacheMaxTTL = time.Duration(ms) * time.Millisecond
	}

	servers, err := parseServers(v.GetStringSlice("servers"), cfg.UDPPort, cfg.TCPPort)
	if err != nil {
		return aresgo.Config{}, err
	}
	cfg.Servers = servers

	cfg.Flags = parseFlags(v.GetStringSlice("flags"))

	return cfg.WithDefaults(), nil
}

// parseServers accepts "host" or "host:port" entries, using defaultPort
// for either direction when omitted.
func parseServers(raw []string, defaultUDPPort, defaultTCPPort int) ([]aresgo.ServerAddr, error) {
	servers := make([]aresgo.ServerAddr, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		host, port := s, 0
		if h, p, ok := strings.Cut(s, ":"); ok {
			host, port = h, parsePortOrZero(p)
		}
		ip := net.ParseIP(host)
		if ip == nil {
			return nil, fmt.Errorf("aresconfig: invalid server address %q", s)
		}
		udpPort, tcpPort := defaultUDPPort, defaultTCPPort
		if port != 0 {
			udpPort, tcpPort = port, port
		}
		servers = append(servers, aresgo.ServerAddr{Addr: ip, UDPPort: udpPort, TCPPort: tcpPort})
	}
	return servers, nil
}

func parsePortOrZero(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}

var flagNames = map[string]aresgo.Flags{
	"usevc":     aresgo.FlagUsevc,
	"primary":   aresgo.FlagPrimary,
	"igntc":     aresgo.FlagIgntc,
	"norecurse": aresgo.FlagNorecurse,
	"stayopen":  aresgo.FlagStayopen,
	"noaliases": aresgo.FlagNoaliases,
	"noreload":  aresgo.FlagNoreload,
	"edns":      aresgo.FlagEdns,
}

func parseFlags(names []string) aresgo.Flags {
	var f aresgo.Flags
	for _, n := range names {
		if bit, ok := flagNames[strings.ToLower(strings.TrimSpace(n))]; ok {
			f |= bit
		}
	}
	return f
}
