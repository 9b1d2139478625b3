package nameutil

import (
	"bufio"
	"io"
	"net"
	"os"
	"strings"
	"sync"
)

// hostEntry is one parsed line of a hosts file: one address and the
// hostnames (canonical first, then aliases) that map to it.
type hostEntry struct {
	addr  net.IP
	names []string
}

// HostsFile is a parsed, lookup-indexed hosts file (spec.md §4.2/§6):
// "<ip> <canonical> [alias...]" per line, "#" begins a comment. Entries
// sharing the same address merge their hostname lists. Looking up a
// hostname returns the single address of the first entry that lists it —
// first match wins — so a name on both a v4 and a v6 line resolves only to
// the address of whichever line came first.
type HostsFile struct {
	mu      sync.RWMutex
	entries []*hostEntry
	byAddr  map[string]*hostEntry
	byName  map[string]*hostEntry
}

// NewHostsFile returns an empty HostsFile, useful as a no-op fallback when
// no hosts path is configured.
func NewHostsFile() *HostsFile {
	return &HostsFile{
		byAddr: make(map[string]*hostEntry),
		byName: make(map[string]*hostEntry),
	}
}

// LoadHostsFile parses the hosts file at path.
func LoadHostsFile(path string) (*HostsFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseHostsFile(f)
}

// ParseHostsFile parses hosts-file content from r.
func ParseHostsFile(r io.Reader) (*HostsFile, error) {
	hf := NewHostsFile()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		ip := net.ParseIP(fields[0])
		if ip == nil {
			continue
		}
		hf.addLine(ip, fields[1:])
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return hf, nil
}

func (hf *HostsFile) addLine(addr net.IP, names []string) {
	key := addr.String()
	entry := hf.byAddr[key]
	if entry == nil {
		entry = &hostEntry{addr: addr}
		hf.byAddr[key] = entry
		hf.entries = append(hf.entries, entry)
	}
	for _, n := range names {
		lower := strings.ToLower(n)
		entry.names = append(entry.names, n)
		if _, exists := hf.byName[lower]; !exists {
			hf.byName[lower] = entry
		}
	}
}

// Lookup returns the address of the first entry that lists name
// (case-insensitively) among its hostnames, or (nil, false) if name
// appears nowhere. A name listed under several addresses yields only the
// first one registered; the others are not returned.
func (hf *HostsFile) Lookup(name string) (net.IP, bool) {
	hf.mu.RLock()
	defer hf.mu.RUnlock()
	entry, ok := hf.byName[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return entry.addr, true
}

// ReverseLookup returns the canonical hostname (the first name listed) for
// addr, or ("", false) if no entry matches.
func (hf *HostsFile) ReverseLookup(addr net.IP) (string, bool) {
	hf.mu.RLock()
	defer hf.mu.RUnlock()
	entry, ok := hf.byAddr[addr.String()]
	if !ok || len(entry.names) == 0 {
		return "", false
	}
	return entry.names[0], true
}
