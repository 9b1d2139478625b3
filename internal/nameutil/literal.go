package nameutil

import (
	"net"
	"strings"
)

// ParseLiteralIP parses name as a literal IPv4 or IPv6 address, the way
// spec.md §4.7 step 1 requires: a three-dot dotted-quad for v4, or
// inet_pton-style syntax for v6. It deliberately does not accept bare
// integers or partial forms that net.ParseIP's stricter cousins sometimes
// do, since those are not valid presentation-form DNS queries either.
func ParseLiteralIP(name string) (net.IP, bool) {
	trimmed := strings.TrimSuffix(name, ".")
	if strings.Count(trimmed, ".") == 3 {
		if ip := net.ParseIP(trimmed).To4(); ip != nil {
			return ip, true
		}
		return nil, false
	}
	if strings.Contains(trimmed, ":") {
		if ip := net.ParseIP(trimmed); ip != nil {
			return ip, true
		}
	}
	return nil, false
}
