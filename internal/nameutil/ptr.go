package nameutil

import (
	"fmt"
	"net"
	"strings"
)

// hexDigits is used to render each IPv6 nibble as a reverse-DNS label.
const hexDigits = "0123456789abcdef"

// PTRName synthesizes the reverse-lookup name for ip: the dotted-quad
// reversed under in-addr.arpa for IPv4, or the nibble-reversed name under
// ip6.arpa for IPv6.
func PTRName(ip net.IP) (string, error) {
	if v4 := ip.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.%d.%d.in-addr.arpa", v4[3], v4[2], v4[1], v4[0]), nil
	}
	v6 := ip.To16()
	if v6 == nil {
		return "", fmt.Errorf("%w: not a valid IPv4 or IPv6 address", ErrInvalidAddr)
	}
	var b strings.Builder
	b.Grow(64)
	for i := len(v6) - 1; i >= 0; i-- {
		lo := v6[i] & 0x0F
		hi := v6[i] >> 4
		b.WriteByte(hexDigits[lo])
		b.WriteByte('.')
		b.WriteByte(hexDigits[hi])
		b.WriteByte('.')
	}
	b.WriteString("ip6.arpa")
	return b.String(), nil
}
