package nameutil

import (
	"strings"

	"golang.org/x/net/idna"
)

// profile implements the punycode normalization c-ares carries in
// ares_punycode.c/ares_idnamap.h: non-ASCII labels are converted to their
// ACE ("xn--") form before wire validation, ASCII labels pass through
// untouched.
var profile = idna.New(
	idna.MapForLookup(),
	idna.BidiRule(),
)

// ToASCII converts name to its ASCII-compatible encoding, label by label, so
// a name containing non-ASCII characters (e.g. "münchen.de") becomes its
// punycode form ("xn--mnchen-3ya.de") before it reaches the wire codec.
// Names that are already pure ASCII are returned unchanged even if they
// don't strictly validate as an IDNA label (e.g. underscores in SRV owner
// names), matching the permissive behavior of the teacher's hostname
// handling.
func ToASCII(name string) string {
	if isASCII(name) {
		return name
	}
	out, err := profile.ToASCII(name)
	if err != nil {
		return name
	}
	return out
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// ToUnicode reverses ToASCII for display purposes, converting any punycode
// labels back to Unicode.
func ToUnicode(name string) string {
	if !strings.Contains(name, "xn--") {
		return name
	}
	out, err := idna.ToUnicode(name)
	if err != nil {
		return name
	}
	return out
}
