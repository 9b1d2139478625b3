// Package nameutil provides name-handling helpers that sit above the wire
// codec: label counting for the ndots heuristic, search-domain
// concatenation, hosts-file lookup, PTR name synthesis, and IDNA
// normalization for non-ASCII hostnames.
package nameutil

import "strings"

// LabelCount returns the number of labels in a presentation-form name,
// counting dots not preceded by a backslash escape. A root name ("" or ".")
// has zero labels.
func LabelCount(name string) int {
	name = strings.TrimSuffix(name, ".")
	if name == "" {
		return 0
	}
	count := 1
	for i := 0; i < len(name); i++ {
		if name[i] == '\\' {
			i++
			continue
		}
		if name[i] == '.' {
			count++
		}
	}
	return count
}

// Join concatenates name and domain with a single separating dot, handling
// the root domain ("." or "") correctly: Join("host", ".") == "host.",
// Join("host", "example.com") == "host.example.com".
func Join(name, domain string) string {
	domain = strings.TrimSuffix(domain, ".")
	if domain == "" {
		return strings.TrimSuffix(name, ".") + "."
	}
	return strings.TrimSuffix(name, ".") + "." + domain
}

// IsOnion reports whether name's terminal label is "onion", per RFC 7686
// (".onion" names must never be resolved via the public DNS).
func IsOnion(name string) bool {
	trimmed := strings.ToLower(strings.TrimSuffix(name, "."))
	return strings.HasSuffix(trimmed, ".onion") || trimmed == "onion"
}
