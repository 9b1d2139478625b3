package querycache

import "github.com/aresgo/aresgo/internal/dnswire"

// Key identifies a cached question by normalized name, type, and class.
type Key struct {
	Name  string
	Type  uint16
	Class uint16
}

// NewKey builds a Key, normalizing name the same way the wire codec does
// so "Example.COM." and "example.com" collide in the cache.
func NewKey(name string, qtype dnswire.RecordType, qclass dnswire.RecordClass) Key {
	return Key{Name: dnswire.NormalizeName(name), Type: uint16(qtype), Class: uint16(qclass)}
}
