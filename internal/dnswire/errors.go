// Package dnswire implements RFC 1035 DNS message encoding and decoding,
// including label compression, EDNS0, and the common resource record types.
//
// Standards Compliance:
//
//   - RFC 1035: Domain Names - Implementation and Specification
//   - RFC 1183, RFC 2782, RFC 2915: SRV, NAPTR
//   - RFC 3596: AAAA records
//   - RFC 6844: CAA records
//   - RFC 6698: TLSA records
//   - RFC 6891: EDNS0 / OPT pseudo-records
package dnswire

import "errors"

// ErrWire is the sentinel wrapped by every wire-format error this package
// returns. Callers distinguish specific failures with errors.Is against the
// more specific sentinels below; ErrWire itself is useful for a catch-all
// "this was a codec problem" check.
var ErrWire = errors.New("dns wire error")

// ErrBadName is returned for any name that fails validation: oversize
// labels, an oversize encoded name, a malformed escape sequence, or (during
// decoding) a compression pointer that is forward, cyclic, or exceeds the
// maximum indirection depth.
var ErrBadName = errors.New("dns bad name")

// ErrBadResponse is returned for structurally malformed messages: truncated
// buffers, section counts that don't match the bytes present, or RDATA
// whose length doesn't match its advertised RDLENGTH.
var ErrBadResponse = errors.New("dns bad response")

// ErrNoData is returned by callers of this package (not by the package
// itself) when a question parsed correctly but the answer section carries
// no records of the requested type; kept here since it is part of the wire
// decode contract callers rely on.
var ErrNoData = errors.New("dns no data")
