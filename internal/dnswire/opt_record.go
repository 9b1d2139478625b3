package dnswire

import (
	"encoding/binary"
	"fmt"

	"github.com/aresgo/aresgo/internal/helpers"
)

// EDNS0 size bounds (RFC 6891, and the Flag Day 2020 recommendation spec.md
// §6 codifies as the default).
const (
	DefaultUDPPayloadSize = 512
	DefaultEDNSUDPSize    = 1232
	MaxEDNSUDPSize        = 4096
)

// EDNSOption is one option in an OPT record's RDATA (RFC 6891 §6.1.2).
type EDNSOption struct {
	Code uint16
	Data []byte
}

// OPTRecord is the EDNS0 pseudo-record (RFC 6891). Its NAME is always root;
// its CLASS field is overloaded as the requestor's UDP payload size and its
// TTL field is overloaded as ext_rcode<<24 | version<<16 | flags, per
// spec.md §4.1.
type OPTRecord struct {
	UDPSize  uint16
	ExtRCode uint8
	Version  uint8
	DO       bool // DNSSEC OK flag
	Options  []EDNSOption
}

// NewOPTRecord builds a minimal OPT record advertising udpSize with no
// options set.
func NewOPTRecord(udpSize int) *OPTRecord {
	if udpSize < DefaultUDPPayloadSize {
		udpSize = DefaultUDPPayloadSize
	}
	if udpSize > 65535 {
		udpSize = 65535
	}
	return &OPTRecord{UDPSize: uint16(udpSize)}
}

func (r *OPTRecord) Header() RRHeader {
	ttl := uint32(r.ExtRCode)<<24 | uint32(r.Version)<<16
	if r.DO {
		ttl |= 1 << 15
	}
	return RRHeader{Name: "", Class: RecordClass(r.UDPSize), TTL: ttl}
}

func (r *OPTRecord) SetHeader(h RRHeader) {
	r.UDPSize = uint16(h.Class)
	r.ExtRCode = helpers.ClampUint32ToUint8(h.TTL >> 24)
	r.Version = helpers.ClampUint32ToUint8((h.TTL >> 16) & 0xFF)
	r.DO = (h.TTL>>15)&1 == 1
}

func (r *OPTRecord) Type() RecordType { return TypeOPT }

func (r *OPTRecord) WriteRData(e *encoder) error {
	for _, o := range r.Options {
		hdr := make([]byte, 4)
		binary.BigEndian.PutUint16(hdr[0:2], o.Code)
		binary.BigEndian.PutUint16(hdr[2:4], uint16(len(o.Data)))
		e.buf = append(e.buf, hdr...)
		e.buf = append(e.buf, o.Data...)
	}
	return nil
}

func parseOPTRData(msg []byte, off *int, start, rdlen int, h RRHeader) (Record, error) {
	r := &OPTRecord{}
	r.SetHeader(h)

	end := start + rdlen
	for *off < end {
		if *off+4 > end {
			return nil, fmt.Errorf("%w: truncated EDNS option header", ErrBadResponse)
		}
		code := binary.BigEndian.Uint16(msg[*off : *off+2])
		ln := int(binary.BigEndian.Uint16(msg[*off+2 : *off+4]))
		*off += 4
		if *off+ln > end {
			return nil, fmt.Errorf("%w: EDNS option data overruns RDATA", ErrBadResponse)
		}
		data := make([]byte, ln)
		copy(data, msg[*off:*off+ln])
		*off += ln
		r.Options = append(r.Options, EDNSOption{Code: code, Data: data})
	}
	return r, nil
}

// ExtractOPT finds the first OPT record in additionals, or nil.
func ExtractOPT(additionals []Record) *OPTRecord {
	for _, r := range additionals {
		if opt, ok := r.(*OPTRecord); ok {
			return opt
		}
	}
	return nil
}
