package dnswire

import (
	"encoding/binary"
	"fmt"
)

// RRHeader is the fixed-format prefix shared by every resource record
// (RFC 1035 §3.2.1): owner name, class, and TTL. Type is reported by each
// record's Type() method rather than stored redundantly here.
type RRHeader struct {
	Name  string
	Class RecordClass
	TTL   uint32
}

// NewRRHeader builds an RRHeader from the given name, class and TTL.
func NewRRHeader(name string, class RecordClass, ttl uint32) RRHeader {
	return RRHeader{Name: name, Class: class, TTL: ttl}
}

// Record is the tagged-sum interface every resource record type implements
// (spec.md §3's ResourceRecord). Concrete types: IPRecord (A/AAAA),
// NameRecord (CNAME/NS/PTR), SOARecord, MXRecord, TXTRecord, SRVRecord,
// NAPTRRecord, CAARecord, TLSARecord, OPTRecord, RawRecord.
type Record interface {
	Header() RRHeader
	SetHeader(RRHeader)
	Type() RecordType
	// WriteRData appends this record's RDATA directly to e's in-progress
	// message buffer, using e.writeName for any names that may be
	// compressed. Writing in place (rather than returning a detached
	// byte slice) is required for compression offsets to be correct.
	WriteRData(e *encoder) error
}

// rdataParser decodes one record's RDATA given the record's class/TTL and a
// position-limited view of the message (spec.md §4.1 "position-limited
// view"): parsers may only read up to start+rdlen, except for the name
// decoders which may follow compression pointers anywhere earlier in msg.
type rdataParser func(msg []byte, off *int, start, rdlen int, h RRHeader) (Record, error)

var rdataParsers = map[RecordType]rdataParser{
	TypeA:     parseIPRData,
	TypeAAAA:  parseIPRData,
	TypeCNAME: parseNameRDataFor(TypeCNAME),
	TypeNS:    parseNameRDataFor(TypeNS),
	TypePTR:   parseNameRDataFor(TypePTR),
	TypeSOA:   parseSOARData,
	TypeMX:    parseMXRData,
	TypeTXT:   parseTXTRData,
	TypeSRV:   parseSRVRData,
	TypeNAPTR: parseNAPTRRData,
	TypeCAA:   parseCAARData,
	TypeTLSA:  parseTLSARData,
	TypeOPT:   parseOPTRData,
}

// ParseRecord decodes one resource record starting at *off, advancing *off
// past it. Unknown or unsupported types decode losslessly into a RawRecord
// (spec.md §4.1 "pass-through is lossless").
func ParseRecord(msg []byte, off *int) (Record, error) {
	name, err := DecodeName(msg, off)
	if err != nil {
		return nil, err
	}
	if *off+10 > len(msg) {
		return nil, fmt.Errorf("%w: unexpected EOF reading RR fixed fields", ErrBadResponse)
	}
	rtype := RecordType(binary.BigEndian.Uint16(msg[*off : *off+2]))
	rclass := RecordClass(binary.BigEndian.Uint16(msg[*off+2 : *off+4]))
	ttl := binary.BigEndian.Uint32(msg[*off+4 : *off+8])
	rdlen := int(binary.BigEndian.Uint16(msg[*off+8 : *off+10]))
	*off += 10
	start := *off
	if start+rdlen > len(msg) {
		return nil, fmt.Errorf("%w: RDATA length %d exceeds message", ErrBadResponse, rdlen)
	}

	h := RRHeader{Name: name, Class: rclass, TTL: ttl}

	parser, ok := rdataParsers[rtype]
	if !ok {
		rr, err := parseOpaqueRData(msg, off, start, rdlen, h, rtype)
		return rr, err
	}
	rr, err := parser(msg, off, start, rdlen, h)
	if err != nil {
		return nil, err
	}
	if *off != start+rdlen {
		return nil, fmt.Errorf("%w: RDATA length mismatch for type %d (read %d, advertised %d)",
			ErrBadResponse, rtype, *off-start, rdlen)
	}
	return rr, nil
}

// MarshalRecord serializes rr to wire format using e for name compression.
// Names nested inside opaque RDATA (TXT, CAA) are never compressed and never
// registered for later reuse; names on record boundaries (SOA, MX, SRV, NS,
// CNAME, PTR) may be compressed, per spec.md §4.1.
func MarshalRecord(e *encoder, rr Record) error {
	h := rr.Header()

	if rr.Type() == TypeOPT {
		e.buf = append(e.buf, 0) // OPT's owner name is always root.
	} else if err := e.writeName(h.Name); err != nil {
		return err
	}

	fixed := make([]byte, 10)
	binary.BigEndian.PutUint16(fixed[0:2], uint16(rr.Type()))
	binary.BigEndian.PutUint16(fixed[2:4], uint16(h.Class))
	binary.BigEndian.PutUint32(fixed[4:8], h.TTL)
	e.buf = append(e.buf, fixed...)
	rdlenOff := len(e.buf) - 2

	rdataStart := len(e.buf)
	if err := rr.WriteRData(e); err != nil {
		return err
	}
	rdlen := len(e.buf) - rdataStart
	binary.BigEndian.PutUint16(e.buf[rdlenOff:rdlenOff+2], uint16(rdlen))
	return nil
}
