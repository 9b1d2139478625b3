package dnswire

import (
	"encoding/binary"
	"fmt"
)

// NAPTRRecord is a Naming Authority Pointer record (RFC 2915). Replacement
// is a domain name but, unlike SRV/MX/SOA/NS/CNAME/PTR, is written
// uncompressed: NAPTR predates widespread RDATA-name compression practice
// and most resolvers (and spec.md's compressible-boundary list) treat it as
// opaque for compression purposes.
type NAPTRRecord struct {
	H           RRHeader
	Order       uint16
	Preference  uint16
	Flags       string
	Service     string
	Regexp      string
	Replacement string
}

func (r *NAPTRRecord) Header() RRHeader     { return r.H }
func (r *NAPTRRecord) SetHeader(h RRHeader) { r.H = h }
func (r *NAPTRRecord) Type() RecordType     { return TypeNAPTR }

func (r *NAPTRRecord) WriteRData(e *encoder) error {
	var fixed [4]byte
	binary.BigEndian.PutUint16(fixed[0:2], r.Order)
	binary.BigEndian.PutUint16(fixed[2:4], r.Preference)
	e.buf = append(e.buf, fixed[:]...)
	for _, s := range []string{r.Flags, r.Service, r.Regexp} {
		if len(s) > 255 {
			return fmt.Errorf("%w: NAPTR character-string exceeds 255 bytes", ErrWire)
		}
		e.buf = append(e.buf, byte(len(s)))
		e.buf = append(e.buf, s...)
	}
	return e.writeNameUncompressed(r.Replacement)
}

func parseNAPTRRData(msg []byte, off *int, start, rdlen int, h RRHeader) (Record, error) {
	end := start + rdlen
	if *off+4 > end {
		return nil, fmt.Errorf("%w: truncated NAPTR fixed fields", ErrBadResponse)
	}
	order := binary.BigEndian.Uint16(msg[*off : *off+2])
	pref := binary.BigEndian.Uint16(msg[*off+2 : *off+4])
	*off += 4

	readCharStr := func() (string, error) {
		if *off >= end {
			return "", fmt.Errorf("%w: truncated NAPTR character-string", ErrBadResponse)
		}
		ln := int(msg[*off])
		*off++
		if *off+ln > end {
			return "", fmt.Errorf("%w: NAPTR character-string overruns RDATA", ErrBadResponse)
		}
		s := string(msg[*off : *off+ln])
		*off += ln
		return s, nil
	}

	flags, err := readCharStr()
	if err != nil {
		return nil, err
	}
	service, err := readCharStr()
	if err != nil {
		return nil, err
	}
	regexp, err := readCharStr()
	if err != nil {
		return nil, err
	}
	replacement, err := DecodeName(msg, off)
	if err != nil {
		return nil, err
	}
	return &NAPTRRecord{
		H: h, Order: order, Preference: pref,
		Flags: flags, Service: service, Regexp: regexp, Replacement: replacement,
	}, nil
}
