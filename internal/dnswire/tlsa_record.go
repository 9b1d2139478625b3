package dnswire

import "fmt"

// TLSARecord carries a TLSA certificate association (RFC 6698).
type TLSARecord struct {
	H            RRHeader
	Usage        uint8
	Selector     uint8
	MatchingType uint8
	Data         []byte
}

func (r *TLSARecord) Header() RRHeader     { return r.H }
func (r *TLSARecord) SetHeader(h RRHeader) { r.H = h }
func (r *TLSARecord) Type() RecordType     { return TypeTLSA }

func (r *TLSARecord) WriteRData(e *encoder) error {
	e.buf = append(e.buf, r.Usage, r.Selector, r.MatchingType)
	e.buf = append(e.buf, r.Data...)
	return nil
}

func parseTLSARData(msg []byte, off *int, start, rdlen int, h RRHeader) (Record, error) {
	end := start + rdlen
	if *off+3 > end {
		return nil, fmt.Errorf("%w: truncated TLSA fixed fields", ErrBadResponse)
	}
	usage, selector, mtype := msg[*off], msg[*off+1], msg[*off+2]
	*off += 3
	data := make([]byte, end-*off)
	copy(data, msg[*off:end])
	*off = end
	return &TLSARecord{H: h, Usage: usage, Selector: selector, MatchingType: mtype, Data: data}, nil
}
