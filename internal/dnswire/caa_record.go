package dnswire

import "fmt"

// CAARecord is a Certification Authority Authorization record (RFC 6844).
// The tag and value are opaque byte data, never domain names, so
// compression never applies here.
type CAARecord struct {
	H        RRHeader
	Critical bool
	Tag      string
	Value    []byte
}

func (r *CAARecord) Header() RRHeader     { return r.H }
func (r *CAARecord) SetHeader(h RRHeader) { r.H = h }
func (r *CAARecord) Type() RecordType     { return TypeCAA }

func (r *CAARecord) WriteRData(e *encoder) error {
	if len(r.Tag) > 255 {
		return fmt.Errorf("%w: CAA tag exceeds 255 bytes", ErrWire)
	}
	var flags byte
	if r.Critical {
		flags = 0x80
	}
	e.buf = append(e.buf, flags, byte(len(r.Tag)))
	e.buf = append(e.buf, r.Tag...)
	e.buf = append(e.buf, r.Value...)
	return nil
}

func parseCAARData(msg []byte, off *int, start, rdlen int, h RRHeader) (Record, error) {
	end := start + rdlen
	if *off+2 > end {
		return nil, fmt.Errorf("%w: truncated CAA header", ErrBadResponse)
	}
	flags := msg[*off]
	taglen := int(msg[*off+1])
	*off += 2
	if *off+taglen > end {
		return nil, fmt.Errorf("%w: CAA tag overruns RDATA", ErrBadResponse)
	}
	tag := string(msg[*off : *off+taglen])
	*off += taglen
	value := make([]byte, end-*off)
	copy(value, msg[*off:end])
	*off = end
	return &CAARecord{H: h, Critical: flags&0x80 != 0, Tag: tag, Value: value}, nil
}
