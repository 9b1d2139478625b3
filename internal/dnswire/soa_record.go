package dnswire

import (
	"encoding/binary"
	"fmt"
)

// SOARecord is a Start of Authority record (RFC 1035 §3.3.13). MNAME and
// RNAME may be compressed against the rest of the message.
type SOARecord struct {
	H       RRHeader
	MName   string
	RName   string
	Serial  uint32
	Refresh uint32
	Retry   uint32
	Expire  uint32
	Minimum uint32
}

func (r *SOARecord) Header() RRHeader     { return r.H }
func (r *SOARecord) SetHeader(h RRHeader) { r.H = h }
func (r *SOARecord) Type() RecordType     { return TypeSOA }

func (r *SOARecord) WriteRData(e *encoder) error {
	if err := e.writeName(r.MName); err != nil {
		return err
	}
	if err := e.writeName(r.RName); err != nil {
		return err
	}
	var fixed [20]byte
	binary.BigEndian.PutUint32(fixed[0:4], r.Serial)
	binary.BigEndian.PutUint32(fixed[4:8], r.Refresh)
	binary.BigEndian.PutUint32(fixed[8:12], r.Retry)
	binary.BigEndian.PutUint32(fixed[12:16], r.Expire)
	binary.BigEndian.PutUint32(fixed[16:20], r.Minimum)
	e.buf = append(e.buf, fixed[:]...)
	return nil
}

func parseSOARData(msg []byte, off *int, start, rdlen int, h RRHeader) (Record, error) {
	mname, err := DecodeName(msg, off)
	if err != nil {
		return nil, err
	}
	rname, err := DecodeName(msg, off)
	if err != nil {
		return nil, err
	}
	if *off+20 > len(msg) || *off+20 > start+rdlen {
		return nil, fmt.Errorf("%w: truncated SOA fixed fields", ErrBadResponse)
	}
	r := &SOARecord{
		H:       h,
		MName:   mname,
		RName:   rname,
		Serial:  binary.BigEndian.Uint32(msg[*off : *off+4]),
		Refresh: binary.BigEndian.Uint32(msg[*off+4 : *off+8]),
		Retry:   binary.BigEndian.Uint32(msg[*off+8 : *off+12]),
		Expire:  binary.BigEndian.Uint32(msg[*off+12 : *off+16]),
		Minimum: binary.BigEndian.Uint32(msg[*off+16 : *off+20]),
	}
	*off += 20
	return r, nil
}
