package dnswire

import (
	"encoding/binary"
	"fmt"
)

// SRVRecord is a service-location record (RFC 2782). Target may be
// compressed against the rest of the message.
type SRVRecord struct {
	H        RRHeader
	Priority uint16
	Weight   uint16
	Port     uint16
	Target   string
}

func (r *SRVRecord) Header() RRHeader     { return r.H }
func (r *SRVRecord) SetHeader(h RRHeader) { r.H = h }
func (r *SRVRecord) Type() RecordType     { return TypeSRV }

func (r *SRVRecord) WriteRData(e *encoder) error {
	var fixed [6]byte
	binary.BigEndian.PutUint16(fixed[0:2], r.Priority)
	binary.BigEndian.PutUint16(fixed[2:4], r.Weight)
	binary.BigEndian.PutUint16(fixed[4:6], r.Port)
	e.buf = append(e.buf, fixed[:]...)
	return e.writeName(r.Target)
}

func parseSRVRData(msg []byte, off *int, start, rdlen int, h RRHeader) (Record, error) {
	if *off+6 > len(msg) || *off+6 > start+rdlen {
		return nil, fmt.Errorf("%w: truncated SRV fixed fields", ErrBadResponse)
	}
	prio := binary.BigEndian.Uint16(msg[*off : *off+2])
	weight := binary.BigEndian.Uint16(msg[*off+2 : *off+4])
	port := binary.BigEndian.Uint16(msg[*off+4 : *off+6])
	*off += 6
	target, err := DecodeName(msg, off)
	if err != nil {
		return nil, err
	}
	return &SRVRecord{H: h, Priority: prio, Weight: weight, Port: port, Target: target}, nil
}
