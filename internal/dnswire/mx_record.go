package dnswire

import (
	"encoding/binary"
	"fmt"
)

// MXRecord is a mail-exchange record (RFC 1035 §3.3.9). Exchange may be
// compressed.
type MXRecord struct {
	H          RRHeader
	Preference uint16
	Exchange   string
}

func (r *MXRecord) Header() RRHeader     { return r.H }
func (r *MXRecord) SetHeader(h RRHeader) { r.H = h }
func (r *MXRecord) Type() RecordType     { return TypeMX }

func (r *MXRecord) WriteRData(e *encoder) error {
	var pref [2]byte
	binary.BigEndian.PutUint16(pref[:], r.Preference)
	e.buf = append(e.buf, pref[:]...)
	return e.writeName(r.Exchange)
}

func parseMXRData(msg []byte, off *int, _, _ int, h RRHeader) (Record, error) {
	if *off+2 > len(msg) {
		return nil, fmt.Errorf("%w: truncated MX preference", ErrBadResponse)
	}
	pref := binary.BigEndian.Uint16(msg[*off : *off+2])
	*off += 2
	ex, err := DecodeName(msg, off)
	if err != nil {
		return nil, err
	}
	return &MXRecord{H: h, Preference: pref, Exchange: ex}, nil
}
