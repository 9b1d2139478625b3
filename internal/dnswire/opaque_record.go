package dnswire

// RawRecord carries the RDATA of a record type this package does not parse
// structurally. Pass-through is lossless: the exact bytes read are the exact
// bytes written back, so a message forwarded through this library is
// byte-faithful even for record types newer than this package.
type RawRecord struct {
	H     RRHeader
	T     RecordType
	RData []byte
}

func (r *RawRecord) Header() RRHeader     { return r.H }
func (r *RawRecord) SetHeader(h RRHeader) { r.H = h }
func (r *RawRecord) Type() RecordType     { return r.T }

func (r *RawRecord) WriteRData(e *encoder) error {
	e.buf = append(e.buf, r.RData...)
	return nil
}

func parseOpaqueRData(msg []byte, off *int, start, rdlen int, h RRHeader, rtype RecordType) (Record, error) {
	data := make([]byte, rdlen)
	copy(data, msg[start:start+rdlen])
	*off = start + rdlen
	return &RawRecord{H: h, T: rtype, RData: data}, nil
}
