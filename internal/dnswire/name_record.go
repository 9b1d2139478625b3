package dnswire

// NameRecord represents the record types whose entire RDATA is a single
// domain name: CNAME, NS, PTR. These names may be compressed against the
// rest of the message (spec.md §4.1).
type NameRecord struct {
	H      RRHeader
	T      RecordType
	Target string
}

func NewCNAMERecord(h RRHeader, target string) *NameRecord { return &NameRecord{H: h, T: TypeCNAME, Target: target} }
func NewNSRecord(h RRHeader, target string) *NameRecord    { return &NameRecord{H: h, T: TypeNS, Target: target} }
func NewPTRRecord(h RRHeader, target string) *NameRecord   { return &NameRecord{H: h, T: TypePTR, Target: target} }

func (r *NameRecord) Header() RRHeader     { return r.H }
func (r *NameRecord) SetHeader(h RRHeader) { r.H = h }
func (r *NameRecord) Type() RecordType     { return r.T }

func (r *NameRecord) WriteRData(e *encoder) error {
	return e.writeName(r.Target)
}

func parseNameRDataFor(t RecordType) rdataParser {
	return func(msg []byte, off *int, _ int, _ int, h RRHeader) (Record, error) {
		target, err := DecodeName(msg, off)
		if err != nil {
			return nil, err
		}
		return &NameRecord{H: h, T: t, Target: target}, nil
	}
}
