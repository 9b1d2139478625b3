package dnswire

import "fmt"

// TXTRecord holds one or more character-strings (RFC 1035 §3.3.14). The
// wire format is a sequence of length-prefixed byte strings, each capped at
// 255 bytes; this package never compresses names inside TXT RDATA because
// TXT data is opaque, not a domain name.
type TXTRecord struct {
	H     RRHeader
	Chunks [][]byte
}

// NewTXTRecord splits s into ≤255-byte chunks automatically.
func NewTXTRecord(h RRHeader, s string) *TXTRecord {
	return &TXTRecord{H: h, Chunks: chunkTXT([]byte(s))}
}

func chunkTXT(b []byte) [][]byte {
	if len(b) == 0 {
		return [][]byte{{}}
	}
	chunks := make([][]byte, 0, (len(b)/255)+1)
	for i := 0; i < len(b); i += 255 {
		end := min(i+255, len(b))
		chunks = append(chunks, b[i:end])
	}
	return chunks
}

func (r *TXTRecord) Header() RRHeader     { return r.H }
func (r *TXTRecord) SetHeader(h RRHeader) { r.H = h }
func (r *TXTRecord) Type() RecordType     { return TypeTXT }

// Joined concatenates all chunks, the common way callers want TXT content.
func (r *TXTRecord) Joined() []byte {
	total := 0
	for _, c := range r.Chunks {
		total += len(c)
	}
	out := make([]byte, 0, total)
	for _, c := range r.Chunks {
		out = append(out, c...)
	}
	return out
}

func (r *TXTRecord) WriteRData(e *encoder) error {
	for _, c := range r.Chunks {
		if len(c) > 255 {
			return fmt.Errorf("%w: TXT character-string exceeds 255 bytes", ErrWire)
		}
		e.buf = append(e.buf, byte(len(c)))
		e.buf = append(e.buf, c...)
	}
	return nil
}

func parseTXTRData(msg []byte, off *int, start, rdlen int, h RRHeader) (Record, error) {
	end := start + rdlen
	chunks := make([][]byte, 0, 4)
	for *off < end {
		ln := int(msg[*off])
		*off++
		if *off+ln > end {
			return nil, fmt.Errorf("%w: TXT character-string overruns RDATA", ErrBadResponse)
		}
		b := make([]byte, ln)
		copy(b, msg[*off:*off+ln])
		chunks = append(chunks, b)
		*off += ln
	}
	if len(chunks) == 0 {
		chunks = [][]byte{{}}
	}
	return &TXTRecord{H: h, Chunks: chunks}, nil
}
