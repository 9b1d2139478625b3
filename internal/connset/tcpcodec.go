package connset

import "encoding/binary"

// recvState is the TCP receive state machine from spec.md §4.4:
// Idle → ReadingLen(2 bytes) → ReadingBody(len bytes) → dispatch → Idle.
type recvState int

const (
	recvIdle recvState = iota
	recvReadingLen
	recvReadingBody
)

// tcpFramer accumulates bytes read off a TCP connection and yields
// complete DNS messages (each prefixed on the wire by a two-byte
// big-endian length). It is driven incrementally by feed, not by blocking
// reads, so it composes with the host-driven process() model.
type tcpFramer struct {
	state   recvState
	lenBuf  [2]byte
	lenGot  int
	body    []byte
	bodyLen int
	bodyGot int
}

// feed folds newly-read bytes into the framer and returns every complete
// message frame found, in order. Partial frames are retained for the next
// call.
func (f *tcpFramer) feed(data []byte) [][]byte {
	var frames [][]byte
	for len(data) > 0 {
		switch f.state {
		case recvIdle:
			f.state = recvReadingLen
			f.lenGot = 0
		case recvReadingLen:
			n := copy(f.lenBuf[f.lenGot:], data)
			f.lenGot += n
			data = data[n:]
			if f.lenGot == 2 {
				f.bodyLen = int(binary.BigEndian.Uint16(f.lenBuf[:]))
				f.body = make([]byte, f.bodyLen)
				f.bodyGot = 0
				f.state = recvReadingBody
				if f.bodyLen == 0 {
					frames = append(frames, f.body)
					f.state = recvIdle
				}
			}
			continue
		case recvReadingBody:
			n := copy(f.body[f.bodyGot:], data)
			f.bodyGot += n
			data = data[n:]
			if f.bodyGot == f.bodyLen {
				frames = append(frames, f.body)
				f.state = recvIdle
			}
			continue
		}
	}
	return frames
}

// encodeFrame prepends msg with its two-byte big-endian length prefix, the
// wire form TCP DNS queries and responses use.
func encodeFrame(msg []byte) []byte {
	out := make([]byte, 2+len(msg))
	binary.BigEndian.PutUint16(out[:2], uint16(len(msg)))
	copy(out[2:], msg)
	return out
}
