package dnswire

import (
	"encoding/binary"
	"fmt"
)

// Question is a single entry in a DNS message's Question section
// (RFC 1035 §4.1.2).
type Question struct {
	Name  string
	Type  RecordType
	Class RecordClass
}

// NewQuestion builds a Question for name/qtype, defaulting to ClassIN.
func NewQuestion(name string, qtype RecordType) Question {
	return Question{Name: name, Type: qtype, Class: ClassIN}
}

// marshal appends q to e's buffer, compressing its name against any suffix
// already written earlier in the message.
func (q Question) marshal(e *encoder) error {
	if err := e.writeName(q.Name); err != nil {
		return err
	}
	var fixed [4]byte
	binary.BigEndian.PutUint16(fixed[0:2], uint16(q.Type))
	binary.BigEndian.PutUint16(fixed[2:4], uint16(q.Class))
	e.buf = append(e.buf, fixed[:]...)
	return nil
}

// parseQuestion decodes one Question starting at *off, advancing *off past
// it.
func parseQuestion(msg []byte, off *int) (Question, error) {
	name, err := DecodeName(msg, off)
	if err != nil {
		return Question{}, err
	}
	if *off+4 > len(msg) {
		return Question{}, fmt.Errorf("%w: unexpected EOF reading question fixed fields", ErrBadResponse)
	}
	qtype := RecordType(binary.BigEndian.Uint16(msg[*off : *off+2]))
	qclass := RecordClass(binary.BigEndian.Uint16(msg[*off+2 : *off+4]))
	*off += 4
	return Question{Name: name, Type: qtype, Class: qclass}, nil
}
