package dnswire

import "fmt"

// Limits enforced on every incoming message before this package will attempt
// to parse it (spec.md §4.1 hardening against oversized or pathological
// messages received off the wire).
const (
	MaxIncomingDNSMessageSize = 65535
	MaxQuestions              = 16
	MaxRRPerSection           = 512
	MaxTotalRR                = 4 * MaxRRPerSection
)

// Message is a fully decoded DNS message: header, question, and the three
// resource-record sections (RFC 1035 §4.1).
type Message struct {
	Header      Header
	Questions   []Question
	Answers     []Record
	Authorities []Record
	Additionals []Record
}

// NewQueryMessage builds a single-question query message with a fresh ID,
// the RD bit set, and (if udpSize > 0) an EDNS0 OPT record attached to
// Additionals advertising udpSize.
func NewQueryMessage(id uint16, q Question, udpSize int) *Message {
	m := &Message{
		Header: Header{
			ID:      id,
			Flags:   FlagRD,
			QDCount: 1,
		},
		Questions: []Question{q},
	}
	if udpSize > 0 {
		opt := NewOPTRecord(udpSize)
		m.Additionals = append(m.Additionals, opt)
		m.Header.ARCount = 1
	}
	return m
}

// Marshal serializes m to wire format, compressing names across the whole
// message (question and all three RR sections share one compression table,
// per spec.md §4.1).
func (m *Message) Marshal() ([]byte, error) {
	m.Header.QDCount = uint16(len(m.Questions))
	m.Header.ANCount = uint16(len(m.Answers))
	m.Header.NSCount = uint16(len(m.Authorities))
	m.Header.ARCount = uint16(len(m.Additionals))

	e := newEncoder(512)
	e.buf = append(e.buf, m.Header.Marshal()...)

	for _, q := range m.Questions {
		if err := q.marshal(e); err != nil {
			return nil, err
		}
	}
	for _, section := range [][]Record{m.Answers, m.Authorities, m.Additionals} {
		for _, rr := range section {
			if err := MarshalRecord(e, rr); err != nil {
				return nil, err
			}
		}
	}
	return e.buf, nil
}

// ParseMessage decodes a complete DNS message from msg, enforcing the
// section-count limits above to reject pathological or malicious input
// before memory is allocated for it.
func ParseMessage(msg []byte) (*Message, error) {
	if len(msg) > MaxIncomingDNSMessageSize {
		return nil, fmt.Errorf("%w: message of %d bytes exceeds %d byte limit",
			ErrBadResponse, len(msg), MaxIncomingDNSMessageSize)
	}
	off := 0
	hdr, err := ParseHeader(msg, &off)
	if err != nil {
		return nil, err
	}
	if int(hdr.QDCount) > MaxQuestions {
		return nil, fmt.Errorf("%w: QDCOUNT %d exceeds limit %d", ErrBadResponse, hdr.QDCount, MaxQuestions)
	}
	for _, n := range []uint16{hdr.ANCount, hdr.NSCount, hdr.ARCount} {
		if int(n) > MaxRRPerSection {
			return nil, fmt.Errorf("%w: section count %d exceeds limit %d", ErrBadResponse, n, MaxRRPerSection)
		}
	}
	total := int(hdr.ANCount) + int(hdr.NSCount) + int(hdr.ARCount)
	if total > MaxTotalRR {
		return nil, fmt.Errorf("%w: total RR count %d exceeds limit %d", ErrBadResponse, total, MaxTotalRR)
	}

	m := &Message{Header: hdr}

	m.Questions = make([]Question, 0, hdr.QDCount)
	for i := 0; i < int(hdr.QDCount); i++ {
		q, err := parseQuestion(msg, &off)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		m.Questions = append(m.Questions, q)
	}

	sections := []struct {
		count int
		dst   *[]Record
		name  string
	}{
		{int(hdr.ANCount), &m.Answers, "answer"},
		{int(hdr.NSCount), &m.Authorities, "authority"},
		{int(hdr.ARCount), &m.Additionals, "additional"},
	}
	for _, s := range sections {
		rrs := make([]Record, 0, s.count)
		for i := 0; i < s.count; i++ {
			rr, err := ParseRecord(msg, &off)
			if err != nil {
				return nil, fmt.Errorf("%s %d: %w", s.name, i, err)
			}
			rrs = append(rrs, rr)
		}
		*s.dst = rrs
	}

	return m, nil
}

// RCode reports the response code carried in the header flags.
func (m *Message) RCode() RCode { return RCodeFromFlags(m.Header.Flags) }

// SetRCode overwrites the response code bits in the header flags.
func (m *Message) SetRCode(rc RCode) {
	m.Header.Flags = (m.Header.Flags &^ RCodeMask) | uint16(rc)
}
