package dnswire_test

import (
	"net"
	"testing"

	"github.com/aresgo/aresgo/internal/dnswire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marshalOne(t *testing.T, rr dnswire.Record) []byte {
	t.Helper()
	m := &dnswire.Message{Answers: []dnswire.Record{rr}}
	wire, err := m.Marshal()
	require.NoError(t, err)
	return wire
}

func parseOneAnswer(t *testing.T, wire []byte) dnswire.Record {
	t.Helper()
	m, err := dnswire.ParseMessage(wire)
	require.NoError(t, err)
	require.Len(t, m.Answers, 1)
	return m.Answers[0]
}

func TestIPRecordRoundTrip(t *testing.T) {
	h := dnswire.NewRRHeader("example.com", dnswire.ClassIN, 300)
	rr := dnswire.NewIPRecord(h, net.ParseIP("93.184.216.34"))
	wire := marshalOne(t, rr)

	got := parseOneAnswer(t, wire)
	ip, ok := got.(*dnswire.IPRecord)
	require.True(t, ok)
	assert.Equal(t, dnswire.TypeA, ip.Type())
	assert.True(t, ip.Addr.Equal(net.ParseIP("93.184.216.34")))
	assert.Equal(t, uint32(300), ip.H.TTL)
}

func TestAAAARecordRoundTrip(t *testing.T) {
	h := dnswire.NewRRHeader("example.com", dnswire.ClassIN, 300)
	rr := dnswire.NewIPRecord(h, net.ParseIP("2606:2800:220:1:248:1893:25c8:1946"))
	wire := marshalOne(t, rr)

	got := parseOneAnswer(t, wire)
	ip, ok := got.(*dnswire.IPRecord)
	require.True(t, ok)
	assert.Equal(t, dnswire.TypeAAAA, ip.Type())
	assert.True(t, ip.Addr.Equal(net.ParseIP("2606:2800:220:1:248:1893:25c8:1946")))
}

func TestNameRecordRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		rr   *dnswire.NameRecord
		typ  dnswire.RecordType
	}{
		{name: "cname", rr: dnswire.NewCNAMERecord(dnswire.NewRRHeader("www.example.com", dnswire.ClassIN, 60), "example.com"), typ: dnswire.TypeCNAME},
		{name: "ns", rr: dnswire.NewNSRecord(dnswire.NewRRHeader("example.com", dnswire.ClassIN, 3600), "ns1.example.com"), typ: dnswire.TypeNS},
		{name: "ptr", rr: dnswire.NewPTRRecord(dnswire.NewRRHeader("34.216.184.93.in-addr.arpa", dnswire.ClassIN, 3600), "example.com"), typ: dnswire.TypePTR},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire := marshalOne(t, tt.rr)
			got := parseOneAnswer(t, wire)
			nr, ok := got.(*dnswire.NameRecord)
			require.True(t, ok)
			assert.Equal(t, tt.typ, nr.Type())
			assert.Equal(t, tt.rr.Target, nr.Target)
		})
	}
}

func TestSOARecordRoundTrip(t *testing.T) {
	rr := &dnswire.SOARecord{
		H:       dnswire.NewRRHeader("example.com", dnswire.ClassIN, 3600),
		MName:   "ns1.example.com",
		RName:   "hostmaster.example.com",
		Serial:  2024010100,
		Refresh: 7200,
		Retry:   3600,
		Expire:  1209600,
		Minimum: 300,
	}
	wire := marshalOne(t, rr)
	got := parseOneAnswer(t, wire)
	soa, ok := got.(*dnswire.SOARecord)
	require.True(t, ok)
	assert.Equal(t, *rr, *soa)
}

func TestMXRecordRoundTrip(t *testing.T) {
	rr := &dnswire.MXRecord{H: dnswire.NewRRHeader("example.com", dnswire.ClassIN, 3600), Preference: 10, Exchange: "mail.example.com"}
	wire := marshalOne(t, rr)
	got := parseOneAnswer(t, wire)
	mx, ok := got.(*dnswire.MXRecord)
	require.True(t, ok)
	assert.Equal(t, *rr, *mx)
}

func TestTXTRecordRoundTrip(t *testing.T) {
	rr := dnswire.NewTXTRecord(dnswire.NewRRHeader("example.com", dnswire.ClassIN, 60), "v=spf1 include:_spf.example.com ~all")
	wire := marshalOne(t, rr)
	got := parseOneAnswer(t, wire)
	txt, ok := got.(*dnswire.TXTRecord)
	require.True(t, ok)
	assert.Equal(t, "v=spf1 include:_spf.example.com ~all", string(txt.Joined()))
}

func TestTXTRecordChunksLongString(t *testing.T) {
	long := make([]byte, 600)
	for i := range long {
		long[i] = byte('a' + i%26)
	}
	rr := dnswire.NewTXTRecord(dnswire.NewRRHeader("example.com", dnswire.ClassIN, 60), string(long))
	assert.Len(t, rr.Chunks, 3)
	wire := marshalOne(t, rr)
	got := parseOneAnswer(t, wire)
	txt, ok := got.(*dnswire.TXTRecord)
	require.True(t, ok)
	assert.Equal(t, long, txt.Joined())
}

func TestSRVRecordRoundTrip(t *testing.T) {
	rr := &dnswire.SRVRecord{
		H: dnswire.NewRRHeader("_sip._tcp.example.com", dnswire.ClassIN, 3600),
		Priority: 10, Weight: 20, Port: 5060, Target: "sipserver.example.com",
	}
	wire := marshalOne(t, rr)
	got := parseOneAnswer(t, wire)
	srv, ok := got.(*dnswire.SRVRecord)
	require.True(t, ok)
	assert.Equal(t, *rr, *srv)
}

func TestNAPTRRecordRoundTrip(t *testing.T) {
	rr := &dnswire.NAPTRRecord{
		H: dnswire.NewRRHeader("example.com", dnswire.ClassIN, 3600),
		Order: 100, Preference: 10,
		Flags: "S", Service: "SIP+D2U", Regexp: "", Replacement: "_sip._udp.example.com",
	}
	wire := marshalOne(t, rr)
	got := parseOneAnswer(t, wire)
	naptr, ok := got.(*dnswire.NAPTRRecord)
	require.True(t, ok)
	assert.Equal(t, *rr, *naptr)
}

func TestCAARecordRoundTrip(t *testing.T) {
	rr := &dnswire.CAARecord{H: dnswire.NewRRHeader("example.com", dnswire.ClassIN, 3600), Critical: true, Tag: "issue", Value: []byte("letsencrypt.org")}
	wire := marshalOne(t, rr)
	got := parseOneAnswer(t, wire)
	caa, ok := got.(*dnswire.CAARecord)
	require.True(t, ok)
	assert.Equal(t, *rr, *caa)
}

func TestTLSARecordRoundTrip(t *testing.T) {
	rr := &dnswire.TLSARecord{H: dnswire.NewRRHeader("_443._tcp.example.com", dnswire.ClassIN, 3600), Usage: 3, Selector: 1, MatchingType: 1, Data: []byte{0xde, 0xad, 0xbe, 0xef}}
	wire := marshalOne(t, rr)
	got := parseOneAnswer(t, wire)
	tlsa, ok := got.(*dnswire.TLSARecord)
	require.True(t, ok)
	assert.Equal(t, *rr, *tlsa)
}

func TestOPTRecordRoundTrip(t *testing.T) {
	opt := dnswire.NewOPTRecord(4096)
	opt.DO = true
	opt.Options = []dnswire.EDNSOption{{Code: 8, Data: []byte{0x00, 0x01, 0x00, 0x00}}}

	m := &dnswire.Message{Additionals: []dnswire.Record{opt}}
	wire, err := m.Marshal()
	require.NoError(t, err)

	parsed, err := dnswire.ParseMessage(wire)
	require.NoError(t, err)
	require.Len(t, parsed.Additionals, 1)
	got, ok := parsed.Additionals[0].(*dnswire.OPTRecord)
	require.True(t, ok)
	assert.Equal(t, uint16(4096), got.UDPSize)
	assert.True(t, got.DO)
	require.Len(t, got.Options, 1)
	assert.Equal(t, uint16(8), got.Options[0].Code)
}

func TestRawRecordPassthroughForUnknownType(t *testing.T) {
	h := dnswire.NewRRHeader("example.com", dnswire.ClassIN, 60)
	rr := &dnswire.RawRecord{H: h, T: dnswire.RecordType(9999), RData: []byte{0x01, 0x02, 0x03}}
	wire := marshalOne(t, rr)
	got := parseOneAnswer(t, wire)
	raw, ok := got.(*dnswire.RawRecord)
	require.True(t, ok)
	assert.Equal(t, dnswire.RecordType(9999), raw.Type())
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, raw.RData)
}

func TestMessageCompressesRepeatedNames(t *testing.T) {
	q := dnswire.NewQuestion("www.example.com", dnswire.TypeA)
	m := dnswire.NewQueryMessage(1234, q, 0)
	m.Answers = []dnswire.Record{
		dnswire.NewCNAMERecord(dnswire.NewRRHeader("www.example.com", dnswire.ClassIN, 60), "example.com"),
		dnswire.NewIPRecord(dnswire.NewRRHeader("example.com", dnswire.ClassIN, 60), net.ParseIP("93.184.216.34")),
	}

	uncompressedLen := len("www.example.com") + len("example.com")
	wire, err := m.Marshal()
	require.NoError(t, err)
	// The message should be substantially smaller than two fully literal
	// encodings of these names thanks to compression pointers.
	assert.Less(t, len(wire), dnswire.HeaderSize+4+2*uncompressedLen)

	parsed, err := dnswire.ParseMessage(wire)
	require.NoError(t, err)
	require.Len(t, parsed.Answers, 2)
	cname := parsed.Answers[0].(*dnswire.NameRecord)
	assert.Equal(t, "example.com", cname.Target)
	ip := parsed.Answers[1].(*dnswire.IPRecord)
	assert.True(t, ip.Addr.Equal(net.ParseIP("93.184.216.34")))
}

func TestParseMessageRejectsOversizedMessage(t *testing.T) {
	huge := make([]byte, dnswire.MaxIncomingDNSMessageSize+1)
	_, err := dnswire.ParseMessage(huge)
	assert.ErrorIs(t, err, dnswire.ErrBadResponse)
}

func TestParseMessageRejectsExcessiveQuestionCount(t *testing.T) {
	hdr := dnswire.Header{ID: 1, QDCount: dnswire.MaxQuestions + 1}
	wire := hdr.Marshal()
	_, err := dnswire.ParseMessage(wire)
	assert.ErrorIs(t, err, dnswire.ErrBadResponse)
}

func TestQueryMessageCarriesEDNS0(t *testing.T) {
	q := dnswire.NewQuestion("example.com", dnswire.TypeA)
	m := dnswire.NewQueryMessage(42, q, dnswire.DefaultEDNSUDPSize)
	wire, err := m.Marshal()
	require.NoError(t, err)

	parsed, err := dnswire.ParseMessage(wire)
	require.NoError(t, err)
	opt := dnswire.ExtractOPT(parsed.Additionals)
	require.NotNil(t, opt)
	assert.Equal(t, uint16(dnswire.DefaultEDNSUDPSize), opt.UDPSize)
}
