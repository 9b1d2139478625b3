package dnswire_test

import (
	"testing"

	"github.com/aresgo/aresgo/internal/dnswire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeNameRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "root", in: "."},
		{name: "simple", in: "example.com"},
		{name: "trailing-dot", in: "example.com."},
		{name: "subdomain", in: "www.example.com"},
		{name: "single-label", in: "localhost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire, err := dnswire.EncodeName(tt.in)
			require.NoError(t, err)

			off := 0
			got, err := dnswire.DecodeName(wire, &off)
			require.NoError(t, err)
			assert.Equal(t, off, len(wire))
			assert.Equal(t, dnswire.NormalizeName(tt.in), dnswire.NormalizeName(got))
		})
	}
}

func TestEscapeUnescapeLabelRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		label []byte
	}{
		{name: "plain", label: []byte("example")},
		{name: "dot", label: []byte("a.b")},
		{name: "backslash", label: []byte(`a\b`)},
		{name: "nonprintable", label: []byte{0x01, 0x02, 0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			escaped := dnswire.EscapeLabel(tt.label)
			unescaped, err := dnswire.UnescapeLabel(escaped)
			require.NoError(t, err)
			assert.Equal(t, tt.label, unescaped)
		})
	}
}

func TestLabelLengthLimit(t *testing.T) {
	long := make([]byte, dnswire.MaxLabelLen+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err := dnswire.EncodeName(string(long))
	assert.ErrorIs(t, err, dnswire.ErrBadName)
}

func TestDecodeNameRejectsForwardPointer(t *testing.T) {
	// A pointer at offset 0 pointing forward to offset 5 must be rejected.
	msg := []byte{0xC0, 0x05, 0x00, 0x00, 0x00, 0x00, 0x00}
	off := 0
	_, err := dnswire.DecodeName(msg, &off)
	assert.ErrorIs(t, err, dnswire.ErrBadName)
}

func TestDecodeNameRejectsSelfPointer(t *testing.T) {
	msg := []byte{0xC0, 0x00}
	off := 0
	_, err := dnswire.DecodeName(msg, &off)
	assert.ErrorIs(t, err, dnswire.ErrBadName)
}

func TestDecodeNameFollowsBackwardPointer(t *testing.T) {
	// "example.com" written literally at offset 0, then a second name at a
	// later offset that points back at it.
	base, err := dnswire.EncodeName("example.com")
	require.NoError(t, err)

	msg := append([]byte{}, base...)
	ptrOff := len(msg)
	ptr := uint16(0xC000) | uint16(0)
	msg = append(msg, byte(ptr>>8), byte(ptr))

	off := ptrOff
	got, err := dnswire.DecodeName(msg, &off)
	require.NoError(t, err)
	assert.Equal(t, "example.com", got)
	assert.Equal(t, len(msg), off)
}

func TestDecodeNameRejectsExcessiveIndirection(t *testing.T) {
	// offset 0: root label. Each subsequent 2-byte pointer points at the
	// previous pointer, building a chain deeper than MaxCompressionDepth.
	msg := []byte{0x00}
	prevOff := 0
	var lastPtrOff int
	for i := 0; i < dnswire.MaxCompressionDepth+5; i++ {
		lastPtrOff = len(msg)
		ptr := uint16(0xC000) | uint16(prevOff&0x3FFF)
		msg = append(msg, byte(ptr>>8), byte(ptr))
		prevOff = lastPtrOff
	}
	off := lastPtrOff
	_, err := dnswire.DecodeName(msg, &off)
	assert.ErrorIs(t, err, dnswire.ErrBadName)
}

func TestValidateHostname(t *testing.T) {
	assert.NoError(t, dnswire.ValidateHostname("www.example.com"))
	assert.NoError(t, dnswire.ValidateHostname("host_1.local"))
	assert.Error(t, dnswire.ValidateHostname("exa mple.com"))
	assert.Error(t, dnswire.ValidateHostname("exämple.com"))
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "example.com", dnswire.NormalizeName("Example.COM."))
	assert.Equal(t, "example.com", dnswire.NormalizeName("example.com"))
}
