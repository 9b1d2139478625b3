package nameutil_test

import (
	"net"
	"strings"
	"testing"

	"github.com/aresgo/aresgo/internal/nameutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelCount(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{name: "root-dot", in: ".", want: 0},
		{name: "root-empty", in: "", want: 0},
		{name: "single", in: "host", want: 1},
		{name: "two", in: "host.corp", want: 2},
		{name: "trailing-dot", in: "host.corp.lan.", want: 3},
		{name: "escaped-dot", in: `a\.b.c`, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nameutil.LabelCount(tt.in))
		})
	}
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "host.example.com", nameutil.Join("host", "example.com"))
	assert.Equal(t, "host.", nameutil.Join("host", "."))
	assert.Equal(t, "host.", nameutil.Join("host", ""))
	assert.Equal(t, "host.example.com", nameutil.Join("host.", "example.com"))
}

func TestIsOnion(t *testing.T) {
	assert.True(t, nameutil.IsOnion("xyz.onion"))
	assert.True(t, nameutil.IsOnion("xyz.onion."))
	assert.True(t, nameutil.IsOnion("XYZ.ONION"))
	assert.False(t, nameutil.IsOnion("example.com"))
}

func TestParseLiteralIP(t *testing.T) {
	ip, ok := nameutil.ParseLiteralIP("127.0.0.1")
	require.True(t, ok)
	assert.True(t, ip.Equal(net.ParseIP("127.0.0.1")))

	_, ok = nameutil.ParseLiteralIP("example.com")
	assert.False(t, ok)

	ip, ok = nameutil.ParseLiteralIP("::1")
	require.True(t, ok)
	assert.True(t, ip.Equal(net.ParseIP("::1")))
}

func TestPTRName(t *testing.T) {
	name, err := nameutil.PTRName(net.ParseIP("93.184.216.34"))
	require.NoError(t, err)
	assert.Equal(t, "34.216.184.93.in-addr.arpa", name)

	name, err = nameutil.PTRName(net.ParseIP("2001:db8::1"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, "ip6.arpa"))
	assert.True(t, strings.HasPrefix(name, "1.0.0.0.0.0.0.0."))
}

func TestHostsFileLookup(t *testing.T) {
	content := `
# comment
127.0.0.1   localhost loopback
::1         localhost
10.0.0.5    db.internal db
`
	hf, err := nameutil.ParseHostsFile(strings.NewReader(content))
	require.NoError(t, err)

	ip, ok := hf.Lookup("localhost")
	require.True(t, ok)
	assert.True(t, ip.Equal(net.ParseIP("127.0.0.1")))

	ip, ok = hf.Lookup("DB")
	require.True(t, ok)
	assert.True(t, ip.Equal(net.ParseIP("10.0.0.5")))

	_, ok = hf.Lookup("nonexistent.local")
	assert.False(t, ok)

	name, ok := hf.ReverseLookup(net.ParseIP("10.0.0.5"))
	require.True(t, ok)
	assert.Equal(t, "db.internal", name)
}

func TestToASCIIPassesThroughPureASCII(t *testing.T) {
	assert.Equal(t, "example.com", nameutil.ToASCII("example.com"))
}

func TestToASCIIConvertsUnicode(t *testing.T) {
	out := nameutil.ToASCII("münchen.de")
	assert.True(t, strings.HasPrefix(out, "xn--"))
}
