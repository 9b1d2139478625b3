package scheduler_test

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/aresgo/aresgo/internal/connset"
	"github.com/aresgo/aresgo/internal/dnswire"
	"github.com/aresgo/aresgo/internal/querytable"
	"github.com/aresgo/aresgo/internal/scheduler"
	"github.com/aresgo/aresgo/internal/serverpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSocket is an in-memory connset.Socket double, identical in spirit to
// the one in internal/connset's own tests but kept local since connset's
// is unexported.
type fakeSocket struct {
	nextFD    int
	sent      map[int][][]byte
	recvQueue map[int][][]byte
	recvFrom  map[int]net.IP
	recvErr   map[int]error
	closed    map[int]bool
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{
		sent:      make(map[int][][]byte),
		recvQueue: make(map[int][][]byte),
		recvFrom:  make(map[int]net.IP),
		recvErr:   make(map[int]error),
		closed:    make(map[int]bool),
	}
}

func (f *fakeSocket) Open(kind connset.Kind, family int) (int, error) {
	f.nextFD++
	return f.nextFD, nil
}
func (f *fakeSocket) Close(fd int) error { f.closed[fd] = true; return nil }
func (f *fakeSocket) Connect(fd int, addr net.IP, port int) error { return nil }
func (f *fakeSocket) Configure(fd int, kind connset.Kind, opts connset.SocketOptions) error {
	return nil
}
func (f *fakeSocket) SendV(fd int, bufs [][]byte) (int, error) {
	n := 0
	for _, b := range bufs {
		f.sent[fd] = append(f.sent[fd], append([]byte(nil), b...))
		n += len(b)
	}
	return n, nil
}
func (f *fakeSocket) RecvFrom(fd int, buf []byte) (int, net.IP, error) {
	if err := f.recvErr[fd]; err != nil {
		return 0, nil, err
	}
	q := f.recvQueue[fd]
	if len(q) == 0 {
		return 0, nil, connset.ErrWouldBlock
	}
	next := q[0]
	f.recvQueue[fd] = q[1:]
	n := copy(buf, next)
	return n, f.recvFrom[fd], nil
}

type sequentialRng struct{ ids []uint16 }

func (r *sequentialRng) Uint16() uint16 {
	id := r.ids[0]
	r.ids = r.ids[1:]
	return id
}

func TestSendQueuesUDPQuery(t *testing.T) {
	sock := newFakeSocket()
	set := connset.New(sock, connset.SocketOptions{}, 0)
	tbl := querytable.New(&sequentialRng{ids: []uint16{7}})
	server := serverpool.NewServer(net.ParseIP("192.0.2.1"), 53, 53, 0)
	pool := serverpool.New([]*serverpool.Server{server}, nil)

	var completions []scheduler.Status
	sch := scheduler.New(pool, tbl, set, scheduler.Config{Tries: 3, BaseTimeout: time.Second},
		func(q *querytable.Query, status scheduler.Status, msg *dnswire.Message) {
			completions = append(completions, status)
		}, nil)

	q, err := sch.Send("example.com", dnswire.TypeA, dnswire.ClassIN, nil)
	require.NoError(t, err)
	assert.Equal(t, uint16(7), q.ID)
	assert.False(t, q.UsingTCP)
	assert.Empty(t, completions)

	conn, err := set.UDP(0, server.Addr, server.UDPPort)
	require.NoError(t, err)
	assert.Len(t, sock.sent[conn.FD], 1)
}

func buildReply(id uint16, name string, qtype dnswire.RecordType, rcode dnswire.RCode, answers []dnswire.Record, truncated bool) []byte {
	q := dnswire.NewQuestion(name, qtype)
	msg := dnswire.NewQueryMessage(id, q, 0)
	msg.Header.Flags |= dnswire.FlagQR | dnswire.FlagRA
	if truncated {
		msg.Header.Flags |= dnswire.FlagTC
	}
	msg.SetRCode(rcode)
	msg.Answers = answers
	out, _ := msg.Marshal()
	return out
}

func TestOnReadableDeliversSuccessReply(t *testing.T) {
	sock := newFakeSocket()
	set := connset.New(sock, connset.SocketOptions{}, 0)
	tbl := querytable.New(&sequentialRng{ids: []uint16{11}})
	server := serverpool.NewServer(net.ParseIP("192.0.2.1"), 53, 53, 0)
	pool := serverpool.New([]*serverpool.Server{server}, nil)

	var gotStatus scheduler.Status
	var gotMsg *dnswire.Message
	sch := scheduler.New(pool, tbl, set, scheduler.Config{Tries: 3, BaseTimeout: time.Second},
		func(q *querytable.Query, status scheduler.Status, msg *dnswire.Message) {
			gotStatus = status
			gotMsg = msg
		}, nil)

	q, err := sch.Send("example.com", dnswire.TypeA, dnswire.ClassIN, nil)
	require.NoError(t, err)

	conn, err := set.UDP(0, server.Addr, server.UDPPort)
	require.NoError(t, err)

	answer := dnswire.NewIPRecord(dnswire.NewRRHeader("example.com", dnswire.ClassIN, 300), net.ParseIP("1.2.3.4"))
	reply := buildReply(q.ID, "example.com", dnswire.TypeA, dnswire.RCodeNoError, []dnswire.Record{answer}, false)
	sock.recvQueue[conn.FD] = [][]byte{reply}
	sock.recvFrom[conn.FD] = server.Addr

	require.NoError(t, sch.OnReadable(conn.FD))
	assert.Equal(t, scheduler.StatusSuccess, gotStatus)
	require.NotNil(t, gotMsg)
	assert.Len(t, gotMsg.Answers, 1)
	assert.Equal(t, 0, tbl.Len())
}

func TestOnReadableTruncationRetriesOverTCP(t *testing.T) {
	sock := newFakeSocket()
	set := connset.New(sock, connset.SocketOptions{}, 0)
	tbl := querytable.New(&sequentialRng{ids: []uint16{21}})
	server := serverpool.NewServer(net.ParseIP("192.0.2.1"), 53, 53, 0)
	pool := serverpool.New([]*serverpool.Server{server}, nil)

	var completed bool
	sch := scheduler.New(pool, tbl, set, scheduler.Config{Tries: 3, BaseTimeout: time.Second},
		func(q *querytable.Query, status scheduler.Status, msg *dnswire.Message) {
			completed = true
		}, nil)

	q, err := sch.Send("example.com", dnswire.TypeA, dnswire.ClassIN, nil)
	require.NoError(t, err)

	udpConn, err := set.UDP(0, server.Addr, server.UDPPort)
	require.NoError(t, err)

	reply := buildReply(q.ID, "example.com", dnswire.TypeA, dnswire.RCodeNoError, nil, true)
	sock.recvQueue[udpConn.FD] = [][]byte{reply}
	sock.recvFrom[udpConn.FD] = server.Addr

	require.NoError(t, sch.OnReadable(udpConn.FD))
	assert.False(t, completed)
	assert.True(t, q.UsingTCP)
	assert.Equal(t, 1, tbl.Len())

	tcpConn, err := set.TCP(0, server.Addr, server.TCPPort)
	require.NoError(t, err)
	require.NotEmpty(t, sock.sent[tcpConn.FD])
}

func TestTickRetriesThenTimesOut(t *testing.T) {
	sock := newFakeSocket()
	set := connset.New(sock, connset.SocketOptions{}, 0)
	tbl := querytable.New(&sequentialRng{ids: []uint16{31}})
	server := serverpool.NewServer(net.ParseIP("192.0.2.1"), 53, 53, 0)
	pool := serverpool.New([]*serverpool.Server{server}, nil)

	var statuses []scheduler.Status
	sch := scheduler.New(pool, tbl, set, scheduler.Config{Tries: 2, BaseTimeout: time.Second},
		func(q *querytable.Query, status scheduler.Status, msg *dnswire.Message) {
			statuses = append(statuses, status)
		}, nil)

	now := time.Unix(1000, 0)
	sch.SetClock(func() time.Time { return now })

	_, err := sch.Send("example.com", dnswire.TypeA, dnswire.ClassIN, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())

	now = now.Add(10 * time.Second)
	sch.Tick(now)
	assert.Equal(t, 1, tbl.Len()) // retried, not yet exhausted
	assert.Empty(t, statuses)

	now = now.Add(10 * time.Second)
	sch.Tick(now)
	require.Len(t, statuses, 1)
	assert.Equal(t, scheduler.StatusTimeout, statuses[0])
	assert.Equal(t, 0, tbl.Len())
}

func TestCancelCompletesQueryOnce(t *testing.T) {
	sock := newFakeSocket()
	set := connset.New(sock, connset.SocketOptions{}, 0)
	tbl := querytable.New(&sequentialRng{ids: []uint16{41}})
	server := serverpool.NewServer(net.ParseIP("192.0.2.1"), 53, 53, 0)
	pool := serverpool.New([]*serverpool.Server{server}, nil)

	var statuses []scheduler.Status
	sch := scheduler.New(pool, tbl, set, scheduler.Config{Tries: 3, BaseTimeout: time.Second},
		func(q *querytable.Query, status scheduler.Status, msg *dnswire.Message) {
			statuses = append(statuses, status)
		}, nil)

	q, err := sch.Send("example.com", dnswire.TypeA, dnswire.ClassIN, nil)
	require.NoError(t, err)

	require.NoError(t, sch.Cancel(q))
	require.Len(t, statuses, 1)
	assert.Equal(t, scheduler.StatusCancelled, statuses[0])

	err = sch.Cancel(q)
	assert.ErrorIs(t, err, scheduler.ErrUnknownQuery)
}

func TestCancelAllCompletesWithDestruction(t *testing.T) {
	sock := newFakeSocket()
	set := connset.New(sock, connset.SocketOptions{}, 0)
	tbl := querytable.New(&sequentialRng{ids: []uint16{51, 52}})
	server := serverpool.NewServer(net.ParseIP("192.0.2.1"), 53, 53, 0)
	pool := serverpool.New([]*serverpool.Server{server}, nil)

	var statuses []scheduler.Status
	sch := scheduler.New(pool, tbl, set, scheduler.Config{Tries: 3, BaseTimeout: time.Second},
		func(q *querytable.Query, status scheduler.Status, msg *dnswire.Message) {
			statuses = append(statuses, status)
		}, nil)

	_, err := sch.Send("a.example.com", dnswire.TypeA, dnswire.ClassIN, nil)
	require.NoError(t, err)
	_, err = sch.Send("b.example.com", dnswire.TypeA, dnswire.ClassIN, nil)
	require.NoError(t, err)

	sch.CancelAll()
	require.Len(t, statuses, 2)
	for _, s := range statuses {
		assert.Equal(t, scheduler.StatusDestruction, s)
	}
	assert.Equal(t, 0, tbl.Len())
}

func TestSendFailsWithoutServers(t *testing.T) {
	sock := newFakeSocket()
	set := connset.New(sock, connset.SocketOptions{}, 0)
	tbl := querytable.New(&sequentialRng{ids: []uint16{1}})
	pool := serverpool.New(nil, nil)

	sch := scheduler.New(pool, tbl, set, scheduler.Config{}, nil, nil)
	_, err := sch.Send("example.com", dnswire.TypeA, dnswire.ClassIN, nil)
	assert.ErrorIs(t, err, scheduler.ErrNoServers)
}

func TestReplyFromMismatchedPeerIsDropped(t *testing.T) {
	sock := newFakeSocket()
	set := connset.New(sock, connset.SocketOptions{}, 0)
	tbl := querytable.New(&sequentialRng{ids: []uint16{61}})
	server := serverpool.NewServer(net.ParseIP("192.0.2.1"), 53, 53, 0)
	pool := serverpool.New([]*serverpool.Server{server}, nil)

	sch := scheduler.New(pool, tbl, set, scheduler.Config{Tries: 3, BaseTimeout: time.Second}, nil, nil)
	_, err := sch.Send("example.com", dnswire.TypeA, dnswire.ClassIN, nil)
	require.NoError(t, err)

	conn, err := set.UDP(0, server.Addr, server.UDPPort)
	require.NoError(t, err)
	sock.recvQueue[conn.FD] = [][]byte{[]byte("not a dns message")}
	sock.recvFrom[conn.FD] = net.ParseIP("198.51.100.9") // spoofed peer

	err = sch.OnReadable(conn.FD)
	assert.NoError(t, err) // mismatched peer is silently dropped, not surfaced
}

func TestTCPReadErrorReconnectsAndResendsOutstandingQueries(t *testing.T) {
	sock := newFakeSocket()
	set := connset.New(sock, connset.SocketOptions{}, 0)
	tbl := querytable.New(&sequentialRng{ids: []uint16{88}})
	server := serverpool.NewServer(net.ParseIP("192.0.2.1"), 53, 53, 0)
	pool := serverpool.New([]*serverpool.Server{server}, nil)

	sch := scheduler.New(pool, tbl, set, scheduler.Config{Tries: 3, BaseTimeout: time.Second, ForceTCP: true}, nil, nil)
	q, err := sch.Send("example.com", dnswire.TypeA, dnswire.ClassIN, nil)
	require.NoError(t, err)
	assert.True(t, q.UsingTCP)

	oldConn, err := set.TCP(0, server.Addr, server.TCPPort)
	require.NoError(t, err)
	sock.recvErr[oldConn.FD] = errors.New("connection reset by peer")

	err = sch.OnReadable(oldConn.FD)
	require.NoError(t, err)

	// the query is still outstanding, now resent on a new, higher-generation
	// TCP connection rather than left to strand until its deadline.
	assert.Equal(t, 1, tbl.Len())
	newConn, err := set.TCP(0, server.Addr, server.TCPPort)
	require.NoError(t, err)
	assert.NotEqual(t, oldConn.FD, newConn.FD)
	assert.Equal(t, oldConn.Generation+1, newConn.Generation)
	assert.Len(t, sock.sent[newConn.FD], 1)
}
