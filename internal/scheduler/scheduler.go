// Package scheduler drives a channel's in-flight queries: picking a
// server, encoding and sending, matching replies, retrying on timeout, and
// failing over across servers (spec.md §4.6).
package scheduler

import (
	"errors"
	"time"

	"github.com/aresgo/aresgo/internal/connset"
	"github.com/aresgo/aresgo/internal/dnswire"
	bufpool "github.com/aresgo/aresgo/internal/pool"
	"github.com/aresgo/aresgo/internal/querytable"
	"github.com/aresgo/aresgo/internal/serverpool"
)

// maxTCPFrameSize bounds a single TCP read buffer; DNS-over-TCP messages
// never exceed 65535 bytes per the two-byte length prefix.
const maxTCPFrameSize = 65535

// CompletionFunc is invoked exactly once per query, terminally, carrying
// the parsed reply (nil on failure statuses that never produced one).
type CompletionFunc func(q *querytable.Query, status Status, msg *dnswire.Message)

// SocketStateFunc mirrors the host's on_socket_state hook (spec.md §4.4):
// the sole mechanism by which the host learns which descriptors to poll.
type SocketStateFunc func(fd int, wantRead, wantWrite bool)

// Config holds the scheduling parameters drawn from the channel
// configuration (spec.md §6).
type Config struct {
	Tries       int
	BaseTimeout time.Duration
	MaxTimeout  time.Duration
	ForceTCP    bool // Usevc flag
	IgnoreTC    bool // Igntc flag
	EDNSUDPSize int  // 0 disables EDNS0
}

// Scheduler implements spec.md §4.6 over a Server Pool, a Query Table, and
// a Connection Set. It performs no I/O of its own beyond what the
// Connection Set's Socket capability does; the host drives it through
// Send, OnReadable, OnWritable, Tick, and Cancel.
type Scheduler struct {
	pool  *serverpool.Pool
	table *querytable.Table
	conns *connset.Set

	cfg Config

	onComplete    CompletionFunc
	onSocketState SocketStateFunc

	udpBufs *bufpool.Pool[[]byte]
	tcpBufs *bufpool.Pool[[]byte]

	// now is overridable for deterministic tests; nil means time.Now.
	now func() time.Time
}

// New builds a Scheduler over the given components. onComplete is called
// exactly once per query, terminally.
func New(pool *serverpool.Pool, table *querytable.Table, conns *connset.Set, cfg Config, onComplete CompletionFunc, onSocketState SocketStateFunc) *Scheduler {
	if cfg.Tries <= 0 {
		cfg.Tries = 3
	}
	if cfg.BaseTimeout <= 0 {
		cfg.BaseTimeout = 2 * time.Second
	}
	return &Scheduler{
		pool: pool, table: table, conns: conns,
		cfg:           cfg,
		onComplete:    onComplete,
		onSocketState: onSocketState,
		udpBufs:       bufpool.New(func() []byte { return make([]byte, dnswire.MaxIncomingDNSMessageSize) }),
		tcpBufs:       bufpool.New(func() []byte { return make([]byte, maxTCPFrameSize) }),
	}
}

// SetClock overrides the scheduler's notion of "now", for deterministic
// tests; nil restores time.Now.
func (s *Scheduler) SetClock(now func() time.Time) { s.now = now }

func (s *Scheduler) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// Send issues a new query for (name, qtype, qclass), returning the Query
// handle inserted into the Query Table. searchState is opaque caller
// context (the Search Pipeline's resumption state) carried through to the
// completion callback.
func (s *Scheduler) Send(name string, qtype dnswire.RecordType, qclass dnswire.RecordClass, searchState any) (*querytable.Query, error) {
	if s.pool.Len() == 0 {
		return nil, ErrNoServers
	}
	now := s.clock()
	server := s.pool.BestServer(now)

	q := &querytable.Query{
		Name:        name,
		Class:       uint16(qclass),
		Type:        uint16(qtype),
		ServerIndex: server.Index(),
		SearchState: searchState,
	}
	if err := s.table.Insert(q); err != nil {
		return nil, err
	}
	if err := s.encodeAndSend(q, server, now); err != nil {
		s.table.Remove(q)
		return nil, err
	}
	return q, nil
}

// encodeAndSend builds the wire message for q's current attempt, chooses a
// transport, queues it on the appropriate connection, and sets q's
// deadline (spec.md §4.6 steps 1-5; id allocation already happened in
// Insert).
func (s *Scheduler) encodeAndSend(q *querytable.Query, server *serverpool.Server, now time.Time) error {
	question := dnswire.NewQuestion(q.Name, dnswire.RecordType(q.Type))
	msg := dnswire.NewQueryMessage(q.ID, question, s.cfg.EDNSUDPSize)
	encoded, err := msg.Marshal()
	if err != nil {
		return err
	}

	useTCP := q.UsingTCP || s.cfg.ForceTCP
	if !useTCP && s.cfg.EDNSUDPSize == 0 && len(encoded) > dnswire.DefaultUDPPayloadSize {
		useTCP = true
	}
	q.UsingTCP = useTCP
	q.EncodedQuestion = encoded

	var conn *connset.Connection
	if useTCP {
		conn, err = s.conns.TCP(server.Index(), server.Addr, server.TCPPort)
	} else {
		conn, err = s.conns.UDP(server.Index(), server.Addr, server.UDPPort)
	}
	if err != nil {
		return err
	}

	conn.QueueWrite(encoded)
	s.notifySocketState(conn)

	q.SentAt = now.UnixNano()
	timeout := s.pool.AdaptiveTimeout(server.Index(), s.cfg.BaseTimeout, s.cfg.MaxTimeout)
	s.table.UpdateDeadline(q, now.Add(timeout).UnixNano())
	return nil
}

func (s *Scheduler) notifySocketState(conn *connset.Connection) {
	if s.onSocketState != nil {
		s.onSocketState(conn.FD, true, conn.HasPendingWrites())
	}
}

// OnReadable handles a readability notification for fd, reading as much as
// is available without blocking and dispatching every complete reply found.
func (s *Scheduler) OnReadable(fd int) error {
	index, kind, conn, ok := s.conns.Lookup(fd)
	if !ok {
		return nil
	}

	if kind == connset.KindUDP {
		buf := s.udpBufs.Get()
		defer s.udpBufs.Put(buf)
		n, err := conn.ReadUDP(buf)
		if err != nil {
			return s.handleReadError(index, kind, err)
		}
		s.dispatch(buf[:n], index, kind)
		return nil
	}

	buf := s.tcpBufs.Get()
	defer s.tcpBufs.Put(buf)
	frames, err := conn.ReadTCP(buf)
	if err != nil {
		return s.handleReadError(index, kind, err)
	}
	for _, frame := range frames {
		s.dispatch(frame, index, kind)
	}
	return nil
}

func (s *Scheduler) handleReadError(index int, kind connset.Kind, err error) error {
	if errors.Is(err, connset.ErrWouldBlock) {
		return nil
	}
	if errors.Is(err, connset.ErrPeerMismatch) {
		return nil // off-path spoofing attempt, silently dropped
	}
	s.pool.OnFailure(index, s.clock())
	if kind == connset.KindTCP {
		return s.reconnectAndResend(index)
	}
	// the UDP socket stays open after a read error; in-flight queries on it
	// time out and fail over through the normal Tick path.
	return err
}

// reconnectAndResend replaces the TCP stream for index and resends every
// query still outstanding on it over the fresh connection (spec.md §4.4:
// a peer-closed or errored TCP stream must not silently strand its
// in-flight queries until their timeout). Queries already answered or
// moved to a different server by the time this runs are untouched.
func (s *Scheduler) reconnectAndResend(index int) error {
	server := s.pool.Server(index)
	if _, err := s.conns.ReconnectTCP(index, server.Addr, server.TCPPort); err != nil {
		return err
	}

	now := s.clock()
	for _, q := range s.table.All() {
		if q.ServerIndex != index || !q.UsingTCP {
			continue
		}
		if err := s.encodeAndSend(q, server, now); err != nil {
			s.table.Remove(q)
			s.complete(q, StatusConnRefused, nil)
		}
	}
	return nil
}

// OnWritable handles a writability notification for fd, draining as much
// of the connection's pending-write queue as the socket accepts.
func (s *Scheduler) OnWritable(fd int) error {
	_, _, conn, ok := s.conns.Lookup(fd)
	if !ok {
		return nil
	}
	err := conn.FlushWrites()
	s.notifySocketState(conn)
	if err != nil && !errors.Is(err, connset.ErrWouldBlock) {
		return err
	}
	return nil
}

// dispatch parses raw as a reply arriving on server index via the given
// transport kind, matches it to its in-flight Query, and either completes
// the query, reissues it over TCP (truncation), or silently drops it
// (parse failure or mismatched question — the attempt proceeds to retry
// via Tick, per spec.md §7's propagation rule for wire-parse errors).
func (s *Scheduler) dispatch(raw []byte, index int, kind connset.Kind) {
	msg, err := dnswire.ParseMessage(raw)
	if err != nil {
		return
	}
	q := s.table.Lookup(msg.Header.ID)
	if q == nil {
		return
	}
	if len(msg.Questions) != 1 || !matchesQuestion(q, msg.Questions[0]) {
		return
	}

	if kind == connset.KindUDP && msg.Header.IsTruncated() && !s.cfg.IgnoreTC {
		s.retryOverTCP(q, index)
		return
	}

	s.table.Remove(q)
	status := statusFromRCode(msg.RCode())
	if status == StatusSuccess && len(msg.Answers) == 0 {
		status = StatusNoData
	}

	now := s.clock()
	if status.Terminal() {
		latency := time.Duration(now.UnixNano() - q.SentAt)
		s.pool.OnSuccess(q.ServerIndex, latency, now)
		s.complete(q, status, msg)
		return
	}

	// SERVFAIL/FORMERR/NOTIMP/REFUSED are server errors, not authoritative
	// answers (spec.md §4.6, §7): fail over to the next server exactly as
	// a timeout does in Tick, only surfacing status once attempts run out.
	s.failover(q, status, now)
}

// failover retries q against the next server in the pool if attempts
// remain, otherwise completes it with status. Shared by dispatch's
// server-error path and Tick's timeout path (spec.md §4.6). Neither caller
// records a failure before calling here; OnFailure is called only when the
// query moves on to another attempt, so a query that exhausts its tries on
// this attempt is completed without penalizing the server that handled it.
func (s *Scheduler) failover(q *querytable.Query, status Status, now time.Time) {
	q.AttemptCount++
	if q.AttemptCount >= s.cfg.Tries {
		s.complete(q, status, nil)
		return
	}

	s.pool.OnFailure(q.ServerIndex, now)
	q.ServerIndex = s.pool.NextIndex(q.ServerIndex)
	q.UsingTCP = false // a fresh server gets its own UDP-first attempt

	server := s.pool.Server(q.ServerIndex)
	if err := s.encodeAndSend(q, server, now); err != nil {
		s.complete(q, StatusConnRefused, nil)
		return
	}
	if err := s.table.Requeue(q, q.DeadlineAt); err != nil {
		_ = s.table.Insert(q)
	}
}

func (s *Scheduler) retryOverTCP(q *querytable.Query, index int) {
	s.table.Remove(q)
	q.UsingTCP = true
	server := s.pool.Server(index)
	now := s.clock()
	if err := s.encodeAndSend(q, server, now); err != nil {
		s.complete(q, StatusConnRefused, nil)
		return
	}
	if err := s.table.Requeue(q, q.DeadlineAt); err != nil {
		_ = s.table.Insert(q)
	}
}

func matchesQuestion(q *querytable.Query, got dnswire.Question) bool {
	return dnswire.NormalizeName(got.Name) == dnswire.NormalizeName(q.Name) &&
		uint16(got.Type) == q.Type &&
		uint16(got.Class) == q.Class
}

// Tick processes every query whose deadline has passed as of now: retried
// against the next server if attempts remain, otherwise completed with
// Timeout (spec.md §4.6's tick algorithm).
func (s *Scheduler) Tick(now time.Time) {
	expired := s.table.PopExpired(now.UnixNano())
	for _, q := range expired {
		s.failover(q, StatusTimeout, now)
	}
}

// NextDeadline reports the nearest upcoming query deadline, for a host
// implementing the timeout(channel, now, max) facade call.
func (s *Scheduler) NextDeadline() (time.Time, bool) {
	nanos, ok := s.table.NextDeadline()
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(0, nanos), true
}

// Cancel completes q with Cancelled, synchronously, without re-entering
// the table (spec.md §5's cancellation semantics).
func (s *Scheduler) Cancel(q *querytable.Query) error {
	if s.table.Lookup(q.ID) != q {
		return ErrUnknownQuery
	}
	s.table.Remove(q)
	s.complete(q, StatusCancelled, nil)
	return nil
}

// CancelAll completes every live query with Destruction, for
// channel_destroy (spec.md §4.8).
func (s *Scheduler) CancelAll() {
	for _, q := range s.table.All() {
		s.table.Remove(q)
		s.complete(q, StatusDestruction, nil)
	}
}

func (s *Scheduler) complete(q *querytable.Query, status Status, msg *dnswire.Message) {
	switch status {
	case StatusTimeout:
		q.State = querytable.StateTimedOut
	case StatusCancelled, StatusDestruction:
		q.State = querytable.StateCancelled
	default:
		q.State = querytable.StateReplied
	}
	if s.onComplete != nil {
		s.onComplete(q, status, msg)
	}
}
