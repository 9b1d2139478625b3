// Package aresgo is an embeddable, non-blocking DNS stub-resolver client
// library: it issues DNS queries, multiplexes them over UDP/TCP toward
// configured recursive servers, retries and fails over under loss, parses
// wire responses into structured records, and delivers results through
// callbacks. The host application owns the event loop, or asks aresgo to
// own one (see WithOwnedEventLoop).
package aresgo

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aresgo/aresgo/internal/connset"
	"github.com/aresgo/aresgo/internal/dnswire"
	"github.com/aresgo/aresgo/internal/logging"
	"github.com/aresgo/aresgo/internal/nameutil"
	"github.com/aresgo/aresgo/internal/querycache"
	"github.com/aresgo/aresgo/internal/querytable"
	"github.com/aresgo/aresgo/internal/scheduler"
	"github.com/aresgo/aresgo/internal/search"
	"github.com/aresgo/aresgo/internal/serverpool"
)

// QueryHandle identifies one in-flight query for Cancel (spec.md §4.8
// `cancel(channel, query_handle)`).
type QueryHandle struct {
	q *querytable.Query
}

// AddrInfoHints narrows a GetAddrInfo lookup (spec.md §4.8
// `get_addr_info`), mirroring getaddrinfo(3)'s hints struct.
type AddrInfoHints struct {
	Family Family
}

// Channel is a long-lived resolver: server selection, query lifecycles,
// socket allocation, timeouts, retries, and rotation, exactly spec.md §2's
// "resolver channel". A Channel is not safe for concurrent use across
// goroutines in host-driven mode (spec.md §5a); WithOwnedEventLoop
// provides the thread-safe alternative (§5b).
type Channel struct {
	id     string
	logger *slog.Logger

	// mu serializes every mutation of pool/table/conns/sched state. In
	// host-driven mode (spec.md §5a) the host only ever calls in from one
	// goroutine at a time and contention is nonexistent; in owned-event-
	// loop mode (§5b) it is what makes calls from other goroutines safe
	// to interleave with the I/O goroutine's own Process calls. It is
	// non-reentrant: a callback must never call back into a locking
	// Channel method from within the same call stack (this matches the
	// original's own restriction against reentering a channel from its
	// own callback).
	mu sync.Mutex

	cfg Config

	pool     *serverpool.Pool
	table    *querytable.Table
	conns    *connset.Set
	sched    *scheduler.Scheduler
	pipeline *search.Pipeline
	cache    *querycache.Cache
	hosts    *nameutil.HostsFile

	sock *hookedSocket

	onSocketState  func(fd int, wantRead, wantWrite bool)
	onSocketCreate func(fd int, kind connset.Kind) error
	onConfigure    func(fd int, kind connset.Kind) error

	now func() time.Time

	loop *eventLoop

	closed bool
}

// Option configures optional Channel behavior at construction time.
type Option func(*channelOptions)

type channelOptions struct {
	logger         *slog.Logger
	socket         connset.Socket
	socketOptions  connset.SocketOptions
	ownedEventLoop bool
}

// WithLogger overrides the default slog.Default() logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *channelOptions) { o.logger = l }
}

// WithLoggingConfig builds a logger via logging.Configure and installs it,
// for hosts that want the channel's log lines in the same
// level/structured-format/extra-fields shape as the rest of an
// aresgo-embedding application rather than constructing a *slog.Logger
// themselves.
func WithLoggingConfig(cfg logging.Config) Option {
	return func(o *channelOptions) { o.logger = logging.Configure(cfg) }
}

// WithSocket overrides the default POSIX Socket capability (spec.md §6's
// pluggable socket operations).
func WithSocket(s connset.Socket) Option {
	return func(o *channelOptions) { o.socket = s }
}

// WithSocketOptions sets the per-connection knobs spec.md §4.6 lists
// (local bind address, buffer sizes, SO_BINDTODEVICE, TCP_NODELAY, TFO).
func WithSocketOptions(opts connset.SocketOptions) Option {
	return func(o *channelOptions) { o.socketOptions = opts }
}

// WithOwnedEventLoop selects concurrency mode (b) from spec.md §5: the
// channel spawns its own I/O goroutine instead of requiring the host to
// call Process/Timeout.
func WithOwnedEventLoop() Option {
	return func(o *channelOptions) { o.ownedEventLoop = true }
}

// NewChannel builds a Channel from cfg (consumed by value, never retained
// by reference, per spec.md §5's ownership rule) and the given Options.
func NewChannel(cfg Config, opts ...Option) (*Channel, error) {
	cfg = cfg.WithDefaults()
	if len(cfg.Servers) == 0 {
		return nil, ErrNoServers
	}

	var o channelOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.socket == nil {
		o.socket = connset.DefaultSocket
	}

	servers := make([]*serverpool.Server, len(cfg.Servers))
	for i, sa := range cfg.Servers {
		servers[i] = serverpool.NewServer(sa.Addr, sa.UDPPort, sa.TCPPort, i)
	}
	if cfg.Flags.Has(FlagPrimary) {
		servers = servers[:1]
	}

	c := &Channel{
		id:     uuid.New().String(),
		logger: o.logger,
		cfg:    cfg,
		pool:   serverpool.New(servers, systemRand{}),
		table:  querytable.New(systemRand{}),
		now:    time.Now,
	}
	c.pool.Rotate = cfg.Rotate
	c.pool.RetryChance = cfg.ServerRetryChance
	c.pool.RetryDelay = cfg.ServerRetryDelay

	c.sock = newHookedSocket(o.socket, c)
	c.conns = connset.New(c.sock, o.socketOptions, cfg.UDPMaxQueries)

	schedCfg := scheduler.Config{
		Tries:       cfg.Tries,
		BaseTimeout: cfg.Timeout,
		MaxTimeout:  cfg.MaxTimeout,
		ForceTCP:    cfg.Flags.Has(FlagUsevc),
		IgnoreTC:    cfg.Flags.Has(FlagIgntc),
	}
	if cfg.Flags.Has(FlagEdns) {
		schedCfg.EDNSUDPSize = cfg.EDNSUDPSize
	}
	c.sched = scheduler.New(c.pool, c.table, c.conns, schedCfg, c.onComplete, c.dispatchSocketState)

	if !cfg.Flags.Has(FlagNoaliases) {
		hostsPath := cfg.HostsPath
		if hostsPath == "" {
			hostsPath = "/etc/hosts"
		}
		if hf, err := nameutil.LoadHostsFile(hostsPath); err == nil {
			c.hosts = hf
		} else {
			c.logger.Debug("aresgo: hosts file unavailable", "path", hostsPath, "error", err)
		}
	}

	c.pipeline = search.New(c.sched, c.hosts, cfg.Search, cfg.Ndots)

	if cfg.QCacheMaxTTL > 0 {
		c.cache = querycache.NewCache(1024, cfg.QCacheMaxTTL)
	}

	if o.ownedEventLoop {
		c.loop = newEventLoop(c)
		if err := c.loop.start(); err != nil {
			return nil, fmt.Errorf("aresgo: start owned event loop: %w", err)
		}
	}

	return c, nil
}

// Close cancels every in-flight query with StatusDestruction and closes
// all connections (spec.md §4.8 `channel_destroy`). A closed Channel
// rejects subsequent calls.
func (c *Channel) Close() {
	// loop.stop() must run unlocked: it blocks until the I/O goroutine
	// exits, and that goroutine calls Process (which takes c.mu) up until
	// the moment it observes the stop signal.
	if c.loop != nil {
		c.loop.stop()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.sched.CancelAll()
	c.conns.CloseAll()
	c.closed = true
}

// CancelAll completes every in-flight query with StatusCancelled but
// leaves the channel usable for new queries, distinct from Close
// (SPEC_FULL.md §6, mirroring the c-ares original's ares_cancel()).
func (c *Channel) CancelAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sched.CancelAll()
}

// Cancel completes one in-flight query with StatusCancelled.
func (c *Channel) Cancel(h QueryHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sched.Cancel(h.q)
}

// Process drives the channel from a host-owned event loop (spec.md §5a):
// it first processes any expired deadlines, then the readable/writable
// file descriptors the host observed ready. Pass -1 for a descriptor with
// nothing to report.
func (c *Channel) Process(readableFD, writableFD int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrDestruction
	}
	c.sched.Tick(c.now())
	var firstErr error
	if readableFD >= 0 {
		if err := c.sched.OnReadable(readableFD); err != nil {
			firstErr = err
		}
	}
	if writableFD >= 0 {
		if err := c.sched.OnWritable(writableFD); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Timeout reports the deadline the host should next call Process by, for
// use as a select()/poll() timeout, capped at max from now (spec.md §4.8
// `timeout(channel, now, max)`). ok is false when no query is in flight.
func (c *Channel) Timeout(now time.Time, max time.Duration) (time.Time, bool) {
	deadline, ok := c.sched.NextDeadline()
	if !ok {
		return time.Time{}, false
	}
	if max > 0 {
		if cap := now.Add(max); deadline.After(cap) {
			deadline = cap
		}
	}
	return deadline, true
}

// SetSocketStateCallback registers the hook invoked whenever a
// connection's desired poll interest (readable/writable) changes.
func (c *Channel) SetSocketStateCallback(cb func(fd int, wantRead, wantWrite bool)) {
	c.onSocketState = cb
}

// SetSocketCreateCallback registers a hook invoked right after a socket is
// opened, before it is connected or configured. A non-nil return aborts
// the connection attempt.
func (c *Channel) SetSocketCreateCallback(cb func(fd int, kind connset.Kind) error) {
	c.onSocketCreate = cb
}

// SetSocketConfigureCallback registers a hook invoked after
// Socket.Configure succeeds, for hosts that want to apply additional
// socket options of their own.
func (c *Channel) SetSocketConfigureCallback(cb func(fd int, kind connset.Kind) error) {
	c.onConfigure = cb
}

// SetSocketFunctions swaps the underlying Socket capability (spec.md §6),
// for hosts that want to redirect I/O through something other than real
// POSIX sockets after construction.
func (c *Channel) SetSocketFunctions(s connset.Socket) {
	c.sock.swap(s)
}

func (c *Channel) dispatchSocketState(fd int, wantRead, wantWrite bool) {
	if c.loop != nil {
		c.loop.updateInterest(fd, wantRead, wantWrite)
	}
	if c.onSocketState != nil {
		c.onSocketState(fd, wantRead, wantWrite)
	}
}

// GetHostByName resolves name to address records of the given family,
// delivering exactly one result to cb (spec.md §4.7).
func (c *Channel) GetHostByName(name string, family Family, cb func(HostResult, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		cb(HostResult{}, ErrDestruction)
		return
	}

	if c.cache != nil {
		if qtype, ok := cacheableType(family); ok {
			if msg, hit := c.cache.Lookup(name, qtype, dnswire.ClassIN, c.now()); hit {
				addrs, ttl := addrsAndTTLFromMessage(msg, qtype)
				c.logger.Debug("aresgo: qcache hit", "name", name, "channel_id", c.id)
				cb(HostResult{Name: name, Addrs: addrs, TTL: ttl}, nil)
				return
			}
		}
	}

	c.pipeline.GetByName(name, family, func(r search.Result) {
		if c.cache != nil && r.Status == StatusSuccess && r.Raw != nil && len(r.Raw.Questions) == 1 {
			q := r.Raw.Questions[0]
			c.cache.Store(q.Name, q.Type, q.Class, r.Raw, c.now())
		}
		cb(HostResult{Name: name, Addrs: r.Addrs, TTL: r.TTLCeiling}, errForStatus(r.Status))
	})
}

// GetHostByAddr performs a reverse (PTR) lookup for addr, consulting the
// hosts file before issuing a wire query.
func (c *Channel) GetHostByAddr(addr net.IP, cb func(string, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		cb("", ErrDestruction)
		return
	}
	if c.hosts != nil {
		if name, ok := c.hosts.ReverseLookup(addr); ok {
			cb(name, nil)
			return
		}
	}
	ptrName, err := nameutil.PTRName(addr)
	if err != nil {
		cb("", fmt.Errorf("%w: %v", ErrBadFamily, err))
		return
	}
	c.sendRawQuery(ptrName, dnswire.TypePTR, dnswire.ClassIN, func(status Status, msg *dnswire.Message) {
		if status != StatusSuccess {
			cb("", errForStatus(status))
			return
		}
		for _, rr := range msg.Answers {
			if nr, ok := rr.(*dnswire.NameRecord); ok && nr.Type() == dnswire.TypePTR {
				cb(nr.Target, nil)
				return
			}
		}
		cb("", ErrNoData)
	})
}

// GetAddrInfo resolves name (and, if service is a numeric port string, a
// port number) per hints, mirroring getaddrinfo(3) (spec.md §4.8
// `get_addr_info`). Delegates to GetHostByName for locking and caching;
// it does not take c.mu itself.
func (c *Channel) GetAddrInfo(name, service string, hints AddrInfoHints, cb func(AddrInfoResult, error)) {
	port := parseNumericPort(service)
	c.GetHostByName(name, hints.Family, func(hr HostResult, err error) {
		cb(AddrInfoResult{HostResult: hr, Port: port}, err)
	})
}

// Search issues name (expanded through the configured search list, spec.md
// §4.7 step 3) as a query of the given type and class, delivering the raw
// decoded reply (spec.md §4.8 `search`).
func (c *Channel) Search(name string, qtype dnswire.RecordType, qclass dnswire.RecordClass, cb func(RawResult, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		cb(RawResult{}, ErrDestruction)
		return
	}
	c.pipeline.SearchRaw(name, qtype, qclass, func(msg *dnswire.Message, status scheduler.Status) {
		cb(RawResult{Message: msg}, errForStatus(status))
	})
}

// SendRaw decodes wire (which must contain exactly one question) and
// reissues that question through the normal scheduling path, delivering
// the raw reply. The query handle allows cancellation.
func (c *Channel) SendRaw(wire []byte, cb func(RawResult, error)) (QueryHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return QueryHandle{}, ErrDestruction
	}
	msg, err := dnswire.ParseMessage(wire)
	if err != nil {
		return QueryHandle{}, fmt.Errorf("%w: %v", ErrBadQuery, err)
	}
	if len(msg.Questions) != 1 {
		return QueryHandle{}, fmt.Errorf("%w: send_raw requires exactly one question", ErrBadQuery)
	}
	q := msg.Questions[0]
	return c.sendRawQuery(q.Name, q.Type, q.Class, func(status Status, reply *dnswire.Message) {
		cb(RawResult{Message: reply}, errForStatus(status))
	})
}

func (c *Channel) sendRawQuery(name string, qtype dnswire.RecordType, qclass dnswire.RecordClass, cb func(Status, *dnswire.Message)) (QueryHandle, error) {
	query, err := c.sched.Send(name, qtype, qclass, &rawCompletion{cb: cb})
	if err != nil {
		return QueryHandle{}, err
	}
	return QueryHandle{q: query}, nil
}

func cacheableType(family Family) (dnswire.RecordType, bool) {
	switch family {
	case FamilyV4:
		return dnswire.TypeA, true
	case FamilyV6:
		return dnswire.TypeAAAA, true
	default:
		return 0, false
	}
}

func addrsAndTTLFromMessage(msg *dnswire.Message, want dnswire.RecordType) ([]net.IP, time.Duration) {
	var addrs []net.IP
	var minTTL uint32
	first := true
	for _, rr := range msg.Answers {
		ttl := rr.Header().TTL
		if first || ttl < minTTL {
			minTTL = ttl
			first = false
		}
		if ip, ok := rr.(*dnswire.IPRecord); ok && rr.Type() == want {
			addrs = append(addrs, ip.Addr)
		}
	}
	return addrs, time.Duration(minTTL) * time.Second
}

func parseNumericPort(service string) int {
	if service == "" {
		return 0
	}
	n := 0
	for _, ch := range service {
		if ch < '0' || ch > '9' {
			return 0
		}
		n = n*10 + int(ch-'0')
	}
	if n > 65535 {
		return 0
	}
	return n
}
