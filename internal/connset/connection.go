package connset

import (
	"net"
	"time"
)

// Connection wraps one socket toward one server: UDP or TCP, pending
// writes, and (for TCP) the incremental framer plus a generation counter
// so in-flight responses on a reused stream can be attributed correctly.
type Connection struct {
	Kind Kind
	FD   int
	Peer net.IP
	Port int

	Generation int // incremented every time the TCP connection is replaced

	pendingWrites [][]byte // queued, in order; partial writes remain head-of-line
	framer        tcpFramer

	LastActivity time.Time

	udpQueriesSent int // for the udp_max_queries discard policy

	sock Socket
}

// newConnection opens and connects fd for kind toward peer:port, applying
// opts.
func newConnection(sock Socket, kind Kind, peer net.IP, port int, opts SocketOptions) (*Connection, error) {
	family := unixFamilyFor(peer)
	fd, err := sock.Open(kind, family)
	if err != nil {
		return nil, err
	}
	if err := sock.Configure(fd, kind, opts); err != nil {
		_ = sock.Close(fd)
		return nil, err
	}
	if err := sock.Connect(fd, peer, port); err != nil {
		_ = sock.Close(fd)
		return nil, err
	}
	return &Connection{
		Kind: kind, FD: fd, Peer: peer, Port: port,
		LastActivity: time.Now(),
		sock:         sock,
	}, nil
}

// Close tears down the underlying socket. Safe to call more than once.
func (c *Connection) Close() error {
	if c.FD < 0 {
		return nil
	}
	err := c.sock.Close(c.FD)
	c.FD = -1
	return err
}

// QueueWrite appends a fully-framed message (TCP: length-prefixed; UDP: raw
// datagram) to the pending-write queue.
func (c *Connection) QueueWrite(msg []byte) {
	if c.Kind == KindTCP {
		c.pendingWrites = append(c.pendingWrites, encodeFrame(msg))
		return
	}
	c.pendingWrites = append(c.pendingWrites, msg)
}

// HasPendingWrites reports whether any queued bytes remain unsent.
func (c *Connection) HasPendingWrites() bool { return len(c.pendingWrites) > 0 }

// FlushWrites drains as much of the pending-write queue as the socket will
// accept without blocking. Returns ErrWouldBlock (wrapped) when the queue
// is not yet empty and the caller should wait for the next writable
// notification.
func (c *Connection) FlushWrites() error {
	for len(c.pendingWrites) > 0 {
		head := c.pendingWrites[0]
		n, err := c.sock.SendV(c.FD, [][]byte{head})
		if n > 0 {
			c.LastActivity = time.Now()
		}
		if err != nil {
			if n > 0 && n < len(head) {
				c.pendingWrites[0] = head[n:] // partial write stays head-of-line
			}
			return err
		}
		c.pendingWrites = c.pendingWrites[1:]
	}
	return nil
}

// ReadUDP reads one datagram, verifying its source matches Peer (the
// off-path spoofing guard spec.md §4.4 requires).
func (c *Connection) ReadUDP(buf []byte) (int, error) {
	n, from, err := c.sock.RecvFrom(c.FD, buf)
	if err != nil {
		return 0, err
	}
	if !from.Equal(c.Peer) {
		return 0, ErrPeerMismatch
	}
	c.LastActivity = time.Now()
	c.udpQueriesSent++ // counts replies; Set.udpShouldDiscard compares this against udp_max_queries
	return n, nil
}

// ReadTCP reads raw bytes off the TCP socket and returns every complete
// message frame assembled so far.
func (c *Connection) ReadTCP(buf []byte) ([][]byte, error) {
	n, _, err := c.sock.RecvFrom(c.FD, buf)
	if err != nil {
		return nil, err
	}
	c.LastActivity = time.Now()
	return c.framer.feed(buf[:n]), nil
}

func unixFamilyFor(ip net.IP) int {
	if ip.To4() != nil {
		return 2 // AF_INET
	}
	return 10 // AF_INET6
}
