package connset

import (
	"net"
	"time"
)

// ServerConns holds the (up to) one UDP and one TCP connection for a
// single server index.
type ServerConns struct {
	UDP *Connection
	TCP *Connection
}

// Set owns at most one UDP and one TCP Connection per server index,
// applies the UDP discard policy, and tracks TCP generations across
// reconnects (spec.md §4.4).
type Set struct {
	sock Socket
	opts SocketOptions

	udpMaxQueries int // 0 means unlimited

	byIndex map[int]*ServerConns
	byFD    map[int]connRef
}

type connRef struct {
	index int
	kind  Kind
}

// New creates an empty connection set using sock for I/O. udpMaxQueries
// implements the udp_max_queries discard policy: once a UDP socket has
// received that many replies it is closed and replaced on the next send.
func New(sock Socket, opts SocketOptions, udpMaxQueries int) *Set {
	if sock == nil {
		sock = DefaultSocket
	}
	return &Set{
		sock:          sock,
		opts:          opts,
		udpMaxQueries: udpMaxQueries,
		byIndex:       make(map[int]*ServerConns),
		byFD:          make(map[int]connRef),
	}
}

// UDP returns the UDP connection for index, opening one (and discarding a
// worn-out one per the udp_max_queries policy) if necessary.
func (s *Set) UDP(index int, peer net.IP, port int) (*Connection, error) {
	sc := s.entry(index)
	if sc.UDP != nil && s.udpShouldDiscard(sc.UDP) {
		s.closeConn(sc.UDP)
		sc.UDP = nil
	}
	if sc.UDP == nil {
		c, err := newConnection(s.sock, KindUDP, peer, port, s.opts)
		if err != nil {
			return nil, err
		}
		sc.UDP = c
		s.byFD[c.FD] = connRef{index: index, kind: KindUDP}
	}
	return sc.UDP, nil
}

// TCP returns the persistent TCP connection for index, opening one if
// necessary. A connection opened here starts at Generation 0; replacing a
// stream goes through ReconnectTCP, which gives the new connection the old
// one's Generation plus one. CloseAll drops the connection and with it the
// count, so a connection opened after CloseAll starts at 0 again.
func (s *Set) TCP(index int, peer net.IP, port int) (*Connection, error) {
	sc := s.entry(index)
	if sc.TCP == nil {
		gen := 0
		c, err := newConnection(s.sock, KindTCP, peer, port, s.opts)
		if err != nil {
			return nil, err
		}
		c.Generation = gen
		sc.TCP = c
		s.byFD[c.FD] = connRef{index: index, kind: KindTCP}
	}
	return sc.TCP, nil
}

// ReconnectTCP closes and replaces the TCP connection for index, bumping
// its generation. Called when a TCP stream errors or is closed by the
// peer and queries queued on it must be resent on a fresh stream.
func (s *Set) ReconnectTCP(index int, peer net.IP, port int) (*Connection, error) {
	sc := s.entry(index)
	prevGen := 0
	if sc.TCP != nil {
		prevGen = sc.TCP.Generation
		s.closeConn(sc.TCP)
		sc.TCP = nil
	}
	c, err := newConnection(s.sock, KindTCP, peer, port, s.opts)
	if err != nil {
		return nil, err
	}
	c.Generation = prevGen + 1
	sc.TCP = c
	s.byFD[c.FD] = connRef{index: index, kind: KindTCP}
	return c, nil
}

// Lookup resolves an fd (as reported by the host's readiness notification)
// back to its owning server index, kind, and Connection.
func (s *Set) Lookup(fd int) (index int, kind Kind, conn *Connection, ok bool) {
	ref, ok := s.byFD[fd]
	if !ok {
		return 0, 0, nil, false
	}
	sc := s.byIndex[ref.index]
	if ref.kind == KindUDP {
		return ref.index, KindUDP, sc.UDP, true
	}
	return ref.index, KindTCP, sc.TCP, true
}

// CloseAll tears down every connection in the set.
func (s *Set) CloseAll() {
	for _, sc := range s.byIndex {
		if sc.UDP != nil {
			s.closeConn(sc.UDP)
			sc.UDP = nil
		}
		if sc.TCP != nil {
			s.closeConn(sc.TCP)
			sc.TCP = nil
		}
	}
}

func (s *Set) entry(index int) *ServerConns {
	sc, ok := s.byIndex[index]
	if !ok {
		sc = &ServerConns{}
		s.byIndex[index] = sc
	}
	return sc
}

func (s *Set) closeConn(c *Connection) {
	delete(s.byFD, c.FD)
	_ = c.Close()
}

func (s *Set) udpShouldDiscard(c *Connection) bool {
	if s.udpMaxQueries <= 0 {
		return false
	}
	return c.udpQueriesSent >= s.udpMaxQueries
}

// Idle reports whether a connection has carried no traffic since before
// cutoff, a hook a host can use to prune long-unused TCP streams.
func Idle(c *Connection, cutoff time.Time) bool {
	return c.LastActivity.Before(cutoff)
}
