// Package connset owns the per-server UDP/TCP sockets a channel uses to
// talk to its configured name servers: at most one UDP and one TCP
// Connection per server, buffered writes, TCP framing, and the extra
// socket knobs spec.md §4.6 lists (spec.md §4.4).
package connset

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// Kind identifies a connection's transport.
type Kind int

const (
	KindUDP Kind = iota
	KindTCP
)

// SocketOptions are the extra per-connection knobs spec.md §4.6 lists,
// applied by Socket.Configure after a socket is opened but before it is
// used.
type SocketOptions struct {
	LocalAddr      net.IP
	SendBufferSize int
	RecvBufferSize int
	BindToDevice   string
	NoDelay        bool // TCP_NODELAY; ignored for UDP
	TFO            bool // opportunistic TCP Fast Open; ignored for UDP
}

// Socket is the pluggable platform-I/O capability (spec.md §6): Open,
// Close, Connect, SendV, RecvFrom. Channels default to defaultSocket
// (real POSIX sockets via golang.org/x/sys/unix) but a host may supply its
// own implementation to run over a non-POSIX transport.
type Socket interface {
	Open(kind Kind, family int) (fd int, err error)
	Close(fd int) error
	Connect(fd int, addr net.IP, port int) error
	Configure(fd int, kind Kind, opts SocketOptions) error
	SendV(fd int, bufs [][]byte) (n int, err error)
	RecvFrom(fd int, buf []byte) (n int, from net.IP, err error)
}

// defaultSocket implements Socket directly over non-blocking POSIX
// sockets, the way a stub resolver core normally talks to the kernel:
// spec.md's Socket capability exists precisely so this layer can be
// swapped out, but nothing in this package depends on the default.
type defaultSocket struct{}

// DefaultSocket is the Socket implementation used when a channel is not
// given one explicitly.
var DefaultSocket Socket = defaultSocket{}

func (defaultSocket) Open(kind Kind, family int) (int, error) {
	typ := unix.SOCK_DGRAM
	proto := unix.IPPROTO_UDP
	if kind == KindTCP {
		typ = unix.SOCK_STREAM
		proto = unix.IPPROTO_TCP
	}
	fd, err := unix.Socket(family, typ|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, proto)
	if err != nil {
		return -1, fmt.Errorf("connset: socket: %w", err)
	}
	return fd, nil
}

func (defaultSocket) Close(fd int) error {
	return unix.Close(fd)
}

func (defaultSocket) Connect(fd int, addr net.IP, port int) error {
	sa, err := sockaddr(addr, port)
	if err != nil {
		return err
	}
	if err := unix.Connect(fd, sa); err != nil && err != unix.EINPROGRESS {
		return fmt.Errorf("connset: connect: %w", err)
	}
	return nil
}

func (defaultSocket) Configure(fd int, kind Kind, opts SocketOptions) error {
	if opts.SendBufferSize > 0 {
		_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, opts.SendBufferSize)
	}
	if opts.RecvBufferSize > 0 {
		_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, opts.RecvBufferSize)
	}
	if opts.BindToDevice != "" {
		_ = unix.BindToDevice(fd, opts.BindToDevice)
	}
	if opts.LocalAddr != nil {
		sa, err := sockaddr(opts.LocalAddr, 0)
		if err == nil {
			_ = unix.Bind(fd, sa)
		}
	}
	if kind == KindTCP {
		if opts.NoDelay {
			_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
		}
		if opts.TFO {
			_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_FASTOPEN_CONNECT, 1)
		}
	}
	return nil
}

func (defaultSocket) SendV(fd int, bufs [][]byte) (int, error) {
	total := 0
	for _, b := range bufs {
		if len(b) == 0 {
			continue
		}
		n, err := unix.Write(fd, b)
		total += n
		if err != nil {
			if err == unix.EAGAIN {
				return total, errWouldBlock
			}
			return total, err
		}
		if n < len(b) {
			return total, errWouldBlock
		}
	}
	return total, nil
}

func (defaultSocket) RecvFrom(fd int, buf []byte) (int, net.IP, error) {
	n, from, err := unix.Recvfrom(fd, buf, 0)
	if err != nil {
		if err == unix.EAGAIN {
			return 0, nil, errWouldBlock
		}
		return 0, nil, err
	}
	ip := addrFromSockaddr(from)
	return n, ip, nil
}

func sockaddr(addr net.IP, port int) (unix.Sockaddr, error) {
	if v4 := addr.To4(); v4 != nil {
		var sa unix.SockaddrInet4
		sa.Port = port
		copy(sa.Addr[:], v4)
		return &sa, nil
	}
	v6 := addr.To16()
	if v6 == nil {
		return nil, fmt.Errorf("connset: invalid address %v", addr)
	}
	var sa unix.SockaddrInet6
	sa.Port = port
	copy(sa.Addr[:], v6)
	return &sa, nil
}

func addrFromSockaddr(sa unix.Sockaddr) net.IP {
	switch s := sa.(type) {
	case *unix.SockaddrInet4:
		ip := make(net.IP, 4)
		copy(ip, s.Addr[:])
		return ip
	case *unix.SockaddrInet6:
		ip := make(net.IP, 16)
		copy(ip, s.Addr[:])
		return ip
	default:
		return nil
	}
}
