package aresgo

import (
	"net"

	"github.com/aresgo/aresgo/internal/connset"
)

// hookedSocket wraps a connset.Socket so SetSocketCreateCallback and
// SetSocketConfigureCallback (spec.md §6 hook registration) fire around
// every real socket operation, and so SetSocketFunctions can swap the
// underlying implementation after construction without the
// already-built Connection Set needing to know.
type hookedSocket struct {
	real connset.Socket
	c    *Channel
}

func newHookedSocket(real connset.Socket, c *Channel) *hookedSocket {
	return &hookedSocket{real: real, c: c}
}

func (h *hookedSocket) swap(s connset.Socket) { h.real = s }

func (h *hookedSocket) Open(kind connset.Kind, family int) (int, error) {
	fd, err := h.real.Open(kind, family)
	if err != nil {
		return fd, err
	}
	if h.c.onSocketCreate != nil {
		if err := h.c.onSocketCreate(fd, kind); err != nil {
			_ = h.real.Close(fd)
			return -1, err
		}
	}
	return fd, nil
}

func (h *hookedSocket) Close(fd int) error { return h.real.Close(fd) }

func (h *hookedSocket) Connect(fd int, addr net.IP, port int) error {
	return h.real.Connect(fd, addr, port)
}

func (h *hookedSocket) Configure(fd int, kind connset.Kind, opts connset.SocketOptions) error {
	if err := h.real.Configure(fd, kind, opts); err != nil {
		return err
	}
	if h.c.onConfigure != nil {
		return h.c.onConfigure(fd, kind)
	}
	return nil
}

func (h *hookedSocket) SendV(fd int, bufs [][]byte) (int, error) { return h.real.SendV(fd, bufs) }

func (h *hookedSocket) RecvFrom(fd int, buf []byte) (int, net.IP, error) {
	return h.real.RecvFrom(fd, buf)
}
