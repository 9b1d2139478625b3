package aresgo

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// eventLoop implements spec.md §5b's owned-event-thread mode: one
// goroutine polling every socket the Connection Set currently cares
// about, driven by the same SocketStateFunc hook a host-driven caller
// would otherwise wire up to its own select()/epoll() loop.
//
// golang.org/x/sys/unix.Poll is used instead of a platform-specific
// epoll/kqueue pair: poll(2) is available through the unix package on
// every platform this library targets, and the fd counts a stub resolver
// channel manages (one UDP plus one TCP socket per configured server)
// never approach the scale where epoll's O(1) readiness lookup would
// matter over poll's O(n) scan.
type eventLoop struct {
	c *Channel

	mu       sync.Mutex
	interest map[int]pollInterest

	stop chan struct{}
	done chan struct{}
}

type pollInterest struct {
	read, write bool
}

func newEventLoop(c *Channel) *eventLoop {
	return &eventLoop{
		c:        c,
		interest: make(map[int]pollInterest),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (el *eventLoop) start() error {
	go el.run()
	return nil
}

// stop signals the I/O goroutine and blocks until it exits.
func (el *eventLoop) stop() {
	close(el.stop)
	<-el.done
}

// updateInterest is registered as the Scheduler's SocketStateFunc hook
// when a channel is constructed with WithOwnedEventLoop: it is the only
// way the poll set ever changes, mirroring spec.md §4.4's "sole
// mechanism" note about the socket-state-change hook.
func (el *eventLoop) updateInterest(fd int, wantRead, wantWrite bool) {
	el.mu.Lock()
	defer el.mu.Unlock()
	if !wantRead && !wantWrite {
		delete(el.interest, fd)
		return
	}
	el.interest[fd] = pollInterest{read: wantRead, write: wantWrite}
}

func (el *eventLoop) run() {
	defer close(el.done)

	for {
		select {
		case <-el.stop:
			return
		default:
		}

		el.mu.Lock()
		pfds := make([]unix.PollFd, 0, len(el.interest))
		for fd, in := range el.interest {
			var events int16
			if in.read {
				events |= unix.POLLIN
			}
			if in.write {
				events |= unix.POLLOUT
			}
			pfds = append(pfds, unix.PollFd{Fd: int32(fd), Events: events})
		}
		el.mu.Unlock()

		n, err := unix.Poll(pfds, el.nextTimeoutMs())
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			el.c.logger.Warn("aresgo: event loop poll failed", "error", err, "channel_id", el.c.id)
			continue
		}

		if n == 0 {
			_ = el.c.Process(-1, -1) // nothing ready; still let Process expire deadlines
			continue
		}
		for _, pfd := range pfds {
			if pfd.Revents == 0 {
				continue
			}
			readableFD, writableFD := -1, -1
			if pfd.Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
				readableFD = int(pfd.Fd)
			}
			if pfd.Revents&unix.POLLOUT != 0 {
				writableFD = int(pfd.Fd)
			}
			if err := el.c.Process(readableFD, writableFD); err != nil {
				el.c.logger.Debug("aresgo: event loop process error", "error", err, "channel_id", el.c.id)
			}
		}
	}
}

// nextTimeoutMs bounds how long a poll call may block so a newly-armed
// deadline (or a stop signal) is never missed by more than a second.
func (el *eventLoop) nextTimeoutMs() int {
	const idlePollMs = 1000

	deadline, ok := el.c.Timeout(time.Now(), 0)
	if !ok {
		return idlePollMs
	}
	remaining := time.Until(deadline)
	if remaining < 0 {
		return 0
	}
	if ms := int(remaining / time.Millisecond); ms < idlePollMs {
		return ms
	}
	return idlePollMs
}
