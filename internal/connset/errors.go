package connset

import "errors"

// errWouldBlock is returned internally when a non-blocking socket
// operation could not complete immediately; callers translate it into
// "wait for the next readable/writable notification" rather than a
// connection failure.
var errWouldBlock = errors.New("connset: operation would block")

// ErrWouldBlock is the exported form of errWouldBlock for callers outside
// this package (the Scheduler) to compare against with errors.Is.
var ErrWouldBlock = errWouldBlock

// ErrPeerMismatch is returned when a UDP datagram's source address does
// not match the connection's configured peer, the off-path spoofing guard
// spec.md §4.4 requires.
var ErrPeerMismatch = errors.New("connset: datagram source does not match peer")

// ErrConnectionClosed is returned by operations attempted on a connection
// that has already been torn down.
var ErrConnectionClosed = errors.New("connset: connection closed")
