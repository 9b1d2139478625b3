// Package aresgo implements an asynchronous DNS stub resolver, modeled
// on c-ares: a Channel resolves names and addresses over UDP/TCP against
// a configured set of recursive servers, retrying and failing over
// across them, and delivers every result through a callback rather than
// blocking the caller.
//
// A Channel can be driven two ways (spec.md §5): the host can own the
// event loop and call Process/Timeout itself (the default), or the
// Channel can own one internally via WithOwnedEventLoop. Either way,
// construct one with NewChannel and issue lookups with GetHostByName,
// GetHostByAddr, GetAddrInfo, Search, or SendRaw.
package aresgo
