package scheduler

import "errors"

// ErrNoServers is returned by Send when the server pool is empty.
var ErrNoServers = errors.New("scheduler: no servers configured")

// ErrUnknownQuery is returned by Cancel when the handle does not name a
// live query (already completed or never issued on this scheduler).
var ErrUnknownQuery = errors.New("scheduler: unknown query")
