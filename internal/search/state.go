package search

import (
	"github.com/aresgo/aresgo/internal/dnswire"
	"github.com/aresgo/aresgo/internal/scheduler"
)

// state carries a single get-by-name lookup's resumption context across
// the asynchronous boundary between issuing a query and its callback
// (spec.md §9's "coroutine-like control flow... stashing state in heap
// structs"). It is stored, opaquely to the Scheduler and Query Table, in
// a Query's SearchState field.
type state struct {
	names []string // precomputed search list, tried in order
	idx   int

	family            Family
	currentType       dnswire.RecordType
	triedAAAAFallback bool // for Family==Unspec: have we already retried this name as A?
	sawNoData         bool // at least one exhausted name returned NoData

	cb ResultFunc
}

// rawSearchState carries the resumption context for SearchRaw, the
// generic search-list-expansion entry point used by record types other
// than address lookups (spec.md §4.8's `search` operation).
type rawSearchState struct {
	names  []string
	idx    int
	qtype  dnswire.RecordType
	qclass dnswire.RecordClass

	sawNoData bool

	cb func(*dnswire.Message, scheduler.Status)
}
