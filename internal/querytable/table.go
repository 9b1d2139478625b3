package querytable

import (
	"container/heap"
	"fmt"
)

// Rng generates candidate query ids; the ID allocation capability spec.md
// §4.5 requires ("IDs are allocated by the Rng and probed for uniqueness").
type Rng interface {
	Uint16() uint16
}

// maxIDProbes bounds the retry loop when the id space is nearly saturated,
// so a pathologically full table fails loudly instead of spinning forever.
const maxIDProbes = 64

// ErrIDSpaceExhausted is returned by Insert when no unique id could be
// found within maxIDProbes attempts.
type errIDSpaceExhausted struct{}

func (errIDSpaceExhausted) Error() string { return "querytable: id space exhausted" }

// ErrIDSpaceExhausted is the sentinel Insert returns when the 16-bit query
// id space is saturated (more than ~65536 concurrent in-flight queries).
var ErrIDSpaceExhausted error = errIDSpaceExhausted{}

// Table holds every in-flight Query for one channel, indexed by id and by
// deadline.
type Table struct {
	byID     map[uint16]*Query
	deadline deadlineHeap
	rng      Rng
}

// New creates an empty Table using rng for id allocation.
func New(rng Rng) *Table {
	return &Table{
		byID: make(map[uint16]*Query),
		rng:  rng,
	}
}

// Len reports the number of live queries.
func (t *Table) Len() int { return len(t.byID) }

// Insert allocates a unique id for q, sets q.ID, and links q into both
// indexes.
func (t *Table) Insert(q *Query) error {
	id, err := t.allocateID()
	if err != nil {
		return err
	}
	q.ID = id
	t.byID[id] = q
	heap.Push(&t.deadline, q)
	return nil
}

func (t *Table) allocateID() (uint16, error) {
	for i := 0; i < maxIDProbes; i++ {
		candidate := t.rng.Uint16()
		if _, exists := t.byID[candidate]; !exists {
			return candidate, nil
		}
	}
	return 0, fmt.Errorf("%w after %d probes", ErrIDSpaceExhausted, maxIDProbes)
}

// Lookup returns the query with the given id, or nil if none is in flight.
func (t *Table) Lookup(id uint16) *Query {
	return t.byID[id]
}

// Remove unlinks q from both indexes. Safe to call even if q is not
// currently linked (e.g. double-completion guards upstream).
func (t *Table) Remove(q *Query) {
	if _, ok := t.byID[q.ID]; !ok {
		return
	}
	delete(t.byID, q.ID)
	if q.heapIndex >= 0 && q.heapIndex < len(t.deadline) && t.deadline[q.heapIndex] == q {
		heap.Remove(&t.deadline, q.heapIndex)
	}
}

// UpdateDeadline changes q's deadline and restores the heap invariant; used
// when a retry advances the deadline.
func (t *Table) UpdateDeadline(q *Query, newDeadline int64) {
	q.DeadlineAt = newDeadline
	if q.heapIndex >= 0 && q.heapIndex < len(t.deadline) {
		heap.Fix(&t.deadline, q.heapIndex)
	}
}

// Requeue re-links a query that PopExpired already removed, keeping its
// existing id, for the retry path in spec.md §4.6's tick algorithm
// ("penalize the server and requeue... with a fresh deadline"). Returns a
// non-nil "already in use" error if the id was claimed by another query
// in the interim; the caller should fall back to Insert for a fresh id.
func (t *Table) Requeue(q *Query, newDeadline int64) error {
	if _, exists := t.byID[q.ID]; exists {
		return fmt.Errorf("querytable: id %d already in use", q.ID)
	}
	q.DeadlineAt = newDeadline
	t.byID[q.ID] = q
	heap.Push(&t.deadline, q)
	return nil
}

// NextDeadline returns the nearest upcoming deadline and true, or
// (0, false) if the table is empty.
func (t *Table) NextDeadline() (int64, bool) {
	if len(t.deadline) == 0 {
		return 0, false
	}
	return t.deadline[0].DeadlineAt, true
}

// PopExpired removes and returns every query whose deadline is <= now,
// earliest first.
func (t *Table) PopExpired(now int64) []*Query {
	var expired []*Query
	for len(t.deadline) > 0 && t.deadline[0].DeadlineAt <= now {
		q := heap.Pop(&t.deadline).(*Query)
		delete(t.byID, q.ID)
		expired = append(expired, q)
	}
	return expired
}

// All returns every live query, for channel-destroy style bulk completion.
// The returned slice is a snapshot; mutating the table while iterating it
// is safe.
func (t *Table) All() []*Query {
	out := make([]*Query, 0, len(t.byID))
	for _, q := range t.byID {
		out = append(out, q)
	}
	return out
}
