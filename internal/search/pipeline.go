// Package search implements the Search Pipeline (spec.md §4.7): literal-IP
// shortcut, hosts-file lookup, ndots-driven search-domain expansion,
// AAAA→A fallback, CNAME-chain TTL-ceiling propagation, and .onion
// refusal, orchestrated over a Scheduler.
package search

import (
	"net"
	"time"

	"github.com/aresgo/aresgo/internal/dnswire"
	"github.com/aresgo/aresgo/internal/nameutil"
	"github.com/aresgo/aresgo/internal/querytable"
	"github.com/aresgo/aresgo/internal/scheduler"
)

// Sender is the subset of Scheduler the pipeline needs: issuing a query
// with opaque resumption state attached. *scheduler.Scheduler satisfies
// this directly.
type Sender interface {
	Send(name string, qtype dnswire.RecordType, qclass dnswire.RecordClass, searchState any) (*querytable.Query, error)
}

// Pipeline drives get-by-name lookups for one channel.
type Pipeline struct {
	sender Sender
	hosts  *nameutil.HostsFile
	search []string
	ndots  int
}

// New builds a Pipeline. hosts may be nil to disable hosts-file lookups.
func New(sender Sender, hosts *nameutil.HostsFile, searchDomains []string, ndots int) *Pipeline {
	if ndots <= 0 {
		ndots = 1
	}
	return &Pipeline{sender: sender, hosts: hosts, search: searchDomains, ndots: ndots}
}

// GetByName resolves name to address records of the given family,
// delivering exactly one Result to cb (spec.md §4.7).
func (p *Pipeline) GetByName(name string, family Family, cb ResultFunc) {
	if nameutil.IsOnion(name) {
		cb(Result{Status: scheduler.StatusNotFound})
		return
	}

	if ip, ok := nameutil.ParseLiteralIP(name); ok {
		if !familyMatches(family, ip) {
			cb(Result{Status: scheduler.StatusBadFamily})
			return
		}
		cb(Result{Status: scheduler.StatusSuccess, Addrs: []net.IP{ip}})
		return
	}

	if p.hosts != nil {
		if ip, ok := p.hosts.Lookup(name); ok && familyMatches(family, ip) {
			cb(Result{Status: scheduler.StatusSuccess, Addrs: []net.IP{ip}})
			return
		}
	}

	st := &state{names: p.buildSearchList(name), family: family, cb: cb}
	p.issueNext(st)
}

// SearchRaw implements the generic `search` operation (spec.md §4.8):
// ndots-driven search-list expansion for an arbitrary record type and
// class, without get_by_name's literal-IP shortcut, hosts-file lookup, or
// AAAA→A fallback. The first NOERROR reply with answers wins; as with
// get_by_name, NoData is surfaced over NotFound if every name was tried
// and at least one returned NoData.
func (p *Pipeline) SearchRaw(name string, qtype dnswire.RecordType, qclass dnswire.RecordClass, cb func(*dnswire.Message, scheduler.Status)) {
	st := &rawSearchState{names: p.buildSearchList(name), qtype: qtype, qclass: qclass, cb: cb}
	p.issueRawNext(st)
}

func (p *Pipeline) issueRawNext(st *rawSearchState) {
	if st.idx >= len(st.names) {
		if st.sawNoData {
			st.cb(nil, scheduler.StatusNoData)
			return
		}
		st.cb(nil, scheduler.StatusNotFound)
		return
	}
	name := st.names[st.idx]
	if _, err := p.sender.Send(name, st.qtype, st.qclass, st); err != nil {
		st.idx++
		p.issueRawNext(st)
	}
}

func (p *Pipeline) resumeRaw(st *rawSearchState, status scheduler.Status, msg *dnswire.Message) {
	if status == scheduler.StatusSuccess {
		st.cb(msg, status)
		return
	}
	if status == scheduler.StatusNoData {
		st.sawNoData = true
	}
	st.idx++
	p.issueRawNext(st)
}

// Resume continues a lookup after one of its queries completes. The
// Channel Facade calls this from the Scheduler's single completion
// callback whenever q.SearchState is a *state or *rawSearchState value
// this package created; any other query (send_raw, and the like) is not
// this package's concern.
func (p *Pipeline) Resume(q *querytable.Query, status scheduler.Status, msg *dnswire.Message) {
	if rst, ok := q.SearchState.(*rawSearchState); ok {
		p.resumeRaw(rst, status, msg)
		return
	}

	st, ok := q.SearchState.(*state)
	if !ok {
		return
	}

	switch status {
	case scheduler.StatusSuccess:
		addrs, ttlCeiling := extractAddrs(msg, st.currentType)
		st.cb(Result{Status: scheduler.StatusSuccess, Addrs: addrs, TTLCeiling: ttlCeiling, Raw: msg})
		return

	case scheduler.StatusNoData, scheduler.StatusTimeout, scheduler.StatusBadResp, scheduler.StatusConnRefused, scheduler.StatusServFail:
		if st.family == FamilyUnspec && st.currentType == dnswire.TypeAAAA && !st.triedAAAAFallback {
			st.triedAAAAFallback = true
			p.issueNext(st) // retry same name with A, per spec.md §4.7 step 5
			return
		}
		if status == scheduler.StatusNoData {
			st.sawNoData = true
		}
		p.advance(st)
		return

	case scheduler.StatusCancelled, scheduler.StatusDestruction:
		st.cb(Result{Status: status})
		return

	default: // NotFound and anything else: this name failed, try the next one
		p.advance(st)
		return
	}
}

func (p *Pipeline) advance(st *state) {
	st.idx++
	st.triedAAAAFallback = false
	p.issueNext(st)
}

// buildSearchList implements spec.md §4.7 step 3.
func (p *Pipeline) buildSearchList(name string) []string {
	joined := make([]string, len(p.search))
	for i, d := range p.search {
		joined[i] = nameutil.Join(name, d)
	}
	if nameutil.LabelCount(name) >= p.ndots {
		return append([]string{name}, joined...)
	}
	return append(joined, name)
}

func (p *Pipeline) issueNext(st *state) {
	if st.idx >= len(st.names) {
		if st.sawNoData {
			st.cb(Result{Status: scheduler.StatusNoData})
			return
		}
		st.cb(Result{Status: scheduler.StatusNotFound})
		return
	}

	name := st.names[st.idx]
	st.currentType = qtypeFor(st.family, st.triedAAAAFallback)

	if _, err := p.sender.Send(name, st.currentType, dnswire.ClassIN, st); err != nil {
		p.advance(st)
	}
}

func qtypeFor(family Family, triedFallback bool) dnswire.RecordType {
	switch family {
	case FamilyV4:
		return dnswire.TypeA
	case FamilyV6:
		return dnswire.TypeAAAA
	default:
		if triedFallback {
			return dnswire.TypeA
		}
		return dnswire.TypeAAAA
	}
}

func familyMatches(family Family, ip net.IP) bool {
	switch family {
	case FamilyV4:
		return ip.To4() != nil
	case FamilyV6:
		return ip.To4() == nil && ip.To16() != nil
	default:
		return true
	}
}

// extractAddrs walks msg's answer section, returning every address record
// matching wantType and the minimum TTL across the whole answer set (the
// CNAME chain included), the ceiling spec.md §4.7 step 6 requires.
func extractAddrs(msg *dnswire.Message, wantType dnswire.RecordType) ([]net.IP, time.Duration) {
	var addrs []net.IP
	var minTTL uint32
	first := true
	for _, rr := range msg.Answers {
		ttl := rr.Header().TTL
		if first || ttl < minTTL {
			minTTL = ttl
			first = false
		}
		if ip, ok := rr.(*dnswire.IPRecord); ok && rr.Type() == wantType {
			addrs = append(addrs, ip.Addr)
		}
	}
	return addrs, time.Duration(minTTL) * time.Second
}
