package aresgo

import "github.com/aresgo/aresgo/internal/search"

// Family selects which address family a lookup targets (spec.md §4.7).
type Family = search.Family

const (
	FamilyUnspec = search.FamilyUnspec
	FamilyV4     = search.FamilyV4
	FamilyV6     = search.FamilyV6
)
