package search

// Family selects which address family a lookup targets.
type Family int

const (
	FamilyUnspec Family = iota
	FamilyV4
	FamilyV6
)
