package aresgo

import "github.com/aresgo/aresgo/internal/scheduler"

// Status is the completion status delivered to a lookup's callback exactly
// once (spec.md §7). It is a re-export of the internal scheduler's
// taxonomy so callers never need to import internal packages to pattern
// match on it.
type Status = scheduler.Status

const (
	StatusSuccess     = scheduler.StatusSuccess
	StatusNoData      = scheduler.StatusNoData
	StatusFormErr     = scheduler.StatusFormErr
	StatusServFail    = scheduler.StatusServFail
	StatusNotFound    = scheduler.StatusNotFound
	StatusNotImp      = scheduler.StatusNotImp
	StatusRefused     = scheduler.StatusRefused
	StatusBadQuery    = scheduler.StatusBadQuery
	StatusBadName     = scheduler.StatusBadName
	StatusBadFamily   = scheduler.StatusBadFamily
	StatusBadResp     = scheduler.StatusBadResp
	StatusConnRefused = scheduler.StatusConnRefused
	StatusTimeout     = scheduler.StatusTimeout
	StatusEoF         = scheduler.StatusEoF
	StatusFileIO      = scheduler.StatusFileIO
	StatusNoMem       = scheduler.StatusNoMem
	StatusDestruction = scheduler.StatusDestruction
	StatusBadStr      = scheduler.StatusBadStr
	StatusService     = scheduler.StatusService
	StatusNoName      = scheduler.StatusNoName
	StatusCancelled   = scheduler.StatusCancelled
)
