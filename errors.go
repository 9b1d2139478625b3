package aresgo

import "errors"

// Sentinel errors, one per Status in spec.md §7. Channel operations wrap
// these with fmt.Errorf("...: %w", ...) so callers can both errors.Is
// against a stable sentinel and read the operational context in the
// message, mirroring the teacher's internal/dns/errors.go design.
var (
	ErrNoData      = errors.New("aresgo: no data")
	ErrFormErr     = errors.New("aresgo: malformed query")
	ErrServFail    = errors.New("aresgo: server failure")
	ErrNotFound    = errors.New("aresgo: name not found")
	ErrNotImp      = errors.New("aresgo: not implemented by server")
	ErrRefused     = errors.New("aresgo: query refused")
	ErrBadQuery    = errors.New("aresgo: malformed query")
	ErrBadName     = errors.New("aresgo: malformed name")
	ErrBadFamily   = errors.New("aresgo: address family mismatch")
	ErrBadResp     = errors.New("aresgo: malformed response")
	ErrConnRefused = errors.New("aresgo: connection refused")
	ErrTimeout     = errors.New("aresgo: query timed out")
	ErrEOF         = errors.New("aresgo: unexpected end of file")
	ErrFileIO      = errors.New("aresgo: file I/O error")
	ErrNoMem       = errors.New("aresgo: out of memory")
	ErrDestruction = errors.New("aresgo: channel destroyed")
	ErrBadStr      = errors.New("aresgo: malformed string")
	ErrService     = errors.New("aresgo: service lookup failed")
	ErrNoName      = errors.New("aresgo: no name in request")
	ErrCancelled   = errors.New("aresgo: query cancelled")

	ErrNoServers = errors.New("aresgo: channel has no servers configured")
)

// errForStatus maps a completion Status to its sentinel error: nil for
// Success, ErrNoData for NoData (reported with zero Addrs; see channel.go).
func errForStatus(s Status) error {
	switch s {
	case StatusSuccess:
		return nil
	case StatusNoData:
		return ErrNoData
	case StatusFormErr:
		return ErrFormErr
	case StatusServFail:
		return ErrServFail
	case StatusNotFound:
		return ErrNotFound
	case StatusNotImp:
		return ErrNotImp
	case StatusRefused:
		return ErrRefused
	case StatusBadQuery:
		return ErrBadQuery
	case StatusBadName:
		return ErrBadName
	case StatusBadFamily:
		return ErrBadFamily
	case StatusBadResp:
		return ErrBadResp
	case StatusConnRefused:
		return ErrConnRefused
	case StatusTimeout:
		return ErrTimeout
	case StatusEoF:
		return ErrEOF
	case StatusFileIO:
		return ErrFileIO
	case StatusNoMem:
		return ErrNoMem
	case StatusDestruction:
		return ErrDestruction
	case StatusBadStr:
		return ErrBadStr
	case StatusService:
		return ErrService
	case StatusNoName:
		return ErrNoName
	case StatusCancelled:
		return ErrCancelled
	default:
		return ErrServFail
	}
}
