package scheduler

import "github.com/aresgo/aresgo/internal/dnswire"

// Status is the completion status delivered to a query's callback exactly
// once, drawn from the taxonomy in spec.md §7.
type Status int

const (
	StatusSuccess Status = iota
	StatusNoData
	StatusFormErr
	StatusServFail
	StatusNotFound
	StatusNotImp
	StatusRefused
	StatusBadQuery
	StatusBadName
	StatusBadFamily
	StatusBadResp
	StatusConnRefused
	StatusTimeout
	StatusEoF
	StatusFileIO
	StatusNoMem
	StatusDestruction
	StatusBadStr
	StatusService
	StatusNoName
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusNoData:
		return "NoData"
	case StatusFormErr:
		return "FormErr"
	case StatusServFail:
		return "ServFail"
	case StatusNotFound:
		return "NotFound"
	case StatusNotImp:
		return "NotImp"
	case StatusRefused:
		return "Refused"
	case StatusBadQuery:
		return "BadQuery"
	case StatusBadName:
		return "BadName"
	case StatusBadFamily:
		return "BadFamily"
	case StatusBadResp:
		return "BadResp"
	case StatusConnRefused:
		return "ConnRefused"
	case StatusTimeout:
		return "Timeout"
	case StatusEoF:
		return "EoF"
	case StatusFileIO:
		return "FileIo"
	case StatusNoMem:
		return "NoMem"
	case StatusDestruction:
		return "Destruction"
	case StatusBadStr:
		return "BadStr"
	case StatusService:
		return "Service"
	case StatusNoName:
		return "NoName"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Terminal reports whether status ends a query's retry loop immediately
// (NXDOMAIN/NOERROR are authoritative terminals per spec.md §4.6, so
// Success, NoData and NotFound are terminal; every other status, including
// FormErr, ServFail, NotImp and Refused, is not).
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccess, StatusNoData, StatusNotFound:
		return true
	default:
		return false
	}
}

// statusFromRCode maps a response code from an authoritative reply (one
// that parsed cleanly and matched its question) to a completion Status.
func statusFromRCode(rc dnswire.RCode) Status {
	switch rc {
	case dnswire.RCodeNoError:
		return StatusSuccess
	case dnswire.RCodeFormErr:
		return StatusFormErr
	case dnswire.RCodeServFail:
		return StatusServFail
	case dnswire.RCodeNXDomain:
		return StatusNotFound
	case dnswire.RCodeNotImp:
		return StatusNotImp
	case dnswire.RCodeRefused:
		return StatusRefused
	default:
		return StatusServFail
	}
}
