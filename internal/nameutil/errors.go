package nameutil

import "errors"

// ErrInvalidAddr is returned when PTRName is given something that is
// neither a valid IPv4 nor IPv6 address.
var ErrInvalidAddr = errors.New("nameutil: invalid address")
