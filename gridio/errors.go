package gridio

import "errors"

// ErrFormat wraps a malformed grid file: wrong field counts or
// out-of-range vertex references.
var ErrFormat = errors.New("gridio: malformed grid file")
