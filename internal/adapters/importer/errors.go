package importer

import "errors"

// Sentinel kinds for import errors.
var (
	ErrMalformedRow = errors.New("malformed row")
	ErrTooManyRows  = errors.New("too many rows")
)
