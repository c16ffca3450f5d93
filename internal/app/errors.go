package app

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNoStore      = errors.New("no store configured")
	ErrInvalidInput = errors.New("invalid input")
)
