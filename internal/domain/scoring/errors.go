package scoring

import "errors"

// Sentinel kinds for composite scoring errors.
var (
	// ErrZeroWeightProfile is returned when every weight in a profile is
	// zero; the composite is undefined, not 0 or NaN.
	ErrZeroWeightProfile = errors.New("zero weight profile")
	// ErrInvalidProfile covers out-of-range weights and unparseable
	// policy configuration.
	ErrInvalidProfile = errors.New("invalid weight profile")
)
