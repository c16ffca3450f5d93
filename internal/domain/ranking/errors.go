package ranking

import "errors"

// Sentinel kinds for ranking errors.
var (
	ErrInvalidTiePolicy = errors.New("invalid tie policy")
)
