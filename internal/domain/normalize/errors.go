package normalize

import "errors"

// Sentinel kinds for normalization errors.
var (
	// ErrCohortBoundsStale indicates a raw score outside the index's
	// recorded bounds, i.e. a missed recomputation trigger. It is an
	// internal invariant violation, never corrected silently.
	ErrCohortBoundsStale = errors.New("cohort bounds stale")
)
