package drill

import "errors"

// Sentinel kinds for drill catalog errors.
var (
	ErrUnknownDrillKind = errors.New("unknown drill kind")
)
