// Package normalize converts raw drill measurements into cohort-relative
// scores on a 0-100 scale, so that seconds, inches and counts become
// comparable.
package normalize

import (
	"fmt"
	"math"

	"github.com/woocombine/combine/internal/domain/cohort"
	"github.com/woocombine/combine/internal/domain/drill"
)

// Scale constants.
const (
	// NeutralScore is assigned when a cohort has no results to scale
	// against.
	NeutralScore = 50.0
	// MaxScore is the top of the normalized scale.
	MaxScore = 100.0
)

// Score maps a raw measurement onto [0, 100] relative to its cohort bounds.
//
// An empty cohort yields NeutralScore: a single data point has no basis for
// relative scaling. A zero-width cohort (min == max, possibly shared by
// several players) yields MaxScore for everyone, since there is nothing to
// discriminate. Otherwise the score scales linearly, with the direction
// deciding which end of the envelope maps to 100.
//
// A raw score outside the recorded bounds means the index missed a
// recomputation trigger; that is reported as ErrCohortBoundsStale rather
// than silently clamped. The final clamp only absorbs floating-point edge
// error.
func Score(raw float64, direction drill.Direction, b cohort.Bounds) (float64, error) {
	if b.Empty {
		return NeutralScore, nil
	}
	if raw < b.Min || raw > b.Max {
		return 0, fmt.Errorf("raw score %v outside cohort bounds [%v, %v]: %w",
			raw, b.Min, b.Max, ErrCohortBoundsStale)
	}
	if b.Min == b.Max {
		return MaxScore, nil
	}

	var score float64
	switch direction {
	case drill.LowerIsBetter:
		score = MaxScore * (b.Max - raw) / (b.Max - b.Min)
	default:
		score = MaxScore * (raw - b.Min) / (b.Max - b.Min)
	}
	return math.Max(0, math.Min(MaxScore, score)), nil
}
