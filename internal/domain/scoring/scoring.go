// Package scoring combines a player's normalized drill scores into a single
// weighted composite. The same scorer serves both the authoritative path and
// the read-only what-if path, so the formula cannot drift between the two.
package scoring

import (
	"fmt"
	"math"

	"github.com/woocombine/combine/internal/domain/drill"
)

// Profile maps drill keys to weights in [0, 100]. The official profile is
// built from the registry's default weights; ad-hoc profiles are supplied by
// callers for transient what-if rankings and are never persisted.
type Profile map[string]float64

// Validate checks a caller-supplied profile against the registry: every key
// must be a registered drill, every weight must be in range, and at least
// one weight must be positive.
func (p Profile) Validate(registry *drill.Registry) error {
	total := 0.0
	for key, w := range p {
		if _, err := registry.Get(key); err != nil {
			return err
		}
		if w < 0 || w > 100 {
			return fmt.Errorf("weight %v for drill %q out of range [0, 100]: %w", w, key, ErrInvalidProfile)
		}
		total += w
	}
	if total <= 0 {
		return ErrZeroWeightProfile
	}
	return nil
}

// Clone returns an independent copy of the profile.
func (p Profile) Clone() Profile {
	out := make(Profile, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// MissingDrillPolicy controls how an unattempted drill affects the
// composite.
type MissingDrillPolicy int

const (
	// MissingPenalize counts an unattempted drill as a normalized 0 while
	// keeping its weight in the denominator, penalizing skipped drills.
	MissingPenalize MissingDrillPolicy = iota
	// MissingExclude drops unattempted drills from both the numerator and
	// the denominator, averaging only over what the player actually did.
	MissingExclude
)

// ParseMissingDrillPolicy maps a configuration string onto a policy.
func ParseMissingDrillPolicy(s string) (MissingDrillPolicy, error) {
	switch s {
	case "", "penalize":
		return MissingPenalize, nil
	case "exclude":
		return MissingExclude, nil
	default:
		return MissingPenalize, fmt.Errorf("missing-drill policy %q: %w", s, ErrInvalidProfile)
	}
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithMissingDrillPolicy sets how unattempted drills are treated.
func WithMissingDrillPolicy(p MissingDrillPolicy) Option {
	return func(s *Scorer) {
		s.policy = p
	}
}

// Scorer computes composite scores over every drill the registry knows, not
// only the drills a player attempted.
type Scorer struct {
	registry *drill.Registry
	policy   MissingDrillPolicy
}

// NewScorer creates a scorer bound to a drill registry.
func NewScorer(registry *drill.Registry, opts ...Option) *Scorer {
	s := &Scorer{
		registry: registry,
		policy:   MissingPenalize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Composite returns the weighted mean of the player's normalized scores
// under the given profile, rounded to two decimal places.
//
// A profile with no positive weight is undefined and fails with
// ErrZeroWeightProfile. Under MissingExclude, a player with no attempted
// weighted drill scores 0: the player has no data, which is not a profile
// error.
func (s *Scorer) Composite(normalized map[string]float64, weights Profile) (float64, error) {
	var sum, applied, available float64
	for _, spec := range s.registry.Specs() {
		w := weights[spec.Key]
		if w <= 0 {
			continue
		}
		available += w
		norm, ok := normalized[spec.Key]
		if !ok {
			if s.policy == MissingExclude {
				continue
			}
			norm = 0
		}
		sum += w * norm
		applied += w
	}
	if available <= 0 {
		return 0, ErrZeroWeightProfile
	}
	if applied <= 0 {
		return 0, nil
	}
	return Round2(sum / applied), nil
}

// Round2 rounds to two decimal places, the precision used for persisted
// official scores.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
