// Package drill defines the static catalog of combine drills: how each
// measurement is oriented (lower or higher is better), its unit, and the
// weight it carries in the official composite.
package drill

import "fmt"

// Direction states whether a smaller or a larger raw measurement is the
// better performance for a drill.
type Direction int

const (
	// LowerIsBetter marks timed drills such as sprints.
	LowerIsBetter Direction = iota
	// HigherIsBetter marks distance, height and count drills.
	HigherIsBetter
)

// String returns a human-readable direction name.
func (d Direction) String() string {
	if d == LowerIsBetter {
		return "lower_is_better"
	}
	return "higher_is_better"
}

// Spec describes a single drill type. Specs are immutable after
// registration.
type Spec struct {
	Key           string    `json:"key"`
	Direction     Direction `json:"-"`
	Unit          string    `json:"unit"`
	DefaultWeight float64   `json:"default_weight"`
}

// Registry holds all drill specs known to the process. It is read-only
// after construction.
type Registry struct {
	specs map[string]Spec
	keys  []string
}

// NewRegistry builds a registry from the given specs. Registration order is
// preserved for iteration.
func NewRegistry(specs ...Spec) *Registry {
	r := &Registry{specs: make(map[string]Spec, len(specs))}
	for _, s := range specs {
		if _, ok := r.specs[s.Key]; ok {
			continue
		}
		r.specs[s.Key] = s
		r.keys = append(r.keys, s.Key)
	}
	return r
}

// Default returns the standard combine drill catalog with the official
// default weights (summing to 100).
func Default() *Registry {
	return NewRegistry(
		Spec{Key: "40m_dash", Direction: LowerIsBetter, Unit: "s", DefaultWeight: 30},
		Spec{Key: "vertical_jump", Direction: HigherIsBetter, Unit: "in", DefaultWeight: 20},
		Spec{Key: "agility", Direction: LowerIsBetter, Unit: "s", DefaultWeight: 20},
		Spec{Key: "throwing", Direction: HigherIsBetter, Unit: "score", DefaultWeight: 15},
		Spec{Key: "catching", Direction: HigherIsBetter, Unit: "count", DefaultWeight: 15},
	)
}

// Get returns the spec for key, or ErrUnknownDrillKind if the key was never
// registered.
func (r *Registry) Get(key string) (Spec, error) {
	s, ok := r.specs[key]
	if !ok {
		return Spec{}, fmt.Errorf("drill %q: %w", key, ErrUnknownDrillKind)
	}
	return s, nil
}

// Has reports whether key is registered.
func (r *Registry) Has(key string) bool {
	_, ok := r.specs[key]
	return ok
}

// Keys returns all registered drill keys in registration order.
func (r *Registry) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Specs returns all registered specs in registration order.
func (r *Registry) Specs() []Spec {
	out := make([]Spec, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, r.specs[k])
	}
	return out
}

// DefaultWeights returns the drill_key -> default weight mapping used as the
// official profile when no override is configured.
func (r *Registry) DefaultWeights() map[string]float64 {
	out := make(map[string]float64, len(r.keys))
	for _, k := range r.keys {
		out[k] = r.specs[k].DefaultWeight
	}
	return out
}
