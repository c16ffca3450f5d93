// Package cohort maintains the per (age group, drill) raw-score bookkeeping
// that normalization bounds are computed from. The index is derived state:
// it can be rebuilt at any time from the drill-result collection, which is
// the resource of record.
package cohort

import "sync"

// Key identifies one cohort: every raw score recorded for one drill across
// one age group.
type Key struct {
	AgeGroup string
	DrillKey string
}

// String renders the key for logs and metrics labels.
func (k Key) String() string {
	return k.AgeGroup + "/" + k.DrillKey
}

// Bounds is the (min, max) raw-score envelope of a cohort. Empty is a
// distinct sentinel: a cohort with zero results has no bounds at all, which
// is not the same as a real (0, 0) envelope.
type Bounds struct {
	Min   float64
	Max   float64
	Empty bool
}

// Index tracks raw scores per cohort, keyed by result id so that multiple
// attempts by the same player all contribute to the bounds.
type Index struct {
	mu      sync.RWMutex
	cohorts map[Key]map[string]float64
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{cohorts: make(map[Key]map[string]float64)}
}

// Upsert records or replaces the raw score for one result in a cohort.
// Callers must trigger recomputation of the cohort afterwards; the index
// itself never normalizes.
func (i *Index) Upsert(key Key, resultID string, raw float64) {
	i.mu.Lock()
	defer i.mu.Unlock()

	set, ok := i.cohorts[key]
	if !ok {
		set = make(map[string]float64)
		i.cohorts[key] = set
	}
	set[resultID] = raw
}

// Remove drops one result's raw score from a cohort. Removing the last
// result removes the cohort entirely.
func (i *Index) Remove(key Key, resultID string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	set, ok := i.cohorts[key]
	if !ok {
		return
	}
	delete(set, resultID)
	if len(set) == 0 {
		delete(i.cohorts, key)
	}
}

// Replace swaps a cohort's entire raw-score set in one step. Used when a
// recomputation pass rebuilds the cohort from the stored results.
func (i *Index) Replace(key Key, raws map[string]float64) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if len(raws) == 0 {
		delete(i.cohorts, key)
		return
	}
	set := make(map[string]float64, len(raws))
	for id, raw := range raws {
		set[id] = raw
	}
	i.cohorts[key] = set
}

// Reset drops every cohort. The index is cleared in place, never swapped,
// so concurrent readers holding the pointer stay safe.
func (i *Index) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.cohorts = make(map[Key]map[string]float64)
}

// Bounds returns the current (min, max) envelope for a cohort, or the empty
// sentinel when no results are recorded.
func (i *Index) Bounds(key Key) Bounds {
	i.mu.RLock()
	defer i.mu.RUnlock()

	set, ok := i.cohorts[key]
	if !ok || len(set) == 0 {
		return Bounds{Empty: true}
	}
	first := true
	var b Bounds
	for _, raw := range set {
		if first {
			b.Min, b.Max = raw, raw
			first = false
			continue
		}
		if raw < b.Min {
			b.Min = raw
		}
		if raw > b.Max {
			b.Max = raw
		}
	}
	return b
}

// Size returns the number of raw scores recorded for a cohort.
func (i *Index) Size(key Key) int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.cohorts[key])
}

// Count returns the number of non-empty cohorts tracked by the index.
func (i *Index) Count() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.cohorts)
}

// Cohorts returns the keys of every non-empty cohort.
func (i *Index) Cohorts() []Key {
	i.mu.RLock()
	defer i.mu.RUnlock()

	out := make([]Key, 0, len(i.cohorts))
	for k := range i.cohorts {
		out = append(out, k)
	}
	return out
}
