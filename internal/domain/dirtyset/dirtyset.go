// Package dirtyset tracks which cohorts have cached normalized or composite
// values that no longer reflect their underlying raw scores. A cohort is
// Clean until a mutating event touches it, Dirty until a recomputation pass
// completes for it.
package dirtyset

import (
	"sync"

	"github.com/woocombine/combine/internal/domain/cohort"
)

// Set is a thread-safe dirty-cohort tracker.
type Set struct {
	mu    sync.Mutex
	dirty map[cohort.Key]struct{}
}

// New creates an empty set; every cohort starts Clean.
func New() *Set {
	return &Set{dirty: make(map[cohort.Key]struct{})}
}

// MarkDirty flags a cohort as needing recomputation. Marking an already
// dirty cohort is a no-op.
func (s *Set) MarkDirty(key cohort.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty[key] = struct{}{}
}

// MarkClean clears the dirty flag after a recomputation pass completed.
func (s *Set) MarkClean(key cohort.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.dirty, key)
}

// IsDirty reports whether a cohort's cached values can currently be trusted.
func (s *Set) IsDirty(key cohort.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.dirty[key]
	return ok
}

// Snapshot returns every dirty cohort at the time of the call.
func (s *Set) Snapshot() []cohort.Key {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]cohort.Key, 0, len(s.dirty))
	for k := range s.dirty {
		out = append(out, k)
	}
	return out
}

// SnapshotAgeGroup returns the dirty cohorts belonging to one age group.
func (s *Set) SnapshotAgeGroup(ageGroup string) []cohort.Key {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []cohort.Key
	for k := range s.dirty {
		if k.AgeGroup == ageGroup {
			out = append(out, k)
		}
	}
	return out
}

// Size returns the number of dirty cohorts.
func (s *Set) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.dirty)
}

// Reset clears all dirty flags, used when the underlying data is wiped.
func (s *Set) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = make(map[cohort.Key]struct{})
}
