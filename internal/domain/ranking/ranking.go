// Package ranking orders a cohort's composite scores into a leaderboard.
package ranking

import (
	"fmt"
	"sort"

	"github.com/woocombine/combine/internal/domain/types"
)

// Entry is the ranker's input: one player's composite score.
type Entry struct {
	PlayerID       int64
	CompositeScore float64
}

// TiePolicy controls how equal composite scores map to rank numbers.
type TiePolicy int

const (
	// TieSequential assigns each entry the next integer even on a tie:
	// 1st, 2nd, 3rd. Order inside a tie is deterministic by player id.
	TieSequential TiePolicy = iota
	// TieShared gives tied entries the same rank and skips the following
	// numbers: 1st, 1st, 3rd.
	TieShared
)

// ParseTiePolicy maps a configuration string onto a policy.
func ParseTiePolicy(s string) (TiePolicy, error) {
	switch s {
	case "", "sequential":
		return TieSequential, nil
	case "shared":
		return TieShared, nil
	default:
		return TieSequential, fmt.Errorf("tie policy %q: %w", s, ErrInvalidTiePolicy)
	}
}

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithTiePolicy sets the tie-break rank semantics.
func WithTiePolicy(p TiePolicy) Option {
	return func(r *Ranker) {
		r.tiePolicy = p
	}
}

// Ranker turns unordered cohort entries into ranked leaderboard rows.
type Ranker struct {
	tiePolicy TiePolicy
}

// NewRanker creates a ranker with configuration options.
func NewRanker(opts ...Option) *Ranker {
	r := &Ranker{tiePolicy: TieSequential}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank sorts entries descending by composite score and assigns 1-based
// ranks. Ties (equal to the rounding precision persisted scores use) order
// by ascending player id, never by insertion order, so the output is
// deterministic for a given input set.
func (r *Ranker) Rank(entries []Entry) []types.RankedEntry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(a, b int) bool {
		if sorted[a].CompositeScore != sorted[b].CompositeScore {
			return sorted[a].CompositeScore > sorted[b].CompositeScore
		}
		return sorted[a].PlayerID < sorted[b].PlayerID
	})

	out := make([]types.RankedEntry, 0, len(sorted))
	for i, e := range sorted {
		rank := i + 1
		if r.tiePolicy == TieShared && i > 0 && e.CompositeScore == sorted[i-1].CompositeScore {
			rank = out[i-1].Rank
		}
		out = append(out, types.RankedEntry{
			Rank:           rank,
			PlayerID:       e.PlayerID,
			CompositeScore: e.CompositeScore,
		})
	}
	return out
}
