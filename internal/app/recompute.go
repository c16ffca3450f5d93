package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/woocombine/combine/internal/domain/cohort"
	"github.com/woocombine/combine/internal/domain/model"
	"github.com/woocombine/combine/internal/domain/normalize"
	"github.com/woocombine/combine/internal/domain/scoring"
	"github.com/woocombine/combine/pkg/logger"
	"github.com/woocombine/combine/pkg/metrics"
)

// cohortLock returns the mutex serializing recomputation for one cohort.
func (s *Service) cohortLock(key cohort.Key) *sync.Mutex {
	lock, _ := s.cohortLocks.LoadOrStore(key, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// mutateCohort applies one cohort mutation while holding the cohort's
// recomputation lock, then marks the cohort dirty before releasing it. An
// in-flight recomputation pass therefore either finishes before the
// mutation lands or runs entirely after it; it can never snapshot the
// cohort, miss the mutation, and still erase its dirty mark.
func (s *Service) mutateCohort(key cohort.Key, fn func() error) error {
	lock := s.cohortLock(key)
	lock.Lock()
	defer lock.Unlock()

	if err := fn(); err != nil {
		return err
	}
	s.dirty.MarkDirty(key)
	return nil
}

// Recompute renormalizes one cohort and refreshes the official composites
// of every player in it. A clean cohort is a no-op, which makes repeated
// calls idempotent. On failure the cohort stays Dirty and the error is
// surfaced; nothing is persisted for the cohort in that case.
func (s *Service) Recompute(ctx context.Context, key cohort.Key) error {
	lock := s.cohortLock(key)
	lock.Lock()
	defer lock.Unlock()

	if !s.dirty.IsDirty(key) {
		return nil
	}

	start := time.Now()
	if err := s.recomputeLocked(ctx, key); err != nil {
		metrics.RecordRecomputeError()
		metrics.RecordErrorByComponent("recompute", "cohort_pass")
		s.logger.Error(ctx, "cohort recomputation failed; cohort left dirty",
			logger.String("cohort", key.String()),
			logger.Error(err),
		)
		return fmt.Errorf("recompute cohort %s: %w", key, err)
	}

	s.dirty.MarkClean(key)
	metrics.RecordRecompute(float64(time.Since(start).Milliseconds()))
	metrics.UpdateDirtyCohorts(s.dirty.Size())
	metrics.UpdateCohortCount(s.index.Count())
	return nil
}

// recomputeLocked runs one all-or-nothing cohort pass: normalize every
// stored result against the index's current bounds, recompute every
// affected player's official composite, then persist. All values are
// computed before the first write so a failure never leaves the cohort
// half-applied.
func (s *Service) recomputeLocked(ctx context.Context, key cohort.Key) error {
	results, err := s.store.ListDrillResults(ctx, key.AgeGroup, key.DrillKey)
	if err != nil {
		return fmt.Errorf("load cohort results: %w", err)
	}

	spec, err := s.registry.Get(key.DrillKey)
	if err != nil {
		return err
	}

	// Bounds come from the incrementally maintained index, not a silent
	// rebuild: a stored raw score outside them means a mutation path
	// missed an index update, which must surface as ErrCohortBoundsStale.
	bounds := s.index.Bounds(key)

	updated := make([]model.DrillResult, 0, len(results))
	normalizedByID := make(map[string]float64, len(results))
	affected := make(map[int64]struct{})
	for _, r := range results {
		score, err := normalize.Score(r.RawScore, spec.Direction, bounds)
		if err != nil {
			return err
		}
		r.NormalizedScore = scoring.Round2(score)
		updated = append(updated, r)
		normalizedByID[r.ID] = r.NormalizedScore
		affected[r.PlayerID] = struct{}{}
	}

	// Composites need the player's scores across every drill in the age
	// group, with this cohort's freshly computed values overriding the
	// persisted cache.
	ageResults, err := s.store.ListDrillResults(ctx, key.AgeGroup, "")
	if err != nil {
		return fmt.Errorf("load age group results: %w", err)
	}
	best := bestNormalized(ageResults, normalizedByID)

	composites := make(map[int64]float64, len(affected))
	for playerID := range affected {
		composite, err := s.scorer.Composite(best[playerID], s.official)
		if err != nil {
			return fmt.Errorf("composite for player %d: %w", playerID, err)
		}
		composites[playerID] = composite
	}

	for _, r := range updated {
		if err := s.store.SaveDrillResult(ctx, r); err != nil {
			return fmt.Errorf("persist normalized score: %w", err)
		}
	}
	for playerID, composite := range composites {
		if err := s.store.SavePlayerCompositeScore(ctx, playerID, composite); err != nil {
			return fmt.Errorf("persist composite score: %w", err)
		}
	}
	return nil
}

// recomputeKeys recomputes a batch of cohorts. Distinct cohorts are
// independent, so they run in parallel up to the configured limit. A
// failing cohort stays Dirty; cohorts already recomputed are not rolled
// back.
func (s *Service) recomputeKeys(ctx context.Context, keys []cohort.Key) error {
	if len(keys) == 0 {
		return nil
	}
	if len(keys) == 1 {
		return s.Recompute(ctx, keys[0])
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.recomputeParallelism)
	for _, key := range keys {
		key := key
		g.Go(func() error {
			return s.Recompute(gctx, key)
		})
	}
	return g.Wait()
}

// RetryDirty re-runs recomputation for every cohort still marked Dirty.
func (s *Service) RetryDirty(ctx context.Context) error {
	return s.recomputeKeys(ctx, s.dirty.Snapshot())
}

// bestNormalized reduces a result list to each player's best normalized
// score per drill, the value that feeds the composite when a player has
// multiple attempts. Values in override (keyed by result id) take
// precedence over the persisted cache.
func bestNormalized(results []model.DrillResult, override map[string]float64) map[int64]map[string]float64 {
	out := make(map[int64]map[string]float64)
	for _, r := range results {
		score := r.NormalizedScore
		if v, ok := override[r.ID]; ok {
			score = v
		}
		perDrill, ok := out[r.PlayerID]
		if !ok {
			perDrill = make(map[string]float64)
			out[r.PlayerID] = perDrill
		}
		if existing, ok := perDrill[r.DrillKey]; !ok || score > existing {
			perDrill[r.DrillKey] = score
		}
	}
	return out
}
