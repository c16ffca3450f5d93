// Package app provides the core business service that implements the
// dependencies required by the HTTP API: player and drill-result mutations,
// the recomputation coordinator that keeps cohort-relative scores
// consistent, and the official and what-if ranking paths.
package app

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/woocombine/combine/internal/adapters/importer"
	"github.com/woocombine/combine/internal/adapters/repository"
	"github.com/woocombine/combine/internal/domain/cohort"
	"github.com/woocombine/combine/internal/domain/dirtyset"
	"github.com/woocombine/combine/internal/domain/drill"
	"github.com/woocombine/combine/internal/domain/model"
	"github.com/woocombine/combine/internal/domain/ranking"
	"github.com/woocombine/combine/internal/domain/scoring"
	"github.com/woocombine/combine/internal/domain/types"
	"github.com/woocombine/combine/pkg/logger"
	"github.com/woocombine/combine/pkg/metrics"
)

// Service owns the cohort index and the cached normalized/composite scores.
// No other component writes them.
type Service struct {
	mu sync.RWMutex

	store    repository.Store
	registry *drill.Registry
	index    *cohort.Index
	scorer   *scoring.Scorer
	ranker   *ranking.Ranker
	official scoring.Profile
	dirty    *dirtyset.Set

	// cohortLocks serializes recomputation per cohort; mutations to
	// different cohorts proceed in parallel.
	cohortLocks sync.Map // cohort.Key -> *sync.Mutex

	missingPolicy        scoring.MissingDrillPolicy
	tiePolicy            ranking.TiePolicy
	recomputeParallelism int

	// officialOverrides collects WithOfficialWeights values until New
	// merges them over the registry defaults.
	officialOverrides map[string]float64

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the record store. Required.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithRegistry replaces the default drill catalog.
func WithRegistry(registry *drill.Registry) Option {
	return func(s *Service) {
		if registry != nil {
			s.registry = registry
		}
	}
}

// WithOfficialWeights overrides individual official weights; drills not
// mentioned keep their registry defaults.
func WithOfficialWeights(weights map[string]float64) Option {
	return func(s *Service) {
		for key, w := range weights {
			s.officialOverrides[key] = w
		}
	}
}

// WithMissingDrillPolicy sets how unattempted drills affect composites.
func WithMissingDrillPolicy(p scoring.MissingDrillPolicy) Option {
	return func(s *Service) {
		s.missingPolicy = p
	}
}

// WithTiePolicy sets the tie-break rank semantics.
func WithTiePolicy(p ranking.TiePolicy) Option {
	return func(s *Service) {
		s.tiePolicy = p
	}
}

// WithRecomputeParallelism bounds concurrent cohort recomputation in
// batched paths.
func WithRecomputeParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.recomputeParallelism = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		registry:             drill.Default(),
		index:                cohort.NewIndex(),
		dirty:                dirtyset.New(),
		missingPolicy:        scoring.MissingPenalize,
		tiePolicy:            ranking.TieSequential,
		recomputeParallelism: runtime.NumCPU(),
	}
	s.officialOverrides = make(map[string]float64)
	for _, opt := range opts {
		opt(s)
	}

	s.scorer = scoring.NewScorer(s.registry, scoring.WithMissingDrillPolicy(s.missingPolicy))
	s.ranker = ranking.NewRanker(ranking.WithTiePolicy(s.tiePolicy))

	s.official = scoring.Profile(s.registry.DefaultWeights())
	for key, w := range s.officialOverrides {
		s.official[key] = w
	}
	return s
}

// Registry exposes the drill catalog the service scores against.
func (s *Service) Registry() *drill.Registry {
	return s.registry
}

// Start warms the cohort index from the stored drill results. Every cohort
// begins Clean: persisted normalized scores are trusted until a mutation
// dirties them.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.store == nil {
		return ErrNoStore
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	if err := s.official.Validate(s.registry); err != nil {
		return fmt.Errorf("official profile: %w", err)
	}

	if err := s.rebuildIndex(ctx); err != nil {
		return fmt.Errorf("warm cohort index: %w", err)
	}

	s.started = true
	s.logger.Info(ctx, "combine service started",
		logger.Int("cohorts", s.index.Count()),
		logger.Int("drills", len(s.registry.Keys())),
	)
	return nil
}

// Stop marks the service stopped. The store is owned and closed by the
// caller that opened it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "combine service stopped")
}

// rebuildIndex reconstructs the whole cohort index from the drill-result
// collection, the resource of record.
func (s *Service) rebuildIndex(ctx context.Context) error {
	players, err := s.store.ListPlayers(ctx, "")
	if err != nil {
		return err
	}
	ageByPlayer := make(map[int64]string, len(players))
	for _, p := range players {
		ageByPlayer[p.ID] = p.AgeGroup
	}

	results, err := s.store.ListDrillResults(ctx, "", "")
	if err != nil {
		return err
	}
	byCohort := make(map[cohort.Key]map[string]float64)
	for _, r := range results {
		key := cohort.Key{AgeGroup: ageByPlayer[r.PlayerID], DrillKey: r.DrillKey}
		set, ok := byCohort[key]
		if !ok {
			set = make(map[string]float64)
			byCohort[key] = set
		}
		set[r.ID] = r.RawScore
	}

	s.index.Reset()
	for key, raws := range byCohort {
		s.index.Replace(key, raws)
	}
	metrics.UpdateCohortCount(s.index.Count())
	return nil
}

// CreatePlayer adds a player record.
func (s *Service) CreatePlayer(ctx context.Context, name, ageGroup string, jerseyNumber int64) (model.Player, error) {
	if strings.TrimSpace(name) == "" {
		return model.Player{}, fmt.Errorf("%w: missing name", ErrInvalidInput)
	}
	if strings.TrimSpace(ageGroup) == "" {
		return model.Player{}, fmt.Errorf("%w: missing age group", ErrInvalidInput)
	}
	p, err := s.store.CreatePlayer(ctx, model.Player{
		Name:         strings.TrimSpace(name),
		AgeGroup:     strings.TrimSpace(ageGroup),
		JerseyNumber: jerseyNumber,
	})
	if err != nil {
		return model.Player{}, err
	}
	s.logger.Info(ctx, "player created",
		logger.Int64("player_id", p.ID),
		logger.String("age_group", p.AgeGroup),
	)
	return p, nil
}

// Players lists players, optionally filtered by age group.
func (s *Service) Players(ctx context.Context, ageGroup string) ([]model.Player, error) {
	return s.store.ListPlayers(ctx, ageGroup)
}

// PlayerSummary returns a player with their cached official composite.
func (s *Service) PlayerSummary(ctx context.Context, playerID int64) (model.Player, error) {
	return s.store.GetPlayer(ctx, playerID)
}

// PlayerResults returns every drill result recorded for one player.
func (s *Service) PlayerResults(ctx context.Context, playerID int64) ([]model.DrillResult, error) {
	if _, err := s.store.GetPlayer(ctx, playerID); err != nil {
		return nil, err
	}
	return s.store.ListPlayerResults(ctx, playerID)
}

// ResetPlayers wipes every player and drill result, clearing all derived
// state with them.
func (s *Service) ResetPlayers(ctx context.Context) (int64, error) {
	deleted, err := s.store.DeleteAllPlayers(ctx)
	if err != nil {
		return 0, err
	}

	// The index pointer is shared with concurrent readers, so it is
	// cleared in place rather than swapped.
	s.index.Reset()
	s.dirty.Reset()

	metrics.UpdateCohortCount(0)
	metrics.UpdateDirtyCohorts(0)
	s.logger.Warn(ctx, "all players deleted", logger.Int64("count", deleted))
	return deleted, nil
}

// SubmitDrillResult records a new attempt and synchronously renormalizes
// the affected cohort.
func (s *Service) SubmitDrillResult(ctx context.Context, playerID int64, drillKey string, rawScore float64) (model.DrillResult, error) {
	if _, err := s.registry.Get(drillKey); err != nil {
		return model.DrillResult{}, err
	}
	player, err := s.store.GetPlayer(ctx, playerID)
	if err != nil {
		return model.DrillResult{}, err
	}

	result := model.DrillResult{
		ID:       uuid.NewString(),
		PlayerID: playerID,
		DrillKey: drillKey,
		RawScore: rawScore,
	}
	key := cohort.Key{AgeGroup: player.AgeGroup, DrillKey: drillKey}
	err = s.mutateCohort(key, func() error {
		if err := s.store.SaveDrillResult(ctx, result); err != nil {
			return err
		}
		s.index.Upsert(key, result.ID, rawScore)
		return nil
	})
	if err != nil {
		return model.DrillResult{}, err
	}
	metrics.RecordResultSubmitted()

	if err := s.Recompute(ctx, key); err != nil {
		return model.DrillResult{}, err
	}
	return s.store.GetDrillResult(ctx, result.ID)
}

// CorrectDrillResult replaces the raw score of an existing result and
// renormalizes its cohort.
func (s *Service) CorrectDrillResult(ctx context.Context, resultID string, rawScore float64) (model.DrillResult, error) {
	result, err := s.store.GetDrillResult(ctx, resultID)
	if err != nil {
		return model.DrillResult{}, err
	}
	player, err := s.store.GetPlayer(ctx, result.PlayerID)
	if err != nil {
		return model.DrillResult{}, err
	}

	result.RawScore = rawScore
	key := cohort.Key{AgeGroup: player.AgeGroup, DrillKey: result.DrillKey}
	err = s.mutateCohort(key, func() error {
		if err := s.store.SaveDrillResult(ctx, result); err != nil {
			return err
		}
		s.index.Upsert(key, result.ID, rawScore)
		return nil
	})
	if err != nil {
		return model.DrillResult{}, err
	}
	metrics.RecordResultCorrected()

	if err := s.Recompute(ctx, key); err != nil {
		return model.DrillResult{}, err
	}
	return s.store.GetDrillResult(ctx, resultID)
}

// DeleteDrillResult removes a result and renormalizes its cohort.
func (s *Service) DeleteDrillResult(ctx context.Context, resultID string) error {
	result, err := s.store.GetDrillResult(ctx, resultID)
	if err != nil {
		return err
	}
	player, err := s.store.GetPlayer(ctx, result.PlayerID)
	if err != nil {
		return err
	}
	key := cohort.Key{AgeGroup: player.AgeGroup, DrillKey: result.DrillKey}
	err = s.mutateCohort(key, func() error {
		if err := s.store.DeleteDrillResult(ctx, resultID); err != nil {
			return err
		}
		s.index.Remove(key, resultID)
		return nil
	})
	if err != nil {
		return err
	}
	metrics.RecordResultDeleted()

	if err := s.Recompute(ctx, key); err != nil {
		return err
	}
	// The recompute pass only refreshes players still present in the
	// cohort; the owner of the deleted result must be refreshed explicitly
	// in case this was their last attempt at the drill.
	return s.refreshPlayerComposite(ctx, player.ID, player.AgeGroup)
}

// refreshPlayerComposite recomputes and persists one player's official
// composite from their stored normalized scores.
func (s *Service) refreshPlayerComposite(ctx context.Context, playerID int64, ageGroup string) error {
	results, err := s.store.ListDrillResults(ctx, ageGroup, "")
	if err != nil {
		return err
	}
	best := bestNormalized(results, nil)
	composite, err := s.scorer.Composite(best[playerID], s.official)
	if err != nil {
		return fmt.Errorf("composite for player %d: %w", playerID, err)
	}
	return s.store.SavePlayerCompositeScore(ctx, playerID, composite)
}

// TransferPlayerAgeGroup moves a player between age groups. Every drill
// cohort the player has results in is dirtied in both the old and the new
// age group: removal changes the old cohort's bounds, insertion the new
// one's.
func (s *Service) TransferPlayerAgeGroup(ctx context.Context, playerID int64, newAgeGroup string) (model.Player, error) {
	newAgeGroup = strings.TrimSpace(newAgeGroup)
	if newAgeGroup == "" {
		return model.Player{}, fmt.Errorf("%w: missing age group", ErrInvalidInput)
	}
	player, err := s.store.GetPlayer(ctx, playerID)
	if err != nil {
		return model.Player{}, err
	}
	if player.AgeGroup == newAgeGroup {
		return player, nil
	}

	results, err := s.store.ListPlayerResults(ctx, playerID)
	if err != nil {
		return model.Player{}, err
	}
	if err := s.store.UpdatePlayerAgeGroup(ctx, playerID, newAgeGroup); err != nil {
		return model.Player{}, err
	}

	touched := make(map[cohort.Key]struct{})
	for _, r := range results {
		oldKey := cohort.Key{AgeGroup: player.AgeGroup, DrillKey: r.DrillKey}
		newKey := cohort.Key{AgeGroup: newAgeGroup, DrillKey: r.DrillKey}
		if err := s.mutateCohort(oldKey, func() error {
			s.index.Remove(oldKey, r.ID)
			return nil
		}); err != nil {
			return model.Player{}, err
		}
		if err := s.mutateCohort(newKey, func() error {
			s.index.Upsert(newKey, r.ID, r.RawScore)
			return nil
		}); err != nil {
			return model.Player{}, err
		}
		touched[oldKey] = struct{}{}
		touched[newKey] = struct{}{}
	}
	metrics.RecordPlayerTransfer()
	s.logger.Info(ctx, "player transferred",
		logger.Int64("player_id", playerID),
		logger.String("from", player.AgeGroup),
		logger.String("to", newAgeGroup),
		logger.Int("cohorts", len(touched)),
	)

	keys := make([]cohort.Key, 0, len(touched))
	for k := range touched {
		keys = append(keys, k)
	}
	if err := s.recomputeKeys(ctx, keys); err != nil {
		return model.Player{}, err
	}
	return s.store.GetPlayer(ctx, playerID)
}

// ImportResults applies pre-validated bulk rows as creations, then
// recomputes each touched cohort exactly once. Rows referencing unknown
// jersey numbers are skipped, not fatal.
func (s *Service) ImportResults(ctx context.Context, rows []importer.Row) (types.ImportSummary, error) {
	summary := types.ImportSummary{}
	touched := make(map[cohort.Key]struct{})

	for i, row := range rows {
		player, err := s.store.GetPlayerByNumber(ctx, row.PlayerNumber)
		if err != nil {
			summary.Skipped++
			summary.RowErrors = append(summary.RowErrors,
				fmt.Sprintf("row %d: player number %d: %v", i+1, row.PlayerNumber, err))
			continue
		}
		if _, err := s.registry.Get(row.DrillKey); err != nil {
			summary.Skipped++
			summary.RowErrors = append(summary.RowErrors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}

		result := model.DrillResult{
			ID:       uuid.NewString(),
			PlayerID: player.ID,
			DrillKey: row.DrillKey,
			RawScore: row.RawScore,
		}
		key := cohort.Key{AgeGroup: player.AgeGroup, DrillKey: row.DrillKey}
		err = s.mutateCohort(key, func() error {
			if err := s.store.SaveDrillResult(ctx, result); err != nil {
				return err
			}
			s.index.Upsert(key, result.ID, row.RawScore)
			return nil
		})
		if err != nil {
			return summary, fmt.Errorf("apply import row %d: %w", i+1, err)
		}
		touched[key] = struct{}{}
		summary.Applied++
	}
	metrics.RecordImportRows(summary.Applied, summary.Skipped)

	keys := make([]cohort.Key, 0, len(touched))
	for k := range touched {
		keys = append(keys, k)
	}
	summary.CohortsRecomputed = len(keys)
	if err := s.recomputeKeys(ctx, keys); err != nil {
		return summary, err
	}

	s.logger.Info(ctx, "bulk import applied",
		logger.Int("applied", summary.Applied),
		logger.Int("skipped", summary.Skipped),
		logger.Int("cohorts", summary.CohortsRecomputed),
	)
	return summary, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":       started,
		"cohorts":       s.index.Count(),
		"dirty_cohorts": s.dirty.Size(),
		"drills":        len(s.registry.Keys()),
	}

	if players, err := s.store.CountPlayers(ctx); err == nil {
		stats["players"] = players
		metrics.UpdateTotalPlayers(players)
	}
	metrics.UpdateCohortCount(s.index.Count())
	metrics.UpdateDirtyCohorts(s.dirty.Size())
	return stats
}
