package app

import (
	"context"
	"fmt"

	"github.com/woocombine/combine/internal/domain/ranking"
	"github.com/woocombine/combine/internal/domain/scoring"
	"github.com/woocombine/combine/internal/domain/types"
	"github.com/woocombine/combine/pkg/metrics"
)

// Rankings returns the official leaderboard for an age group. Any cohort in
// the age group still marked Dirty is recomputed first; rankings are never
// served from untrusted caches.
func (s *Service) Rankings(ctx context.Context, ageGroup string) ([]types.RankedEntry, error) {
	if ageGroup == "" {
		return nil, fmt.Errorf("%w: missing age group", ErrInvalidInput)
	}
	if err := s.recomputeKeys(ctx, s.dirty.SnapshotAgeGroup(ageGroup)); err != nil {
		return nil, err
	}

	players, err := s.store.ListPlayers(ctx, ageGroup)
	if err != nil {
		return nil, err
	}
	entries := make([]ranking.Entry, 0, len(players))
	for _, p := range players {
		entries = append(entries, ranking.Entry{PlayerID: p.ID, CompositeScore: p.CompositeScore})
	}
	metrics.RecordRankingRequest()
	return s.ranker.Rank(entries), nil
}

// WhatIfRankings re-ranks an age group under a caller-supplied weight
// profile. It reads only a snapshot of the already-normalized scores:
// neither the cohort index, nor the persisted caches, nor the Clean/Dirty
// state are touched, so a preview can never interfere with the official
// computation.
func (s *Service) WhatIfRankings(ctx context.Context, ageGroup string, profile scoring.Profile) ([]types.RankedEntry, error) {
	if ageGroup == "" {
		return nil, fmt.Errorf("%w: missing age group", ErrInvalidInput)
	}
	if err := profile.Validate(s.registry); err != nil {
		return nil, err
	}

	players, err := s.store.ListPlayers(ctx, ageGroup)
	if err != nil {
		return nil, err
	}
	results, err := s.store.ListDrillResults(ctx, ageGroup, "")
	if err != nil {
		return nil, err
	}
	best := bestNormalized(results, nil)

	entries := make([]ranking.Entry, 0, len(players))
	for _, p := range players {
		composite, err := s.scorer.Composite(best[p.ID], profile)
		if err != nil {
			return nil, fmt.Errorf("what-if composite for player %d: %w", p.ID, err)
		}
		entries = append(entries, ranking.Entry{PlayerID: p.ID, CompositeScore: composite})
	}
	metrics.RecordWhatIfRequest()
	return s.ranker.Rank(entries), nil
}

// RankingDetails returns the official leaderboard enriched with player
// fields and per-drill best normalized scores, the rows exports are built
// from.
func (s *Service) RankingDetails(ctx context.Context, ageGroup string) ([]types.RankingDetail, error) {
	ranked, err := s.Rankings(ctx, ageGroup)
	if err != nil {
		return nil, err
	}

	players, err := s.store.ListPlayers(ctx, ageGroup)
	if err != nil {
		return nil, err
	}
	playersByID := make(map[int64]int, len(players))
	for i, p := range players {
		playersByID[p.ID] = i
	}

	results, err := s.store.ListDrillResults(ctx, ageGroup, "")
	if err != nil {
		return nil, err
	}
	best := bestNormalized(results, nil)

	details := make([]types.RankingDetail, 0, len(ranked))
	for _, entry := range ranked {
		idx, ok := playersByID[entry.PlayerID]
		if !ok {
			continue
		}
		p := players[idx]
		details = append(details, types.RankingDetail{
			Rank:           entry.Rank,
			PlayerID:       p.ID,
			Name:           p.Name,
			JerseyNumber:   p.JerseyNumber,
			AgeGroup:       p.AgeGroup,
			CompositeScore: entry.CompositeScore,
			DrillScores:    best[p.ID],
		})
	}
	return details, nil
}
