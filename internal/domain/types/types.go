// Package types contains common read shapes shared across the application.
package types

// RankedEntry is one leaderboard row. Entries are produced fresh on every
// ranking request and are never persisted as authoritative state.
type RankedEntry struct {
	Rank           int     `json:"rank"`
	PlayerID       int64   `json:"player_id"`
	CompositeScore float64 `json:"composite_score"`
}

// RankingDetail is a leaderboard row enriched with player fields and the
// best normalized score per drill, used by exports and detail views.
type RankingDetail struct {
	Rank           int                `json:"rank"`
	PlayerID       int64              `json:"player_id"`
	Name           string             `json:"name"`
	JerseyNumber   int64              `json:"jersey_number,omitempty"`
	AgeGroup       string             `json:"age_group"`
	CompositeScore float64            `json:"composite_score"`
	DrillScores    map[string]float64 `json:"drill_scores"`
}

// ImportSummary reports the outcome of a bulk import: how many rows were
// applied, how many were skipped (unknown player number or drill), and how
// many cohorts were recomputed afterwards.
type ImportSummary struct {
	Applied           int      `json:"applied"`
	Skipped           int      `json:"skipped"`
	CohortsRecomputed int      `json:"cohorts_recomputed"`
	RowErrors         []string `json:"row_errors,omitempty"`
}
