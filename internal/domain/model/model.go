// Package model contains domain models passed between layers.
package model

// Player is the storage collaborator's record. The engine treats it as an
// opaque reference key plus the age group that determines cohort membership.
// CompositeScore is a cached projection computed with the official weight
// profile; it is owned by the recomputation coordinator.
type Player struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	AgeGroup       string  `json:"age_group"`
	JerseyNumber   int64   `json:"jersey_number,omitempty"`
	CompositeScore float64 `json:"composite_score"`
}

// DrillResult records one attempt at one drill. RawScore is the
// authoritative input; NormalizedScore is a derived cache that must always
// be recomputable from the raw score plus the current cohort bounds.
type DrillResult struct {
	ID              string  `json:"id"`
	PlayerID        int64   `json:"player_id"`
	DrillKey        string  `json:"drill_key"`
	RawScore        float64 `json:"raw_score"`
	NormalizedScore float64 `json:"normalized_score"`
}
