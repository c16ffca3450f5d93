// Package repository defines the record-access interface the engine consumes
// and its SQL implementation. Drill results are the resource of record; the
// cohort index and cached scores are derived from them.
package repository

import (
	"context"

	"github.com/woocombine/combine/internal/domain/model"
)

// Store provides read/write access to players and drill results.
type Store interface {
	// CreatePlayer inserts a player and returns it with its assigned id.
	CreatePlayer(ctx context.Context, p model.Player) (model.Player, error)

	// GetPlayer returns a player by id. Returns ErrNotFound if unknown.
	GetPlayer(ctx context.Context, id int64) (model.Player, error)

	// GetPlayerByNumber returns a player by jersey number, used to resolve
	// bulk-import rows. Returns ErrNotFound if no player wears the number.
	GetPlayerByNumber(ctx context.Context, number int64) (model.Player, error)

	// ListPlayers returns players, optionally filtered by age group
	// (empty string means all), ordered by id.
	ListPlayers(ctx context.Context, ageGroup string) ([]model.Player, error)

	// CountPlayers returns the number of players on record.
	CountPlayers(ctx context.Context) (int64, error)

	// UpdatePlayerAgeGroup moves a player to a new age group.
	UpdatePlayerAgeGroup(ctx context.Context, id int64, ageGroup string) error

	// SavePlayerCompositeScore persists the official composite projection.
	SavePlayerCompositeScore(ctx context.Context, id int64, score float64) error

	// DeleteAllPlayers removes every player and their drill results,
	// returning the number of players deleted.
	DeleteAllPlayers(ctx context.Context) (int64, error)

	// SaveDrillResult inserts or updates a drill result by id.
	SaveDrillResult(ctx context.Context, r model.DrillResult) error

	// GetDrillResult returns a drill result by id. Returns ErrNotFound if
	// unknown.
	GetDrillResult(ctx context.Context, id string) (model.DrillResult, error)

	// DeleteDrillResult removes a drill result by id.
	DeleteDrillResult(ctx context.Context, id string) error

	// ListDrillResults returns drill results filtered by the players' age
	// group and/or drill key; empty strings mean no filter.
	ListDrillResults(ctx context.Context, ageGroup, drillKey string) ([]model.DrillResult, error)

	// ListPlayerResults returns every drill result for one player.
	ListPlayerResults(ctx context.Context, playerID int64) ([]model.DrillResult, error)
}
