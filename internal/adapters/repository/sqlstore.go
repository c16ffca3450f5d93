package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/woocombine/combine/internal/domain/model"
)

// SQLStore implements Store over database/sql for both supported drivers.
type SQLStore struct {
	db     *sql.DB
	driver Driver
}

// NewSQLStore wraps an opened database.
func NewSQLStore(db *sql.DB, driver Driver) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind converts ? placeholders to $1.. for the pgx driver. Queries are
// written once in ? form.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) CreatePlayer(ctx context.Context, p model.Player) (model.Player, error) {
	err := s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO players (name, age_group, jersey_number, composite_score)
		VALUES (?, ?, NULLIF(?, 0), 0)
		RETURNING id`),
		p.Name, p.AgeGroup, p.JerseyNumber).Scan(&p.ID)
	if err != nil {
		return model.Player{}, fmt.Errorf("create player: %w", err)
	}
	p.CompositeScore = 0
	return p, nil
}

func (s *SQLStore) GetPlayer(ctx context.Context, id int64) (model.Player, error) {
	return s.scanPlayer(s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, name, age_group, COALESCE(jersey_number, 0), composite_score
		FROM players WHERE id = ?`), id))
}

func (s *SQLStore) GetPlayerByNumber(ctx context.Context, number int64) (model.Player, error) {
	return s.scanPlayer(s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, name, age_group, COALESCE(jersey_number, 0), composite_score
		FROM players WHERE jersey_number = ?`), number))
}

func (s *SQLStore) scanPlayer(row *sql.Row) (model.Player, error) {
	var p model.Player
	err := row.Scan(&p.ID, &p.Name, &p.AgeGroup, &p.JerseyNumber, &p.CompositeScore)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Player{}, ErrNotFound
	}
	if err != nil {
		return model.Player{}, fmt.Errorf("scan player: %w", err)
	}
	return p, nil
}

func (s *SQLStore) ListPlayers(ctx context.Context, ageGroup string) ([]model.Player, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, name, age_group, COALESCE(jersey_number, 0), composite_score
		FROM players
		WHERE (? = '' OR age_group = ?)
		ORDER BY id`), ageGroup, ageGroup)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var out []model.Player
	for rows.Next() {
		var p model.Player
		if err := rows.Scan(&p.ID, &p.Name, &p.AgeGroup, &p.JerseyNumber, &p.CompositeScore); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return out, nil
}

func (s *SQLStore) CountPlayers(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM players`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count players: %w", err)
	}
	return n, nil
}

func (s *SQLStore) UpdatePlayerAgeGroup(ctx context.Context, id int64, ageGroup string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE players SET age_group = ? WHERE id = ?`), ageGroup, id)
	if err != nil {
		return fmt.Errorf("update age group: %w", err)
	}
	return requireRow(res)
}

func (s *SQLStore) SavePlayerCompositeScore(ctx context.Context, id int64, score float64) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE players SET composite_score = ? WHERE id = ?`), score, id)
	if err != nil {
		return fmt.Errorf("save composite score: %w", err)
	}
	return requireRow(res)
}

func (s *SQLStore) DeleteAllPlayers(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin reset: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM drill_results`); err != nil {
		return 0, fmt.Errorf("delete drill results: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM players`)
	if err != nil {
		return 0, fmt.Errorf("delete players: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit reset: %w", err)
	}
	return deleted, nil
}

func (s *SQLStore) SaveDrillResult(ctx context.Context, r model.DrillResult) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO drill_results (id, player_id, drill_key, raw_score, normalized_score)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			player_id = excluded.player_id,
			drill_key = excluded.drill_key,
			raw_score = excluded.raw_score,
			normalized_score = excluded.normalized_score`),
		r.ID, r.PlayerID, r.DrillKey, r.RawScore, r.NormalizedScore)
	if err != nil {
		return fmt.Errorf("save drill result: %w", err)
	}
	return nil
}

func (s *SQLStore) GetDrillResult(ctx context.Context, id string) (model.DrillResult, error) {
	var r model.DrillResult
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, player_id, drill_key, raw_score, normalized_score
		FROM drill_results WHERE id = ?`), id).
		Scan(&r.ID, &r.PlayerID, &r.DrillKey, &r.RawScore, &r.NormalizedScore)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DrillResult{}, ErrNotFound
	}
	if err != nil {
		return model.DrillResult{}, fmt.Errorf("get drill result: %w", err)
	}
	return r, nil
}

func (s *SQLStore) DeleteDrillResult(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM drill_results WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete drill result: %w", err)
	}
	return requireRow(res)
}

func (s *SQLStore) ListDrillResults(ctx context.Context, ageGroup, drillKey string) ([]model.DrillResult, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT r.id, r.player_id, r.drill_key, r.raw_score, r.normalized_score
		FROM drill_results r
		JOIN players p ON p.id = r.player_id
		WHERE (? = '' OR p.age_group = ?)
		  AND (? = '' OR r.drill_key = ?)
		ORDER BY r.id`), ageGroup, ageGroup, drillKey, drillKey)
	if err != nil {
		return nil, fmt.Errorf("list drill results: %w", err)
	}
	return scanResults(rows)
}

func (s *SQLStore) ListPlayerResults(ctx context.Context, playerID int64) ([]model.DrillResult, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, player_id, drill_key, raw_score, normalized_score
		FROM drill_results WHERE player_id = ?
		ORDER BY id`), playerID)
	if err != nil {
		return nil, fmt.Errorf("list player results: %w", err)
	}
	return scanResults(rows)
}

func scanResults(rows *sql.Rows) ([]model.DrillResult, error) {
	defer rows.Close()

	var out []model.DrillResult
	for rows.Next() {
		var r model.DrillResult
		if err := rows.Scan(&r.ID, &r.PlayerID, &r.DrillKey, &r.RawScore, &r.NormalizedScore); err != nil {
			return nil, fmt.Errorf("scan drill result: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate drill results: %w", err)
	}
	return out, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
