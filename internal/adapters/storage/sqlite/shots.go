package sqlite

import (
	"context"
	"fmt"

	"github.com/okian/shotline/internal/adapters/repository"
	"github.com/okian/shotline/internal/domain/model"
)

// SaveShot inserts or replaces a shot row, creating its end if needed.
func (s *Store) SaveShot(ctx context.Context, shot model.ShotRecord) error {
	if s.closed.Load() {
		return repository.ErrStoreClosed
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.fail("save_shot", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO ends (id) VALUES (?) ON CONFLICT(id) DO NOTHING`, shot.EndID); err != nil {
		return s.fail("save_shot", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO shots (id, end_id, number, color, type, player_name, percent_score)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			end_id = excluded.end_id,
			number = excluded.number,
			color = excluded.color,
			type = excluded.type,
			player_name = excluded.player_name,
			percent_score = excluded.percent_score`,
		shot.ID, shot.EndID, shot.Number, string(shot.Side), string(shot.Type), shot.PlayerName, shot.PercentScore,
	)
	if err != nil {
		return s.fail("save_shot", err)
	}
	if err := tx.Commit(); err != nil {
		return s.fail("save_shot", err)
	}
	return nil
}

// SavePositions replaces the positions recorded after shotID. The shot must
// already exist.
func (s *Store) SavePositions(ctx context.Context, shotID int64, positions []model.Position) error {
	if s.closed.Load() {
		return repository.ErrStoreClosed
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.fail("save_positions", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM stone_positions WHERE shot_id = ?`, shotID); err != nil {
		return s.fail("save_positions", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO stone_positions (shot_id, color, x, y) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return s.fail("save_positions", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, p := range positions {
		if _, err := stmt.ExecContext(ctx, shotID, string(p.Side), p.X, p.Y); err != nil {
			return s.fail("save_positions", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return s.fail("save_positions", err)
	}
	return nil
}

// Shots implements repository.ShotSource.
func (s *Store) Shots(ctx context.Context) ([]model.ShotRecord, error) {
	if s.closed.Load() {
		return nil, repository.ErrStoreClosed
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, end_id, number, color, type, player_name, percent_score
		FROM shots
		ORDER BY end_id, number, id`)
	if err != nil {
		return nil, s.fail("shots", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.ShotRecord
	for rows.Next() {
		var (
			shot           model.ShotRecord
			side, shotType string
		)
		if err := rows.Scan(&shot.ID, &shot.EndID, &shot.Number, &side, &shotType, &shot.PlayerName, &shot.PercentScore); err != nil {
			return nil, s.fail("shots", err)
		}
		shot.Side = model.Side(side)
		shot.Type = model.ShotType(shotType)
		out = append(out, shot)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("shots", err)
	}
	return out, nil
}

// Snapshots implements repository.ShotSource. Positions keep their insertion
// order so the first-candidate rule downstream stays deterministic.
func (s *Store) Snapshots(ctx context.Context, shot model.ShotRecord) (pre, post []model.Position, err error) {
	if s.closed.Load() {
		return nil, nil, repository.ErrStoreClosed
	}
	if shot.Number > 1 {
		pre, err = s.positions(ctx, `
			SELECT p.color, p.x, p.y
			FROM stone_positions p
			JOIN shots sh ON sh.id = p.shot_id
			WHERE sh.end_id = ? AND sh.number = ?
			ORDER BY p.id`, shot.EndID, shot.Number-1)
		if err != nil {
			return nil, nil, err
		}
	}
	post, err = s.positions(ctx, `
		SELECT color, x, y FROM stone_positions WHERE shot_id = ? ORDER BY id`, shot.ID)
	if err != nil {
		return nil, nil, err
	}
	if pre == nil {
		pre = []model.Position{}
	}
	return pre, post, nil
}

func (s *Store) positions(ctx context.Context, query string, args ...any) ([]model.Position, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.fail("snapshots", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.Position{}
	for rows.Next() {
		var (
			p    model.Position
			side string
		)
		if err := rows.Scan(&side, &p.X, &p.Y); err != nil {
			return nil, s.fail("snapshots", err)
		}
		p.Side = model.Side(side)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("snapshots", fmt.Errorf("iterate positions: %w", err))
	}
	return out, nil
}
