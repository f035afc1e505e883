// Package postgres stores accuracy records in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/shotline/internal/adapters/repository"
	"github.com/okian/shotline/internal/domain/model"
	"github.com/okian/shotline/pkg/logger"
	"github.com/okian/shotline/pkg/metrics"
)

const driverName = "postgres"

const schema = `
CREATE TABLE IF NOT EXISTS shot_accuracy_metrics (
    shot_id               BIGINT PRIMARY KEY,
    shot_type             TEXT             NOT NULL,
    color                 TEXT             NOT NULL,
    player_name           TEXT             NOT NULL DEFAULT '',
    final_position_x      DOUBLE PRECISION NOT NULL,
    final_position_y      DOUBLE PRECISION NOT NULL,
    target_position_x     DOUBLE PRECISION NOT NULL,
    target_position_y     DOUBLE PRECISION NOT NULL,
    confidence            DOUBLE PRECISION NOT NULL,
    target_distance_error DOUBLE PRECISION NOT NULL,
    path_direction_error  DOUBLE PRECISION NOT NULL,
    distance_category     TEXT             NOT NULL,
    direction_category    TEXT             NOT NULL,
    error_magnitude       TEXT             NOT NULL,
    outcome_success       BOOLEAN          NOT NULL,
    partial_success_score DOUBLE PRECISION NOT NULL,
    computed_at           TIMESTAMPTZ      NOT NULL DEFAULT now()
)`

// Store is a PostgreSQL-backed repository.Store.
type Store struct {
	pool   *pgxpool.Pool
	log    logger.Logger
	closed atomic.Bool
}

var _ repository.Store = (*Store)(nil)

// Open connects to the database at url and creates the metrics table if it
// does not exist.
func Open(ctx context.Context, url string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("postgres url is required")
	}
	s := &Store{log: logger.Get().Named("postgres")}
	for _, opt := range opts {
		opt(s)
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	s.pool = pool
	s.log.Info(ctx, "postgres store opened")
	return s, nil
}

// Close releases the pool. It is safe to call more than once.
func (s *Store) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.pool.Close()
	}
	return nil
}

func (s *Store) fail(op string, err error) error {
	metrics.RecordStoreError(driverName, op)
	return fmt.Errorf("postgres %s: %w", op, err)
}

// Save implements repository.Store.
func (s *Store) Save(ctx context.Context, rec model.ShotAccuracy) error {
	if s.closed.Load() {
		return repository.ErrStoreClosed
	}
	start := time.Now()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO shot_accuracy_metrics (
			shot_id, shot_type, color, player_name,
			final_position_x, final_position_y, target_position_x, target_position_y, confidence,
			target_distance_error, path_direction_error,
			distance_category, direction_category, error_magnitude,
			outcome_success, partial_success_score, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, now())
		ON CONFLICT (shot_id) DO UPDATE SET
			shot_type = EXCLUDED.shot_type,
			color = EXCLUDED.color,
			player_name = EXCLUDED.player_name,
			final_position_x = EXCLUDED.final_position_x,
			final_position_y = EXCLUDED.final_position_y,
			target_position_x = EXCLUDED.target_position_x,
			target_position_y = EXCLUDED.target_position_y,
			confidence = EXCLUDED.confidence,
			target_distance_error = EXCLUDED.target_distance_error,
			path_direction_error = EXCLUDED.path_direction_error,
			distance_category = EXCLUDED.distance_category,
			direction_category = EXCLUDED.direction_category,
			error_magnitude = EXCLUDED.error_magnitude,
			outcome_success = EXCLUDED.outcome_success,
			partial_success_score = EXCLUDED.partial_success_score,
			computed_at = EXCLUDED.computed_at
	`, rec.ShotID, string(rec.ShotType), string(rec.Side), rec.PlayerName,
		rec.Final.X, rec.Final.Y, rec.Target.X, rec.Target.Y, rec.Target.Confidence,
		rec.DistanceError, rec.DirectionError,
		string(rec.DistanceCategory), string(rec.DirectionCategory), string(rec.ErrorMagnitude),
		rec.OutcomeSuccess, rec.PartialSuccess)
	if err != nil {
		return s.fail("save", err)
	}
	metrics.RecordStoreSaveLatency(float64(time.Since(start).Microseconds()) / 1000)
	return nil
}

const selectMetrics = `
	SELECT shot_id, shot_type, color, player_name,
		final_position_x, final_position_y, target_position_x, target_position_y, confidence,
		target_distance_error, path_direction_error,
		distance_category, direction_category, error_magnitude,
		outcome_success, partial_success_score
	FROM shot_accuracy_metrics`

func scanMetrics(row pgx.Row) (model.ShotAccuracy, error) {
	var (
		rec                        model.ShotAccuracy
		shotType, side             string
		distCat, dirCat, magnitude string
	)
	err := row.Scan(
		&rec.ShotID, &shotType, &side, &rec.PlayerName,
		&rec.Final.X, &rec.Final.Y, &rec.Target.X, &rec.Target.Y, &rec.Target.Confidence,
		&rec.DistanceError, &rec.DirectionError,
		&distCat, &dirCat, &magnitude,
		&rec.OutcomeSuccess, &rec.PartialSuccess,
	)
	if err != nil {
		return model.ShotAccuracy{}, err
	}
	rec.ShotType = model.ShotType(shotType)
	rec.Side = model.Side(side)
	rec.DistanceCategory = model.DistanceCategory(distCat)
	rec.DirectionCategory = model.DirectionCategory(dirCat)
	rec.ErrorMagnitude = model.ErrorMagnitude(magnitude)
	return rec, nil
}

// Get implements repository.Store.
func (s *Store) Get(ctx context.Context, shotID int64) (model.ShotAccuracy, error) {
	if s.closed.Load() {
		return model.ShotAccuracy{}, repository.ErrStoreClosed
	}
	rec, err := scanMetrics(s.pool.QueryRow(ctx, selectMetrics+` WHERE shot_id = $1`, shotID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ShotAccuracy{}, repository.ErrNotFound
	}
	if err != nil {
		return model.ShotAccuracy{}, s.fail("get", err)
	}
	return rec, nil
}

// List implements repository.Store.
func (s *Store) List(ctx context.Context) ([]model.ShotAccuracy, error) {
	if s.closed.Load() {
		return nil, repository.ErrStoreClosed
	}
	rows, err := s.pool.Query(ctx, selectMetrics+` ORDER BY shot_id`)
	if err != nil {
		return nil, s.fail("list", err)
	}
	defer rows.Close()

	out := []model.ShotAccuracy{}
	for rows.Next() {
		rec, err := scanMetrics(rows)
		if err != nil {
			return nil, s.fail("list", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("list", err)
	}
	return out, nil
}

// Count implements repository.Store.
func (s *Store) Count(ctx context.Context) (int, error) {
	if s.closed.Load() {
		return 0, repository.ErrStoreClosed
	}
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM shot_accuracy_metrics`).Scan(&n); err != nil {
		return 0, s.fail("count", err)
	}
	metrics.UpdateStoredMetrics(n)
	return n, nil
}
