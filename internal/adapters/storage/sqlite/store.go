// Package sqlite persists shots, stone positions and accuracy records in a
// SQLite database. The schema is created by embedded migrations on Open.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/shotline/internal/adapters/repository"
	"github.com/okian/shotline/internal/adapters/storage/sqlite/migrations"
	"github.com/okian/shotline/internal/domain/model"
	"github.com/okian/shotline/pkg/logger"
	"github.com/okian/shotline/pkg/metrics"
)

const driverName = "sqlite"

// Store is a SQLite-backed repository.Store, repository.ShotSource and
// repository.ShotSink.
type Store struct {
	db     *sql.DB
	log    logger.Logger
	closed atomic.Bool
}

var (
	_ repository.Store      = (*Store)(nil)
	_ repository.ShotSource = (*Store)(nil)
	_ repository.ShotSink   = (*Store)(nil)
)

// Open opens (creating if needed) the database at path and applies pending
// migrations.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}

	s := &Store{log: logger.Get().Named("sqlite")}
	for _, opt := range opts {
		opt(s)
	}

	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	s.db = db

	if err := s.migrateUp(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	s.log.Info(ctx, "sqlite store opened", logger.String("path", path))
	return s, nil
}

// migrateUp applies all pending migrations. The migrate instance is not
// closed because that would close the shared *sql.DB.
func (s *Store) migrateUp() error {
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, driverName, driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	m.Log = &migrateLogger{log: s.log}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// migrateLogger adapts logger.Logger to migrate.Logger.
type migrateLogger struct {
	log logger.Logger
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.log.Debug(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *migrateLogger) Verbose() bool { return false }

// Close closes the database. It is safe to call more than once.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.db.Close()
}

// fail records a store error metric and wraps err with the operation name.
func (s *Store) fail(op string, err error) error {
	metrics.RecordStoreError(driverName, op)
	return fmt.Errorf("sqlite %s: %w", op, err)
}

// Save implements repository.Store. An existing record for the same shot is
// replaced.
func (s *Store) Save(ctx context.Context, rec model.ShotAccuracy) error {
	if s.closed.Load() {
		return repository.ErrStoreClosed
	}
	start := time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shot_accuracy_metrics (
			shot_id, shot_type, color, player_name,
			final_position_x, final_position_y, target_position_x, target_position_y, confidence,
			target_distance_error, path_direction_error,
			distance_category, direction_category, error_magnitude,
			outcome_success, partial_success_score, computed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(shot_id) DO UPDATE SET
			shot_type = excluded.shot_type,
			color = excluded.color,
			player_name = excluded.player_name,
			final_position_x = excluded.final_position_x,
			final_position_y = excluded.final_position_y,
			target_position_x = excluded.target_position_x,
			target_position_y = excluded.target_position_y,
			confidence = excluded.confidence,
			target_distance_error = excluded.target_distance_error,
			path_direction_error = excluded.path_direction_error,
			distance_category = excluded.distance_category,
			direction_category = excluded.direction_category,
			error_magnitude = excluded.error_magnitude,
			outcome_success = excluded.outcome_success,
			partial_success_score = excluded.partial_success_score,
			computed_at = excluded.computed_at`,
		rec.ShotID, string(rec.ShotType), string(rec.Side), rec.PlayerName,
		rec.Final.X, rec.Final.Y, rec.Target.X, rec.Target.Y, rec.Target.Confidence,
		rec.DistanceError, rec.DirectionError,
		string(rec.DistanceCategory), string(rec.DirectionCategory), string(rec.ErrorMagnitude),
		rec.OutcomeSuccess, rec.PartialSuccess,
	)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanMetrics(row scanner) (model.ShotAccuracy, error) {
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
	rec, err := scanMetrics(s.db.QueryRowContext(ctx, selectMetrics+` WHERE shot_id = ?`, shotID))
	if errors.Is(err, sql.ErrNoRows) {
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
	rows, err := s.db.QueryContext(ctx, selectMetrics+` ORDER BY shot_id`)
	if err != nil {
		return nil, s.fail("list", err)
	}
	defer func() { _ = rows.Close() }()

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
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shot_accuracy_metrics`).Scan(&n); err != nil {
		return 0, s.fail("count", err)
	}
	metrics.UpdateStoredMetrics(n)
	return n, nil
}
