// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and SHOTLINE_* environment variables on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/okian/shotline/internal/domain/accuracy"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of analyzer workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many shot IDs are remembered for idempotency.
	DedupeSize int `koanf:"dedupe_size"`

	// StoreDriver selects where accuracy records live: memory, sqlite or postgres.
	StoreDriver string `koanf:"store_driver"`
	SQLitePath  string `koanf:"sqlite_path"`
	PostgresURL string `koanf:"postgres_url"`

	// Category bounds. Distances are meters, directions degrees.
	DistanceOnTargetM    float64 `koanf:"distance_on_target_m"`
	DistanceCloseM       float64 `koanf:"distance_close_m"`
	DistanceModerateM    float64 `koanf:"distance_moderate_m"`
	DirectionOnLineDeg   float64 `koanf:"direction_on_line_deg"`
	DirectionSlightDeg   float64 `koanf:"direction_slight_deg"`
	DirectionModerateDeg float64 `koanf:"direction_moderate_deg"`

	// SummaryMinSample is the default minimum group size for /summary.
	SummaryMinSample int `koanf:"summary_min_sample"`
}

// New creates a Config holding the defaults.
func New(_ context.Context) *Config {
	th := accuracy.DefaultThresholds()
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		QueueSize:            10_000,
		WorkerCount:          runtime.NumCPU() * 2,
		DedupeSize:           100_000,
		StoreDriver:          DriverMemory,
		SQLitePath:           "shotline.db",
		DistanceOnTargetM:    th.DistanceOnTarget,
		DistanceCloseM:       th.DistanceClose,
		DistanceModerateM:    th.DistanceModerate,
		DirectionOnLineDeg:   th.DirectionOnLine,
		DirectionSlightDeg:   th.DirectionSlight,
		DirectionModerateDeg: th.DirectionModerate,
		SummaryMinSample:     1,
	}
}

// Thresholds returns the configured category bounds.
func (c *Config) Thresholds() accuracy.Thresholds {
	return accuracy.Thresholds{
		DistanceOnTarget:  c.DistanceOnTargetM,
		DistanceClose:     c.DistanceCloseM,
		DistanceModerate:  c.DistanceModerateM,
		DirectionOnLine:   c.DirectionOnLineDeg,
		DirectionSlight:   c.DirectionSlightDeg,
		DirectionModerate: c.DirectionModerateDeg,
	}
}

// Validate reports the first invalid setting, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.DedupeSize < 1:
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	case c.SummaryMinSample < 1:
		return fmt.Errorf("%w: summary_min_sample must be positive", ErrInvalidConfig)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}

	switch c.StoreDriver {
	case DriverMemory:
	case DriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("%w: sqlite_path is required for the sqlite driver", ErrInvalidConfig)
		}
	case DriverPostgres:
		if strings.TrimSpace(c.PostgresURL) == "" {
			return fmt.Errorf("%w: postgres_url is required for the postgres driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}

	if err := c.Thresholds().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
