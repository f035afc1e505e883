// Package shotgen drives a running service with simulated curling ends and
// checks the accuracy records it produces.
package shotgen

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/shotline/pkg/logger"
)

// Run executes a complete generator run.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting shot generator",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("shots", cfg.NumShots),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
		logger.Bool("verbose", cfg.Verbose),
	)

	if err := checkServiceHealth(ctx, cfg); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	jobs := Generate(ctx, cfg, stats)
	known := submitShots(ctx, cfg, jobs, stats)

	if err := verifyShots(ctx, cfg, jobs, known, stats); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	if _, err := fetchSummary(ctx, cfg, stats); err != nil {
		return stats, err
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, cfg *Config) error {
	client := newHTTPClient(cfg.Timeout)
	resp, err := client.Get(ctx, cfg.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// The service answers /healthz with Prometheus metrics.
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return nil
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var acceptRate, shotsPerSecond float64
	if stats.ShotsSubmitted > 0 {
		acceptRate = float64(stats.ShotsAccepted) / float64(stats.ShotsSubmitted) * percentMultiplier
	}
	if stats.Duration > 0 {
		shotsPerSecond = float64(stats.ShotsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("shotsGenerated", stats.ShotsGenerated),
		logger.Int("shotsSubmitted", stats.ShotsSubmitted),
		logger.Int("shotsAccepted", stats.ShotsAccepted),
		logger.Int("shotsDuplicate", stats.ShotsDuplicate),
		logger.Int("shotsFailed", stats.ShotsFailed),
		logger.Int("shotsVerified", stats.ShotsVerified),
		logger.Int("shotsMissing", stats.ShotsMissing),
		logger.Int("summaryTotal", stats.SummaryTotal),
		logger.Duration("duration", stats.Duration),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("shotsPerSecond", shotsPerSecond),
	)
}
