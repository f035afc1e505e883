package shotgen

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/shotline/internal/domain/model"
	"github.com/okian/shotline/internal/domain/types"
	"github.com/okian/shotline/pkg/logger"
)

var (
	errMissing  = errors.New("no accuracy record")
	errMismatch = errors.New("target differs from local inference")
)

// verifyShots reads back the record of every known shot and compares its
// target with the one the local engine infers.
func verifyShots(ctx context.Context, cfg *Config, jobs []model.Job, known []int64, stats *Stats) error {
	log := logger.Get()
	log.Info(ctx, "verifying shots", logger.Int("count", len(known)))

	client := newHTTPClient(cfg.Timeout)
	want := expectedTargets(jobs)

	var verified, missing, mismatched atomic.Int64
	idChan := make(chan int64, cfg.Workers*workerChanMultiple)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range idChan {
				err := verifySingleShot(ctx, client, cfg, id, want[id])
				switch {
				case err == nil:
					verified.Add(1)
				case errors.Is(err, errMismatch):
					mismatched.Add(1)
					log.Warn(ctx, "verification mismatch", logger.Int64("shot_id", id), logger.Error(err))
				default:
					missing.Add(1)
					if cfg.Verbose {
						log.Warn(ctx, "verification failed", logger.Int64("shot_id", id), logger.Error(err))
					}
				}
			}
		}()
	}

	go func() {
		defer close(idChan)
		for _, id := range known {
			select {
			case <-ctx.Done():
				return
			case idChan <- id:
			}
		}
	}()

	wg.Wait()

	stats.ShotsVerified = int(verified.Load())
	stats.ShotsMissing = int(missing.Load())
	stats.ShotsMismatched = int(mismatched.Load())

	log.Info(ctx, "shot verification completed",
		logger.Int("verified", stats.ShotsVerified),
		logger.Int("missing", stats.ShotsMissing),
		logger.Int("mismatched", stats.ShotsMismatched),
	)
	if stats.ShotsMismatched > 0 {
		return fmt.Errorf("%w: %d shots", errMismatch, stats.ShotsMismatched)
	}
	return nil
}

// verifySingleShot polls GET /metrics/{id} until a record appears or
// cfg.Settle elapses.
func verifySingleShot(ctx context.Context, client *HTTPClient, cfg *Config, id int64, want model.InferredTarget) error {
	url := fmt.Sprintf("%s/metrics/%d", cfg.BaseURL, id)
	deadline := time.Now().Add(cfg.Settle)

	for {
		var rec model.ShotAccuracy
		status, err := client.getJSON(ctx, url, &rec)
		if err == nil {
			return compareTarget(id, rec.Target, want)
		}
		if status != http.StatusNotFound || time.Now().After(deadline) {
			return fmt.Errorf("%s: %w: %w", shotLabel(id), errMissing, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func compareTarget(id int64, got, want model.InferredTarget) error {
	if math.Abs(got.X-want.X) > targetTolerance ||
		math.Abs(got.Y-want.Y) > targetTolerance ||
		math.Abs(got.Confidence-want.Confidence) > targetTolerance {
		return fmt.Errorf("%s: %w: got (%.4f, %.4f) at %.2f, want (%.4f, %.4f) at %.2f",
			shotLabel(id), errMismatch, got.X, got.Y, got.Confidence, want.X, want.Y, want.Confidence)
	}
	return nil
}

// fetchSummary reads the aggregate report.
func fetchSummary(ctx context.Context, cfg *Config, stats *Stats) (types.Summary, error) {
	client := newHTTPClient(cfg.Timeout)
	var sum types.Summary
	if _, err := client.getJSON(ctx, cfg.BaseURL+"/summary", &sum); err != nil {
		return types.Summary{}, fmt.Errorf("summary: %w", err)
	}
	stats.SummaryTotal = sum.Total

	fields := []logger.Field{logger.Int("total", sum.Total)}
	for _, st := range sum.ByShotType {
		fields = append(fields, logger.Float64(string(st.ShotType)+".mean_distance_error", st.MeanDistanceError))
	}
	logger.Get().Info(ctx, "summary retrieved", fields...)
	return sum, nil
}
