// Package analyzer runs one shot through thrown-stone detection, target
// inference and accuracy scoring.
package analyzer

import (
	"context"
	"time"

	"github.com/okian/shotline/internal/domain/accuracy"
	"github.com/okian/shotline/internal/domain/inference"
	"github.com/okian/shotline/internal/domain/model"
	"github.com/okian/shotline/internal/domain/snapshot"
	"github.com/okian/shotline/pkg/logger"
	"github.com/okian/shotline/pkg/metrics"
)

// unknownTypeLabel keeps arbitrary shot type strings out of metric labels.
const unknownTypeLabel = "unknown"

// Analyzer turns a Job into a ShotAccuracy record. It holds no mutable
// state, so one instance may be shared by all workers.
type Analyzer struct {
	engine     inference.Inferer
	calculator *accuracy.Calculator
	log        logger.Logger
}

// New creates an Analyzer with the stock engine and default thresholds.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		engine:     inference.NewEngine(),
		calculator: accuracy.NewCalculator(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.Get().Named("analyzer")
	}
	return a
}

// Thresholds returns the category bounds used for scoring.
func (a *Analyzer) Thresholds() accuracy.Thresholds {
	return a.calculator.Thresholds()
}

// Analyze scores a single shot. It reports false when no thrown stone can
// be identified; that outcome is expected and produces no record.
func (a *Analyzer) Analyze(ctx context.Context, job model.Job) (model.ShotAccuracy, bool) {
	start := time.Now()
	shot := job.Shot
	label := typeLabel(shot.Type)

	if len(job.Post) == 0 {
		a.indeterminate(ctx, shot, label, "empty post-shot snapshot")
		return model.ShotAccuracy{}, false
	}

	candidates := snapshot.NewPositions(shot.Side, job.Pre, job.Post)
	switch {
	case len(candidates) == 0:
		a.indeterminate(ctx, shot, label, "no thrown stone")
		return model.ShotAccuracy{}, false
	case len(candidates) > 1:
		metrics.RecordAmbiguousThrow()
		a.log.Warn(ctx, "several new stones for acting side, using the first",
			logger.Int64("shot_id", shot.ID),
			logger.String("side", string(shot.Side)),
			logger.Int("candidates", len(candidates)),
		)
	}
	thrown := candidates[0]

	target := a.engine.Infer(shot, job.Pre, job.Post)
	final := thrown.Point()
	m := a.calculator.Compute(target.Point, final)

	rec := model.ShotAccuracy{
		ShotID:          shot.ID,
		ShotType:        shot.Type,
		Side:            shot.Side,
		PlayerName:      shot.PlayerName,
		Final:           final,
		Target:          target,
		OutcomeSuccess:  shot.Successful(),
		PartialSuccess:  shot.PartialSuccess(),
		AccuracyMetrics: m,
	}

	metrics.RecordShotAnalyzed(label, string(m.ErrorMagnitude))
	metrics.RecordAccuracy(m.DistanceError, m.DirectionError, target.Confidence)
	metrics.RecordAnalysisLatency(float64(time.Since(start).Microseconds()) / 1000)

	a.log.Debug(ctx, "shot analyzed",
		logger.Int64("shot_id", shot.ID),
		logger.String("shot_type", string(shot.Type)),
		logger.Float64("distance_error", m.DistanceError),
		logger.Float64("direction_error", m.DirectionError),
		logger.String("error_magnitude", string(m.ErrorMagnitude)),
		logger.Float64("confidence", target.Confidence),
	)
	return rec, true
}

func (a *Analyzer) indeterminate(ctx context.Context, shot model.ShotRecord, label, reason string) {
	metrics.RecordShotIndeterminate(label)
	a.log.Debug(ctx, "shot skipped",
		logger.Int64("shot_id", shot.ID),
		logger.String("shot_type", string(shot.Type)),
		logger.String("reason", reason),
	)
}

func typeLabel(t model.ShotType) string {
	if t.Known() {
		return string(t)
	}
	return unknownTypeLabel
}
