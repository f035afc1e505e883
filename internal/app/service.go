// Package service wires the analyzer, job queue, worker pool and record
// store together and exposes the operations used by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/shotline/internal/adapters/mq/queue"
	"github.com/okian/shotline/internal/adapters/mq/worker"
	"github.com/okian/shotline/internal/adapters/repository"
	"github.com/okian/shotline/internal/analysis"
	"github.com/okian/shotline/internal/domain/accuracy"
	"github.com/okian/shotline/internal/domain/analyzer"
	"github.com/okian/shotline/internal/domain/dedupe"
	"github.com/okian/shotline/internal/domain/model"
	"github.com/okian/shotline/internal/domain/types"
	"github.com/okian/shotline/pkg/logger"
	"github.com/okian/shotline/pkg/metrics"
)

const (
	defaultQueueSize  = 10_000
	defaultDedupeSize = 100_000

	stopTimeout     = 30 * time.Second
	backfillBackoff = 10 * time.Millisecond

	maxPercentScore = 100
)

// SubmitStatus tells an accepted submission apart from a repeated one.
type SubmitStatus int

// Submission outcomes.
const (
	Accepted SubmitStatus = iota
	Duplicate
)

// Service runs shot analysis and serves the stored results.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	ownsStore bool
	source    repository.ShotSource
	sink      repository.ShotSink
	deduper   dedupe.Deduper
	jobs      *queue.InMemoryQueue
	analyzer  *analyzer.Analyzer
	pool      *worker.Pool

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	thresholds  *accuracy.Thresholds

	// runCtx outlives the context passed to Start so that Stop can drain
	// the queue after the caller's context is done.
	runCtx    context.Context
	cancelRun context.CancelFunc

	runsMu sync.Mutex
	runs   map[string]types.BackfillResult

	started bool
	logger  logger.Logger
}

// New constructs a Service. Components are created by Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		queueSize:   defaultQueueSize,
		dedupeSize:  defaultDedupeSize,
		runs:        make(map[string]types.BackfillResult),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	analyzerOpts := []analyzer.Option{analyzer.WithLogger(s.logger.Named("analyzer"))}
	if s.thresholds != nil {
		analyzerOpts = append(analyzerOpts, analyzer.WithThresholds(*s.thresholds))
	}
	s.analyzer = analyzer.New(analyzerOpts...)
	return s
}

// Start creates the queue and deduper and starts the worker pool. Calling
// Start on a running service is a no-op. The workers do not stop when ctx
// is done; only Stop ends them, after the queue has drained.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting shot analysis service...")

	if s.store == nil || s.ownsStore {
		s.store = repository.NewMemoryStore(ctx)
		s.ownsStore = true
		s.logger.Info(ctx, "using in-memory store")
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.jobs = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.jobs, s.analyzer, s.store,
		worker.WithLogger(s.logger.Named("worker")))
	s.runCtx, s.cancelRun = context.WithCancel(context.WithoutCancel(ctx))
	s.pool.Start(s.runCtx)

	s.started = true
	s.logger.Info(ctx, "shot analysis service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop refuses new submissions, waits for the workers to analyze and save
// every queued job, then stops them. A store the service created itself is
// closed; a store passed with WithStore is left open.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping shot analysis service...")
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Error(ctx, "worker pool did not drain", logger.Error(err))
	}
	s.cancelRun()
	if s.ownsStore {
		if err := s.store.Close(); err != nil {
			s.logger.Error(ctx, "error closing store", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "shot analysis service stopped")
}

// Submit queues job for asynchronous analysis. A shot ID seen before is
// reported as Duplicate and not queued again. When the queue is full the ID
// is forgotten so the caller may retry. With a shot sink configured the shot
// and its post-shot positions are recorded before the job is queued.
func (s *Service) Submit(ctx context.Context, job model.Job) (SubmitStatus, error) {
	return s.submit(ctx, job, s.sink != nil)
}

func (s *Service) submit(ctx context.Context, job model.Job, record bool) (SubmitStatus, error) {
	if err := ValidateJob(job); err != nil {
		return Accepted, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return Accepted, ErrNotStarted
	}

	id := job.Shot.ID
	if s.deduper.SeenAndRecord(ctx, id) {
		metrics.RecordShotDuplicate()
		s.logger.Debug(ctx, "duplicate shot, skipping", logger.Int64("shot_id", id))
		return Duplicate, nil
	}

	if record {
		if err := s.recordShot(ctx, job); err != nil {
			s.deduper.Unrecord(ctx, id)
			return Accepted, err
		}
	}
	if !s.jobs.Enqueue(ctx, job) {
		s.deduper.Unrecord(ctx, id)
		if s.jobs.IsClosed() {
			return Accepted, ErrQueueClosed
		}
		if err := ctx.Err(); err != nil {
			return Accepted, err
		}
		return Accepted, ErrBackpressure
	}
	return Accepted, nil
}

// Evaluate analyzes job synchronously without storing the result. It
// reports false when no thrown stone can be identified.
func (s *Service) Evaluate(ctx context.Context, job model.Job) (types.Evaluation, bool, error) {
	if err := ValidateJob(job); err != nil {
		return types.Evaluation{}, false, err
	}
	rec, ok := s.analyzer.Analyze(ctx, job)
	if !ok {
		return types.Evaluation{}, false, nil
	}
	return types.Evaluation{
		Target:  rec.Target,
		Final:   rec.Final,
		Metrics: rec.AccuracyMetrics,
	}, true, nil
}

// Metrics returns the stored record for shotID.
func (s *Service) Metrics(ctx context.Context, shotID int64) (model.ShotAccuracy, error) {
	store, err := s.currentStore()
	if err != nil {
		return model.ShotAccuracy{}, err
	}
	return store.Get(ctx, shotID)
}

// Summary builds the aggregate reports over every stored record.
func (s *Service) Summary(ctx context.Context, minConfidence float64, minSample int) (types.Summary, error) {
	store, err := s.currentStore()
	if err != nil {
		return types.Summary{}, err
	}
	records, err := store.List(ctx)
	if err != nil {
		return types.Summary{}, fmt.Errorf("list records: %w", err)
	}
	return analysis.Summarize(records, minConfidence, minSample), nil
}

// Backfill submits every shot known to the shot source. It waits for queue
// space instead of dropping shots, so it returns once every shot has been
// queued or ctx is done.
func (s *Service) Backfill(ctx context.Context) (types.BackfillResult, error) {
	res, shots, err := s.loadBackfill(ctx)
	if err != nil {
		return res, err
	}
	return s.runBackfill(ctx, res, shots)
}

// StartBackfill loads the shot list and returns at once; the shots are
// queued in the background. BackfillRun reports the progress of the run.
func (s *Service) StartBackfill(ctx context.Context) (types.BackfillResult, error) {
	if s.source == nil {
		return types.BackfillResult{}, ErrNoShotSource
	}
	s.mu.RLock()
	started, runCtx := s.started, s.runCtx
	s.mu.RUnlock()
	if !started {
		return types.BackfillResult{}, ErrNotStarted
	}

	res, shots, err := s.loadBackfill(ctx)
	if err != nil {
		return res, err
	}
	go func() {
		_, _ = s.runBackfill(runCtx, res, shots)
	}()
	return res, nil
}

// BackfillRun returns the latest state of the run with the given ID.
func (s *Service) BackfillRun(runID string) (types.BackfillResult, bool) {
	s.runsMu.Lock()
	defer s.runsMu.Unlock()
	res, ok := s.runs[runID]
	return res, ok
}

func (s *Service) loadBackfill(ctx context.Context) (types.BackfillResult, []model.ShotRecord, error) {
	if s.source == nil {
		return types.BackfillResult{}, nil, ErrNoShotSource
	}
	res := types.BackfillResult{RunID: uuid.NewString(), State: types.BackfillRunning}
	shots, err := s.source.Shots(ctx)
	if err != nil {
		return res, nil, fmt.Errorf("load shots: %w", err)
	}
	res.Shots = len(shots)
	s.recordRun(res)
	s.logger.Named("backfill").Info(ctx, "backfill started",
		logger.String("run_id", res.RunID), logger.Int("shots", res.Shots))
	return res, shots, nil
}

func (s *Service) runBackfill(ctx context.Context, res types.BackfillResult, shots []model.ShotRecord) (types.BackfillResult, error) {
	log := s.logger.Named("backfill")
	fail := func(err error) (types.BackfillResult, error) {
		res.State = types.BackfillFailed
		res.Error = err.Error()
		s.recordRun(res)
		log.Error(ctx, "backfill failed", logger.String("run_id", res.RunID), logger.Error(err))
		return res, err
	}

	for _, shot := range shots {
		pre, post, err := s.source.Snapshots(ctx, shot)
		if err != nil {
			return fail(fmt.Errorf("load snapshots for shot %d: %w", shot.ID, err))
		}
		status, err := s.submitWait(ctx, model.Job{Shot: shot, Pre: pre, Post: post})
		switch {
		case errors.Is(err, ErrInvalidJob):
			res.Rejected++
			log.Warn(ctx, "shot rejected", logger.Int64("shot_id", shot.ID), logger.Error(err))
		case err != nil:
			return fail(err)
		case status == Duplicate:
			res.Duplicates++
		default:
			res.Submitted++
		}
	}

	res.State = types.BackfillDone
	s.recordRun(res)
	metrics.RecordBackfillRun(res.Submitted)
	log.Info(ctx, "backfill finished",
		logger.String("run_id", res.RunID),
		logger.Int("submitted", res.Submitted),
		logger.Int("duplicates", res.Duplicates),
		logger.Int("rejected", res.Rejected),
	)
	return res, nil
}

func (s *Service) recordRun(res types.BackfillResult) {
	s.runsMu.Lock()
	defer s.runsMu.Unlock()
	s.runs[res.RunID] = res
}

func (s *Service) recordShot(ctx context.Context, job model.Job) error {
	if err := s.sink.SaveShot(ctx, job.Shot); err != nil {
		return fmt.Errorf("record shot %d: %w", job.Shot.ID, err)
	}
	if err := s.sink.SavePositions(ctx, job.Shot.ID, job.Post); err != nil {
		return fmt.Errorf("record positions of shot %d: %w", job.Shot.ID, err)
	}
	return nil
}

// submitWait retries submit while the queue is full. Backfilled shots come
// from the source, so they are not recorded again.
func (s *Service) submitWait(ctx context.Context, job model.Job) (SubmitStatus, error) {
	for {
		status, err := s.submit(ctx, job, false)
		if !errors.Is(err, ErrBackpressure) {
			return status, err
		}
		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-time.After(backfillBackoff):
		}
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"shotSource":  s.source != nil,
	}

	if s.started {
		stats["queueLength"] = s.jobs.Len(ctx)
		stats["dedupeEntries"] = s.deduper.Size()
		if n, err := s.store.Count(ctx); err == nil {
			stats["storedMetrics"] = n
			metrics.UpdateStoredMetrics(n)
		}
		ws := s.pool.Stats()
		stats["processed"] = ws.Processed
		stats["skipped"] = ws.Skipped
		stats["failed"] = ws.Failed
		metrics.UpdateWorkerCount(s.pool.Size())
	}
	return stats
}

func (s *Service) currentStore() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// ValidateJob checks the fields analysis depends on: a positive shot ID, a
// known side, a percent score in [0, 100] and finite coordinates with known
// sides in both snapshots.
func ValidateJob(job model.Job) error {
	if job.Shot.ID <= 0 {
		return fmt.Errorf("%w: shot id must be positive", ErrInvalidJob)
	}
	if !job.Shot.Side.Valid() {
		return fmt.Errorf("%w: unknown color %q", ErrInvalidJob, job.Shot.Side)
	}
	if ps := job.Shot.PercentScore; !finite(ps) || ps < 0 || ps > maxPercentScore {
		return fmt.Errorf("%w: percent score %v outside [0, 100]", ErrInvalidJob, ps)
	}
	if err := validatePositions("pre", job.Pre); err != nil {
		return err
	}
	return validatePositions("post", job.Post)
}

func validatePositions(name string, ps []model.Position) error {
	for i, p := range ps {
		if !p.Side.Valid() {
			return fmt.Errorf("%w: %s[%d] has unknown color %q", ErrInvalidJob, name, i, p.Side)
		}
		if !finite(p.X) || !finite(p.Y) {
			return fmt.Errorf("%w: %s[%d] has a non-finite coordinate", ErrInvalidJob, name, i)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
