package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/okian/shotline/internal/domain/model"
	"github.com/okian/shotline/pkg/metrics"
)

const defaultMetricsUpdateInterval = 5 * time.Second

// MemoryStore is a map-backed Store. Records are lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[int64]model.ShotAccuracy
	closed bool

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates an empty store and starts its metrics updater,
// which runs until ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:                  make(map[int64]model.ShotAccuracy),
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Save implements Store.Save.
func (s *MemoryStore) Save(_ context.Context, rec model.ShotAccuracy) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.byID[rec.ShotID] = rec
	metrics.RecordStoreSaveLatency(float64(time.Since(start).Microseconds()) / 1000)
	return nil
}

// Get implements Store.Get.
func (s *MemoryStore) Get(_ context.Context, shotID int64) (model.ShotAccuracy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return model.ShotAccuracy{}, ErrStoreClosed
	}
	rec, ok := s.byID[shotID]
	if !ok {
		return model.ShotAccuracy{}, ErrNotFound
	}
	return rec, nil
}

// List implements Store.List.
func (s *MemoryStore) List(_ context.Context) ([]model.ShotAccuracy, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, ErrStoreClosed
	}
	out := make([]model.ShotAccuracy, 0, len(s.byID))
	for _, rec := range s.byID {
		out = append(out, rec)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b model.ShotAccuracy) int {
		return cmp.Compare(a.ShotID, b.ShotID)
	})
	return out, nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrStoreClosed
	}
	return len(s.byID), nil
}

// Close stops the metrics updater. It is safe to call more than once.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
	})
	s.wg.Wait()
	return nil
}

// startMetricsUpdater starts a background goroutine that publishes the record count.
func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.mu.RLock()
				n := len(s.byID)
				s.mu.RUnlock()
				metrics.UpdateStoredMetrics(n)
			}
		}
	}()
}
