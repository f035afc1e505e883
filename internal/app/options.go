package service

import (
	"github.com/okian/shotline/internal/adapters/repository"
	"github.com/okian/shotline/internal/domain/accuracy"
	"github.com/okian/shotline/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of analyzer workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many shot IDs are remembered for idempotency.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithThresholds sets the accuracy category bounds.
func WithThresholds(t accuracy.Thresholds) Option {
	return func(s *Service) {
		s.thresholds = &t
	}
}

// WithStore sets the record store. The caller keeps ownership and closes it.
// Without a store the service keeps records in memory.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithShotSource enables Backfill from the given source. When src is also a
// repository.ShotSink, shots accepted by Submit are written to it.
func WithShotSource(src repository.ShotSource) Option {
	return func(s *Service) {
		if src == nil {
			return
		}
		s.source = src
		if sink, ok := src.(repository.ShotSink); ok {
			s.sink = sink
		}
	}
}
