package service

import "errors"

// Sentinel errors returned by Service.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrInvalidJob   = errors.New("invalid shot job")
	ErrBackpressure = errors.New("job queue is full")
	ErrQueueClosed  = errors.New("job queue is closed")
	ErrNoShotSource = errors.New("no shot source configured")
)
