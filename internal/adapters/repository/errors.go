package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound    = errors.New("shot metrics not found")
	ErrStoreClosed = errors.New("store closed")
)
