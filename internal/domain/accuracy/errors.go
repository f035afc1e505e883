package accuracy

import "errors"

// Sentinel kinds for accuracy configuration errors.
var (
	ErrInvalidThresholds = errors.New("invalid accuracy thresholds")
)
