package shotgen

import "time"

// Board simulation constants.
const (
	shotsPerEnd     = 16
	stonesPerPlayer = 2
	playersPerTeam  = 4
	overshootFactor = 1.2
	guardMinY       = 1.2
	guardMaxY       = 6.3
	guardMaxX       = 1.0
	rollOffMax      = 0.5
	takeOutChance   = 0.3
	guardChance     = 0.35
	scoreSteps      = 4
)

// HTTP and polling constants.
const (
	maxSubmitRetries   = 5
	retryBackoff       = 50 * time.Millisecond
	pollInterval       = 20 * time.Millisecond
	targetTolerance    = 1e-9
	percentMultiplier  = 100
	workerChanMultiple = 2
)
