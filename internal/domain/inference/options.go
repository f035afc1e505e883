package inference

import (
	"math"

	"github.com/okian/shotline/internal/domain/model"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithHouseRadius overrides the scoring zone radius used by draws.
func WithHouseRadius(r float64) Option {
	return func(e *Engine) {
		if r > 0 && !math.IsInf(r, 0) {
			e.houseRadius = r
		}
	}
}

// WithGuardZone overrides the guard corridor and its fallback target.
func WithGuardZone(minY, maxY float64, fallback model.Point) Option {
	return func(e *Engine) {
		if minY < maxY {
			e.guardMinY = minY
			e.guardMaxY = maxY
			e.guardTarget = fallback
		}
	}
}
