// Package accuracy scores a shot's final position against its inferred target.
package accuracy

import (
	"math"

	"github.com/okian/shotline/internal/domain/model"
)

// Calculator computes accuracy metrics. It holds only its threshold table,
// so one instance is safe for concurrent use.
type Calculator struct {
	thresholds Thresholds
}

// NewCalculator creates a calculator with the default thresholds unless
// overridden by options.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{thresholds: DefaultThresholds()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Thresholds returns the category bounds in use.
func (c *Calculator) Thresholds() Thresholds {
	return c.thresholds
}

// Compute scores final against target.
//
// Direction error compares the bearings of both points as seen from the
// button, not from the delivery line or the stone's previous spot.
func (c *Calculator) Compute(target, final model.Point) model.AccuracyMetrics {
	distance := final.DistanceTo(target)
	direction := DirectionError(target, final)

	dc := c.thresholds.Distance(distance)
	ac := c.thresholds.Direction(direction)

	return model.AccuracyMetrics{
		DistanceError:     distance,
		DirectionError:    direction,
		DistanceCategory:  dc,
		DirectionCategory: ac,
		ErrorMagnitude:    Magnitude(dc, ac),
	}
}

// DirectionError returns the angle in degrees, in [0,180], between the
// bearings of a and b measured from the button.
func DirectionError(a, b model.Point) float64 {
	diff := math.Abs((bearing(a) - bearing(b)) * 180 / math.Pi)
	if diff > 180 {
		diff = 360 - diff
	}
	return diff
}

// bearing is atan2(y, x), with the button itself defined as 0.
func bearing(p model.Point) float64 {
	if p.IsOrigin() {
		return 0
	}
	return math.Atan2(p.Y, p.X)
}

// Magnitude folds the two categories into the composite label:
// minor needs on_target distance with on_line or slight direction;
// moderate needs on_target or close distance with at most moderate direction.
func Magnitude(d model.DistanceCategory, a model.DirectionCategory) model.ErrorMagnitude {
	switch {
	case d == model.DistanceOnTarget && (a == model.DirectionOnLine || a == model.DirectionSlight):
		return model.MagnitudeMinor
	case (d == model.DistanceOnTarget || d == model.DistanceClose) &&
		(a == model.DirectionOnLine || a == model.DirectionSlight || a == model.DirectionModerate):
		return model.MagnitudeModerate
	default:
		return model.MagnitudeMajor
	}
}
