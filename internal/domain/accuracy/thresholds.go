package accuracy

import (
	"fmt"
	"math"

	"github.com/okian/shotline/internal/domain/model"
)

// Default category bounds. Distance bounds are meters, direction bounds
// are degrees. The last category of each table is unbounded.
const (
	DefaultDistanceOnTarget = 0.20
	DefaultDistanceClose    = 0.50
	DefaultDistanceModerate = 1.00

	DefaultDirectionOnLine   = 3.0
	DefaultDirectionSlight   = 8.0
	DefaultDirectionModerate = 15.0
)

// Thresholds holds the inclusive upper bound of every bounded category.
// Errors beyond the last bound fall into the "large" category.
type Thresholds struct {
	DistanceOnTarget float64 `json:"distance_on_target_m"`
	DistanceClose    float64 `json:"distance_close_m"`
	DistanceModerate float64 `json:"distance_moderate_m"`

	DirectionOnLine   float64 `json:"direction_on_line_deg"`
	DirectionSlight   float64 `json:"direction_slight_deg"`
	DirectionModerate float64 `json:"direction_moderate_deg"`
}

// DefaultThresholds returns the standard category bounds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DistanceOnTarget:  DefaultDistanceOnTarget,
		DistanceClose:     DefaultDistanceClose,
		DistanceModerate:  DefaultDistanceModerate,
		DirectionOnLine:   DefaultDirectionOnLine,
		DirectionSlight:   DefaultDirectionSlight,
		DirectionModerate: DefaultDirectionModerate,
	}
}

// Validate checks that both tables are finite, non-negative and strictly
// increasing.
func (t Thresholds) Validate() error {
	if err := increasing("distance", t.DistanceOnTarget, t.DistanceClose, t.DistanceModerate); err != nil {
		return err
	}
	return increasing("direction", t.DirectionOnLine, t.DirectionSlight, t.DirectionModerate)
}

// Distance returns the first distance category whose bound is >= d.
func (t Thresholds) Distance(d float64) model.DistanceCategory {
	switch {
	case d <= t.DistanceOnTarget:
		return model.DistanceOnTarget
	case d <= t.DistanceClose:
		return model.DistanceClose
	case d <= t.DistanceModerate:
		return model.DistanceModerate
	default:
		return model.DistanceLarge
	}
}

// Direction returns the first direction category whose bound is >= deg.
func (t Thresholds) Direction(deg float64) model.DirectionCategory {
	switch {
	case deg <= t.DirectionOnLine:
		return model.DirectionOnLine
	case deg <= t.DirectionSlight:
		return model.DirectionSlight
	case deg <= t.DirectionModerate:
		return model.DirectionModerate
	default:
		return model.DirectionLarge
	}
}

func increasing(table string, bounds ...float64) error {
	prev := math.Inf(-1)
	for i, b := range bounds {
		if math.IsNaN(b) || math.IsInf(b, 0) || b < 0 {
			return fmt.Errorf("%w: %s bound %d is %v", ErrInvalidThresholds, table, i, b)
		}
		if b <= prev {
			return fmt.Errorf("%w: %s bounds must be strictly increasing", ErrInvalidThresholds, table)
		}
		prev = b
	}
	return nil
}
