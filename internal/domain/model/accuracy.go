package model

// InferredTarget is the engine's best guess at where a shot was aimed.
// Confidence is advisory and in [0,1].
type InferredTarget struct {
	Point
	Confidence float64 `json:"confidence"`
}

// DistanceCategory buckets the distance error. Values are ordered.
type DistanceCategory string

// Distance categories, best first.
const (
	DistanceOnTarget DistanceCategory = "on_target"
	DistanceClose    DistanceCategory = "close"
	DistanceModerate DistanceCategory = "moderate"
	DistanceLarge    DistanceCategory = "large"
)

// DistanceCategories lists the distance categories in ascending order.
var DistanceCategories = []DistanceCategory{DistanceOnTarget, DistanceClose, DistanceModerate, DistanceLarge}

// Rank returns the ordinal of c (0 is best) or -1 for unknown values.
func (c DistanceCategory) Rank() int {
	for i, k := range DistanceCategories {
		if k == c {
			return i
		}
	}
	return -1
}

// DirectionCategory buckets the direction error. Values are ordered.
type DirectionCategory string

// Direction categories, best first.
const (
	DirectionOnLine   DirectionCategory = "on_line"
	DirectionSlight   DirectionCategory = "slight"
	DirectionModerate DirectionCategory = "moderate"
	DirectionLarge    DirectionCategory = "large"
)

// DirectionCategories lists the direction categories in ascending order.
var DirectionCategories = []DirectionCategory{DirectionOnLine, DirectionSlight, DirectionModerate, DirectionLarge}

// Rank returns the ordinal of c (0 is best) or -1 for unknown values.
func (c DirectionCategory) Rank() int {
	for i, k := range DirectionCategories {
		if k == c {
			return i
		}
	}
	return -1
}

// ErrorMagnitude is the composite label derived from both categories.
type ErrorMagnitude string

// Error magnitudes.
const (
	MagnitudeMinor    ErrorMagnitude = "minor"
	MagnitudeModerate ErrorMagnitude = "moderate"
	MagnitudeMajor    ErrorMagnitude = "major"
)

// ErrorMagnitudes lists the magnitudes in ascending order.
var ErrorMagnitudes = []ErrorMagnitude{MagnitudeMinor, MagnitudeModerate, MagnitudeMajor}

// AccuracyMetrics is the calculator output for one shot.
type AccuracyMetrics struct {
	DistanceError     float64           `json:"distance_error"`  // meters
	DirectionError    float64           `json:"direction_error"` // degrees, [0,180]
	DistanceCategory  DistanceCategory  `json:"distance_category"`
	DirectionCategory DirectionCategory `json:"direction_category"`
	ErrorMagnitude    ErrorMagnitude    `json:"error_magnitude"`
}

// ShotAccuracy is the persisted result for one shot, keyed by ShotID.
type ShotAccuracy struct {
	ShotID         int64          `json:"shot_id"`
	ShotType       ShotType       `json:"shot_type"`
	Side           Side           `json:"color"`
	PlayerName     string         `json:"player_name,omitempty"`
	Final          Point          `json:"final_position"`
	Target         InferredTarget `json:"target"`
	OutcomeSuccess bool           `json:"outcome_success"`
	PartialSuccess float64        `json:"partial_success_score"`
	AccuracyMetrics
}
