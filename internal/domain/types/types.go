// Package types contains read shapes shared by the service and the API.
package types

import "github.com/okian/shotline/internal/domain/model"

// ShotTypeSummary aggregates accuracy for one shot type.
type ShotTypeSummary struct {
	ShotType           model.ShotType `json:"shot_type"`
	Count              int            `json:"count"`
	MeanDistanceError  float64        `json:"mean_distance_error"`
	StdDistanceError   float64        `json:"std_distance_error"`
	MeanDirectionError float64        `json:"mean_direction_error"`
	StdDirectionError  float64        `json:"std_direction_error"`
	MeanPartialSuccess float64        `json:"mean_partial_success"`
}

// ErrorPattern counts one (distance category, direction category) pair.
type ErrorPattern struct {
	DistanceCategory   model.DistanceCategory  `json:"distance_category"`
	DirectionCategory  model.DirectionCategory `json:"direction_category"`
	Frequency          int                     `json:"frequency"`
	Percentage         float64                 `json:"percentage"`
	MeanDistanceError  float64                 `json:"mean_distance_error"`
	MeanDirectionError float64                 `json:"mean_direction_error"`
}

// MagnitudeSummary aggregates accuracy for one error magnitude.
type MagnitudeSummary struct {
	ErrorMagnitude     model.ErrorMagnitude `json:"error_magnitude"`
	Count              int                  `json:"count"`
	MeanDistanceError  float64              `json:"mean_distance_error"`
	MeanDirectionError float64              `json:"mean_direction_error"`
}

// PlayerSummary aggregates accuracy for one player.
type PlayerSummary struct {
	PlayerName         string  `json:"player_name"`
	Count              int     `json:"count"`
	MeanDistanceError  float64 `json:"mean_distance_error"`
	MeanDirectionError float64 `json:"mean_direction_error"`
	SuccessRate        float64 `json:"success_rate"`
}

// Summary is the combined report served by the API.
type Summary struct {
	Total       int                `json:"total"`
	Considered  int                `json:"considered"`
	ByShotType  []ShotTypeSummary  `json:"by_shot_type"`
	Patterns    []ErrorPattern     `json:"error_patterns"`
	ByMagnitude []MagnitudeSummary `json:"by_magnitude"`
	ByPlayer    []PlayerSummary    `json:"by_player"`
}

// Evaluation is the synchronous analysis result for one shot.
type Evaluation struct {
	Target  model.InferredTarget  `json:"target"`
	Final   model.Point           `json:"final_position"`
	Metrics model.AccuracyMetrics `json:"metrics"`
}

// Backfill run states.
const (
	BackfillRunning = "running"
	BackfillDone    = "done"
	BackfillFailed  = "failed"
)

// BackfillResult reports what a backfill run did so far.
type BackfillResult struct {
	RunID      string `json:"run_id"`
	State      string `json:"state"`
	Shots      int    `json:"shots"`
	Submitted  int    `json:"submitted"`
	Duplicates int    `json:"duplicates"`
	Rejected   int    `json:"rejected"`
	Error      string `json:"error,omitempty"`
}
