package model

// ShotType is the category recorded for a shot. The known values form a
// closed set; any other string is treated as unclassified.
type ShotType string

// Known shot types, spelled as the source data records them.
const (
	ShotDraw       ShotType = "Draw"
	ShotGuard      ShotType = "Guard"
	ShotTakeOut    ShotType = "Take-out"
	ShotHitAndRoll ShotType = "Hit and Roll"
	ShotFreeze     ShotType = "Freeze"
	ShotTap        ShotType = "Tap"
	ShotPeel       ShotType = "Peel"
)

// ShotTypes lists the known shot types.
var ShotTypes = []ShotType{
	ShotDraw, ShotGuard, ShotTakeOut, ShotHitAndRoll, ShotFreeze, ShotTap, ShotPeel,
}

// Known reports whether t is one of the recognized shot types.
func (t ShotType) Known() bool {
	for _, k := range ShotTypes {
		if k == t {
			return true
		}
	}
	return false
}

// successThreshold is the percent score above which a shot counts as made.
const successThreshold = 75

// ShotRecord describes one thrown stone. Records are created by ingestion
// and never mutated afterwards.
type ShotRecord struct {
	ID           int64    `json:"id"`
	EndID        int64    `json:"end_id"`
	Number       int      `json:"number"` // sequence index within the end, 1-based
	Side         Side     `json:"color"`
	Type         ShotType `json:"type"`
	PlayerName   string   `json:"player_name,omitempty"`
	PercentScore float64  `json:"percent_score"`
}

// Successful reports whether the observed outcome counts as a made shot.
func (s ShotRecord) Successful() bool {
	return s.PercentScore > successThreshold
}

// PartialSuccess scales the percent score to [0,1].
func (s ShotRecord) PartialSuccess() float64 {
	return s.PercentScore / 100
}

// Job is the unit of work handed to analyzer workers: a shot plus the stone
// positions observed right before and right after it.
type Job struct {
	Shot ShotRecord `json:"shot"`
	Pre  []Position `json:"pre"`
	Post []Position `json:"post"`
}
