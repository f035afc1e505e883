package shotgen

import "time"

// Config holds configuration for a generator run.
type Config struct {
	BaseURL  string        // Base URL of the service
	NumShots int           // Number of shots to generate
	FirstID  int64         // ID of the first generated shot
	Seed     uint64        // Seed for the board simulation
	Workers  int           // Number of concurrent workers
	Timeout  time.Duration // HTTP request timeout
	Settle   time.Duration // How long to wait for a shot to be analyzed
	LogFile  string        // Log file for run output
	Verbose  bool          // Enable verbose logging
}

// AckResponse represents the response from shot submission.
type AckResponse struct {
	Status    string `json:"status"`
	ShotID    int64  `json:"shot_id"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds run statistics.
type Stats struct {
	ShotsGenerated  int
	ShotsSubmitted  int
	ShotsAccepted   int
	ShotsDuplicate  int
	ShotsFailed     int
	ShotsVerified   int
	ShotsMissing    int
	ShotsMismatched int
	SummaryTotal    int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
