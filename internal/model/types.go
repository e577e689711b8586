// Package model defines shared data structures.
package model

import "time"

// Phase is the top-level state of a play-through.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePlaying
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePlaying:
		return "playing"
	case PhaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// ChallengeDescriptor is one immutable registry entry. Registry order is play order.
type ChallengeDescriptor struct {
	ID          int    `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// TimeLimit is in whole seconds.
	TimeLimit int `yaml:"time_limit"`
	MaxScore  int `yaml:"max_score"`
	// Unit names the unit kind resolved for this entry.
	Unit  string `yaml:"unit"`
	Level int    `yaml:"level"`
}

// Limit returns the time limit as a duration.
func (d ChallengeDescriptor) Limit() time.Duration {
	return time.Duration(d.TimeLimit) * time.Second
}

// ChallengeResult records one unit that invoked completion.
type ChallengeResult struct {
	ChallengeID int
	Success     bool
	TimeSpent   float64 // seconds
	Score       int
	Accuracy    int // percent
}

// PlayerStats is derived from results on every read.
type PlayerStats struct {
	ChallengesCompleted int
	AverageTime         float64
	Accuracy            float64
}

// Rating is the end-of-run tier.
type Rating string

const (
	RatingExcellent Rating = "excellent"
	RatingGreat     Rating = "great"
	RatingGood      Rating = "good"
	RatingTryAgain  Rating = "tryAgain"
)

// BreakdownRow is one per-challenge line of the result screen.
type BreakdownRow struct {
	ChallengeID int
	Name        string
	Success     bool
	TimeSpent   float64
	Score       int
	MaxScore    int
	Accuracy    int
}

// Summary is the record consumed by the result screen.
type Summary struct {
	TotalScore          int
	MaxPossibleScore    int
	Percentage          float64
	Rating              Rating
	Human               bool
	ChallengesCompleted int
	Passed              int
	AverageTime         float64
	Accuracy            float64
	Breakdown           []BreakdownRow
}

// GameConfig defines run settings.
type GameConfig struct {
	CatalogPath  string
	WordListPath string
	Nominal      int
	Tick         time.Duration
	Seed         int64
	SaveHistory  bool
}

// DebugConfig is passed explicitly at startup; nothing reads debug flags from globals.
type DebugConfig struct {
	Enabled bool
	StartAt int // 1-based challenge number, 0 = none
	Resume  bool
	Verbose bool
}

// HistoryFilter narrows the runs used for history output.
type HistoryFilter struct {
	Since *time.Time
	Last  int
}

// RunRecord is a finished run as persisted.
type RunRecord struct {
	ID         int64
	RunID      string
	StartedAt  time.Time
	EndedAt    time.Time
	TotalScore int
	MaxScore   int
	Percentage float64
	Rating     Rating
	Completed  int
	Passed     int
}

// ChallengeAggregate summarizes one challenge across runs.
type ChallengeAggregate struct {
	ChallengeID  int
	Name         string
	Attempts     int
	Passes       int
	TimeSpentSum float64
	ScoreSum     int
}
