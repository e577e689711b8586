// Package session holds the mutable record of one play-through.
//
// All mutations go through Start, CompleteChallenge, SetCurrentChallengeIndex
// and Reset. A rejected call never partially mutates the session.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/notabot/internal/model"
)

var (
	ErrAlreadyPlaying   = errors.New("session is already playing")
	ErrNotPlaying       = errors.New("session is not playing")
	ErrStaleCompletion  = errors.New("completion does not match the current challenge")
	ErrIndexOutOfRange  = errors.New("challenge index out of range")
	ErrRunCompleted     = errors.New("run is already completed")
	ErrNoChallenges     = errors.New("session has no challenges")
	errNegativeDuration = errors.New("time spent must be >= 0")
)

// Session is the single mutable game record. It is not safe for concurrent
// writers; the orchestrator is its only writer.
type Session struct {
	total int

	phase        model.Phase
	currentIndex int
	totalScore   int
	results      []model.ChallengeResult

	runID     string
	startedAt time.Time
	endedAt   time.Time
	now       func() time.Time
}

// New creates an idle session over total challenges.
func New(total int) *Session {
	return &Session{total: total, now: time.Now}
}

// Start begins a run. Starting while playing is rejected and changes nothing.
func (s *Session) Start() error {
	if s.phase == model.PhasePlaying {
		return ErrAlreadyPlaying
	}
	if s.total <= 0 {
		return ErrNoChallenges
	}
	s.clear()
	s.phase = model.PhasePlaying
	s.runID = uuid.NewString()
	s.startedAt = s.now()
	return nil
}

// CompleteChallenge records the outcome of the unit mounted at index.
// The call is accepted only while playing and only for the current index, so
// a second completion from the same mount is rejected instead of counted.
// A negative Accuracy means the unit did not measure one; it is then derived
// from Success.
func (s *Session) CompleteChallenge(index int, result model.ChallengeResult) error {
	if s.phase == model.PhaseCompleted {
		return ErrRunCompleted
	}
	if s.phase != model.PhasePlaying {
		return ErrNotPlaying
	}
	if index != s.currentIndex {
		return fmt.Errorf("%w: got index %d, current is %d", ErrStaleCompletion, index, s.currentIndex)
	}
	if result.TimeSpent < 0 {
		return errNegativeDuration
	}
	result.Accuracy = normalizeAccuracy(result)
	s.results = append(s.results, result)
	s.totalScore += result.Score
	s.currentIndex++
	if s.currentIndex == s.total {
		s.phase = model.PhaseCompleted
		s.endedAt = s.now()
	}
	return nil
}

func normalizeAccuracy(r model.ChallengeResult) int {
	if r.Accuracy < 0 {
		if r.Success {
			return 100
		}
		return 0
	}
	if r.Accuracy > 100 {
		return 100
	}
	return r.Accuracy
}

// SetCurrentChallengeIndex moves the pointer without recording anything.
// Out-of-range indices and jumps after completion are rejected unchanged.
func (s *Session) SetCurrentChallengeIndex(i int) error {
	if i < 0 || i >= s.total {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, s.total)
	}
	if s.phase == model.PhaseCompleted {
		return ErrRunCompleted
	}
	s.currentIndex = i
	return nil
}

// Reset returns to idle from any phase.
func (s *Session) Reset() {
	s.clear()
	s.phase = model.PhaseIdle
}

func (s *Session) clear() {
	s.currentIndex = 0
	s.totalScore = 0
	s.results = nil
	s.runID = ""
	s.startedAt = time.Time{}
	s.endedAt = time.Time{}
}

// Phase returns the current phase.
func (s *Session) Phase() model.Phase { return s.phase }

// CurrentIndex returns the 0-based position in the sequence.
func (s *Session) CurrentIndex() int { return s.currentIndex }

// Total returns the number of challenges in the run.
func (s *Session) Total() int { return s.total }

// TotalScore returns the sum of recorded scores.
func (s *Session) TotalScore() int { return s.totalScore }

// RunID identifies the current run; empty while idle.
func (s *Session) RunID() string { return s.runID }

// StartedAt returns when the run started.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// EndedAt returns when the run completed, or the zero time.
func (s *Session) EndedAt() time.Time { return s.endedAt }

// Results returns a copy of the recorded results in order.
func (s *Session) Results() []model.ChallengeResult {
	out := make([]model.ChallengeResult, len(s.results))
	copy(out, s.results)
	return out
}

// Stats derives player statistics from the recorded results.
func (s *Session) Stats() model.PlayerStats {
	return StatsFor(s.results)
}

// StatsFor computes player statistics for results.
func StatsFor(results []model.ChallengeResult) model.PlayerStats {
	stats := model.PlayerStats{ChallengesCompleted: len(results)}
	if len(results) == 0 {
		return stats
	}
	var timeSum float64
	var accSum int
	for _, r := range results {
		timeSum += r.TimeSpent
		accSum += r.Accuracy
	}
	n := float64(len(results))
	stats.AverageTime = timeSum / n
	stats.Accuracy = float64(accSum) / n
	return stats
}
