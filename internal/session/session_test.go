package session

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/notabot/internal/model"
)

func result(id int, success bool, spent float64, score int) model.ChallengeResult {
	return model.ChallengeResult{ChallengeID: id, Success: success, TimeSpent: spent, Score: score, Accuracy: -1}
}

func TestNewSessionIsIdle(t *testing.T) {
	s := New(3)
	assert.Equal(t, model.PhaseIdle, s.Phase())
	assert.Equal(t, 0, s.CurrentIndex())
	assert.Equal(t, 0, s.TotalScore())
	assert.Empty(t, s.Results())
	assert.Empty(t, s.RunID())
}

func TestThreeChallengeRun(t *testing.T) {
	s := New(3)
	require.NoError(t, s.Start())
	assert.Equal(t, model.PhasePlaying, s.Phase())
	assert.NotEmpty(t, s.RunID())

	require.NoError(t, s.CompleteChallenge(0, result(1, true, 4.2, 80)))
	assert.Equal(t, 1, s.CurrentIndex())
	assert.Equal(t, 80, s.TotalScore())
	assert.Equal(t, []model.ChallengeResult{
		{ChallengeID: 1, Success: true, TimeSpent: 4.2, Score: 80, Accuracy: 100},
	}, s.Results())

	require.NoError(t, s.CompleteChallenge(1, result(2, false, 9.9, 0)))
	assert.Equal(t, 2, s.CurrentIndex())
	assert.Equal(t, 80, s.TotalScore())
	assert.Len(t, s.Results(), 2)
	assert.Equal(t, 0, s.Results()[1].Accuracy)

	require.NoError(t, s.CompleteChallenge(2, result(3, true, 1.1, 50)))
	assert.Equal(t, 3, s.CurrentIndex())
	assert.Equal(t, model.PhaseCompleted, s.Phase())
	assert.Equal(t, 130, s.TotalScore())
	assert.False(t, s.EndedAt().IsZero())

	err := s.CompleteChallenge(3, result(4, true, 1, 10))
	assert.ErrorIs(t, err, ErrRunCompleted)
	assert.Equal(t, 130, s.TotalScore())

	s.Reset()
	assertZeroed(t, s)
}

func assertZeroed(t *testing.T, s *Session) {
	t.Helper()
	assert.Equal(t, model.PhaseIdle, s.Phase())
	assert.Equal(t, 0, s.CurrentIndex())
	assert.Equal(t, 0, s.TotalScore())
	assert.Empty(t, s.Results())
	assert.Empty(t, s.RunID())
}

func TestResetFromEveryPhase(t *testing.T) {
	idle := New(2)
	idle.Reset()
	assertZeroed(t, idle)

	playing := New(2)
	require.NoError(t, playing.Start())
	require.NoError(t, playing.CompleteChallenge(0, result(1, true, 1, 40)))
	playing.Reset()
	assertZeroed(t, playing)

	done := New(1)
	require.NoError(t, done.Start())
	require.NoError(t, done.CompleteChallenge(0, result(1, true, 1, 40)))
	require.Equal(t, model.PhaseCompleted, done.Phase())
	done.Reset()
	assertZeroed(t, done)
	done.Reset()
	assertZeroed(t, done)
}

func TestStartGuards(t *testing.T) {
	s := New(2)
	require.NoError(t, s.Start())
	require.NoError(t, s.CompleteChallenge(0, result(1, true, 1, 10)))
	runID := s.RunID()

	assert.ErrorIs(t, s.Start(), ErrAlreadyPlaying)
	assert.Equal(t, 1, s.CurrentIndex())
	assert.Equal(t, 10, s.TotalScore())
	assert.Equal(t, runID, s.RunID())

	assert.ErrorIs(t, New(0).Start(), ErrNoChallenges)
}

func TestStartAfterCompletionBeginsFreshRun(t *testing.T) {
	s := New(1)
	require.NoError(t, s.Start())
	require.NoError(t, s.CompleteChallenge(0, result(1, true, 1, 10)))
	first := s.RunID()

	require.NoError(t, s.Start())
	assert.Equal(t, model.PhasePlaying, s.Phase())
	assert.Equal(t, 0, s.TotalScore())
	assert.Empty(t, s.Results())
	assert.NotEqual(t, first, s.RunID())
}

func TestCompleteRequiresPlaying(t *testing.T) {
	s := New(2)
	assert.ErrorIs(t, s.CompleteChallenge(0, result(1, true, 1, 10)), ErrNotPlaying)
	assert.Empty(t, s.Results())
}

func TestDuplicateCompletionIsRejected(t *testing.T) {
	s := New(3)
	require.NoError(t, s.Start())
	require.NoError(t, s.CompleteChallenge(0, result(1, true, 1, 70)))

	err := s.CompleteChallenge(0, result(1, true, 1, 70))
	assert.ErrorIs(t, err, ErrStaleCompletion)
	assert.Equal(t, 70, s.TotalScore())
	assert.Equal(t, 1, s.CurrentIndex())
	assert.Len(t, s.Results(), 1)
}

func TestNegativeTimeRejected(t *testing.T) {
	s := New(1)
	require.NoError(t, s.Start())
	assert.Error(t, s.CompleteChallenge(0, result(1, true, -1, 10)))
	assert.Equal(t, 0, s.CurrentIndex())
}

func TestAccuracyNormalization(t *testing.T) {
	tests := []struct {
		name string
		in   model.ChallengeResult
		want int
	}{
		{name: "derived success", in: result(1, true, 1, 1), want: 100},
		{name: "derived failure", in: result(1, false, 1, 0), want: 0},
		{name: "reported", in: model.ChallengeResult{ChallengeID: 1, Success: true, Accuracy: 63}, want: 63},
		{name: "clamped", in: model.ChallengeResult{ChallengeID: 1, Accuracy: 140}, want: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(1)
			require.NoError(t, s.Start())
			require.NoError(t, s.CompleteChallenge(0, tt.in))
			assert.Equal(t, tt.want, s.Results()[0].Accuracy)
		})
	}
}

func TestSetCurrentChallengeIndexBounds(t *testing.T) {
	s := New(3)
	err := s.SetCurrentChallengeIndex(5)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.Equal(t, 0, s.CurrentIndex())

	require.NoError(t, s.Start())
	require.NoError(t, s.SetCurrentChallengeIndex(2))
	assert.Equal(t, 2, s.CurrentIndex())

	for _, bad := range []int{-1, 3, 100} {
		assert.ErrorIs(t, s.SetCurrentChallengeIndex(bad), ErrIndexOutOfRange)
		assert.Equal(t, 2, s.CurrentIndex())
		assert.Equal(t, model.PhasePlaying, s.Phase())
	}
}

func TestJumpSkipsRecordingWithoutUnrecording(t *testing.T) {
	s := New(4)
	require.NoError(t, s.Start())
	require.NoError(t, s.CompleteChallenge(0, result(1, true, 2, 30)))

	require.NoError(t, s.SetCurrentChallengeIndex(3))
	assert.Len(t, s.Results(), 1)
	assert.Equal(t, 30, s.TotalScore())

	// A completion still addressed to the old position is stale.
	assert.ErrorIs(t, s.CompleteChallenge(1, result(2, true, 1, 10)), ErrStaleCompletion)

	require.NoError(t, s.CompleteChallenge(3, result(4, true, 2, 20)))
	assert.Equal(t, model.PhaseCompleted, s.Phase())
	assert.Len(t, s.Results(), 2)
	assert.Equal(t, 50, s.TotalScore())

	assert.ErrorIs(t, s.SetCurrentChallengeIndex(0), ErrRunCompleted)
}

func TestStatsDerivedFromResults(t *testing.T) {
	s := New(3)
	assert.Equal(t, model.PlayerStats{}, s.Stats())

	require.NoError(t, s.Start())
	require.NoError(t, s.CompleteChallenge(0, result(1, true, 4, 80)))
	require.NoError(t, s.CompleteChallenge(1, result(2, false, 8, 0)))

	stats := s.Stats()
	assert.Equal(t, 2, stats.ChallengesCompleted)
	assert.InDelta(t, 6.0, stats.AverageTime, 1e-9)
	assert.InDelta(t, 50.0, stats.Accuracy, 1e-9)
}

func TestResultsReturnsCopy(t *testing.T) {
	s := New(2)
	require.NoError(t, s.Start())
	require.NoError(t, s.CompleteChallenge(0, result(1, true, 1, 10)))
	got := s.Results()
	got[0].Score = 999
	assert.Equal(t, 10, s.Results()[0].Score)
}

// Random interleavings of valid, stale and duplicate completions keep the
// index monotonic and the score equal to the sum of accepted results.
func TestRandomCompletionSequences(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for run := 0; run < 200; run++ {
		total := 1 + rnd.Intn(8)
		s := New(total)
		require.NoError(t, s.Start())

		accepted := 0
		sum := 0
		for step := 0; step < 30; step++ {
			prev := s.CurrentIndex()
			index := prev
			if rnd.Intn(3) == 0 {
				index = prev - 1 + rnd.Intn(3)
			}
			score := rnd.Intn(101)
			err := s.CompleteChallenge(index, result(index+1, rnd.Intn(2) == 0, rnd.Float64()*10, score))
			if err == nil {
				accepted++
				sum += score
				assert.Equal(t, prev+1, s.CurrentIndex())
			} else {
				assert.True(t, errors.Is(err, ErrStaleCompletion) || errors.Is(err, ErrRunCompleted), "unexpected error %v", err)
				assert.Equal(t, prev, s.CurrentIndex())
			}
			assert.GreaterOrEqual(t, s.CurrentIndex(), prev)
			assert.Equal(t, sum, s.TotalScore())
			assert.Len(t, s.Results(), accepted)
			if s.CurrentIndex() == total {
				assert.Equal(t, model.PhaseCompleted, s.Phase())
			}
		}
	}
}
