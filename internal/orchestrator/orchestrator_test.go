package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/notabot/internal/challenge"
	"github.com/verte-zerg/notabot/internal/model"
	"github.com/verte-zerg/notabot/internal/registry"
	"github.com/verte-zerg/notabot/internal/session"
)

// scriptedUnit completes with its outcome when it sees enter.
type scriptedUnit struct {
	cfg     challenge.Config
	success bool
	spent   float64
	score   int
	twice   bool
	ticks   int
}

func (u *scriptedUnit) Init() tea.Cmd { return nil }

func (u *scriptedUnit) Update(msg tea.Msg) (challenge.Unit, tea.Cmd) {
	switch msg := msg.(type) {
	case challenge.TickMsg:
		u.ticks++
	case tea.KeyMsg:
		if msg.Type == tea.KeyEnter {
			cmd := u.cfg.OnComplete(u.success, u.spent, u.score)
			if u.twice {
				if again := u.cfg.OnComplete(u.success, u.spent, u.score); again != nil {
					return u, again
				}
			}
			return u, cmd
		}
	}
	return u, nil
}

func (u *scriptedUnit) View() string { return "scripted" }

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type outcome struct {
	success bool
	spent   float64
	score   int
}

type fixture struct {
	orch  *Orchestrator
	sess  *session.Session
	clock *fakeClock
	units map[int]*scriptedUnit
}

func newFixture(t *testing.T, outcomes map[int]outcome, extra ...model.ChallengeDescriptor) *fixture {
	t.Helper()
	f := &fixture{clock: &fakeClock{now: time.Unix(1000, 0)}, units: map[int]*scriptedUnit{}}
	descs := []model.ChallengeDescriptor{
		{ID: 1, Name: "one", TimeLimit: 10, MaxScore: 100, Unit: "scripted"},
		{ID: 2, Name: "two", TimeLimit: 10, MaxScore: 100, Unit: "scripted"},
		{ID: 3, Name: "three", TimeLimit: 10, MaxScore: 100, Unit: "scripted"},
	}
	descs = append(descs, extra...)
	loaders := map[string]challenge.Loader{
		"scripted": challenge.Static(func(cfg challenge.Config) challenge.Unit {
			o := outcomes[cfg.ChallengeID]
			u := &scriptedUnit{cfg: cfg, success: o.success, spent: o.spent, score: o.score}
			f.units[cfg.ChallengeID] = u
			return u
		}),
		"twice": challenge.Static(func(cfg challenge.Config) challenge.Unit {
			u := &scriptedUnit{cfg: cfg, success: true, spent: 1, score: 40, twice: true}
			f.units[cfg.ChallengeID] = u
			return u
		}),
		"slow": func(context.Context) (challenge.Factory, error) {
			return func(cfg challenge.Config) challenge.Unit {
				u := &scriptedUnit{cfg: cfg, success: true, spent: 2, score: 60}
				f.units[cfg.ChallengeID] = u
				return u
			}, nil
		},
		"broken": func(context.Context) (challenge.Factory, error) {
			return nil, errors.New("asset missing")
		},
	}
	reg, err := registry.New(descs, loaders)
	require.NoError(t, err)
	// Pre-resolve scripted and twice kinds so mounts are synchronous.
	for _, d := range descs {
		if d.Unit == "scripted" || d.Unit == "twice" {
			require.Equal(t, registry.Ready, reg.Resolve(context.Background(), d.ID).State)
		}
	}
	f.sess = session.New(reg.Count())
	f.orch = New(reg, f.sess, WithClock(f.clock.Now), WithTickInterval(time.Millisecond))
	return f
}

func (f *fixture) press(t *testing.T) {
	t.Helper()
	cmd := f.orch.Update(tea.KeyMsg{Type: tea.KeyEnter})
	f.deliver(cmd)
}

// deliver runs cmd and feeds every non-tick message back into the orchestrator.
func (f *fixture) deliver(cmd tea.Cmd) []tea.Msg {
	var seen []tea.Msg
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg := c()
		switch msg := msg.(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case tickMsg:
			// Ticks are driven explicitly by tests.
		default:
			seen = append(seen, msg)
			if next := f.orch.Update(msg); next != nil {
				queue = append(queue, next)
			}
		}
	}
	return seen
}

func (f *fixture) tick() tea.Cmd {
	if f.orch.mount == nil {
		return nil
	}
	return f.orch.Update(tickMsg{mount: f.orch.mount.id})
}

func TestScenarioRunToCompletion(t *testing.T) {
	f := newFixture(t, map[int]outcome{
		1: {success: true, spent: 4.2, score: 80},
		2: {success: false, spent: 9.9, score: 0},
		3: {success: true, spent: 1.1, score: 50},
	})
	msgs := f.deliver(f.orch.Start())
	assert.Contains(t, msgs, MountedMsg{Index: 0, ChallengeID: 1})
	assert.Equal(t, model.PhasePlaying, f.sess.Phase())

	f.press(t)
	assert.Equal(t, 1, f.sess.CurrentIndex())
	assert.Equal(t, 80, f.sess.TotalScore())
	assert.Equal(t, []model.ChallengeResult{
		{ChallengeID: 1, Success: true, TimeSpent: 4.2, Score: 80, Accuracy: 100},
	}, f.sess.Results())

	f.press(t)
	assert.Equal(t, 2, f.sess.CurrentIndex())
	assert.Equal(t, 80, f.sess.TotalScore())

	cmd := f.orch.Update(tea.KeyMsg{Type: tea.KeyEnter})
	msgs = f.deliver(cmd)
	assert.Equal(t, 3, f.sess.CurrentIndex())
	assert.Equal(t, model.PhaseCompleted, f.sess.Phase())
	assert.Equal(t, 130, f.sess.TotalScore())
	assert.Contains(t, msgs, RunFinishedMsg{RunID: f.sess.RunID()})
	assert.Empty(t, f.orch.View())

	f.orch.Reset()
	assert.Equal(t, model.PhaseIdle, f.sess.Phase())
	assert.Equal(t, 0, f.sess.CurrentIndex())
	assert.Empty(t, f.sess.Results())
}

func TestTimeoutSynthesizesFailure(t *testing.T) {
	f := newFixture(t, map[int]outcome{})
	f.deliver(f.orch.Start())

	f.clock.Advance(4 * time.Second)
	cmd := f.tick()
	require.NotNil(t, cmd)
	assert.Equal(t, 1, f.units[1].ticks)
	assert.Equal(t, 6*time.Second, f.orch.Remaining())
	assert.Equal(t, 0, f.sess.CurrentIndex())

	f.clock.Advance(6 * time.Second)
	f.deliver(f.tick())

	require.Len(t, f.sess.Results(), 1)
	got := f.sess.Results()[0]
	assert.Equal(t, 1, got.ChallengeID)
	assert.False(t, got.Success)
	assert.InDelta(t, 10.0, got.TimeSpent, 1e-9)
	assert.Equal(t, 0, got.Score)
	assert.Equal(t, 1, f.sess.CurrentIndex())
	cur, ok := f.orch.Current()
	require.True(t, ok)
	assert.Equal(t, 2, cur.ID)
}

func TestEveryUnitTimingOutStillFinishesRun(t *testing.T) {
	f := newFixture(t, map[int]outcome{})
	f.deliver(f.orch.Start())

	var finished bool
	for step := 0; step < 10 && !finished; step++ {
		f.clock.Advance(11 * time.Second)
		for _, msg := range f.deliver(f.tick()) {
			if _, ok := msg.(RunFinishedMsg); ok {
				finished = true
			}
		}
	}
	assert.True(t, finished)
	assert.Equal(t, model.PhaseCompleted, f.sess.Phase())
	assert.Len(t, f.sess.Results(), 3)
}

func TestStaleTickIsDropped(t *testing.T) {
	f := newFixture(t, map[int]outcome{1: {success: true, spent: 1, score: 10}})
	f.deliver(f.orch.Start())
	oldMount := f.orch.mount.id

	f.press(t)
	require.Equal(t, 1, f.sess.CurrentIndex())

	f.clock.Advance(time.Hour)
	cmd := f.orch.Update(tickMsg{mount: oldMount})
	assert.Nil(t, cmd, "a tick from an unmounted unit must not reschedule")
	assert.Equal(t, 1, f.sess.CurrentIndex())
}

func TestCompletionInFlightBeatsTimeout(t *testing.T) {
	f := newFixture(t, map[int]outcome{1: {success: true, spent: 9, score: 70}})
	f.deliver(f.orch.Start())

	pending := f.orch.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, pending)
	f.clock.Advance(11 * time.Second)
	f.deliver(f.tick())

	f.deliver(pending)
	require.Len(t, f.sess.Results(), 1)
	assert.True(t, f.sess.Results()[0].Success)
	assert.Equal(t, 70, f.sess.TotalScore())
	assert.Equal(t, 1, f.sess.CurrentIndex())
}

func TestFiredMountKeepsTicking(t *testing.T) {
	f := newFixture(t, map[int]outcome{1: {success: true, spent: 1, score: 50}})
	f.deliver(f.orch.Start())

	// The unit reports but its command never reaches the runtime.
	_ = f.orch.Update(tea.KeyMsg{Type: tea.KeyEnter})
	before := f.units[1].ticks

	f.clock.Advance(2 * time.Second)
	assert.NotNil(t, f.tick(), "the timer must outlive a lost completion")
	assert.Equal(t, before, f.units[1].ticks, "ticks stop reaching a unit that has reported")
	assert.Equal(t, 0, f.sess.CurrentIndex())

	f.clock.Advance(60 * time.Second)
	f.deliver(f.tick())
	require.Len(t, f.sess.Results(), 1)
	got := f.sess.Results()[0]
	assert.True(t, got.Success)
	assert.Equal(t, 50, got.Score)
	assert.Equal(t, 1, f.sess.CurrentIndex())
}

func TestDoubleCompletionCountsOnce(t *testing.T) {
	f := newFixture(t, map[int]outcome{}, model.ChallengeDescriptor{
		ID: 4, Name: "twice", TimeLimit: 10, MaxScore: 100, Unit: "twice",
	})
	f.deliver(f.orch.Start())
	cmd, err := f.orch.Jump(3)
	require.NoError(t, err)
	f.deliver(cmd)

	f.press(t)
	assert.Equal(t, 40, f.sess.TotalScore())
	assert.Len(t, f.sess.Results(), 1)
	assert.Equal(t, model.PhaseCompleted, f.sess.Phase())
}

func TestLateCompletionAfterJumpIsDropped(t *testing.T) {
	f := newFixture(t, map[int]outcome{1: {success: true, spent: 1, score: 10}})
	f.deliver(f.orch.Start())
	unit := f.units[1]
	late := unit.cfg.OnComplete(true, 1, 10)

	cmd, err := f.orch.Jump(2)
	require.NoError(t, err)
	f.deliver(cmd)

	f.deliver(late)
	assert.Empty(t, f.sess.Results())
	assert.Equal(t, 2, f.sess.CurrentIndex())
}

func TestJumpBoundsLeaveStateUnchanged(t *testing.T) {
	f := newFixture(t, map[int]outcome{})
	_, err := f.orch.Jump(5)
	assert.ErrorIs(t, err, session.ErrIndexOutOfRange)
	assert.Equal(t, 0, f.sess.CurrentIndex())

	f.deliver(f.orch.Start())
	_, err = f.orch.Back()
	assert.ErrorIs(t, err, session.ErrIndexOutOfRange)
	assert.Equal(t, 0, f.sess.CurrentIndex())

	cmd, err := f.orch.Skip()
	require.NoError(t, err)
	f.deliver(cmd)
	assert.Equal(t, 1, f.sess.CurrentIndex())
	assert.Empty(t, f.sess.Results())
}

func TestPendingUnitResolvesInBackground(t *testing.T) {
	f := newFixture(t, map[int]outcome{}, model.ChallengeDescriptor{
		ID: 4, Name: "slow", TimeLimit: 10, MaxScore: 100, Unit: "slow",
	})
	f.deliver(f.orch.Start())
	cmd, err := f.orch.Jump(3)
	require.NoError(t, err)
	assert.True(t, f.orch.Loading())
	assert.Contains(t, f.orch.View(), "Loading")

	f.clock.Advance(3 * time.Second)
	f.deliver(cmd)
	assert.False(t, f.orch.Loading())
	assert.Equal(t, "scripted", f.orch.View())
	assert.Equal(t, 10*time.Second, f.orch.Remaining())

	f.press(t)
	assert.Equal(t, 60, f.sess.TotalScore())
}

func TestLoadingDoesNotSpendBudget(t *testing.T) {
	f := newFixture(t, map[int]outcome{}, model.ChallengeDescriptor{
		ID: 4, Name: "slow", TimeLimit: 10, MaxScore: 100, Unit: "slow",
	})
	f.deliver(f.orch.Start())
	resolve, err := f.orch.Jump(3)
	require.NoError(t, err)
	require.True(t, f.orch.Loading())

	f.clock.Advance(15 * time.Second)
	assert.NotNil(t, f.tick())
	assert.Empty(t, f.sess.Results(), "a unit still loading must not time out")
	assert.Equal(t, 10*time.Second, f.orch.Remaining())

	f.deliver(resolve)
	require.False(t, f.orch.Loading())
	assert.Equal(t, 10*time.Second, f.orch.Remaining())

	f.clock.Advance(10 * time.Second)
	f.deliver(f.tick())
	require.Len(t, f.sess.Results(), 1)
	assert.False(t, f.sess.Results()[0].Success)
}

func TestBrokenUnitFallsBackAndTimesOut(t *testing.T) {
	f := newFixture(t, map[int]outcome{}, model.ChallengeDescriptor{
		ID: 4, Name: "broken", TimeLimit: 5, MaxScore: 100, Unit: "broken",
	})
	f.deliver(f.orch.Start())
	cmd, err := f.orch.Jump(3)
	require.NoError(t, err)
	f.deliver(cmd)

	assert.Contains(t, f.orch.View(), "not available")
	f.press(t)
	assert.Empty(t, f.sess.Results())

	f.clock.Advance(5 * time.Second)
	msgs := f.deliver(f.tick())
	require.Len(t, f.sess.Results(), 1)
	assert.False(t, f.sess.Results()[0].Success)
	assert.Contains(t, msgs, RunFinishedMsg{RunID: f.sess.RunID()})
}

func TestUnknownKindShowsPlaceholderImmediately(t *testing.T) {
	f := newFixture(t, map[int]outcome{}, model.ChallengeDescriptor{
		ID: 4, Name: "pong", TimeLimit: 5, MaxScore: 100, Unit: "pong",
	})
	f.deliver(f.orch.Start())
	cmd, err := f.orch.Jump(3)
	require.NoError(t, err)
	assert.False(t, f.orch.Loading())
	assert.Contains(t, f.orch.View(), "pong")
	f.deliver(cmd)
}

func TestStartWhilePlayingIsIgnored(t *testing.T) {
	f := newFixture(t, map[int]outcome{1: {success: true, spent: 1, score: 10}})
	f.deliver(f.orch.Start())
	f.press(t)
	assert.Nil(t, f.orch.Start())
	assert.Equal(t, 1, f.sess.CurrentIndex())
}
