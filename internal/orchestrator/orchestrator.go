// Package orchestrator mounts one challenge unit at a time, owns its timer,
// and folds the unit's single completion into the session.
package orchestrator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/notabot/internal/challenge"
	"github.com/verte-zerg/notabot/internal/logging"
	"github.com/verte-zerg/notabot/internal/model"
	"github.com/verte-zerg/notabot/internal/registry"
	"github.com/verte-zerg/notabot/internal/session"
)

const (
	defaultTick    = 100 * time.Millisecond
	resolveTimeout = 10 * time.Second
)

// RunFinishedMsg is emitted once the session reaches the completed phase.
type RunFinishedMsg struct {
	RunID string
}

// MountedMsg is emitted whenever a unit is mounted at a new position.
type MountedMsg struct {
	Index       int
	ChallengeID int
}

type tickMsg struct {
	mount uint64
}

type completionMsg struct {
	mount  uint64
	index  int
	result model.ChallengeResult
}

type resolvedMsg struct {
	mount uint64
	res   registry.Resolution
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithTickInterval sets the host timer interval.
func WithTickInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithRand sets the random source handed to units.
func WithRand(r *rand.Rand) Option {
	return func(o *Orchestrator) { o.rnd = r }
}

// Orchestrator reacts to the session phase; the session holds it.
type Orchestrator struct {
	reg  *registry.Registry
	sess *session.Session

	now      func() time.Time
	interval time.Duration
	rnd      *rand.Rand

	lastMount uint64
	mount     *mount
}

type mount struct {
	id        uint64
	index     int
	desc      model.ChallengeDescriptor
	found     bool
	state     registry.ResolutionState
	unit      challenge.Unit
	startedAt time.Time
	deadline  time.Time
	fired     bool
	// reported holds the unit's outcome until its completion message lands.
	reported *model.ChallengeResult
}

type mountClock struct {
	m   *mount
	now func() time.Time
}

func (c mountClock) Elapsed() time.Duration { return c.now().Sub(c.m.startedAt) }

func (c mountClock) Remaining() time.Duration {
	left := c.m.deadline.Sub(c.now())
	if left < 0 {
		return 0
	}
	return left
}

func (c mountClock) Limit() time.Duration { return c.m.desc.Limit() }

// New binds an orchestrator to a registry and a session.
func New(reg *registry.Registry, sess *session.Session, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		reg:      reg,
		sess:     sess,
		now:      time.Now,
		interval: defaultTick,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.rnd == nil {
		o.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return o
}

// Session returns the bound session.
func (o *Orchestrator) Session() *session.Session { return o.sess }

// Registry returns the bound registry.
func (o *Orchestrator) Registry() *registry.Registry { return o.reg }

// Start begins a run and mounts the first unit.
func (o *Orchestrator) Start() tea.Cmd {
	if err := o.sess.Start(); err != nil {
		logging.Warn("start ignored: %v", err)
		return nil
	}
	logging.Info("run %s started with %d challenges", o.sess.RunID(), o.sess.Total())
	return o.mountCurrent()
}

// Reset unmounts the active unit and returns the session to idle.
func (o *Orchestrator) Reset() {
	o.unmount()
	o.sess.Reset()
}

// Jump moves to a 0-based position without recording the skipped units.
func (o *Orchestrator) Jump(index int) (tea.Cmd, error) {
	if err := o.sess.SetCurrentChallengeIndex(index); err != nil {
		logging.Warn("jump to %d rejected: %v", index, err)
		return nil, err
	}
	if o.sess.Phase() != model.PhasePlaying {
		return nil, nil
	}
	logging.Debug("jumped to challenge %d", index+1)
	return o.mountCurrent(), nil
}

// Skip jumps to the next position.
func (o *Orchestrator) Skip() (tea.Cmd, error) {
	return o.Jump(o.sess.CurrentIndex() + 1)
}

// Back jumps to the previous position.
func (o *Orchestrator) Back() (tea.Cmd, error) {
	return o.Jump(o.sess.CurrentIndex() - 1)
}

// Current returns the descriptor of the mounted unit.
func (o *Orchestrator) Current() (model.ChallengeDescriptor, bool) {
	if o.mount == nil || !o.mount.found {
		return model.ChallengeDescriptor{}, false
	}
	return o.mount.desc, true
}

// Remaining returns the time left for the mounted unit.
func (o *Orchestrator) Remaining() time.Duration {
	if o.mount == nil || !o.mount.found {
		return 0
	}
	if o.mount.state == registry.Pending {
		return o.mount.desc.Limit()
	}
	return mountClock{m: o.mount, now: o.now}.Remaining()
}

// Loading reports whether the mounted unit is still being resolved.
func (o *Orchestrator) Loading() bool {
	return o.mount != nil && o.mount.state == registry.Pending
}

// Update routes timer, resolution and completion messages; everything else
// goes to the mounted unit.
func (o *Orchestrator) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tickMsg:
		return o.handleTick(msg)
	case completionMsg:
		if o.mount == nil || msg.mount != o.mount.id {
			logging.Warn("dropped late completion for challenge %d", msg.result.ChallengeID)
			return nil
		}
		return o.record(msg.index, msg.result)
	case resolvedMsg:
		return o.handleResolved(msg)
	default:
		return o.forward(msg)
	}
}

// View renders the mounted unit.
func (o *Orchestrator) View() string {
	if o.mount == nil || o.mount.unit == nil {
		return ""
	}
	return o.mount.unit.View()
}

func (o *Orchestrator) forward(msg tea.Msg) tea.Cmd {
	m := o.mount
	if m == nil || m.unit == nil {
		return nil
	}
	var cmd tea.Cmd
	m.unit, cmd = m.unit.Update(msg)
	return cmd
}

func (o *Orchestrator) handleTick(msg tickMsg) tea.Cmd {
	m := o.mount
	if m == nil || msg.mount != m.id {
		// The mount this timer belonged to is gone; let the timer die.
		return nil
	}
	if m.state == registry.Pending {
		// No budget runs while the unit loads; resolveTimeout bounds the wait.
		return o.tick(m.id)
	}
	expired := !o.now().Before(m.deadline)
	if m.fired {
		// The completion message is on its way. If it never lands, the
		// stored outcome is recorded at the deadline.
		if expired && m.reported != nil {
			return o.record(m.index, *m.reported)
		}
		return o.tick(m.id)
	}
	if expired {
		return o.timeout(m)
	}
	remaining := mountClock{m: m, now: o.now}.Remaining()
	return tea.Batch(o.forward(challenge.TickMsg{Remaining: remaining}), o.tick(m.id))
}

func (o *Orchestrator) handleResolved(msg resolvedMsg) tea.Cmd {
	m := o.mount
	if m == nil || msg.mount != m.id {
		return nil
	}
	if msg.res.State != registry.Ready {
		logging.Warn("challenge %d unavailable, showing placeholder: %v", m.desc.ID, msg.res.Err)
		m.state = registry.Failed
		m.unit = challenge.NewPlaceholder(m.desc.ID, msg.res.Err)
		m.startedAt = o.now()
		m.deadline = m.startedAt.Add(m.desc.Limit())
		return nil
	}
	// The budget starts when the unit is playable.
	m.startedAt = o.now()
	m.deadline = m.startedAt.Add(m.desc.Limit())
	return o.instantiate(m, msg.res.Factory)
}

func (o *Orchestrator) timeout(m *mount) tea.Cmd {
	m.fired = true
	logging.Info("challenge %d timed out after %s", m.desc.ID, m.desc.Limit())
	return o.record(m.index, model.ChallengeResult{
		ChallengeID: m.desc.ID,
		Success:     false,
		TimeSpent:   m.desc.Limit().Seconds(),
		Score:       0,
		Accuracy:    0,
	})
}

func (o *Orchestrator) record(index int, result model.ChallengeResult) tea.Cmd {
	if err := o.sess.CompleteChallenge(index, result); err != nil {
		logging.Warn("dropped completion for challenge %d: %v", result.ChallengeID, err)
		return nil
	}
	logging.Debug("challenge %d recorded: success=%t score=%d time=%.1fs",
		result.ChallengeID, result.Success, result.Score, result.TimeSpent)
	o.unmount()
	if o.sess.Phase() == model.PhaseCompleted {
		runID := o.sess.RunID()
		logging.Info("run %s completed with score %d", runID, o.sess.TotalScore())
		return func() tea.Msg { return RunFinishedMsg{RunID: runID} }
	}
	return o.mountCurrent()
}

func (o *Orchestrator) mountCurrent() tea.Cmd {
	o.unmount()
	o.lastMount++
	index := o.sess.CurrentIndex()
	m := &mount{id: o.lastMount, index: index}
	o.mount = m

	desc, ok := o.reg.At(index)
	if !ok {
		// No descriptor means no budget; only a jump moves on from here.
		logging.Warn("no challenge at position %d", index)
		m.state = registry.Failed
		m.unit = challenge.NewPlaceholder(index+1, fmt.Errorf("no challenge at position %d", index+1))
		return nil
	}
	m.desc = desc
	m.found = true
	m.startedAt = o.now()
	m.deadline = m.startedAt.Add(desc.Limit())
	mounted := func() tea.Msg { return MountedMsg{Index: index, ChallengeID: desc.ID} }

	res := o.reg.Status(desc.ID)
	var cmd tea.Cmd
	switch res.State {
	case registry.Ready:
		cmd = o.instantiate(m, res.Factory)
	case registry.Failed:
		logging.Warn("challenge %d unavailable, showing placeholder: %v", desc.ID, res.Err)
		m.state = registry.Failed
		m.unit = challenge.NewPlaceholder(desc.ID, res.Err)
	default:
		m.state = registry.Pending
		m.unit = &challenge.Loading{ChallengeID: desc.ID}
		cmd = o.resolve(m.id, desc.ID)
	}
	return tea.Batch(cmd, o.tick(m.id), mounted)
}

func (o *Orchestrator) instantiate(m *mount, factory challenge.Factory) (cmd tea.Cmd) {
	cfg := challenge.Config{
		ChallengeID: m.desc.ID,
		TimeLimit:   m.desc.Limit(),
		Level:       m.desc.Level,
		Clock:       mountClock{m: m, now: o.now},
		Rand:        o.rnd,
		OnComplete:  o.completer(m),
	}
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("unit for challenge %d panicked: %v", m.desc.ID, p)
			logging.Error("%v", err)
			m.state = registry.Failed
			m.unit = challenge.NewPlaceholder(m.desc.ID, err)
			cmd = nil
		}
	}()
	m.unit = factory(cfg)
	m.state = registry.Ready
	return m.unit.Init()
}

// completer builds the one-shot callback for a mount.
func (o *Orchestrator) completer(m *mount) challenge.Completer {
	return func(success bool, timeSpent float64, score int) tea.Cmd {
		if m.fired {
			logging.Warn("challenge %d reported completion more than once; ignored", m.desc.ID)
			return nil
		}
		m.fired = true
		if timeSpent < 0 {
			timeSpent = 0
		}
		result := model.ChallengeResult{
			ChallengeID: m.desc.ID,
			Success:     success,
			TimeSpent:   timeSpent,
			Score:       score,
			Accuracy:    -1,
		}
		m.reported = &result
		msg := completionMsg{mount: m.id, index: m.index, result: result}
		return func() tea.Msg { return msg }
	}
}

func (o *Orchestrator) resolve(mountID uint64, challengeID int) tea.Cmd {
	reg := o.reg
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
		defer cancel()
		return resolvedMsg{mount: mountID, res: reg.Resolve(ctx, challengeID)}
	}
}

func (o *Orchestrator) tick(mountID uint64) tea.Cmd {
	return tea.Tick(o.interval, func(time.Time) tea.Msg {
		return tickMsg{mount: mountID}
	})
}

func (o *Orchestrator) unmount() {
	o.mount = nil
}
