// Package challenge defines the contract between the host and a challenge unit.
//
// A unit is a Bubble Tea component mounted by the orchestrator. It receives a
// Config at mount time, reads the time it has left from the host Clock, and
// reports its outcome through Config.OnComplete exactly once. It owns no
// timers: the host forwards a TickMsg on every tick of its own timer.
package challenge

import (
	"context"
	"math/rand"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Unit is one mounted mini-game.
type Unit interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Unit, tea.Cmd)
	View() string
}

// Completer reports a unit's outcome. The returned command delivers the
// outcome to the host; calls after the first return nil.
type Completer func(success bool, timeSpent float64, score int) tea.Cmd

// Clock is the host-owned view of the mount's time budget.
type Clock interface {
	Elapsed() time.Duration
	Remaining() time.Duration
	Limit() time.Duration
}

// Config is handed to a unit factory at mount time.
type Config struct {
	ChallengeID int
	TimeLimit   time.Duration
	Level       int
	Clock       Clock
	Rand        *rand.Rand
	OnComplete  Completer
}

// Factory builds a fresh unit for one mount.
type Factory func(cfg Config) Unit

// Loader resolves a Factory on demand.
type Loader func(ctx context.Context) (Factory, error)

// TickMsg is forwarded to the mounted unit on every host tick.
type TickMsg struct {
	Remaining time.Duration
}

// Static wraps an already available factory as a Loader.
func Static(f Factory) Loader {
	return func(context.Context) (Factory, error) {
		return f, nil
	}
}
