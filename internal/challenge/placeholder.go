package challenge

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Placeholder stands in for a unit that could not be resolved. It ignores
// all input; the host timer still forfeits it when the budget runs out.
type Placeholder struct {
	ChallengeID int
	Reason      string
}

// NewPlaceholder returns the fallback unit for id.
func NewPlaceholder(id int, reason error) *Placeholder {
	p := &Placeholder{ChallengeID: id}
	if reason != nil {
		p.Reason = reason.Error()
	}
	return p
}

// Init implements Unit.
func (p *Placeholder) Init() tea.Cmd { return nil }

// Update implements Unit.
func (p *Placeholder) Update(tea.Msg) (Unit, tea.Cmd) { return p, nil }

// View implements Unit.
func (p *Placeholder) View() string {
	out := fmt.Sprintf("Challenge #%d is not available.", p.ChallengeID)
	if p.Reason != "" {
		out += "\n(" + p.Reason + ")"
	}
	return out
}

// Loading is shown while a unit is still being resolved.
type Loading struct {
	ChallengeID int
}

// Init implements Unit.
func (l *Loading) Init() tea.Cmd { return nil }

// Update implements Unit.
func (l *Loading) Update(tea.Msg) (Unit, tea.Cmd) { return l, nil }

// View implements Unit.
func (l *Loading) View() string {
	return fmt.Sprintf("Loading challenge #%d...", l.ChallengeID)
}
