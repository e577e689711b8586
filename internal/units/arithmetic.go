package units

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/notabot/internal/challenge"
	"github.com/verte-zerg/notabot/internal/generator"
)

// Arithmetic asks a short series of sums. All must be right to pass.
type Arithmetic struct {
	cfg      challenge.Config
	sums     []generator.Sum
	current  int
	correct  int
	input    textinput.Model
	feedback string
	done     bool
}

func NewArithmetic(cfg challenge.Config) challenge.Unit {
	lvl := level(cfg)
	limit := 20
	if lvl >= 2 {
		limit = 100
	}
	return &Arithmetic{
		cfg:   cfg,
		sums:  generator.New(cfg.Rand).Sums(2+lvl, limit),
		input: newAnswerInput("answer", 6),
	}
}

func (a *Arithmetic) Init() tea.Cmd {
	return a.input.Focus()
}

func (a *Arithmetic) Update(msg tea.Msg) (challenge.Unit, tea.Cmd) {
	if a.done {
		return a, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter {
		value, err := strconv.Atoi(strings.TrimSpace(a.input.Value()))
		if err != nil {
			a.feedback = "numbers only"
			return a, nil
		}
		if value == a.sums[a.current].Answer {
			a.correct++
		}
		a.current++
		a.feedback = ""
		a.input.Reset()
		if a.current < len(a.sums) {
			return a, nil
		}
		a.done = true
		passed := a.correct == len(a.sums)
		return a, a.cfg.OnComplete(passed, elapsedSeconds(a.cfg), ratio(a.correct, len(a.sums)))
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *Arithmetic) View() string {
	if a.done {
		return fmt.Sprintf("%s\n\n%d of %d correct", promptStyle.Render("Quick maths"), a.correct, len(a.sums))
	}
	s := a.sums[a.current]
	lines := []string{
		promptStyle.Render("Quick maths"),
		hintStyle.Render(fmt.Sprintf("problem %d of %d", a.current+1, len(a.sums))),
		"",
		accentStyle.Render(fmt.Sprintf("%d %c %d = ?", s.A, s.Op, s.B)),
		"",
		a.input.View(),
	}
	if a.feedback != "" {
		lines = append(lines, badStyle.Render(a.feedback))
	}
	return strings.Join(lines, "\n")
}
