package units

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/notabot/internal/challenge"
	"github.com/verte-zerg/notabot/internal/generator"
)

const digitExposure = 600 * time.Millisecond

type sequencePhase int

const (
	sequenceMemorize sequencePhase = iota
	sequenceRecall
	sequenceDone
)

// Sequence shows digits for a moment and asks for them back.
type Sequence struct {
	cfg     challenge.Config
	digits  string
	showFor time.Duration
	phase   sequencePhase
	input   textinput.Model
	bar     progress.Model
	matched int
}

func NewSequence(cfg challenge.Config) challenge.Unit {
	digits := generator.New(cfg.Rand).Digits(4 + level(cfg))
	showFor := time.Duration(len(digits)) * digitExposure
	if cfg.TimeLimit > 0 && showFor > cfg.TimeLimit/2 {
		showFor = cfg.TimeLimit / 2
	}
	return &Sequence{
		cfg:     cfg,
		digits:  digits,
		showFor: showFor,
		input:   newAnswerInput("digits", len(digits)+2),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(30), progress.WithoutPercentage()),
	}
}

func (s *Sequence) Init() tea.Cmd { return nil }

func (s *Sequence) Update(msg tea.Msg) (challenge.Unit, tea.Cmd) {
	switch s.phase {
	case sequenceDone:
		return s, nil
	case sequenceMemorize:
		switch msg := msg.(type) {
		case challenge.TickMsg:
			if s.cfg.Clock.Elapsed() >= s.showFor {
				return s, s.recall()
			}
		case tea.KeyMsg:
			if msg.Type == tea.KeyEnter {
				return s, s.recall()
			}
		}
		return s, nil
	}

	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter {
		s.phase = sequenceDone
		typed := strings.TrimSpace(s.input.Value())
		s.matched = commonPrefix(typed, s.digits)
		passed := typed == s.digits
		return s, s.cfg.OnComplete(passed, elapsedSeconds(s.cfg), ratio(s.matched, len(s.digits)))
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *Sequence) recall() tea.Cmd {
	s.phase = sequenceRecall
	return s.input.Focus()
}

func commonPrefix(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

func (s *Sequence) View() string {
	title := promptStyle.Render("Memorize the digits")
	switch s.phase {
	case sequenceMemorize:
		left := 1.0
		if s.showFor > 0 {
			left = 1 - float64(s.cfg.Clock.Elapsed())/float64(s.showFor)
		}
		if left < 0 {
			left = 0
		}
		return strings.Join([]string{
			title,
			"",
			boxStyle.Render(accentStyle.Render(spaced(s.digits))),
			"",
			s.bar.ViewAs(left),
			hintStyle.Render("enter: ready"),
		}, "\n")
	case sequenceRecall:
		return strings.Join([]string{
			promptStyle.Render("Type the digits you saw"),
			"",
			s.input.View(),
		}, "\n")
	default:
		return fmt.Sprintf("%s\n\nThe sequence was %s, %d digits matched", title, s.digits, s.matched)
	}
}

func spaced(s string) string {
	return strings.Join(strings.Split(s, ""), " ")
}
