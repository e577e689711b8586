// Package units contains the challenge units and the kind table that binds
// catalog entries to them.
package units

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/notabot/internal/challenge"
)

// Options configures unit loaders.
type Options struct {
	WordListPath string
}

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	goodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	boxStyle    = lipgloss.NewStyle().
			Padding(0, 2).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
)

// Loaders returns the unit kind table. Keys match the catalog's unit field.
func Loaders(opts Options) map[string]challenge.Loader {
	return map[string]challenge.Loader{
		"captcha":    challenge.Static(NewCaptcha),
		"reaction":   challenge.Static(NewReaction),
		"arithmetic": challenge.Static(NewArithmetic),
		"quiz":       challenge.Static(NewQuiz),
		"sequence":   challenge.Static(NewSequence),
		"stopbar":    challenge.Static(NewStopBar),
		"words":      wordsLoader(opts.WordListPath),
	}
}

func level(cfg challenge.Config) int {
	if cfg.Level < 1 {
		return 1
	}
	return cfg.Level
}

func elapsedSeconds(cfg challenge.Config) float64 {
	return cfg.Clock.Elapsed().Seconds()
}

// timeBonus scales full between half and full credit by the time left.
func timeBonus(clock challenge.Clock, full int) int {
	limit := clock.Limit()
	if limit <= 0 {
		return full
	}
	left := float64(clock.Remaining()) / float64(limit)
	if left < 0 {
		left = 0
	}
	if left > 1 {
		left = 1
	}
	return full/2 + int(float64(full-full/2)*left)
}

func newAnswerInput(placeholder string, limit int) textinput.Model {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = placeholder
	input.CharLimit = limit
	input.Width = limit + 1
	return input
}

func ratio(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return part * 100 / whole
}

func formatSeconds(d time.Duration) string {
	return d.Round(10 * time.Millisecond).String()
}
