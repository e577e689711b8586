package units

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/notabot/internal/challenge"
	"github.com/verte-zerg/notabot/internal/generator"
)

var captchaStyles = []lipgloss.Style{
	lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true),
	lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Italic(true),
	lipgloss.NewStyle().Foreground(lipgloss.Color("#8FB8DE")).Underline(true),
	lipgloss.NewStyle().Foreground(lipgloss.Color("#D9A0C8")).Strikethrough(true),
}

// Captcha asks for a distorted random string, one attempt.
type Captcha struct {
	cfg    challenge.Config
	text   string
	styles []lipgloss.Style
	input  textinput.Model
	done   bool
	passed bool
}

// NewCaptcha builds a captcha unit. Higher levels are longer and use look-alike characters.
func NewCaptcha(cfg challenge.Config) challenge.Unit {
	lvl := level(cfg)
	gen := generator.New(cfg.Rand)
	text := gen.Captcha(4+2*lvl, lvl >= 2)
	styles := make([]lipgloss.Style, len(text))
	for i := range styles {
		styles[i] = captchaStyles[gen.Intn(len(captchaStyles))]
	}
	return &Captcha{
		cfg:    cfg,
		text:   text,
		styles: styles,
		input:  newAnswerInput("type the characters", len(text)+4),
	}
}

// Init implements challenge.Unit.
func (c *Captcha) Init() tea.Cmd {
	return c.input.Focus()
}

// Update implements challenge.Unit.
func (c *Captcha) Update(msg tea.Msg) (challenge.Unit, tea.Cmd) {
	if c.done {
		return c, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter {
		c.done = true
		c.passed = strings.TrimSpace(c.input.Value()) == c.text
		score := 0
		if c.passed {
			score = timeBonus(c.cfg.Clock, 100)
		}
		return c, c.cfg.OnComplete(c.passed, elapsedSeconds(c.cfg), score)
	}
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return c, cmd
}

// View implements challenge.Unit.
func (c *Captcha) View() string {
	var b strings.Builder
	for i, r := range c.text {
		b.WriteString(c.styles[i].Render(string(r)))
		b.WriteByte(' ')
	}
	lines := []string{
		promptStyle.Render("Type the characters below (case sensitive)"),
		"",
		boxStyle.Render(b.String()),
		"",
		c.input.View(),
	}
	if c.done {
		lines = append(lines, verdict(c.passed))
	} else {
		lines = append(lines, hintStyle.Render("enter: submit"))
	}
	return strings.Join(lines, "\n")
}

func verdict(passed bool) string {
	if passed {
		return goodStyle.Render("Correct")
	}
	return badStyle.Render("Wrong")
}
