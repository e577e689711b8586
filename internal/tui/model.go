// Package tui provides the top-level Bubble Tea screen router.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/notabot/internal/logging"
	"github.com/verte-zerg/notabot/internal/model"
	"github.com/verte-zerg/notabot/internal/orchestrator"
	"github.com/verte-zerg/notabot/internal/results"
)

type screen int

const (
	screenStart screen = iota
	screenPlaying
	screenResult
)

const saveTimeout = 5 * time.Second

// Recorder persists finished runs and debug checkpoints. *store.Store satisfies it.
type Recorder interface {
	InsertRun(ctx context.Context, run model.RunRecord, rows []model.BreakdownRow) (int64, error)
	SaveCheckpoint(ctx context.Context, catalog string, position int) error
}

// Options configures the router.
type Options struct {
	Nominal int
	Debug   model.DebugConfig
	// Recorder is nil when history is disabled.
	Recorder Recorder
	// CatalogKey identifies the catalog for checkpoints.
	CatalogKey string
	// StartAt is the 1-based challenge to jump to after the first start; 0 means none.
	StartAt int
}

type savedMsg struct {
	runID string
	err   error
}

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	textStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	humanStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	botStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAAD14"))
	panelStyle  = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
)

// Model implements the Bubble Tea game UI.
type Model struct {
	orch *orchestrator.Orchestrator
	opts Options

	screen     screen
	pendingJmp int

	width  int
	height int

	bar       progress.Model
	help      help.Model
	breakdown table.Model

	summary model.Summary
	last    *model.Summary
	notice  string
	saveErr string
	saved   bool
}

// NewModel constructs the router around an orchestrator.
func NewModel(orch *orchestrator.Orchestrator, opts Options) *Model {
	if opts.Nominal <= 0 {
		opts.Nominal = results.DefaultNominal
	}
	return &Model{
		orch:       orch,
		opts:       opts,
		pendingJmp: opts.StartAt - 1,
		bar:        progress.New(progress.WithScaledGradient("#FF4D4F", "#52C41A"), progress.WithoutPercentage(), progress.WithWidth(30)),
		help:       help.New(),
		breakdown:  newBreakdownTable(),
	}
}

// LastSummary returns the most recently finished run, if any.
func (m *Model) LastSummary() (model.Summary, bool) {
	if m.last == nil {
		return model.Summary{}, false
	}
	return *m.last, true
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.breakdown.SetWidth(max(20, msg.Width-4))
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.screen {
		case screenStart:
			return m.updateStart(msg)
		case screenPlaying:
			return m.updatePlaying(msg)
		default:
			return m.updateResult(msg)
		}
	case orchestrator.RunFinishedMsg:
		return m, m.finish(msg.RunID)
	case orchestrator.MountedMsg:
		return m, m.checkpoint(msg.Index)
	case savedMsg:
		if msg.runID != m.orch.Session().RunID() {
			return m, nil
		}
		if msg.err != nil {
			m.saveErr = msg.err.Error()
		} else {
			m.saved = true
		}
		return m, nil
	}
	return m, m.orch.Update(msg)
}

func (m *Model) updateStart(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, startKeys.Begin):
		return m, m.start()
	case key.Matches(msg, startKeys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) updatePlaying(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.opts.Debug.Enabled {
		switch {
		case key.Matches(msg, debugKeys.Skip):
			return m, m.jump(m.orch.Skip())
		case key.Matches(msg, debugKeys.Back):
			return m, m.jump(m.orch.Back())
		case key.Matches(msg, debugKeys.Reset):
			m.orch.Reset()
			m.screen = screenStart
			m.notice = ""
			return m, nil
		}
	}
	return m, m.orch.Update(msg)
}

func (m *Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, resultKeys.Again):
		return m, m.start()
	case key.Matches(msg, resultKeys.Quit):
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.breakdown, cmd = m.breakdown.Update(msg)
	return m, cmd
}

func (m *Model) start() tea.Cmd {
	m.notice = ""
	m.saveErr = ""
	m.saved = false
	m.summary = model.Summary{}
	m.screen = screenPlaying
	cmd := m.orch.Start()
	if m.pendingJmp < 0 {
		return cmd
	}
	target := m.pendingJmp
	m.pendingJmp = -1
	jumpCmd, err := m.orch.Jump(target)
	if err != nil {
		m.notice = fmt.Sprintf("cannot start at challenge %d: %v", target+1, err)
		return cmd
	}
	// The jump remounts; the first mount's messages carry a stale id and are dropped.
	return tea.Batch(cmd, jumpCmd)
}

func (m *Model) jump(cmd tea.Cmd, err error) tea.Cmd {
	if err != nil {
		m.notice = err.Error()
		return nil
	}
	m.notice = ""
	return cmd
}

func (m *Model) finish(runID string) tea.Cmd {
	sess := m.orch.Session()
	if sess.RunID() != runID {
		return nil
	}
	m.summary = results.Summarize(sess.Results(), m.orch.Registry(), m.opts.Nominal)
	last := m.summary
	m.last = &last
	m.breakdown.SetRows(breakdownRows(m.summary))
	m.breakdown.GotoTop()
	m.screen = screenResult
	logging.Info("run %s finished: %d/%d (%.1f%%) %s",
		runID, m.summary.TotalScore, m.summary.MaxPossibleScore, m.summary.Percentage, m.summary.Rating)

	if m.opts.Recorder == nil {
		return nil
	}
	run := model.RunRecord{
		RunID:      runID,
		StartedAt:  sess.StartedAt(),
		EndedAt:    sess.EndedAt(),
		TotalScore: m.summary.TotalScore,
		MaxScore:   m.summary.MaxPossibleScore,
		Percentage: m.summary.Percentage,
		Rating:     m.summary.Rating,
		Completed:  m.summary.ChallengesCompleted,
		Passed:     m.summary.Passed,
	}
	rows := append([]model.BreakdownRow(nil), m.summary.Breakdown...)
	rec := m.opts.Recorder
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		_, err := rec.InsertRun(ctx, run, rows)
		if err != nil {
			logging.Error("save run %s: %v", runID, err)
		}
		return savedMsg{runID: runID, err: err}
	}
}

func (m *Model) checkpoint(index int) tea.Cmd {
	if !m.opts.Debug.Enabled || m.opts.Recorder == nil || index != m.orch.Session().CurrentIndex() {
		return nil
	}
	rec, catalog := m.opts.Recorder, m.opts.CatalogKey
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := rec.SaveCheckpoint(ctx, catalog, index); err != nil {
			logging.Error("save checkpoint: %v", err)
		}
		return nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var body string
	switch m.screen {
	case screenStart:
		body = m.viewStart()
	case screenPlaying:
		body = m.viewPlaying()
	default:
		body = m.viewResult()
	}
	if m.width == 0 || m.height == 0 {
		return body
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}

func (m *Model) viewStart() string {
	count := m.orch.Registry().Count()
	lines := []string{
		titleStyle.Render("notabot"),
		"",
		textStyle.Render("Prove you are human."),
		mutedStyle.Render(fmt.Sprintf("%d challenges, each against the clock.", count)),
	}
	if m.opts.Debug.Enabled {
		lines = append(lines, noticeStyle.Render("debug mode"))
	}
	lines = append(lines, "", m.help.View(startKeys))
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) viewPlaying() string {
	sess := m.orch.Session()
	parts := []string{m.renderHeader(sess.CurrentIndex(), sess.Total(), sess.TotalScore()), ""}
	if m.orch.Loading() {
		parts = append(parts, mutedStyle.Render("Loading challenge..."))
	} else {
		parts = append(parts, m.orch.View())
	}
	parts = append(parts, "", m.renderFooter())
	return strings.Join(parts, "\n")
}

func (m *Model) renderHeader(index, total, score int) string {
	name := ""
	ratio := 0.0
	remaining := m.orch.Remaining()
	if desc, ok := m.orch.Current(); ok {
		name = desc.Name
		if limit := desc.Limit(); limit > 0 {
			ratio = float64(remaining) / float64(limit)
		}
	}
	ratio = max(0, min(ratio, 1))
	line := fmt.Sprintf("Challenge %d/%d  %s", min(index+1, total), total, name)
	scoreLine := fmt.Sprintf("Score %d", score)
	countdown := fmt.Sprintf("%s %4.1fs", m.bar.ViewAs(ratio), remaining.Seconds())
	return titleStyle.Render(line) + "\n" + mutedStyle.Render(scoreLine) + "\n" + countdown
}

func (m *Model) renderFooter() string {
	var footer string
	if m.opts.Debug.Enabled {
		footer = m.help.View(debugKeys)
	} else {
		footer = footerStyle.Render("ctrl+c: quit")
	}
	if m.notice != "" {
		footer += "\n" + noticeStyle.Render(m.notice)
	}
	return footer
}

func (m *Model) viewResult() string {
	s := m.summary
	verdict := botStyle.Render("Verdict: still not sure you are human")
	if s.Human {
		verdict = humanStyle.Render("Verdict: human")
	}
	lines := []string{
		titleStyle.Render("Results"),
		"",
		verdict,
		textStyle.Render(fmt.Sprintf("Rating: %s", results.RatingLabel(s.Rating))),
		textStyle.Render(fmt.Sprintf("Score: %d/%d (%.1f%%)", s.TotalScore, s.MaxPossibleScore, s.Percentage)),
		mutedStyle.Render(fmt.Sprintf("Passed %d of %d  Avg time %.1fs  Accuracy %.1f%%",
			s.Passed, s.ChallengesCompleted, s.AverageTime, s.Accuracy)),
		"",
	}
	if len(s.Breakdown) == 0 {
		lines = append(lines, mutedStyle.Render("No challenges recorded."))
	} else {
		lines = append(lines, m.breakdown.View())
	}
	switch {
	case m.saveErr != "":
		lines = append(lines, "", botStyle.Render("History not saved: "+m.saveErr))
	case m.saved:
		lines = append(lines, "", mutedStyle.Render("Saved to history."))
	}
	lines = append(lines, "", m.help.View(resultKeys))
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func newBreakdownTable() table.Model {
	columns := []table.Column{
		{Title: "#", Width: 3},
		{Title: "Challenge", Width: 22},
		{Title: "Result", Width: 6},
		{Title: "Time", Width: 7},
		{Title: "Score", Width: 8},
		{Title: "Accuracy", Width: 8},
	}
	t := table.New(table.WithColumns(columns), table.WithHeight(8))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true)
	styles.Selected = styles.Cell.Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	t.SetStyles(styles)
	t.Focus()
	return t
}

func breakdownRows(s model.Summary) []table.Row {
	rows := make([]table.Row, 0, len(s.Breakdown))
	for _, b := range s.Breakdown {
		rows = append(rows, table.Row(results.BreakdownCells(b)))
	}
	return rows
}
