package units

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/notabot/internal/challenge"
)

const stopBarWidth = 40

// StopBar sweeps a marker across a track. Space stops it; landing inside the
// target zone passes. The marker position is a function of host elapsed time.
type StopBar struct {
	cfg       challenge.Config
	period    time.Duration
	zoneStart int
	zoneWidth int
	stopped   int
	done      bool
	passed    bool
}

func NewStopBar(cfg challenge.Config) challenge.Unit {
	zone, period := 8, 1600*time.Millisecond
	if level(cfg) >= 2 {
		zone, period = 5, 1000*time.Millisecond
	}
	return &StopBar{
		cfg:       cfg,
		period:    period,
		zoneWidth: zone,
		zoneStart: 4 + cfg.Rand.Intn(stopBarWidth-zone-8),
		stopped:   -1,
	}
}

func (b *StopBar) Init() tea.Cmd { return nil }

// position bounces between 0 and stopBarWidth-1 once per period.
func (b *StopBar) position(elapsed time.Duration) int {
	if b.period <= 0 {
		return 0
	}
	span := stopBarWidth - 1
	phase := float64(elapsed%(2*b.period)) / float64(b.period)
	if phase > 1 {
		phase = 2 - phase
	}
	return int(phase * float64(span))
}

func (b *StopBar) Update(msg tea.Msg) (challenge.Unit, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if b.done || !ok || key.Type != tea.KeySpace {
		return b, nil
	}
	b.done = true
	now := b.cfg.Clock.Elapsed()
	b.stopped = b.position(now)
	b.passed = b.stopped >= b.zoneStart && b.stopped < b.zoneStart+b.zoneWidth
	return b, b.cfg.OnComplete(b.passed, now.Seconds(), b.score())
}

func (b *StopBar) score() int {
	if !b.passed {
		return 0
	}
	center := float64(b.zoneStart) + float64(b.zoneWidth-1)/2
	off := float64(b.stopped) - center
	if off < 0 {
		off = -off
	}
	half := float64(b.zoneWidth) / 2
	return 100 - int(50*off/half)
}

func (b *StopBar) View() string {
	pos := b.stopped
	if !b.done {
		pos = b.position(b.cfg.Clock.Elapsed())
	}
	var track strings.Builder
	for i := 0; i < stopBarWidth; i++ {
		inZone := i >= b.zoneStart && i < b.zoneStart+b.zoneWidth
		switch {
		case i == pos:
			track.WriteString(accentStyle.Render("█"))
		case inZone:
			track.WriteString(goodStyle.Render("="))
		default:
			track.WriteString(hintStyle.Render("-"))
		}
	}
	lines := []string{
		promptStyle.Render("Stop the marker inside the green zone"),
		"",
		"[" + track.String() + "]",
		"",
	}
	if b.done {
		lines = append(lines, verdict(b.passed))
	} else {
		lines = append(lines, hintStyle.Render("space: stop"))
	}
	return strings.Join(lines, "\n")
}
