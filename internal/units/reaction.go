package units

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/notabot/internal/challenge"
)

type reactionPhase int

const (
	reactionWaiting reactionPhase = iota
	reactionSignal
	reactionDone
)

// Reaction shows a signal after a random delay and expects space as soon as it appears.
// Pressing early fails.
type Reaction struct {
	cfg         challenge.Config
	phase       reactionPhase
	signalAfter time.Duration
	signalAt    time.Duration
	threshold   time.Duration
	reacted     time.Duration
	passed      bool
	early       bool
}

func NewReaction(cfg challenge.Config) challenge.Unit {
	threshold := 600 * time.Millisecond
	if level(cfg) >= 2 {
		threshold = 450 * time.Millisecond
	}
	delay := 1500*time.Millisecond + time.Duration(cfg.Rand.Intn(2500))*time.Millisecond
	if cfg.TimeLimit > 0 && delay > cfg.TimeLimit/2 {
		delay = cfg.TimeLimit / 2
	}
	return &Reaction{cfg: cfg, signalAfter: delay, threshold: threshold}
}

func (r *Reaction) Init() tea.Cmd { return nil }

func (r *Reaction) Update(msg tea.Msg) (challenge.Unit, tea.Cmd) {
	if r.phase == reactionDone {
		return r, nil
	}
	switch msg := msg.(type) {
	case challenge.TickMsg:
		if r.phase == reactionWaiting {
			if now := r.cfg.Clock.Elapsed(); now >= r.signalAfter {
				r.phase = reactionSignal
				r.signalAt = now
			}
		}
	case tea.KeyMsg:
		if msg.Type != tea.KeySpace {
			return r, nil
		}
		now := r.cfg.Clock.Elapsed()
		if r.phase == reactionWaiting {
			r.phase = reactionDone
			r.early = true
			return r, r.cfg.OnComplete(false, now.Seconds(), 0)
		}
		r.phase = reactionDone
		r.reacted = now - r.signalAt
		r.passed = r.reacted <= r.threshold
		return r, r.cfg.OnComplete(r.passed, now.Seconds(), reactionScore(r.reacted, r.threshold))
	}
	return r, nil
}

// reactionScore maps a reaction inside the threshold to 50..100.
func reactionScore(reacted, threshold time.Duration) int {
	if reacted > threshold || threshold <= 0 {
		return 0
	}
	if reacted < 0 {
		reacted = 0
	}
	return 100 - int(50*float64(reacted)/float64(threshold))
}

func (r *Reaction) View() string {
	lines := []string{promptStyle.Render("Press space the moment the box turns green")}
	switch r.phase {
	case reactionWaiting:
		lines = append(lines, "", boxStyle.Render(hintStyle.Render("  wait...  ")))
	case reactionSignal:
		lines = append(lines, "", boxStyle.Render(goodStyle.Render("   NOW!   ")))
	default:
		switch {
		case r.early:
			lines = append(lines, "", badStyle.Render("Too early"))
		case r.passed:
			lines = append(lines, "", goodStyle.Render("Reaction "+formatSeconds(r.reacted)))
		default:
			lines = append(lines, "", badStyle.Render("Too slow: "+formatSeconds(r.reacted)))
		}
	}
	return strings.Join(lines, "\n")
}
