package units

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/notabot/internal/challenge"
	"github.com/verte-zerg/notabot/internal/generator"
	"github.com/verte-zerg/notabot/internal/logging"
	"github.com/verte-zerg/notabot/internal/wordlist"
)

// wordsLoader reads the word list on first resolution. Without a path the
// builtin list is used.
func wordsLoader(path string) challenge.Loader {
	return func(ctx context.Context) (challenge.Factory, error) {
		words := wordlist.Builtin()
		if path != "" {
			loaded, err := wordlist.LoadWords(path)
			if err != nil {
				return nil, fmt.Errorf("load word list: %w", err)
			}
			words = wordlist.Filter(loaded, wordlist.Typeable)
			if len(words) == 0 {
				return nil, fmt.Errorf("word list %s has no typeable words", path)
			}
			logging.Debug("word list %s: %d of %d words kept", path, len(words), len(loaded))
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return func(cfg challenge.Config) challenge.Unit {
			return newWords(cfg, words)
		}, nil
	}
}

// Words asks for a short phrase to be typed back exactly.
type Words struct {
	cfg    challenge.Config
	target string
	input  textinput.Model
	done   bool
	passed bool
}

func newWords(cfg challenge.Config, words []string) *Words {
	lvl := level(cfg)
	capsPct := 0.0
	if lvl >= 2 {
		capsPct = 0.3
	}
	target := strings.Join(generator.New(cfg.Rand).Words(words, 2+lvl, capsPct), " ")
	return &Words{
		cfg:    cfg,
		target: target,
		input:  newAnswerInput("type the phrase", len(target)+8),
	}
}

func (w *Words) Init() tea.Cmd {
	return w.input.Focus()
}

func (w *Words) Update(msg tea.Msg) (challenge.Unit, tea.Cmd) {
	if w.done {
		return w, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter {
		w.done = true
		typed := strings.Join(strings.Fields(w.input.Value()), " ")
		w.passed = typed == w.target
		score := 0
		if w.passed {
			score = timeBonus(w.cfg.Clock, 100)
		}
		return w, w.cfg.OnComplete(w.passed, elapsedSeconds(w.cfg), score)
	}
	var cmd tea.Cmd
	w.input, cmd = w.input.Update(msg)
	return w, cmd
}

func (w *Words) View() string {
	lines := []string{
		promptStyle.Render("Type the phrase exactly"),
		"",
		boxStyle.Render(accentStyle.Render(w.target)),
		"",
		w.input.View(),
	}
	if w.done {
		lines = append(lines, verdict(w.passed))
	}
	return strings.Join(lines, "\n")
}
