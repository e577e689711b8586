package units

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/notabot/internal/challenge"
)

type question struct {
	prompt  string
	options []string
	answer  int
}

var questionBank = []question{
	{"Which of these would you find at a picnic?", []string{"A lighthouse", "A sandwich", "A submarine", "A glacier"}, 1},
	{"You drop a glass on a tiled floor. What most likely happens?", []string{"It bounces twice", "It breaks", "It floats", "It gets warmer"}, 1},
	{"Which one is not a color?", []string{"Teal", "Crimson", "Thursday", "Amber"}, 2},
	{"What do you usually do with an umbrella when it rains?", []string{"Open it", "Plant it", "Fold it into a hat", "Bake it"}, 0},
	{"Which is heaviest?", []string{"A feather", "A paperclip", "A bicycle", "A leaf"}, 2},
	{"Which animal says \"moo\"?", []string{"Cat", "Cow", "Owl", "Frog"}, 1},
	{"It is dark outside and the streetlights are on. What time is it likely?", []string{"Noon", "Night", "Breakfast", "Lunch"}, 1},
	{"Which would you use to cut paper?", []string{"Spoon", "Scissors", "Pillow", "Sponge"}, 1},
	{"Which word rhymes with \"cat\"?", []string{"Hat", "Dog", "Cup", "Sun"}, 0},
	{"What comes after Monday?", []string{"Sunday", "Friday", "Tuesday", "Monday"}, 2},
}

// Quiz asks common-sense multiple choice questions.
type Quiz struct {
	cfg       challenge.Config
	questions []question
	current   int
	cursor    int
	correct   int
	done      bool
}

func NewQuiz(cfg challenge.Config) challenge.Unit {
	count := 2 + level(cfg)
	if count > len(questionBank) {
		count = len(questionBank)
	}
	picked := make([]question, 0, count)
	for _, i := range cfg.Rand.Perm(len(questionBank))[:count] {
		picked = append(picked, questionBank[i])
	}
	return &Quiz{cfg: cfg, questions: picked}
}

func (q *Quiz) Init() tea.Cmd { return nil }

func (q *Quiz) Update(msg tea.Msg) (challenge.Unit, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if q.done || !ok {
		return q, nil
	}
	options := q.questions[q.current].options
	switch key.String() {
	case "up", "k":
		if q.cursor > 0 {
			q.cursor--
		}
		return q, nil
	case "down", "j":
		if q.cursor < len(options)-1 {
			q.cursor++
		}
		return q, nil
	case "1", "2", "3", "4":
		choice := int(key.String()[0] - '1')
		if choice >= len(options) {
			return q, nil
		}
		q.cursor = choice
		return q, q.answer()
	case "enter":
		return q, q.answer()
	}
	return q, nil
}

func (q *Quiz) answer() tea.Cmd {
	if q.cursor == q.questions[q.current].answer {
		q.correct++
	}
	q.current++
	q.cursor = 0
	if q.current < len(q.questions) {
		return nil
	}
	q.done = true
	// one miss is tolerated
	passed := q.correct >= len(q.questions)-1
	return q.cfg.OnComplete(passed, elapsedSeconds(q.cfg), ratio(q.correct, len(q.questions)))
}

func (q *Quiz) View() string {
	if q.done {
		return fmt.Sprintf("%s\n\n%d of %d correct", promptStyle.Render("Common sense"), q.correct, len(q.questions))
	}
	cur := q.questions[q.current]
	lines := []string{
		promptStyle.Render(cur.prompt),
		hintStyle.Render(fmt.Sprintf("question %d of %d", q.current+1, len(q.questions))),
		"",
	}
	for i, opt := range cur.options {
		marker := "  "
		line := fmt.Sprintf("%d. %s", i+1, opt)
		if i == q.cursor {
			marker = "> "
			line = accentStyle.Render(line)
		}
		lines = append(lines, marker+line)
	}
	lines = append(lines, "", hintStyle.Render("up/down: move  enter or 1-4: answer"))
	return strings.Join(lines, "\n")
}
