package tui

import "github.com/charmbracelet/bubbles/key"

type startKeyMap struct {
	Begin key.Binding
	Quit  key.Binding
}

func (k startKeyMap) ShortHelp() []key.Binding  { return []key.Binding{k.Begin, k.Quit} }
func (k startKeyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

type debugKeyMap struct {
	Skip  key.Binding
	Back  key.Binding
	Reset key.Binding
	Quit  key.Binding
}

func (k debugKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Skip, k.Back, k.Reset, k.Quit}
}
func (k debugKeyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

type resultKeyMap struct {
	Again key.Binding
	Quit  key.Binding
}

func (k resultKeyMap) ShortHelp() []key.Binding  { return []key.Binding{k.Again, k.Quit} }
func (k resultKeyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

var (
	startKeys = startKeyMap{
		Begin: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "begin")),
		Quit:  key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q", "quit")),
	}
	// Debug keys use ctrl chords so they never collide with unit input.
	debugKeys = debugKeyMap{
		Skip:  key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "skip")),
		Back:  key.NewBinding(key.WithKeys("ctrl+b"), key.WithHelp("ctrl+b", "back")),
		Reset: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reset")),
		Quit:  key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
	resultKeys = resultKeyMap{
		Again: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "play again")),
		Quit:  key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q", "quit")),
	}
)
