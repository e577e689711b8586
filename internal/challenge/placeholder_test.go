package challenge

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceholderIgnoresInput(t *testing.T) {
	p := NewPlaceholder(12, errors.New("unit kind \"pong\" is not registered"))
	next, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Same(t, p, next)
	assert.Nil(t, cmd)
	assert.Contains(t, p.View(), "#12")
	assert.Contains(t, p.View(), "pong")
}

func TestStaticLoader(t *testing.T) {
	called := false
	f := Factory(func(Config) Unit {
		called = true
		return &Loading{}
	})
	got, err := Static(f)(context.Background())
	require.NoError(t, err)
	got(Config{})
	assert.True(t, called)
}
