package components

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeText(p Palette, text string) Palette {
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return p
}

func TestParseCommand(t *testing.T) {
	cases := map[string][2]string{
		"":                  {"", ""},
		"   ":               {"", ""},
		"dashboard":         {"dashboard", ""},
		"Story 42":          {"story", "42"},
		"continue abc more": {"continue", "abc"},
	}
	for input, want := range cases {
		name, arg := ParseCommand(input)
		assert.Equal(t, want, [2]string{name, arg}, input)
	}
}

func TestTabCompletesUniquePrefix(t *testing.T) {
	p := NewPalette()
	_ = p.Open()
	p = typeText(p, "co")
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "continue ", p.input.Value())

	p.input.SetValue("")
	p = typeText(p, "l")
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "l", p.input.Value(), "login and logout both match")
}

func TestEnterSubmitsAndCloses(t *testing.T) {
	p := NewPalette()
	_ = p.Open()
	p = typeText(p, "story 42")

	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, p.Visible())
	require.NotNil(t, cmd)
	assert.Equal(t, PaletteSubmitMsg{Name: "story", Arg: "42"}, cmd())
}

func TestEscAndEmptyInputSubmitNothing(t *testing.T) {
	p := NewPalette()
	_ = p.Open()
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, p.Visible())

	_ = p.Open()
	p, cmd = p.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.False(t, p.Visible())
	assert.Empty(t, p.View())
}
