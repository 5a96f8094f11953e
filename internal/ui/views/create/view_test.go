package create

import (
	"context"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storydto "odysseus/internal/modules/story/dto"
	apperrors "odysseus/internal/platform/errors"
	"odysseus/internal/ui/nav"
)

type fakePort struct {
	inputs []storydto.CreateInput
	out    storydto.CreatedOutput
	err    error
}

func (f *fakePort) Create(_ context.Context, input storydto.CreateInput) (storydto.CreatedOutput, error) {
	f.inputs = append(f.inputs, input)
	return f.out, f.err
}

func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case nil, spinner.TickMsg:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, run(c)...)
		}
		return out
	default:
		return []tea.Msg{msg}
	}
}

func filled(port Port) Model {
	m := New(port, 0)
	_ = m.Open()
	for i, v := range []string{"fantasy", "fairy tale", "happy", "A door in the sea"} {
		m.inputs[i].SetValue(v)
	}
	return m
}

func TestTonesClampToRange(t *testing.T) {
	m := New(&fakePort{}, 0)
	_ = m.setFocus(len(m.inputs))

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 6, m.tones[0])
	for i := 0; i < 10; i++ {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	}
	assert.Equal(t, toneMax, m.tones[0])
	for i := 0; i < 20; i++ {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	}
	assert.Equal(t, toneMin, m.tones[0])
	assert.Equal(t, 5, m.tones[1])
}

func TestSubmitThenRedirectToStory(t *testing.T) {
	port := &fakePort{out: storydto.CreatedOutput{StoryID: "abc", Title: "The Door"}}
	m := filled(port)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.True(t, m.busy)
	m, again := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, again)

	msgs := run(cmd)
	require.Len(t, msgs, 1)
	require.Len(t, port.inputs, 1)
	assert.Equal(t, "fantasy", port.inputs[0].Genre)
	assert.Equal(t, "A door in the sea", port.inputs[0].InitialInput)
	assert.Equal(t, 5, port.inputs[0].Mystery)

	m, tick := m.Update(msgs[0])
	assert.Contains(t, m.View(), "Story created!")
	redirect := run(tick)
	require.Len(t, redirect, 1)
	_, cmd = m.Update(redirect[0])
	assert.Equal(t, []tea.Msg{nav.GoMsg{To: nav.Story, StoryID: "abc"}}, run(cmd))
}

func TestValidationErrorsStayOnFields(t *testing.T) {
	verr := &apperrors.ValidationError{}
	verr.Add("genre", "Genre is required")
	verr.Add("brutality", "Brutality must be between 0 and 10")
	m := filled(&fakePort{})

	m, cmd := m.Update(CreatedMsg{Err: verr})
	assert.Nil(t, cmd)
	assert.Equal(t, "Genre is required", m.errs["genre"])
	assert.Equal(t, "Brutality must be between 0 and 10", m.errs["brutality"])
	assert.Empty(t, m.failure)
	assert.Equal(t, "fantasy", m.inputs[0].Value())
}

func TestGenericFailureKeepsForm(t *testing.T) {
	m := filled(&fakePort{})
	m, _ = m.Update(CreatedMsg{Err: apperrors.ErrRequestFailed})
	assert.NotEmpty(t, m.failure)
	assert.False(t, m.busy)
	assert.Equal(t, "happy", m.inputs[2].Value())
}

func TestExpiredSessionLeavesForm(t *testing.T) {
	m := filled(&fakePort{})
	_, cmd := m.Update(CreatedMsg{Err: apperrors.ErrUnauthenticated})
	assert.Equal(t, []tea.Msg{nav.ExpiredMsg{}}, run(cmd))
}
