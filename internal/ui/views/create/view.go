package create

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	storydto "odysseus/internal/modules/story/dto"
	apperrors "odysseus/internal/platform/errors"
	"odysseus/internal/ui/nav"
	"odysseus/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type Port interface {
	Create(ctx context.Context, input storydto.CreateInput) (storydto.CreatedOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type CreatedMsg struct {
	Out storydto.CreatedOutput
	Err error
}

type redirectMsg struct{ storyID string }

// ─── form layout ─────────────────────────────────────────────────────────────

const (
	toneMin = 0
	toneMax = 10
)

type textField struct {
	key         string
	label       string
	placeholder string
}

var textFields = []textField{
	{"genre", "Genre", "fantasy, sci-fi, noir…"},
	{"style", "Style", "cyberpunk, fairy tale, hardboiled…"},
	{"ending", "Ending", "happy, tragic, open…"},
	{"initial_input", "Story prompt", "A lighthouse keeper finds a door in the sea"},
}

var toneKeys = []string{"brutality", "emotion", "suspense", "humor", "romance", "intensity", "mystery"}

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port    Port
	delay   time.Duration
	inputs  []textinput.Model
	tones   []int
	focus   int // text fields, then tones, then the submit button
	errs    map[string]string
	failure string
	created *storydto.CreatedOutput
	busy    bool
	spinner spinner.Model
	width   int
	height  int
}

// New builds the form. delay is how long the success notice stays before
// the story opens.
func New(port Port, delay time.Duration) Model {
	inputs := make([]textinput.Model, len(textFields))
	for i, f := range textFields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = f.placeholder
		ti.CharLimit = 500
		ti.Width = 56
		inputs[i] = ti
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	m := Model{port: port, delay: delay, inputs: inputs, spinner: sp}
	m.reset()
	return m
}

// Open shows an empty form with every slider at its midpoint.
func (m *Model) Open() tea.Cmd {
	m.reset()
	return m.setFocus(0)
}

func (m Model) Typing() bool { return m.focus < len(m.inputs) }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case CreatedMsg:
		m.busy = false
		if msg.Err != nil {
			if apperrors.IsAuth(msg.Err) {
				return m, nav.Expired()
			}
			m.showError(msg.Err)
			return m, nil
		}
		out := msg.Out
		m.created = &out
		id := out.StoryID
		return m, tea.Tick(m.delay, func(time.Time) tea.Msg { return redirectMsg{storyID: id} })

	case redirectMsg:
		if m.created == nil || m.created.StoryID != msg.storyID {
			return m, nil
		}
		return m, nav.Go(nav.Story, msg.storyID)

	case spinner.TickMsg:
		if m.busy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if m.created != nil {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down":
			cmd := m.setFocus((m.focus + 1) % m.slots())
			return m, cmd
		case "shift+tab", "up":
			cmd := m.setFocus((m.focus + m.slots() - 1) % m.slots())
			return m, cmd
		case "ctrl+s":
			return m.submit()
		case "enter":
			if m.focus == m.slots()-1 {
				return m.submit()
			}
			cmd := m.setFocus(m.focus + 1)
			return m, cmd
		case "esc":
			return m, nav.Go(nav.Dashboard, "")
		case "left", "right":
			if t := m.toneIndex(); t >= 0 {
				if msg.String() == "left" && m.tones[t] > toneMin {
					m.tones[t]--
				}
				if msg.String() == "right" && m.tones[t] < toneMax {
					m.tones[t]++
				}
				return m, nil
			}
		}
	}

	if m.focus < len(m.inputs) {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("New story") + "\n\n")

	if m.created != nil {
		sb.WriteString(theme.Success.Render("Story created!") + "\n\n")
		title := m.created.Title
		if title == "" {
			title = "Untitled story"
		}
		sb.WriteString(theme.Hot.Render(title) + "\n")
		sb.WriteString(theme.Muted.Render("Opening your story…"))
		return m.frame(sb.String())
	}

	for i, f := range textFields {
		sb.WriteString(m.label(i, f.label) + "\n" + m.inputs[i].View() + "\n")
		sb.WriteString(m.fieldError(f.key))
	}
	sb.WriteString("\n" + theme.Title.Render("Tone") + "\n")
	for t, key := range toneKeys {
		slot := len(m.inputs) + t
		name := strings.ToUpper(key[:1]) + key[1:]
		bar := strings.Repeat("█", m.tones[t]) + strings.Repeat("░", toneMax-m.tones[t])
		label := lipgloss.NewStyle().Width(22).Render(m.label(slot, name))
		sb.WriteString(fmt.Sprintf("%s %s %2d\n", label, bar, m.tones[t]))
		sb.WriteString(m.fieldError(key))
	}

	button := theme.Muted.Render("[ Create story ]")
	if m.focus == m.slots()-1 {
		button = theme.Hot.Render("[ Create story ]")
	}
	sb.WriteString("\n" + button + "\n\n")

	if m.failure != "" {
		sb.WriteString(theme.Error.Render(m.failure) + "\n\n")
	}
	if m.busy {
		sb.WriteString(m.spinner.View() + " Writing the first part…\n\n")
	}
	sb.WriteString(theme.Muted.Render("tab: next  ←/→: adjust tone  ctrl+s: create  esc: back"))
	return m.frame(sb.String())
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) reset() {
	m.tones = make([]int, len(toneKeys))
	defaults := storydto.NewCreateInput()
	for i, v := range []int{defaults.Brutality, defaults.Emotion, defaults.Suspense, defaults.Humor, defaults.Romance, defaults.Intensity, defaults.Mystery} {
		m.tones[i] = v
	}
	for i := range m.inputs {
		m.inputs[i].SetValue("")
	}
	m.errs = map[string]string{}
	m.failure = ""
	m.created = nil
	m.busy = false
	m.focus = 0
}

func (m Model) slots() int { return len(m.inputs) + len(toneKeys) + 1 }

// toneIndex returns the focused slider, or -1.
func (m Model) toneIndex() int {
	t := m.focus - len(m.inputs)
	if t < 0 || t >= len(toneKeys) {
		return -1
	}
	return t
}

func (m *Model) setFocus(slot int) tea.Cmd {
	m.focus = slot
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	if slot < len(m.inputs) {
		return m.inputs[slot].Focus()
	}
	return nil
}

func (m Model) label(slot int, text string) string {
	if slot == m.focus {
		return theme.Hot.Render("› " + text)
	}
	return theme.Label.Render("  " + text)
}

func (m Model) fieldError(key string) string {
	if msg := m.errs[key]; msg != "" {
		return theme.Error.Render("  "+msg) + "\n"
	}
	return ""
}

func (m Model) frame(body string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Top,
		theme.PaneActive.Width(72).Render(body))
}

func (m *Model) showError(err error) {
	m.errs = map[string]string{}
	m.failure = ""
	var verr *apperrors.ValidationError
	if errors.As(err, &verr) {
		for _, fe := range verr.Fields {
			if _, seen := m.errs[fe.Field]; !seen {
				m.errs[fe.Field] = fe.Message
			}
		}
		if len(m.errs) > 0 {
			return
		}
	}
	m.failure = apperrors.UserMessage(err)
}

func (m Model) input() storydto.CreateInput {
	return storydto.CreateInput{
		Genre:        m.inputs[0].Value(),
		Style:        m.inputs[1].Value(),
		Ending:       m.inputs[2].Value(),
		InitialInput: m.inputs[3].Value(),
		Brutality:    m.tones[0],
		Emotion:      m.tones[1],
		Suspense:     m.tones[2],
		Humor:        m.tones[3],
		Romance:      m.tones[4],
		Intensity:    m.tones[5],
		Mystery:      m.tones[6],
	}
}

func (m Model) submit() (Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	m.busy = true
	m.errs = map[string]string{}
	m.failure = ""
	port, input := m.port, m.input()
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		out, err := port.Create(context.Background(), input)
		return CreatedMsg{Out: out, Err: err}
	})
}
