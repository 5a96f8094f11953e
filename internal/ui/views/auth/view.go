package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	authdto "odysseus/internal/modules/auth/dto"
	apperrors "odysseus/internal/platform/errors"
	"odysseus/internal/ui/nav"
	"odysseus/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type Port interface {
	Login(ctx context.Context, email, password string) (authdto.UserOutput, error)
	Signup(ctx context.Context, name, email, password, confirm string) (authdto.SignupOutput, error)
	GoogleLoginURL() string
}

// ─── messages ────────────────────────────────────────────────────────────────

type LoggedInMsg struct {
	User authdto.UserOutput
	Err  error
}

type SignedUpMsg struct {
	Out authdto.SignupOutput
	Err error
}

// ─── fields ──────────────────────────────────────────────────────────────────

type mode int

const (
	modeLogin mode = iota
	modeSignup
)

type field int

const (
	fieldName field = iota
	fieldEmail
	fieldPassword
	fieldConfirm
	fieldCount
)

// keys match the field names the validators report.
var fieldKeys = [fieldCount]string{"name", "email", "password", "confirmPassword"}

var fieldLabels = [fieldCount]string{"Name", "Email", "Password", "Confirm password"}

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port    Port
	mode    mode
	inputs  [fieldCount]textinput.Model
	focus   field
	errs    map[string]string
	notice  string
	failure string
	busy    bool
	spinner spinner.Model
	width   int
	height  int
}

func New(port Port) Model {
	var inputs [fieldCount]textinput.Model
	for i := range inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 128
		ti.Width = 40
		ti.Placeholder = strings.ToLower(fieldLabels[i])
		if field(i) == fieldPassword || field(i) == fieldConfirm {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		inputs[i] = ti
	}
	inputs[fieldEmail].Placeholder = "you@example.com"

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{port: port, inputs: inputs, spinner: sp, errs: map[string]string{}}
}

// Open resets the form to login. reason is shown above the form.
func (m *Model) Open(reason string) tea.Cmd {
	m.mode = modeLogin
	m.errs = map[string]string{}
	m.failure = ""
	m.notice = reason
	m.busy = false
	m.inputs[fieldPassword].SetValue("")
	m.inputs[fieldConfirm].SetValue("")
	return m.setFocus(fieldEmail)
}

// Typing is always true: every key may belong to a text field.
func (m Model) Typing() bool { return true }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case LoggedInMsg:
		m.busy = false
		if msg.Err != nil {
			m.showError(msg.Err)
			return m, nil
		}
		m.inputs[fieldPassword].SetValue("")
		return m, func() tea.Msg { return nav.SignedInMsg{Name: msg.User.Name} }

	case SignedUpMsg:
		m.busy = false
		if msg.Err != nil {
			m.showError(msg.Err)
			return m, nil
		}
		m.mode = modeLogin
		m.notice = msg.Out.Message
		m.inputs[fieldPassword].SetValue("")
		m.inputs[fieldConfirm].SetValue("")
		cmd := m.setFocus(fieldPassword)
		return m, cmd

	case spinner.TickMsg:
		if m.busy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "down":
			cmd := m.setFocus(m.step(1))
			return m, cmd
		case "shift+tab", "up":
			cmd := m.setFocus(m.step(-1))
			return m, cmd
		case "ctrl+t":
			if m.mode == modeLogin {
				m.mode = modeSignup
				m.notice = ""
				cmd := m.setFocus(fieldName)
				return m, cmd
			}
			m.mode = modeLogin
			cmd := m.setFocus(fieldEmail)
			return m, cmd
		case "ctrl+g":
			m.notice = "Open " + m.port.GoogleLoginURL() + " or run `odysseus auth google`."
			return m, nil
		case "enter":
			fields := m.fields()
			if m.focus != fields[len(fields)-1] {
				cmd := m.setFocus(m.step(1))
				return m, cmd
			}
			return m.submit()
		case "esc":
			return m, nav.Go(nav.Welcome, "")
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var sb strings.Builder
	title := "Log in"
	toggle := "ctrl+t: create an account"
	if m.mode == modeSignup {
		title = "Sign up"
		toggle = "ctrl+t: back to log in"
	}
	sb.WriteString(theme.Title.Render(title) + "\n\n")
	if m.notice != "" {
		sb.WriteString(theme.Warning.Render(m.notice) + "\n\n")
	}
	for _, f := range m.fields() {
		label := theme.Label.Render(fieldLabels[f])
		if f == m.focus {
			label = theme.Hot.Render("› " + fieldLabels[f])
		}
		sb.WriteString(label + "\n" + m.inputs[f].View() + "\n")
		if msg := m.errs[fieldKeys[f]]; msg != "" {
			sb.WriteString(theme.Error.Render(msg) + "\n")
		}
		sb.WriteString("\n")
	}
	if m.failure != "" {
		sb.WriteString(theme.Error.Render(m.failure) + "\n\n")
	}
	if m.busy {
		sb.WriteString(m.spinner.View() + " Contacting server…\n\n")
	}
	sb.WriteString(theme.Muted.Render("enter: submit  " + toggle + "  ctrl+g: Google  esc: back"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		theme.PaneActive.Width(52).Render(sb.String()))
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m Model) fields() []field {
	if m.mode == modeSignup {
		return []field{fieldName, fieldEmail, fieldPassword, fieldConfirm}
	}
	return []field{fieldEmail, fieldPassword}
}

func (m Model) step(delta int) field {
	fields := m.fields()
	idx := 0
	for i, f := range fields {
		if f == m.focus {
			idx = i
		}
	}
	idx = (idx + delta + len(fields)) % len(fields)
	return fields[idx]
}

func (m *Model) setFocus(f field) tea.Cmd {
	m.focus = f
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	return m.inputs[f].Focus()
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
		return
	}
	m.failure = apperrors.UserMessage(err)
}

func (m Model) submit() (Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	m.busy = true
	m.errs = map[string]string{}
	m.failure = ""
	m.notice = ""
	port := m.port
	email := m.inputs[fieldEmail].Value()
	password := m.inputs[fieldPassword].Value()
	if m.mode == modeLogin {
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			user, err := port.Login(context.Background(), email, password)
			return LoggedInMsg{User: user, Err: err}
		})
	}
	name := m.inputs[fieldName].Value()
	confirm := m.inputs[fieldConfirm].Value()
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		out, err := port.Signup(context.Background(), name, email, password, confirm)
		return SignedUpMsg{Out: out, Err: err}
	})
}
