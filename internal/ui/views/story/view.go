package story

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	storydto "odysseus/internal/modules/story/dto"
	apperrors "odysseus/internal/platform/errors"
	"odysseus/internal/ui/nav"
	"odysseus/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type Port interface {
	Get(ctx context.Context, id string) (storydto.StoryOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type LoadedMsg struct {
	StoryID string
	Story   storydto.StoryOutput
	Err     error
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model shows one story's text rendered as Markdown.
type Model struct {
	port     Port
	storyID  string
	story    storydto.StoryOutput
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	loading  bool
	failure  string
	width    int
	height   int
}

func New(port Port) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	r, _ := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(0),
	)

	return Model{port: port, viewport: viewport.New(0, 0), spinner: sp, renderer: r}
}

// Open loads storyID; empty means the remembered current story.
func (m *Model) Open(storyID string) tea.Cmd {
	m.storyID = storyID
	m.story = storydto.StoryOutput{}
	m.failure = ""
	m.loading = true
	m.viewport.SetContent("")
	return tea.Batch(m.spinner.Tick, m.loadCmd(storyID))
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		if m.story.ID != "" {
			m.viewport.SetContent(m.renderContent())
		}

	case LoadedMsg:
		if msg.StoryID != m.storyID {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			if apperrors.IsAuth(msg.Err) {
				return m, nav.Expired()
			}
			m.failure = apperrors.UserMessage(msg.Err)
			return m, nil
		}
		m.story = msg.Story
		m.viewport.SetContent(m.renderContent())
		m.viewport.GotoTop()

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "b":
			return m, nav.Go(nav.Dashboard, "")
		case "c":
			if m.story.ID != "" && !m.story.Terminal {
				return m, nav.Go(nav.Continue, m.story.ID)
			}
		case "r":
			cmd := m.Open(m.storyID)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading story…")
	}
	if m.failure != "" {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			theme.Error.Render(m.failure)+"\n\n"+theme.Muted.Render("r: retry  esc: back"))
	}
	hints := "↑/↓: scroll  c: continue  r: reload  esc: back"
	if m.story.Terminal {
		hints = "↑/↓: scroll  r: reload  esc: back  (this story has ended)"
	}
	footer := theme.Muted.Render(fmt.Sprintf("%3.0f%%  %s", m.viewport.ScrollPercent()*100, hints))
	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footer)
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) resize() {
	m.viewport.Width = m.width
	m.viewport.Height = m.height - 1
	if m.viewport.Height < 1 {
		m.viewport.Height = 1
	}
	if r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(m.width-4),
	); err == nil {
		m.renderer = r
	}
}

func (m Model) renderContent() string {
	return Render(m.renderer, m.story.Title, m.story.Genre, m.story.Status, m.story.Plot)
}

// Render formats a story as Markdown and runs it through r when available.
func Render(r *glamour.TermRenderer, title, genre, status, plot string) string {
	var sb strings.Builder
	if title == "" {
		title = "Untitled story"
	}
	sb.WriteString("# " + title + "\n\n")
	var meta []string
	if genre != "" {
		meta = append(meta, genre)
	}
	if status != "" {
		meta = append(meta, status)
	}
	if len(meta) > 0 {
		sb.WriteString("*" + strings.Join(meta, " · ") + "*\n\n")
	}
	if strings.TrimSpace(plot) == "" {
		sb.WriteString("_Nothing written yet._\n")
	} else {
		sb.WriteString(plot + "\n")
	}
	if r != nil {
		if rendered, err := r.Render(sb.String()); err == nil {
			return rendered
		}
	}
	return sb.String()
}

func (m Model) loadCmd(storyID string) tea.Cmd {
	port := m.port
	return func() tea.Msg {
		s, err := port.Get(context.Background(), storyID)
		return LoadedMsg{StoryID: storyID, Story: s, Err: err}
	}
}
