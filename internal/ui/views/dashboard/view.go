package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	storydto "odysseus/internal/modules/story/dto"
	apperrors "odysseus/internal/platform/errors"
	"odysseus/internal/ui/nav"
	"odysseus/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type Port interface {
	List(ctx context.Context, offline bool) (storydto.ListOutput, error)
	Delete(ctx context.Context, id string) error
}

// ─── messages ────────────────────────────────────────────────────────────────

type StoriesLoadedMsg struct {
	Out storydto.ListOutput
	Err error
}

type DeletedMsg struct {
	ID  string
	Err error
}

// LogoutRequestedMsg asks the root model to sign out.
type LogoutRequestedMsg struct{}

// ─── list item ───────────────────────────────────────────────────────────────

type storyItem struct {
	story storydto.StoryOutput
}

func (i storyItem) Title() string {
	if i.story.Title == "" {
		return "Untitled story"
	}
	return i.story.Title
}

func (i storyItem) Description() string {
	parts := []string{}
	if i.story.Genre != "" {
		parts = append(parts, i.story.Genre)
	}
	if i.story.Status != "" {
		parts = append(parts, i.story.Status)
	}
	if !i.story.UpdatedAt.IsZero() {
		parts = append(parts, i.story.UpdatedAt.Local().Format("2006-01-02 15:04"))
	} else if !i.story.CreatedAt.IsZero() {
		parts = append(parts, i.story.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return strings.Join(parts, " · ")
}

func (i storyItem) FilterValue() string { return i.story.Title + " " + i.story.Genre }

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port     Port
	list     list.Model
	spinner  spinner.Model
	loading  bool
	offline  bool
	syncNote string
	notice   string
	failure  string
	pending  string // story awaiting delete confirmation
	width    int
	height   int
}

func New(port Port) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Your stories"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{port: port, list: l, spinner: sp}
}

// Open reloads the story list from the backend.
func (m *Model) Open() tea.Cmd {
	m.offline = false
	m.notice = ""
	m.failure = ""
	m.pending = ""
	return m.reload()
}

// Filtering reports whether the list filter is taking keystrokes.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// SelectedID returns the highlighted story, if any.
func (m Model) SelectedID() (string, bool) {
	if item, ok := m.list.SelectedItem().(storyItem); ok {
		return item.story.ID, true
	}
	return "", false
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(m.width, m.listHeight())

	case StoriesLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			if apperrors.IsAuth(msg.Err) {
				return m, nav.Expired()
			}
			if !m.offline {
				// Fall back to the stories synced on the last successful load.
				m.offline = true
				m.failure = apperrors.UserMessage(msg.Err)
				cmd := m.reload()
				return m, cmd
			}
			m.failure = apperrors.UserMessage(msg.Err)
			return m, nil
		}
		m.syncNote = ""
		if msg.Out.Offline {
			m.syncNote = "offline copy"
			if !msg.Out.SyncedAt.IsZero() {
				m.syncNote += ", synced " + msg.Out.SyncedAt.Local().Format("2006-01-02 15:04")
			}
		} else {
			m.failure = ""
		}
		items := make([]list.Item, len(msg.Out.Stories))
		for i, s := range msg.Out.Stories {
			items[i] = storyItem{story: s}
		}
		cmds = append(cmds, m.list.SetItems(items))
		if len(items) == 0 {
			m.notice = "No stories yet. Press n to start one."
		}

	case DeletedMsg:
		if msg.Err != nil {
			if apperrors.IsAuth(msg.Err) {
				return m, nav.Expired()
			}
			m.failure = apperrors.UserMessage(msg.Err)
			return m, nil
		}
		m.notice = "Story deleted."
		cmd := m.reload()
		return m, cmd

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if m.pending != "" {
			id := m.pending
			m.pending = ""
			if msg.String() == "y" {
				m.notice = "Deleting…"
				return m, m.deleteCmd(id)
			}
			m.notice = ""
			return m, nil
		}
		if m.Filtering() || m.loading {
			break
		}
		switch msg.String() {
		case "n":
			return m, nav.Go(nav.Create, "")
		case "enter":
			if id, ok := m.SelectedID(); ok {
				return m, nav.Go(nav.Story, id)
			}
		case "c":
			if id, ok := m.SelectedID(); ok {
				return m, nav.Go(nav.Continue, id)
			}
		case "r":
			m.offline = false
			cmd := m.reload()
			return m, cmd
		case "o":
			m.offline = !m.offline
			cmd := m.reload()
			return m, cmd
		case "d":
			if item, ok := m.list.SelectedItem().(storyItem); ok {
				m.pending = item.story.ID
				m.notice = fmt.Sprintf("Delete %q? y to confirm", item.Title())
			}
			return m, nil
		case "x":
			return m, func() tea.Msg { return LogoutRequestedMsg{} }
		}
	}

	if !m.loading {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading stories…")
	}
	var footer []string
	if m.syncNote != "" {
		footer = append(footer, theme.Warning.Render(m.syncNote))
	}
	if m.failure != "" {
		footer = append(footer, theme.Error.Render(m.failure))
	}
	if m.notice != "" {
		footer = append(footer, theme.Hot.Render(m.notice))
	}
	footer = append(footer, theme.Muted.Render("enter: read  c: continue  n: new  d: delete  r: refresh  o: offline  x: log out"))
	return lipgloss.JoinVertical(lipgloss.Left, m.list.View(), strings.Join(footer, "\n"))
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m Model) listHeight() int {
	h := m.height - 4
	if h < 3 {
		h = 3
	}
	return h
}

func (m *Model) reload() tea.Cmd {
	m.loading = true
	port, offline := m.port, m.offline
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		out, err := port.List(context.Background(), offline)
		return StoriesLoadedMsg{Out: out, Err: err}
	})
}

func (m Model) deleteCmd(id string) tea.Cmd {
	port := m.port
	return func() tea.Msg {
		return DeletedMsg{ID: id, Err: port.Delete(context.Background(), id)}
	}
}
