package continuation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	progressiondto "odysseus/internal/modules/progression/dto"
	storydto "odysseus/internal/modules/story/dto"
	apperrors "odysseus/internal/platform/errors"
	"odysseus/internal/ui/nav"
	"odysseus/internal/ui/theme"
	storyview "odysseus/internal/ui/views/story"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type Port interface {
	Enter(ctx context.Context, storyID, status string) (progressiondto.Snapshot, error)
	FetchOptions(ctx context.Context) (progressiondto.Snapshot, error)
	Choose(ctx context.Context, choice int) (progressiondto.Snapshot, error)
	Retry(ctx context.Context) (progressiondto.Snapshot, error)
	Leave(ctx context.Context)
}

type StoryPort interface {
	Get(ctx context.Context, id string) (storydto.StoryOutput, error)
	Share(ctx context.Context, id string) (storydto.ShareOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

// Seq on both messages is the request they answer; the view drops any reply
// that is not for its latest request.
type EnteredMsg struct {
	Seq   int
	Story storydto.StoryOutput
	Snap  progressiondto.Snapshot
	Err   error
}

// SnapshotMsg carries the flow state after a fetch, choice or retry.
type SnapshotMsg struct {
	Seq  int
	Snap progressiondto.Snapshot
	Err  error
}

// SharedMsg reports the share text and whether it reached the clipboard.
type SharedMsg struct {
	Share  storydto.ShareOutput
	Copied bool
	Err    error
}

// entryGuard orders flow entry against later opens and closes. Only the
// latest generation may enter.
type entryGuard struct {
	mu  sync.Mutex
	gen int
}

func (g *entryGuard) bump() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
	return g.gen
}

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port     Port
	stories  StoryPort
	story    storydto.StoryOutput
	plot     []string
	snap     progressiondto.Snapshot
	notice   string
	failure  string
	opening  bool
	waiting  string // "options", "choice" or "retry" while a request is out
	choice   int
	seq      int
	guard    *entryGuard
	clip     func(string) error
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	width    int
	height   int
}

func New(port Port, stories StoryPort) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	r, _ := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(0),
	)
	return Model{port: port, stories: stories, guard: &entryGuard{}, clip: clipboard.WriteAll, viewport: viewport.New(0, 0), spinner: sp, renderer: r}
}

// Open loads the story and enters its continuation flow, then fetches the
// first set of options.
func (m *Model) Open(storyID string) tea.Cmd {
	m.story = storydto.StoryOutput{}
	m.plot = nil
	m.snap = progressiondto.Snapshot{}
	m.notice = ""
	m.failure = ""
	m.opening = true
	m.waiting = ""
	m.viewport.SetContent("")
	m.seq++
	seq, gen := m.seq, m.guard.bump()
	port, stories, guard := m.port, m.stories, m.guard
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx := context.Background()
		s, err := stories.Get(ctx, storyID)
		if err != nil {
			return EnteredMsg{Seq: seq, Err: err}
		}
		guard.mu.Lock()
		defer guard.mu.Unlock()
		if guard.gen != gen {
			return EnteredMsg{Seq: seq, Err: apperrors.ErrStale}
		}
		snap, err := port.Enter(ctx, s.ID, s.Status)
		return EnteredMsg{Seq: seq, Story: s, Snap: snap, Err: err}
	})
}

// Close leaves the flow. Replies to requests made before Close are dropped,
// and an entry still being prepared never happens.
func (m *Model) Close() {
	m.seq++
	m.opening = false
	m.waiting = ""
	m.guard.mu.Lock()
	defer m.guard.mu.Unlock()
	m.guard.gen++
	m.port.Leave(context.Background())
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.refresh()
		return m, nil

	case EnteredMsg:
		if msg.Seq != m.seq {
			return m, nil
		}
		m.opening = false
		if msg.Err != nil {
			return m.fail(msg.Err)
		}
		m.story = msg.Story
		m.plot = []string{msg.Story.Plot}
		m.snap = msg.Snap
		m.refresh()
		if m.snap.Ended {
			return m, nil
		}
		cmd := m.startFetch()
		return m, cmd

	case SnapshotMsg:
		if msg.Seq != m.seq {
			return m, nil
		}
		if msg.Err != nil && errors.Is(msg.Err, apperrors.ErrStale) {
			m.waiting = ""
			return m, nil
		}
		if m.waiting == "choice" && msg.Err == nil && msg.Snap.Segment != "" {
			m.plot = append(m.plot, msg.Snap.Segment)
		}
		m.waiting = ""
		m.notice = ""
		m.snap = msg.Snap
		m.refresh()
		if msg.Err != nil {
			return m.fail(msg.Err)
		}
		m.failure = ""
		return m, nil

	case SharedMsg:
		switch {
		case msg.Err != nil:
			return m.fail(msg.Err)
		case msg.Copied:
			m.notice = "Link copied to clipboard!"
		default:
			m.notice = msg.Share.Text
		}
		return m, nil

	case spinner.TickMsg:
		if m.opening || m.waiting != "" {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "esc", "b":
			return m, nav.Go(nav.Dashboard, "")
		case "s":
			return m, nav.Go(nav.Story, m.story.ID)
		case "y":
			if m.story.ID != "" {
				return m, m.share()
			}
		}
		if m.opening || m.waiting != "" {
			break
		}
		switch key {
		case "n":
			if m.snap.Phase == "segment_ready" || m.snap.Phase == "idle" {
				cmd := m.startFetch()
				return m, cmd
			}
		case "r":
			if m.snap.Retryable {
				cmd := m.startRetry()
				return m, cmd
			}
			if m.snap.Phase == "options_ready" && len(m.snap.Options) == 0 {
				cmd := m.startFetch()
				return m, cmd
			}
		}
		if n, err := strconv.Atoi(key); err == nil && len(key) == 1 {
			cmd := m.startChoose(n)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.opening {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Opening story…")
	}
	panel := m.renderPanel()
	vp := m.viewport
	vp.Height = m.height - lipgloss.Height(panel)
	if vp.Height < 1 {
		vp.Height = 1
	}
	return lipgloss.JoinVertical(lipgloss.Left, vp.View(), panel)
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) resize() {
	m.viewport.Width = m.width
	m.viewport.Height = m.height / 2
	if r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(m.width-4),
	); err == nil {
		m.renderer = r
	}
}

func (m *Model) refresh() {
	if m.story.ID == "" {
		return
	}
	status := m.snap.Status
	if status == "" {
		status = m.story.Status
	}
	body := strings.Join(m.plot, "\n\n")
	m.viewport.SetContent(storyview.Render(m.renderer, m.story.Title, m.story.Genre, status, body))
	m.viewport.GotoBottom()
}

func (m Model) fail(err error) (Model, tea.Cmd) {
	if apperrors.IsAuth(err) {
		return m, nav.Expired()
	}
	var verr *apperrors.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, apperrors.ErrBusy), errors.Is(err, apperrors.ErrStoryEnded):
		m.notice = apperrors.UserMessage(err)
	default:
		m.failure = apperrors.UserMessage(err)
	}
	return m, nil
}

func (m Model) renderPanel() string {
	var sb strings.Builder
	s := m.snap
	switch {
	case s.Ended:
		sb.WriteString(theme.Success.Render("The End.") + "\n")
	case m.waiting == "choice":
		sb.WriteString(m.spinner.View() + fmt.Sprintf(" Writing what happens after choice %d…", m.choice) + "\n")
	case m.waiting != "":
		sb.WriteString(m.spinner.View() + " Imagining what could happen next…\n")
	case len(s.Options) > 0:
		sb.WriteString(theme.Title.Render("What happens next?") + "\n")
		for i, option := range s.Options {
			sb.WriteString(theme.Hot.Render(fmt.Sprintf("%d.", i+1)) + " " + option + "\n")
		}
	case s.Phase == "segment_ready":
		sb.WriteString(theme.Muted.Render("Press n to continue the story.") + "\n")
	}
	if s.Warning != "" {
		sb.WriteString(theme.Warning.Render(s.Warning) + "\n")
	}
	if m.notice != "" {
		sb.WriteString(theme.Warning.Render(m.notice) + "\n")
	}
	if m.failure != "" {
		sb.WriteString(theme.Error.Render(m.failure) + "\n")
	}
	hints := []string{}
	if len(s.Options) > 0 && m.waiting == "" && !s.Ended {
		hints = append(hints, fmt.Sprintf("1-%d: choose", min(len(s.Options), 9)))
	}
	if s.Retryable || (s.Phase == "options_ready" && len(s.Options) == 0) {
		hints = append(hints, "r: retry")
	}
	hints = append(hints, "↑/↓: scroll", "s: full story", "y: share", "esc: back")
	sb.WriteString(theme.Muted.Render(strings.Join(hints, "  ")))
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Surface1).
		Width(m.width - 2).
		Render(sb.String())
}

func (m *Model) startFetch() tea.Cmd {
	m.waiting = "options"
	m.seq++
	port, seq := m.port, m.seq
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		snap, err := port.FetchOptions(context.Background())
		return SnapshotMsg{Seq: seq, Snap: snap, Err: err}
	})
}

func (m *Model) startChoose(choice int) tea.Cmd {
	m.waiting = "choice"
	m.choice = choice
	m.seq++
	port, seq := m.port, m.seq
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		snap, err := port.Choose(context.Background(), choice)
		return SnapshotMsg{Seq: seq, Snap: snap, Err: err}
	})
}

func (m *Model) startRetry() tea.Cmd {
	m.waiting = "retry"
	m.seq++
	port, seq := m.port, m.seq
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		snap, err := port.Retry(context.Background())
		return SnapshotMsg{Seq: seq, Snap: snap, Err: err}
	})
}

// share copies the invitation for the open story. When no clipboard is
// available the text is shown instead.
func (m Model) share() tea.Cmd {
	stories, copyText, id := m.stories, m.clip, m.story.ID
	return func() tea.Msg {
		out, err := stories.Share(context.Background(), id)
		if err != nil {
			return SharedMsg{Err: err}
		}
		return SharedMsg{Share: out, Copied: copyText(out.Text) == nil}
	}
}
