package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	authdto "odysseus/internal/modules/auth/dto"
	progressiondto "odysseus/internal/modules/progression/dto"
	sessiondto "odysseus/internal/modules/session/dto"
	storydto "odysseus/internal/modules/story/dto"
	"odysseus/internal/platform/logging"
	"odysseus/internal/ui/components"
	"odysseus/internal/ui/nav"
	"odysseus/internal/ui/theme"
	authview "odysseus/internal/ui/views/auth"
	continueview "odysseus/internal/ui/views/continuation"
	createview "odysseus/internal/ui/views/create"
	dashboardview "odysseus/internal/ui/views/dashboard"
	storyview "odysseus/internal/ui/views/story"
	welcomeview "odysseus/internal/ui/views/welcome"
)

// ─── ports ───────────────────────────────────────────────────────────────────
// Each port is the minimal interface that this orchestration layer requires.
// View ports are defined in their own packages and narrowed further.

type AuthPort interface {
	Check(ctx context.Context) authdto.GateResult
	Login(ctx context.Context, email, password string) (authdto.UserOutput, error)
	Signup(ctx context.Context, name, email, password, confirm string) (authdto.SignupOutput, error)
	Logout(ctx context.Context) error
	GoogleLoginURL() string
}

type SessionPort interface {
	Current(ctx context.Context) sessiondto.SessionOutput
	SetCurrentStory(ctx context.Context, storyID string) error
	RememberView(ctx context.Context, view string) error
	TakeRememberedView(ctx context.Context) string
}

type StoryPort interface {
	Create(ctx context.Context, input storydto.CreateInput) (storydto.CreatedOutput, error)
	List(ctx context.Context, offline bool) (storydto.ListOutput, error)
	Get(ctx context.Context, id string) (storydto.StoryOutput, error)
	Delete(ctx context.Context, id string) error
	Share(ctx context.Context, id string) (storydto.ShareOutput, error)
}

type ProgressionPort interface {
	Enter(ctx context.Context, storyID, status string) (progressiondto.Snapshot, error)
	FetchOptions(ctx context.Context) (progressiondto.Snapshot, error)
	Choose(ctx context.Context, choice int) (progressiondto.Snapshot, error)
	Retry(ctx context.Context) (progressiondto.Snapshot, error)
	Leave(ctx context.Context)
}

type Ports struct {
	Auth        AuthPort
	Session     SessionPort
	Story       StoryPort
	Progression ProgressionPort
}

type Options struct {
	// CreatedRedirectDelay is how long "story created" shows before the
	// story opens.
	CreatedRedirectDelay time.Duration
	Logger               *zap.Logger
}

// ─── async messages ──────────────────────────────────────────────────────────

type startMsg struct{ signedIn bool }

// gateMsg settles a guarded navigation. Only the latest seq is honoured.
type gateMsg struct {
	seq     int
	to      nav.View
	storyID string
	result  authdto.GateResult
}

// ─── key bindings ────────────────────────────────────────────────────────────

type keyMap struct {
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
	Home    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "go to")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Home:    key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "dashboard")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Palette, k.Home, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Palette, k.Home}, {k.Help, k.Quit}}
}

var viewTitles = map[nav.View]string{
	nav.Welcome:   "Welcome",
	nav.Auth:      "Account",
	nav.Dashboard: "Stories",
	nav.Create:    "New story",
	nav.Story:     "Reading",
	nav.Continue:  "Continue",
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It owns routing, the session gate, the
// help overlay and the palette; views own everything else.
type Model struct {
	auth        AuthPort
	session     SessionPort
	progression ProgressionPort
	logger      *zap.Logger

	welcomeView   welcomeview.Model
	authView      authview.Model
	dashboardView dashboardview.Model
	createView    createview.Model
	storyView     storyview.Model
	continueView  continueview.Model

	current  nav.View
	seq      int
	checking bool
	user     string
	crashed  bool

	keys     keyMap
	help     help.Model
	showHelp bool
	palette  components.Palette
	spinner  spinner.Model
	status   string
	width    int
	height   int
}

func NewModel(ports Ports, opts Options) Model {
	delay := opts.CreatedRedirectDelay
	if delay <= 0 {
		delay = 1500 * time.Millisecond
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{
		auth:          ports.Auth,
		session:       ports.Session,
		progression:   ports.Progression,
		logger:        logging.OrNop(opts.Logger).Named("ui"),
		welcomeView:   welcomeview.New(),
		authView:      authview.New(ports.Auth),
		dashboardView: dashboardview.New(ports.Story),
		createView:    createview.New(ports.Story, delay),
		storyView:     storyview.New(ports.Story),
		continueView:  continueview.New(ports.Progression, ports.Story),
		current:       nav.Welcome,
		keys:          defaultKeys(),
		help:          help.New(),
		palette:       components.NewPalette(),
		spinner:       sp,
	}
}

// Current is the view on screen.
func (m Model) Current() nav.View { return m.current }

// Crashed reports whether the fallback screen is showing.
func (m Model) Crashed() bool { return m.crashed }

func (m Model) Init() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		return startMsg{signedIn: session.Current(context.Background()).Present}
	}
}

// ─── update ──────────────────────────────────────────────────────────────────

// Update recovers from a panicking view by keeping the model as it was before
// the message and switching to the fallback screen.
func (m Model) Update(msg tea.Msg) (next tea.Model, cmd tea.Cmd) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("view panicked", zap.String("view", string(m.current)), zap.Any("panic", r))
			m.crashed = true
			m.checking = false
			next, cmd = m, nil
		}
	}()
	return m.update(msg)
}

func (m Model) update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = size.Width
		m.height = size.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil
	}

	if m.crashed {
		if k, ok := msg.(tea.KeyMsg); ok {
			switch k.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "enter":
				m.crashed = false
				return m.navigate(nav.Dashboard, "")
			}
		}
		return m, nil
	}

	// The palette intercepts all input while open.
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case startMsg:
		if msg.signedIn {
			return m.navigate(nav.Dashboard, "")
		}
		return m, nil

	case nav.GoMsg:
		return m.navigate(msg.To, msg.StoryID)

	case gateMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.checking = false
		if msg.result.Allowed {
			m.user = msg.result.User.Name
			return m.activate(msg.to, msg.storyID)
		}
		m.user = ""
		return m.denied(msg.to, msg.result.Reason)

	case nav.ExpiredMsg:
		m.user = ""
		return m.denied(m.current, "Session expired. Please log in again.")

	case nav.SignedInMsg:
		m.user = msg.Name
		to := nav.Dashboard
		if remembered := m.session.TakeRememberedView(context.Background()); remembered != "" {
			to = nav.Parse(remembered)
		}
		return m.navigate(to, "")

	case nav.SignedOutMsg:
		m.user = ""
		m.status = "Signed out."
		return m.activate(nav.Welcome, "")

	case dashboardview.LogoutRequestedMsg:
		return m, m.logoutCmd()

	case components.PaletteSubmitMsg:
		return m.runCommand(msg.Name, msg.Arg)

	case spinner.TickMsg:
		if m.checking {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.checking {
			return m, nil
		}
		if !m.typing() {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "?":
				m.showHelp = true
				return m, nil
			case ":":
				cmd := m.palette.Open()
				return m, cmd
			}
		}
		if msg.String() == "ctrl+d" {
			return m.navigate(nav.Dashboard, "")
		}
	}

	return m.forward(msg)
}

// forward hands msg to the view on screen.
func (m Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.current {
	case nav.Welcome:
		m.welcomeView, cmd = m.welcomeView.Update(msg)
	case nav.Auth:
		m.authView, cmd = m.authView.Update(msg)
	case nav.Dashboard:
		m.dashboardView, cmd = m.dashboardView.Update(msg)
	case nav.Create:
		m.createView, cmd = m.createView.Update(msg)
	case nav.Story:
		m.storyView, cmd = m.storyView.Update(msg)
	case nav.Continue:
		m.continueView, cmd = m.continueView.Update(msg)
	}
	return m, cmd
}

// navigate shows to, running the session gate first for guarded views. A
// newer navigation supersedes any check still in flight.
func (m Model) navigate(to nav.View, storyID string) (tea.Model, tea.Cmd) {
	m.seq++
	if !to.Guarded() {
		m.checking = false
		return m.activate(to, storyID)
	}
	m.checking = true
	seq, auth := m.seq, m.auth
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		return gateMsg{seq: seq, to: to, storyID: storyID, result: auth.Check(context.Background())}
	})
}

// denied remembers a guarded destination and shows the login form.
func (m Model) denied(to nav.View, reason string) (tea.Model, tea.Cmd) {
	if to.Guarded() {
		if err := m.session.RememberView(context.Background(), string(to)); err != nil {
			m.logger.Warn("remember view", zap.String("view", string(to)), zap.Error(err))
		}
	}
	m.leaveContinue()
	m.current = nav.Auth
	cmd := m.authView.Open(reason)
	return m, cmd
}

// activate shows to without a gate check. Entering a new story replaces the
// previous continuation, so only other destinations leave it explicitly.
func (m Model) activate(to nav.View, storyID string) (tea.Model, tea.Cmd) {
	if to != nav.Continue {
		m.leaveContinue()
	}
	if storyID != "" && (to == nav.Story || to == nav.Continue) {
		if err := m.session.SetCurrentStory(context.Background(), storyID); err != nil {
			m.logger.Warn("persist current story", zap.String("story_id", storyID), zap.Error(err))
		}
	}
	m.current = to
	m.status = ""
	var cmd tea.Cmd
	switch to {
	case nav.Auth:
		cmd = m.authView.Open("")
	case nav.Dashboard:
		cmd = m.dashboardView.Open()
	case nav.Create:
		cmd = m.createView.Open()
	case nav.Story:
		cmd = m.storyView.Open(storyID)
	case nav.Continue:
		cmd = m.continueView.Open(storyID)
	}
	return m, cmd
}

func (m *Model) leaveContinue() {
	if m.current == nav.Continue {
		m.continueView.Close()
	}
}

func (m Model) typing() bool {
	switch m.current {
	case nav.Auth:
		return m.authView.Typing()
	case nav.Create:
		return m.createView.Typing()
	case nav.Dashboard:
		return m.dashboardView.Filtering()
	}
	return false
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.welcomeView, _ = m.welcomeView.Update(sz)
	m.authView, _ = m.authView.Update(sz)
	m.dashboardView, _ = m.dashboardView.Update(sz)
	m.createView, _ = m.createView.Update(sz)
	m.storyView, _ = m.storyView.Update(sz)
	m.continueView, _ = m.continueView.Update(sz)
}

func (m Model) logoutCmd() tea.Cmd {
	auth, logger := m.auth, m.logger
	return func() tea.Msg {
		if err := auth.Logout(context.Background()); err != nil {
			logger.Warn("logout", zap.Error(err))
		}
		return nav.SignedOutMsg{}
	}
}

// ─── palette commands ────────────────────────────────────────────────────────

func (m Model) runCommand(name, arg string) (tea.Model, tea.Cmd) {
	switch name {
	case "dashboard":
		return m.navigate(nav.Dashboard, "")
	case "new":
		return m.navigate(nav.Create, "")
	case "story":
		if arg == "" {
			m.status = "usage: story <id>"
			return m, nil
		}
		return m.navigate(nav.Story, arg)
	case "continue":
		return m.navigate(nav.Continue, arg)
	case "login":
		return m.activate(nav.Auth, "")
	case "logout":
		return m, m.logoutCmd()
	case "quit":
		return m, tea.Quit
	default:
		m.status = "unknown command: " + name
		return m, nil
	}
}

// ─── view ────────────────────────────────────────────────────────────────────

// View renders the fallback screen if a view panics while drawing.
func (m Model) View() (out string) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("view panicked while rendering", zap.String("view", string(m.current)), zap.Any("panic", r))
			out = m.fallbackView()
		}
	}()
	if m.crashed {
		return m.fallbackView()
	}

	header := m.renderHeader()
	statusBar := m.renderStatusBar()
	contentH := m.height - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.checking:
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Checking your session…")
	default:
		content = m.activeView()
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

func (m Model) activeView() string {
	switch m.current {
	case nav.Welcome:
		return m.welcomeView.View()
	case nav.Auth:
		return m.authView.View()
	case nav.Dashboard:
		return m.dashboardView.View()
	case nav.Create:
		return m.createView.View()
	case nav.Story:
		return m.storyView.View()
	case nav.Continue:
		return m.continueView.View()
	}
	return ""
}

func (m Model) fallbackView() string {
	body := theme.Error.Render("Something went wrong.") + "\n\n" +
		theme.Muted.Render("enter: return to dashboard")
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, theme.Pane.Render(body))
}

func (m Model) renderHeader() string {
	bar := theme.Banner.Render("odysseus") + "  " + theme.Title.Render(viewTitles[m.current])
	if m.user != "" {
		bar += theme.Muted.Render("  signed in as " + m.user)
	}
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	right := theme.Muted.Render("?:help  :::go to  ctrl+d:dashboard  q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := fmt.Sprintf("%s%s%s", left, strings.Repeat(" ", gap), right)
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}
