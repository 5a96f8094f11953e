package welcome

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"odysseus/internal/ui/nav"
	"odysseus/internal/ui/theme"
)

type Model struct {
	width  int
	height int
}

func New() Model { return Model{} }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			return m, nav.Go(nav.Dashboard, "")
		case "l":
			return m, nav.Go(nav.Auth, "")
		case "n":
			return m, nav.Go(nav.Create, "")
		}
	}
	return m, nil
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(theme.Banner.Render("O D Y S S E U S") + "\n\n")
	sb.WriteString("Stories that branch with every choice you make.\n")
	sb.WriteString(theme.Muted.Render("Pick a genre and a tone, write an opening line, then steer the plot.") + "\n\n")
	sb.WriteString(theme.Muted.Render("enter: your stories  n: new story  l: log in  q: quit"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		theme.Pane.Render(sb.String()))
}
