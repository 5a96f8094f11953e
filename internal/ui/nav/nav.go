// Package nav names the TUI views and carries navigation requests from the
// views up to the root model.
package nav

import tea "github.com/charmbracelet/bubbletea"

type View string

// Dashboard and Auth match the route names the credential flow returns.
const (
	Welcome   View = "welcome"
	Auth      View = "auth"
	Dashboard View = "dashboard"
	Create    View = "create"
	Story     View = "story"
	Continue  View = "continue"
)

// Guarded reports whether v needs a verified session.
func (v View) Guarded() bool {
	switch v {
	case Dashboard, Create, Story, Continue:
		return true
	default:
		return false
	}
}

// Parse maps a remembered view name back to a View; unknown names give
// Dashboard.
func Parse(name string) View {
	switch v := View(name); v {
	case Welcome, Auth, Dashboard, Create, Story, Continue:
		return v
	default:
		return Dashboard
	}
}

// GoMsg asks the root model to show a view.
type GoMsg struct {
	To      View
	StoryID string
}

func Go(to View, storyID string) tea.Cmd {
	return func() tea.Msg { return GoMsg{To: to, StoryID: storyID} }
}

// ExpiredMsg reports that the backend rejected the session.
type ExpiredMsg struct{}

func Expired() tea.Cmd {
	return func() tea.Msg { return ExpiredMsg{} }
}

// SignedInMsg is sent by the auth view once a session is stored.
type SignedInMsg struct{ Name string }

// SignedOutMsg is sent once the local session has been cleared.
type SignedOutMsg struct{}
