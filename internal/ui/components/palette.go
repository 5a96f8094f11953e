package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"odysseus/internal/ui/theme"
)

// PaletteCommand is one entry offered by the palette.
type PaletteCommand struct {
	Name  string
	Usage string
	Help  string
}

// Commands lists what the palette completes. The root model dispatches on
// Name.
var Commands = []PaletteCommand{
	{Name: "dashboard", Usage: "dashboard", Help: "your stories"},
	{Name: "new", Usage: "new", Help: "start a story"},
	{Name: "story", Usage: "story <id>", Help: "read a story"},
	{Name: "continue", Usage: "continue [id]", Help: "pick what happens next"},
	{Name: "login", Usage: "login", Help: "sign in"},
	{Name: "logout", Usage: "logout", Help: "sign out"},
	{Name: "quit", Usage: "quit", Help: "leave odysseus"},
}

// PaletteSubmitMsg carries the confirmed command word and its first argument.
// Name may be a word that is not in Commands.
type PaletteSubmitMsg struct {
	Name string
	Arg  string
}

var (
	paletteFrame = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Peach).
			Background(theme.Mantle).
			Foreground(theme.Text).
			Padding(0, 1)

	usageColumn = lipgloss.NewStyle().Foreground(theme.Lavender).Width(16)
)

// Palette is the ":" overlay for jumping between views.
type Palette struct {
	input   textinput.Model
	visible bool
	width   int
}

func NewPalette() Palette {
	ti := textinput.New()
	ti.Placeholder = "story 42, continue, new…"
	ti.CharLimit = 128
	return Palette{input: ti}
}

func (p Palette) Visible() bool { return p.visible }

// Open shows an empty palette and focuses it.
func (p *Palette) Open() tea.Cmd {
	p.visible = true
	p.input.SetValue("")
	return p.input.Focus()
}

func (p *Palette) SetWidth(w int) { p.width = w }

func (p *Palette) hide() {
	p.visible = false
	p.input.Blur()
}

func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			p.hide()
			return p, nil
		case "tab":
			if found := p.suggest(1); len(found) == 1 {
				p.input.SetValue(found[0].Name + " ")
				p.input.CursorEnd()
			}
			return p, nil
		case "enter":
			p.hide()
			name, arg := ParseCommand(p.input.Value())
			if name == "" {
				return p, nil
			}
			return p, func() tea.Msg { return PaletteSubmitMsg{Name: name, Arg: arg} }
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p Palette) View() string {
	if !p.visible {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Go to") + "\n")
	sb.WriteString(": " + p.input.View() + "\n")
	if found := p.suggest(5); len(found) > 0 {
		sb.WriteString("\n")
		for _, c := range found {
			sb.WriteString("  " + usageColumn.Render(c.Usage) + theme.Muted.Render(c.Help) + "\n")
		}
	}
	w := p.width
	if w < 20 {
		w = 64
	}
	return paletteFrame.Width(w - 2).Render(sb.String())
}

// ParseCommand splits input into a lowercased command word and its first
// argument.
func ParseCommand(input string) (name, arg string) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return "", ""
	}
	if len(fields) > 1 {
		arg = fields[1]
	}
	return strings.ToLower(fields[0]), arg
}

// suggest returns up to limit commands whose name starts with the typed word.
func (p Palette) suggest(limit int) []PaletteCommand {
	word, _ := ParseCommand(p.input.Value())
	var out []PaletteCommand
	for _, c := range Commands {
		if strings.HasPrefix(c.Name, word) {
			out = append(out, c)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}
