// Package menu implements the pane-encoding selection picker.
package menu

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/panemux/panemux/internal/encoding"
)

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k")),
	Down:   key.NewBinding(key.WithKeys("down", "j")),
	Select: key.NewBinding(key.WithKeys("enter")),
	Quit:   key.NewBinding(key.WithKeys("esc", "q", "ctrl+c")),
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	inactiveStyle = lipgloss.NewStyle()
)

// Model is the BubbleTea model for the encoding picker. Entries are ordered
// by the selection registry, so the most recently used legacy encoding sits
// right under UTF-8.
type Model struct {
	registry *encoding.SelectionRegistry
	items    []encoding.Encoding
	current  encoding.Encoding
	cursor   int
	choice   encoding.Encoding
	chosen   bool
}

// New builds a picker over the registry's current ordering, with the cursor
// on the pane's active encoding.
func New(reg *encoding.SelectionRegistry, current encoding.Encoding) Model {
	items := reg.OrderedList()
	cursor := 0
	for i, enc := range items {
		if enc == current {
			cursor = i
			break
		}
	}
	return Model{
		registry: reg,
		items:    items,
		current:  current,
		cursor:   cursor,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, keys.Select):
		m.choice = m.items[m.cursor]
		m.chosen = true
		m.registry.RecordSelection(m.choice)
		return m, tea.Quit
	case key.Matches(keyMsg, keys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Pane Encoding"))
	b.WriteString("\n\n")
	for i, enc := range m.items {
		marker := "  "
		if i == m.cursor {
			marker = cursorStyle.Render("> ")
		}
		label := inactiveStyle.Render(enc.String())
		if enc == m.current {
			label = activeStyle.Render(enc.String() + " (active)")
		}
		b.WriteString(marker + label + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("enter: select  esc: cancel"))
	return b.String()
}

// Choice returns the confirmed encoding, or ok=false when the picker was
// dismissed without selecting.
func (m Model) Choice() (encoding.Encoding, bool) {
	return m.choice, m.chosen
}
