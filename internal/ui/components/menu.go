package components

import (
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/knowgraph/knowgraph/internal/ui/theme"
)

// Cursor marks the highlighted row in lists and menus.
const Cursor = "▸ "

type MenuItem struct {
	Label    string
	Hint     string
	Action   func() tea.Cmd
	Disabled bool
}

// Menu is a vertical list of actions. Arrow keys and j/k move between
// enabled items and wrap at either end; enter or the item's number runs it.
type Menu struct {
	Items    []MenuItem
	Selected int
}

func NewMenu(items []MenuItem) Menu {
	m := Menu{Items: items, Selected: -1}
	m.move(1)
	return m
}

func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	key, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return m, nil
	}
	switch k := key.String(); k {
	case "up", "k", "shift+tab":
		m.move(-1)
	case "down", "j", "tab":
		m.move(1)
	case "enter", "space":
		return m, m.run(m.Selected)
	default:
		if n, err := strconv.Atoi(k); err == nil && n >= 1 && n <= len(m.Items) && !m.Items[n-1].Disabled {
			m.Selected = n - 1
			return m, m.run(m.Selected)
		}
	}
	return m, nil
}

// move steps the selection by dir over enabled items. With nothing enabled
// the selection stays where it is.
func (m *Menu) move(dir int) {
	n := len(m.Items)
	for step := 1; step <= n; step++ {
		i := ((m.Selected+dir*step)%n + n) % n
		if !m.Items[i].Disabled {
			m.Selected = i
			return
		}
	}
}

func (m Menu) run(i int) tea.Cmd {
	if i < 0 || i >= len(m.Items) || m.Items[i].Disabled || m.Items[i].Action == nil {
		return nil
	}
	return m.Items[i].Action()
}

func (m Menu) View() string {
	var b strings.Builder
	for i, item := range m.Items {
		switch {
		case item.Disabled:
			b.WriteString(theme.Hint.Render("  " + item.Label))
		case i == m.Selected:
			b.WriteString(theme.Selected.Render(Cursor + item.Label))
			if item.Hint != "" {
				b.WriteString("  " + theme.Hint.Render(item.Hint))
			}
		default:
			b.WriteString(theme.Unselected.Render("  " + item.Label))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
