package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/knowgraph/knowgraph/internal/ui/theme"
)

// ChecklistItem is one toggleable row.
type ChecklistItem struct {
	Key     string
	Label   string
	Checked bool
}

// Checklist is a multi-select list toggled with space.
type Checklist struct {
	Label   string
	Items   []ChecklistItem
	Cursor  int
	Focused bool
	Err     string
}

// NewChecklist creates a checklist with nothing checked.
func NewChecklist(label string, items []ChecklistItem) Checklist {
	return Checklist{Label: label, Items: items}
}

// Update moves the cursor and toggles items. Unfocused lists ignore input.
func (c Checklist) Update(msg tea.Msg) (Checklist, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok || !c.Focused {
		return c, nil
	}
	switch kmsg.String() {
	case "up", "k":
		if c.Cursor > 0 {
			c.Cursor--
		}
	case "down", "j":
		if c.Cursor < len(c.Items)-1 {
			c.Cursor++
		}
	case "space", "x":
		if c.Cursor < len(c.Items) {
			c.Items[c.Cursor].Checked = !c.Items[c.Cursor].Checked
			c.Err = ""
		}
	}
	return c, nil
}

// Checked returns the keys of checked items in list order.
func (c Checklist) Checked() []string {
	var keys []string
	for _, it := range c.Items {
		if it.Checked {
			keys = append(keys, it.Key)
		}
	}
	return keys
}

// View renders the list.
func (c Checklist) View() string {
	var b strings.Builder
	if c.Focused {
		b.WriteString(theme.Selected.Render(c.Label))
	} else {
		b.WriteString(theme.Subtitle.Render(c.Label))
	}
	b.WriteString("\n")
	for i, it := range c.Items {
		prefix := "  "
		if c.Focused && i == c.Cursor {
			prefix = Cursor
		}
		box := "[ ] "
		if it.Checked {
			box = "[x] "
		}
		style := theme.Unselected
		if c.Focused && i == c.Cursor {
			style = theme.Selected
		}
		b.WriteString(style.Render(prefix+box+it.Label) + "\n")
	}
	if c.Err != "" {
		b.WriteString(theme.ErrorText.Render("  "+c.Err) + "\n")
	}
	return b.String()
}
