package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/knowgraph/knowgraph/internal/ui/theme"
)

// Choice is a single-select row cycled with left and right.
type Choice struct {
	Label    string
	Keys     []string
	Labels   []string
	Selected int // -1 when nothing is selected
	Focused  bool
	Err      string
}

// NewChoice creates a choice with nothing selected. keys and labels are
// parallel slices.
func NewChoice(label string, keys, labels []string) Choice {
	return Choice{Label: label, Keys: keys, Labels: labels, Selected: -1}
}

// Update cycles the selection. Unfocused choices ignore input.
func (c Choice) Update(msg tea.Msg) (Choice, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok || !c.Focused || len(c.Keys) == 0 {
		return c, nil
	}
	switch kmsg.String() {
	case "left", "h":
		if c.Selected <= 0 {
			c.Selected = len(c.Keys) - 1
		} else {
			c.Selected--
		}
		c.Err = ""
	case "right", "l", "space":
		c.Selected = (c.Selected + 1) % len(c.Keys)
		c.Err = ""
	}
	return c, nil
}

// Value returns the selected key, or "".
func (c Choice) Value() string {
	if c.Selected < 0 || c.Selected >= len(c.Keys) {
		return ""
	}
	return c.Keys[c.Selected]
}

// View renders the label and the options on one line.
func (c Choice) View() string {
	var b strings.Builder
	if c.Focused {
		b.WriteString(theme.Selected.Render(c.Label))
	} else {
		b.WriteString(theme.Subtitle.Render(c.Label))
	}
	b.WriteString("\n  ")
	parts := make([]string, len(c.Labels))
	for i, l := range c.Labels {
		if i == c.Selected {
			parts[i] = theme.Selected.Render("(" + l + ")")
		} else {
			parts[i] = theme.Hint.Render(" " + l + " ")
		}
	}
	b.WriteString(strings.Join(parts, " "))
	if c.Err != "" {
		b.WriteString("\n" + theme.ErrorText.Render("  "+c.Err))
	}
	return b.String()
}
