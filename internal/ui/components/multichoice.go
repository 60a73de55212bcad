package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/knowgraph/knowgraph/internal/ui/theme"
)

// OptionChosenMsg is sent when the user confirms an option with enter or
// its letter key.
type OptionChosenMsg struct {
	Index  int
	Option string
}

// MultiChoice is a single-question option selector. It only tracks the
// cursor and the chosen option; grading happens elsewhere.
type MultiChoice struct {
	Prompt  string
	Options []string
	Cursor  int
	Chosen  int // -1 when nothing is chosen
	Focused bool

	// Result is set once the answer has been graded.
	Graded  bool
	Correct bool
}

// NewMultiChoice creates a selector with nothing chosen.
func NewMultiChoice(prompt string, options []string) MultiChoice {
	return MultiChoice{
		Prompt:  prompt,
		Options: options,
		Chosen:  -1,
	}
}

// Choose marks the option with the given text as chosen, if present.
func (m *MultiChoice) Choose(option string) {
	for i, o := range m.Options {
		if o == option {
			m.Chosen = i
			m.Cursor = i
			return
		}
	}
}

// Grade records whether the chosen option was correct.
func (m *MultiChoice) Grade(correct bool) {
	m.Graded = true
	m.Correct = correct
}

// ChosenOption returns the chosen option text, or "".
func (m MultiChoice) ChosenOption() string {
	if m.Chosen < 0 || m.Chosen >= len(m.Options) {
		return ""
	}
	return m.Options[m.Chosen]
}

// Update handles cursor movement and choosing. Unfocused selectors ignore
// input.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok || !m.Focused {
		return m, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
		return m, nil
	case "down", "j":
		if m.Cursor < len(m.Options)-1 {
			m.Cursor++
		}
		return m, nil
	case "enter", "space":
		return m.choose(m.Cursor)
	}
	if len(key) == 1 && key[0] >= 'a' && int(key[0]-'a') < len(m.Options) {
		return m.choose(int(key[0] - 'a'))
	}
	return m, nil
}

func (m MultiChoice) choose(i int) (MultiChoice, tea.Cmd) {
	if i < 0 || i >= len(m.Options) {
		return m, nil
	}
	m.Cursor = i
	m.Chosen = i
	m.Graded = false
	opt := m.Options[i]
	return m, func() tea.Msg { return OptionChosenMsg{Index: i, Option: opt} }
}

// View renders the prompt and lettered options.
func (m MultiChoice) View() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(m.Prompt))
	b.WriteString("\n")

	for i, opt := range m.Options {
		prefix := "  "
		if m.Focused && i == m.Cursor {
			prefix = Cursor
		}
		mark := "○"
		if i == m.Chosen {
			mark = "●"
		}
		line := fmt.Sprintf("%s%s %c) %s", prefix, mark, 'A'+i, opt)

		var style lipgloss.Style
		switch {
		case i == m.Chosen && m.Graded && m.Correct:
			style = theme.Correct
		case i == m.Chosen && m.Graded:
			style = theme.Incorrect
		case i == m.Chosen, m.Focused && i == m.Cursor:
			style = theme.Selected
		default:
			style = theme.Unselected
		}
		b.WriteString(style.Render(line) + "\n")
	}
	return b.String()
}
