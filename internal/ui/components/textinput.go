package components

import (
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/knowgraph/knowgraph/internal/ui/theme"
)

// TextInput wraps bubbles/textinput with a label and a field error.
type TextInput struct {
	Label string
	Model textinput.Model
	Err   string
}

// NewTextInput creates an unfocused labeled input.
func NewTextInput(label, placeholder string, charLimit int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "› "
	if charLimit > 0 {
		ti.CharLimit = charLimit
	}
	ti.SetWidth(40)
	return TextInput{Label: label, Model: ti}
}

// Focus gives the input keyboard focus.
func (t *TextInput) Focus() tea.Cmd {
	return t.Model.Focus()
}

// Blur removes keyboard focus.
func (t *TextInput) Blur() {
	t.Model.Blur()
}

// Focused reports whether the input has focus.
func (t TextInput) Focused() bool {
	return t.Model.Focused()
}

// Update forwards messages to the wrapped input. Editing clears the error.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	before := t.Model.Value()
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	if t.Model.Value() != before {
		t.Err = ""
	}
	return t, cmd
}

// View renders the label, the input and any error below it.
func (t TextInput) View() string {
	label := theme.Subtitle.Render(t.Label)
	if t.Focused() {
		label = theme.Selected.Render(t.Label)
	}
	view := label + "\n" + t.Model.View()
	if t.Err != "" {
		view += "\n" + lipgloss.NewStyle().Foreground(theme.Error).Render("  "+t.Err)
	}
	return view
}

// Value returns the current input value.
func (t TextInput) Value() string {
	return t.Model.Value()
}

// SetValue replaces the input value.
func (t *TextInput) SetValue(s string) {
	t.Model.SetValue(s)
}
