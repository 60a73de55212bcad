package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowgraph/knowgraph/internal/ui/theme"
)

type ran struct{ label string }

func item(label string, disabled bool) MenuItem {
	return MenuItem{Label: label, Disabled: disabled, Action: func() tea.Cmd {
		return func() tea.Msg { return ran{label} }
	}}
}

func TestMenu_SkipsDisabledAndWraps(t *testing.T) {
	m := NewMenu([]MenuItem{item("off", true), item("a", false), item("b", false)})
	assert.Equal(t, 1, m.Selected)

	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	assert.Equal(t, 2, m.Selected)
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	assert.Equal(t, 1, m.Selected, "wraps past the disabled first item")
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	assert.Equal(t, 2, m.Selected)
}

func TestMenu_EnterAndNumberShortcut(t *testing.T) {
	m := NewMenu([]MenuItem{item("a", false), item("b", false), item("c", true)})

	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, ran{"a"}, cmd())

	m, cmd = m.Update(tea.KeyPressMsg{Code: '2', Text: "2"})
	require.NotNil(t, cmd)
	assert.Equal(t, ran{"b"}, cmd())
	assert.Equal(t, 1, m.Selected)

	_, cmd = m.Update(tea.KeyPressMsg{Code: '3', Text: "3"})
	assert.Nil(t, cmd, "disabled items do not run")
}

func TestMenu_AllDisabled(t *testing.T) {
	m := NewMenu([]MenuItem{item("x", true)})
	assert.Equal(t, -1, m.Selected)
	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "x")
}

func TestMeter(t *testing.T) {
	full := Meter{Percent: 100, Width: 15}.View()
	assert.Equal(t, 15, lipgloss.Width(full))
	assert.Contains(t, full, "100%")
	assert.NotContains(t, full, "░")

	clamped := Meter{Percent: -5, Width: 15}.View()
	assert.Contains(t, clamped, "0%")
	assert.NotContains(t, clamped, "█")
}

func TestStackedBar(t *testing.T) {
	bar := StackedBar([]Segment{
		{Count: 1, Color: theme.Success},
		{Count: 1, Color: theme.Secondary},
		{Count: 1, Color: theme.Border},
	}, 10)
	assert.Equal(t, 10, lipgloss.Width(bar))
	assert.Equal(t, 10, strings.Count(bar, "█"))

	empty := StackedBar(nil, 6)
	assert.Equal(t, 6, strings.Count(empty, "░"))
}

func TestButton(t *testing.T) {
	b := NewButton("Send", "Sending...")
	assert.NotContains(t, b.View(), Cursor)

	b.Focused = true
	assert.Contains(t, b.View(), Cursor+"Send")

	b.Busy = true
	assert.Contains(t, b.View(), "Sending...")
	assert.NotContains(t, b.View(), Cursor)
}
