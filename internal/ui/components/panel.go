package components

import (
	"charm.land/lipgloss/v2"

	"github.com/knowgraph/knowgraph/internal/ui/theme"
)

// ContentWidth returns the inner width used for centered single-column
// screens.
func ContentWidth(frameWidth int) int {
	return min(max(frameWidth-6, 20), 72)
}

// Center places content in the middle of the given area.
func Center(content string, width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

// Panel wraps content in a titled rounded card of the given outer width.
func Panel(title, content string, width int, active bool) string {
	style := theme.Card
	if active {
		style = theme.ActiveCard
	}
	body := content
	if title != "" {
		body = theme.Title.Render(title) + "\n" + content
	}
	return style.Width(width).Render(body)
}
