package components

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/knowgraph/knowgraph/internal/ui/theme"
)

// Meter is a horizontal bar for a whole-number percentage. The percentage
// label takes the last five cells of Width.
type Meter struct {
	Percent int
	Width   int
	Color   color.Color
}

func (m Meter) View() string {
	pct := min(max(m.Percent, 0), 100)
	cells := max(m.Width-5, 4)
	filled := (cells*pct + 50) / 100

	fill := m.Color
	if fill == nil {
		fill = theme.Secondary
	}
	return lipgloss.NewStyle().Foreground(fill).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("░", cells-filled)) +
		theme.Hint.Render(fmt.Sprintf("%5s", fmt.Sprintf("%d%%", pct)))
}

// Segment is one share of a StackedBar.
type Segment struct {
	Count int
	Color color.Color
}

// StackedBar draws every segment side by side in one bar of the given
// width, sized by count. Rounding leftovers go to the largest segments so
// the bar is always exactly width cells once anything is counted.
func StackedBar(segments []Segment, width int) string {
	total := 0
	for _, s := range segments {
		total += s.Count
	}
	if total == 0 || width <= 0 {
		return lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("░", max(width, 0)))
	}

	cells := make([]int, len(segments))
	used := 0
	for i, s := range segments {
		cells[i] = s.Count * width / total
		used += cells[i]
	}
	for used < width {
		best := -1
		for i, s := range segments {
			if s.Count > 0 && (best < 0 || s.Count*width-cells[i]*total > segments[best].Count*width-cells[best]*total) {
				best = i
			}
		}
		cells[best]++
		used++
	}

	var b strings.Builder
	for i, s := range segments {
		if cells[i] > 0 {
			b.WriteString(lipgloss.NewStyle().Foreground(s.Color).Render(strings.Repeat("█", cells[i])))
		}
	}
	return b.String()
}
