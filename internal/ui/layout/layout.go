// Package layout draws the frame shared by every screen: a header bar with
// the screen title and mastery count, the content area and a footer of key
// hints.
package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/knowgraph/knowgraph/internal/ui/theme"
)

const (
	MinWidth  = 80
	MinHeight = 24

	// Below this width screens drop their sidebar.
	CompactWidth = 100

	brand = "KnowGraph"
)

type KeyHint struct {
	Key         string
	Description string
}

func IsCompactWidth(width int) bool { return width < CompactWidth }

func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// RenderMinSizeMessage fills the terminal with a resize request.
func RenderMinSizeMessage(width, height int) string {
	msg := fmt.Sprintf("Terminal too small.\n\nResize to at least %d x %d\n(currently %d x %d)",
		MinWidth, MinHeight, width, height)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, theme.Body.Render(msg))
}

// Header is the top bar. Total 0 hides the mastery count.
type Header struct {
	Title    string
	Mastered int
	Total    int
}

func (h Header) Render(width int) string {
	inner := max(width-4, 0)
	left := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(" " + brand)
	right := ""
	if h.Total > 0 {
		right = lipgloss.NewStyle().Foreground(theme.Success).
			Render(fmt.Sprintf("✓ %d/%d mastered ", h.Mastered, h.Total))
	}
	title := theme.Body.Render(h.Title)

	// Title is centred on the bar, not on the space between the sides.
	lw, tw, rw := lipgloss.Width(left), lipgloss.Width(title), lipgloss.Width(right)
	gapL := max((inner-tw)/2-lw, 1)
	gapR := max(inner-lw-gapL-tw-rw, 1)
	return framed(left+strings.Repeat(" ", gapL)+title+strings.Repeat(" ", gapR)+right, width)
}

// RenderFooter lays out key hints left to right, dropping the ones that do
// not fit on a single line.
func RenderFooter(hints []KeyHint, width int) string {
	budget := max(width-6, 0)
	keyStyle := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)

	var line strings.Builder
	for _, h := range hints {
		part := keyStyle.Render(h.Key) + " " + theme.Hint.Render(h.Description)
		sep := ""
		if line.Len() > 0 {
			sep = "   "
		}
		if lipgloss.Width(line.String())+len(sep)+lipgloss.Width(part) > budget {
			break
		}
		line.WriteString(sep + part)
	}
	return framed(" "+line.String(), width)
}

func framed(content string, width int) string {
	return lipgloss.NewStyle().
		Width(width).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Render(content)
}

// RenderFrame stacks header, content and footer, padding the content so the
// footer sits on the last rows.
func RenderFrame(header, content, footer string, width, height int) string {
	body := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.NewStyle().Width(width).Height(body).MaxHeight(body).Render(content),
		footer,
	)
}
