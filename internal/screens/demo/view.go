package demo

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/knowgraph/knowgraph/internal/mastery"
	"github.com/knowgraph/knowgraph/internal/ui/components"
	"github.com/knowgraph/knowgraph/internal/ui/layout"
	"github.com/knowgraph/knowgraph/internal/ui/theme"
)

const sidebarWidth = 34

func (s *Screen) View(width, height int) string {
	compact := layout.IsCompactWidth(width)

	var main string
	if s.showGraph {
		main = s.renderGraphPanel(width, height, compact)
	} else {
		main = s.renderCapsule(width, compact)
	}

	if s.errMsg != "" {
		main = theme.ErrorText.Render("! "+s.errMsg) + "\n" + main
	}

	if compact {
		return lipgloss.JoinVertical(lipgloss.Left,
			s.renderPath(width-2),
			main,
		)
	}

	side := lipgloss.JoinVertical(lipgloss.Left,
		components.Panel("Learning path", s.renderPath(sidebarWidth-4), sidebarWidth, false),
		components.Panel("Progress", s.renderAnalytics(sidebarWidth-4), sidebarWidth, false),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, side, " ", main)
}

func (s *Screen) mainWidth(width int, compact bool) int {
	if compact {
		return width
	}
	return max(width-sidebarWidth-1, 30)
}

// renderPath lists every capsule with its state and marks the current one.
func (s *Screen) renderPath(width int) string {
	var b strings.Builder
	cat := s.sess.Catalog()
	for i := range cat.Capsules {
		c := &cat.Capsules[i]
		st := s.snap.States[c.ID]
		prefix := "  "
		if i == s.snap.Current {
			prefix = components.Cursor
		}
		title := c.Title
		if lipgloss.Width(title) > width-6 && width > 9 {
			title = string([]rune(title)[:width-9]) + "..."
		}
		line := fmt.Sprintf("%s%s %s", prefix, st.Icon(), title)
		if i == s.snap.Current {
			line = theme.Selected.Render(line)
		} else {
			line = theme.State(st, line)
		}
		b.WriteString(line + "\n")
	}
	if s.sess.AdvancePending() {
		b.WriteString(theme.Hint.Render("  moving to the next capsule..."))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Screen) renderAnalytics(width int) string {
	segs := make([]components.Segment, 0, len(s.snap.Analytics.Buckets))
	rows := []string{"", ""}
	for _, bk := range s.snap.Analytics.Buckets {
		segs = append(segs, components.Segment{Count: bk.Count, Color: theme.StateColor(bk.State)})
		meter := components.Meter{Percent: bk.Percent, Width: width, Color: theme.StateColor(bk.State)}
		rows = append(rows, theme.State(bk.State, fmt.Sprintf("%-12s %d", bk.State.Label(), bk.Count)), meter.View())
	}
	rows[0] = components.StackedBar(segs, width)
	return strings.Join(rows, "\n")
}

func (s *Screen) renderCapsule(width int, compact bool) string {
	w := s.mainWidth(width, compact)
	cp, ok := s.sess.Catalog().Capsule(s.viewing)
	if !ok {
		return ""
	}
	st := s.snap.States[s.viewing]

	var b strings.Builder
	b.WriteString(theme.State(st, st.Icon()+" "+st.Label()) + "\n")
	if cp.Description != "" {
		b.WriteString(theme.Body.Width(w-4).Render(cp.Description) + "\n")
	}
	if cp.Media != "" {
		b.WriteString(theme.Hint.Render("▶ "+cp.Media) + "\n")
	}
	b.WriteString("\n")

	if !s.snap.Revealed[s.viewing] {
		b.WriteString(theme.Hint.Render("Press r when you have watched the capsule to reveal its questions."))
		return components.Panel(cp.Title, b.String(), w, true)
	}

	outcomes := s.outcomes[s.viewing]
	for i, mc := range s.choices {
		b.WriteString(theme.Subtitle.Render(fmt.Sprintf("Question %d of %d", i+1, len(s.choices))) + "\n")
		b.WriteString(mc.View())
		if out, ok := outcomes[i]; ok {
			style := theme.Incorrect
			if out.Correct {
				style = theme.Correct
			}
			b.WriteString(style.Render(out.Feedback.Title) + " " + theme.Hint.Render(out.Feedback.Description) + "\n")
			if out.Unlocked != nil {
				if next, ok := s.sess.Catalog().Capsule(out.Unlocked.CapsuleID); ok {
					b.WriteString(theme.State(mastery.StateViewed, "Unlocked: "+next.Title) + "\n")
				}
			}
		}
		b.WriteString("\n")
	}
	return components.Panel(cp.Title, strings.TrimRight(b.String(), "\n"), w, true)
}

func (s *Screen) renderGraphPanel(width, height int, compact bool) string {
	w := s.mainWidth(width, compact)
	if compact || height < 16 {
		return components.Panel("Knowledge graph", renderEdgeList(s.snap.Graph), w, true)
	}
	return components.Panel("Knowledge graph", renderGraph(s.snap.Graph, w-4, min(height-6, 24)), w, true)
}
