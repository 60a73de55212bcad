// Package completion is the screen shown once every capsule of the path is
// mastered or marked for review.
package completion

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/knowgraph/knowgraph/internal/catalog"
	"github.com/knowgraph/knowgraph/internal/mastery"
	"github.com/knowgraph/knowgraph/internal/router"
	"github.com/knowgraph/knowgraph/internal/screen"
	"github.com/knowgraph/knowgraph/internal/session"
	"github.com/knowgraph/knowgraph/internal/ui/components"
	"github.com/knowgraph/knowgraph/internal/ui/theme"
)

// Screen summarizes a finished learning path.
type Screen struct {
	snap session.Snapshot
	cat  *catalog.Catalog
	menu components.Menu
}

var (
	_ screen.Screen           = (*Screen)(nil)
	_ screen.ProgressProvider = (*Screen)(nil)
)

// New builds the completion screen. signup, when non-nil, opens the beta
// signup form.
func New(snap session.Snapshot, cat *catalog.Catalog, signup func() screen.Screen) *Screen {
	var items []components.MenuItem
	if signup != nil {
		items = append(items, components.MenuItem{
			Label: "Join the beta",
			Hint:  "get early access to the full platform",
			Action: func() tea.Cmd {
				return router.Replace(signup())
			},
		})
	}
	items = append(items,
		components.MenuItem{Label: "Review the path", Action: func() tea.Cmd { return router.Pop }},
		components.MenuItem{Label: "Home", Action: func() tea.Cmd { return router.Home }},
	)
	return &Screen{snap: snap, cat: cat, menu: components.NewMenu(items)}
}

// Headline is the congratulation line.
func Headline(title string) string {
	return fmt.Sprintf("You've mastered the %s learning path!", title)
}

func (s *Screen) Init() tea.Cmd { return nil }

func (s *Screen) Title() string { return "Path complete" }

func (s *Screen) Progress() (int, int) {
	return s.snap.Analytics.MasteredRatio()
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *Screen) View(width, height int) string {
	cw := components.ContentWidth(width)

	var b strings.Builder
	b.WriteString(theme.Title.Render(Headline(s.snap.Title)) + "\n\n")

	mastered := s.snap.Analytics.Count(mastery.StateMastered)
	weak := s.snap.Analytics.Count(mastery.StateWeak)
	summary := fmt.Sprintf("%d of %d capsules mastered", mastered, s.snap.Analytics.Total)
	if weak > 0 {
		summary += fmt.Sprintf(", %d to review", weak)
	}
	b.WriteString(theme.Subtitle.Render(summary) + "\n\n")

	for i := range s.cat.Capsules {
		c := &s.cat.Capsules[i]
		st := s.snap.States[c.ID]
		b.WriteString(theme.State(st, fmt.Sprintf("  %s %-28s %s", st.Icon(), c.Title, st.Label())) + "\n")
	}
	b.WriteString("\n" + s.menu.View())

	card := components.Panel("", lipgloss.NewStyle().Width(cw-4).Render(b.String()), cw, true)
	return components.Center(card, width, height)
}
