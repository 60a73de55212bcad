// Package admin is the terminal view of beta signups: a filtered table,
// summary stats and file export.
package admin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/knowgraph/knowgraph/internal/screen"
	"github.com/knowgraph/knowgraph/internal/signup"
	"github.com/knowgraph/knowgraph/internal/ui/components"
	"github.com/knowgraph/knowgraph/internal/ui/layout"
	"github.com/knowgraph/knowgraph/internal/ui/theme"
)

const loadTimeout = 10 * time.Second

type loadedMsg struct {
	items []signup.Signup
	stats signup.Stats
	err   error
}

type exportedMsg struct {
	path string
	err  error
}

// Screen lists signups.
type Screen struct {
	svc       *signup.Service
	exportDir string
	now       func() time.Time

	filter    signup.Filter
	search    components.TextInput
	searching bool

	items  []signup.Signup
	stats  signup.Stats
	offset int
	status string
	err    string
	loaded bool
}

var (
	_ screen.Screen          = (*Screen)(nil)
	_ screen.KeyHintProvider = (*Screen)(nil)
	_ screen.TextCapturer    = (*Screen)(nil)
)

// New creates the admin screen. Exports are written to exportDir.
func New(svc *signup.Service, exportDir string) *Screen {
	return &Screen{
		svc:       svc,
		exportDir: exportDir,
		now:       time.Now,
		search:    components.NewTextInput("Search name or email", "", 100),
	}
}

func (s *Screen) Init() tea.Cmd { return s.load() }

func (s *Screen) Title() string { return "Beta signups" }

func (s *Screen) CapturingText() bool { return s.searching }

func (s *Screen) KeyHints() []layout.KeyHint {
	if s.searching {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Apply"},
			{Key: "Esc", Description: "Back"},
		}
	}
	return []layout.KeyHint{
		{Key: "r", Description: "Role"},
		{Key: "p", Description: "Plan"},
		{Key: "/", Description: "Search"},
		{Key: "c", Description: "Clear"},
		{Key: "e/x", Description: "Export CSV/XLSX"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *Screen) load() tea.Cmd {
	svc, f := s.svc, s.filter
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		items, err := svc.List(ctx, f)
		if err != nil {
			return loadedMsg{err: err}
		}
		stats, err := svc.Stats(ctx)
		return loadedMsg{items: items, stats: stats, err: err}
	}
}

func (s *Screen) export(format string) tea.Cmd {
	svc, f := s.svc, s.filter
	path := filepath.Join(s.exportDir, signup.ExportFileName(s.now(), format))
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		items, err := svc.List(ctx, f)
		if err != nil {
			return exportedMsg{err: err}
		}
		out, err := os.Create(path)
		if err != nil {
			return exportedMsg{err: err}
		}
		if err := signup.Export(out, format, items); err != nil {
			out.Close()
			return exportedMsg{err: err}
		}
		return exportedMsg{path: path, err: out.Close()}
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		s.loaded = true
		if msg.err != nil {
			s.err = signup.UserMessage(msg.err)
			return s, nil
		}
		s.err = ""
		s.items, s.stats = msg.items, msg.stats
		s.offset = 0
		return s, nil

	case exportedMsg:
		if msg.err != nil {
			s.err = "export failed: " + msg.err.Error()
		} else {
			s.status = "Wrote " + msg.path
		}
		return s, nil

	case tea.KeyPressMsg:
		if s.searching {
			return s.updateSearch(msg)
		}
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *Screen) updateSearch(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	if msg.String() == "enter" {
		s.searching = false
		s.search.Blur()
		s.filter.Search = strings.TrimSpace(s.search.Value())
		return s, s.load()
	}
	var cmd tea.Cmd
	s.search, cmd = s.search.Update(msg)
	return s, cmd
}

func (s *Screen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	s.status = ""
	switch msg.String() {
	case "r":
		s.filter.Role = nextOf(signup.Roles(), s.filter.Role)
		return s, s.load()
	case "p":
		s.filter.Plan = nextOf(signup.Plans(), s.filter.Plan)
		return s, s.load()
	case "/":
		s.searching = true
		return s, s.search.Focus()
	case "c":
		s.filter = signup.Filter{}
		s.search.SetValue("")
		return s, s.load()
	case "e":
		return s, s.export("csv")
	case "x":
		return s, s.export("xlsx")
	case "down", "j":
		if s.offset < len(s.items)-1 {
			s.offset++
		}
	case "up", "k":
		if s.offset > 0 {
			s.offset--
		}
	}
	return s, nil
}

// nextOf cycles "" -> vals[0] -> ... -> vals[n-1] -> "".
func nextOf[T ~string](vals []T, cur T) T {
	if cur == "" {
		return vals[0]
	}
	for i, v := range vals {
		if v == cur && i+1 < len(vals) {
			return vals[i+1]
		}
	}
	return ""
}

func (s *Screen) View(width, height int) string {
	var parts []string
	parts = append(parts, s.renderStats(), s.renderFilters())
	if s.searching {
		parts = append(parts, s.search.View())
	}
	if s.err != "" {
		parts = append(parts, theme.ErrorText.Render(s.err))
	}
	if s.status != "" {
		parts = append(parts, theme.Correct.Render(s.status))
	}

	used := lipgloss.Height(strings.Join(parts, "\n"))
	parts = append(parts, s.renderTable(width, max(height-used-1, 5)))
	return strings.Join(parts, "\n")
}

func (s *Screen) renderStats() string {
	st := s.stats
	line := fmt.Sprintf("%s total   %s this week",
		theme.Title.Render(fmt.Sprint(st.Total)),
		theme.Title.Render(fmt.Sprint(st.ThisWeek)))

	var roles []string
	for _, c := range st.TopRoles(4) {
		roles = append(roles, fmt.Sprintf("%s %d", c.Label, c.Count))
	}
	var plans []string
	for _, c := range st.ByPlan {
		if c.Count > 0 {
			plans = append(plans, fmt.Sprintf("%s %d", c.Label, c.Count))
		}
	}
	out := line + "\n" + theme.Subtitle.Render("Roles: "+strings.Join(roles, " · "))
	if len(plans) > 0 {
		out += "\n" + theme.Subtitle.Render("Plans: "+strings.Join(plans, " · "))
	}
	return out
}

func (s *Screen) renderFilters() string {
	label := func(name, v string) string {
		if v == "" {
			v = "all"
		}
		return theme.Hint.Render(name+": ") + theme.Body.Render(v)
	}
	return strings.Join([]string{
		label("role", string(s.filter.Role)),
		label("plan", string(s.filter.Plan)),
		label("search", s.filter.Search),
	}, "   ")
}

func (s *Screen) renderTable(width, height int) string {
	if !s.loaded {
		return theme.Hint.Render("Loading...")
	}
	if len(s.items) == 0 {
		return theme.Hint.Render("No signups match these filters.")
	}

	visible := max(height-4, 1)
	end := min(s.offset+visible, len(s.items))
	rows := make([][]string, 0, end-s.offset)
	for _, it := range s.items[s.offset:end] {
		plans := make([]string, len(it.InterestedPlans))
		for i, p := range it.InterestedPlans {
			plans[i] = string(p)
		}
		rows = append(rows, []string{
			it.Name,
			it.Email,
			it.Role.Label(),
			strings.Join(plans, ", "),
			it.CreatedAt.Local().Format(signup.ExportTimeLayout),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
		Headers("Name", "Email", "Role", "Plans", "Signed up").
		Rows(rows...).
		Width(width).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Foreground(theme.Text).Padding(0, 1)
		})

	footer := theme.Hint.Render(fmt.Sprintf("%d-%d of %d", s.offset+1, end, len(s.items)))
	return t.Render() + "\n" + footer
}
