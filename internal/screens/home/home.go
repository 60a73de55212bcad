// Package home is the TUI start screen.
package home

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/knowgraph/knowgraph/internal/catalog"
	"github.com/knowgraph/knowgraph/internal/router"
	"github.com/knowgraph/knowgraph/internal/screen"
	"github.com/knowgraph/knowgraph/internal/screens/admin"
	"github.com/knowgraph/knowgraph/internal/screens/completion"
	"github.com/knowgraph/knowgraph/internal/screens/demo"
	"github.com/knowgraph/knowgraph/internal/screens/signupform"
	"github.com/knowgraph/knowgraph/internal/session"
	"github.com/knowgraph/knowgraph/internal/signup"
	"github.com/knowgraph/knowgraph/internal/ui/components"
	"github.com/knowgraph/knowgraph/internal/ui/theme"
)

// Deps are the services the home menu hands to the screens it opens.
type Deps struct {
	Catalog      *catalog.Catalog
	Signups      *signup.Service // nil hides the signup entries
	AdvanceDelay time.Duration
	ExportDir    string
	Logger       *slog.Logger
}

// Screen is the main menu.
type Screen struct {
	deps Deps
	menu components.Menu
	err  string
}

var _ screen.Screen = (*Screen)(nil)

const banner = `╦╔═┌┐┌┌─┐┬ ┬╔═╗┬─┐┌─┐┌─┐┬ ┬
╠╩╗││││ ││││║ ╦├┬┘├─┤├─┘├─┤
╩ ╩┘└┘└─┘└┴┘╚═╝┴└─┴ ┴┴  ┴ ┴`

// New creates the home screen.
func New(deps Deps) *Screen {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	h := &Screen{deps: deps}

	items := []components.MenuItem{{
		Label:  "Start the demo",
		Hint:   fmt.Sprintf("%s · %d capsules", deps.Catalog.Title, deps.Catalog.Len()),
		Action: h.startDemo,
	}}
	if deps.Signups != nil {
		items = append(items,
			components.MenuItem{
				Label:  "Join the beta",
				Action: func() tea.Cmd { return router.Push(signupform.New(deps.Signups)) },
			},
			components.MenuItem{
				Label:  "Beta signups",
				Hint:   "admin",
				Action: func() tea.Cmd { return router.Push(admin.New(deps.Signups, deps.ExportDir)) },
			},
		)
	}
	items = append(items, components.MenuItem{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }})
	h.menu = components.NewMenu(items)
	return h
}

// NewDemo starts a session over the catalog and returns its screen.
func NewDemo(deps Deps) (*demo.Screen, error) {
	sess, err := session.New(deps.Catalog,
		session.WithAdvanceDelay(deps.AdvanceDelay),
		session.WithLogger(deps.Logger))
	if err != nil {
		return nil, err
	}
	cat := deps.Catalog
	return demo.New(sess, func(snap session.Snapshot) screen.Screen {
		var join func() screen.Screen
		if deps.Signups != nil {
			join = func() screen.Screen { return signupform.New(deps.Signups) }
		}
		return completion.New(snap, cat, join)
	}), nil
}

func (h *Screen) startDemo() tea.Cmd {
	d, err := NewDemo(h.deps)
	if err != nil {
		h.err = err.Error()
		return nil
	}
	h.err = ""
	return router.Push(d)
}

func (h *Screen) Init() tea.Cmd { return nil }

func (h *Screen) Title() string { return "Home" }

func (h *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *Screen) View(width, height int) string {
	cw := components.ContentWidth(width)
	var sections []string
	sections = append(sections,
		lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(banner),
		theme.Subtitle.Render("Learn a path capsule by capsule. Watch your knowledge graph light up."),
		"",
		h.menu.View(),
	)
	if h.err != "" {
		sections = append(sections, theme.ErrorText.Render(h.err))
	}
	body := lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).Render(strings.Join(sections, "\n"))
	return components.Center(body, width, height)
}
