// Package app hosts the root Bubble Tea model of the terminal client.
package app

import (
	"fmt"
	"os"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/knowgraph/knowgraph/internal/router"
	"github.com/knowgraph/knowgraph/internal/screen"
	"github.com/knowgraph/knowgraph/internal/screens/home"
	"github.com/knowgraph/knowgraph/internal/ui/layout"
)

// Deps are the services shared by every screen.
type Deps = home.Deps

// Model is the root Bubble Tea model.
type Model struct {
	router *router.Router
	width  int
	height int
}

// New creates the root model with the home screen on the stack.
func New(deps Deps) Model {
	return Model{router: router.New(home.New(deps))}
}

// NewWithScreen starts the stack at s instead of the home screen.
func NewWithScreen(s screen.Screen) Model {
	return Model{router: router.New(s)}
}

func (m Model) Init() tea.Cmd {
	if a := m.router.Active(); a != nil {
		return a.Init()
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, m.quit()
		case "esc":
			if m.router.Depth() > 1 {
				return m, router.Pop
			}
			return m, nil
		case "q":
			if !m.capturingText() {
				return m, m.quit()
			}
		}
	}

	return m, m.router.Update(msg)
}

func (m Model) capturingText() bool {
	tc, ok := m.router.Active().(screen.TextCapturer)
	return ok && tc.CapturingText()
}

// quit releases every screen on the stack before exiting.
func (m Model) quit() tea.Cmd {
	m.router.Close()
	return tea.Quit
}

func (m Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	header := m.header(active)
	footer := layout.RenderFooter(m.keyHints(active), m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content := m.router.View(m.width, contentHeight)
	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

func (m Model) header(active screen.Screen) string {
	if active == nil {
		return layout.Header{}.Render(m.width)
	}
	var mastered, total int
	if p, ok := active.(screen.ProgressProvider); ok {
		mastered, total = p.Progress()
	}
	// The root screen's title is the brand already shown on the left.
	title := strings.Join(m.router.Trail()[1:], " › ")
	if title == "" {
		title = active.Title()
	}
	return layout.Header{Title: title, Mastered: mastered, Total: total}.Render(m.width)
}

func (m Model) keyHints(active screen.Screen) []layout.KeyHint {
	if p, ok := active.(screen.KeyHintProvider); ok {
		return p.KeyHints()
	}
	if m.router.Depth() > 1 {
		return []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "q", Description: "Quit"},
	}
}

// Run starts the Bubble Tea program on model.
func Run(model Model) error {
	p := tea.NewProgram(model)
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
