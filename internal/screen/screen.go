// Package screen is the contract between the router and the TUI screens.
// Beyond Screen itself, a screen opts into extra behaviour by implementing
// the small interfaces below.
package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/knowgraph/knowgraph/internal/ui/layout"
)

// Screen is one page of the TUI. View renders only the area between the
// header and footer bars.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)
	View(width, height int) string
	Title() string
}

// KeyHintProvider replaces the app's default footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// ProgressProvider feeds the "n/m mastered" counter in the header.
type ProgressProvider interface {
	Progress() (mastered, total int)
}

// Closer releases what a screen holds (a session, timers) when it leaves
// the stack or the app exits.
type Closer interface {
	Close()
}

// TextCapturer reports whether printable keys currently belong to the
// screen. While true, "q" is typed instead of quitting.
type TextCapturer interface {
	CapturingText() bool
}
