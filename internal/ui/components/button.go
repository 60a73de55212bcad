package components

import (
	"github.com/knowgraph/knowgraph/internal/ui/theme"
)

// Button is a form's call to action. The owning screen handles enter; the
// button only tracks focus and whether a request is in flight.
type Button struct {
	Label     string
	BusyLabel string
	Focused   bool
	Busy      bool
}

func NewButton(label, busyLabel string) Button {
	return Button{Label: label, BusyLabel: busyLabel}
}

func (b Button) View() string {
	label := b.Label
	if b.Busy && b.BusyLabel != "" {
		label = b.BusyLabel
	}
	switch {
	case b.Busy:
		return theme.ButtonInactive.Render(label)
	case b.Focused:
		return theme.ButtonActive.Render(Cursor + label)
	default:
		return theme.ButtonInactive.Render("  " + label)
	}
}
