package demo

import (
	"github.com/knowgraph/knowgraph/internal/session"
)

// sessionEventMsg carries a session event from the observer into the
// Bubble Tea loop.
type sessionEventMsg struct {
	Event session.Event
}

// streamClosedMsg is delivered once the screen has been closed.
type streamClosedMsg struct{}
