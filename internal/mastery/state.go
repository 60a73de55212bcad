package mastery

// MasteryState represents a capsule's position in the mastery lifecycle.
type MasteryState string

const (
	StateLocked   MasteryState = "locked"
	StateViewed   MasteryState = "viewed"
	StateWeak     MasteryState = "weak"
	StateMastered MasteryState = "mastered"
)

// AllStates lists the states in analytics display order.
func AllStates() []MasteryState {
	return []MasteryState{StateMastered, StateViewed, StateWeak, StateLocked}
}

// Valid reports whether s is one of the four known states.
func (s MasteryState) Valid() bool {
	switch s {
	case StateLocked, StateViewed, StateWeak, StateMastered:
		return true
	}
	return false
}

// Label returns the human-readable name of the state.
func (s MasteryState) Label() string {
	switch s {
	case StateLocked:
		return "Locked"
	case StateViewed:
		return "Viewed"
	case StateWeak:
		return "Needs Review"
	case StateMastered:
		return "Mastered"
	}
	return string(s)
}

// Icon returns a single-glyph marker for terminal rendering.
func (s MasteryState) Icon() string {
	switch s {
	case StateLocked:
		return "🔒"
	case StateViewed:
		return "◉"
	case StateWeak:
		return "▲"
	case StateMastered:
		return "✓"
	}
	return "?"
}

// Settled reports whether the state counts toward path completion.
func (s MasteryState) Settled() bool {
	return s == StateMastered || s == StateWeak
}

// StateTransition records a mastery state change for display and notification.
type StateTransition struct {
	CapsuleID    string
	CapsuleTitle string
	From         MasteryState
	To           MasteryState
	Trigger      string // "correct-answer", "wrong-answer", "unlock", "init"
}

// Changed reports whether the transition moved the capsule to a new state.
func (t StateTransition) Changed() bool {
	return t.From != t.To
}
