// Package progression applies answer outcomes to the mastery state store:
// state transitions, successor unlock and path completion.
package progression

import (
	"github.com/knowgraph/knowgraph/internal/catalog"
	"github.com/knowgraph/knowgraph/internal/mastery"
)

// Feedback is the advisory message shown after a submission.
type Feedback struct {
	Title       string
	Description string
}

var (
	correctFeedback = Feedback{Title: "Correct!", Description: "Great understanding!"}
	wrongFeedback   = Feedback{Title: "Not quite right", Description: "Keep learning!"}
)

// Outcome describes everything a submission changed.
type Outcome struct {
	CapsuleID     string
	QuestionIndex int
	Correct       bool

	// Transition is set when the capsule's own state changed.
	Transition *mastery.StateTransition

	// LastQuestion is true when the submitted question was the capsule's final one.
	LastQuestion bool

	// Unlocked is the successor capsule moved to viewed, if any.
	Unlocked *mastery.StateTransition

	// AdvanceTo is the sequence index the current-capsule pointer should move
	// to, or -1 when no advance is due.
	AdvanceTo int

	// Completed is true when, after this submission, every capsule is
	// mastered or weak.
	Completed bool

	Feedback Feedback
}

// Engine enforces the transition rules over a mastery store.
type Engine struct {
	store *mastery.Store
}

// New creates an engine bound to a store.
func New(store *mastery.Store) *Engine {
	return &Engine{store: store}
}

// Store returns the engine's state store.
func (e *Engine) Store() *mastery.Store {
	return e.store
}

// SubmitAnswer evaluates the recorded answer for a question and applies the
// resulting transitions:
//
//   - correct and not yet mastered: mastered
//   - wrong while viewed: weak (mastered is never downgraded)
//   - last question of a capsule: the successor becomes viewed, whatever
//     the outcome of this capsule
//
// Completion is evaluated after these writes.
func (e *Engine) SubmitAnswer(capsuleID string, questionIndex int) (*Outcome, error) {
	q, err := e.store.Question(capsuleID, questionIndex)
	if err != nil {
		return nil, err
	}
	selected, ok := e.store.Answer(capsuleID, questionIndex)
	if !ok {
		return nil, &mastery.MissingAnswerError{CapsuleID: capsuleID, QuestionIndex: questionIndex}
	}

	cat := e.store.Catalog()
	capsule, _ := cat.Capsule(capsuleID)
	from, err := e.store.State(capsuleID)
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		CapsuleID:     capsuleID,
		QuestionIndex: questionIndex,
		Correct:       q.IsCorrect(selected),
		AdvanceTo:     -1,
	}

	to := nextState(from, out.Correct)
	if to != from {
		if err := e.store.SetState(capsuleID, to); err != nil {
			return nil, err
		}
		trigger := "wrong-answer"
		if out.Correct {
			trigger = "correct-answer"
		}
		out.Transition = &mastery.StateTransition{
			CapsuleID:    capsuleID,
			CapsuleTitle: capsule.Title,
			From:         from,
			To:           to,
			Trigger:      trigger,
		}
	}

	if out.Correct {
		out.Feedback = correctFeedback
	} else {
		out.Feedback = wrongFeedback
	}

	if questionIndex == capsule.LastQuestion() {
		out.LastQuestion = true
		if next, ok := cat.Successor(capsuleID); ok {
			t, err := e.unlock(next)
			if err != nil {
				return nil, err
			}
			out.Unlocked = t
			idx, _ := cat.Index(next.ID)
			out.AdvanceTo = idx
		}
		out.Completed = e.store.AllSettled()
	}

	return out, nil
}

// nextState is the pure transition function for a single submission.
func nextState(from mastery.MasteryState, correct bool) mastery.MasteryState {
	switch {
	case correct && from != mastery.StateMastered:
		return mastery.StateMastered
	case !correct && from == mastery.StateViewed:
		return mastery.StateWeak
	default:
		return from
	}
}

// unlock writes viewed to the successor on every last-question submission,
// whatever state it had. A successor that was weak or mastered goes back to
// viewed. The transition is nil only when it was viewed already.
func (e *Engine) unlock(next *catalog.Capsule) (*mastery.StateTransition, error) {
	from, err := e.store.State(next.ID)
	if err != nil {
		return nil, err
	}
	if err := e.store.SetState(next.ID, mastery.StateViewed); err != nil {
		return nil, err
	}
	if from == mastery.StateViewed {
		return nil, nil
	}
	return &mastery.StateTransition{
		CapsuleID:    next.ID,
		CapsuleTitle: next.Title,
		From:         from,
		To:           mastery.StateViewed,
		Trigger:      "unlock",
	}, nil
}
