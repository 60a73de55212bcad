package mastery

import (
	"maps"

	"github.com/knowgraph/knowgraph/internal/catalog"
)

type answerKey struct {
	capsuleID string
	question  int
}

// Store holds the per-session mastery state of every capsule and the
// learner's selected answers. It is not safe for concurrent use; the owning
// session serializes access.
type Store struct {
	catalog *catalog.Catalog
	states  map[string]MasteryState
	answers map[answerKey]string
}

// NewStore creates a store initialized from the catalog: the first capsule
// in sequence is viewed and all others are locked.
func NewStore(cat *catalog.Catalog) (*Store, error) {
	s := &Store{}
	if err := s.Initialize(cat); err != nil {
		return nil, err
	}
	return s, nil
}

// Initialize resets the store for a new session. On error the store is left
// untouched.
func (s *Store) Initialize(cat *catalog.Catalog) error {
	if cat == nil || cat.Len() == 0 {
		return &ConfigurationError{Reason: "catalog has no capsules"}
	}
	for i := range cat.Capsules {
		if len(cat.Capsules[i].Questions) == 0 {
			return &ConfigurationError{Reason: "capsule " + cat.Capsules[i].ID + " has no questions"}
		}
	}

	states := make(map[string]MasteryState, cat.Len())
	for i := range cat.Capsules {
		states[cat.Capsules[i].ID] = StateLocked
	}
	states[cat.Capsules[0].ID] = StateViewed

	s.catalog = cat
	s.states = states
	s.answers = make(map[answerKey]string)
	return nil
}

// Catalog returns the catalog the store was initialized with.
func (s *Store) Catalog() *catalog.Catalog {
	return s.catalog
}

// State returns the current state of a capsule.
func (s *Store) State(capsuleID string) (MasteryState, error) {
	st, ok := s.states[capsuleID]
	if !ok {
		return "", &NotFoundError{CapsuleID: capsuleID, QuestionIndex: -1}
	}
	return st, nil
}

// SetState overwrites a capsule's state. Transition rules are enforced by the
// caller, not here.
func (s *Store) SetState(capsuleID string, state MasteryState) error {
	if _, ok := s.states[capsuleID]; !ok {
		return &NotFoundError{CapsuleID: capsuleID, QuestionIndex: -1}
	}
	s.states[capsuleID] = state
	return nil
}

// RecordAnswer stores the learner's selected option for a question,
// replacing any earlier selection. Mastery state is not affected.
func (s *Store) RecordAnswer(capsuleID string, questionIndex int, option string) error {
	if option == "" {
		return ErrEmptySelection
	}
	if _, err := s.question(capsuleID, questionIndex); err != nil {
		return err
	}
	s.answers[answerKey{capsuleID, questionIndex}] = option
	return nil
}

// Answer returns the recorded selection for a question, if any.
func (s *Store) Answer(capsuleID string, questionIndex int) (string, bool) {
	a, ok := s.answers[answerKey{capsuleID, questionIndex}]
	return a, ok
}

// Question resolves a question reference against the catalog.
func (s *Store) Question(capsuleID string, questionIndex int) (*catalog.Question, error) {
	return s.question(capsuleID, questionIndex)
}

func (s *Store) question(capsuleID string, questionIndex int) (*catalog.Question, error) {
	c, ok := s.catalog.Capsule(capsuleID)
	if !ok {
		return nil, &NotFoundError{CapsuleID: capsuleID, QuestionIndex: -1}
	}
	if questionIndex < 0 || questionIndex >= len(c.Questions) {
		return nil, &NotFoundError{CapsuleID: capsuleID, QuestionIndex: questionIndex}
	}
	return &c.Questions[questionIndex], nil
}

// States returns a copy of the state map.
func (s *Store) States() map[string]MasteryState {
	return maps.Clone(s.states)
}

// Counts returns the number of capsules in each state.
func (s *Store) Counts() map[MasteryState]int {
	out := make(map[MasteryState]int, 4)
	for _, st := range s.states {
		out[st]++
	}
	return out
}

// AllSettled reports whether every capsule is mastered or weak.
func (s *Store) AllSettled() bool {
	for _, st := range s.states {
		if !st.Settled() {
			return false
		}
	}
	return true
}
