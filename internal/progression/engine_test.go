package progression

import (
	"errors"
	"testing"

	"github.com/knowgraph/knowgraph/internal/catalog"
	"github.com/knowgraph/knowgraph/internal/mastery"
)

// pathAB builds A (one question, correct "x") followed by B (one question,
// correct "y").
func pathAB() *catalog.Catalog {
	return &catalog.Catalog{
		Version: "v1.0.0",
		Capsules: []catalog.Capsule{
			{ID: "A", Title: "A", Questions: []catalog.Question{
				{Prompt: "qa", Options: []string{"x", "w"}, CorrectOption: "x"},
			}},
			{ID: "B", Title: "B", Questions: []catalog.Question{
				{Prompt: "qb", Options: []string{"y", "w"}, CorrectOption: "y"},
			}},
		},
		Edges: []catalog.Edge{{From: "A", To: "B"}},
	}
}

func newEngine(t *testing.T, cat *catalog.Catalog) *Engine {
	t.Helper()
	s, err := mastery.NewStore(cat)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return New(s)
}

func answer(t *testing.T, e *Engine, id string, qi int, option string) *Outcome {
	t.Helper()
	if err := e.Store().RecordAnswer(id, qi, option); err != nil {
		t.Fatalf("RecordAnswer(%s, %d): %v", id, qi, err)
	}
	out, err := e.SubmitAnswer(id, qi)
	if err != nil {
		t.Fatalf("SubmitAnswer(%s, %d): %v", id, qi, err)
	}
	return out
}

func state(t *testing.T, e *Engine, id string) mastery.MasteryState {
	t.Helper()
	st, err := e.Store().State(id)
	if err != nil {
		t.Fatalf("State(%s): %v", id, err)
	}
	return st
}

func TestScenario_CorrectAnswerUnlocksSuccessor(t *testing.T) {
	e := newEngine(t, pathAB())

	out := answer(t, e, "A", 0, "x")

	if got := state(t, e, "A"); got != mastery.StateMastered {
		t.Errorf("A = %s, want mastered", got)
	}
	if got := state(t, e, "B"); got != mastery.StateViewed {
		t.Errorf("B = %s, want viewed", got)
	}
	if out.Completed {
		t.Error("completion should be false")
	}
	if !out.Correct || out.Feedback.Title != "Correct!" {
		t.Errorf("outcome = %+v", out)
	}
	if out.AdvanceTo != 1 {
		t.Errorf("AdvanceTo = %d, want 1", out.AdvanceTo)
	}
	if out.Unlocked == nil || out.Unlocked.CapsuleID != "B" || out.Unlocked.From != mastery.StateLocked {
		t.Errorf("Unlocked = %+v", out.Unlocked)
	}
}

func TestScenario_CompletionAfterLastCapsule(t *testing.T) {
	e := newEngine(t, pathAB())
	answer(t, e, "A", 0, "x")

	out := answer(t, e, "B", 0, "y")

	if got := state(t, e, "B"); got != mastery.StateMastered {
		t.Errorf("B = %s, want mastered", got)
	}
	if !out.Completed {
		t.Error("completion should be true once every capsule is settled")
	}
	if out.AdvanceTo != -1 {
		t.Errorf("AdvanceTo = %d, want -1 (no successor)", out.AdvanceTo)
	}
}

func TestScenario_WrongAnswerStillUnlocks(t *testing.T) {
	e := newEngine(t, pathAB())

	out := answer(t, e, "A", 0, "w")

	if got := state(t, e, "A"); got != mastery.StateWeak {
		t.Errorf("A = %s, want weak", got)
	}
	if got := state(t, e, "B"); got != mastery.StateViewed {
		t.Errorf("B = %s, want viewed", got)
	}
	if out.Correct || out.Feedback.Title != "Not quite right" {
		t.Errorf("outcome = %+v", out)
	}
}

func TestScenario_MissingAnswer(t *testing.T) {
	e := newEngine(t, pathAB())

	_, err := e.SubmitAnswer("A", 0)

	var missing *mastery.MissingAnswerError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingAnswerError, got %v", err)
	}
	if missing.UserMessage() != "Please select an answer" {
		t.Errorf("UserMessage = %q", missing.UserMessage())
	}
	if got := state(t, e, "A"); got != mastery.StateViewed {
		t.Errorf("A = %s, want viewed (unchanged)", got)
	}
	if got := state(t, e, "B"); got != mastery.StateLocked {
		t.Errorf("B = %s, want locked (unchanged)", got)
	}
}

func TestScenario_MasteredIsSticky(t *testing.T) {
	cat := &catalog.Catalog{
		Version: "v1.0.0",
		Capsules: []catalog.Capsule{
			{ID: "A", Title: "A", Questions: []catalog.Question{
				{Prompt: "q1", Options: []string{"x", "w"}, CorrectOption: "x"},
				{Prompt: "q2", Options: []string{"x", "w"}, CorrectOption: "x"},
			}},
			{ID: "B", Title: "B", Questions: []catalog.Question{
				{Prompt: "qb", Options: []string{"y", "w"}, CorrectOption: "y"},
			}},
		},
	}
	e := newEngine(t, cat)

	answer(t, e, "A", 0, "x")
	out := answer(t, e, "A", 1, "w")

	if got := state(t, e, "A"); got != mastery.StateMastered {
		t.Errorf("A = %s, want mastered", got)
	}
	if out.Transition != nil {
		t.Errorf("expected no transition, got %+v", out.Transition)
	}
	if got := state(t, e, "B"); got != mastery.StateViewed {
		t.Errorf("B = %s, want viewed", got)
	}
}

func TestWeakUpgradesOnCorrect(t *testing.T) {
	cat := pathAB()
	cat.Capsules[0].Questions = append(cat.Capsules[0].Questions,
		catalog.Question{Prompt: "q2", Options: []string{"x", "w"}, CorrectOption: "x"})
	e := newEngine(t, cat)

	answer(t, e, "A", 0, "w")
	if got := state(t, e, "A"); got != mastery.StateWeak {
		t.Fatalf("A = %s, want weak", got)
	}
	if got := state(t, e, "B"); got != mastery.StateLocked {
		t.Errorf("B = %s, want locked before last question", got)
	}

	out := answer(t, e, "A", 1, "x")
	if got := state(t, e, "A"); got != mastery.StateMastered {
		t.Errorf("A = %s, want mastered", got)
	}
	if out.Transition == nil || out.Transition.From != mastery.StateWeak {
		t.Errorf("Transition = %+v", out.Transition)
	}
}

func TestWrongOnWeakStaysWeak(t *testing.T) {
	cat := pathAB()
	cat.Capsules[0].Questions = append(cat.Capsules[0].Questions,
		catalog.Question{Prompt: "q2", Options: []string{"x", "w"}, CorrectOption: "x"})
	e := newEngine(t, cat)

	answer(t, e, "A", 0, "w")
	answer(t, e, "A", 1, "w")
	if got := state(t, e, "A"); got != mastery.StateWeak {
		t.Errorf("A = %s, want weak", got)
	}
}

func TestCompletionWithWeakCapsules(t *testing.T) {
	e := newEngine(t, pathAB())
	answer(t, e, "A", 0, "w")
	out := answer(t, e, "B", 0, "w")
	if !out.Completed {
		t.Error("weak + weak should complete the path")
	}
}

func TestResubmittingLastQuestionResetsSuccessor(t *testing.T) {
	e := newEngine(t, pathAB())
	answer(t, e, "A", 0, "x")
	if out := answer(t, e, "B", 0, "y"); !out.Completed {
		t.Fatal("path should be complete after B")
	}

	out := answer(t, e, "A", 0, "x")
	if got := state(t, e, "B"); got != mastery.StateViewed {
		t.Errorf("B = %s, want viewed", got)
	}
	if out.Unlocked == nil || out.Unlocked.From != mastery.StateMastered || out.Unlocked.To != mastery.StateViewed {
		t.Errorf("Unlocked = %+v, want mastered -> viewed", out.Unlocked)
	}
	if out.Completed {
		t.Error("completion must be re-evaluated after B returns to viewed")
	}
}

func TestResubmitCorrectIsIdempotent(t *testing.T) {
	e := newEngine(t, pathAB())

	first := answer(t, e, "A", 0, "x")
	if first.Transition == nil || first.Transition.To != mastery.StateMastered {
		t.Fatalf("first submit transition = %+v, want -> mastered", first.Transition)
	}
	second, err := e.SubmitAnswer("A", 0)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if second.Transition != nil {
		t.Errorf("second submit transition = %+v, want none", second.Transition)
	}
	if got := state(t, e, "A"); got != mastery.StateMastered {
		t.Errorf("A = %s, want mastered", got)
	}
}

func TestSubmitAnswer_UnknownReferences(t *testing.T) {
	e := newEngine(t, pathAB())
	if _, err := e.SubmitAnswer("Z", 0); !mastery.IsNotFound(err) {
		t.Errorf("unknown capsule: got %v", err)
	}
	if _, err := e.SubmitAnswer("A", 3); !mastery.IsNotFound(err) {
		t.Errorf("unknown question: got %v", err)
	}
}

func TestDefaultCatalogFullRun(t *testing.T) {
	cat := catalog.Default()
	e := newEngine(t, cat)

	var last *Outcome
	for _, c := range cat.Capsules {
		for qi, q := range c.Questions {
			last = answer(t, e, c.ID, qi, q.CorrectOption)
		}
	}
	if !last.Completed {
		t.Error("answering every question correctly should complete the path")
	}
	for _, id := range cat.IDs() {
		if got := state(t, e, id); got != mastery.StateMastered {
			t.Errorf("%s = %s, want mastered", id, got)
		}
	}
}

func TestNextState(t *testing.T) {
	tests := []struct {
		from    mastery.MasteryState
		correct bool
		want    mastery.MasteryState
	}{
		{mastery.StateViewed, true, mastery.StateMastered},
		{mastery.StateViewed, false, mastery.StateWeak},
		{mastery.StateWeak, true, mastery.StateMastered},
		{mastery.StateWeak, false, mastery.StateWeak},
		{mastery.StateMastered, true, mastery.StateMastered},
		{mastery.StateMastered, false, mastery.StateMastered},
		{mastery.StateLocked, false, mastery.StateLocked},
		{mastery.StateLocked, true, mastery.StateMastered},
	}
	for _, tt := range tests {
		if got := nextState(tt.from, tt.correct); got != tt.want {
			t.Errorf("nextState(%s, %v) = %s, want %s", tt.from, tt.correct, got, tt.want)
		}
	}
}
