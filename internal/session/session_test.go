package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowgraph/knowgraph/internal/catalog"
	"github.com/knowgraph/knowgraph/internal/mastery"
)

func pathAB() *catalog.Catalog {
	return &catalog.Catalog{
		Version: "v1.0.0",
		Title:   "AB",
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

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) observe(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

func TestNew_ConfigurationError(t *testing.T) {
	_, err := New(&catalog.Catalog{})
	var cfgErr *mastery.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestSubmit_SynchronousAdvance(t *testing.T) {
	s, err := New(pathAB(), WithAdvanceDelay(0), WithID("fixed"))
	require.NoError(t, err)
	assert.Equal(t, "fixed", s.ID())

	rec := &recorder{}
	s.Subscribe(rec.observe)

	require.NoError(t, s.Reveal("A"))
	require.NoError(t, s.Select("A", 0, "x"))
	out, err := s.Submit("A", 0)
	require.NoError(t, err)
	assert.True(t, out.Correct)

	assert.Equal(t, 1, s.Current())
	assert.False(t, s.Revealed("A"), "advancing hides the finished capsule's questions")
	assert.Equal(t, []EventKind{EventRevealed, EventSelected, EventSubmitted, EventAdvanced}, rec.kinds())

	snap := s.Snapshot()
	assert.Equal(t, "B", snap.CurrentID)
	assert.Equal(t, mastery.StateMastered, snap.States["A"])
	assert.Equal(t, mastery.StateViewed, snap.States["B"])
	assert.Equal(t, 50, snap.Analytics.Percent(mastery.StateMastered))
	assert.False(t, snap.Completed)
}

func TestSubmit_CompletionEvent(t *testing.T) {
	s, err := New(pathAB(), WithAdvanceDelay(0))
	require.NoError(t, err)
	rec := &recorder{}
	s.Subscribe(rec.observe)

	require.NoError(t, s.Select("A", 0, "w"))
	_, err = s.Submit("A", 0)
	require.NoError(t, err)
	require.NoError(t, s.Select("B", 0, "y"))
	out, err := s.Submit("B", 0)
	require.NoError(t, err)

	assert.True(t, out.Completed)
	assert.True(t, s.Completed())
	kinds := rec.kinds()
	assert.Equal(t, EventCompleted, kinds[len(kinds)-1])

	// A second submission keeps the path complete without a second event.
	_, err = s.Submit("B", 0)
	require.NoError(t, err)
	completions := 0
	for _, k := range rec.kinds() {
		if k == EventCompleted {
			completions++
		}
	}
	assert.Equal(t, 1, completions)
}

func TestSubmit_MissingAnswer(t *testing.T) {
	s, err := New(pathAB())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Submit("A", 0)
	assert.True(t, mastery.IsMissingAnswer(err))
	assert.False(t, s.AdvancePending())
	st, _ := s.State("A")
	assert.Equal(t, mastery.StateViewed, st)
}

func TestSubmit_DelayedAdvance(t *testing.T) {
	s, err := New(pathAB(), WithAdvanceDelay(20*time.Millisecond))
	require.NoError(t, err)
	defer s.Close()

	advanced := make(chan Event, 1)
	s.Subscribe(func(ev Event) {
		if ev.Kind == EventAdvanced {
			advanced <- ev
		}
	})

	require.NoError(t, s.Select("A", 0, "x"))
	_, err = s.Submit("A", 0)
	require.NoError(t, err)

	assert.Equal(t, 0, s.Current(), "pointer moves only after the delay")
	assert.True(t, s.AdvancePending())

	select {
	case ev := <-advanced:
		assert.Equal(t, "B", ev.CapsuleID)
	case <-time.After(2 * time.Second):
		t.Fatal("advance never fired")
	}
	assert.Equal(t, 1, s.Current())
	assert.False(t, s.AdvancePending())
}

func TestSubmit_StaleAdvanceIsNoop(t *testing.T) {
	s, err := New(pathAB(), WithAdvanceDelay(20*time.Millisecond))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Select("A", 0, "x"))
	_, err = s.Submit("A", 0)
	require.NoError(t, err)

	// Learner navigates away before the timer fires.
	require.NoError(t, s.Goto("B"))
	require.NoError(t, s.Goto("A"))
	assert.False(t, s.AdvancePending(), "navigation cancels the pending advance")

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, s.Current())
}

func TestClose_CancelsAdvance(t *testing.T) {
	s, err := New(pathAB(), WithAdvanceDelay(20*time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, s.Select("A", 0, "x"))
	_, err = s.Submit("A", 0)
	require.NoError(t, err)
	s.Close()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, s.Current())
	assert.True(t, errors.Is(s.Select("A", 0, "x"), ErrClosed))
}

func TestGoto_Locked(t *testing.T) {
	s, err := New(pathAB())
	require.NoError(t, err)
	defer s.Close()

	assert.ErrorIs(t, s.Goto("B"), ErrLocked)
	assert.True(t, mastery.IsNotFound(s.Goto("nope")))
}

func TestSelectAndSubmit_RejectLockedCapsule(t *testing.T) {
	s, err := New(pathAB(), WithAdvanceDelay(0))
	require.NoError(t, err)
	defer s.Close()
	rec := &recorder{}
	s.Subscribe(rec.observe)

	assert.ErrorIs(t, s.Select("B", 0, "y"), ErrLocked)
	_, err = s.Submit("B", 0)
	assert.ErrorIs(t, err, ErrLocked)
	st, err := s.State("B")
	require.NoError(t, err)
	assert.Equal(t, mastery.StateLocked, st)
	_, chosen := s.Selection("B", 0)
	assert.False(t, chosen)
	assert.Empty(t, rec.kinds())

	require.NoError(t, s.Select("A", 0, "w"))
	_, err = s.Submit("A", 0)
	require.NoError(t, err)
	require.NoError(t, s.Select("B", 0, "y"))
	_, err = s.Submit("B", 0)
	require.NoError(t, err)
	st, err = s.State("B")
	require.NoError(t, err)
	assert.Equal(t, mastery.StateMastered, st)
}

func TestUnsubscribe(t *testing.T) {
	s, err := New(pathAB(), WithAdvanceDelay(0))
	require.NoError(t, err)

	rec := &recorder{}
	unsub := s.Subscribe(rec.observe)
	require.NoError(t, s.Reveal("A"))
	unsub()
	require.NoError(t, s.Replay("A"))

	assert.Len(t, rec.kinds(), 1)
}

func TestObserverMayReadSnapshot(t *testing.T) {
	s, err := New(pathAB(), WithAdvanceDelay(0))
	require.NoError(t, err)

	var seen []int
	s.Subscribe(func(ev Event) {
		snap := s.Snapshot()
		seen = append(seen, snap.Analytics.Count(mastery.StateMastered))
	})

	require.NoError(t, s.Select("A", 0, "x"))
	_, err = s.Submit("A", 0)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 1}, seen)
}

func TestScheduler_ReplacesPending(t *testing.T) {
	sch := NewScheduler()
	defer sch.Stop()

	fired := make(chan string, 2)
	sch.Schedule("k", 50*time.Millisecond, func() { fired <- "first" })
	sch.Schedule("k", 10*time.Millisecond, func() { fired <- "second" })

	select {
	case got := <-fired:
		assert.Equal(t, "second", got)
	case <-time.After(time.Second):
		t.Fatal("nothing fired")
	}
	select {
	case got := <-fired:
		t.Fatalf("unexpected extra fire: %s", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestScheduler_StopRejects(t *testing.T) {
	sch := NewScheduler()
	sch.Stop()
	sch.Schedule("k", time.Millisecond, func() { t.Error("should not fire") })
	assert.False(t, sch.Pending("k"))
	time.Sleep(10 * time.Millisecond)
}

func TestManager_Lifecycle(t *testing.T) {
	m := NewManager(pathAB(), ManagerConfig{AdvanceDelay: 0, IdleTTL: time.Minute}, nil)

	var created []string
	m.OnCreate(func(s *Session) { created = append(created, s.ID()) })

	s, err := m.Create()
	require.NoError(t, err)
	assert.Equal(t, []string{s.ID()}, created)

	got, ok := m.Get(s.ID())
	require.True(t, ok)
	assert.Same(t, s, got)

	assert.Equal(t, 0, m.Sweep(time.Now()))
	assert.Equal(t, 1, m.Sweep(time.Now().Add(2*time.Minute)))
	assert.Equal(t, 0, m.Len())
	assert.ErrorIs(t, s.Reveal("A"), ErrClosed)

	s2, err := m.Create()
	require.NoError(t, err)
	assert.True(t, m.End(s2.ID()))
	assert.False(t, m.End(s2.ID()))
}

func TestManager_SetCatalog(t *testing.T) {
	m := NewManager(pathAB(), DefaultManagerConfig(), nil)
	old, err := m.Create()
	require.NoError(t, err)

	m.SetCatalog(catalog.Default())
	fresh, err := m.Create()
	require.NoError(t, err)

	assert.Equal(t, 2, old.Catalog().Len())
	assert.Equal(t, 5, fresh.Catalog().Len())
}
