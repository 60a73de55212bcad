// Package session owns one learner's run through a catalog: the mastery
// store, the progression engine, the current-capsule pointer and the
// observers that redraw when any of them change.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/knowgraph/knowgraph/internal/analytics"
	"github.com/knowgraph/knowgraph/internal/catalog"
	"github.com/knowgraph/knowgraph/internal/graphview"
	"github.com/knowgraph/knowgraph/internal/mastery"
	"github.com/knowgraph/knowgraph/internal/progression"
)

// DefaultAdvanceDelay is how long the pointer waits on a finished capsule
// before moving to the next one.
const DefaultAdvanceDelay = 1500 * time.Millisecond

// EventKind identifies what changed in a session.
type EventKind string

const (
	EventSelected  EventKind = "answer-selected"
	EventSubmitted EventKind = "answer-submitted"
	EventAdvanced  EventKind = "advanced"
	EventRevealed  EventKind = "revealed"
	EventCompleted EventKind = "completed"
	EventEnded     EventKind = "ended"
)

// Event is delivered to observers after every mutation.
type Event struct {
	SessionID string
	Kind      EventKind
	CapsuleID string
	Outcome   *progression.Outcome
	At        time.Time
}

// Observer receives session events. Observers run synchronously on the
// goroutine that caused the change and must not block.
type Observer func(Event)

// Snapshot is a read-only view of a session, recomputed on every call.
type Snapshot struct {
	ID        string                          `json:"id"`
	Title     string                          `json:"title"`
	States    map[string]mastery.MasteryState `json:"states"`
	Analytics analytics.Snapshot              `json:"analytics"`
	Graph     graphview.View                  `json:"graph"`
	Current   int                             `json:"current"`
	CurrentID string                          `json:"current_id"`
	Revealed  map[string]bool                 `json:"revealed"`
	Completed bool                            `json:"completed"`
}

// Session is a single learner's progress through a catalog.
// All methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	id        string
	catalog   *catalog.Catalog
	store     *mastery.Store
	engine    *progression.Engine
	current   int
	completed bool
	revealed  map[string]bool
	closed    bool

	observers map[int]Observer
	nextObs   int

	scheduler    *Scheduler
	ownScheduler bool
	advanceDelay time.Duration
	logger       *slog.Logger

	createdAt  time.Time
	lastActive time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithScheduler shares a scheduler between sessions.
func WithScheduler(s *Scheduler) Option {
	return func(sess *Session) { sess.scheduler = s }
}

// WithAdvanceDelay overrides DefaultAdvanceDelay. A delay of zero or less
// advances the pointer synchronously inside Submit.
func WithAdvanceDelay(d time.Duration) Option {
	return func(sess *Session) { sess.advanceDelay = d }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(sess *Session) { sess.logger = l }
}

// WithID fixes the session ID instead of generating one.
func WithID(id string) Option {
	return func(sess *Session) { sess.id = id }
}

// New starts a session over the catalog. A catalog with no capsules, or a
// capsule with no questions, yields a *mastery.ConfigurationError.
func New(cat *catalog.Catalog, opts ...Option) (*Session, error) {
	store, err := mastery.NewStore(cat)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	s := &Session{
		catalog:      cat,
		store:        store,
		engine:       progression.New(store),
		revealed:     make(map[string]bool),
		observers:    make(map[int]Observer),
		advanceDelay: DefaultAdvanceDelay,
		logger:       slog.Default(),
		createdAt:    now,
		lastActive:   now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	if s.scheduler == nil {
		s.scheduler = NewScheduler()
		s.ownScheduler = true
	}
	s.logger = s.logger.With(slog.String("session", s.id))
	s.logger.Debug("session started", slog.Int("capsules", cat.Len()))
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Catalog returns the catalog the session runs over.
func (s *Session) Catalog() *catalog.Catalog { return s.catalog }

// Subscribe registers an observer and returns a function that removes it.
func (s *Session) Subscribe(fn Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

// Select records the learner's chosen option for a question.
func (s *Session) Select(capsuleID string, questionIndex int, option string) error {
	s.mu.Lock()
	if err := s.checkOpen(); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.checkUnlocked("select", capsuleID); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.store.RecordAnswer(capsuleID, questionIndex, option); err != nil {
		s.mu.Unlock()
		return err
	}
	s.touch()
	obs := s.observerList()
	s.mu.Unlock()

	s.emit(obs, Event{Kind: EventSelected, CapsuleID: capsuleID})
	return nil
}

// Selection returns the currently recorded option for a question.
func (s *Session) Selection(capsuleID string, questionIndex int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Answer(capsuleID, questionIndex)
}

// Submit evaluates the recorded answer for a question. When the question is
// the capsule's last and the pointer is on that capsule, the pointer advance
// to the successor is scheduled.
func (s *Session) Submit(capsuleID string, questionIndex int) (*progression.Outcome, error) {
	s.mu.Lock()
	if err := s.checkOpen(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if err := s.checkUnlocked("submit", capsuleID); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	out, err := s.engine.SubmitAnswer(capsuleID, questionIndex)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.touch()

	becameComplete := out.Completed && !s.completed
	if out.Completed {
		s.completed = true
	}

	var advanced bool
	if out.AdvanceTo >= 0 {
		from, _ := s.catalog.Index(capsuleID)
		to := out.AdvanceTo
		if s.advanceDelay <= 0 {
			advanced = s.advanceLocked(from, to, capsuleID)
		} else {
			s.scheduler.Schedule(s.id, s.advanceDelay, func() { s.advance(from, to, capsuleID) })
		}
	}
	obs := s.observerList()
	s.mu.Unlock()

	s.logger.Debug("answer submitted",
		slog.String("capsule", capsuleID),
		slog.Int("question", questionIndex),
		slog.Bool("correct", out.Correct))

	s.emit(obs, Event{Kind: EventSubmitted, CapsuleID: capsuleID, Outcome: out})
	if advanced {
		s.emit(obs, Event{Kind: EventAdvanced, CapsuleID: s.catalog.Capsules[out.AdvanceTo].ID})
	}
	if becameComplete {
		s.emit(obs, Event{Kind: EventCompleted})
	}
	return out, nil
}

// advance runs on the scheduler goroutine.
func (s *Session) advance(from, to int, source string) {
	s.mu.Lock()
	ok := s.advanceLocked(from, to, source)
	obs := s.observerList()
	s.mu.Unlock()

	if ok {
		s.emit(obs, Event{Kind: EventAdvanced, CapsuleID: s.catalog.Capsules[to].ID})
	}
}

// advanceLocked moves the pointer only if it still sits where it was when
// the advance was requested. Stale or repeated advances are no-ops.
func (s *Session) advanceLocked(from, to int, source string) bool {
	if s.closed || s.current != from || from == to {
		return false
	}
	s.current = to
	s.revealed[source] = false
	return true
}

// Goto moves the pointer to an unlocked capsule.
func (s *Session) Goto(capsuleID string) error {
	s.mu.Lock()
	if err := s.checkOpen(); err != nil {
		s.mu.Unlock()
		return err
	}
	idx, ok := s.catalog.Index(capsuleID)
	if !ok {
		s.mu.Unlock()
		return &mastery.NotFoundError{CapsuleID: capsuleID, QuestionIndex: -1}
	}
	st, _ := s.store.State(capsuleID)
	if st == mastery.StateLocked {
		s.mu.Unlock()
		return fmt.Errorf("goto %q: %w", capsuleID, ErrLocked)
	}
	s.scheduler.Cancel(s.id)
	s.current = idx
	s.touch()
	obs := s.observerList()
	s.mu.Unlock()

	s.emit(obs, Event{Kind: EventAdvanced, CapsuleID: capsuleID})
	return nil
}

// Reveal shows a capsule's questions, as after the capsule media ends.
func (s *Session) Reveal(capsuleID string) error {
	return s.setRevealed(capsuleID, true)
}

// Replay hides a capsule's questions again.
func (s *Session) Replay(capsuleID string) error {
	return s.setRevealed(capsuleID, false)
}

func (s *Session) setRevealed(capsuleID string, v bool) error {
	s.mu.Lock()
	if err := s.checkOpen(); err != nil {
		s.mu.Unlock()
		return err
	}
	if _, ok := s.catalog.Capsule(capsuleID); !ok {
		s.mu.Unlock()
		return &mastery.NotFoundError{CapsuleID: capsuleID, QuestionIndex: -1}
	}
	s.revealed[capsuleID] = v
	s.touch()
	obs := s.observerList()
	s.mu.Unlock()

	s.emit(obs, Event{Kind: EventRevealed, CapsuleID: capsuleID})
	return nil
}

// Revealed reports whether a capsule's questions are visible.
func (s *Session) Revealed(capsuleID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revealed[capsuleID]
}

// State returns one capsule's mastery state.
func (s *Session) State(capsuleID string) (mastery.MasteryState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.State(capsuleID)
}

// Current returns the sequence index of the current capsule.
func (s *Session) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Completed reports whether every capsule is mastered or weak.
func (s *Session) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// AdvancePending reports whether a pointer advance is waiting to fire.
func (s *Session) AdvancePending() bool {
	return s.scheduler.Pending(s.id)
}

// CreatedAt returns when the session started.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// LastActive returns the time of the last mutation.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Snapshot derives analytics and the graph view from the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	states := s.store.States()
	return Snapshot{
		ID:        s.id,
		Title:     s.catalog.Title,
		States:    states,
		Analytics: analytics.ComputeSnapshot(states),
		Graph:     graphview.Build(s.catalog, states, s.current),
		Current:   s.current,
		CurrentID: s.catalog.Capsules[s.current].ID,
		Revealed:  maps.Clone(s.revealed),
		Completed: s.completed,
	}
}

// Close cancels any pending advance and notifies observers. Further
// mutations fail.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.ownScheduler {
		s.scheduler.Stop()
	} else {
		s.scheduler.Cancel(s.id)
	}
	obs := s.observerList()
	s.mu.Unlock()

	s.logger.Debug("session ended")
	s.emit(obs, Event{Kind: EventEnded})
}

var (
	// ErrClosed is returned by mutations on an ended session.
	ErrClosed = errors.New("session has ended")
	// ErrLocked is returned by Goto, Select and Submit for a capsule that is
	// still locked.
	ErrLocked = errors.New("capsule is locked")
)

// checkUnlocked rejects answers on a locked capsule. A capsule leaves locked
// only through its predecessor's last question. Callers hold s.mu.
func (s *Session) checkUnlocked(op, capsuleID string) error {
	st, err := s.store.State(capsuleID)
	if err != nil {
		return err
	}
	if st == mastery.StateLocked {
		return fmt.Errorf("%s %q: %w", op, capsuleID, ErrLocked)
	}
	return nil
}

func (s *Session) checkOpen() error {
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *Session) touch() {
	s.lastActive = time.Now()
}

func (s *Session) observerList() []Observer {
	out := make([]Observer, 0, len(s.observers))
	for i := 0; i < s.nextObs; i++ {
		if fn, ok := s.observers[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func (s *Session) emit(obs []Observer, ev Event) {
	ev.SessionID = s.id
	ev.At = time.Now()
	for _, fn := range obs {
		fn(ev)
	}
}
