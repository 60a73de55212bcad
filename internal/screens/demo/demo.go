// Package demo is the interactive learning-path screen: capsule content,
// comprehension questions, the path list, live analytics and the
// knowledge graph.
package demo

import (
	"errors"
	"sync"

	tea "charm.land/bubbletea/v2"

	"github.com/knowgraph/knowgraph/internal/mastery"
	"github.com/knowgraph/knowgraph/internal/progression"
	"github.com/knowgraph/knowgraph/internal/router"
	"github.com/knowgraph/knowgraph/internal/screen"
	"github.com/knowgraph/knowgraph/internal/session"
	"github.com/knowgraph/knowgraph/internal/ui/components"
	"github.com/knowgraph/knowgraph/internal/ui/layout"
)

// CompletionFunc builds the screen pushed once the path is complete.
type CompletionFunc func(session.Snapshot) screen.Screen

// Screen drives one session from the terminal.
type Screen struct {
	sess       *session.Session
	onComplete CompletionFunc

	events      chan session.Event
	done        chan struct{}
	closeOnce   sync.Once
	unsubscribe func()

	viewing  string // capsule whose questions are on screen
	choices  []components.MultiChoice
	qi       int
	outcomes map[string]map[int]*progression.Outcome

	snap          session.Snapshot
	errMsg        string
	showGraph     bool
	completeShown bool
}

var (
	_ screen.Screen           = (*Screen)(nil)
	_ screen.KeyHintProvider  = (*Screen)(nil)
	_ screen.ProgressProvider = (*Screen)(nil)
	_ screen.Closer           = (*Screen)(nil)
)

// New creates a demo screen over sess. The screen owns the session and
// closes it when it leaves the stack. onComplete may be nil.
func New(sess *session.Session, onComplete CompletionFunc) *Screen {
	s := &Screen{
		sess:       sess,
		onComplete: onComplete,
		events:     make(chan session.Event, 32),
		done:       make(chan struct{}),
		outcomes:   make(map[string]map[int]*progression.Outcome),
	}
	s.sync()
	return s
}

func (s *Screen) Init() tea.Cmd {
	s.unsubscribe = s.sess.Subscribe(func(ev session.Event) {
		select {
		case s.events <- ev:
		default:
			// Full buffer: the next delivered event resyncs from a snapshot.
		}
	})
	return s.waitForEvent()
}

func (s *Screen) waitForEvent() tea.Cmd {
	events, done := s.events, s.done
	return func() tea.Msg {
		select {
		case ev := <-events:
			return sessionEventMsg{Event: ev}
		case <-done:
			return streamClosedMsg{}
		}
	}
}

// Close detaches from the session and ends it.
func (s *Screen) Close() {
	s.closeOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		close(s.done)
		s.sess.Close()
	})
}

func (s *Screen) Title() string {
	return s.snap.Title
}

// Progress implements screen.ProgressProvider.
func (s *Screen) Progress() (int, int) {
	return s.snap.Analytics.MasteredRatio()
}

func (s *Screen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{}
	if s.snap.Revealed[s.viewing] {
		hints = append(hints,
			layout.KeyHint{Key: "↑↓/a-d", Description: "Choose"},
			layout.KeyHint{Key: "s", Description: "Submit"},
			layout.KeyHint{Key: "Tab", Description: "Next question"},
			layout.KeyHint{Key: "p", Description: "Replay"},
		)
	} else {
		hints = append(hints, layout.KeyHint{Key: "r", Description: "Reveal questions"})
	}
	return append(hints,
		layout.KeyHint{Key: "[ ]", Description: "Capsule"},
		layout.KeyHint{Key: "g", Description: "Graph"},
		layout.KeyHint{Key: "Esc", Description: "Back"},
	)
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionEventMsg:
		return s.handleEvent(msg.Event)

	case streamClosedMsg:
		return s, nil

	case components.OptionChosenMsg:
		s.errMsg = ""
		if err := s.sess.Select(s.viewing, s.qi, msg.Option); err != nil {
			s.errMsg = err.Error()
			return s, nil
		}
		delete(s.outcomeMap(s.viewing), s.qi)
		return s, nil

	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *Screen) handleEvent(ev session.Event) (screen.Screen, tea.Cmd) {
	s.sync()
	if ev.Kind == session.EventEnded {
		return s, nil
	}
	wait := s.waitForEvent()
	if s.snap.Completed && !s.completeShown && s.onComplete != nil {
		s.completeShown = true
		return s, tea.Batch(wait, router.Push(s.onComplete(s.snap)))
	}
	return s, wait
}

func (s *Screen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	revealed := s.snap.Revealed[s.viewing]
	switch msg.String() {
	case "r":
		if !revealed {
			s.apply(s.sess.Reveal(s.viewing))
		}
		return s, nil
	case "p":
		if revealed {
			s.apply(s.sess.Replay(s.viewing))
		}
		return s, nil
	case "g":
		s.showGraph = !s.showGraph
		return s, nil
	case "[":
		s.step(-1)
		return s, nil
	case "]":
		s.step(1)
		return s, nil
	}

	if !revealed || len(s.choices) == 0 {
		return s, nil
	}

	switch msg.String() {
	case "tab":
		s.focusQuestion((s.qi + 1) % len(s.choices))
		return s, nil
	case "shift+tab":
		s.focusQuestion((s.qi + len(s.choices) - 1) % len(s.choices))
		return s, nil
	case "s":
		s.submit()
		return s, nil
	}

	var cmd tea.Cmd
	s.choices[s.qi], cmd = s.choices[s.qi].Update(msg)
	return s, cmd
}

func (s *Screen) submit() {
	s.errMsg = ""
	out, err := s.sess.Submit(s.viewing, s.qi)
	if err != nil {
		var missing *mastery.MissingAnswerError
		if errors.As(err, &missing) {
			s.errMsg = missing.UserMessage()
		} else {
			s.errMsg = err.Error()
		}
		return
	}
	s.outcomeMap(out.CapsuleID)[out.QuestionIndex] = out
	if out.CapsuleID == s.viewing && out.QuestionIndex < len(s.choices) {
		s.choices[out.QuestionIndex].Grade(out.Correct)
		if !out.LastQuestion {
			s.focusQuestion(out.QuestionIndex + 1)
		}
	}
}

// step moves the pointer to the neighbouring capsule in sequence order.
func (s *Screen) step(delta int) {
	cat := s.sess.Catalog()
	idx, _ := cat.Index(s.viewing)
	next, ok := cat.At(idx + delta)
	if !ok {
		return
	}
	err := s.sess.Goto(next.ID)
	if errors.Is(err, session.ErrLocked) {
		s.errMsg = next.Title + " is still locked"
		return
	}
	s.apply(err)
}

func (s *Screen) apply(err error) {
	if err != nil {
		s.errMsg = err.Error()
		return
	}
	s.errMsg = ""
	s.sync()
}

// sync refreshes the snapshot and reloads the question widgets when the
// pointer has moved.
func (s *Screen) sync() {
	s.snap = s.sess.Snapshot()
	if s.snap.CurrentID != s.viewing {
		s.load(s.snap.CurrentID)
	}
}

func (s *Screen) load(capsuleID string) {
	cp, ok := s.sess.Catalog().Capsule(capsuleID)
	if !ok {
		return
	}
	s.viewing = capsuleID
	s.choices = make([]components.MultiChoice, len(cp.Questions))
	outcomes := s.outcomeMap(capsuleID)
	for i, q := range cp.Questions {
		mc := components.NewMultiChoice(q.Prompt, q.Options)
		if opt, ok := s.sess.Selection(capsuleID, i); ok {
			mc.Choose(opt)
		}
		if out, ok := outcomes[i]; ok {
			mc.Grade(out.Correct)
		}
		s.choices[i] = mc
	}
	s.focusQuestion(0)
}

func (s *Screen) focusQuestion(i int) {
	s.qi = i
	for j := range s.choices {
		s.choices[j].Focused = j == i
	}
}

func (s *Screen) outcomeMap(capsuleID string) map[int]*progression.Outcome {
	m, ok := s.outcomes[capsuleID]
	if !ok {
		m = make(map[int]*progression.Outcome)
		s.outcomes[capsuleID] = m
	}
	return m
}
