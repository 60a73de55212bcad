package session

import (
	"sync"
	"time"
)

type scheduled struct {
	timer *time.Timer
	gen   uint64
}

// Scheduler runs delayed callbacks keyed by session ID. At most one callback
// is pending per key: scheduling again replaces the pending one.
type Scheduler struct {
	mu      sync.Mutex
	pending map[string]scheduled
	gen     uint64
	stopped bool
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{pending: make(map[string]scheduled)}
}

// Schedule arranges for fn to run after delay, cancelling any callback
// already pending for key. Calls after Stop are ignored.
func (s *Scheduler) Schedule(key string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if prev, ok := s.pending[key]; ok {
		prev.timer.Stop()
	}

	s.gen++
	gen := s.gen
	t := time.AfterFunc(delay, func() {
		s.mu.Lock()
		cur, ok := s.pending[key]
		if !ok || cur.gen != gen {
			s.mu.Unlock()
			return
		}
		delete(s.pending, key)
		s.mu.Unlock()
		fn()
	})
	s.pending[key] = scheduled{timer: t, gen: gen}
}

// Cancel drops the pending callback for key, if any.
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pending[key]; ok {
		p.timer.Stop()
		delete(s.pending, key)
	}
}

// Pending reports whether a callback is waiting for key.
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[key]
	return ok
}

// Stop cancels every pending callback and rejects new ones.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for k, p := range s.pending {
		p.timer.Stop()
		delete(s.pending, k)
	}
}
