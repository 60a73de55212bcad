package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/knowgraph/knowgraph/internal/catalog"
)

// ManagerConfig tunes a Manager.
type ManagerConfig struct {
	AdvanceDelay time.Duration
	IdleTTL      time.Duration // 0 disables expiry
	SweepEvery   time.Duration
}

// DefaultManagerConfig returns the settings used by the HTTP server.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		AdvanceDelay: DefaultAdvanceDelay,
		IdleTTL:      30 * time.Minute,
		SweepEvery:   time.Minute,
	}
}

// Manager keeps live sessions by ID and hands new sessions the current
// catalog.
type Manager struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	catalog   *catalog.Catalog
	scheduler *Scheduler
	cfg       ManagerConfig
	logger    *slog.Logger

	// onCreate, when set, is subscribed to every new session.
	onCreate func(*Session)
}

// NewManager creates a manager serving cat.
func NewManager(cat *catalog.Catalog, cfg ManagerConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions:  make(map[string]*Session),
		catalog:   cat,
		scheduler: NewScheduler(),
		cfg:       cfg,
		logger:    logger,
	}
}

// OnCreate registers a hook run for each session the manager creates.
func (m *Manager) OnCreate(fn func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCreate = fn
}

// SetCatalog swaps the catalog used for new sessions. Running sessions keep
// the catalog they started with.
func (m *Manager) SetCatalog(cat *catalog.Catalog) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog = cat
}

// Catalog returns the catalog new sessions start from.
func (m *Manager) Catalog() *catalog.Catalog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.catalog
}

// Create starts and registers a new session.
func (m *Manager) Create() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := New(m.catalog,
		WithScheduler(m.scheduler),
		WithAdvanceDelay(m.cfg.AdvanceDelay),
		WithLogger(m.logger))
	if err != nil {
		return nil, err
	}
	m.sessions[s.ID()] = s
	if m.onCreate != nil {
		m.onCreate(s)
	}
	m.logger.Info("session created", slog.String("session", s.ID()), slog.Int("live", len(m.sessions)))
	return s, nil
}

// Get looks up a live session.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// End closes and forgets a session. It reports whether the session existed.
func (m *Manager) End(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.Close()
	}
	return ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep ends sessions idle since before now-IdleTTL and returns how many
// were removed.
func (m *Manager) Sweep(now time.Time) int {
	if m.cfg.IdleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-m.cfg.IdleTTL)

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	if len(expired) > 0 {
		m.logger.Info("expired idle sessions", slog.Int("count", len(expired)))
	}
	return len(expired)
}

// Run sweeps idle sessions periodically until ctx is cancelled, then ends
// every remaining session.
func (m *Manager) Run(ctx context.Context) error {
	every := m.cfg.SweepEvery
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.shutdown()
			return nil
		case now := <-ticker.C:
			m.Sweep(now)
		}
	}
}

func (m *Manager) shutdown() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		all = append(all, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
	m.scheduler.Stop()
}
