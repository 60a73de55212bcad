package signup

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryRepo is an in-process Repo used by the terminal demo when no
// database is configured, and by tests.
type MemoryRepo struct {
	mu      sync.Mutex
	signups []Signup
	byEmail map[string]bool
}

// NewMemoryRepo creates an empty repo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byEmail: make(map[string]bool)}
}

// Create stores s, rejecting duplicate emails.
func (m *MemoryRepo) Create(_ context.Context, s *Signup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byEmail[s.Email] {
		return fmt.Errorf("create signup %s: %w", s.Email, ErrConflict)
	}
	m.byEmail[s.Email] = true
	m.signups = append(m.signups, *s)
	return nil
}

// List returns matching signups, newest first.
func (m *MemoryRepo) List(_ context.Context, f Filter) ([]Signup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Signup
	for _, s := range m.signups {
		if f.Match(s) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}
