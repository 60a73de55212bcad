package signupform

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowgraph/knowgraph/internal/router"
	"github.com/knowgraph/knowgraph/internal/signup"
)

func newService() (*signup.Service, *signup.MemoryRepo) {
	repo := signup.NewMemoryRepo()
	return signup.NewService(repo, signup.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))), repo
}

func typeText(s *Screen, text string) {
	for _, r := range text {
		s.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
}

func key(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

// submit presses enter on the submit button and delivers the result.
func submit(t *testing.T, s *Screen) {
	t.Helper()
	for s.focus != fieldSubmit {
		s.Update(key(tea.KeyTab))
	}
	_, cmd := s.Update(key(tea.KeyEnter))
	require.NotNil(t, cmd)
	s.Update(cmd())
}

func fill(s *Screen, name, email string) {
	typeText(s, name)
	s.Update(key(tea.KeyTab))
	typeText(s, email)
	s.Update(key(tea.KeyTab))
	s.Update(key(tea.KeyRight)) // student
	s.Update(key(tea.KeyTab))
	s.Update(key(tea.KeyTab))
	s.Update(key(tea.KeySpace)) // free
	s.Update(key(tea.KeyDown))
	s.Update(key(tea.KeySpace)) // learner
}

func TestEmptySubmitHighlightsFields(t *testing.T) {
	svc, repo := newService()
	s := New(svc)
	s.Init()

	submit(t, s)

	assert.Equal(t, "Please check the highlighted fields", s.banner)
	assert.NotEmpty(t, s.name.Err)
	assert.NotEmpty(t, s.email.Err)
	assert.NotEmpty(t, s.role.Err)
	assert.Equal(t, fieldName, s.focus)

	all, err := repo.List(context.Background(), signup.Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSubmitStoresSignup(t *testing.T) {
	svc, repo := newService()
	s := New(svc)
	s.Init()

	fill(s, "Ada", "Ada@Example.com")
	in := s.Input()
	assert.Equal(t, signup.RoleStudent, in.Role)
	assert.Equal(t, []signup.Plan{signup.PlanFree, signup.PlanLearner}, in.InterestedPlans)

	submit(t, s)

	require.NotNil(t, s.done)
	assert.Empty(t, s.banner)
	all, err := repo.List(context.Background(), signup.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "ada@example.com", all[0].Email)

	view := s.View(100, 40)
	assert.Contains(t, view, "You're on the list, Ada!")

	_, cmd := s.Update(key(tea.KeyEnter))
	require.NotNil(t, cmd)
	assert.Equal(t, router.NavMsg{Op: router.OpHome}, cmd())
}

func TestDuplicateEmail(t *testing.T) {
	svc, _ := newService()
	first := New(svc)
	first.Init()
	fill(first, "Ada", "ada@example.com")
	submit(t, first)
	require.NotNil(t, first.done)

	second := New(svc)
	second.Init()
	fill(second, "Grace", "ada@example.com")
	submit(t, second)

	assert.Nil(t, second.done)
	assert.Equal(t, "This email is already on the list", second.banner)
	assert.True(t, strings.Contains(second.View(100, 40), "This email is already on the list"))
}

func TestCapturingText(t *testing.T) {
	svc, _ := newService()
	s := New(svc)
	s.Init()

	assert.True(t, s.CapturingText())
	s.setFocus(fieldRole)
	assert.False(t, s.CapturingText())
}
