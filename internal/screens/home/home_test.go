package home

import (
	"io"
	"log/slog"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowgraph/knowgraph/internal/catalog"
	"github.com/knowgraph/knowgraph/internal/router"
	"github.com/knowgraph/knowgraph/internal/screens/admin"
	"github.com/knowgraph/knowgraph/internal/screens/demo"
	"github.com/knowgraph/knowgraph/internal/screens/signupform"
	"github.com/knowgraph/knowgraph/internal/signup"
)

func testDeps(withSignups bool) Deps {
	d := Deps{
		Catalog:   catalog.Default(),
		ExportDir: ".",
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if withSignups {
		d.Signups = signup.NewService(signup.NewMemoryRepo(), signup.WithLogger(d.Logger))
	}
	return d
}

func labels(h *Screen) []string {
	var out []string
	for _, it := range h.menu.Items {
		out = append(out, it.Label)
	}
	return out
}

func enter(h *Screen) tea.Msg {
	_, cmd := h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		return nil
	}
	return cmd()
}

func down(h *Screen) {
	h.Update(tea.KeyPressMsg{Code: tea.KeyDown})
}

func TestMenuWithoutSignups(t *testing.T) {
	h := New(testDeps(false))
	assert.Equal(t, []string{"Start the demo", "Quit"}, labels(h))
}

func TestMenuWithSignups(t *testing.T) {
	h := New(testDeps(true))
	assert.Equal(t, []string{"Start the demo", "Join the beta", "Beta signups", "Quit"}, labels(h))
	assert.Contains(t, h.menu.Items[0].Hint, "5 capsules")
}

func TestStartDemoPushesSession(t *testing.T) {
	h := New(testDeps(false))

	msg, ok := enter(h).(router.NavMsg)
	require.True(t, ok)
	d, ok := msg.Screen.(*demo.Screen)
	require.True(t, ok)
	d.Close()
}

func TestSignupEntries(t *testing.T) {
	h := New(testDeps(true))

	down(h)
	msg, ok := enter(h).(router.NavMsg)
	require.True(t, ok)
	assert.IsType(t, &signupform.Screen{}, msg.Screen)

	down(h)
	msg, ok = enter(h).(router.NavMsg)
	require.True(t, ok)
	assert.IsType(t, &admin.Screen{}, msg.Screen)
}

func TestView(t *testing.T) {
	h := New(testDeps(true))
	view := h.View(100, 30)
	assert.Contains(t, view, "Start the demo")
	assert.Contains(t, view, "Join the beta")
}
