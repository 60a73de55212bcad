package app

import (
	"io"
	"log/slog"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowgraph/knowgraph/internal/catalog"
	"github.com/knowgraph/knowgraph/internal/router"
	"github.com/knowgraph/knowgraph/internal/screen"
	"github.com/knowgraph/knowgraph/internal/screens/signupform"
	"github.com/knowgraph/knowgraph/internal/signup"
)

type stubScreen struct {
	title  string
	closed int
}

func (s *stubScreen) Init() tea.Cmd                           { return nil }
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(int, int) string                    { return s.title }
func (s *stubScreen) Title() string                           { return s.title }
func (s *stubScreen) Close()                                  { s.closed++ }
func (s *stubScreen) Progress() (mastered, total int)         { return 2, 5 }

func testModel() Model {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(Deps{
		Catalog: catalog.Default(),
		Signups: signup.NewService(signup.NewMemoryRepo(), signup.WithLogger(logger)),
		Logger:  logger,
	})
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func key(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func TestQuitKeys(t *testing.T) {
	m := testModel()
	_, cmd := m.Update(key('q'))
	assert.True(t, isQuit(cmd))

	_, cmd = m.Update(tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	assert.True(t, isQuit(cmd))
}

func TestEscAtRootIsNoop(t *testing.T) {
	m := testModel()
	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	assert.Nil(t, cmd)
	assert.Equal(t, 1, m.router.Depth())
}

func TestQDoesNotQuitWhileTyping(t *testing.T) {
	m := testModel()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	form := signupform.New(signup.NewService(signup.NewMemoryRepo(), signup.WithLogger(logger)))
	m.router.Update(router.NavMsg{Op: router.OpPush, Screen: form})
	require.True(t, form.CapturingText())

	_, cmd := m.Update(key('q'))
	assert.False(t, isQuit(cmd))
	assert.Equal(t, "q", form.Input().Name)
}

func TestQuitClosesScreens(t *testing.T) {
	stub := &stubScreen{title: "Stub"}
	m := NewWithScreen(stub)

	_, cmd := m.Update(key('q'))
	assert.True(t, isQuit(cmd))
	assert.Equal(t, 1, stub.closed)
}

func TestHeaderShowsProgress(t *testing.T) {
	stub := &stubScreen{title: "Stub"}
	m := NewWithScreen(stub)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	assert.Contains(t, updated.(Model).header(stub), "2/5 mastered")
}

func TestHeaderShowsTrailBelowRoot(t *testing.T) {
	m := NewWithScreen(&stubScreen{title: "Home"})
	m.width = 120
	demo, done := &stubScreen{title: "Demo"}, &stubScreen{title: "Done"}
	m.router.Push(demo)
	m.router.Push(done)

	header := m.header(done)
	assert.Contains(t, header, "Demo › Done")
	assert.NotContains(t, header, "Home")
}

func TestFooterFallsBackToDefaultHints(t *testing.T) {
	m := testModel()
	hints := m.keyHints(m.router.Active())
	require.NotEmpty(t, hints)
	assert.Equal(t, "q", hints[len(hints)-1].Key)
}
