// Package router keeps the TUI's screen stack. Screens navigate by
// returning the commands below; the app feeds the resulting NavMsg back in.
package router

import (
	tea "charm.land/bubbletea/v2"

	"github.com/knowgraph/knowgraph/internal/screen"
)

type Op int

const (
	OpPush Op = iota
	OpPop
	OpReplace
	OpHome
)

// NavMsg asks the router to change the stack. Screen is set for OpPush
// and OpReplace.
type NavMsg struct {
	Op     Op
	Screen screen.Screen
}

func Push(s screen.Screen) tea.Cmd {
	return func() tea.Msg { return NavMsg{Op: OpPush, Screen: s} }
}

func Replace(s screen.Screen) tea.Cmd {
	return func() tea.Msg { return NavMsg{Op: OpReplace, Screen: s} }
}

// Pop and Home are commands themselves.
func Pop() tea.Msg  { return NavMsg{Op: OpPop} }
func Home() tea.Msg { return NavMsg{Op: OpHome} }

// Router holds the stack. The bottom screen is never removed. Screens that
// implement screen.Closer are closed as they leave the stack.
type Router struct {
	stack []screen.Screen
}

func New(root screen.Screen) *Router {
	return &Router{stack: []screen.Screen{root}}
}

func (r *Router) Active() screen.Screen {
	if len(r.stack) == 0 {
		return nil
	}
	return r.stack[len(r.stack)-1]
}

func (r *Router) Depth() int { return len(r.stack) }

// Trail lists the titles from the root to the active screen.
func (r *Router) Trail() []string {
	out := make([]string, len(r.stack))
	for i, s := range r.stack {
		out[i] = s.Title()
	}
	return out
}

func (r *Router) Push(s screen.Screen) tea.Cmd {
	r.stack = append(r.stack, s)
	return s.Init()
}

func (r *Router) Pop() {
	r.unwind(len(r.stack) - 1)
}

func (r *Router) Replace(s screen.Screen) tea.Cmd {
	top := len(r.stack) - 1
	closeScreen(r.stack[top])
	r.stack[top] = s
	return s.Init()
}

// Close closes every screen, top first. The stack is left as is.
func (r *Router) Close() {
	for i := len(r.stack) - 1; i >= 0; i-- {
		closeScreen(r.stack[i])
	}
}

// unwind shrinks the stack to depth, never below one screen.
func (r *Router) unwind(depth int) {
	depth = max(depth, 1)
	for len(r.stack) > depth {
		top := len(r.stack) - 1
		closeScreen(r.stack[top])
		r.stack[top] = nil
		r.stack = r.stack[:top]
	}
}

func closeScreen(s screen.Screen) {
	if c, ok := s.(screen.Closer); ok {
		c.Close()
	}
}

// Update applies a NavMsg or hands msg to the active screen.
func (r *Router) Update(msg tea.Msg) tea.Cmd {
	if nav, ok := msg.(NavMsg); ok {
		switch nav.Op {
		case OpPush:
			return r.Push(nav.Screen)
		case OpReplace:
			return r.Replace(nav.Screen)
		case OpPop:
			r.Pop()
		case OpHome:
			r.unwind(1)
		}
		return nil
	}

	active := r.Active()
	if active == nil {
		return nil
	}
	next, cmd := active.Update(msg)
	r.stack[len(r.stack)-1] = next
	return cmd
}

func (r *Router) View(width, height int) string {
	if active := r.Active(); active != nil {
		return active.View(width, height)
	}
	return ""
}
