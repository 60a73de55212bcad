// Package signupform is the beta-access signup form.
package signupform

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/knowgraph/knowgraph/internal/router"
	"github.com/knowgraph/knowgraph/internal/screen"
	"github.com/knowgraph/knowgraph/internal/signup"
	"github.com/knowgraph/knowgraph/internal/ui/components"
	"github.com/knowgraph/knowgraph/internal/ui/layout"
	"github.com/knowgraph/knowgraph/internal/ui/theme"
)

// submitTimeout bounds one form submission.
const submitTimeout = 15 * time.Second

// Form field order; focus cycles through these.
const (
	fieldName = iota
	fieldEmail
	fieldRole
	fieldInterest
	fieldPlans
	fieldMessage
	fieldSubmit
	fieldCount
)

type submitResultMsg struct {
	rec *signup.Signup
	err error
}

// Screen collects and submits one signup.
type Screen struct {
	svc *signup.Service

	name     components.TextInput
	email    components.TextInput
	role     components.Choice
	interest components.Choice
	plans    components.Checklist
	message  components.TextInput
	submit   components.Button

	focus      int
	submitting bool
	banner     string
	done       *signup.Signup
}

var (
	_ screen.Screen          = (*Screen)(nil)
	_ screen.KeyHintProvider = (*Screen)(nil)
	_ screen.TextCapturer    = (*Screen)(nil)
)

// New creates an empty form backed by svc.
func New(svc *signup.Service) *Screen {
	roleKeys, roleLabels := []string{}, []string{}
	for _, r := range signup.Roles() {
		roleKeys = append(roleKeys, string(r))
		roleLabels = append(roleLabels, r.Label())
	}
	interestKeys, interestLabels := []string{}, []string{}
	for _, i := range signup.Interests() {
		interestKeys = append(interestKeys, string(i))
		interestLabels = append(interestLabels, i.Label())
	}
	var planItems []components.ChecklistItem
	for _, p := range signup.Plans() {
		planItems = append(planItems, components.ChecklistItem{Key: string(p), Label: p.Label()})
	}

	s := &Screen{
		svc:      svc,
		name:     components.NewTextInput("Name", "Ada Lovelace", 100),
		email:    components.NewTextInput("Email", "ada@example.com", 255),
		role:     components.NewChoice("I am a", roleKeys, roleLabels),
		interest: components.NewChoice("Most interested in (optional)", interestKeys, interestLabels),
		plans:    components.NewChecklist("Plans I'd consider", planItems),
		message:  components.NewTextInput("Anything else? (optional)", "", signup.MaxMessageLength),
	}
	s.submit = components.NewButton("Request access", "Submitting...")
	return s
}

func (s *Screen) Init() tea.Cmd {
	return s.setFocus(fieldName)
}

func (s *Screen) Title() string { return "Join the beta" }

// CapturingText implements screen.TextCapturer.
func (s *Screen) CapturingText() bool {
	return s.done == nil && (s.focus == fieldName || s.focus == fieldEmail || s.focus == fieldMessage)
}

func (s *Screen) KeyHints() []layout.KeyHint {
	if s.done != nil {
		return []layout.KeyHint{{Key: "Enter", Description: "Home"}}
	}
	hints := []layout.KeyHint{{Key: "Tab", Description: "Next field"}}
	switch s.focus {
	case fieldRole, fieldInterest:
		hints = append(hints, layout.KeyHint{Key: "←→", Description: "Choose"})
	case fieldPlans:
		hints = append(hints, layout.KeyHint{Key: "Space", Description: "Toggle"})
	case fieldSubmit:
		hints = append(hints, layout.KeyHint{Key: "Enter", Description: "Submit"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Cancel"})
}

func (s *Screen) setFocus(f int) tea.Cmd {
	s.focus = (f + fieldCount) % fieldCount
	s.name.Blur()
	s.email.Blur()
	s.message.Blur()
	s.role.Focused = s.focus == fieldRole
	s.interest.Focused = s.focus == fieldInterest
	s.plans.Focused = s.focus == fieldPlans
	s.submit.Focused = s.focus == fieldSubmit

	switch s.focus {
	case fieldName:
		return s.name.Focus()
	case fieldEmail:
		return s.email.Focus()
	case fieldMessage:
		return s.message.Focus()
	}
	return nil
}

// Input returns the form contents as a signup input.
func (s *Screen) Input() signup.Input {
	var plans []signup.Plan
	for _, k := range s.plans.Checked() {
		plans = append(plans, signup.Plan(k))
	}
	return signup.Input{
		Name:            s.name.Value(),
		Email:           s.email.Value(),
		Role:            signup.Role(s.role.Value()),
		Interest:        signup.Interest(s.interest.Value()),
		InterestedPlans: plans,
		Message:         s.message.Value(),
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case submitResultMsg:
		return s.handleResult(msg)
	case tea.KeyPressMsg:
		if s.done != nil {
			if msg.String() == "enter" {
				return s, router.Home
			}
			return s, nil
		}
		if s.submitting {
			return s, nil
		}
		switch msg.String() {
		case "tab", "down":
			if msg.String() == "tab" || s.focus != fieldPlans {
				return s, s.setFocus(s.focus + 1)
			}
		case "shift+tab", "up":
			if msg.String() == "shift+tab" || s.focus != fieldPlans {
				return s, s.setFocus(s.focus - 1)
			}
		case "enter":
			if s.focus == fieldSubmit {
				return s, s.doSubmit()
			}
			if s.focus != fieldPlans {
				return s, s.setFocus(s.focus + 1)
			}
		}
	}
	return s.forward(msg)
}

func (s *Screen) forward(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	switch s.focus {
	case fieldName:
		s.name, cmd = s.name.Update(msg)
	case fieldEmail:
		s.email, cmd = s.email.Update(msg)
	case fieldRole:
		s.role, cmd = s.role.Update(msg)
	case fieldInterest:
		s.interest, cmd = s.interest.Update(msg)
	case fieldPlans:
		s.plans, cmd = s.plans.Update(msg)
	case fieldMessage:
		s.message, cmd = s.message.Update(msg)
	}
	return s, cmd
}

func (s *Screen) doSubmit() tea.Cmd {
	s.submitting = true
	s.submit.Busy = true
	s.banner = ""
	svc, in := s.svc, s.Input()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		rec, err := svc.Submit(ctx, in)
		return submitResultMsg{rec: rec, err: err}
	}
}

func (s *Screen) handleResult(msg submitResultMsg) (screen.Screen, tea.Cmd) {
	s.submitting = false
	s.submit.Busy = false
	if msg.err == nil {
		s.done = msg.rec
		return s, s.setFocus(fieldSubmit)
	}

	s.banner = signup.UserMessage(msg.err)
	if fe, ok := fieldErrors(msg.err); ok {
		s.name.Err = fe["name"]
		s.email.Err = fe["email"]
		s.role.Err = fe["role"]
		s.interest.Err = fe["interest"]
		s.plans.Err = fe["interested_plans"]
		s.message.Err = fe["message"]
		return s, s.setFocus(s.firstInvalid())
	}
	return s, nil
}

func fieldErrors(err error) (map[string]string, bool) {
	var inErr *signup.InputError
	if errors.As(err, &inErr) {
		return inErr.Fields(), true
	}
	return nil, false
}

func (s *Screen) firstInvalid() int {
	switch {
	case s.name.Err != "":
		return fieldName
	case s.email.Err != "":
		return fieldEmail
	case s.role.Err != "":
		return fieldRole
	case s.interest.Err != "":
		return fieldInterest
	case s.plans.Err != "":
		return fieldPlans
	case s.message.Err != "":
		return fieldMessage
	}
	return s.focus
}

func (s *Screen) View(width, height int) string {
	cw := components.ContentWidth(width)
	if s.done != nil {
		body := theme.Correct.Render(signup.UserMessage(nil)+", "+firstName(s.done.Name)+"!") + "\n\n" +
			theme.Body.Render("We'll email "+s.done.Email+" when your beta access is ready.") + "\n\n" +
			theme.Hint.Render("Press enter to return home.")
		return components.Center(components.Panel("Thanks for signing up", body, cw, true), width, height)
	}

	parts := []string{
		s.name.View(),
		s.email.View(),
		s.role.View(),
		s.interest.View(),
		strings.TrimRight(s.plans.View(), "\n"),
		s.message.View(),
		"",
		s.submit.View(),
	}
	if s.banner != "" {
		parts = append([]string{theme.ErrorText.Render(s.banner), ""}, parts...)
	}
	body := strings.Join(parts, "\n")
	return components.Center(components.Panel("Get early access", body, cw, true), width, height)
}

func firstName(name string) string {
	if f := strings.Fields(name); len(f) > 0 {
		return f[0]
	}
	return "there"
}
