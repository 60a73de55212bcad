package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/knowgraph/knowgraph/internal/llm"
	"github.com/knowgraph/knowgraph/internal/signup"
)

// Note sources.
const (
	SourceTemplate = "template"
	SourceLLM      = "llm"
)

// Note is the welcome text sent to a new signup.
type Note struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Source  string `json:"source"`
}

var welcomeNoteSchema = &llm.Schema{
	Name:        "welcome-note",
	Description: "A short, friendly welcome note for a beta signup",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"subject": map[string]any{
				"type":        "string",
				"description": "Email subject line, under 80 characters",
				"minLength":   1,
				"maxLength":   120,
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Plain-text body, two or three short paragraphs",
				"minLength":   1,
			},
		},
		"required":             []any{"subject", "body"},
		"additionalProperties": false,
	},
}

const welcomeSystemPrompt = `You write welcome notes for KnowGraph, a learning platform where people
work through short video capsules and answer questions to build a mastery
graph. Be warm and concrete. Never invent features, dates or prices. Sign
off as "The KnowGraph team".`

// Composer drafts welcome notes, through an LLM when one is configured and
// from a fixed template otherwise.
type Composer struct {
	provider llm.Provider
	logger   *slog.Logger
}

// NewComposer creates a Composer. provider may be nil.
func NewComposer(provider llm.Provider, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{provider: provider, logger: logger}
}

// Compose never fails: provider errors fall back to the template.
func (c *Composer) Compose(ctx context.Context, s signup.Signup) Note {
	if c.provider == nil {
		return TemplateNote(s)
	}

	note, err := c.draft(ctx, s)
	if err != nil {
		if !errors.Is(err, llm.ErrDisabled) {
			c.logger.Warn("welcome note draft failed, using template",
				slog.String("signup", s.ID),
				slog.String("error", err.Error()))
		}
		return TemplateNote(s)
	}
	return note
}

func (c *Composer) draft(ctx context.Context, s signup.Signup) (Note, error) {
	req := llm.UserPrompt(welcomeSystemPrompt, welcomePrompt(s))
	req.Schema = welcomeNoteSchema
	req.MaxTokens = 600
	req.Temperature = 0.7

	resp, err := c.provider.Generate(llm.WithPurpose(ctx, llm.PurposeWelcomeNote), req)
	if err != nil {
		return Note{}, err
	}
	var note Note
	if err := resp.Decode(&note); err != nil {
		return Note{}, fmt.Errorf("decode welcome note: %w", err)
	}
	note.Subject = strings.TrimSpace(note.Subject)
	note.Body = strings.TrimSpace(note.Body)
	note.Source = SourceLLM
	return note, nil
}

func welcomePrompt(s signup.Signup) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a welcome note for %s, who just joined the beta list.\n", firstName(s.Name))
	fmt.Fprintf(&b, "Role: %s\n", s.Role.Label())
	if s.Interest != "" {
		fmt.Fprintf(&b, "Wants to learn: %s\n", s.Interest.Label())
	}
	if plans := planLabels(s.InterestedPlans); plans != "" {
		fmt.Fprintf(&b, "Interested plans: %s\n", plans)
	}
	if s.Message != "" {
		fmt.Fprintf(&b, "Their message: %q\n", s.Message)
	}
	return b.String()
}

// TemplateNote is the fallback welcome note.
func TemplateNote(s signup.Signup) Note {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", firstName(s.Name))
	b.WriteString("Thanks for joining the KnowGraph beta list. ")
	b.WriteString("We'll email you as soon as your access is ready.\n")
	if plans := planLabels(s.InterestedPlans); plans != "" {
		fmt.Fprintf(&b, "\nYou told us you're interested in: %s.\n", plans)
	}
	b.WriteString("\nThe KnowGraph team")
	return Note{
		Subject: "Welcome to the KnowGraph beta",
		Body:    b.String(),
		Source:  SourceTemplate,
	}
}

func firstName(name string) string {
	if f := strings.Fields(name); len(f) > 0 {
		return f[0]
	}
	return "there"
}

func planLabels(plans []signup.Plan) string {
	labels := make([]string, len(plans))
	for i, p := range plans {
		labels[i] = p.Label()
	}
	return strings.Join(labels, ", ")
}
