// Package llm wraps the hosted language-model APIs KnowGraph can use to
// draft outreach text for beta signups. Every backend satisfies Provider;
// retry and request logging are layered on as decorators by NewProvider.
package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Provider generates a completion for a Request.
type Provider interface {
	// Generate sends the request and returns the model output. When
	// req.Schema is set the output is JSON validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Name is the backend identifier ("anthropic", "openai", ...).
	Name() string

	// ModelID returns the model this provider sends requests to.
	ModelID() string
}

// Request describes one completion call.
type Request struct {
	System   string
	Messages []Message

	// Schema, when set, asks the backend for structured JSON output.
	Schema *Schema

	MaxTokens   int
	Temperature float64 // 0 leaves the backend default
}

// Message is a single conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// UserPrompt builds a single-turn request.
func UserPrompt(system, prompt string) Request {
	return Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: prompt}},
	}
}

// Schema is a named JSON Schema for structured output. Name doubles as the
// OpenAI schema name and the validation cache key, so it must be unique per
// definition.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Response holds the model output.
type Response struct {
	// Content is validated JSON when the request carried a Schema,
	// otherwise the raw text.
	Content json.RawMessage

	Usage Usage
	Model string

	// StopReason is normalized to "end" or "max_tokens".
	StopReason string
}

// Text returns Content as plain text, unquoting it when the backend
// returned a JSON string.
func (r *Response) Text() string {
	raw := strings.TrimSpace(string(r.Content))
	var s string
	if strings.HasPrefix(raw, `"`) && json.Unmarshal([]byte(raw), &s) == nil {
		return s
	}
	return raw
}

// Decode unmarshals structured Content into v.
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Content, v)
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
