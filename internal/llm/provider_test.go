package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/knowgraph/knowgraph/internal/store"
)

func welcomeSchema() *Schema {
	return &Schema{
		Name:        "welcome-note-test",
		Description: "A short welcome note",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"subject": map[string]any{"type": "string", "minLength": 1},
				"body":    map[string]any{"type": "string", "minLength": 1},
			},
			"required":             []any{"subject", "body"},
			"additionalProperties": false,
		},
	}
}

func TestMockProvider_FIFO(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"a":1}`), Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockResponse{Content: json.RawMessage(`{"b":2}`)},
	)

	first, err := mock.Generate(context.Background(), UserPrompt("sys", "first"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(first.Content) != `{"a":1}` || first.Usage.InputTokens != 10 || first.StopReason != "end" {
		t.Fatalf("first = %+v", first)
	}

	second, err := mock.Generate(context.Background(), UserPrompt("", "second"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(second.Content) != `{"b":2}` {
		t.Fatalf("second = %s", second.Content)
	}

	if mock.CallCount() != 2 || mock.Calls[0].System != "sys" {
		t.Fatalf("calls = %+v", mock.Calls)
	}

	_, err = mock.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("empty queue err = %T, want ErrProviderUnavailable", err)
	}
}

func TestResponseText(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{`"Hello there"`, "Hello there"},
		{`  plain text `, "plain text"},
		{`{"subject":"x"}`, `{"subject":"x"}`},
	}
	for _, tt := range tests {
		r := &Response{Content: json.RawMessage(tt.content)}
		if got := r.Text(); got != tt.want {
			t.Errorf("Text(%q) = %q, want %q", tt.content, got, tt.want)
		}
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}

	ctx = WithPurpose(ctx, "welcome-note")
	if p := PurposeFrom(ctx); p != "welcome-note" {
		t.Fatalf("expected 'welcome-note', got %q", p)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"disabled", Config{Provider: ProviderNone}, false},
		{"empty means disabled", Config{}, false},
		{"anthropic without key", Config{Provider: ProviderAnthropic}, true},
		{"anthropic with key", Config{Provider: ProviderAnthropic, Anthropic: AnthropicConfig{APIKey: "sk"}}, false},
		{"openai without key", Config{Provider: ProviderOpenAI}, true},
		{"gemini with key", Config{Provider: ProviderGemini, Gemini: GeminiConfig{APIKey: "g"}}, false},
		{"openrouter without key", Config{Provider: ProviderOpenRouter}, true},
		{"mock needs no key", Config{Provider: ProviderMock}, false},
		{"unknown provider", Config{Provider: "clippy"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	for _, k := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}

	t.Run("explicit provider", func(t *testing.T) {
		t.Setenv("KNOWGRAPH_LLM_PROVIDER", "openai")
		t.Setenv("KNOWGRAPH_OPENAI_API_KEY", "sk-test")
		t.Setenv("KNOWGRAPH_OPENAI_MODEL", "gpt-4o")

		cfg := ConfigFromEnv()
		if cfg.Provider != ProviderOpenAI || cfg.OpenAI.APIKey != "sk-test" || cfg.OpenAI.Model != "gpt-4o" {
			t.Fatalf("cfg = %+v", cfg)
		}
	})

	t.Run("discovers vendor key", func(t *testing.T) {
		t.Setenv("KNOWGRAPH_LLM_PROVIDER", "")
		t.Setenv("GEMINI_API_KEY", "g-key")

		cfg := ConfigFromEnv()
		if cfg.Provider != ProviderGemini || cfg.Gemini.APIKey != "g-key" {
			t.Fatalf("cfg = %+v", cfg)
		}
	})

	t.Run("nothing configured", func(t *testing.T) {
		t.Setenv("KNOWGRAPH_LLM_PROVIDER", "")
		cfg := ConfigFromEnv()
		if cfg.Enabled() {
			t.Fatalf("expected disabled config, got %q", cfg.Provider)
		}
	})
}

func TestNewProvider(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if _, err := NewProvider(context.Background(), DefaultConfig(), nil, logger); !errors.Is(err, ErrDisabled) {
		t.Fatalf("disabled err = %v, want ErrDisabled", err)
	}

	if _, err := NewProvider(context.Background(), Config{Provider: ProviderOpenAI}, nil, logger); err == nil {
		t.Fatal("expected missing key error")
	}

	cfg := DefaultConfig()
	cfg.Provider = ProviderOpenRouter
	cfg.OpenRouter.APIKey = "sk-or"
	p, err := NewProvider(context.Background(), cfg, nil, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != ProviderOpenRouter || p.ModelID() != "google/gemini-2.0-flash-001" {
		t.Fatalf("got %s/%s", p.Name(), p.ModelID())
	}
}

type recordingEvents struct {
	store.EventRepo
	got []store.LLMRequestEventData
	err error
}

func (r *recordingEvents) AppendLLMRequest(_ context.Context, d store.LLMRequestEventData) error {
	r.got = append(r.got, d)
	return r.err
}

func TestLoggingProvider(t *testing.T) {
	events := &recordingEvents{err: errors.New("disk full")}
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"subject":"s","body":"b"}`), Usage: Usage{InputTokens: 7, OutputTokens: 3}},
		MockResponse{Err: &ErrRateLimit{Err: errors.New("429")}},
	)
	p := WithLogging(mock, events, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx := WithPurpose(context.Background(), "welcome-note")
	req := UserPrompt("be brief", "hello")
	req.Schema = welcomeSchema()

	if _, err := p.Generate(ctx, req); err != nil {
		t.Fatalf("repo failure leaked into Generate: %v", err)
	}
	if _, err := p.Generate(ctx, req); err == nil {
		t.Fatal("expected provider error to pass through")
	}

	if len(events.got) != 2 {
		t.Fatalf("events = %d, want 2", len(events.got))
	}
	ok, failed := events.got[0], events.got[1]
	if !ok.Success || ok.Purpose != "welcome-note" || ok.Provider != "mock" || ok.InputTokens != 7 {
		t.Errorf("success event = %+v", ok)
	}
	if ok.ResponseBody != `{"subject":"s","body":"b"}` {
		t.Errorf("response body = %q", ok.ResponseBody)
	}
	if failed.Success || failed.ErrorMessage == "" {
		t.Errorf("failure event = %+v", failed)
	}
	for _, want := range []string{"[system]\nbe brief", "[user]\nhello", "[schema: welcome-note-test]"} {
		if !strings.Contains(ok.RequestBody, want) {
			t.Errorf("request body missing %q:\n%s", want, ok.RequestBody)
		}
	}
}

func TestSummarizeUsage(t *testing.T) {
	events := []store.LLMRequestEvent{
		{LLMRequestEventData: store.LLMRequestEventData{Provider: "openai", Model: "gpt-4o-mini", InputTokens: 1_000_000, OutputTokens: 0, Success: true}},
		{LLMRequestEventData: store.LLMRequestEventData{Provider: "openai", Model: "gpt-4o-mini", InputTokens: 0, OutputTokens: 1_000_000, Success: false}},
		{LLMRequestEventData: store.LLMRequestEventData{Provider: "mock", Model: "mock", Success: true}},
	}
	lines := SummarizeUsage(events)
	if len(lines) != 2 {
		t.Fatalf("lines = %+v", lines)
	}
	gpt := lines[0]
	if gpt.Requests != 2 || gpt.Failures != 1 || !gpt.Priced {
		t.Fatalf("gpt line = %+v", gpt)
	}
	if diff := gpt.CostUSD - 0.75; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("cost = %f, want 0.75", gpt.CostUSD)
	}
	if lines[1].Priced {
		t.Errorf("mock should be unpriced: %+v", lines[1])
	}
}
