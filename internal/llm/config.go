package llm

import (
	"fmt"
	"os"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderNone       = "none"
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects the backend. Empty or "none" disables LLM drafting.
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds one Generate call including retries.
	Timeout time.Duration
}

// AnthropicConfig holds Anthropic-specific configuration. BaseURL is for
// proxies and tests.
type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAIConfig holds OpenAI-specific configuration. BaseURL points the
// client at any OpenAI-compatible endpoint.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a disabled Config with per-backend model defaults.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderNone,
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-001"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     8 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 20 * time.Second,
	}
}

// Enabled reports whether a backend is selected.
func (c Config) Enabled() bool {
	return c.Provider != "" && c.Provider != ProviderNone
}

// envOverrides maps KNOWGRAPH_* variables onto config fields.
func (c *Config) envOverrides() map[string]*string {
	return map[string]*string{
		"KNOWGRAPH_LLM_PROVIDER":        &c.Provider,
		"KNOWGRAPH_ANTHROPIC_API_KEY":   &c.Anthropic.APIKey,
		"KNOWGRAPH_ANTHROPIC_MODEL":     &c.Anthropic.Model,
		"KNOWGRAPH_ANTHROPIC_BASE_URL":  &c.Anthropic.BaseURL,
		"KNOWGRAPH_OPENAI_API_KEY":      &c.OpenAI.APIKey,
		"KNOWGRAPH_OPENAI_MODEL":        &c.OpenAI.Model,
		"KNOWGRAPH_OPENAI_BASE_URL":     &c.OpenAI.BaseURL,
		"KNOWGRAPH_GEMINI_API_KEY":      &c.Gemini.APIKey,
		"KNOWGRAPH_GEMINI_MODEL":        &c.Gemini.Model,
		"KNOWGRAPH_GEMINI_BASE_URL":     &c.Gemini.BaseURL,
		"KNOWGRAPH_OPENROUTER_API_KEY":  &c.OpenRouter.APIKey,
		"KNOWGRAPH_OPENROUTER_MODEL":    &c.OpenRouter.Model,
		"KNOWGRAPH_OPENROUTER_BASE_URL": &c.OpenRouter.BaseURL,
	}
}

// ConfigFromEnv builds a Config from KNOWGRAPH_* variables. When no
// provider is named it falls back to DiscoverConfig.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	for key, dst := range cfg.envOverrides() {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	if os.Getenv("KNOWGRAPH_LLM_PROVIDER") == "" {
		if found, ok := DiscoverConfig(); ok {
			return found
		}
	}
	return cfg
}

// DiscoverConfig probes the vendors' standard API key variables in order
// (Anthropic, OpenAI, Gemini, OpenRouter) and selects the first present.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()
	probes := []struct {
		env      string
		provider string
		key      *string
	}{
		{"ANTHROPIC_API_KEY", ProviderAnthropic, &cfg.Anthropic.APIKey},
		{"OPENAI_API_KEY", ProviderOpenAI, &cfg.OpenAI.APIKey},
		{"GEMINI_API_KEY", ProviderGemini, &cfg.Gemini.APIKey},
		{"OPENROUTER_API_KEY", ProviderOpenRouter, &cfg.OpenRouter.APIKey},
	}
	for _, p := range probes {
		if k := os.Getenv(p.env); k != "" {
			cfg.Provider = p.provider
			*p.key = k
			return cfg, true
		}
	}
	return Config{}, false
}

// Validate checks that the selected provider has its API key.
func (c Config) Validate() error {
	var key, env string
	switch c.Provider {
	case "", ProviderNone, ProviderMock:
		return nil
	case ProviderAnthropic:
		key, env = c.Anthropic.APIKey, "KNOWGRAPH_ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		key, env = c.OpenAI.APIKey, "KNOWGRAPH_OPENAI_API_KEY"
	case ProviderGemini:
		key, env = c.Gemini.APIKey, "KNOWGRAPH_GEMINI_API_KEY"
	case ProviderOpenRouter:
		key, env = c.OpenRouter.APIKey, "KNOWGRAPH_OPENROUTER_API_KEY"
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("%s is required for the %s provider", env, c.Provider)
	}
	return nil
}

// Providers lists the selectable backend names.
func Providers() []string {
	return []string{ProviderNone, ProviderAnthropic, ProviderOpenAI, ProviderGemini, ProviderOpenRouter, ProviderMock}
}
