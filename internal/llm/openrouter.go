package llm

import (
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	openRouterReferer        = "https://github.com/knowgraph/knowgraph"
	openRouterTitle          = "KnowGraph"
)

// OpenRouterProvider reuses the OpenAI chat client against OpenRouter.
// Model IDs are "vendor/model" and are sent as given.
type OpenRouterProvider struct {
	*OpenAIProvider
}

func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openrouter: api key is required")
	}
	conf := openai.DefaultConfig(cfg.APIKey)
	conf.BaseURL = defaultOpenRouterBaseURL
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}
	conf.HTTPClient = &http.Client{Transport: attributionTransport{next: http.DefaultTransport}}

	return &OpenRouterProvider{OpenAIProvider: &OpenAIProvider{
		client: openai.NewClientWithConfig(conf),
		model:  cfg.Model,
	}}, nil
}

func (p *OpenRouterProvider) Name() string { return ProviderOpenRouter }

// attributionTransport adds the headers OpenRouter uses to credit the
// calling app on its dashboards.
type attributionTransport struct {
	next http.RoundTripper
}

func (t attributionTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("HTTP-Referer", openRouterReferer)
	r.Header.Set("X-Title", openRouterTitle)
	return t.next.RoundTrip(r)
}
