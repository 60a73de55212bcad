package llm

import (
	"encoding/json"
	"net/http"
)

// Normalized stop reasons.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
)

// completion is a vendor reply reduced to the fields every backend shares.
type completion struct {
	text      string
	truncated bool
	usage     Usage
	model     string
}

// finish turns a completion into a Response. Structured requests fail with
// ErrMaxTokensExceeded when the reply was cut off and with
// ErrInvalidResponse when it does not match the schema.
func finish(req Request, c completion) (*Response, error) {
	content := json.RawMessage(c.text)
	if req.Schema != nil {
		if c.truncated {
			return nil, &ErrMaxTokensExceeded{Content: content}
		}
		if err := validateResponse(req.Schema, content); err != nil {
			return nil, err
		}
	}

	stop := StopEnd
	if c.truncated {
		stop = StopMaxTokens
	}
	if c.usage.TotalTokens == 0 {
		c.usage.TotalTokens = c.usage.InputTokens + c.usage.OutputTokens
	}
	return &Response{Content: content, Usage: c.usage, Model: c.model, StopReason: stop}, nil
}

// classifyStatus maps a vendor HTTP status onto the retryable error types.
// A zero status means the vendor error could not be decoded.
func classifyStatus(status int, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return &ErrRateLimit{Err: err}
	case status >= 400 && status < 500:
		return &ErrRejected{Status: status, Err: err}
	default:
		return &ErrProviderUnavailable{Err: err}
	}
}

// resolveModel maps a friendly model name to a provider model ID.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	return name
}
