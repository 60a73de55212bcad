package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrDisabled is returned by NewProvider when no backend is configured.
// Callers fall back to their non-LLM path.
var ErrDisabled = errors.New("llm: no provider configured")

// ErrRateLimit is a 429 from the backend.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse means the output did not match the requested schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrRejected is a 4xx other than 429: a bad key, an unknown model or a
// malformed request. It is never retried.
type ErrRejected struct {
	Status int
	Err    error
}

func (e *ErrRejected) Error() string {
	return fmt.Sprintf("request rejected (HTTP %d): %v", e.Status, e.Err)
}

func (e *ErrRejected) Unwrap() error { return e.Err }

// ErrProviderUnavailable covers 5xx responses and transport failures.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded means the output was cut off at MaxTokens.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}

// retryClass sorts an error for RetryProvider.
type retryClass int

const (
	retryNever retryClass = iota
	retryOnce
	retryBackoff
)

func classify(err error) retryClass {
	var (
		maxTok   *ErrMaxTokensExceeded
		invResp  *ErrInvalidResponse
		rejected *ErrRejected
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return retryNever
	case errors.Is(err, ErrDisabled), errors.As(err, &maxTok), errors.As(err, &rejected):
		return retryNever
	case errors.As(err, &invResp):
		return retryOnce
	default:
		// Rate limits, outages and unclassified network errors.
		return retryBackoff
	}
}
