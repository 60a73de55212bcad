package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit int       // max results (0 = unlimited)
	After int64     // sequence > After
	From  time.Time // timestamp >= From
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLM request.
type LLMRequestEvent struct {
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// NotificationEventData records one delivery attempt for a signup
// notification.
type NotificationEventData struct {
	SignupID     string
	Channel      string
	Success      bool
	ErrorMessage string
}

// NotificationEvent is a stored notification attempt.
type NotificationEvent struct {
	Sequence  int64
	Timestamp time.Time
	NotificationEventData
}

// EventRepo provides append and query access to operational events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// AppendNotification records a signup notification attempt.
	AppendNotification(ctx context.Context, data NotificationEventData) error

	// LLMRequests returns recorded LLM calls, oldest first.
	LLMRequests(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// Notifications returns recorded notification attempts, oldest first.
	Notifications(ctx context.Context, opts QueryOpts) ([]NotificationEvent, error)
}
