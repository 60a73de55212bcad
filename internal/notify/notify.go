// Package notify announces stored signups. A Notifier drafts a welcome note
// once per signup and hands it to every configured Channel; each delivery
// attempt is recorded as a notification event.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/knowgraph/knowgraph/internal/signup"
	"github.com/knowgraph/knowgraph/internal/store"
)

// Message is what a channel delivers.
type Message struct {
	Signup signup.Signup `json:"signup"`
	Note   Note          `json:"note"`
	SentAt time.Time     `json:"sent_at"`
}

// Channel delivers a message somewhere: a log, a queue, a webhook.
type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Notifier implements signup.Notifier over a Composer and a set of channels.
type Notifier struct {
	composer *Composer
	channels []Channel
	events   store.EventRepo
	logger   *slog.Logger
	now      func() time.Time
}

var _ signup.Notifier = (*Notifier)(nil)

// Option configures a Notifier.
type Option func(*Notifier)

// WithEvents records each delivery attempt.
func WithEvents(repo store.EventRepo) Option {
	return func(n *Notifier) { n.events = repo }
}

// WithLogger sets the notifier logger.
func WithLogger(l *slog.Logger) Option {
	return func(n *Notifier) { n.logger = l }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) { n.now = now }
}

// New creates a Notifier. A nil composer drafts from the template only.
func New(composer *Composer, channels []Channel, opts ...Option) *Notifier {
	if composer == nil {
		composer = NewComposer(nil, nil)
	}
	n := &Notifier{
		composer: composer,
		channels: channels,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Channels returns the configured channel names.
func (n *Notifier) Channels() []string {
	names := make([]string, len(n.channels))
	for i, c := range n.channels {
		names[i] = c.Name()
	}
	return names
}

// Notify drafts the welcome note and sends it on every channel. All channels
// are attempted; the returned error joins the failures.
func (n *Notifier) Notify(ctx context.Context, s signup.Signup) error {
	msg := Message{
		Signup: s,
		Note:   n.composer.Compose(ctx, s),
		SentAt: n.now().UTC(),
	}

	var errs []error
	for _, c := range n.channels {
		err := c.Send(ctx, msg)
		n.record(ctx, s.ID, c.Name(), err)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Name(), err))
			continue
		}
		n.logger.Debug("signup notification sent",
			slog.String("signup", s.ID),
			slog.String("channel", c.Name()))
	}
	return errors.Join(errs...)
}

func (n *Notifier) record(ctx context.Context, signupID, channel string, sendErr error) {
	if n.events == nil {
		return
	}
	data := store.NotificationEventData{
		SignupID: signupID,
		Channel:  channel,
		Success:  sendErr == nil,
	}
	if sendErr != nil {
		data.ErrorMessage = sendErr.Error()
	}
	if err := n.events.AppendNotification(context.WithoutCancel(ctx), data); err != nil {
		n.logger.Warn("record notification event",
			slog.String("channel", channel),
			slog.String("error", err.Error()))
	}
}
