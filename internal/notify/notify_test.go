package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowgraph/knowgraph/internal/llm"
	"github.com/knowgraph/knowgraph/internal/signup"
	"github.com/knowgraph/knowgraph/internal/store"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ada() signup.Signup {
	return signup.Signup{
		ID:              "s-1",
		Name:            "Ada Lovelace",
		Email:           "ada@example.com",
		Role:            signup.RoleEngineer,
		Interest:        signup.InterestAutonomousDriving,
		InterestedPlans: []signup.Plan{signup.PlanLearner, signup.PlanEnterprise},
		CreatedAt:       fixedNow,
	}
}

type captureChannel struct {
	name string
	err  error

	mu   sync.Mutex
	msgs []Message
}

func (c *captureChannel) Name() string { return c.name }

func (c *captureChannel) Send(_ context.Context, msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	return c.err
}

type recordingEvents struct {
	store.EventRepo
	got []store.NotificationEventData
}

func (r *recordingEvents) AppendNotification(_ context.Context, d store.NotificationEventData) error {
	r.got = append(r.got, d)
	return nil
}

func TestTemplateNote(t *testing.T) {
	note := TemplateNote(ada())

	assert.Equal(t, SourceTemplate, note.Source)
	assert.Equal(t, "Welcome to the KnowGraph beta", note.Subject)
	assert.Contains(t, note.Body, "Hi Ada,")
	assert.Contains(t, note.Body, "Learner, Enterprise (talk to us)")

	blank := TemplateNote(signup.Signup{})
	assert.Contains(t, blank.Body, "Hi there,")
	assert.NotContains(t, blank.Body, "interested in")
}

func TestComposer_UsesProvider(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"subject":"  Welcome, Ada  ","body":"Glad you're here."}`),
	})
	c := NewComposer(mock, quietLogger())

	note := c.Compose(context.Background(), ada())

	assert.Equal(t, Note{Subject: "Welcome, Ada", Body: "Glad you're here.", Source: SourceLLM}, note)
	require.Equal(t, 1, mock.CallCount())
	call := mock.Calls[0]
	require.NotNil(t, call.Schema)
	assert.Equal(t, "welcome-note", call.Schema.Name)
	assert.Contains(t, call.Messages[0].Content, "Ada")
	assert.Contains(t, call.Messages[0].Content, "Autonomous Driving")
}

func TestComposer_FallsBackToTemplate(t *testing.T) {
	tests := []struct {
		name     string
		provider llm.Provider
	}{
		{"no provider", nil},
		{"provider error", llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrRateLimit{Err: errors.New("429")}})},
		{"undecodable", llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`"just text"`)})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			note := NewComposer(tt.provider, quietLogger()).Compose(context.Background(), ada())
			assert.Equal(t, SourceTemplate, note.Source)
		})
	}
}

func TestNotifier_SendsToEveryChannel(t *testing.T) {
	good := &captureChannel{name: "good"}
	bad := &captureChannel{name: "bad", err: errors.New("queue full")}
	last := &captureChannel{name: "last"}
	events := &recordingEvents{}

	n := New(nil, []Channel{good, bad, last},
		WithEvents(events), WithLogger(quietLogger()), WithClock(func() time.Time { return fixedNow }))

	err := n.Notify(context.Background(), ada())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad: queue full")

	require.Len(t, good.msgs, 1)
	require.Len(t, last.msgs, 1, "a failing channel must not stop later ones")
	assert.Equal(t, fixedNow, good.msgs[0].SentAt)
	assert.Equal(t, "ada@example.com", good.msgs[0].Signup.Email)
	assert.Equal(t, SourceTemplate, good.msgs[0].Note.Source)

	require.Len(t, events.got, 3)
	assert.Equal(t, store.NotificationEventData{SignupID: "s-1", Channel: "good", Success: true}, events.got[0])
	assert.False(t, events.got[1].Success)
	assert.Equal(t, "queue full", events.got[1].ErrorMessage)

	assert.Equal(t, []string{"good", "bad", "last"}, n.Channels())
}

func TestNotifier_ThroughSignupService(t *testing.T) {
	ch := &captureChannel{name: "capture"}
	svc := signup.NewService(signup.NewMemoryRepo(),
		signup.WithNotifier(New(nil, []Channel{ch}, WithLogger(quietLogger()))),
		signup.WithLogger(quietLogger()))

	_, err := svc.Submit(context.Background(), signup.Input{
		Name:  "Grace Hopper",
		Email: "grace@example.com",
		Role:  signup.RoleResearcher,
	})
	require.NoError(t, err)
	svc.Wait()

	require.Len(t, ch.msgs, 1)
	assert.Equal(t, "Grace Hopper", ch.msgs[0].Signup.Name)
}

func TestWebhookChannel(t *testing.T) {
	var (
		gotAuth string
		gotMsg  Message
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotMsg))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	ch := NewWebhookChannel(server.URL, "s3cret")
	msg := Message{Signup: ada(), Note: TemplateNote(ada()), SentAt: fixedNow}

	require.NoError(t, ch.Send(context.Background(), msg))
	assert.Equal(t, "Bearer s3cret", gotAuth)
	assert.Equal(t, "s-1", gotMsg.Signup.ID)
	assert.Equal(t, msg.Note, gotMsg.Note)
}

func TestWebhookChannel_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	err := NewWebhookChannel(server.URL, "").Send(context.Background(), Message{Signup: ada()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "nope")
}

func TestLogChannel(t *testing.T) {
	assert.NoError(t, NewLogChannel(quietLogger()).Send(context.Background(), Message{Signup: ada()}))
	assert.Equal(t, "log", NewLogChannel(nil).Name())
}

func TestParseRedisURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid", "redis://localhost:6379", false},
		{"with db", "redis://localhost:6379/2", false},
		{"empty", "", true},
		{"wrong scheme", "http://localhost:6379", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRedisURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseRedisURL() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewRedisChannel_UnreachableHost(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping unreachable host test in short mode")
	}
	_, err := NewRedisChannel(t.Context(), "redis://localhost:59999", "")
	require.Error(t, err)
}
