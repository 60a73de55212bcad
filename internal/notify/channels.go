package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// LogChannel writes each message to a structured logger.
type LogChannel struct {
	logger *slog.Logger
}

// NewLogChannel creates a LogChannel. A nil logger uses slog.Default.
func NewLogChannel(logger *slog.Logger) *LogChannel {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogChannel{logger: logger}
}

func (c *LogChannel) Name() string { return "log" }

func (c *LogChannel) Send(ctx context.Context, msg Message) error {
	c.logger.InfoContext(ctx, "new beta signup",
		slog.String("id", msg.Signup.ID),
		slog.String("name", msg.Signup.Name),
		slog.String("email", msg.Signup.Email),
		slog.String("role", string(msg.Signup.Role)),
		slog.String("subject", msg.Note.Subject),
		slog.String("note_source", msg.Note.Source))
	return nil
}

// DefaultQueueKey is the Redis list a mailer worker pops from.
const DefaultQueueKey = "knowgraph:signups:welcome"

// ParseRedisURL validates a Redis connection URL.
func ParseRedisURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("redis URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return opts, nil
}

// RedisChannel pushes JSON messages onto a Redis list.
type RedisChannel struct {
	client *redis.Client
	key    string
}

// NewRedisChannel connects to url and verifies the connection.
// An empty key uses DefaultQueueKey.
func NewRedisChannel(ctx context.Context, url, key string) (*RedisChannel, error) {
	opts, err := ParseRedisURL(url)
	if err != nil {
		return nil, err
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return newRedisChannel(client, key), nil
}

func newRedisChannel(client *redis.Client, key string) *RedisChannel {
	if key == "" {
		key = DefaultQueueKey
	}
	return &RedisChannel{client: client, key: key}
}

func (c *RedisChannel) Name() string { return "redis" }

func (c *RedisChannel) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.client.LPush(ctx, c.key, payload).Err(); err != nil {
		return fmt.Errorf("lpush %s: %w", c.key, err)
	}
	return nil
}

// Close shuts down the Redis client.
func (c *RedisChannel) Close() error {
	return c.client.Close()
}

// HealthCheck verifies the Redis connection is alive.
func (c *RedisChannel) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// WebhookChannel POSTs JSON messages to a URL.
type WebhookChannel struct {
	url    string
	secret string
	client *http.Client
}

// NewWebhookChannel creates a WebhookChannel. When secret is non-empty it is
// sent as a bearer token.
func NewWebhookChannel(url, secret string) *WebhookChannel {
	return &WebhookChannel{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *WebhookChannel) Name() string { return "webhook" }

func (c *WebhookChannel) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "knowgraph-notify")
	if c.secret != "" {
		req.Header.Set("Authorization", "Bearer "+c.secret)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	return nil
}
