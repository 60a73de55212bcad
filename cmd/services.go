package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/knowgraph/knowgraph/internal/catalog"
	"github.com/knowgraph/knowgraph/internal/llm"
	"github.com/knowgraph/knowgraph/internal/notify"
	"github.com/knowgraph/knowgraph/internal/signup"
	"github.com/knowgraph/knowgraph/internal/store"
	"github.com/knowgraph/knowgraph/internal/store/postgres"
)

// services holds everything a command opens against the configured
// storage and notification backends.
type services struct {
	store   *store.Store
	signups *signup.Service
	dbPath  string

	closers []func()
}

// servicesOpts selects the optional parts of the stack.
type servicesOpts struct {
	notify bool // wire notification channels into the signup service
}

// openServices opens the SQLite store, the signup repository and, when
// requested, the notification channels.
func openServices(ctx context.Context, opts servicesOpts, logger *slog.Logger) (*services, error) {
	dbPath, err := resolveDBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s := &services{store: st, dbPath: dbPath}
	s.closers = append(s.closers, func() { st.Close() })

	var repo signup.Repo = st.SignupRepo()
	if cfg.DB.PostgresURL != "" {
		pg, err := postgres.Open(ctx, cfg.DB.PostgresURL, postgres.DefaultOptions())
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		s.closers = append(s.closers, pg.Close)
		repo = pg
	}

	svcOpts := []signup.ServiceOption{
		signup.WithLogger(logger),
		signup.WithNotifyTimeout(cfg.Notify.Timeout),
	}
	if opts.notify {
		n, err := s.notifier(ctx, logger)
		if err != nil {
			s.Close()
			return nil, err
		}
		svcOpts = append(svcOpts, signup.WithNotifier(n))
	}
	s.signups = signup.NewService(repo, svcOpts...)
	return s, nil
}

func (s *services) notifier(ctx context.Context, logger *slog.Logger) (*notify.Notifier, error) {
	channels := []notify.Channel{notify.NewLogChannel(logger)}
	if cfg.Notify.RedisURL != "" {
		rc, err := notify.NewRedisChannel(ctx, cfg.Notify.RedisURL, cfg.Notify.RedisKey)
		if err != nil {
			return nil, fmt.Errorf("redis notifications: %w", err)
		}
		s.closers = append(s.closers, func() { rc.Close() })
		channels = append(channels, rc)
	}
	if cfg.Notify.WebhookURL != "" {
		channels = append(channels, notify.NewWebhookChannel(cfg.Notify.WebhookURL, cfg.Notify.WebhookSecret))
	}

	var provider llm.Provider
	if cfg.Notify.LLMDrafts {
		p, err := llm.NewProvider(ctx, llm.ConfigFromEnv(), s.store.EventRepo(), logger)
		switch {
		case errors.Is(err, llm.ErrDisabled):
			logger.Warn("llm drafts enabled but no provider configured; using the template")
		case err != nil:
			return nil, fmt.Errorf("llm provider: %w", err)
		default:
			provider = p
		}
	}

	return notify.New(notify.NewComposer(provider, logger), channels,
		notify.WithEvents(s.store.EventRepo()),
		notify.WithLogger(logger)), nil
}

// Close waits for pending notifications and releases everything opened.
func (s *services) Close() {
	if s.signups != nil {
		s.signups.Wait()
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// loadCatalog returns the configured catalog file, or the built-in one.
func loadCatalog() (*catalog.Catalog, error) {
	if cfg.Catalog.Path == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(cfg.Catalog.Path)
}
