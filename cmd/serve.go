package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/knowgraph/knowgraph/internal/api"
	"github.com/knowgraph/knowgraph/internal/catalog"
	"github.com/knowgraph/knowgraph/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API for web clients",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "Listen address")
	serveCmd.Flags().Bool("watch", false, "Reload the catalog file when it changes")
	serveCmd.Flags().Duration("advance-delay", 0, "Pause before moving on after the last question (default 1.5s)")
}

func serve(ctx context.Context) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	svcs, err := openServices(ctx, servicesOpts{notify: true}, logger)
	if err != nil {
		return err
	}
	defer svcs.Close()

	mgrCfg := session.DefaultManagerConfig()
	mgrCfg.AdvanceDelay = cfg.Session.AdvanceDelay
	mgrCfg.IdleTTL = cfg.Session.IdleTTL
	sessions := session.NewManager(cat, mgrCfg, logger)

	broker := api.NewBroker()
	handler := api.NewRouter(api.Options{
		Sessions:       sessions,
		Signups:        svcs.signups,
		Broker:         broker,
		AdminTokenHash: cfg.Admin.TokenHash,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		Logger:         logger,
	})
	if !cfg.Admin.Enabled() {
		logger.Warn("admin token not configured; signup admin routes are disabled",
			slog.String("hint", "knowgraph admin hash-token"))
	}

	logger.Info("serving catalog",
		slog.String("title", cat.Title),
		slog.String("version", cat.Version),
		slog.Int("capsules", cat.Len()),
		slog.String("db", svcs.dbPath))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.ListenAndServe(gctx, cfg.HTTP.Addr, handler, cfg.HTTP.ShutdownTimeout, logger, broker.Close)
	})
	g.Go(func() error {
		return sessions.Run(gctx)
	})
	if cfg.Catalog.Watch && cfg.Catalog.Path != "" {
		g.Go(func() error {
			return catalog.Watch(gctx, cfg.Catalog.Path, logger, sessions.SetCatalog)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
