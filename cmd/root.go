package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/knowgraph/knowgraph/internal/config"
	"github.com/knowgraph/knowgraph/internal/store"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "knowgraph",
	Short: "Learn a path capsule by capsule",
	Long: "KnowGraph walks a learner through an ordered path of knowledge capsules,\n" +
		"gating each on comprehension questions and drawing mastery as a graph.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		logger = cfg.Log.NewLogger(os.Stderr)
		slog.SetDefault(logger)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, false)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Path to a knowgraph.yaml config file")
	pf.String("db", "", "Path to SQLite database file (overrides KNOWGRAPH_DB env var)")
	pf.String("postgres-url", "", "Store signups in PostgreSQL instead of SQLite")
	pf.String("catalog", "", "Path to a catalog YAML or JSON file (default: built-in catalog)")
	pf.String("log-level", "info", "Log level: debug, info, warn or error")
	pf.String("log-format", "text", "Log format: text or json")
	pf.String("log-file", "", "Write logs to this file (the TUI defaults to knowgraph.log next to the database)")

	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path from --db / KNOWGRAPH_DB / the
// config file, falling back to the default XDG path.
func resolveDBPath() (string, error) {
	if cfg != nil && cfg.DB.Path != "" {
		return cfg.DB.Path, store.EnsureDir(cfg.DB.Path)
	}
	return store.DefaultDBPath()
}

// tuiLogger redirects logging to a file while the TUI owns the terminal.
// The returned closer must be called on exit.
func tuiLogger(dbPath string) (*slog.Logger, io.Closer, error) {
	path := cfg.Log.File
	if path == "" {
		path = filepath.Join(filepath.Dir(dbPath), "knowgraph.log")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return cfg.Log.NewLogger(f), f, nil
}
