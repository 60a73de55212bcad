package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/knowgraph/knowgraph/internal/app"
	"github.com/knowgraph/knowgraph/internal/screens/home"
	"github.com/knowgraph/knowgraph/internal/store"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Go straight into the learning path",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, true)
	},
}

func init() {
	demoCmd.Flags().Duration("advance-delay", 0, "Pause before moving on after the last question (default 1.5s)")
}

// runApp opens the store, builds dependencies, and launches the TUI. With
// demoOnly the session screen is the root and no signup entries are shown.
func runApp(cmd *cobra.Command, demoOnly bool) error {
	ctx := cmd.Context()

	dbPath, err := resolveDBPath()
	if err != nil {
		return fmt.Errorf("resolve DB path: %w", err)
	}
	tuiLog, logCloser, err := tuiLogger(dbPath)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	deps := app.Deps{
		Catalog:      cat,
		AdvanceDelay: cfg.Session.AdvanceDelay,
		ExportDir:    exportDir(),
		Logger:       tuiLog,
	}

	if demoOnly {
		d, err := home.NewDemo(deps)
		if err != nil {
			return err
		}
		return app.Run(app.NewWithScreen(d))
	}

	svcs, err := openServices(ctx, servicesOpts{notify: true}, tuiLog)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Signups unavailable:", err)
	} else {
		defer svcs.Close()
		deps.Signups = svcs.signups
	}
	return app.Run(app.New(deps))
}

// exportDir is where the TUI writes signup exports: the working directory,
// or the data directory when that is not writable.
func exportDir() string {
	if wd, err := os.Getwd(); err == nil {
		if f, err := os.CreateTemp(wd, ".knowgraph-*"); err == nil {
			f.Close()
			os.Remove(f.Name())
			return wd
		}
	}
	if p, err := store.DefaultDBPath(); err == nil {
		return filepath.Dir(p)
	}
	return os.TempDir()
}
