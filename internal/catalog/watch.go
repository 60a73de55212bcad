package catalog

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc receives a freshly loaded catalog after the watched file changed.
type ReloadFunc func(*Catalog)

// reloadDebounce coalesces the burst of events editors emit on save.
const reloadDebounce = 200 * time.Millisecond

// Watch observes the catalog file at path and calls fn with each valid
// reloaded catalog until ctx is cancelled. Invalid edits are logged and the
// previous catalog stays in effect.
//
// The parent directory is watched rather than the file itself so that
// atomic rename-on-save keeps working.
func Watch(ctx context.Context, path string, logger *slog.Logger, fn ReloadFunc) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	logger.Info("catalog watcher: started", slog.String("path", abs))

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("catalog watcher: stopped")
			return nil

		case <-fire:
			fire = nil
			c, loadErr := Load(abs)
			if loadErr != nil {
				logger.Warn("catalog watcher: reload rejected", slog.String("error", loadErr.Error()))
				continue
			}
			logger.Info("catalog watcher: reloaded",
				slog.String("version", c.Version),
				slog.Int("capsules", c.Len()))
			fn(c)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			fire = timer.C

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("catalog watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
