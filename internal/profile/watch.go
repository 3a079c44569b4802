package profile

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last write before a profile is
// reloaded.
const DefaultDebounce = 100 * time.Millisecond

// Watch reloads the profile at path whenever it is written and passes each valid
// version to onChange. Invalid versions are logged and skipped. onChange runs on
// the calling goroutine. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, debounce time.Duration, logger *slog.Logger, onChange func(*Profile)) error {
	if logger == nil {
		logger = slog.Default().With("component", "profile")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so editors that replace the file are still seen.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filepath.Base(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			timer.Reset(debounce)

		case <-timer.C:
			p, err := Load(path)
			if err != nil {
				logger.Warn("reload profile", "path", path, "error", err)
				continue
			}
			logger.Info("profile changed", "path", path, "methods", len(p.Methods))
			onChange(p)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("profile watcher", "error", err)
		}
	}
}
