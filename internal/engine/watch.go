package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadDebounce = 200 * time.Millisecond

// WatchParams reloads the params file at path whenever it changes and hands
// the new parameters to apply. Files that fail to load are logged and the
// previous parameters stay in effect. It blocks until ctx is done.
func WatchParams(ctx context.Context, path string, logger *zap.Logger, apply func(Params)) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create params watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors save by renaming over the file, which
	// drops a watch on the file itself.
	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", target, err)
	}
	logger.Info("watching params file", zap.String("path", target))

	// Stopped until the first relevant event.
	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				debounce.Reset(reloadDebounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("params watcher error", zap.Error(err))

		case <-debounce.C:
			p, err := LoadParams(target)
			if err != nil {
				logger.Warn("ignoring invalid params file", zap.String("path", target), zap.Error(err))
				continue
			}
			logger.Info("params reloaded", zap.String("path", target))
			apply(p)
		}
	}
}
