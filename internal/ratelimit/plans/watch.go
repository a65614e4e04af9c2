package plans

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 100 * time.Millisecond

// WatchAssignments reloads target whenever the assignments file at path is
// written or recreated, until ctx is done. A file that fails to parse is
// logged and the previous table stays in effect.
func WatchAssignments(ctx context.Context, path string, target *StaticAssignments, logger *slog.Logger) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve assignments path: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create assignments watcher: %w", err)
	}
	defer watcher.Close() //nolint:errcheck // shutdown path

	// Editors replace files by rename, so watch the directory.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(absPath), err)
	}
	name := filepath.Base(absPath)

	reload := make(chan struct{}, 1)
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			file, err := readAssignments(absPath)
			if err != nil {
				logger.Error("plan assignments reload failed", "path", absPath, "error", err)
				continue
			}
			target.Replace(file.DefaultTier, file.Users)
			logger.Info("plan assignments reloaded", "path", absPath, "users", len(file.Users))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("plan assignments watcher error", "error", err)
		}
	}
}
