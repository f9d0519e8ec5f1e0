// Package filesystem contains filesystem-based adapter implementations.
package filesystem

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/example/taskly/internal/ports/secondary"
)

// StoreWatcher is a change feed for a SQLite store file. It watches the
// store's directory and reports debounced writes to the database, its WAL
// and its shared-memory file. The writer lock file is ignored.
type StoreWatcher struct {
	dbPath   string
	debounce time.Duration
	logger   *slog.Logger
}

// NewStoreWatcher creates a watcher for the store at dbPath.
func NewStoreWatcher(dbPath string, debounce time.Duration, logger *slog.Logger) *StoreWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreWatcher{dbPath: dbPath, debounce: debounce, logger: logger}
}

// Run blocks until ctx is done, calling onChange once per burst of writes.
func (w *StoreWatcher) Run(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(w.dbPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.logger.DebugContext(ctx, "watching store", "path", w.dbPath)

	debouncer := NewDebouncer(w.debounce, onChange)
	defer func() {
		debouncer.Cancel()
		debouncer.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if w.relevant(event) {
				debouncer.Trigger()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WarnContext(ctx, "watcher error", "error", err)
		}
	}
}

func (w *StoreWatcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
		return false
	}
	base := filepath.Base(w.dbPath)
	name := filepath.Base(event.Name)
	return strings.HasPrefix(name, base) && !strings.HasSuffix(name, ".lock")
}

var _ secondary.ChangeFeed = (*StoreWatcher)(nil)
