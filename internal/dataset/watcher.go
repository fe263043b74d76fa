package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Invalidator is what the watcher pokes when the workbook changes.
type Invalidator interface {
	Invalidate()
}

// Watcher invalidates the snapshot store when the workbook file changes on
// disk. It watches the containing directory rather than the file itself so
// atomic save-and-rename editors (Excel included) keep working, and
// debounces bursts of events from a single save.
type Watcher struct {
	path     string
	store    Invalidator
	debounce time.Duration
	logger   *slog.Logger
	fs       *fsnotify.Watcher
}

// NewWatcher creates a watcher for the workbook at path.
func NewWatcher(path string, store Invalidator, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fs.Add(filepath.Dir(path)); err != nil {
		fs.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	return &Watcher{
		path:     path,
		store:    store,
		debounce: debounce,
		logger:   logger,
		fs:       fs,
	}, nil
}

// Run processes filesystem events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("workbook watcher started", "path", w.path, "debounce", w.debounce)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("workbook watcher stopping", "reason", ctx.Err())
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.matches(ev) {
				continue
			}
			w.logger.Debug("workbook event", "op", ev.Op.String(), "name", ev.Name)
			if pending {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
			}
			timer.Reset(w.debounce)
			pending = true

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("workbook watcher error", "error", err)

		case <-timer.C:
			pending = false
			w.logger.Info("workbook changed, invalidating snapshots", "path", w.path)
			w.store.Invalidate()
		}
	}
}

// Close releases the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// matches reports whether an event concerns the workbook itself with an op
// that can change its content.
func (w *Watcher) matches(ev fsnotify.Event) bool {
	if filepath.Base(ev.Name) != filepath.Base(w.path) {
		return false
	}
	return ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename)
}
