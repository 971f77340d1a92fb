package catalog

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrec/internal/metrics"
)

const changedMessage = "Catalog file changed; restart and run `bookrec ingest --reindex` to apply"

// Watcher reports changes to the catalog file after it was loaded. It never
// reloads: the in-memory snapshot and the index stay as they are until restart.
type Watcher struct {
	watcher  *fsnotify.Watcher
	file     string
	log      *zap.Logger
	onChange func(fsnotify.Event)
}

// NewWatcher watches the directory containing path, so editors that replace
// the file via rename are still observed.
func NewWatcher(path string, log *zap.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{watcher: w, file: abs, log: log}, nil
}

// OnChange registers a callback invoked for each relevant event. Must be set
// before Run.
func (w *Watcher) OnChange(fn func(fsnotify.Event)) { w.onChange = fn }

// Run consumes events until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.file {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
				!ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			metrics.CatalogChangesTotal.Inc()
			w.log.Warn(changedMessage,
				zap.String("path", ev.Name),
				zap.String("op", ev.Op.String()),
			)
			if w.onChange != nil {
				w.onChange(ev)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("catalog watcher error", zap.Error(err))
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close() //nolint:wrapcheck // close error is self-describing
}
