package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is the quiet period after the last change before a reload
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads a Store when its FileSource changes on disk
type Watcher struct {
	store    *Store
	path     string
	debounce time.Duration
	log      *logrus.Logger
}

// NewWatcher creates a watcher for store. The store must be backed by a FileSource.
func NewWatcher(store *Store, debounce time.Duration, log *logrus.Logger) (*Watcher, error) {
	fs, ok := store.Source().(FileSource)
	if !ok {
		return nil, fmt.Errorf("catalog source %s cannot be watched", store.Source())
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	abs, err := filepath.Abs(fs.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data file path: %w", err)
	}
	return &Watcher{store: store, path: abs, debounce: debounce, log: log}, nil
}

// Run watches until ctx is done. The parent directory is watched so that
// editors which replace the file by rename are picked up.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}
	w.log.WithField("path", w.path).Info("Watching catalog data file")

	timer := time.NewTimer(w.debounce)
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
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.log.WithField("op", event.Op.String()).Debug("Catalog data file changed")
			timer.Reset(w.debounce)
		case <-timer.C:
			if err := w.store.Reload(ctx); err != nil {
				w.log.WithError(err).Warn("Catalog hot reload failed")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("Watcher error")
		}
	}
}
