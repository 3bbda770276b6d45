// Package watcher watches the corpus root for changes and triggers
// proactive rebuilds in serve mode. The retrieval facade's staleness
// check stays authoritative; the watcher only warms the index so the
// first query after an edit does not pay the rebuild cost.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher debounces filesystem events under the corpus root and
// invokes a callback once per burst of changes.
type Watcher struct {
	root     string
	debounce time.Duration
	onChange func()
	logger   *slog.Logger

	fsw *fsnotify.Watcher
}

// New creates a watcher for the corpus root. onChange runs after each
// debounced burst of events.
func New(root string, debounce time.Duration, onChange func(), logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:     root,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
		fsw:      fsw,
	}

	if err := w.addDirs(); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	return w, nil
}

// addDirs registers the root and all visible subdirectories. Hidden
// directories, including the index directory, never trigger rebuilds.
func (w *Watcher) addDirs() error {
	return filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// Run processes events until the context is cancelled. Events within
// the debounce window coalesce into a single onChange call.
func (w *Watcher) Run(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if w.ignored(event.Name) {
				continue
			}
			// New directories need explicit registration.
			if event.Has(fsnotify.Create) {
				_ = w.addDirs()
			}
			w.logger.Debug("corpus_event",
				slog.String("path", event.Name),
				slog.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("corpus_watch_error", slog.String("error", err.Error()))

		case <-timerC:
			timer = nil
			timerC = nil
			w.logger.Info("corpus_changed", slog.String("root", w.root))
			w.onChange()
		}
	}
}

// ignored filters events from hidden files and the index directory.
func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// Close releases watch resources.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
