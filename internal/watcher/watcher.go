// Package watcher re-reads a source file whenever it changes on disk.
//
// WHY WATCH THE DIRECTORY?
// Many editors save by writing a temporary file and renaming it over the
// original. Watching the file itself would lose track of it after the first
// save, so the parent directory is watched and events are filtered by name.
//
// Editors also tend to emit several events per save (truncate, write, chmod).
// Events are debounced: the file is read once things have been quiet for the
// configured delay, and the callback only fires when the contents changed.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDelay is the quiet period used when none is given.
const DefaultDelay = 100 * time.Millisecond

// Watcher follows a single file.
type Watcher struct {
	path   string
	delay  time.Duration
	logger *slog.Logger
}

// New creates a Watcher for path. A zero delay means DefaultDelay.
func New(path string, delay time.Duration, logger *slog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{path: abs, delay: delay, logger: logger}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Run calls onChange with the current contents, then again after every change,
// until ctx is done. onChange runs on the Run goroutine, one call at a time.
func (w *Watcher) Run(ctx context.Context, onChange func(src string)) error {
	// Watch before the first read so no save can slip in between.
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(w.path), err)
	}

	last, err := os.ReadFile(w.path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", w.path, err)
	}
	w.logger.Info("watching file", slog.String("path", w.path))
	onChange(string(last))

	debounce := time.NewTimer(w.delay)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				debounce.Reset(w.delay)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", slog.String("error", err.Error()))

		case <-debounce.C:
			data, err := os.ReadFile(w.path)
			if err != nil {
				// Mid-rename; the Create event that follows re-arms the timer.
				w.logger.Debug("file not readable yet", slog.String("error", err.Error()))
				continue
			}
			if string(data) == string(last) {
				continue
			}
			last = data
			onChange(string(data))
		}
	}
}
