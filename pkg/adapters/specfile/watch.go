package specfile

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/courselet/internal/logging"
)

// DefaultDebounce collapses bursts of writes from editors into one reload.
const DefaultDebounce = 200 * time.Millisecond

// Watcher calls a function whenever a file matching its patterns changes.
type Watcher struct {
	patterns []string
	debounce time.Duration
	logger   *slog.Logger
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets how long the watcher waits for changes to settle
// before calling back. The default is DefaultDebounce.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithWatchLogger sets the logger for watch errors and reloads.
func WithWatchLogger(logger *slog.Logger) WatchOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// NewWatcher creates a Watcher for the given glob patterns.
func NewWatcher(patterns []string, opts ...WatchOption) *Watcher {
	w := &Watcher{
		patterns: patterns,
		debounce: DefaultDebounce,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks until ctx is done, invoking onChange after each debounced
// batch of changes.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer fsw.Close()

	dirs := w.dirs()
	if len(dirs) == 0 {
		return fmt.Errorf("no directories to watch for %v", w.patterns)
	}
	for _, root := range dirs {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			return fsw.Add(path)
		})
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", root, err)
		}
	}
	w.logger.Info("watching specifications", "dirs", dirs)

	var timer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.matches(ev.Name) {
				continue
			}
			w.logger.Debug("specification changed", "path", ev.Name, "op", ev.Op.String())
			timer = time.After(w.debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "err", err)
		case <-timer:
			timer = nil
			onChange()
		}
	}
}

// dirs returns the static base directory of every pattern. Subdirectories
// created after Run starts are not picked up.
func (w *Watcher) dirs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range w.patterns {
		base, _ := doublestar.SplitPattern(filepath.ToSlash(p))
		base = filepath.FromSlash(base)
		if !seen[base] {
			seen[base] = true
			out = append(out, base)
		}
	}
	sort.Strings(out)
	return out
}

func (w *Watcher) matches(path string) bool {
	for _, p := range w.patterns {
		if ok, _ := doublestar.PathMatch(filepath.FromSlash(p), path); ok {
			return true
		}
	}
	return false
}
