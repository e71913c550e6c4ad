package seed

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher re-applies the seed file whenever it changes on disk. The parent directory
// is watched so editors that replace the file atomically are still picked up.
type Watcher struct {
	path     string
	target   Configurer
	logger   *slog.Logger
	debounce time.Duration
	applied  func(Result)
}

type WatcherOption func(*Watcher)

func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// OnApplied registers a callback run after every successful reload.
func OnApplied(fn func(Result)) WatcherOption {
	return func(w *Watcher) {
		w.applied = fn
	}
}

func NewWatcher(path string, target Configurer, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		path:     path,
		target:   target,
		logger:   slog.New(slog.DiscardHandler),
		debounce: defaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks until ctx is done, reloading the seed after each burst of changes.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create seed watcher: %w", err)
	}
	defer fw.Close()

	abs, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("resolve seed path: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch seed directory: %w", err)
	}
	w.logger.InfoContext(ctx, "watching route seed", "path", abs)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.WarnContext(ctx, "route seed watcher error", "error", err)
		case <-timer.C:
			w.reload(ctx, abs)
		}
	}
}

func (w *Watcher) reload(ctx context.Context, path string) {
	f, err := Load(path)
	if err != nil {
		w.logger.WarnContext(ctx, "route seed reload skipped", "path", path, "error", err)
		return
	}
	res, err := Apply(ctx, w.target, f)
	if err != nil {
		w.logger.ErrorContext(ctx, "route seed reload failed", "path", path, "error", err)
		return
	}
	w.logger.InfoContext(ctx, "route seed reloaded",
		"administrations", res.Administrations,
		"routes", res.Routes,
	)
	if w.applied != nil {
		w.applied(res)
	}
}
