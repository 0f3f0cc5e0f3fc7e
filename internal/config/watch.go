package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports writes to a single file. It watches the parent
// directory so editors that replace the file by rename are still seen.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
	fsw      *fsnotify.Watcher
}

// NewWatcher starts watching path. Events that arrive within debounce of
// each other are coalesced into one callback.
func NewWatcher(path string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{path: abs, debounce: debounce, logger: logger, fsw: fsw}, nil
}

// Run calls fn after every (debounced) change to the file until ctx is
// done. It closes the watcher on return.
func (w *Watcher) Run(ctx context.Context, fn func()) {
	defer w.fsw.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if w.debounce <= 0 {
				fn()
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C

		case <-fire:
			fire = nil
			fn()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch: error", "path", w.path, "error", err)
		}
	}
}

// Watch reloads the config at path on every change and hands the result
// to fn. Files that fail to parse are logged and skipped.
func Watch(ctx context.Context, path string, logger *slog.Logger, fn func(*Config)) error {
	w, err := NewWatcher(path, 200*time.Millisecond, logger)
	if err != nil {
		return err
	}
	w.Run(ctx, func() {
		c, err := Load(path)
		if err != nil {
			w.logger.Warn("config reload failed", "path", path, "error", err)
			return
		}
		w.logger.Info("config reloaded", "path", path)
		fn(c)
	})
	return nil
}
