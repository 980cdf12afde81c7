package server

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last change before reloading.
const DefaultDebounce = 500 * time.Millisecond

// Reloader watches the rule and domain files and hot-reloads the server.
// It watches the parent directories so files replaced by rename, or created
// after startup, are still picked up.
type Reloader struct {
	watcher  *fsnotify.Watcher
	reload   func() error
	files    map[string]bool
	debounce time.Duration
	logger   *slog.Logger
}

// NewReloader creates a file watcher for the given paths. Empty paths are
// skipped; a path whose directory does not exist is an error.
func NewReloader(server *Server, paths []string) (*Reloader, error) {
	return newReloader(server.ReloadPolicy, paths, server.logger)
}

func newReloader(reload func() error, paths []string, logger *slog.Logger) (*Reloader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("server: create file watcher: %w", err)
	}

	r := &Reloader{
		watcher:  watcher,
		reload:   reload,
		files:    make(map[string]bool),
		debounce: DefaultDebounce,
		logger:   logger,
	}
	dirs := make(map[string]bool)
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			watcher.Close()
			return nil, fmt.Errorf("server: resolve %q: %w", p, err)
		}
		r.files[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("server: watch %q: %w", dir, err)
		}
		dirs[dir] = true
	}
	return r, nil
}

// Run watches for file changes and reloads. Blocks until ctx is cancelled.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.watcher.Close()

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if !r.files[filepath.Clean(event.Name)] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(r.debounce, func() {
				if err := r.reload(); err != nil {
					r.logger.Error("hot-reload failed", "error", err)
					return
				}
				r.logger.Info("hot-reload: policy reloaded", "file", event.Name)
			})

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("file watcher error", "error", err)
		}
	}
}
