package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/arcadesongs/arcadesongs-server/internal/logger"
)

// ReloadFunc reloads the dataset of one game.
type ReloadFunc func(ctx context.Context, gameCode string) error

// reloadedFiles are the payload names whose changes trigger a reload.
var reloadedFiles = map[string]bool{
	"data.json":    true,
	"gallery.json": true,
}

// Reloader watches a dataset directory laid out as <dir>/<game>/data.json and reloads a game
// when its payloads change. Changes to one game within Debounce collapse into one reload.
type Reloader struct {
	watcher  *Watcher
	dir      string
	reload   ReloadFunc
	debounce time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	wg     sync.WaitGroup
}

// NewReloader creates a reloader over w, which must already watch dir.
func NewReloader(w *Watcher, dir string, debounce time.Duration, reload ReloadFunc, log *slog.Logger) *Reloader {
	if debounce <= 0 {
		debounce = time.Second
	}
	return &Reloader{
		watcher:  w,
		dir:      filepath.Clean(dir),
		reload:   reload,
		debounce: debounce,
		logger:   logger.OrDiscard(log),
		timers:   make(map[string]*time.Timer),
	}
}

// Run consumes watcher events until ctx is done, then waits for in-flight reloads.
func (r *Reloader) Run(ctx context.Context) {
	defer r.wg.Wait()
	defer r.stopTimers()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-r.watcher.Errors():
			r.logger.Warn("dataset watcher error", "error", err)
		case event := <-r.watcher.Events():
			if event.Type != EventChanged {
				continue
			}
			if game, ok := r.gameOf(event.Path); ok {
				r.schedule(ctx, game)
			}
		}
	}
}

// gameOf maps <dir>/<game>/<payload> to its game code.
func (r *Reloader) gameOf(path string) (string, bool) {
	rel, err := filepath.Rel(r.dir, path)
	if err != nil {
		return "", false
	}
	game, name, ok := strings.Cut(filepath.ToSlash(rel), "/")
	if !ok || game == "" || game == ".." || strings.Contains(name, "/") || !reloadedFiles[name] {
		return "", false
	}
	return game, true
}

func (r *Reloader) schedule(ctx context.Context, game string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// A timer that already fired is left to finish and replaced.
	if t, ok := r.timers[game]; ok && t.Stop() {
		t.Reset(r.debounce)
		return
	}

	var t *time.Timer
	r.wg.Add(1)
	t = time.AfterFunc(r.debounce, func() {
		defer r.wg.Done()

		r.mu.Lock()
		if r.timers[game] == t {
			delete(r.timers, game)
		}
		r.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		r.logger.Info("dataset changed on disk, reloading", "game", game)
		if err := r.reload(ctx, game); err != nil {
			r.logger.Warn("dataset reload failed", "game", game, "error", err)
		}
	})
	r.timers[game] = t
}

// stopTimers cancels pending reloads. A timer that already fired finishes on its own.
func (r *Reloader) stopTimers() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for game, t := range r.timers {
		if t.Stop() {
			r.wg.Done()
		}
		delete(r.timers, game)
	}
}
