package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reloadRecorder struct {
	mu    sync.Mutex
	games []string
}

func (r *reloadRecorder) reload(_ context.Context, game string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games = append(r.games, game)
	return nil
}

func (r *reloadRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.games...)
}

func TestReloader_GameOf(t *testing.T) {
	r := NewReloader(nil, "/data", 0, nil, nil)

	tests := []struct {
		path string
		game string
		ok   bool
	}{
		{"/data/maimai/data.json", "maimai", true},
		{"/data/chunithm/gallery.json", "chunithm", true},
		{"/data/maimai/notes.txt", "", false},
		{"/data/data.json", "", false},
		{"/data/maimai/old/data.json", "", false},
		{"/elsewhere/maimai/data.json", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			game, ok := r.gameOf(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.game, game)
		})
	}
}

func TestReloader_ReloadsChangedGame(t *testing.T) {
	dir := t.TempDir()
	for _, game := range []string{"maimai", "wacca"} {
		require.NoError(t, os.Mkdir(filepath.Join(dir, game), 0o755))
	}
	w := startWatcher(t, dir, Options{SettleDelay: 20 * time.Millisecond})

	rec := &reloadRecorder{}
	r := NewReloader(w, dir, 100*time.Millisecond, rec.reload, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "maimai", "data.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "maimai", "gallery.json"), []byte("[]"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "maimai", "README"), []byte("x"), 0o644))

	require.Eventually(t, func() bool { return len(rec.snapshot()) > 0 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, []string{"maimai"}, rec.snapshot(), "payload changes collapse into one reload")

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reloader did not stop")
	}
}

func TestReloader_CancelDropsPendingReloads(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "maimai"), 0o755))
	w := startWatcher(t, dir, Options{SettleDelay: 20 * time.Millisecond})

	rec := &reloadRecorder{}
	r := NewReloader(w, dir, time.Hour, rec.reload, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "maimai", "data.json"), []byte("{}"), 0o644))
	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return len(r.timers) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
	assert.Empty(t, rec.snapshot())
}
