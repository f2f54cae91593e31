package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/arcadesongs/arcadesongs-server/internal/logger"
	"github.com/arcadesongs/arcadesongs-server/internal/watcher"
)

// DatasetWatcherHandle wraps the dataset directory watcher. Watcher is nil without a data dir.
type DatasetWatcherHandle struct {
	*watcher.Watcher
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable.
func (h *DatasetWatcherHandle) Shutdown() error {
	if h.Watcher == nil {
		return nil
	}
	h.cancel()
	<-h.done
	return h.Stop()
}

// ProvideDatasetWatcher watches the local dataset directory and reloads games whose files change.
func ProvideDatasetWatcher(i do.Injector) (*DatasetWatcherHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	source := do.MustInvoke[*SourceHandle](i)
	catalog := do.MustInvoke[*CatalogServiceHandle](i)

	if source.Dir == nil {
		log.Debug("No local dataset directory, watcher disabled")
		return &DatasetWatcherHandle{}, nil
	}

	w, err := watcher.New(log.Component("watcher"), watcher.Options{})
	if err != nil {
		return nil, err
	}
	if err := w.Watch(source.Dir.Dir()); err != nil {
		_ = w.Stop()
		return nil, err
	}

	reloader := watcher.NewReloader(w, source.Dir.Dir(), 0, func(ctx context.Context, game string) error {
		_, err := catalog.Reload(ctx, game)
		return err
	}, log.Component("watcher"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	// Start in background
	go func() {
		if err := w.Start(ctx); err != nil {
			log.Error("Dataset watcher error", "error", err)
		}
	}()
	go func() {
		defer close(done)
		reloader.Run(ctx)
	}()

	log.Info("Dataset watcher started", "dir", source.Dir.Dir())

	return &DatasetWatcherHandle{Watcher: w, cancel: cancel, done: done}, nil
}
