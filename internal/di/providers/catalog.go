package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/arcadesongs/arcadesongs-server/internal/config"
	"github.com/arcadesongs/arcadesongs-server/internal/loader"
	"github.com/arcadesongs/arcadesongs-server/internal/logger"
	"github.com/arcadesongs/arcadesongs-server/internal/metrics"
	"github.com/arcadesongs/arcadesongs-server/internal/service"
)

// userAgent identifies dataset fetches.
const userAgent = "arcadesongs-server/1.0"

// SourceHandle wraps the dataset source with shutdown capability.
type SourceHandle struct {
	loader.Source
	remote *loader.HTTPSource
	// Dir is set when a local dataset directory is configured.
	Dir *loader.DirSource
}

// Shutdown implements do.Shutdownable.
func (h *SourceHandle) Shutdown() error {
	h.remote.Close()
	return nil
}

// ProvideSource provides the dataset source: the local directory first when configured, then
// the remote data host.
func ProvideSource(i do.Injector) (*SourceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	remote := loader.NewHTTPSource(loader.HTTPConfig{
		Timeout:           cfg.Catalog.FetchTimeout,
		CacheTTL:          cfg.Catalog.CacheTTL,
		RequestsPerSecond: cfg.Catalog.FetchRate,
		Burst:             2,
		UserAgent:         userAgent,
		Logger:            log.Component("loader"),
	})

	h := &SourceHandle{Source: remote, remote: remote}
	if cfg.Catalog.DataDir != "" {
		h.Dir = loader.NewDirSource(cfg.Catalog.DataDir)
		h.Source = loader.Fallback{h.Dir, remote}
		log.Info("Serving local datasets first", "dir", cfg.Catalog.DataDir)
	}
	return h, nil
}

// CatalogServiceHandle wraps the catalog with shutdown capability.
type CatalogServiceHandle struct {
	*service.CatalogService
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *CatalogServiceHandle) Shutdown() error {
	h.cancel()
	return h.Close()
}

// ProvideCatalogService provides the catalog and, when configured, preloads every game.
func ProvideCatalogService(i do.Injector) (*CatalogServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	source := do.MustInvoke[*SourceHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	sites := cfg.Sites()
	svc := service.NewCatalogService(service.CatalogConfig{Sites: sites},
		source, storeHandle.Store, sseHandle.Manager, m, log.Component("catalog"))

	ctx, cancel := context.WithCancel(context.Background())
	if cfg.Catalog.Preload {
		go func() {
			start := time.Now()
			svc.EnsureAll(ctx)
			log.Info("Catalog preloaded", "games", len(sites), "duration", time.Since(start))
		}()
	}

	log.Info("Catalog ready", "games", len(sites))

	return &CatalogServiceHandle{CatalogService: svc, cancel: cancel}, nil
}
