package providers

import (
	"github.com/samber/do/v2"

	"github.com/arcadesongs/arcadesongs-server/internal/config"
	"github.com/arcadesongs/arcadesongs-server/internal/logger"
	"github.com/arcadesongs/arcadesongs-server/internal/metrics"
	"github.com/arcadesongs/arcadesongs-server/internal/service"
)

// DrawServiceHandle wraps the draw service with shutdown capability.
type DrawServiceHandle struct {
	*service.DrawService
}

// Shutdown implements do.Shutdownable.
func (h *DrawServiceHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideDrawService provides the draw session service.
func ProvideDrawService(i do.Injector) (*DrawServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	catalog := do.MustInvoke[*CatalogServiceHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	svc := service.NewDrawService(service.DrawConfig{SessionTTL: cfg.Draw.SessionTTL},
		catalog.CatalogService, storeHandle.Store, sseHandle.Manager, m, log.Component("draw"))
	return &DrawServiceHandle{DrawService: svc}, nil
}

// ProvideSelectionService provides the per-owner sheet selection service.
func ProvideSelectionService(i do.Injector) (*service.SelectionService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	catalog := do.MustInvoke[*CatalogServiceHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	return service.NewSelectionService(catalog.CatalogService, storeHandle.Store, log.Component("selection")), nil
}
