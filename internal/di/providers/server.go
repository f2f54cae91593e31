package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/arcadesongs/arcadesongs-server/internal/api"
	"github.com/arcadesongs/arcadesongs-server/internal/config"
	"github.com/arcadesongs/arcadesongs-server/internal/logger"
	"github.com/arcadesongs/arcadesongs-server/internal/metrics"
	"github.com/arcadesongs/arcadesongs-server/internal/service"
)

// Version is reported in the OpenAPI document.
var Version = "dev"

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.api.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	catalog := do.MustInvoke[*CatalogServiceHandle](i)
	draws := do.MustInvoke[*DrawServiceHandle](i)
	selections := do.MustInvoke[*service.SelectionService](i)

	services := &api.Services{
		Catalog:    catalog.CatalogService,
		Draws:      draws.DrawService,
		Selections: selections,
		Store:      storeHandle.Store,
	}

	handler := api.NewServer(services, sseHandle.Manager, m, api.Options{
		Version:           Version,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		DrawRatePerMinute: cfg.Draw.RatePerMinute,
		DrawBurst:         cfg.Draw.Burst,
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, api: handler}, nil
}
