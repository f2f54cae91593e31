// Package di provides dependency injection configuration for the arcade-songs server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/arcadesongs/arcadesongs-server/internal/config"
	"github.com/arcadesongs/arcadesongs-server/internal/di/providers"
	"github.com/arcadesongs/arcadesongs-server/internal/logger"
	"github.com/arcadesongs/arcadesongs-server/internal/metrics"
	"github.com/arcadesongs/arcadesongs-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideMetrics)

	// Database layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)

	// Catalog layer
	do.Provide(injector, providers.ProvideSource)
	do.Provide(injector, providers.ProvideCatalogService)

	// Business services
	do.Provide(injector, providers.ProvideDrawService)
	do.Provide(injector, providers.ProvideSelectionService)

	// Workers
	do.Provide(injector, providers.ProvideDatasetWatcher)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*metrics.Metrics](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SourceHandle](injector)
	_ = do.MustInvoke[*providers.CatalogServiceHandle](injector)

	// Business services
	_ = do.MustInvoke[*providers.DrawServiceHandle](injector)
	_ = do.MustInvoke[*service.SelectionService](injector)

	// Workers
	_ = do.MustInvoke[*providers.DatasetWatcherHandle](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
