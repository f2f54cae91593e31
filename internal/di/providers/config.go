// Package providers contains dependency injection providers for the arcade-songs server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/arcadesongs/arcadesongs-server/internal/config"
	"github.com/arcadesongs/arcadesongs-server/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting arcade-songs server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"storage_path", cfg.Storage.Path,
		"data_source_url", cfg.Catalog.DataSourceURL,
		"data_dir", cfg.Catalog.DataDir,
	)

	return log, nil
}
