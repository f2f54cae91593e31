package api

import (
	"github.com/arcadesongs/arcadesongs-server/internal/service"
	"github.com/arcadesongs/arcadesongs-server/internal/store"
)

// Services groups the business services used by the API server.
type Services struct {
	Catalog    *service.CatalogService
	Draws      *service.DrawService
	Selections *service.SelectionService
	// Store is optional; health reports it degraded when nil.
	Store *store.Store
}
