package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arcadesongs/arcadesongs-server/internal/domain"
	domainerrors "github.com/arcadesongs/arcadesongs-server/internal/errors"
	"github.com/arcadesongs/arcadesongs-server/internal/sse"
)

func (s *Server) registerEventRoutes() {
	// Event streams bypass huma.
	s.router.Get("/api/v1/events", s.handleEvents)
	s.router.Get("/api/v1/games/{game}/events", s.handleGameEvents)
}

// handleEvents streams every event, or those of the "topic" query parameter.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.sseHandler == nil {
		writeError(w, domainerrors.Unavailablef("event streaming not configured"), s.logger)
		return
	}
	s.sseHandler.ServeHTTP(w, r)
}

// handleGameEvents streams the loading events of one game, starting with its current status.
func (s *Server) handleGameEvents(w http.ResponseWriter, r *http.Request) {
	if s.sseHandler == nil {
		writeError(w, domainerrors.Unavailablef("event streaming not configured"), s.logger)
		return
	}

	gameCode := chi.URLParam(r, "game")
	status, err := s.services.Catalog.Status(gameCode)
	if err != nil {
		writeError(w, err, s.logger)
		return
	}

	var initial []sse.Event
	if t, ok := catalogEventType(status.Status); ok {
		initial = append(initial, sse.NewCatalogEvent(t, sse.CatalogEventData{
			GameCode:   gameCode,
			Status:     status.Status,
			Error:      status.Error,
			UpdateTime: status.UpdateTime,
			SheetCount: status.SheetCount,
			FromCache:  status.FromSnapshot,
		}))
	}
	s.sseHandler.ServeTopic(w, r, sse.CatalogTopic(gameCode), initial...)
}

func catalogEventType(status domain.LoadingStatus) (sse.EventType, bool) {
	switch status {
	case domain.StatusLoading:
		return sse.EventCatalogLoading, true
	case domain.StatusLoaded:
		return sse.EventCatalogLoaded, true
	case domain.StatusError:
		return sse.EventCatalogError, true
	default:
		return "", false
	}
}
