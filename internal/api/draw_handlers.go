package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	domainerrors "github.com/arcadesongs/arcadesongs-server/internal/errors"
	"github.com/arcadesongs/arcadesongs-server/internal/filter"
	"github.com/arcadesongs/arcadesongs-server/internal/service"
	"github.com/arcadesongs/arcadesongs-server/internal/sse"
)

func (s *Server) registerDrawRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createDraw",
		Method:        http.MethodPost,
		Path:          "/api/v1/games/{game}/draws",
		Summary:       "Create draw",
		Description:   "Starts a draw over the sheets matching the query. Slots are published on the draw stream.",
		Tags:          []string{"Draws"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   huma.Middlewares{s.rateLimited(s.drawLimiter)},
	}, s.handleCreateDraw)

	huma.Register(s.api, huma.Operation{
		OperationID: "getDraw",
		Method:      http.MethodGet,
		Path:        "/api/v1/draws/{id}",
		Summary:     "Get draw",
		Tags:        []string{"Draws"},
	}, s.handleGetDraw)

	huma.Register(s.api, huma.Operation{
		OperationID: "configureDraw",
		Method:      http.MethodPatch,
		Path:        "/api/v1/draws/{id}",
		Summary:     "Configure draw",
		Description: "Changes the pool, size or replacement. A running draw picks the change up when restarted.",
		Tags:        []string{"Draws"},
	}, s.handleConfigureDraw)

	huma.Register(s.api, huma.Operation{
		OperationID: "restartDraw",
		Method:      http.MethodPost,
		Path:        "/api/v1/draws/{id}/restart",
		Summary:     "Restart draw",
		Tags:        []string{"Draws"},
	}, s.handleRestartDraw)

	huma.Register(s.api, huma.Operation{
		OperationID: "stopDraw",
		Method:      http.MethodPost,
		Path:        "/api/v1/draws/{id}/stop",
		Summary:     "Stop draw",
		Description: "Stops a running draw keeping the slots shown last",
		Tags:        []string{"Draws"},
	}, s.handleStopDraw)

	huma.Register(s.api, huma.Operation{
		OperationID: "reopenDraw",
		Method:      http.MethodPost,
		Path:        "/api/v1/draws/{id}/reopen",
		Summary:     "Reopen combo",
		Description: "Shows the sheets of a saved combo in the draw",
		Tags:        []string{"Draws"},
	}, s.handleReopenDraw)

	// Event stream bypasses huma.
	s.router.Get("/api/v1/draws/{id}/stream", s.handleDrawStream)
}

// === DTOs ===

// CreateDrawInput starts a draw.
type CreateDrawInput struct {
	Game string `path:"game" doc:"Game code"`
	Body CreateDrawBody
}

// CreateDrawBody holds the draw parameters.
type CreateDrawBody struct {
	Query       map[string]string `json:"query,omitempty" doc:"Filters in the shareable query format"`
	SuperFilter string            `json:"superFilter,omitempty" maxLength:"500" doc:"Field query narrowing the pool"`
	Text        string            `json:"text,omitempty" maxLength:"200" doc:"Free-text search narrowing the pool"`
	Size        int               `json:"size" minimum:"1" maximum:"50" doc:"Number of slots"`
	Replacement bool              `json:"replacement,omitempty" doc:"Allow the same sheet in several slots"`
}

// DrawIDInput identifies a draw.
type DrawIDInput struct {
	ID string `path:"id" doc:"Draw ID" example:"draw-V1StGXR8_Z5jdHi6B"`
}

// ConfigureDrawInput changes a draw.
type ConfigureDrawInput struct {
	ID   string `path:"id" doc:"Draw ID"`
	Body ConfigureDrawBody
}

// ConfigureDrawBody lists the fields to change; absent fields are kept.
type ConfigureDrawBody struct {
	Query       map[string]string `json:"query,omitempty" doc:"Replacement filters in the shareable query format"`
	Text        *string           `json:"text,omitempty" doc:"Replacement free-text search"`
	Size        *int              `json:"size,omitempty" doc:"Number of slots"`
	Replacement *bool             `json:"replacement,omitempty"`
}

// ReopenDrawInput reopens a combo.
type ReopenDrawInput struct {
	ID   string `path:"id" doc:"Draw ID"`
	Body struct {
		ComboID string `json:"comboId" minLength:"1" doc:"Saved combo to show"`
	}
}

// DrawOutput wraps a draw snapshot for Huma.
type DrawOutput struct {
	Body service.DrawSnapshot
}

// === Handlers ===

func (s *Server) handleCreateDraw(ctx context.Context, input *CreateDrawInput) (*DrawOutput, error) {
	filters := filter.LoadQuery(input.Body.Query)
	if input.Body.SuperFilter != "" {
		filters.SuperFilter = &input.Body.SuperFilter
	}

	snap, err := s.services.Draws.Create(ctx, service.CreateDrawRequest{
		GameCode:    input.Game,
		Filters:     filters,
		Size:        input.Body.Size,
		Replacement: input.Body.Replacement,
		Text:        input.Body.Text,
	})
	if err != nil {
		return nil, toAPIError(err)
	}
	return &DrawOutput{Body: *snap}, nil
}

func (s *Server) handleGetDraw(ctx context.Context, input *DrawIDInput) (*DrawOutput, error) {
	return s.drawOutput(s.services.Draws.Get(ctx, input.ID))
}

func (s *Server) handleConfigureDraw(ctx context.Context, input *ConfigureDrawInput) (*DrawOutput, error) {
	req := service.ConfigureDrawRequest{
		Text:        input.Body.Text,
		Size:        input.Body.Size,
		Replacement: input.Body.Replacement,
	}
	if input.Body.Query != nil {
		filters := filter.LoadQuery(input.Body.Query)
		req.Filters = &filters
	}
	return s.drawOutput(s.services.Draws.Configure(ctx, input.ID, req))
}

func (s *Server) handleRestartDraw(ctx context.Context, input *DrawIDInput) (*DrawOutput, error) {
	return s.drawOutput(s.services.Draws.Restart(ctx, input.ID))
}

func (s *Server) handleStopDraw(ctx context.Context, input *DrawIDInput) (*DrawOutput, error) {
	return s.drawOutput(s.services.Draws.Stop(ctx, input.ID))
}

func (s *Server) handleReopenDraw(ctx context.Context, input *ReopenDrawInput) (*DrawOutput, error) {
	return s.drawOutput(s.services.Draws.Reopen(ctx, input.ID, input.Body.ComboID))
}

func (s *Server) drawOutput(snap *service.DrawSnapshot, err error) (*DrawOutput, error) {
	if err != nil {
		return nil, toAPIError(err)
	}
	return &DrawOutput{Body: *snap}, nil
}

// handleDrawStream streams the slot events of one draw, starting with its current slots.
func (s *Server) handleDrawStream(w http.ResponseWriter, r *http.Request) {
	if s.sseHandler == nil {
		writeError(w, domainerrors.Unavailablef("event streaming not configured"), s.logger)
		return
	}

	drawID := chi.URLParam(r, "id")
	initial, err := s.services.Draws.StreamSnapshot(drawID)
	if err != nil {
		writeError(w, err, s.logger)
		return
	}
	s.sseHandler.ServeTopic(w, r, sse.DrawTopic(drawID), initial)
}
