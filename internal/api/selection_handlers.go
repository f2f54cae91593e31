package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/arcadesongs/arcadesongs-server/internal/domain"
	"github.com/arcadesongs/arcadesongs-server/internal/service"
)

func (s *Server) registerSelectionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getSelection",
		Method:      http.MethodGet,
		Path:        "/api/v1/games/{game}/selection",
		Summary:     "Get selection",
		Tags:        []string{"Selection"},
	}, s.handleGetSelection)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleSelection",
		Method:      http.MethodPost,
		Path:        "/api/v1/games/{game}/selection",
		Summary:     "Toggle sheet",
		Description: "Adds a sheet to the selection, or removes it when already selected",
		Tags:        []string{"Selection"},
	}, s.handleToggleSelection)

	huma.Register(s.api, huma.Operation{
		OperationID:   "clearSelection",
		Method:        http.MethodDelete,
		Path:          "/api/v1/games/{game}/selection",
		Summary:       "Clear selection",
		Tags:          []string{"Selection"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleClearSelection)
}

// SelectionInput identifies an owner's selection.
type SelectionInput struct {
	Game  string `path:"game" doc:"Game code"`
	Owner string `query:"owner" required:"true" minLength:"1" maxLength:"100" doc:"Selection owner"`
}

// ToggleSelectionInput toggles one sheet.
type ToggleSelectionInput struct {
	Game  string `path:"game" doc:"Game code"`
	Owner string `query:"owner" required:"true" minLength:"1" maxLength:"100" doc:"Selection owner"`
	Body  struct {
		SheetExpr string `json:"sheetExpr" minLength:"1" doc:"Sheet expression songId|type|difficulty"`
	}
}

// SelectionResponse is an owner's selection.
type SelectionResponse struct {
	GameCode string             `json:"gameCode"`
	Owner    string             `json:"owner"`
	Sheets   []domain.SheetView `json:"sheets"`
	Selected *bool              `json:"selected,omitempty" doc:"State of the toggled sheet"`
}

// SelectionOutput wraps a selection for Huma.
type SelectionOutput struct {
	Body SelectionResponse
}

func (s *Server) handleGetSelection(ctx context.Context, input *SelectionInput) (*SelectionOutput, error) {
	res, err := s.services.Selections.Get(ctx, input.Game, input.Owner)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &SelectionOutput{Body: toSelectionResponse(res, false)}, nil
}

func (s *Server) handleToggleSelection(ctx context.Context, input *ToggleSelectionInput) (*SelectionOutput, error) {
	res, err := s.services.Selections.Toggle(ctx, input.Game, input.Owner, input.Body.SheetExpr)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &SelectionOutput{Body: toSelectionResponse(res, true)}, nil
}

func (s *Server) handleClearSelection(ctx context.Context, input *SelectionInput) (*struct{}, error) {
	if err := s.services.Selections.Clear(ctx, input.Game, input.Owner); err != nil {
		return nil, toAPIError(err)
	}
	return nil, nil
}

func toSelectionResponse(res *service.SelectionResult, toggled bool) SelectionResponse {
	resp := SelectionResponse{
		GameCode: res.GameCode,
		Owner:    res.Owner,
		Sheets:   domain.Views(res.Sheets),
	}
	if toggled {
		resp.Selected = &res.Selected
	}
	return resp
}
