package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/arcadesongs/arcadesongs-server/internal/domain"
)

func (s *Server) registerComboRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCombo",
		Method:      http.MethodGet,
		Path:        "/api/v1/combos/{id}",
		Summary:     "Get combo",
		Description: "Returns a saved draw result with its sheets resolved against the current dataset",
		Tags:        []string{"Combos"},
	}, s.handleGetCombo)

	huma.Register(s.api, huma.Operation{
		OperationID: "listCombos",
		Method:      http.MethodGet,
		Path:        "/api/v1/games/{game}/combos",
		Summary:     "List combos",
		Description: "Lists the saved draw results of a game, newest first",
		Tags:        []string{"Combos"},
	}, s.handleListCombos)
}

// ComboIDInput identifies a combo.
type ComboIDInput struct {
	ID string `path:"id" doc:"Combo ID"`
}

// ComboResponse is a saved combo.
type ComboResponse struct {
	ID          string             `json:"id"`
	GameCode    string             `json:"gameCode"`
	Size        int                `json:"size"`
	Replacement bool               `json:"replacement"`
	Query       map[string]string  `json:"query,omitempty" doc:"Filters the combo was drawn with"`
	SheetExprs  []string           `json:"sheetExprs"`
	Sheets      []domain.SheetView `json:"sheets,omitempty" doc:"Resolved sheets; missing ones are dummy sheets"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// ComboOutput wraps a combo for Huma.
type ComboOutput struct {
	Body ComboResponse
}

// CombosOutput wraps a combo list for Huma.
type CombosOutput struct {
	Body struct {
		Combos []ComboResponse `json:"combos"`
	}
}

func (s *Server) handleGetCombo(ctx context.Context, input *ComboIDInput) (*ComboOutput, error) {
	combo, sheets, err := s.services.Draws.ComboSheets(ctx, input.ID)
	if err != nil {
		return nil, toAPIError(err)
	}
	resp := toComboResponse(combo)
	resp.Sheets = domain.Views(sheets)
	return &ComboOutput{Body: resp}, nil
}

func (s *Server) handleListCombos(ctx context.Context, input *GameInput) (*CombosOutput, error) {
	combos, err := s.services.Draws.Combos(ctx, input.Game)
	if err != nil {
		return nil, toAPIError(err)
	}
	out := &CombosOutput{}
	out.Body.Combos = make([]ComboResponse, len(combos))
	for i, c := range combos {
		out.Body.Combos[i] = toComboResponse(c)
	}
	return out, nil
}

func toComboResponse(c *domain.Combo) ComboResponse {
	return ComboResponse{
		ID:          c.ID,
		GameCode:    c.GameCode,
		Size:        c.Size,
		Replacement: c.Replacement,
		Query:       c.Query,
		SheetExprs:  c.SheetExprs,
		CreatedAt:   c.CreatedAt,
	}
}
