package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/arcadesongs/arcadesongs-server/internal/domain"
	"github.com/arcadesongs/arcadesongs-server/internal/filter"
	"github.com/arcadesongs/arcadesongs-server/internal/service"
)

func (s *Server) registerSheetRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listSheets",
		Method:      http.MethodGet,
		Path:        "/api/v1/games/{game}/sheets",
		Summary:     "List sheets",
		Description: "Filters the sheets of a game. Filter keys follow the shareable query format " +
			"(categories, title, artist, types, difficulties, minLevelValue, region, ...); " +
			"superFilter takes a field query such as level_value:>=13.",
		Tags: []string{"Sheets"},
	}, s.handleListSheets)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSheet",
		Method:      http.MethodGet,
		Path:        "/api/v1/games/{game}/sheets/{expr}",
		Summary:     "Get sheet",
		Description: "Looks up one sheet by its songId|type|difficulty expression",
		Tags:        []string{"Sheets"},
	}, s.handleGetSheet)
}

// === DTOs ===

// ListSheetsInput carries paging and search parameters; filter keys are read by Resolve.
type ListSheetsInput struct {
	Game        string `path:"game" doc:"Game code"`
	Query       string `query:"q" maxLength:"200" doc:"Free-text search; results are ranked by relevance"`
	SuperFilter string `query:"superFilter" maxLength:"500" doc:"Field query applied after the structured filters"`
	Limit       int    `query:"limit" minimum:"1" maximum:"500" default:"50" doc:"Page size"`
	Offset      int    `query:"offset" minimum:"0" doc:"Page offset"`

	filters domain.Filters
}

// Resolve decodes the filter keys from the raw query string.
func (i *ListSheetsInput) Resolve(ctx huma.Context) []error {
	u := ctx.URL()
	i.filters = filter.FromValues(u.Query())
	if i.SuperFilter != "" {
		i.filters.SuperFilter = &i.SuperFilter
	}
	return nil
}

// SheetsResponse is one page of filtered sheets.
type SheetsResponse struct {
	Total  int                `json:"total" doc:"Number of matching sheets"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
	Query  map[string]string  `json:"query" doc:"Canonical shareable form of the applied filters"`
	Sheets []domain.SheetView `json:"sheets"`
}

// SheetsOutput wraps the sheet page for Huma.
type SheetsOutput struct {
	Body SheetsResponse
}

// GetSheetInput identifies one sheet.
type GetSheetInput struct {
	Game string `path:"game" doc:"Game code"`
	Expr string `path:"expr" doc:"Sheet expression songId|type|difficulty" example:"Alpha|dx|master"`
}

// SheetOutput wraps a single sheet for Huma.
type SheetOutput struct {
	Body domain.SheetView
}

// === Handlers ===

func (s *Server) handleListSheets(ctx context.Context, input *ListSheetsInput) (*SheetsOutput, error) {
	sheets, err := s.services.Catalog.FilterSheets(ctx, input.Game, service.SheetQuery{
		Filters: input.filters,
		Text:    strings.TrimSpace(input.Query),
	})
	if err != nil {
		return nil, toAPIError(err)
	}

	limit := input.Limit
	if limit <= 0 {
		limit = DefaultSheetLimit
	}
	limit = min(limit, MaxSheetLimit)
	start := min(max(input.Offset, 0), len(sheets))
	end := min(start+limit, len(sheets))

	return &SheetsOutput{
		Body: SheetsResponse{
			Total:  len(sheets),
			Limit:  limit,
			Offset: start,
			Query:  filter.SaveQuery(input.filters),
			Sheets: domain.Views(sheets[start:end]),
		},
	}, nil
}

func (s *Server) handleGetSheet(ctx context.Context, input *GetSheetInput) (*SheetOutput, error) {
	sheet, err := s.services.Catalog.FindSheet(ctx, input.Game, unescapeParam(input.Expr))
	if err != nil {
		return nil, toAPIError(err)
	}
	return &SheetOutput{Body: sheet.View()}, nil
}

// unescapeParam decodes a path parameter the router left escaped, such as a title holding "/".
func unescapeParam(p string) string {
	if !strings.Contains(p, "%") {
		return p
	}
	if decoded, err := url.PathUnescape(p); err == nil {
		return decoded
	}
	return p
}
