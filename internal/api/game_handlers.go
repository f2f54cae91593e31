package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/arcadesongs/arcadesongs-server/internal/domain"
	"github.com/arcadesongs/arcadesongs-server/internal/filter"
	"github.com/arcadesongs/arcadesongs-server/internal/service"
)

func (s *Server) registerGameRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listGames",
		Method:      http.MethodGet,
		Path:        "/api/v1/games",
		Summary:     "List games",
		Description: "Returns every configured game with its dataset loading status",
		Tags:        []string{"Games"},
	}, s.handleListGames)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGame",
		Method:      http.MethodGet,
		Path:        "/api/v1/games/{game}",
		Summary:     "Get game",
		Description: "Loads the dataset of a game if needed and returns its summary and reference tables",
		Tags:        []string{"Games"},
	}, s.handleGetGame)

	huma.Register(s.api, huma.Operation{
		OperationID:   "reloadGame",
		Method:        http.MethodPost,
		Path:          "/api/v1/games/{game}/reload",
		Summary:       "Reload game",
		Description:   "Refetches the dataset of a game, bypassing caches",
		Tags:          []string{"Games"},
		DefaultStatus: http.StatusAccepted,
		Middlewares:   huma.Middlewares{s.rateLimited(s.drawLimiter)},
	}, s.handleReloadGame)

	huma.Register(s.api, huma.Operation{
		OperationID: "getFilterOptions",
		Method:      http.MethodGet,
		Path:        "/api/v1/games/{game}/filter-options",
		Summary:     "Get filter options",
		Description: "Returns the distinct values of every filterable dimension with localized labels",
		Tags:        []string{"Games"},
	}, s.handleGetFilterOptions)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGallery",
		Method:      http.MethodGet,
		Path:        "/api/v1/games/{game}/gallery",
		Summary:     "Get gallery",
		Description: "Returns the curated sheet lists of a game",
		Tags:        []string{"Games"},
	}, s.handleGetGallery)
}

// === DTOs ===

// GameInput identifies a game.
type GameInput struct {
	Game string `path:"game" doc:"Game code" example:"maimai"`
}

// GamesResponse lists configured games.
type GamesResponse struct {
	Games []service.GameStatus `json:"games" doc:"Configured games with loading status"`
}

// GamesOutput wraps the games response for Huma.
type GamesOutput struct {
	Body GamesResponse
}

// GameResponse summarizes a loaded dataset.
type GameResponse struct {
	service.GameStatus
	SongCount    int                 `json:"songCount" doc:"Number of songs"`
	Categories   []domain.Category   `json:"categories"`
	Versions     []domain.Version    `json:"versions"`
	Types        []domain.SheetType  `json:"types"`
	Difficulties []domain.Difficulty `json:"difficulties"`
	Regions      []domain.Region     `json:"regions"`
	QueryKeys    []string            `json:"queryKeys" doc:"Filter keys understood by sheet listings"`
}

// GameOutput wraps the game response for Huma.
type GameOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         GameResponse
}

// ReloadOutput wraps the status after a reload.
type ReloadOutput struct {
	Body service.GameStatus
}

// FilterOptionsInput selects the label language.
type FilterOptionsInput struct {
	Game           string `path:"game" doc:"Game code"`
	Lang           string `query:"lang" doc:"Label language; defaults to Accept-Language"`
	AcceptLanguage string `header:"Accept-Language"`
}

// FilterOptionsOutput wraps the facets for Huma.
type FilterOptionsOutput struct {
	Body domain.FilterOptions
}

// GallerySectionResponse is a resolved gallery section.
type GallerySectionResponse struct {
	Title             string             `json:"title,omitempty"`
	Description       string             `json:"description,omitempty"`
	Sheets            []domain.SheetView `json:"sheets"`
	SheetDescriptions []string           `json:"sheetDescriptions,omitempty"`
}

// GalleryListResponse is a resolved curated list.
type GalleryListResponse struct {
	Title       string                   `json:"title"`
	ID          string                   `json:"id,omitempty"`
	Description string                   `json:"description,omitempty"`
	IsHidden    bool                     `json:"isHidden,omitempty"`
	Sections    []GallerySectionResponse `json:"sections"`
}

// GalleryResponse lists the gallery of a game.
type GalleryResponse struct {
	Lists []GalleryListResponse `json:"lists"`
}

// GalleryOutput wraps the gallery for Huma.
type GalleryOutput struct {
	Body GalleryResponse
}

// === Handlers ===

func (s *Server) handleListGames(_ context.Context, _ *struct{}) (*GamesOutput, error) {
	return &GamesOutput{Body: GamesResponse{Games: s.services.Catalog.Statuses()}}, nil
}

func (s *Server) handleGetGame(ctx context.Context, input *GameInput) (*GameOutput, error) {
	data, err := s.services.Catalog.Ensure(ctx, input.Game)
	if err != nil {
		return nil, toAPIError(err)
	}
	status, err := s.services.Catalog.Status(input.Game)
	if err != nil {
		return nil, toAPIError(err)
	}

	return &GameOutput{
		CacheControl: CacheShort,
		Body: GameResponse{
			GameStatus:   status,
			SongCount:    data.SongCount(),
			Categories:   data.Categories(),
			Versions:     data.Versions(),
			Types:        data.Types(),
			Difficulties: data.Difficulties(),
			Regions:      data.Regions(),
			QueryKeys:    filter.QueryKeys(),
		},
	}, nil
}

func (s *Server) handleReloadGame(ctx context.Context, input *GameInput) (*ReloadOutput, error) {
	if _, err := s.services.Catalog.Reload(ctx, input.Game); err != nil {
		return nil, toAPIError(err)
	}
	status, err := s.services.Catalog.Status(input.Game)
	if err != nil {
		return nil, toAPIError(err)
	}
	s.logger.Info("game reloaded", "game", input.Game, "sheets", status.SheetCount)
	return &ReloadOutput{Body: status}, nil
}

func (s *Server) handleGetFilterOptions(ctx context.Context, input *FilterOptionsInput) (*FilterOptionsOutput, error) {
	data, err := s.services.Catalog.Ensure(ctx, input.Game)
	if err != nil {
		return nil, toAPIError(err)
	}

	lang := input.Lang
	if lang == "" {
		lang = input.AcceptLanguage
	}
	return &FilterOptionsOutput{Body: filter.BuildOptions(data, filter.MatchLanguage(lang))}, nil
}

func (s *Server) handleGetGallery(ctx context.Context, input *GameInput) (*GalleryOutput, error) {
	if _, err := s.services.Catalog.Ensure(ctx, input.Game); err != nil {
		return nil, toAPIError(err)
	}

	gallery := s.services.Catalog.Gallery(input.Game)
	lists := make([]GalleryListResponse, 0, len(gallery))
	for _, list := range gallery {
		sections := make([]GallerySectionResponse, len(list.Sections))
		for i, sec := range list.Sections {
			sections[i] = GallerySectionResponse{
				Title:             sec.Title,
				Description:       sec.Description,
				Sheets:            domain.Views(sec.Sheets),
				SheetDescriptions: sec.SheetDescriptions,
			}
		}
		lists = append(lists, GalleryListResponse{
			Title:       list.Title,
			ID:          list.ID,
			Description: list.Description,
			IsHidden:    list.IsHidden,
			Sections:    sections,
		})
	}
	return &GalleryOutput{Body: GalleryResponse{Lists: lists}}, nil
}
