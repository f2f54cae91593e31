package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/arcadesongs/arcadesongs-server/internal/domain"
	domainerrors "github.com/arcadesongs/arcadesongs-server/internal/errors"
	"github.com/arcadesongs/arcadesongs-server/internal/logger"
	"github.com/arcadesongs/arcadesongs-server/internal/store"
)

// SelectionResult is an owner's selection of one game.
type SelectionResult struct {
	GameCode string
	Owner    string
	Sheets   []*domain.Sheet
	// Selected reports the toggled sheet's state after a Toggle.
	Selected bool
}

// SelectionService keeps per-owner sheet selections in the store.
type SelectionService struct {
	catalog *CatalogService
	store   *store.Store
	logger  *slog.Logger
}

// NewSelectionService creates a selection service.
func NewSelectionService(catalogSvc *CatalogService, st *store.Store, log *slog.Logger) *SelectionService {
	return &SelectionService{catalog: catalogSvc, store: st, logger: logger.OrDiscard(log)}
}

// Get returns the selection of owner for a game. A missing selection is empty.
func (s *SelectionService) Get(ctx context.Context, gameCode, owner string) (*SelectionResult, error) {
	sel, data, err := s.load(ctx, gameCode, owner)
	if err != nil {
		return nil, err
	}
	return &SelectionResult{GameCode: gameCode, Owner: owner, Sheets: s.resolve(data, sel).Sheets()}, nil
}

// Toggle adds the sheet with sheetExpr to the selection, or removes it when already selected.
func (s *SelectionService) Toggle(ctx context.Context, gameCode, owner, sheetExpr string) (*SelectionResult, error) {
	sel, data, err := s.load(ctx, gameCode, owner)
	if err != nil {
		return nil, err
	}
	sheet, err := s.catalog.FindSheet(ctx, gameCode, sheetExpr)
	if err != nil {
		return nil, err
	}

	selection := s.resolve(data, sel)
	selected := selection.Toggle(sheet)

	sheets := selection.Sheets()
	exprs := make([]string, len(sheets))
	for i, sh := range sheets {
		exprs[i] = sh.SheetExpr()
	}
	if err := s.store.SaveSelection(ctx, &domain.SheetSelection{
		GameCode:   gameCode,
		Owner:      owner,
		SheetExprs: exprs,
	}); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "save selection")
	}

	return &SelectionResult{GameCode: gameCode, Owner: owner, Sheets: sheets, Selected: selected}, nil
}

// Clear empties the selection of owner for a game.
func (s *SelectionService) Clear(ctx context.Context, gameCode, owner string) error {
	if err := s.check(gameCode, owner); err != nil {
		return err
	}
	return s.store.DeleteSelection(ctx, gameCode, owner)
}

func (s *SelectionService) check(gameCode, owner string) error {
	if s.store == nil {
		return domainerrors.Unavailablef("selection storage not configured")
	}
	if owner == "" {
		return domainerrors.Validationf("owner is required")
	}
	_, err := s.catalog.Site(gameCode)
	return err
}

func (s *SelectionService) load(ctx context.Context, gameCode, owner string) (*domain.SheetSelection, *domain.Data, error) {
	if err := s.check(gameCode, owner); err != nil {
		return nil, nil, err
	}
	data, err := s.catalog.Ensure(ctx, gameCode)
	if err != nil {
		return nil, nil, err
	}

	sel, err := s.store.GetSelection(ctx, gameCode, owner)
	if errors.Is(err, store.ErrNotFound) {
		return &domain.SheetSelection{GameCode: gameCode, Owner: owner}, data, nil
	}
	if err != nil {
		return nil, nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "load selection")
	}
	return sel, data, nil
}

// resolve rebuilds the in-memory selection. Expressions that no longer resolve are dropped.
func (s *SelectionService) resolve(data *domain.Data, sel *domain.SheetSelection) *domain.Selection {
	selection := domain.NewSelection(s.logger)
	for _, sh := range ResolveSheets(data, sel.SheetExprs) {
		if sh.IsPlaceholder() {
			s.logger.Debug("dropping stale selection entry", "game", sel.GameCode, "sheetExpr", sh.SheetExpr())
			continue
		}
		if !selection.Contains(sh) {
			selection.Toggle(sh)
		}
	}
	return selection
}
