package service

import (
	"context"
	"time"

	"github.com/arcadesongs/arcadesongs-server/internal/catalog"
	"github.com/arcadesongs/arcadesongs-server/internal/domain"
	domainerrors "github.com/arcadesongs/arcadesongs-server/internal/errors"
	"github.com/arcadesongs/arcadesongs-server/internal/filter"
	"github.com/arcadesongs/arcadesongs-server/internal/search"
)

// SheetQuery selects sheets of one game.
type SheetQuery struct {
	Filters domain.Filters
	// Text, when set, keeps only sheets matching a free-text search, ranked by relevance.
	Text string
}

// FilterSheets loads the game if needed and returns the sheets matching q.
// The super filter is evaluated against the game's search index.
func (s *CatalogService) FilterSheets(ctx context.Context, gameCode string, q SheetQuery) ([]*domain.Sheet, error) {
	data, err := s.Ensure(ctx, gameCode)
	if err != nil {
		return nil, err
	}
	index := s.Index(gameCode)

	start := time.Now()
	opts := []filter.Option{filter.WithContext(ctx), filter.WithLogger(s.logger.With("game", gameCode))}
	if index != nil {
		opts = append(opts, filter.WithCompiler(index))
	}
	sheets := filter.Sheets(data.Sheets(), q.Filters, opts...)

	if q.Text != "" {
		if index == nil {
			return nil, domainerrors.Unavailablef("search index for %q not ready", gameCode)
		}
		sheets, err = rankByText(ctx, index, sheets, q.Text)
		if err != nil {
			return nil, err
		}
	}

	s.metrics.RecordFilter(gameCode, time.Since(start), len(sheets))
	return sheets, nil
}

// rankByText intersects sheets with a free-text search, in search rank order.
func rankByText(ctx context.Context, index *search.SheetIndex, sheets []*domain.Sheet, text string) ([]*domain.Sheet, error) {
	if len(sheets) == 0 {
		return sheets, nil
	}
	count, err := index.DocumentCount()
	if err != nil {
		return nil, err
	}
	res, err := index.Search(ctx, search.SearchParams{Query: text, Limit: int(count)})
	if err != nil {
		return nil, err
	}

	byOrdinal := make(map[int]*domain.Sheet, len(sheets))
	for _, sh := range sheets {
		byOrdinal[sh.Ordinal()] = sh
	}

	out := make([]*domain.Sheet, 0, len(res.Hits))
	for _, ord := range res.Ordinals() {
		if sh, ok := byOrdinal[ord]; ok {
			out = append(out, sh)
			delete(byOrdinal, ord)
		}
	}
	return out, nil
}

// FindSheet loads the game if needed and returns the canonical sheet with sheetExpr.
func (s *CatalogService) FindSheet(ctx context.Context, gameCode, sheetExpr string) (*domain.Sheet, error) {
	data, err := s.Ensure(ctx, gameCode)
	if err != nil {
		return nil, err
	}
	sh, ok := catalog.FindSheet(data, sheetExpr)
	if !ok {
		return nil, domainerrors.NotFoundf("sheet %q not found in %s", sheetExpr, gameCode)
	}
	return sh, nil
}

// ResolveSheets maps sheet expressions to sheets of data. An expression that no longer resolves
// becomes a dummy sheet carrying the expression.
func ResolveSheets(data *domain.Data, exprs []string) []*domain.Sheet {
	byExpr := make(map[string]*domain.Sheet, data.SheetCount())
	for _, sh := range data.Sheets() {
		byExpr[sh.SheetExpr()] = sh
	}

	out := make([]*domain.Sheet, len(exprs))
	for i, expr := range exprs {
		if sh, ok := byExpr[expr]; ok {
			out[i] = sh
		} else {
			out[i] = domain.DummySheet(expr)
		}
	}
	return out
}
