package catalog

import (
	"log/slog"

	"github.com/arcadesongs/arcadesongs-server/internal/domain"
	"github.com/arcadesongs/arcadesongs-server/internal/logger"
)

// BuildGallery resolves every sheetExpr of the raw gallery against data. When several sheets
// share an expression the first one in Data.Sheets wins. Unresolved references become dummy
// sheets and are logged.
func BuildGallery(raw []domain.RawGalleryList, data *domain.Data, log *slog.Logger) domain.Gallery {
	log = logger.OrDiscard(log)

	index := make(map[string]*domain.Sheet, data.SheetCount())
	for _, sh := range data.Sheets() {
		if _, seen := index[sh.SheetExpr()]; !seen {
			index[sh.SheetExpr()] = sh
		}
	}

	gallery := make(domain.Gallery, 0, len(raw))
	for _, rl := range raw {
		list := domain.GalleryList{
			Title:       rl.Title,
			ID:          rl.ID,
			Description: rl.Description,
			IsHidden:    rl.IsHidden,
			Sections:    make([]domain.GallerySection, 0, len(rl.Sections)),
		}
		for _, rs := range rl.Sections {
			section := domain.GallerySection{
				Title:             rs.Title,
				Description:       rs.Description,
				SheetDescriptions: rs.SheetDescriptions,
			}
			if rs.Sheets != nil {
				section.Sheets = make([]*domain.Sheet, 0, len(rs.Sheets))
			}
			for _, expr := range rs.Sheets {
				sh, ok := index[expr]
				if !ok {
					log.Warn("sheet for expr not found", "sheetExpr", expr, "list", rl.Title)
					sh = domain.DummySheet(expr)
				}
				section.Sheets = append(section.Sheets, sh)
			}
			list.Sections = append(list.Sections, section)
		}
		gallery = append(gallery, list)
	}
	return gallery
}

// FindSheet looks a canonical sheet up by its sheetExpr.
func FindSheet(data *domain.Data, sheetExpr string) (*domain.Sheet, bool) {
	for _, sh := range data.Sheets() {
		if sh.SheetExpr() == sheetExpr {
			return sh, true
		}
	}
	return nil, false
}
