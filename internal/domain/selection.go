package domain

import (
	"log/slog"
	"slices"
)

// Selection is an ordered set of user-picked sheets keyed by canonical identity.
type Selection struct {
	sheets []*Sheet
	logger *slog.Logger
}

// NewSelection creates an empty selection. logger may be nil.
func NewSelection(logger *slog.Logger) *Selection {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Selection{logger: logger}
}

// Toggle adds the sheet when absent and removes it otherwise. It reports whether the sheet
// is selected afterwards. Override views are folded onto their canonical sheet with a warning.
func (s *Selection) Toggle(sheet *Sheet) bool {
	if !sheet.IsCanonical() {
		s.logger.Warn("non-canonical sheet used in selection",
			"sheetExpr", sheet.SheetExpr(), "region", sheet.Region())
		sheet = sheet.Canonical()
	}

	if i := slices.Index(s.sheets, sheet); i >= 0 {
		s.sheets = slices.Delete(s.sheets, i, i+1)
		return false
	}
	s.sheets = append(s.sheets, sheet)
	return true
}

// Contains reports whether the canonical form of sheet is selected.
func (s *Selection) Contains(sheet *Sheet) bool {
	return slices.Contains(s.sheets, sheet.Canonical())
}

// Sheets returns the selected sheets in selection order.
func (s *Selection) Sheets() []*Sheet { return slices.Clone(s.sheets) }

// Len returns the number of selected sheets.
func (s *Selection) Len() int { return len(s.sheets) }

// Clear empties the selection.
func (s *Selection) Clear() { s.sheets = nil }
