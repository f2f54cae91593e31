package domain

import "strings"

// NewPlaceholder builds a song-less sheet carrying only its own fields.
func NewPlaceholder(attrs Attrs, songNo int, imageURL string) *Sheet {
	return &Sheet{own: attrs.clone(), imageURL: imageURL, songNo: songNo, ordinal: -1}
}

// NullSheet stands in for an empty draw slot.
func NullSheet() *Sheet {
	return NewPlaceholder(Attrs{
		Category:   Ptr("???"),
		Title:      Ptr("ฅ•ω•ฅ"),
		Artist:     Ptr(":3"),
		Type:       Ptr("??"),
		Difficulty: Ptr("?"),
		Level:      Ptr(""),
		LevelValue: Ptr(0.0),
		Comment:    Ptr("Oops! Nothing here :3"),
		SearchURL:  Ptr("https://www.youtube.com/watch?v=W1nifh1OhI8"),
	}, 0, "")
}

// VoidSheet stands in for a slot that can never be filled.
func VoidSheet() *Sheet {
	return NewPlaceholder(Attrs{
		Category:   Ptr("???"),
		Title:      Ptr("ฅ-ω-ฅ"),
		Artist:     Ptr(";3"),
		Type:       Ptr("??"),
		Difficulty: Ptr("?"),
		Level:      Ptr(""),
		LevelValue: Ptr(0.0),
		Comment:    Ptr("Oops! Nothing here ;3"),
		SearchURL:  Ptr("https://www.youtube.com/watch?v=C9PFVo1FEwU"),
	}, -1, "")
}

// Dummy category markers for unresolved gallery references.
const (
	CategoryInvalidSheetExpr = "INVALID SHEET EXPR"
	CategoryUnmatchedSheet   = "UNMATCHED SHEET"
)

// DummySheet builds the placeholder shown for a sheetExpr that resolves to nothing.
// Fewer than three "|" parts is an invalid expression; otherwise the parts are
// songId, type, difficulty and an optional level.
func DummySheet(sheetExpr string) *Sheet {
	parts := strings.Split(sheetExpr, "|")

	if len(parts) < 3 {
		sh := NewPlaceholder(Attrs{
			Category:   Ptr(CategoryInvalidSheetExpr),
			Title:      Ptr(sheetExpr),
			Type:       Ptr("??"),
			Difficulty: Ptr("invalid"),
			Comment:    Ptr("This sheet expr is not in a valid format."),
		}, 0, "")
		sh.sheetExpr = sheetExpr
		return sh
	}

	attrs := Attrs{
		SongID:     Ptr(parts[0]),
		Category:   Ptr(CategoryUnmatchedSheet),
		Title:      Ptr(parts[0]),
		Type:       Ptr(parts[1]),
		Difficulty: Ptr(parts[2]),
		Comment:    Ptr("This sheet expr doesn't match with any sheets."),
	}
	if len(parts) > 3 {
		attrs.Level = Ptr(parts[3])
	}
	sh := NewPlaceholder(attrs, 0, "")
	sh.sheetExpr = sheetExpr
	return sh
}

// IsPlaceholder reports whether the sheet belongs to no song.
func (s *Sheet) IsPlaceholder() bool { return s.Song() == nil }
