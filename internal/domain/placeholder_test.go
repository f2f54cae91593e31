package domain

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDummySheet(t *testing.T) {
	t.Run("invalid expression", func(t *testing.T) {
		sh := DummySheet("only|two")

		assert.Equal(t, CategoryInvalidSheetExpr, sh.Category())
		assert.Equal(t, "only|two", sh.Title())
		assert.Equal(t, "invalid", sh.Difficulty())
		_, ok := sh.SongID()
		assert.False(t, ok)
		assert.True(t, sh.IsPlaceholder())
	})

	t.Run("unmatched expression", func(t *testing.T) {
		sh := DummySheet("Missing Song|dx|expert|12+")

		assert.Equal(t, CategoryUnmatchedSheet, sh.Category())
		id, ok := sh.SongID()
		require.True(t, ok)
		assert.Equal(t, "Missing Song", id)
		assert.Equal(t, "dx", sh.Type())
		assert.Equal(t, "expert", sh.Difficulty())
		assert.Equal(t, "12+", sh.Level())
		assert.Equal(t, "Missing Song|dx|expert|12+", sh.SheetExpr())
	})

	t.Run("unmatched without level", func(t *testing.T) {
		sh := DummySheet("x|std|basic")
		assert.Empty(t, sh.Level())
	})
}

func TestPlaceholders(t *testing.T) {
	null := NullSheet()
	void := VoidSheet()

	assert.Equal(t, 0, null.SongNo())
	assert.Equal(t, -1, void.SongNo())
	assert.True(t, null.IsCanonical())
	assert.Nil(t, null.Song())
	assert.NotEqual(t, null.Title(), void.Title())
}

func TestSelection_Toggle(t *testing.T) {
	_, sheet, override := buildSong(t)

	var buf bytes.Buffer
	sel := NewSelection(slog.New(slog.NewTextHandler(&buf, nil)))

	assert.True(t, sel.Toggle(sheet))
	assert.True(t, sel.Contains(override), "override resolves to its canonical sheet")
	assert.Empty(t, buf.String())

	assert.False(t, sel.Toggle(override))
	assert.Contains(t, buf.String(), "non-canonical sheet used in selection")
	assert.Zero(t, sel.Len())

	sel.Toggle(sheet)
	sel.Clear()
	assert.Empty(t, sel.Sheets())
}

func TestFilters_RegionSelection(t *testing.T) {
	_, _, ok := EmptyFilters().RegionSelection()
	assert.False(t, ok)

	r, neg, ok := Filters{Region: Ptr("!intl")}.RegionSelection()
	assert.True(t, ok)
	assert.True(t, neg)
	assert.Equal(t, "intl", r)

	r, neg, _ = Filters{Region: Ptr("jp")}.RegionSelection()
	assert.False(t, neg)
	assert.Equal(t, "jp", r)
}
