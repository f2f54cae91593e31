package catalog

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcadesongs/arcadesongs-server/internal/domain"
)

func TestBuildGallery(t *testing.T) {
	data := normalizeFixture(t, nil)
	raw, err := DecodeGallery(loadFixture(t, "gallery.json"))
	require.NoError(t, err)

	var buf bytes.Buffer
	gallery := BuildGallery(raw, data, slog.New(slog.NewTextHandler(&buf, nil)))

	require.Len(t, gallery, 2)
	picks := gallery[0]
	assert.Equal(t, "picks", picks.ID)
	require.Len(t, picks.Sections, 2)

	sheets := picks.Sections[0].Sheets
	require.Len(t, sheets, 4)
	assert.Same(t, data.Sheets()[0], sheets[0])
	assert.Same(t, data.Sheets()[2], sheets[1])

	assert.Equal(t, domain.CategoryUnmatchedSheet, sheets[2].Category())
	assert.Equal(t, "14", sheets[2].Level())
	assert.Equal(t, domain.CategoryInvalidSheetExpr, sheets[3].Category())

	assert.Equal(t, []string{"fast", "classic", "deleted", "typo"}, picks.Sections[0].SheetDescriptions)
	assert.Nil(t, picks.Sections[1].Sheets, "a section without references keeps none")
	assert.True(t, gallery[1].IsHidden)

	assert.Contains(t, buf.String(), "Gone Song|dx|remaster|14")
	assert.Contains(t, buf.String(), "broken")
}

func TestFindSheet(t *testing.T) {
	data := normalizeFixture(t, nil)

	sh, ok := FindSheet(data, "Old Song|std|basic")
	require.True(t, ok)
	assert.Equal(t, "3", sh.Level())

	_, ok = FindSheet(data, "nope|dx|basic")
	assert.False(t, ok)
}
