package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/arcadesongs/arcadesongs-server/internal/domain"
)

func TestBuildOptions(t *testing.T) {
	opts := BuildOptions(fixture(t), language.English)

	assert.Equal(t, []domain.FilterOption[string]{
		{Text: "pop|anime", Value: "pop|anime"},
		{Text: "game", Value: "game"},
		{Text: "N/A", Value: ""},
	}, opts.Categories)
	assert.Equal(t, []string{"Beta", "Alpha Song"}, opts.Titles)
	assert.Equal(t, []string{"Band", "Singer"}, opts.Artists)
	assert.Equal(t, []float64{150}, opts.BPMs)

	assert.Equal(t, "v1", opts.Versions[0].Text)
	assert.Equal(t, "V2", opts.Versions[1].Text, "version without abbr uses its name")
	assert.Equal(t, domain.FilterOption[string]{Text: "STD", Value: "std"}, opts.Types[1])

	assert.Equal(t, []domain.FilterOption[float64]{
		{Text: "3", Value: 3},
		{Text: "10", Value: 10},
		{Text: "13", Value: 13},
		{Text: "13+", Value: 13.7},
	}, opts.Levels)
	assert.Equal(t, []domain.FilterOption[float64]{
		{Text: "13.2", Value: 13.2},
		{Text: "13.8", Value: 13.8},
	}, opts.InternalLevels)

	assert.Equal(t, []domain.FilterOption[string]{
		{Text: "X (2)", Value: "X"},
		{Text: "Y (1)", Value: "Y"},
	}, opts.NoteDesigners)

	require.Len(t, opts.Regions, 4)
	assert.Equal(t, domain.FilterOption[string]{Text: "Japan", Value: "jp"}, opts.Regions[0])
	assert.Equal(t, domain.FilterOption[string]{Text: "Unavailable in Japan", Value: "!jp"}, opts.Regions[1])
	assert.Equal(t, "!intl", opts.Regions[3].Value)
}

func TestBuildOptions_LocalizedRegions(t *testing.T) {
	opts := BuildOptions(fixture(t), language.Japanese)
	assert.Equal(t, "Japan版未収録", opts.Regions[1].Text)

	opts = BuildOptions(fixture(t), MatchLanguage("zh-TW,zh;q=0.9"))
	assert.Equal(t, "Japan版未收錄", opts.Regions[1].Text)
}

func TestBuildOptions_EmptyData(t *testing.T) {
	assert.Equal(t, domain.EmptyFilterOptions(), BuildOptions(domain.EmptyData(), language.English))

	loaded := domain.NewBuilder().Build(domain.DataParams{UpdateTime: "2024-01-01"})
	opts := BuildOptions(loaded, language.English)
	assert.Nil(t, opts.Titles, "loaded but empty dimensions are nil")
	assert.Nil(t, opts.Regions)
}

func TestMatchLanguage(t *testing.T) {
	assert.Equal(t, language.English, MatchLanguage(""))
	assert.Equal(t, language.Japanese, MatchLanguage("ja-JP"))
	assert.Equal(t, language.English, MatchLanguage("fr-FR"))
	assert.Equal(t, language.English, MatchLanguage(";;;"))
}
