package filter

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcadesongs/arcadesongs-server/internal/domain"
)

// fixture builds two songs:
//
//	0 Alpha Song dx master 13+ (13.7 / 13.8) by X, jp only, intl override at 13
//	1 Alpha Song std basic 3
//	2 Beta dx expert 10 by Y, jp and intl, no BPM
//	3 Beta dx master 13 (13.0 / 13.2) by X
func fixture(t *testing.T) *domain.Data {
	t.Helper()
	b := domain.NewBuilder()

	alpha := b.Song(domain.Attrs{
		SongID:   domain.Ptr("Alpha Song"),
		Category: domain.Ptr("pop|anime"),
		Title:    domain.Ptr("Alpha Song"),
		Artist:   domain.Ptr("Singer"),
		BPM:      domain.Ptr(150.0),
		Version:  domain.Ptr("V1"),
	}, 1, "", "")
	beta := b.Song(domain.Attrs{
		SongID:   domain.Ptr("Beta"),
		Category: domain.Ptr("game"),
		Title:    domain.Ptr("Beta"),
		Artist:   domain.Ptr("Band"),
		Version:  domain.Ptr("V2"),
	}, 2, "", "")

	a1 := sheet(b, alpha, domain.Attrs{
		Type: domain.Ptr("dx"), Difficulty: domain.Ptr("master"),
		Level: domain.Ptr("13+"), LevelValue: domain.Ptr(13.7), InternalLevelValue: domain.Ptr(13.8),
		NoteDesigner: domain.Ptr("X"),
		Regions:      map[string]bool{"jp": true, "intl": false},
	})
	b.Override(a1, "intl", domain.SheetParams{Attrs: domain.Attrs{
		Level: domain.Ptr("13"), LevelValue: domain.Ptr(13.0),
		Regions: map[string]bool{"jp": true, "intl": true},
	}}, nil)
	a2 := sheet(b, alpha, domain.Attrs{
		Type: domain.Ptr("std"), Difficulty: domain.Ptr("basic"),
		Level: domain.Ptr("3"), LevelValue: domain.Ptr(3.0),
	})
	b1 := sheet(b, beta, domain.Attrs{
		Type: domain.Ptr("dx"), Difficulty: domain.Ptr("expert"),
		Level: domain.Ptr("10"), LevelValue: domain.Ptr(10.0),
		NoteDesigner: domain.Ptr("Y"),
		Regions:      map[string]bool{"jp": true, "intl": true},
	})
	b2 := sheet(b, beta, domain.Attrs{
		Type: domain.Ptr("dx"), Difficulty: domain.Ptr("master"),
		Level: domain.Ptr("13"), LevelValue: domain.Ptr(13.0), InternalLevelValue: domain.Ptr(13.2),
		NoteDesigner: domain.Ptr("X"),
	})

	return b.Build(domain.DataParams{
		Songs:        []*domain.Song{beta, alpha},
		Sheets:       []*domain.Sheet{a1, a2, b1, b2},
		Categories:   []domain.Category{{Category: "pop|anime"}, {Category: "game"}, {Category: ""}},
		Versions:     []domain.Version{{Version: "V1", Abbr: "v1"}, {Version: "V2"}},
		Types:        []domain.SheetType{{Type: "dx", Name: "DX"}, {Type: "std", Name: "STD"}},
		Difficulties: []domain.Difficulty{{Difficulty: "basic", Name: "BASIC"}, {Difficulty: "master", Name: "MASTER"}},
		Regions:      []domain.Region{{Region: "jp", Name: "Japan"}, {Region: "intl", Name: "International"}},
		UpdateTime:   "2024-01-01",
	})
}

func sheet(b *domain.Builder, song *domain.Song, attrs domain.Attrs) *domain.Sheet {
	sh := b.Sheet(song, domain.SheetParams{Attrs: attrs})
	id, _ := sh.SongID()
	b.Finish(sh, id+"|"+sh.Type()+"|"+sh.Difficulty(), nil)
	return sh
}

func ordinals(sheets []*domain.Sheet) []int {
	out := make([]int, len(sheets))
	for i, sh := range sheets {
		out[i] = sh.Ordinal()
	}
	return out
}

func TestSheets_IdentityPass(t *testing.T) {
	data := fixture(t)
	in := data.Sheets()

	out := Sheets(in, domain.EmptyFilters())
	assert.Equal(t, in, out)

	out[0] = nil
	assert.NotNil(t, in[0], "input is not aliased")
}

func TestSheets_Stages(t *testing.T) {
	data := fixture(t)

	tests := []struct {
		name    string
		filters domain.Filters
		want    []int
	}{
		{"level minimum", domain.Filters{MinLevelValue: domain.Ptr(5.0)}, []int{0, 2, 3}},
		{"level range", domain.Filters{MinLevelValue: domain.Ptr(10.0), MaxLevelValue: domain.Ptr(13.0)}, []int{2, 3}},
		{"internal level skips sheets without one", domain.Filters{
			MinLevelValue: domain.Ptr(1.0), UseInternalLevel: domain.Ptr(true),
		}, []int{0, 3}},
		{"sync level pins a single value", domain.Filters{
			MinLevelValue: domain.Ptr(13.0), SyncLevelValue: domain.Ptr(true),
		}, []int{3}},
		{"split category", domain.Filters{Categories: []string{"pop"}}, []int{0, 1}},
		{"whole category", domain.Filters{Categories: []string{"pop|anime"}}, []int{0, 1}},
		{"title substring ignores case", domain.Filters{Title: domain.Ptr("alpha")}, []int{0, 1}},
		{"title exact", domain.Filters{Title: domain.Ptr("alpha song"), ExactMatch: domain.Ptr(true)}, []int{}},
		{"artist exact", domain.Filters{Artist: domain.Ptr("Band"), ExactMatch: domain.Ptr(true)}, []int{2, 3}},
		{"versions", domain.Filters{Versions: []string{"V2"}}, []int{2, 3}},
		{"types", domain.Filters{Types: []string{"std"}}, []int{1}},
		{"difficulties", domain.Filters{Difficulties: []string{"master", "expert"}}, []int{0, 2, 3}},
		{"note designers", domain.Filters{NoteDesigners: []string{"X"}}, []int{0, 3}},
		{"bpm without value never matches", domain.Filters{MaxBPM: domain.Ptr(200.0)}, []int{0, 1}},
		{"sync bpm", domain.Filters{MinBPM: domain.Ptr(150.0), SyncBPM: domain.Ptr(true)}, []int{0, 1}},
		{"region include", domain.Filters{Region: domain.Ptr("intl")}, []int{2}},
		{"region exclude", domain.Filters{Region: domain.Ptr("!intl")}, []int{0, 1, 3}},
		{"region override", domain.Filters{
			Region: domain.Ptr("intl"), UseRegionOverride: domain.Ptr(true),
		}, []int{0, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ordinals(Sheets(data.Sheets(), tt.filters)))
		})
	}
}

func TestSheets_LevelExample(t *testing.T) {
	b := domain.NewBuilder()
	song := b.Song(domain.Attrs{SongID: domain.Ptr("Song A"), Title: domain.Ptr("Song A")}, 1, "", "")
	easy := sheet(b, song, domain.Attrs{Difficulty: domain.Ptr("easy"), Level: domain.Ptr("3"), LevelValue: domain.Ptr(3.0)})
	hard := sheet(b, song, domain.Attrs{Difficulty: domain.Ptr("hard"), Level: domain.Ptr("8"), LevelValue: domain.Ptr(8.0)})
	data := b.Build(domain.DataParams{Songs: []*domain.Song{song}, Sheets: []*domain.Sheet{easy, hard}, UpdateTime: "x"})

	got := Sheets(data.Sheets(), domain.Filters{MinLevelValue: domain.Ptr(5.0)})
	require.Len(t, got, 1)
	assert.Same(t, hard, got[0])
}

func TestSheets_OverrideResultsAreCanonical(t *testing.T) {
	data := fixture(t)

	got := Sheets(data.Sheets(), domain.Filters{
		Region:            domain.Ptr("intl"),
		UseRegionOverride: domain.Ptr(true),
		MaxLevelValue:     domain.Ptr(13.0),
	})

	require.Len(t, got, 2)
	assert.True(t, got[0].IsCanonical())
	assert.Equal(t, "13+", got[0].Level(), "override level matched, canonical sheet returned")
}

func TestSheets_Monotonic(t *testing.T) {
	data := fixture(t)
	constraints := []func(*domain.Filters){
		func(f *domain.Filters) { f.Types = []string{"dx"} },
		func(f *domain.Filters) { f.MinLevelValue = domain.Ptr(10.0) },
		func(f *domain.Filters) { f.Region = domain.Ptr("jp") },
		func(f *domain.Filters) { f.Artist = domain.Ptr("n") },
		func(f *domain.Filters) { f.NoteDesigners = []string{"X"} },
	}

	var f domain.Filters
	prev := len(Sheets(data.Sheets(), f))
	for _, add := range constraints {
		add(&f)
		n := len(Sheets(data.Sheets(), f))
		assert.LessOrEqual(t, n, prev)
		prev = n
	}
}

func TestSheets_SuperFilter(t *testing.T) {
	data := fixture(t)
	expr := domain.Ptr("anything")

	onlyDX := CompilerFunc(func(context.Context, string) (Predicate, error) {
		return func(sh *domain.Sheet) bool { return sh.Type() == "dx" }, nil
	})
	got := Sheets(data.Sheets(), domain.Filters{SuperFilter: expr}, WithCompiler(onlyDX))
	assert.Equal(t, []int{0, 2, 3}, ordinals(got))

	t.Run("compile error skips the stage", func(t *testing.T) {
		var buf bytes.Buffer
		failing := CompilerFunc(func(context.Context, string) (Predicate, error) {
			return nil, errors.New("syntax error")
		})
		got := Sheets(data.Sheets(), domain.Filters{SuperFilter: expr, Types: []string{"dx"}},
			WithCompiler(failing), WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
		assert.Equal(t, []int{0, 2, 3}, ordinals(got))
		assert.Contains(t, buf.String(), "syntax error")
	})

	t.Run("evaluation panic keeps the pre-stage result", func(t *testing.T) {
		var buf bytes.Buffer
		panicky := func(sh *domain.Sheet) bool {
			if sh.Ordinal() == 2 {
				panic("boom")
			}
			return false
		}
		got := Sheets(data.Sheets(), domain.EmptyFilters(),
			WithPredicate(panicky), WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
		assert.Equal(t, []int{0, 1, 2, 3}, ordinals(got))
		assert.Contains(t, buf.String(), "boom")
	})

	t.Run("ignored without compiler", func(t *testing.T) {
		got := Sheets(data.Sheets(), domain.Filters{SuperFilter: expr})
		assert.Len(t, got, 4)
	})
}
