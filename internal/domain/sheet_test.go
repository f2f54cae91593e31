package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSong(t *testing.T) (*Data, *Sheet, *Sheet) {
	t.Helper()

	b := NewBuilder()
	song := b.Song(Attrs{
		SongID:    Ptr("song-a"),
		Category:  Ptr("pop|anime"),
		Title:     Ptr("Song A"),
		Artist:    Ptr("Artist A"),
		BPM:       Ptr(150.0),
		ImageName: Ptr("a.png"),
		Version:   Ptr("FESTiVAL"),
	}, 1, "https://cdn/img/cover/a.png", "https://cdn/img/cover-m/a.png")

	sheet := b.Sheet(song, SheetParams{Attrs: Attrs{
		Type:       Ptr("dx"),
		Difficulty: Ptr("master"),
		Level:      Ptr("13+"),
		LevelValue: Ptr(13.7),
		Artist:     Ptr("Sheet Artist"),
		NoteCounts: NoteCounts{"tap": Ptr(10), "total": Ptr(20)},
		Regions:    map[string]bool{"jp": true, "intl": false},
	}})
	b.Finish(sheet, "song-a|dx|master", NotePercents{"tap": Ptr(0.5), "total": Ptr(1.0)})

	override := b.Override(sheet, "intl", SheetParams{Attrs: Attrs{
		Level:      Ptr("13"),
		LevelValue: Ptr(13.0),
	}}, nil)

	data := b.Build(DataParams{Songs: []*Song{song}, Sheets: []*Sheet{sheet}, UpdateTime: "2024-01-01"})
	return data, sheet, override
}

func TestSheet_InheritsSongFields(t *testing.T) {
	_, sheet, _ := buildSong(t)

	assert.Equal(t, "Song A", sheet.Title())
	assert.Equal(t, "Sheet Artist", sheet.Artist(), "own field wins over song")
	assert.Equal(t, "FESTiVAL", sheet.Version())
	assert.Equal(t, []string{"pop", "anime"}, sheet.Categories())
	assert.Equal(t, "https://cdn/img/cover/a.png", sheet.ImageURL())

	bpm, ok := sheet.BPM()
	require.True(t, ok)
	assert.Equal(t, 150.0, bpm)

	id, ok := sheet.SongID()
	require.True(t, ok)
	assert.Equal(t, "song-a", id)
	assert.Equal(t, 1, sheet.SongNo())
}

func TestSheet_OverrideChain(t *testing.T) {
	_, sheet, override := buildSong(t)

	assert.False(t, override.IsCanonical())
	assert.Same(t, sheet, override.Canonical())
	assert.Same(t, sheet.Song(), override.Song())

	// Override field, then base sheet, then song.
	assert.Equal(t, "13", override.Level())
	assert.Equal(t, "master", override.Difficulty())
	assert.Equal(t, "Sheet Artist", override.Artist())
	assert.Equal(t, "Song A", override.Title())

	assert.Equal(t, "song-a|dx|master", override.SheetExpr())
	assert.Equal(t, "0@intl", override.Key())
	assert.Equal(t, "0", sheet.Key())

	assert.Same(t, override, sheet.RegionOverride("intl"))
	assert.Same(t, sheet, sheet.RegionOverride("jp"))
	assert.Equal(t, []string{"intl"}, sheet.OverrideRegions())

	avail, known := override.AvailableIn("intl")
	assert.True(t, known)
	assert.False(t, avail)
}

func TestSheet_AccessorsReturnCopies(t *testing.T) {
	_, sheet, _ := buildSong(t)

	counts := sheet.NoteCounts()
	*counts["tap"] = 999
	counts["extra"] = Ptr(1)

	fresh := sheet.NoteCounts()
	assert.Equal(t, 10, *fresh["tap"])
	assert.NotContains(t, fresh, "extra")

	regions := sheet.Regions()
	regions["jp"] = false
	available, _ := sheet.AvailableIn("jp")
	assert.True(t, available)
}

func TestComputeNotePercents(t *testing.T) {
	tests := []struct {
		name   string
		counts NoteCounts
		want   map[string]*float64
	}{
		{"nil counts", nil, nil},
		{
			"ratio per key",
			NoteCounts{"tap": Ptr(30), "hold": Ptr(10), "total": Ptr(40)},
			map[string]*float64{"tap": Ptr(0.75), "hold": Ptr(0.25), "total": Ptr(1.0)},
		},
		{
			"null count propagates",
			NoteCounts{"tap": nil, "total": Ptr(40)},
			map[string]*float64{"tap": nil, "total": Ptr(1.0)},
		},
		{
			"null total propagates",
			NoteCounts{"tap": Ptr(5), "total": nil},
			map[string]*float64{"tap": nil, "total": nil},
		},
		{
			"zero total is null",
			NoteCounts{"tap": Ptr(0), "total": Ptr(0)},
			map[string]*float64{"tap": nil, "total": nil},
		},
		{
			"missing total",
			NoteCounts{"tap": Ptr(5)},
			map[string]*float64{"tap": nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeNotePercents(tt.counts)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, NotePercents(tt.want), got)
		})
	}
}

func TestComputeNotePercents_Idempotent(t *testing.T) {
	counts := NoteCounts{"tap": Ptr(7), "break": Ptr(3), "total": Ptr(10)}

	assert.Equal(t, ComputeNotePercents(counts), ComputeNotePercents(counts.Clone()))
}

func TestData_EmptySentinel(t *testing.T) {
	empty := EmptyData()
	assert.True(t, empty.IsEmpty())
	assert.Equal(t, EmptyUpdateTime, empty.UpdateTime())

	loaded := NewBuilder().Build(DataParams{UpdateTime: "2024-05-01"})
	assert.False(t, loaded.IsEmpty(), "a loaded dataset without songs is not the sentinel")
	assert.Zero(t, loaded.SheetCount())
}

func TestData_SheetAt(t *testing.T) {
	data, sheet, _ := buildSong(t)

	got, ok := data.SheetAt(0)
	require.True(t, ok)
	assert.Same(t, sheet, got)

	_, ok = data.SheetAt(1)
	assert.False(t, ok)
	_, ok = data.SheetAt(-1)
	assert.False(t, ok)
}

func TestBuilder_PanicsAfterBuild(t *testing.T) {
	b := NewBuilder()
	b.Build(DataParams{})

	assert.Panics(t, func() { b.Song(Attrs{}, 1, "", "") })
}

func TestSheet_View(t *testing.T) {
	_, sheet, override := buildSong(t)

	v := sheet.View()
	assert.Equal(t, "song-a|dx|master", v.SheetExpr)
	require.NotNil(t, v.SongID)
	assert.Equal(t, "song-a", *v.SongID)
	require.NotNil(t, v.LevelValue)
	assert.Equal(t, 13.7, *v.LevelValue)
	assert.Nil(t, v.NoteDesigner)
	assert.Equal(t, []string{"intl"}, v.OverrideRegions)

	ov := override.View()
	assert.Equal(t, "intl", ov.Region)
	assert.Equal(t, "13", ov.Level)
}
