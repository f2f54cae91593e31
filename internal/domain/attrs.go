// Package domain holds the catalog model: songs, their difficulty sheets, the normalized Data container,
// filter values and the derived facets shown next to them.
//
// Songs and sheets are built once by the catalog normalizer and are read-only afterwards. A sheet
// resolves every field through an explicit lookup chain: region override, then base sheet, then song.
package domain

import "maps"

// Attrs is the set of fields a song, a sheet or a region override may define.
// A nil pointer (or nil map) means "not defined at this level"; lookups fall through to the parent.
type Attrs struct {
	SongID      *string  `json:"songId,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Title       *string  `json:"title,omitempty"`
	Artist      *string  `json:"artist,omitempty"`
	BPM         *float64 `json:"bpm,omitempty"`
	ImageName   *string  `json:"imageName,omitempty"`
	Version     *string  `json:"version,omitempty"`
	ReleaseDate *string  `json:"releaseDate,omitempty"`
	IsNew       *bool    `json:"isNew,omitempty"`
	IsLocked    *bool    `json:"isLocked,omitempty"`

	Type               *string  `json:"type,omitempty"`
	Difficulty         *string  `json:"difficulty,omitempty"`
	Level              *string  `json:"level,omitempty"`
	LevelValue         *float64 `json:"levelValue,omitempty"`
	InternalLevel      *string  `json:"internalLevel,omitempty"`
	InternalLevelValue *float64 `json:"internalLevelValue,omitempty"`
	NoteDesigner       *string  `json:"noteDesigner,omitempty"`

	NoteCounts NoteCounts      `json:"noteCounts,omitempty"`
	Regions    map[string]bool `json:"regions,omitempty"`

	IsSpecial *bool   `json:"isSpecial,omitempty"`
	Comment   *string `json:"comment,omitempty"`
	SearchURL *string `json:"searchUrl,omitempty"`
}

// clone deep-copies the maps so a sealed sheet never shares them with its raw input.
func (a Attrs) clone() Attrs {
	a.NoteCounts = a.NoteCounts.Clone()
	if a.Regions != nil {
		a.Regions = maps.Clone(a.Regions)
	}
	return a
}

// NoteCounts maps a note kind ("tap", "hold", ..., "total") to its count. A nil value is "unknown".
type NoteCounts map[string]*int

// Clone returns a deep copy.
func (n NoteCounts) Clone() NoteCounts {
	if n == nil {
		return nil
	}
	out := make(NoteCounts, len(n))
	for k, v := range n {
		if v != nil {
			c := *v
			out[k] = &c
		} else {
			out[k] = nil
		}
	}
	return out
}

// NotePercents maps a note kind to its share of the total, nil when it cannot be computed.
type NotePercents map[string]*float64

// ComputeNotePercents returns counts[k]/counts["total"] for every key. The result is nil for nil
// counts; an entry is nil when its count is unknown or the total is unknown or zero.
func ComputeNotePercents(counts NoteCounts) NotePercents {
	if counts == nil {
		return nil
	}
	total := counts["total"]
	out := make(NotePercents, len(counts))
	for k, v := range counts {
		if v == nil || total == nil || *total == 0 {
			out[k] = nil
			continue
		}
		p := float64(*v) / float64(*total)
		out[k] = &p
	}
	return out
}

// Clone returns a deep copy.
func (n NotePercents) Clone() NotePercents {
	if n == nil {
		return nil
	}
	out := make(NotePercents, len(n))
	for k, v := range n {
		if v != nil {
			c := *v
			out[k] = &c
		} else {
			out[k] = nil
		}
	}
	return out
}

// Ptr returns a pointer to v. Handy for building Attrs by hand.
func Ptr[T any](v T) *T {
	return &v
}
