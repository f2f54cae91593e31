package domain

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

// SheetParams carries everything the normalizer computed for one sheet or override.
type SheetParams struct {
	Attrs     Attrs
	ImageURL  string
	ImageURLM string
}

// Sheet is one difficulty chart of a song, or a region override view of such a chart.
type Sheet struct {
	own       Attrs
	imageURL  string
	imageURLM string

	song *Song
	base *Sheet // set for region overrides only

	region       string
	ordinal      int
	songNo       int // placeholders only
	sheetExpr    string
	notePercents NotePercents
	overrides    map[string]*Sheet
}

// lookup resolves a field through override -> base sheet -> song.
func lookup[T any](s *Sheet, field func(*Attrs) *T) *T {
	for cur := s; cur != nil; cur = cur.base {
		if v := field(&cur.own); v != nil {
			return v
		}
	}
	if song := s.Song(); song != nil {
		return field(&song.attrs)
	}
	return nil
}

func lookupMap[M ~map[K]V, K comparable, V any](s *Sheet, field func(*Attrs) M) M {
	for cur := s; cur != nil; cur = cur.base {
		if v := field(&cur.own); v != nil {
			return v
		}
	}
	if song := s.Song(); song != nil {
		return field(&song.attrs)
	}
	return nil
}

// Song returns the owning song, nil for placeholder sheets.
func (s *Sheet) Song() *Song {
	if s.base != nil {
		return s.base.Song()
	}
	return s.song
}

// Canonical returns the base sheet for a region override and the sheet itself otherwise.
func (s *Sheet) Canonical() *Sheet {
	if s.base != nil {
		return s.base.Canonical()
	}
	return s
}

// IsCanonical reports whether s is its own canonical representative.
func (s *Sheet) IsCanonical() bool { return s.base == nil }

// Region names the region of an override view, empty for canonical sheets.
func (s *Sheet) Region() string { return s.region }

// Ordinal is the position of the canonical sheet in Data.Sheets, -1 for placeholders.
func (s *Sheet) Ordinal() int { return s.Canonical().ordinal }

// Key identifies the sheet view uniquely within one Data: the ordinal, suffixed with "@region" for overrides.
func (s *Sheet) Key() string {
	k := strconv.Itoa(s.Ordinal())
	if s.region != "" {
		k += "@" + s.region
	}
	return k
}

// SheetExpr is the cross-reference key "songId|type|difficulty".
func (s *Sheet) SheetExpr() string {
	if s.base != nil && s.sheetExpr == "" {
		return s.base.SheetExpr()
	}
	return s.sheetExpr
}

// SongNo returns the owning song's number.
func (s *Sheet) SongNo() int {
	if song := s.Song(); song != nil {
		return song.songNo
	}
	return s.songNo
}

// SongID returns the song identifier; ok is false for placeholders.
func (s *Sheet) SongID() (string, bool) {
	return deref(lookup(s, func(a *Attrs) *string { return a.SongID }))
}

func (s *Sheet) Category() string {
	return str(lookup(s, func(a *Attrs) *string { return a.Category }))
}

func (s *Sheet) Title() string {
	return str(lookup(s, func(a *Attrs) *string { return a.Title }))
}

func (s *Sheet) Artist() string {
	return str(lookup(s, func(a *Attrs) *string { return a.Artist }))
}

func (s *Sheet) ImageName() string {
	return str(lookup(s, func(a *Attrs) *string { return a.ImageName }))
}

func (s *Sheet) Version() string {
	return str(lookup(s, func(a *Attrs) *string { return a.Version }))
}

func (s *Sheet) ReleaseDate() string {
	return str(lookup(s, func(a *Attrs) *string { return a.ReleaseDate }))
}

func (s *Sheet) Type() string {
	return str(lookup(s, func(a *Attrs) *string { return a.Type }))
}

func (s *Sheet) Difficulty() string {
	return str(lookup(s, func(a *Attrs) *string { return a.Difficulty }))
}

func (s *Sheet) Level() string {
	return str(lookup(s, func(a *Attrs) *string { return a.Level }))
}

func (s *Sheet) InternalLevel() string {
	return str(lookup(s, func(a *Attrs) *string { return a.InternalLevel }))
}

func (s *Sheet) NoteDesigner() string {
	return str(lookup(s, func(a *Attrs) *string { return a.NoteDesigner }))
}

// HasNoteDesigner distinguishes an unknown designer from an empty name.
func (s *Sheet) HasNoteDesigner() bool {
	return lookup(s, func(a *Attrs) *string { return a.NoteDesigner }) != nil
}

func (s *Sheet) Comment() string {
	return str(lookup(s, func(a *Attrs) *string { return a.Comment }))
}

func (s *Sheet) SearchURL() string {
	return str(lookup(s, func(a *Attrs) *string { return a.SearchURL }))
}

func (s *Sheet) IsNew() bool {
	return flag(lookup(s, func(a *Attrs) *bool { return a.IsNew }))
}

func (s *Sheet) IsLocked() bool {
	return flag(lookup(s, func(a *Attrs) *bool { return a.IsLocked }))
}

func (s *Sheet) IsSpecial() bool {
	return flag(lookup(s, func(a *Attrs) *bool { return a.IsSpecial }))
}

// BPM returns the tempo, usually inherited from the song.
func (s *Sheet) BPM() (float64, bool) {
	return deref(lookup(s, func(a *Attrs) *float64 { return a.BPM }))
}

// LevelValue returns the numeric display level.
func (s *Sheet) LevelValue() (float64, bool) {
	return deref(lookup(s, func(a *Attrs) *float64 { return a.LevelValue }))
}

// InternalLevelValue returns the precise internal level.
func (s *Sheet) InternalLevelValue() (float64, bool) {
	return deref(lookup(s, func(a *Attrs) *float64 { return a.InternalLevelValue }))
}

// ImageURL returns the absolute cover URL resolved for the nearest level defining an image.
func (s *Sheet) ImageURL() string {
	for cur := s; cur != nil; cur = cur.base {
		if cur.imageURL != "" {
			return cur.imageURL
		}
	}
	if song := s.Song(); song != nil {
		return song.imageURL
	}
	return ""
}

// ImageURLM returns the absolute medium cover URL.
func (s *Sheet) ImageURLM() string {
	for cur := s; cur != nil; cur = cur.base {
		if cur.imageURLM != "" {
			return cur.imageURLM
		}
	}
	if song := s.Song(); song != nil {
		return song.imageURLM
	}
	return ""
}

// NoteCounts returns a copy of the note counts, nil when the sheet has none.
func (s *Sheet) NoteCounts() NoteCounts {
	return lookupMap(s, func(a *Attrs) NoteCounts { return a.NoteCounts }).Clone()
}

// NotePercents returns a copy of the derived note percentages.
func (s *Sheet) NotePercents() NotePercents {
	for cur := s; cur != nil; cur = cur.base {
		if cur.notePercents != nil {
			return cur.notePercents.Clone()
		}
	}
	return nil
}

// Regions returns a copy of the region availability map, nil when unknown.
func (s *Sheet) Regions() map[string]bool {
	r := lookupMap(s, func(a *Attrs) map[string]bool { return a.Regions })
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// AvailableIn reports whether the sheet is listed as available in region. known is false when the
// sheet carries no region information at all.
func (s *Sheet) AvailableIn(region string) (available, known bool) {
	r := lookupMap(s, func(a *Attrs) map[string]bool { return a.Regions })
	if r == nil {
		return false, false
	}
	return r[region], true
}

// RegionOverride returns the override view for region, or s itself when there is none.
func (s *Sheet) RegionOverride(region string) *Sheet {
	if o, ok := s.Canonical().overrides[region]; ok {
		return o
	}
	return s
}

// OverrideRegions lists the regions that have an override, sorted.
func (s *Sheet) OverrideRegions() []string {
	return slices.Sorted(maps.Keys(s.Canonical().overrides))
}

// Categories splits a "|"-joined multi-category.
func (s *Sheet) Categories() []string {
	c := s.Category()
	if c == "" {
		return nil
	}
	return strings.Split(c, "|")
}

// SheetView is the flattened, fully resolved JSON form of a sheet.
type SheetView struct {
	Key                string          `json:"key"`
	SheetExpr          string          `json:"sheetExpr"`
	SongID             *string         `json:"songId"`
	SongNo             int             `json:"songNo"`
	Region             string          `json:"region,omitempty"`
	Category           string          `json:"category,omitempty"`
	Title              string          `json:"title,omitempty"`
	Artist             string          `json:"artist,omitempty"`
	BPM                *float64        `json:"bpm,omitempty"`
	ImageURL           string          `json:"imageUrl,omitempty"`
	ImageURLM          string          `json:"imageUrlM,omitempty"`
	Version            string          `json:"version,omitempty"`
	ReleaseDate        string          `json:"releaseDate,omitempty"`
	IsNew              bool            `json:"isNew,omitempty"`
	IsLocked           bool            `json:"isLocked,omitempty"`
	Type               string          `json:"type,omitempty"`
	Difficulty         string          `json:"difficulty,omitempty"`
	Level              string          `json:"level,omitempty"`
	LevelValue         *float64        `json:"levelValue,omitempty"`
	InternalLevel      string          `json:"internalLevel,omitempty"`
	InternalLevelValue *float64        `json:"internalLevelValue,omitempty"`
	NoteDesigner       *string         `json:"noteDesigner,omitempty"`
	NoteCounts         NoteCounts      `json:"noteCounts,omitempty"`
	NotePercents       NotePercents    `json:"notePercents,omitempty"`
	Regions            map[string]bool `json:"regions,omitempty"`
	OverrideRegions    []string        `json:"overrideRegions,omitempty"`
	IsSpecial          bool            `json:"isSpecial,omitempty"`
	Comment            string          `json:"comment,omitempty"`
	SearchURL          string          `json:"searchUrl,omitempty"`
}

// View flattens the sheet with every inherited field resolved.
func (s *Sheet) View() SheetView {
	v := SheetView{
		Key:             s.Key(),
		SheetExpr:       s.SheetExpr(),
		SongNo:          s.SongNo(),
		Region:          s.region,
		Category:        s.Category(),
		Title:           s.Title(),
		Artist:          s.Artist(),
		ImageURL:        s.ImageURL(),
		ImageURLM:       s.ImageURLM(),
		Version:         s.Version(),
		ReleaseDate:     s.ReleaseDate(),
		IsNew:           s.IsNew(),
		IsLocked:        s.IsLocked(),
		Type:            s.Type(),
		Difficulty:      s.Difficulty(),
		Level:           s.Level(),
		InternalLevel:   s.InternalLevel(),
		NoteCounts:      s.NoteCounts(),
		NotePercents:    s.NotePercents(),
		Regions:         s.Regions(),
		OverrideRegions: s.OverrideRegions(),
		IsSpecial:       s.IsSpecial(),
		Comment:         s.Comment(),
		SearchURL:       s.SearchURL(),
	}
	if id, ok := s.SongID(); ok {
		v.SongID = &id
	}
	if bpm, ok := s.BPM(); ok {
		v.BPM = &bpm
	}
	if lv, ok := s.LevelValue(); ok {
		v.LevelValue = &lv
	}
	if ilv, ok := s.InternalLevelValue(); ok {
		v.InternalLevelValue = &ilv
	}
	if s.HasNoteDesigner() {
		nd := s.NoteDesigner()
		v.NoteDesigner = &nd
	}
	return v
}

// Views flattens a slice of sheets.
func Views(sheets []*Sheet) []SheetView {
	out := make([]SheetView, len(sheets))
	for i, s := range sheets {
		out[i] = s.View()
	}
	return out
}
