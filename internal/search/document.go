// Package search indexes the sheets of a loaded dataset with Bleve. The index backs free-text
// sheet search and the super filter language, a Bleve query string evaluated against it.
package search

import (
	"maps"
	"slices"
	"strconv"

	"github.com/arcadesongs/arcadesongs-server/internal/domain"
)

// SheetDocument is the indexed form of one sheet or region override.
// Canonical sheets use their ordinal as ID; overrides use "ordinal@region".
type SheetDocument struct {
	ID     string `json:"id"`
	Region string `json:"region,omitempty"`

	Title        string   `json:"title"`
	Artist       string   `json:"artist,omitempty"`
	Categories   []string `json:"category,omitempty"`
	Version      string   `json:"version,omitempty"`
	Type         string   `json:"type,omitempty"`
	Difficulty   string   `json:"difficulty,omitempty"`
	Level        string   `json:"level,omitempty"`
	NoteDesigner string   `json:"note_designer,omitempty"`
	SongID       string   `json:"song_id,omitempty"`

	// Regions lists the regions the sheet is available in.
	Regions []string `json:"regions,omitempty"`

	LevelValue         *float64 `json:"level_value,omitempty"`
	InternalLevelValue *float64 `json:"internal_level_value,omitempty"`
	BPM                *float64 `json:"bpm,omitempty"`
	NotesTotal         *int     `json:"notes_total,omitempty"`

	IsNew     bool `json:"is_new"`
	IsLocked  bool `json:"is_locked"`
	IsSpecial bool `json:"is_special"`
}

// ToMap converts the document to the field names of the index mapping. Absent values are left
// out so range queries never match them.
func (d *SheetDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":         d.ID,
		"title":      d.Title,
		"is_new":     strconv.FormatBool(d.IsNew),
		"is_locked":  strconv.FormatBool(d.IsLocked),
		"is_special": strconv.FormatBool(d.IsSpecial),
	}

	optional := map[string]string{
		"region":        d.Region,
		"artist":        d.Artist,
		"version":       d.Version,
		"type":          d.Type,
		"difficulty":    d.Difficulty,
		"level":         d.Level,
		"note_designer": d.NoteDesigner,
		"song_id":       d.SongID,
	}
	for k, v := range optional {
		if v != "" {
			m[k] = v
		}
	}

	if len(d.Categories) > 0 {
		m["category"] = d.Categories
	}
	if len(d.Regions) > 0 {
		m["regions"] = d.Regions
	}
	if d.LevelValue != nil {
		m["level_value"] = *d.LevelValue
	}
	if d.InternalLevelValue != nil {
		m["internal_level_value"] = *d.InternalLevelValue
	}
	if d.BPM != nil {
		m["bpm"] = *d.BPM
	}
	if d.NotesTotal != nil {
		m["notes_total"] = float64(*d.NotesTotal)
	}

	return m
}

// SheetToDocument converts a sheet view, canonical or override, to its document.
func SheetToDocument(sh *domain.Sheet) *SheetDocument {
	doc := &SheetDocument{
		ID:           sh.Key(),
		Region:       sh.Region(),
		Title:        sh.Title(),
		Artist:       sh.Artist(),
		Version:      sh.Version(),
		Type:         sh.Type(),
		Difficulty:   sh.Difficulty(),
		Level:        sh.Level(),
		NoteDesigner: sh.NoteDesigner(),
		IsNew:        sh.IsNew(),
		IsLocked:     sh.IsLocked(),
		IsSpecial:    sh.IsSpecial(),
	}
	doc.SongID, _ = sh.SongID()

	if c := sh.Category(); c != "" {
		doc.Categories = append([]string{c}, sh.Categories()...)
		doc.Categories = slices.Compact(doc.Categories)
	}

	for _, r := range slices.Sorted(maps.Keys(sh.Regions())) {
		if available, _ := sh.AvailableIn(r); available {
			doc.Regions = append(doc.Regions, r)
		}
	}

	if v, ok := sh.LevelValue(); ok {
		doc.LevelValue = &v
	}
	if v, ok := sh.InternalLevelValue(); ok {
		doc.InternalLevelValue = &v
	}
	if v, ok := sh.BPM(); ok {
		doc.BPM = &v
	}
	if total := sh.NoteCounts()["total"]; total != nil {
		doc.NotesTotal = total
	}

	return doc
}

// DataToDocuments returns a document for every canonical sheet and every region override of data.
func DataToDocuments(data *domain.Data) []*SheetDocument {
	docs := make([]*SheetDocument, 0, data.SheetCount())
	for _, sh := range data.Sheets() {
		docs = append(docs, SheetToDocument(sh))
		for _, region := range sh.OverrideRegions() {
			docs = append(docs, SheetToDocument(sh.RegionOverride(region)))
		}
	}
	return docs
}
