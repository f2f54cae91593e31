package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/lang/cjk"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the mapping for sheet documents.
//
// Titles and artists mix Latin and Japanese text, so they use the CJK bigram analyzer.
// Codes such as type, difficulty and region are keywords and match exactly. Values used in
// range queries are numeric.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = standard.Name

	docMapping := bleve.NewDocumentMapping()

	for _, field := range []string{"title", "artist"} {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = cjk.AnalyzerName
		fm.Store = true
		fm.IncludeTermVectors = true
		docMapping.AddFieldMappingsAt(field, fm)
	}

	noteDesigner := bleve.NewTextFieldMapping()
	noteDesigner.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("note_designer", noteDesigner)

	keywords := []string{
		"id", "region", "category", "version", "type", "difficulty", "level", "song_id",
		"regions", "is_new", "is_locked", "is_special",
	}
	for _, field := range keywords {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
		fm.Store = field == "id"
		docMapping.AddFieldMappingsAt(field, fm)
	}

	for _, field := range []string{"level_value", "internal_level_value", "bpm", "notes_total"} {
		fm := bleve.NewNumericFieldMapping()
		fm.Store = true
		docMapping.AddFieldMappingsAt(field, fm)
	}

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}
