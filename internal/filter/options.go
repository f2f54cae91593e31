package filter

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"golang.org/x/text/language"

	"github.com/arcadesongs/arcadesongs-server/internal/domain"
)

const noCategoryText = "N/A"

// BuildOptions derives the filter facets of data. Region labels are rendered in lang.
// The pre-load sentinel yields EmptyFilterOptions; otherwise a dimension without values is nil.
func BuildOptions(data *domain.Data, lang language.Tag) domain.FilterOptions {
	if data.IsEmpty() {
		return domain.EmptyFilterOptions()
	}

	songs := data.Songs()
	sheets := data.Sheets()

	opts := domain.FilterOptions{
		Titles:  nonEmpty(distinct(songs, func(s *domain.Song) (string, bool) { return s.Title(), s.Title() != "" })),
		Artists: nonEmpty(distinct(songs, func(s *domain.Song) (string, bool) { return s.Artist(), s.Artist() != "" })),
	}

	for _, c := range data.Categories() {
		text := c.Category
		if text == "" {
			text = noCategoryText
		}
		opts.Categories = append(opts.Categories, domain.FilterOption[string]{Text: text, Value: c.Category})
	}

	for _, v := range data.Versions() {
		opts.Versions = append(opts.Versions, domain.FilterOption[string]{Text: cmp.Or(v.Abbr, v.Version), Value: v.Version})
	}

	bpms := distinct(songs, (*domain.Song).BPM)
	slices.Sort(bpms)
	opts.BPMs = nonEmpty(bpms)

	for _, t := range data.Types() {
		opts.Types = append(opts.Types, domain.FilterOption[string]{Text: t.Name, Value: t.Type})
	}
	for _, d := range data.Difficulties() {
		opts.Difficulties = append(opts.Difficulties, domain.FilterOption[string]{Text: d.Name, Value: d.Difficulty})
	}

	levels := make(map[float64]string)
	internal := make(map[float64]string)
	designers := make(map[string]int)
	var designerOrder []string
	for _, sh := range sheets {
		if v, ok := sh.LevelValue(); ok && sh.Level() != "" {
			levels[v] = sh.Level()
		}
		if v, ok := sh.InternalLevelValue(); ok {
			internal[v] = strconv.FormatFloat(v, 'f', 1, 64)
		}
		if sh.HasNoteDesigner() {
			name := sh.NoteDesigner()
			if designers[name] == 0 {
				designerOrder = append(designerOrder, name)
			}
			designers[name]++
		}
	}
	opts.Levels = levelOptions(levels)
	opts.InternalLevels = levelOptions(internal)

	slices.SortStableFunc(designerOrder, func(a, b string) int { return designers[b] - designers[a] })
	for _, name := range designerOrder {
		opts.NoteDesigners = append(opts.NoteDesigners, domain.FilterOption[string]{
			Text:  fmt.Sprintf("%s (%d)", name, designers[name]),
			Value: name,
		})
	}

	p := printer(lang)
	for _, r := range data.Regions() {
		opts.Regions = append(opts.Regions,
			domain.FilterOption[string]{Text: r.Name, Value: r.Region},
			domain.FilterOption[string]{Text: p.Sprintf(keyUnavailableInRegion, r.Name), Value: "!" + r.Region},
		)
	}

	return opts
}

func distinct[E any, T comparable](items []E, value func(E) (T, bool)) []T {
	seen := make(map[T]struct{})
	var out []T
	for _, item := range items {
		v, ok := value(item)
		if !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func levelOptions(m map[float64]string) []domain.FilterOption[float64] {
	var out []domain.FilterOption[float64]
	for _, v := range slices.Sorted(maps.Keys(m)) {
		out = append(out, domain.FilterOption[float64]{Text: m[v], Value: v})
	}
	return out
}

func nonEmpty[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return s
}
