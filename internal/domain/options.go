package domain

// FilterOption is one selectable value of a facet with its display text.
type FilterOption[T any] struct {
	Text  string `json:"text"`
	Value T      `json:"value"`
}

// FilterOptions lists the distinct values present in a dataset for each filterable dimension.
// A nil slice means the dimension has no values; EmptyFilterOptions uses empty slices instead
// so a not-yet-loaded dataset can be told apart.
type FilterOptions struct {
	Categories     []FilterOption[string]  `json:"categories"`
	Titles         []string                `json:"titles"`
	Artists        []string                `json:"artists"`
	Versions       []FilterOption[string]  `json:"versions"`
	BPMs           []float64               `json:"bpms"`
	Types          []FilterOption[string]  `json:"types"`
	Difficulties   []FilterOption[string]  `json:"difficulties"`
	Levels         []FilterOption[float64] `json:"levels"`
	InternalLevels []FilterOption[float64] `json:"internalLevels"`
	NoteDesigners  []FilterOption[string]  `json:"noteDesigners"`
	Regions        []FilterOption[string]  `json:"regions"`
}

// EmptyFilterOptions returns the pre-load facets: every dimension present but empty.
func EmptyFilterOptions() FilterOptions {
	return FilterOptions{
		Categories:     []FilterOption[string]{},
		Titles:         []string{},
		Artists:        []string{},
		Versions:       []FilterOption[string]{},
		BPMs:           []float64{},
		Types:          []FilterOption[string]{},
		Difficulties:   []FilterOption[string]{},
		Levels:         []FilterOption[float64]{},
		InternalLevels: []FilterOption[float64]{},
		NoteDesigners:  []FilterOption[string]{},
		Regions:        []FilterOption[string]{},
	}
}
