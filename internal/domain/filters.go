package domain

import "strings"

// Filters is a structured sheet query. Nil slices and nil pointers are unconstrained.
type Filters struct {
	Categories []string `json:"categories,omitempty"`
	Title      *string  `json:"title,omitempty"`
	Artist     *string  `json:"artist,omitempty"`
	// ExactMatch switches title and artist from case-insensitive substring to exact equality.
	ExactMatch *bool `json:"exactMatch,omitempty"`

	Versions []string `json:"versions,omitempty"`
	MinBPM   *float64 `json:"minBPM,omitempty"`
	MaxBPM   *float64 `json:"maxBPM,omitempty"`
	SyncBPM  *bool    `json:"syncBPM,omitempty"`

	Types            []string `json:"types,omitempty"`
	Difficulties     []string `json:"difficulties,omitempty"`
	MinLevelValue    *float64 `json:"minLevelValue,omitempty"`
	MaxLevelValue    *float64 `json:"maxLevelValue,omitempty"`
	SyncLevelValue   *bool    `json:"syncLevelValue,omitempty"`
	UseInternalLevel *bool    `json:"useInternalLevel,omitempty"`

	NoteDesigners     []string `json:"noteDesigners,omitempty"`
	Region            *string  `json:"region,omitempty"`
	UseRegionOverride *bool    `json:"useRegionOverride,omitempty"`

	// SuperFilter is an ad-hoc predicate expression. It is never written to shareable queries.
	SuperFilter *string `json:"superFilter,omitempty"`
}

// EmptyFilters returns the all-unconstrained filter set.
func EmptyFilters() Filters { return Filters{} }

// RegionSelection splits the region filter into its code and whether it is negated with "!".
// ok is false when no region is selected.
func (f Filters) RegionSelection() (region string, negated, ok bool) {
	if f.Region == nil {
		return "", false, false
	}
	r, neg := strings.CutPrefix(*f.Region, "!")
	return r, neg, true
}

// IsSet reports whether a boolean filter toggle is on.
func IsSet(b *bool) bool { return b != nil && *b }
