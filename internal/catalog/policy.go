package catalog

import "github.com/arcadesongs/arcadesongs-server/internal/domain"

// NotePolicy lists the note kinds whose counts must add up to the "total" count.
type NotePolicy struct {
	Keys []string
}

// NotePolicies maps a game code to its note-count policy. Games without an entry are not checked.
type NotePolicies map[string]NotePolicy

// DefaultNotePolicies covers the games whose datasets carry complete note breakdowns.
func DefaultNotePolicies() NotePolicies {
	return NotePolicies{
		"maimai":   {Keys: []string{"tap", "hold", "slide", "touch", "break"}},
		"chunithm": {Keys: []string{"tap", "hold", "slide", "air", "flick"}},
	}
}

// Consistent reports whether counts satisfy the policy. Unknown (null) counts add zero;
// a missing key, including a missing total, is a violation. Nil counts are always consistent.
func (p NotePolicy) Consistent(counts domain.NoteCounts) bool {
	if counts == nil {
		return true
	}

	total, ok := counts["total"]
	if !ok {
		return false
	}

	sum := 0
	for _, k := range p.Keys {
		v, ok := counts[k]
		if !ok {
			return false
		}
		if v != nil {
			sum += *v
		}
	}

	want := 0
	if total != nil {
		want = *total
	}
	return sum == want
}
