package filter

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/arcadesongs/arcadesongs-server/internal/domain"
)

const listSeparator = "|"

type fieldKind int

const (
	kindString fieldKind = iota
	kindStrings
	kindNumber
	kindBoolean
)

// queryField binds one query key to a Filters field. Exactly one accessor matches kind.
type queryField struct {
	key     string
	kind    fieldKind
	str     func(*domain.Filters) **string
	strs    func(*domain.Filters) *[]string
	number  func(*domain.Filters) **float64
	boolean func(*domain.Filters) **bool
}

// querySchema lists every shareable filter. SuperFilter is absent on purpose: expressions are
// never persisted into URLs.
var querySchema = []queryField{
	{key: "categories", kind: kindStrings, strs: func(f *domain.Filters) *[]string { return &f.Categories }},
	{key: "title", kind: kindString, str: func(f *domain.Filters) **string { return &f.Title }},
	{key: "artist", kind: kindString, str: func(f *domain.Filters) **string { return &f.Artist }},
	{key: "exactMatch", kind: kindBoolean, boolean: func(f *domain.Filters) **bool { return &f.ExactMatch }},
	{key: "versions", kind: kindStrings, strs: func(f *domain.Filters) *[]string { return &f.Versions }},
	{key: "minBPM", kind: kindNumber, number: func(f *domain.Filters) **float64 { return &f.MinBPM }},
	{key: "maxBPM", kind: kindNumber, number: func(f *domain.Filters) **float64 { return &f.MaxBPM }},
	{key: "syncBPM", kind: kindBoolean, boolean: func(f *domain.Filters) **bool { return &f.SyncBPM }},
	{key: "types", kind: kindStrings, strs: func(f *domain.Filters) *[]string { return &f.Types }},
	{key: "difficulties", kind: kindStrings, strs: func(f *domain.Filters) *[]string { return &f.Difficulties }},
	{key: "minLevelValue", kind: kindNumber, number: func(f *domain.Filters) **float64 { return &f.MinLevelValue }},
	{key: "maxLevelValue", kind: kindNumber, number: func(f *domain.Filters) **float64 { return &f.MaxLevelValue }},
	{key: "syncLevelValue", kind: kindBoolean, boolean: func(f *domain.Filters) **bool { return &f.SyncLevelValue }},
	{key: "useInternalLevel", kind: kindBoolean, boolean: func(f *domain.Filters) **bool { return &f.UseInternalLevel }},
	{key: "noteDesigners", kind: kindStrings, strs: func(f *domain.Filters) *[]string { return &f.NoteDesigners }},
	{key: "region", kind: kindString, str: func(f *domain.Filters) **string { return &f.Region }},
	{key: "useRegionOverride", kind: kindBoolean, boolean: func(f *domain.Filters) **bool { return &f.UseRegionOverride }},
}

// QueryKeys returns the keys LoadQuery understands, in schema order.
func QueryKeys() []string {
	keys := make([]string, len(querySchema))
	for i, field := range querySchema {
		keys[i] = field.key
	}
	return keys
}

// LoadQuery reads Filters from a flat query map. Keys outside the schema are ignored; a number or
// boolean that does not parse leaves the field unconstrained.
func LoadQuery(query map[string]string) domain.Filters {
	f := domain.EmptyFilters()
	for _, field := range querySchema {
		raw, ok := query[field.key]
		if !ok {
			continue
		}
		switch field.kind {
		case kindString:
			*field.str(&f) = domain.Ptr(raw)
		case kindStrings:
			*field.strs(&f) = strings.Split(raw, listSeparator)
		case kindNumber:
			if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
				*field.number(&f) = &v
			}
		case kindBoolean:
			switch raw {
			case "true":
				*field.boolean(&f) = domain.Ptr(true)
			case "false":
				*field.boolean(&f) = domain.Ptr(false)
			}
		}
	}
	return f
}

// SaveQuery writes f as a flat query map, omitting unconstrained fields.
func SaveQuery(f domain.Filters) map[string]string {
	query := make(map[string]string)
	for _, field := range querySchema {
		switch field.kind {
		case kindString:
			if v := *field.str(&f); v != nil {
				query[field.key] = *v
			}
		case kindStrings:
			if v := *field.strs(&f); len(v) > 0 {
				query[field.key] = strings.Join(v, listSeparator)
			}
		case kindNumber:
			if v := *field.number(&f); v != nil {
				query[field.key] = strconv.FormatFloat(*v, 'f', -1, 64)
			}
		case kindBoolean:
			if v := *field.boolean(&f); v != nil {
				query[field.key] = strconv.FormatBool(*v)
			}
		}
	}
	return query
}

// FromValues reads Filters from URL query values, using the first value of each key.
func FromValues(values url.Values) domain.Filters {
	query := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}
	return LoadQuery(query)
}

// ToValues is SaveQuery for URL query strings.
func ToValues(f domain.Filters) url.Values {
	values := make(url.Values)
	for k, v := range SaveQuery(f) {
		values.Set(k, v)
	}
	return values
}
