package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/arcadesongs/arcadesongs-server/internal/domain"
	domainerrors "github.com/arcadesongs/arcadesongs-server/internal/errors"
	"github.com/arcadesongs/arcadesongs-server/internal/filter"
)

var _ filter.Compiler = (*SheetIndex)(nil)

// SearchParams configures a free-text sheet search.
type SearchParams struct {
	Query string
	Limit int
}

// DefaultLimit caps a search without an explicit limit.
const DefaultLimit = 100

// SearchHit is one matching sheet view.
type SearchHit struct {
	Key        string            `json:"key"`
	Ordinal    int               `json:"ordinal"`
	Region     string            `json:"region,omitempty"`
	Score      float64           `json:"score"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// SearchResult holds the hits ordered by relevance.
type SearchResult struct {
	Query  string      `json:"query"`
	Total  uint64      `json:"total"`
	TookMs int64       `json:"took_ms"`
	Hits   []SearchHit `json:"hits"`
}

// Ordinals returns the distinct canonical ordinals of the hits in hit order.
func (r *SearchResult) Ordinals() []int {
	seen := make(map[int]struct{}, len(r.Hits))
	out := make([]int, 0, len(r.Hits))
	for _, h := range r.Hits {
		if _, dup := seen[h.Ordinal]; dup {
			continue
		}
		seen[h.Ordinal] = struct{}{}
		out = append(out, h.Ordinal)
	}
	return out
}

// Search matches title and artist text, with fuzzy and prefix fallbacks for typos and
// incremental input.
func (s *SheetIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errIndexClosed
	}

	limit := params.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	req := bleve.NewSearchRequestOptions(buildSearchQuery(params.Query), limit, 0, false)
	req.SortBy([]string{"-_score", "_id"})
	req.Highlight = bleve.NewHighlight()
	req.Highlight.AddField("title")
	req.Highlight.AddField("artist")

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(res.Hits)),
	}
	for _, hit := range res.Hits {
		ordinal, region, ok := ParseKey(hit.ID)
		if !ok {
			s.logger.Warn("unexpected document id", "id", hit.ID)
			continue
		}
		h := SearchHit{Key: hit.ID, Ordinal: ordinal, Region: region, Score: hit.Score}
		if len(hit.Fragments) > 0 {
			h.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					h.Highlights[field] = fragments[0]
				}
			}
		}
		result.Hits = append(result.Hits, h)
	}
	return result, nil
}

func buildSearchQuery(text string) query.Query {
	text = strings.TrimSpace(text)
	if text == "" {
		return bleve.NewMatchAllQuery()
	}

	titleMatch := bleve.NewMatchQuery(text)
	titleMatch.SetField("title")
	titleMatch.SetBoost(3.0)

	artistMatch := bleve.NewMatchQuery(text)
	artistMatch.SetField("artist")
	artistMatch.SetBoost(1.5)

	fuzzy := bleve.NewFuzzyQuery(strings.ToLower(text))
	fuzzy.SetFuzziness(1)
	fuzzy.SetField("title")
	fuzzy.SetBoost(0.8)

	queries := []query.Query{titleMatch, artistMatch, fuzzy}

	if len(text) >= 2 {
		prefix := bleve.NewPrefixQuery(strings.ToLower(text))
		prefix.SetField("title")
		prefix.SetBoost(0.5)
		queries = append(queries, prefix)
	}

	return bleve.NewDisjunctionQuery(queries...)
}

// Compile evaluates a Bleve query string once against the index and returns a membership
// predicate over sheet keys. Expressions are data, never code:
//
//	type:dx level_value:>=13 -difficulty:remaster
//	+category:pop notes_total:>1000 is_new:true
//
// A syntax error is a validation error.
func (s *SheetIndex) Compile(ctx context.Context, expr string) (filter.Predicate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errIndexClosed
	}

	q := bleve.NewQueryStringQuery(expr)
	if _, err := q.Parse(); err != nil {
		return nil, domainerrors.Wrapf(err, domainerrors.CodeValidation, "invalid super filter %q", expr)
	}

	count, err := s.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	req := bleve.NewSearchRequestOptions(q, int(count), 0, false)
	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, domainerrors.Wrapf(err, domainerrors.CodeValidation, "evaluate super filter %q", expr)
	}

	keys := make(map[string]struct{}, len(res.Hits))
	for _, hit := range res.Hits {
		keys[hit.ID] = struct{}{}
	}
	return func(sh *domain.Sheet) bool {
		_, ok := keys[sh.Key()]
		return ok
	}, nil
}

// ParseKey splits a sheet key into its canonical ordinal and override region.
func ParseKey(key string) (ordinal int, region string, ok bool) {
	head, region, _ := strings.Cut(key, "@")
	ordinal, err := strconv.Atoi(head)
	if err != nil || ordinal < 0 {
		return 0, "", false
	}
	return ordinal, region, true
}
