// Package filter evaluates structured Filters against normalized sheets, derives filter facets
// from a dataset, and converts Filters to and from flat query maps.
package filter

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/arcadesongs/arcadesongs-server/internal/domain"
	"github.com/arcadesongs/arcadesongs-server/internal/logger"
)

// Predicate is a compiled super filter.
type Predicate func(*domain.Sheet) bool

// Compiler turns a super filter expression into a Predicate. Implementations must not execute
// arbitrary code; the expression comes straight from the user.
type Compiler interface {
	Compile(ctx context.Context, expr string) (Predicate, error)
}

// CompilerFunc adapts a function to Compiler.
type CompilerFunc func(ctx context.Context, expr string) (Predicate, error)

// Compile implements Compiler.
func (f CompilerFunc) Compile(ctx context.Context, expr string) (Predicate, error) {
	return f(ctx, expr)
}

type options struct {
	ctx       context.Context
	compiler  Compiler
	predicate Predicate
	logger    *slog.Logger
}

// Option configures Sheets.
type Option func(*options)

// WithContext sets the context passed to the compiler.
func WithContext(ctx context.Context) Option { return func(o *options) { o.ctx = ctx } }

// WithCompiler sets the compiler used for Filters.SuperFilter. Without one the super filter is ignored.
func WithCompiler(c Compiler) Option { return func(o *options) { o.compiler = c } }

// WithPredicate supplies an already compiled super filter; it takes precedence over SuperFilter.
func WithPredicate(p Predicate) Option { return func(o *options) { o.predicate = p } }

// WithLogger sets the logger for skipped stages.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// Sheets returns the sheets matching f, in input order, each mapped to its canonical sheet.
// The input slice is not modified. Stages whose filter field is unconstrained are skipped.
func Sheets(sheets []*domain.Sheet, f domain.Filters, opts ...Option) []*domain.Sheet {
	o := options{ctx: context.Background()}
	for _, opt := range opts {
		opt(&o)
	}
	log := logger.OrDiscard(o.logger)

	result := slices.Clone(sheets)

	region, negated, hasRegion := f.RegionSelection()

	if hasRegion && !negated && domain.IsSet(f.UseRegionOverride) {
		for i, sh := range result {
			result[i] = sh.RegionOverride(region)
		}
	}

	if hasRegion {
		if negated {
			result = keep(result, func(sh *domain.Sheet) bool {
				available, _ := sh.AvailableIn(region)
				return !available
			})
		} else {
			result = keep(result, func(sh *domain.Sheet) bool {
				available, known := sh.AvailableIn(region)
				return known && available
			})
		}
	}

	if len(f.Categories) > 0 {
		result = keep(result, func(sh *domain.Sheet) bool {
			c := sh.Category()
			return slices.ContainsFunc(f.Categories, func(want string) bool {
				return c == want || slices.Contains(sh.Categories(), want)
			})
		})
	}

	exact := domain.IsSet(f.ExactMatch)
	fold := cases.Fold()

	if f.Title != nil {
		match := textMatcher(fold, *f.Title, exact)
		result = keep(result, func(sh *domain.Sheet) bool { return match(sh.Title()) })
	}

	if len(f.Versions) > 0 {
		result = keep(result, func(sh *domain.Sheet) bool { return slices.Contains(f.Versions, sh.Version()) })
	}
	if len(f.Types) > 0 {
		result = keep(result, func(sh *domain.Sheet) bool { return slices.Contains(f.Types, sh.Type()) })
	}
	if len(f.Difficulties) > 0 {
		result = keep(result, func(sh *domain.Sheet) bool { return slices.Contains(f.Difficulties, sh.Difficulty()) })
	}
	if len(f.NoteDesigners) > 0 {
		result = keep(result, func(sh *domain.Sheet) bool {
			return sh.HasNoteDesigner() && slices.Contains(f.NoteDesigners, sh.NoteDesigner())
		})
	}

	minLevel, maxLevel := bounds(f.MinLevelValue, f.MaxLevelValue, f.SyncLevelValue)
	if minLevel != nil || maxLevel != nil {
		levelOf := (*domain.Sheet).LevelValue
		if domain.IsSet(f.UseInternalLevel) {
			levelOf = (*domain.Sheet).InternalLevelValue
		}
		result = keep(result, inRange(levelOf, minLevel, maxLevel))
	}

	minBPM, maxBPM := bounds(f.MinBPM, f.MaxBPM, f.SyncBPM)
	if minBPM != nil || maxBPM != nil {
		result = keep(result, inRange((*domain.Sheet).BPM, minBPM, maxBPM))
	}

	if f.Artist != nil {
		match := textMatcher(fold, *f.Artist, exact)
		result = keep(result, func(sh *domain.Sheet) bool { return match(sh.Artist()) })
	}

	if pred := o.superPredicate(f, log); pred != nil {
		result = applySuper(result, pred, log)
	}

	for i, sh := range result {
		result[i] = sh.Canonical()
	}
	return result
}

func (o options) superPredicate(f domain.Filters, log *slog.Logger) Predicate {
	if o.predicate != nil {
		return o.predicate
	}
	if f.SuperFilter == nil || strings.TrimSpace(*f.SuperFilter) == "" || o.compiler == nil {
		return nil
	}

	pred, err := compileSafely(o.ctx, o.compiler, *f.SuperFilter)
	if err != nil {
		log.Warn("super filter skipped", "stage", "compile", "error", err)
		return nil
	}
	return pred
}

func compileSafely(ctx context.Context, c Compiler, expr string) (pred Predicate, err error) {
	defer func() {
		if r := recover(); r != nil {
			pred, err = nil, fmt.Errorf("compiler panic: %v", r)
		}
	}()
	return c.Compile(ctx, expr)
}

// applySuper runs the predicate over every sheet; a panic on any sheet discards the stage.
func applySuper(in []*domain.Sheet, pred Predicate, log *slog.Logger) (out []*domain.Sheet) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("super filter skipped", "stage", "evaluate", "error", fmt.Sprint(r))
			out = in
		}
	}()
	return keep(in, pred)
}

func keep(in []*domain.Sheet, pred func(*domain.Sheet) bool) []*domain.Sheet {
	out := make([]*domain.Sheet, 0, len(in))
	for _, sh := range in {
		if pred(sh) {
			out = append(out, sh)
		}
	}
	return out
}

func textMatcher(fold cases.Caser, needle string, exact bool) func(string) bool {
	if exact {
		return func(s string) bool { return s == needle }
	}
	n := fold.String(needle)
	return func(s string) bool {
		return s != "" && strings.Contains(fold.String(s), n)
	}
}

// bounds applies a sync toggle: when set, a lone bound becomes an exact value.
func bounds(lo, hi *float64, sync *bool) (*float64, *float64) {
	if domain.IsSet(sync) {
		switch {
		case lo != nil && hi == nil:
			return lo, lo
		case hi != nil && lo == nil:
			return hi, hi
		}
	}
	return lo, hi
}

func inRange(value func(*domain.Sheet) (float64, bool), lo, hi *float64) func(*domain.Sheet) bool {
	return func(sh *domain.Sheet) bool {
		v, ok := value(sh)
		if !ok {
			return false
		}
		if lo != nil && v < *lo {
			return false
		}
		if hi != nil && v > *hi {
			return false
		}
		return true
	}
}
