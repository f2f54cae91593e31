// Package service holds the stateful layer between the HTTP API and the catalog core:
// per-game dataset loading, live draw sessions and persisted selections.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/arcadesongs/arcadesongs-server/internal/catalog"
	"github.com/arcadesongs/arcadesongs-server/internal/domain"
	domainerrors "github.com/arcadesongs/arcadesongs-server/internal/errors"
	"github.com/arcadesongs/arcadesongs-server/internal/loader"
	"github.com/arcadesongs/arcadesongs-server/internal/logger"
	"github.com/arcadesongs/arcadesongs-server/internal/metrics"
	"github.com/arcadesongs/arcadesongs-server/internal/search"
	"github.com/arcadesongs/arcadesongs-server/internal/sse"
	"github.com/arcadesongs/arcadesongs-server/internal/store"
)

// EventEmitter broadcasts SSE events.
type EventEmitter interface {
	Emit(event sse.Event)
}

type noopEmitter struct{}

func (noopEmitter) Emit(sse.Event) {}

// invalidator is implemented by sources that cache payloads.
type invalidator interface {
	Invalidate(site domain.Site)
}

// GameStatus is the loading state of one game.
type GameStatus struct {
	Site         domain.Site          `json:"site"`
	Status       domain.LoadingStatus `json:"status"`
	Error        string               `json:"error,omitempty"`
	UpdateTime   string               `json:"updateTime,omitempty"`
	SheetCount   int                  `json:"sheetCount"`
	LoadedAt     *time.Time           `json:"loadedAt,omitempty"`
	FromSnapshot bool                 `json:"fromSnapshot,omitempty"`
}

type gameState struct {
	status       domain.LoadingStatus
	err          string
	data         *domain.Data
	gallery      domain.Gallery
	index        *search.SheetIndex
	loadedAt     time.Time
	fromSnapshot bool
}

// CatalogConfig configures a CatalogService.
type CatalogConfig struct {
	Sites    []domain.Site
	Policies catalog.NotePolicies
}

// CatalogService owns the loaded dataset of every configured game.
type CatalogService struct {
	sites    []domain.Site
	source   loader.Source
	store    *store.Store
	events   EventEmitter
	metrics  *metrics.Metrics
	policies catalog.NotePolicies
	logger   *slog.Logger

	group singleflight.Group

	mu    sync.RWMutex
	games map[string]*gameState
}

// NewCatalogService creates a catalog over sites. st, events and m may be nil.
func NewCatalogService(
	cfg CatalogConfig,
	source loader.Source,
	st *store.Store,
	events EventEmitter,
	m *metrics.Metrics,
	log *slog.Logger,
) *CatalogService {
	if events == nil {
		events = noopEmitter{}
	}
	s := &CatalogService{
		sites:    cfg.Sites,
		source:   source,
		store:    st,
		events:   events,
		metrics:  m,
		policies: cfg.Policies,
		logger:   logger.OrDiscard(log),
		games:    make(map[string]*gameState, len(cfg.Sites)),
	}
	for _, site := range cfg.Sites {
		s.games[site.GameCode] = &gameState{status: domain.StatusPending, data: domain.EmptyData()}
	}
	return s
}

// Sites returns the configured sites in registry order.
func (s *CatalogService) Sites() []domain.Site {
	return append([]domain.Site(nil), s.sites...)
}

// Site returns the site of gameCode.
func (s *CatalogService) Site(gameCode string) (domain.Site, error) {
	for _, site := range s.sites {
		if site.GameCode == gameCode {
			return site, nil
		}
	}
	return domain.Site{}, domainerrors.NotFoundf("unknown game %q", gameCode)
}

// Statuses returns the loading state of every game in registry order.
func (s *CatalogService) Statuses() []GameStatus {
	out := make([]GameStatus, 0, len(s.sites))
	for _, site := range s.sites {
		st, _ := s.Status(site.GameCode)
		out = append(out, st)
	}
	return out
}

// Status returns the loading state of one game.
func (s *CatalogService) Status(gameCode string) (GameStatus, error) {
	site, err := s.Site(gameCode)
	if err != nil {
		return GameStatus{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	g := s.games[gameCode]

	st := GameStatus{
		Site:         site,
		Status:       g.status,
		Error:        g.err,
		FromSnapshot: g.fromSnapshot,
	}
	if !g.data.IsEmpty() {
		st.UpdateTime = g.data.UpdateTime()
		st.SheetCount = g.data.SheetCount()
	}
	if !g.loadedAt.IsZero() {
		loadedAt := g.loadedAt
		st.LoadedAt = &loadedAt
	}
	return st, nil
}

// Data returns the loaded dataset, or the empty sentinel until the first load succeeds.
func (s *CatalogService) Data(gameCode string) *domain.Data {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if g, ok := s.games[gameCode]; ok {
		return g.data
	}
	return domain.EmptyData()
}

// Gallery returns the loaded gallery, nil until loaded or when the game has none.
func (s *CatalogService) Gallery(gameCode string) domain.Gallery {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if g, ok := s.games[gameCode]; ok {
		return g.gallery
	}
	return nil
}

// Index returns the search index of the loaded dataset, nil until loaded.
func (s *CatalogService) Index(gameCode string) *search.SheetIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if g, ok := s.games[gameCode]; ok {
		return g.index
	}
	return nil
}

// Ensure loads the dataset of gameCode unless it is already loaded. Concurrent callers share one load.
// A failed load is retried by the next call.
func (s *CatalogService) Ensure(ctx context.Context, gameCode string) (*domain.Data, error) {
	if _, err := s.Site(gameCode); err != nil {
		return nil, err
	}

	if data, ok := s.loaded(gameCode); ok {
		return data, nil
	}
	return s.load(ctx, gameCode, false)
}

func (s *CatalogService) loaded(gameCode string) (*domain.Data, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g := s.games[gameCode]
	return g.data, g.status == domain.StatusLoaded
}

// Reload fetches the dataset of gameCode again, replacing the loaded one on success.
// The previous dataset stays served when the reload fails.
func (s *CatalogService) Reload(ctx context.Context, gameCode string) (*domain.Data, error) {
	site, err := s.Site(gameCode)
	if err != nil {
		return nil, err
	}
	if inv, ok := s.source.(invalidator); ok {
		inv.Invalidate(site)
	}
	return s.load(ctx, gameCode, true)
}

// EnsureAll loads every game, logging failures.
func (s *CatalogService) EnsureAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, site := range s.sites {
		wg.Go(func() {
			if _, err := s.Ensure(ctx, site.GameCode); err != nil {
				s.logger.Warn("initial load failed", "game", site.GameCode, "error", err)
			}
		})
	}
	wg.Wait()
}

// Close releases the search indexes.
func (s *CatalogService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, g := range s.games {
		if g.index != nil {
			errs = append(errs, g.index.Close())
			g.index = nil
		}
	}
	return errors.Join(errs...)
}

// load runs one shared load per game. Unless forced, a load that finished while the caller
// was queued is reused.
func (s *CatalogService) load(ctx context.Context, gameCode string, force bool) (*domain.Data, error) {
	// A canceled caller must not fail the load shared by the others.
	ch := s.group.DoChan(gameCode, func() (any, error) {
		if !force {
			if data, ok := s.loaded(gameCode); ok {
				return data, nil
			}
		}
		return s.doLoad(context.WithoutCancel(ctx), gameCode)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Data), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *CatalogService) doLoad(ctx context.Context, gameCode string) (*domain.Data, error) {
	site, err := s.Site(gameCode)
	if err != nil {
		return nil, err
	}
	log := s.logger.With("game", gameCode)
	start := time.Now()

	s.setStatus(gameCode, domain.StatusLoading, "")
	s.events.Emit(sse.NewCatalogEvent(sse.EventCatalogLoading, sse.CatalogEventData{
		GameCode: gameCode,
		Status:   domain.StatusLoading,
	}))

	payload, gallery, fromSnapshot, err := s.fetch(ctx, site, log)
	if err != nil {
		return nil, s.fail(gameCode, start, err)
	}

	raw, err := catalog.Decode(payload)
	if err != nil {
		return nil, s.fail(gameCode, start, domainerrors.Wrapf(err, domainerrors.CodeUpstream, "decode %s dataset", gameCode))
	}

	data := catalog.Normalize(raw, site.DataSourceURL, gameCode, catalog.Options{
		Logger:   log,
		Policies: s.policies,
	})

	var built domain.Gallery
	if gallery != nil {
		rawGallery, err := catalog.DecodeGallery(gallery)
		if err != nil {
			log.Warn("gallery unavailable", "error", err)
		} else {
			built = catalog.BuildGallery(rawGallery, data, log)
		}
	}

	index, err := search.Build(data, search.Options{Logger: log})
	if err != nil {
		return nil, s.fail(gameCode, start, fmt.Errorf("build search index: %w", err))
	}

	if !fromSnapshot && s.store != nil {
		if err := s.store.SaveSnapshot(ctx, &store.DatasetSnapshot{
			GameCode: gameCode,
			Data:     payload,
			Gallery:  gallery,
		}); err != nil {
			log.Warn("failed to save dataset snapshot", "error", err)
		}
	}

	s.mu.Lock()
	g := s.games[gameCode]
	old := g.index
	*g = gameState{
		status:       domain.StatusLoaded,
		data:         data,
		gallery:      built,
		index:        index,
		loadedAt:     time.Now(),
		fromSnapshot: fromSnapshot,
	}
	s.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			log.Warn("failed to close previous index", "error", err)
		}
	}

	outcome := metrics.OutcomeSuccess
	if fromSnapshot {
		outcome = metrics.OutcomeSnapshot
	}
	s.metrics.RecordLoad(gameCode, outcome, time.Since(start), data.SheetCount())
	s.events.Emit(sse.NewCatalogEvent(sse.EventCatalogLoaded, sse.CatalogEventData{
		GameCode:   gameCode,
		Status:     domain.StatusLoaded,
		UpdateTime: data.UpdateTime(),
		SheetCount: data.SheetCount(),
		FromCache:  fromSnapshot,
	}))
	log.Info("dataset loaded",
		"sheets", data.SheetCount(),
		"updateTime", data.UpdateTime(),
		"fromSnapshot", fromSnapshot,
		"duration", time.Since(start))

	return data, nil
}

// fetch returns the dataset and gallery payloads, falling back to the stored snapshot when the
// source fails. A nil gallery means none is available.
func (s *CatalogService) fetch(ctx context.Context, site domain.Site, log *slog.Logger) (data, gallery []byte, fromSnapshot bool, err error) {
	data, err = s.source.FetchData(ctx, site)
	if err == nil {
		var gerr error
		gallery, gerr = s.source.FetchGallery(ctx, site)
		if gerr != nil {
			log.Warn("gallery unavailable", "error", gerr)
			gallery = nil
		}
		return data, gallery, false, nil
	}
	if s.store == nil {
		return nil, nil, false, err
	}

	snap, serr := s.store.GetSnapshot(ctx, site.GameCode)
	if serr != nil {
		if !errors.Is(serr, store.ErrNotFound) {
			log.Warn("failed to read dataset snapshot", "error", serr)
		}
		return nil, nil, false, err
	}

	log.Warn("data source failed, serving snapshot", "error", err, "fetchedAt", snap.FetchedAt)
	if len(snap.Gallery) > 0 {
		gallery = snap.Gallery
	}
	return snap.Data, gallery, true, nil
}

func (s *CatalogService) fail(gameCode string, start time.Time, err error) error {
	s.logger.Error("dataset load failed", "game", gameCode, "error", err)
	s.setStatus(gameCode, domain.StatusError, err.Error())
	s.metrics.RecordLoad(gameCode, metrics.OutcomeError, time.Since(start), 0)
	s.events.Emit(sse.NewCatalogEvent(sse.EventCatalogError, sse.CatalogEventData{
		GameCode: gameCode,
		Status:   domain.StatusError,
		Error:    err.Error(),
	}))
	return err
}

// setStatus updates the status. A loaded game that fails to reload keeps serving its data,
// so its status stays loaded and only the error message is recorded.
func (s *CatalogService) setStatus(gameCode string, status domain.LoadingStatus, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.games[gameCode]
	if g.status == domain.StatusLoaded && status != domain.StatusLoaded {
		g.err = msg
		return
	}
	g.status = status
	g.err = msg
}
