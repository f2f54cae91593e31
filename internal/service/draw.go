package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/arcadesongs/arcadesongs-server/internal/domain"
	"github.com/arcadesongs/arcadesongs-server/internal/drawer"
	domainerrors "github.com/arcadesongs/arcadesongs-server/internal/errors"
	"github.com/arcadesongs/arcadesongs-server/internal/filter"
	"github.com/arcadesongs/arcadesongs-server/internal/id"
	"github.com/arcadesongs/arcadesongs-server/internal/logger"
	"github.com/arcadesongs/arcadesongs-server/internal/metrics"
	"github.com/arcadesongs/arcadesongs-server/internal/random"
	"github.com/arcadesongs/arcadesongs-server/internal/sse"
	"github.com/arcadesongs/arcadesongs-server/internal/store"
	"github.com/arcadesongs/arcadesongs-server/internal/validation"
)

// DrawConfig configures a DrawService.
type DrawConfig struct {
	// SessionTTL expires idle sessions; every access renews it.
	SessionTTL time.Duration
	Curve      drawer.Curve
	RNG        random.RNG
	Sleep      drawer.Sleeper
}

// CreateDrawRequest starts a draw over the sheets matching Filters.
type CreateDrawRequest struct {
	GameCode    string         `json:"gameCode" validate:"required,gamecode"`
	Filters     domain.Filters `json:"filters"`
	Size        int            `json:"size" validate:"min=1,max=50"`
	Replacement bool           `json:"replacement"`
	// Text narrows the pool with a free-text search.
	Text string `json:"text,omitempty" validate:"max=200"`
}

// ConfigureDrawRequest changes a session. Nil fields are left as they are.
type ConfigureDrawRequest struct {
	Filters     *domain.Filters `json:"filters,omitempty"`
	Text        *string         `json:"text,omitempty" validate:"omitempty,max=200"`
	Size        *int            `json:"size,omitempty" validate:"omitempty,min=1,max=50"`
	Replacement *bool           `json:"replacement,omitempty"`
}

// DrawSnapshot is the externally visible state of a draw session.
type DrawSnapshot struct {
	ID          string            `json:"id"`
	GameCode    string            `json:"gameCode"`
	Size        int               `json:"size"`
	Replacement bool              `json:"replacement"`
	PoolSize    int               `json:"poolSize"`
	Query       map[string]string `json:"query,omitempty"`
	Drawing     bool              `json:"drawing"`
	Slots       []sse.DrawSlot    `json:"slots"`
	ComboID     string            `json:"comboId,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

type drawSession struct {
	id        string
	gameCode  string
	createdAt time.Time
	drawer    *drawer.Drawer[*domain.Sheet]
	unsub     func()

	mu          sync.Mutex
	filters     domain.Filters
	text        string
	size        int
	replacement bool
	poolSize    int
	comboID     string
}

// DrawService runs draw sessions in the background and publishes their slots over SSE.
type DrawService struct {
	catalog  *CatalogService
	store    *store.Store
	events   EventEmitter
	metrics  *metrics.Metrics
	validate *validation.Validator
	cfg      DrawConfig
	logger   *slog.Logger

	sessions *cache.Cache

	// ctx bounds every background run; cancel stops them all.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDrawService creates a draw service. st, events and m may be nil.
func NewDrawService(
	cfg DrawConfig,
	catalogSvc *CatalogService,
	st *store.Store,
	events EventEmitter,
	m *metrics.Metrics,
	log *slog.Logger,
) *DrawService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if events == nil {
		events = noopEmitter{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &DrawService{
		catalog:  catalogSvc,
		store:    st,
		events:   events,
		metrics:  m,
		validate: validation.New(),
		cfg:      cfg,
		logger:   logger.OrDiscard(log),
		sessions: cache.New(cfg.SessionTTL, cfg.SessionTTL/2),
		ctx:      ctx,
		cancel:   cancel,
	}
	s.sessions.OnEvicted(func(key string, v any) {
		if sess, ok := v.(*drawSession); ok {
			s.closeSession(sess)
			s.logger.Debug("draw session evicted", "draw", key)
		}
		s.metrics.SetActiveSessions(s.sessions.ItemCount())
	})
	return s
}

// Create starts a new draw session.
func (s *DrawService) Create(ctx context.Context, req CreateDrawRequest) (*DrawSnapshot, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	pool, err := s.catalog.FilterSheets(ctx, req.GameCode, SheetQuery{Filters: req.Filters, Text: req.Text})
	if err != nil {
		return nil, err
	}

	drawID, err := id.Generate(id.PrefixDraw)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate draw id")
	}

	sess := &drawSession{
		id:          drawID,
		gameCode:    req.GameCode,
		createdAt:   time.Now(),
		filters:     req.Filters,
		text:        req.Text,
		size:        req.Size,
		replacement: req.Replacement,
		poolSize:    len(pool),
		drawer: drawer.New(drawer.Options[*domain.Sheet]{
			Pool:        pool,
			Size:        req.Size,
			Replacement: req.Replacement,
			RNG:         s.cfg.RNG,
			Sleep:       s.cfg.Sleep,
			Curve:       s.cfg.Curve,
			Logger:      s.logger.With("draw", drawID),
		}),
	}
	sess.unsub = sess.drawer.Subscribe(func(slots []drawer.Slot[*domain.Sheet]) {
		s.events.Emit(sse.NewDrawEvent(sse.EventDrawSlots, sse.DrawEventData{
			DrawID: drawID,
			Slots:  toDrawSlots(slots),
		}))
	})

	s.sessions.SetDefault(drawID, sess)
	s.metrics.SetActiveSessions(s.sessions.ItemCount())
	s.logger.Info("draw session created",
		"draw", drawID, "game", req.GameCode, "pool", len(pool), "size", req.Size)

	s.run(sess)
	return s.snapshot(sess), nil
}

// Get returns the current state of a session.
func (s *DrawService) Get(_ context.Context, drawID string) (*DrawSnapshot, error) {
	sess, err := s.session(drawID)
	if err != nil {
		return nil, err
	}
	return s.snapshot(sess), nil
}

// Restart draws again. A running draw restarts at its next tick; an idle one starts over.
func (s *DrawService) Restart(_ context.Context, drawID string) (*DrawSnapshot, error) {
	sess, err := s.session(drawID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	sess.comboID = ""
	sess.mu.Unlock()

	s.run(sess)
	return s.snapshot(sess), nil
}

// Stop halts a running draw, keeping the last sampled slots, and waits for it to exit.
func (s *DrawService) Stop(ctx context.Context, drawID string) (*DrawSnapshot, error) {
	sess, err := s.session(drawID)
	if err != nil {
		return nil, err
	}

	wasDrawing := sess.drawer.IsDrawing()
	if err := sess.drawer.Stop(ctx); err != nil {
		return nil, err
	}
	if wasDrawing {
		s.metrics.RecordDraw(sess.gameCode, metrics.DrawStopped)
		s.events.Emit(sse.NewDrawEvent(sse.EventDrawStopped, sse.DrawEventData{
			DrawID: drawID,
			Slots:  toDrawSlots(sess.drawer.Items()),
		}))
	}
	return s.snapshot(sess), nil
}

// Configure changes the pool, size or replacement of a session. The change shows immediately
// when idle; a running draw picks it up when restarted.
func (s *DrawService) Configure(ctx context.Context, drawID string, req ConfigureDrawRequest) (*DrawSnapshot, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	sess, err := s.session(drawID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	filters, text := sess.filters, sess.text
	sess.mu.Unlock()

	if req.Filters != nil || req.Text != nil {
		if req.Filters != nil {
			filters = *req.Filters
		}
		if req.Text != nil {
			text = *req.Text
		}
		pool, err := s.catalog.FilterSheets(ctx, sess.gameCode, SheetQuery{Filters: filters, Text: text})
		if err != nil {
			return nil, err
		}
		sess.mu.Lock()
		sess.filters, sess.text, sess.poolSize = filters, text, len(pool)
		sess.mu.Unlock()
		sess.drawer.SetPool(pool)
	}
	if req.Size != nil {
		sess.mu.Lock()
		sess.size = *req.Size
		sess.mu.Unlock()
		sess.drawer.SetSize(*req.Size)
	}
	if req.Replacement != nil {
		sess.mu.Lock()
		sess.replacement = *req.Replacement
		sess.mu.Unlock()
		sess.drawer.SetReplacement(*req.Replacement)
	}
	return s.snapshot(sess), nil
}

// Reopen shows the sheets of a saved combo in a session, stopping any running draw.
// Sheets that no longer exist are shown as dummy sheets.
func (s *DrawService) Reopen(ctx context.Context, drawID, comboID string) (*DrawSnapshot, error) {
	sess, err := s.session(drawID)
	if err != nil {
		return nil, err
	}
	combo, err := s.Combo(ctx, comboID)
	if err != nil {
		return nil, err
	}
	if combo.GameCode != sess.gameCode {
		return nil, domainerrors.Validationf("combo %s belongs to %s, not %s", comboID, combo.GameCode, sess.gameCode)
	}

	data, err := s.catalog.Ensure(ctx, combo.GameCode)
	if err != nil {
		return nil, err
	}

	// SetItems halts a running draw, so no finish can overwrite the combo ID afterwards.
	sess.drawer.SetItems(ResolveSheets(data, combo.SheetExprs))
	sess.mu.Lock()
	sess.comboID = combo.ID
	sess.mu.Unlock()

	s.metrics.RecordDraw(sess.gameCode, metrics.DrawReopened)
	return s.snapshot(sess), nil
}

// Combo returns a saved combo.
func (s *DrawService) Combo(ctx context.Context, comboID string) (*domain.Combo, error) {
	if s.store == nil {
		return nil, domainerrors.Unavailablef("combo storage not configured")
	}
	combo, err := s.store.GetCombo(ctx, comboID)
	if err != nil {
		return nil, domainerrors.Wrapf(err, domainerrors.CodeOf(err), "combo %s", comboID)
	}
	return combo, nil
}

// ComboSheets resolves the sheets of a saved combo against the loaded dataset.
func (s *DrawService) ComboSheets(ctx context.Context, comboID string) (*domain.Combo, []*domain.Sheet, error) {
	combo, err := s.Combo(ctx, comboID)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.catalog.Ensure(ctx, combo.GameCode)
	if err != nil {
		return nil, nil, err
	}
	return combo, ResolveSheets(data, combo.SheetExprs), nil
}

// Combos lists the saved combos of a game, newest first.
func (s *DrawService) Combos(ctx context.Context, gameCode string) ([]*domain.Combo, error) {
	if s.store == nil {
		return nil, domainerrors.Unavailablef("combo storage not configured")
	}
	if _, err := s.catalog.Site(gameCode); err != nil {
		return nil, err
	}
	combos, err := s.store.ListCombos(ctx, gameCode)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list combos")
	}
	return combos, nil
}

// StreamSnapshot returns the current slots of a session as an event for new subscribers.
func (s *DrawService) StreamSnapshot(drawID string) (sse.Event, error) {
	sess, err := s.session(drawID)
	if err != nil {
		return sse.Event{}, err
	}
	sess.mu.Lock()
	comboID := sess.comboID
	sess.mu.Unlock()
	return sse.NewDrawEvent(sse.EventDrawSlots, sse.DrawEventData{
		DrawID:  drawID,
		Slots:   toDrawSlots(sess.drawer.Items()),
		ComboID: comboID,
	}), nil
}

// Close stops every session and waits for their runs to exit.
func (s *DrawService) Close() {
	s.cancel()
	// Delete triggers OnEvicted, which stops the session.
	for key := range s.sessions.Items() {
		s.sessions.Delete(key)
	}
	s.wg.Wait()
}

func (s *DrawService) session(drawID string) (*drawSession, error) {
	v, ok := s.sessions.Get(drawID)
	if !ok {
		return nil, domainerrors.NotFoundf("draw %s not found", drawID)
	}
	sess := v.(*drawSession)
	s.sessions.SetDefault(drawID, sess)
	return sess, nil
}

func (s *DrawService) run(sess *drawSession) {
	s.metrics.RecordDraw(sess.gameCode, metrics.DrawStarted)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		sess.drawer.Start(s.ctx, func(slots []drawer.Slot[*domain.Sheet]) {
			s.finish(sess, slots)
		})
	}()
}

// finish persists a completed draw as a combo and announces it.
func (s *DrawService) finish(sess *drawSession, slots []drawer.Slot[*domain.Sheet]) {
	log := s.logger.With("draw", sess.id)
	s.metrics.RecordDraw(sess.gameCode, metrics.DrawFinished)

	var comboID string
	if s.store != nil && len(slots) > 0 {
		combo, err := s.saveCombo(sess, slots)
		if err != nil {
			log.Warn("failed to save combo", "error", err)
		} else {
			comboID = combo.ID
		}
	}

	sess.mu.Lock()
	sess.comboID = comboID
	sess.mu.Unlock()

	s.events.Emit(sse.NewDrawEvent(sse.EventDrawFinished, sse.DrawEventData{
		DrawID:  sess.id,
		Slots:   toDrawSlots(slots),
		ComboID: comboID,
	}))
	log.Debug("draw finished", "slots", len(slots), "combo", comboID)
}

func (s *DrawService) saveCombo(sess *drawSession, slots []drawer.Slot[*domain.Sheet]) (*domain.Combo, error) {
	comboID, err := id.Generate(id.PrefixCombo)
	if err != nil {
		return nil, err
	}

	exprs := make([]string, 0, len(slots))
	for _, slot := range slots {
		if slot.Filled {
			exprs = append(exprs, slot.Item.SheetExpr())
		}
	}

	sess.mu.Lock()
	combo := &domain.Combo{
		ID:          comboID,
		GameCode:    sess.gameCode,
		SheetExprs:  exprs,
		Size:        sess.size,
		Replacement: sess.replacement,
		Query:       filter.SaveQuery(sess.filters),
		CreatedAt:   time.Now(),
	}
	sess.mu.Unlock()

	if err := s.store.SaveCombo(s.ctx, combo); err != nil {
		return nil, err
	}
	return combo, nil
}

func (s *DrawService) closeSession(sess *drawSession) {
	sess.unsub()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sess.drawer.Stop(ctx); err != nil {
		s.logger.Warn("draw did not stop", "draw", sess.id, "error", err)
	}
}

func (s *DrawService) snapshot(sess *drawSession) *DrawSnapshot {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return &DrawSnapshot{
		ID:          sess.id,
		GameCode:    sess.gameCode,
		Size:        sess.size,
		Replacement: sess.replacement,
		PoolSize:    sess.poolSize,
		Query:       filter.SaveQuery(sess.filters),
		Drawing:     sess.drawer.IsDrawing(),
		Slots:       toDrawSlots(sess.drawer.Items()),
		ComboID:     sess.comboID,
		CreatedAt:   sess.createdAt,
	}
}

func toDrawSlots(slots []drawer.Slot[*domain.Sheet]) []sse.DrawSlot {
	out := make([]sse.DrawSlot, len(slots))
	for i, slot := range slots {
		if slot.Filled && slot.Item != nil {
			view := slot.Item.View()
			out[i].Sheet = &view
		}
	}
	return out
}
