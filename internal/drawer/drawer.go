// Package drawer implements the slot-machine style random draw: a pool is re-sampled at a slowing
// pace until the result settles, and the run can be restarted or stopped at tick boundaries.
package drawer

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/arcadesongs/arcadesongs-server/internal/logger"
	"github.com/arcadesongs/arcadesongs-server/internal/random"
)

// Slot is one displayed position. Filled is false for an undrawn slot.
type Slot[T any] struct {
	Item   T
	Filled bool
}

// Sleeper pauses between ticks. It returns early with ctx's error when ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Curve controls the slowdown: each tick sleeps Budget/speed, and speed drops by Step from
// InitialSpeed until it reaches zero.
type Curve struct {
	InitialSpeed int
	Step         int
	Budget       time.Duration
}

// DefaultCurve is 40 ticks with delays growing from 20ms to 800ms.
var DefaultCurve = Curve{InitialSpeed: 200, Step: 5, Budget: 4000 * time.Millisecond}

// Ticks returns the number of samples a full run takes.
func (c Curve) Ticks() int {
	if c.InitialSpeed <= 0 || c.Step <= 0 {
		return 0
	}
	return (c.InitialSpeed + c.Step - 1) / c.Step
}

// Options configures a Drawer.
type Options[T any] struct {
	Pool        []T
	Size        int
	Replacement bool

	RNG    random.RNG
	Sleep  Sleeper
	Curve  Curve
	Logger *slog.Logger
}

// Drawer is a restartable random draw. At most one run is active at a time; overlapping requests
// only flip flags the running loop observes between ticks.
type Drawer[T any] struct {
	rng    random.RNG
	sleep  Sleeper
	curve  Curve
	logger *slog.Logger

	mu          sync.Mutex
	pool        []T
	size        int
	replacement bool
	slots       []Slot[T]
	drawing     bool
	stopping    bool
	restarting  bool
	done        chan struct{}
	subscribers map[int]func([]Slot[T])
	nextSub     int

	// emitMu keeps notifications in mutation order.
	emitMu sync.Mutex
}

// New creates an idle drawer with empty slots sized for its configuration.
func New[T any](opts Options[T]) *Drawer[T] {
	d := &Drawer[T]{
		rng:         opts.RNG,
		sleep:       opts.Sleep,
		curve:       opts.Curve,
		logger:      logger.OrDiscard(opts.Logger),
		pool:        slices.Clone(opts.Pool),
		size:        opts.Size,
		replacement: opts.Replacement,
		subscribers: make(map[int]func([]Slot[T])),
	}
	if d.rng == nil {
		d.rng = random.Default()
	}
	if d.sleep == nil {
		d.sleep = sleepContext
	}
	if d.curve == (Curve{}) {
		d.curve = DefaultCurve
	}
	d.slots = emptySlots[T](d.fillSize())
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start runs a draw on the calling goroutine and reports whether it completed naturally.
// onFinish, if non-nil, receives the final slots only on natural completion. When a run is
// already active Start requests a restart of that run and returns false immediately.
// Cancelling ctx stops the run.
func (d *Drawer[T]) Start(ctx context.Context, onFinish func([]Slot[T])) bool {
	d.mu.Lock()
	if d.drawing {
		d.restarting = true
		d.mu.Unlock()
		d.logger.Debug("restart requested")
		return false
	}
	d.drawing = true
	d.stopping = false
	done := make(chan struct{})
	d.done = done
	d.mu.Unlock()

	for {
		d.mu.Lock()
		d.restarting = false
		pool := d.pool
		size := max(d.size, 0)
		replacement := d.replacement
		d.mu.Unlock()

		if len(pool) <= 1 {
			d.settle(pool, size, replacement)
			break
		}

		d.animate(ctx, pool, size, replacement)

		d.mu.Lock()
		again := d.restarting && !d.stopping
		d.mu.Unlock()
		if !again {
			break
		}
	}

	d.mu.Lock()
	completed := !d.stopping
	final := slices.Clone(d.slots)
	d.drawing = false
	d.stopping = false
	d.restarting = false
	d.done = nil
	close(done)
	d.mu.Unlock()

	if completed && onFinish != nil {
		onFinish(final)
	}
	return completed
}

// settle resolves pools that cannot animate: nothing to draw, or exactly one candidate.
func (d *Drawer[T]) settle(pool []T, size int, replacement bool) {
	var slots []Slot[T]
	switch {
	case len(pool) == 0 && replacement:
		slots = emptySlots[T](size)
	case len(pool) == 0:
		slots = []Slot[T]{}
	case replacement:
		slots = make([]Slot[T], size)
		for i := range slots {
			slots[i] = Slot[T]{Item: pool[0], Filled: true}
		}
	case size > 0:
		slots = []Slot[T]{{Item: pool[0], Filled: true}}
	default:
		slots = []Slot[T]{}
	}

	d.mu.Lock()
	d.slots = slots
	d.emit()
}

func (d *Drawer[T]) animate(ctx context.Context, pool []T, size int, replacement bool) {
	for speed := d.curve.InitialSpeed; speed > 0; speed -= d.curve.Step {
		d.mu.Lock()
		if d.stopping || d.restarting {
			d.mu.Unlock()
			return
		}
		d.slots = d.sample(pool, size, replacement)
		d.emit()

		if err := d.sleep(ctx, d.curve.Budget/time.Duration(speed)); err != nil {
			d.mu.Lock()
			d.stopping = true
			d.mu.Unlock()
			d.logger.Debug("draw cancelled", "error", err)
			return
		}
	}
}

func (d *Drawer[T]) sample(pool []T, size int, replacement bool) []Slot[T] {
	var items []T
	if replacement {
		items = random.PickWithReplacement(d.rng, pool, size)
	} else {
		items = random.PickUnique(d.rng, pool, size)
	}
	slots := make([]Slot[T], len(items))
	for i, item := range items {
		slots[i] = Slot[T]{Item: item, Filled: true}
	}
	return slots
}

// emit must be called with mu held; it releases mu and notifies subscribers in order.
func (d *Drawer[T]) emit() {
	slots := slices.Clone(d.slots)
	subs := make([]func([]Slot[T]), 0, len(d.subscribers))
	for _, id := range slices.Sorted(maps.Keys(d.subscribers)) {
		subs = append(subs, d.subscribers[id])
	}
	d.emitMu.Lock()
	d.mu.Unlock()
	defer d.emitMu.Unlock()

	for _, fn := range subs {
		fn(slices.Clone(slots))
	}
}

// Stop requests the active run to halt and waits until it has exited. The last sampled slots
// are kept. It is a no-op when idle.
func (d *Drawer[T]) Stop(ctx context.Context) error {
	d.mu.Lock()
	d.stopping = true
	done := d.done
	d.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetItems stops any active run and shows items directly.
func (d *Drawer[T]) SetItems(items []T) {
	slots := make([]Slot[T], len(items))
	for i, item := range items {
		slots[i] = Slot[T]{Item: item, Filled: true}
	}
	d.SetSlots(slots)
}

// SetSlots is SetItems for slots that may be unfilled.
func (d *Drawer[T]) SetSlots(slots []Slot[T]) {
	d.mu.Lock()
	d.stopping = d.drawing
	d.slots = slices.Clone(slots)
	d.emit()
}

// SetPool replaces the candidate pool.
func (d *Drawer[T]) SetPool(pool []T) {
	d.mu.Lock()
	d.pool = slices.Clone(pool)
	d.resetLocked()
}

// SetSize changes the number of slots drawn.
func (d *Drawer[T]) SetSize(size int) {
	d.mu.Lock()
	d.size = size
	d.resetLocked()
}

// SetReplacement toggles whether one candidate may fill several slots.
func (d *Drawer[T]) SetReplacement(replacement bool) {
	d.mu.Lock()
	d.replacement = replacement
	d.resetLocked()
}

// resetLocked clears the slots while idle; a running draw picks the change up on restart.
func (d *Drawer[T]) resetLocked() {
	if d.drawing {
		d.mu.Unlock()
		return
	}
	d.slots = emptySlots[T](d.fillSize())
	d.emit()
}

func (d *Drawer[T]) fillSize() int {
	size := max(d.size, 0)
	if d.replacement {
		return size
	}
	return min(size, len(d.pool))
}

// Items returns a copy of the displayed slots.
func (d *Drawer[T]) Items() []Slot[T] {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.slots)
}

// IsDrawing reports whether a run is active.
func (d *Drawer[T]) IsDrawing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.drawing
}

// Subscribe registers fn for every slot change and returns a function that removes it.
// fn runs synchronously and must not call SetItems, SetSlots or the Set* configuration methods.
func (d *Drawer[T]) Subscribe(fn func([]Slot[T])) (unsubscribe func()) {
	d.mu.Lock()
	id := d.nextSub
	d.nextSub++
	d.subscribers[id] = fn
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.subscribers, id)
		d.mu.Unlock()
	}
}

func emptySlots[T any](n int) []Slot[T] {
	return make([]Slot[T], max(n, 0))
}
