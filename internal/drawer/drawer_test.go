package drawer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/arcadesongs/arcadesongs-server/internal/random"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeSleeper records requested delays without sleeping and runs onSleep after each one.
type fakeSleeper struct {
	mu      sync.Mutex
	delays  []time.Duration
	onSleep func(n int)
}

func (f *fakeSleeper) Sleep(_ context.Context, d time.Duration) error {
	f.mu.Lock()
	f.delays = append(f.delays, d)
	n := len(f.delays)
	hook := f.onSleep
	f.mu.Unlock()
	if hook != nil {
		hook(n)
	}
	return nil
}

func (f *fakeSleeper) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.delays)
}

func newDrawer(pool []int, size int, replacement bool, s *fakeSleeper) *Drawer[int] {
	return New(Options[int]{
		Pool:        pool,
		Size:        size,
		Replacement: replacement,
		RNG:         random.Seeded(7),
		Sleep:       s.Sleep,
	})
}

func values(slots []Slot[int]) []int {
	out := make([]int, 0, len(slots))
	for _, s := range slots {
		if s.Filled {
			out = append(out, s.Item)
		}
	}
	return out
}

func TestStart_SettlesWithoutAnimation(t *testing.T) {
	tests := []struct {
		name        string
		pool        []int
		replacement bool
		want        []Slot[int]
	}{
		{"empty pool without replacement", nil, false, []Slot[int]{}},
		{"empty pool with replacement", nil, true, []Slot[int]{{}, {}, {}}},
		{"single candidate without replacement", []int{9}, false, []Slot[int]{{Item: 9, Filled: true}}},
		{"single candidate with replacement", []int{9}, true, []Slot[int]{
			{Item: 9, Filled: true}, {Item: 9, Filled: true}, {Item: 9, Filled: true},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSleeper{}
			d := newDrawer(tt.pool, 3, tt.replacement, s)

			var got []Slot[int]
			ok := d.Start(context.Background(), func(slots []Slot[int]) { got = slots })

			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, d.Items())
			assert.Zero(t, s.Count(), "no ticks elapse")
			assert.False(t, d.IsDrawing())
		})
	}
}

func TestStart_FullRun(t *testing.T) {
	s := &fakeSleeper{}
	d := newDrawer([]int{1, 2, 3, 4, 5}, 3, false, s)

	calls := 0
	var final []Slot[int]
	ok := d.Start(context.Background(), func(slots []Slot[int]) {
		calls++
		final = slots
	})

	require.True(t, ok)
	assert.Equal(t, 1, calls)
	assert.Equal(t, DefaultCurve.Ticks(), s.Count())
	assert.Equal(t, 40, s.Count())
	assert.Equal(t, 20*time.Millisecond, s.delays[0])
	assert.Equal(t, 800*time.Millisecond, s.delays[len(s.delays)-1])
	for i := 1; i < len(s.delays); i++ {
		assert.Greater(t, s.delays[i], s.delays[i-1])
	}

	assert.Equal(t, final, d.Items())
	got := values(final)
	require.Len(t, got, 3)
	assert.ElementsMatch(t, got, uniq(got), "no duplicates without replacement")
	assert.Subset(t, []int{1, 2, 3, 4, 5}, got)
}

func uniq(in []int) []int {
	seen := map[int]bool{}
	var out []int
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func TestStart_RestartUsesLatestConfiguration(t *testing.T) {
	s := &fakeSleeper{}
	d := newDrawer([]int{1, 2, 3}, 2, true, s)

	var secondResult *bool
	s.onSleep = func(n int) {
		if n != 3 {
			return
		}
		d.SetPool([]int{7, 8})
		d.SetSize(1)
		again := d.Start(context.Background(), func([]Slot[int]) { t.Error("second callback must not run") })
		secondResult = &again
	}

	calls := 0
	var final []Slot[int]
	ok := d.Start(context.Background(), func(slots []Slot[int]) {
		calls++
		final = slots
	})

	require.True(t, ok)
	require.NotNil(t, secondResult)
	assert.False(t, *secondResult, "overlapping start only requests a restart")
	assert.Equal(t, 1, calls)
	assert.Equal(t, 3+40, s.Count())
	require.Len(t, final, 1)
	assert.Contains(t, []int{7, 8}, final[0].Item)
}

func TestStop_KeepsLastSample(t *testing.T) {
	s := &fakeSleeper{}
	d := newDrawer([]int{1, 2, 3, 4}, 2, false, s)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	var atStop []Slot[int]
	s.onSleep = func(n int) {
		if n == 5 {
			atStop = d.Items()
			assert.ErrorIs(t, d.Stop(cancelled), context.Canceled)
		}
	}

	ok := d.Start(context.Background(), func([]Slot[int]) { t.Error("onFinish after stop") })

	assert.False(t, ok)
	assert.Equal(t, 5, s.Count())
	assert.Equal(t, atStop, d.Items())
	assert.NoError(t, d.Stop(context.Background()), "stop while idle is a no-op")
}

func TestStop_WaitsForRunToExit(t *testing.T) {
	ticked := make(chan struct{}, 64)
	release := make(chan struct{})
	d := New(Options[int]{
		Pool: []int{1, 2, 3},
		Size: 1,
		RNG:  random.Seeded(1),
		Sleep: func(ctx context.Context, _ time.Duration) error {
			ticked <- struct{}{}
			select {
			case <-release:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})

	result := make(chan bool, 1)
	go func() { result <- d.Start(context.Background(), nil) }()
	<-ticked
	require.True(t, d.IsDrawing())

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, d.Stop(cancelled), context.Canceled)

	stopped := make(chan error, 1)
	go func() { stopped <- d.Stop(context.Background()) }()

	select {
	case <-stopped:
		t.Fatal("stop returned while the run was still sleeping")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-stopped)
	assert.False(t, <-result)
	assert.False(t, d.IsDrawing())
}

func TestStart_ContextCancelStops(t *testing.T) {
	d := New(Options[int]{Pool: []int{1, 2}, Size: 1, RNG: random.Seeded(3)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok := d.Start(ctx, func([]Slot[int]) { t.Error("onFinish after cancel") })
	assert.False(t, ok)
	assert.Len(t, values(d.Items()), 1, "first sample is kept")
}

func TestSetItems(t *testing.T) {
	t.Run("idle", func(t *testing.T) {
		d := newDrawer([]int{1, 2}, 2, false, &fakeSleeper{})
		d.SetItems([]int{5, 6, 7})
		assert.Equal(t, []int{5, 6, 7}, values(d.Items()))
		assert.False(t, d.IsDrawing())
	})

	t.Run("during a draw", func(t *testing.T) {
		s := &fakeSleeper{}
		d := newDrawer([]int{1, 2, 3}, 2, false, s)
		s.onSleep = func(n int) {
			if n == 2 {
				d.SetItems([]int{42})
			}
		}

		ok := d.Start(context.Background(), func([]Slot[int]) { t.Error("onFinish after overwrite") })
		assert.False(t, ok)
		assert.Equal(t, 2, s.Count())
		assert.Equal(t, []int{42}, values(d.Items()))
	})
}

func TestConfigurationResetsIdleSlots(t *testing.T) {
	d := newDrawer([]int{1, 2}, 5, false, &fakeSleeper{})
	assert.Len(t, d.Items(), 2, "unique draws cannot exceed the pool")

	d.SetReplacement(true)
	assert.Len(t, d.Items(), 5)

	d.SetItems([]int{1})
	d.SetPool([]int{1, 2, 3})
	assert.Equal(t, make([]Slot[int], 5), d.Items())

	d.SetSize(0)
	assert.Empty(t, d.Items())
	d.SetSize(-3)
	assert.Empty(t, d.Items())
}

func TestStart_NonPositiveSizeDrawsNothing(t *testing.T) {
	s := &fakeSleeper{}
	d := newDrawer([]int{1, 2, 3}, -1, true, s)

	var final []Slot[int]
	require.True(t, d.Start(context.Background(), func(slots []Slot[int]) { final = slots }))
	assert.Empty(t, final)
}

func TestSubscribe(t *testing.T) {
	s := &fakeSleeper{}
	d := newDrawer([]int{1, 2, 3}, 1, true, s)

	var mu sync.Mutex
	events := 0
	unsubscribe := d.Subscribe(func(slots []Slot[int]) {
		mu.Lock()
		events++
		mu.Unlock()
		assert.Len(t, slots, 1)
	})

	d.Start(context.Background(), nil)
	assert.Equal(t, 40, events)

	unsubscribe()
	d.Start(context.Background(), nil)
	assert.Equal(t, 40, events)
}

func TestCurve_Ticks(t *testing.T) {
	assert.Equal(t, 40, DefaultCurve.Ticks())
	assert.Equal(t, 3, Curve{InitialSpeed: 10, Step: 4}.Ticks())
	assert.Zero(t, Curve{}.Ticks())
}
