package anim

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buffos/go-linerace/internal/chart"
	"github.com/buffos/go-linerace/internal/focus"
	"github.com/buffos/go-linerace/internal/geometry"
	"github.com/buffos/go-linerace/internal/timeutil"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// recorder collects completion events from any goroutine.
type recorder struct {
	mu     sync.Mutex
	events []chart.CompletionEvent
}

func (r *recorder) listen(ev chart.CompletionEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) get() []chart.CompletionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]chart.CompletionEvent(nil), r.events...)
}

func paths(durations ...float64) []geometry.PathDatum {
	out := make([]geometry.PathDatum, len(durations))
	for i, d := range durations {
		out[i] = geometry.PathDatum{
			Index: i,
			Series: chart.Series{
				ID:                       string(rune('A' + i)),
				Title:                    string(rune('A' + i)),
				Data:                     []chart.Point{{X: 0, Y: 1}, {X: 1, Y: float64(10 - i)}},
				AnimationDurationSeconds: d,
			},
		}
	}
	return out
}

func staggered() Config {
	return Config{Mode: chart.ModeStaggered, Delay: time.Second, Settle: 500 * time.Millisecond, MaxValueAxis: chart.AxisY}
}

func TestEaseInOutCubic(t *testing.T) {
	assert.Equal(t, 0.0, EaseInOutCubic(0))
	assert.Equal(t, 0.5, EaseInOutCubic(0.5))
	assert.Equal(t, 1.0, EaseInOutCubic(1))
	assert.Equal(t, 1.0, EaseInOutCubic(3))
	assert.Equal(t, 0.0, EaseInOutCubic(-1))

	prev := 0.0
	for i := 1; i <= 100; i++ {
		v := EaseInOutCubic(float64(i) / 100)
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}
}

func TestScheduler_StaggeredSequence(t *testing.T) {
	f := focus.NewStore()
	s := New(WithFocus(f))
	rec := &recorder{}
	s.Subscribe(rec.listen)

	require.True(t, s.Prepare(paths(1, 1), staggered()))
	st := s.Snapshot()
	assert.Equal(t, PhaseRunning, st.Phase)
	assert.Equal(t, 0, st.ActiveIndex)
	assert.True(t, st.IsAnimating)
	assert.Equal(t, focus.State{Animating: true, Focused: 0}, f.State())

	assert.True(t, s.Tick(t0))
	assert.Equal(t, []float64{0, 0}, s.Snapshot().Progress)

	s.Tick(t0.Add(500 * time.Millisecond))
	assert.Equal(t, []float64{0.5, 0}, s.Snapshot().Progress)

	s.Tick(t0.Add(time.Second))
	st = s.Snapshot()
	assert.Equal(t, []float64{1, 0}, st.Progress)
	assert.Equal(t, []bool{true, false}, st.Completed)
	require.Len(t, rec.get(), 1)

	// Waiting out the delay keeps the first series active.
	s.Tick(t0.Add(1500 * time.Millisecond))
	assert.Equal(t, 0, s.Snapshot().ActiveIndex)

	s.Tick(t0.Add(2 * time.Second))
	st = s.Snapshot()
	assert.Equal(t, 1, st.ActiveIndex)
	assert.Equal(t, 0.0, st.Progress[1])
	assert.Equal(t, 1, f.State().Focused)

	s.Tick(t0.Add(3 * time.Second))
	st = s.Snapshot()
	assert.Equal(t, PhaseDraining, st.Phase)
	assert.Equal(t, []float64{1, 1}, st.Progress)
	assert.True(t, st.IsAnimating)

	assert.False(t, s.Tick(t0.Add(3500*time.Millisecond)))
	st = s.Snapshot()
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Equal(t, -1, st.ActiveIndex)
	assert.False(t, st.IsAnimating)
	assert.Equal(t, focus.State{Focused: -1}, f.State())

	events := rec.get()
	require.Len(t, events, 2)
	assert.Equal(t, []int{0, 1}, []int{events[0].Index, events[1].Index})
	select {
	case <-s.Done():
	default:
		t.Fatal("done channel not closed after settle")
	}
}

func TestScheduler_LargeFrameGapKeepsOrder(t *testing.T) {
	s := New()
	rec := &recorder{}
	s.Subscribe(rec.listen)

	require.True(t, s.Prepare(paths(1, 2, 0.5), staggered()))
	s.Tick(t0)
	assert.False(t, s.Tick(t0.Add(time.Hour)))

	events := rec.get()
	require.Len(t, events, 3)
	for i, ev := range events {
		assert.Equal(t, i, ev.Index)
	}
	assert.Equal(t, 3, s.Snapshot().CompletedCount())
}

func TestScheduler_ProgressIsMonotonicAndEndsAtOne(t *testing.T) {
	s := New()
	p := paths(1, 1)
	require.True(t, s.Prepare(p, staggered()))

	prev := make([]float64, len(p))
	for ms := 0; ms <= 4000; ms += 7 {
		s.Tick(t0.Add(time.Duration(ms) * time.Millisecond))
		st := s.Snapshot()
		for i, v := range st.Progress {
			assert.GreaterOrEqual(t, v, prev[i])
			assert.LessOrEqual(t, v, 1.0)
			if st.Completed[i] {
				assert.Equal(t, 1.0, v)
			}
		}
		prev = st.Progress
	}
	assert.Equal(t, []float64{1, 1}, prev)
	assert.Equal(t, PhaseIdle, s.Snapshot().Phase)
}

func TestScheduler_WithEasingLinear(t *testing.T) {
	s := New(WithEasing(Linear))
	require.True(t, s.Prepare(paths(1, 1), staggered()))

	s.Tick(t0)
	for _, ms := range []int{250, 500, 750} {
		s.Tick(t0.Add(time.Duration(ms) * time.Millisecond))
		assert.InDelta(t, float64(ms)/1000, s.Snapshot().Progress[0], 1e-12, "at %dms", ms)
	}
	// The default cubic ramp is still slow at a quarter of the way in.
	cubic := New()
	require.True(t, cubic.Prepare(paths(1, 1), staggered()))
	cubic.Tick(t0)
	cubic.Tick(t0.Add(250 * time.Millisecond))
	assert.InDelta(t, 0.0625, cubic.Snapshot().Progress[0], 1e-12)
}

func TestLinear(t *testing.T) {
	assert.Equal(t, 0.0, Linear(-0.5))
	assert.Equal(t, 0.3, Linear(0.3))
	assert.Equal(t, 1.0, Linear(2))
}

func TestScheduler_Simultaneous(t *testing.T) {
	s := New()
	rec := &recorder{}
	s.Subscribe(rec.listen)

	cfg := Config{Mode: chart.ModeSimultaneous, MaxValueAxis: chart.AxisY}
	require.True(t, s.Prepare(paths(1, 2), cfg))
	assert.Equal(t, -1, s.Snapshot().ActiveIndex)

	s.Tick(t0)
	s.Tick(t0.Add(time.Second))
	assert.Equal(t, []float64{0.5, 0.5}, s.Snapshot().Progress)
	assert.Empty(t, rec.get())

	assert.False(t, s.Tick(t0.Add(2*time.Second)))
	events := rec.get()
	require.Len(t, events, 2)
	assert.Equal(t, 0, events[0].Index)
	assert.Equal(t, 1, events[1].Index)
}

func TestScheduler_EmptyInputIsNoop(t *testing.T) {
	s := New()
	assert.False(t, s.Start(nil, staggered()))
	assert.False(t, s.Prepare([]geometry.PathDatum{}, staggered()))
	assert.Equal(t, PhaseIdle, s.Snapshot().Phase)
	assert.False(t, s.Tick(t0))
	s.Cancel()
}

func TestScheduler_StartWhileRunningIsIgnored(t *testing.T) {
	clk := timeutil.NewFakeClock(t0)
	s := New(WithClock(clk))
	require.True(t, s.Start(paths(1), staggered()))
	gen := s.Snapshot().Generation

	assert.False(t, s.Start(paths(1, 1), staggered()))
	assert.False(t, s.Prepare(paths(1, 1), staggered()))
	assert.Equal(t, gen, s.Snapshot().Generation)
	assert.Len(t, s.Snapshot().Progress, 1)
	assert.Equal(t, 1, clk.Pending())

	s.Cancel()
}

func TestScheduler_CancelStopsEverything(t *testing.T) {
	f := focus.NewStore()
	s := New(WithFocus(f))
	rec := &recorder{}
	s.Subscribe(rec.listen)

	require.True(t, s.Prepare(paths(1, 1), staggered()))
	s.Tick(t0)
	s.Tick(t0.Add(500 * time.Millisecond))
	s.Cancel()
	frozen := s.Snapshot()

	assert.False(t, s.Tick(t0.Add(time.Hour)))
	assert.Empty(t, rec.get())
	assert.Equal(t, frozen, s.Snapshot())
	assert.Equal(t, PhaseIdle, frozen.Phase)
	assert.False(t, frozen.IsAnimating)
	assert.Equal(t, focus.State{Focused: -1}, f.State())

	// Cancel is idempotent.
	s.Cancel()
	assert.Equal(t, frozen.Generation+1, s.Snapshot().Generation)
}

func TestScheduler_CancelStopsFrameLoop(t *testing.T) {
	clk := timeutil.NewFakeClock(t0)
	s := New(WithClock(clk), WithFrameInterval(10*time.Millisecond))
	rec := &recorder{}
	s.Subscribe(rec.listen)

	require.True(t, s.Start(paths(0.1, 0.1), staggered()))
	require.Equal(t, 1, clk.Pending())

	clk.Advance(10 * time.Millisecond)
	require.Eventually(t, func() bool {
		return len(s.Snapshot().Progress) == 2 && s.Snapshot().Phase == PhaseRunning
	}, time.Second, time.Millisecond)

	s.Cancel()
	assert.Equal(t, 0, clk.Pending())

	for i := 0; i < 50; i++ {
		clk.Advance(100 * time.Millisecond)
	}
	assert.Empty(t, rec.get())
	assert.Equal(t, PhaseIdle, s.Snapshot().Phase)
}

func TestScheduler_RealClockRunsToCompletion(t *testing.T) {
	s := New(WithFrameInterval(time.Millisecond))
	rec := &recorder{}
	s.Subscribe(rec.listen)

	cfg := Config{Mode: chart.ModeStaggered, Delay: 5 * time.Millisecond, Settle: 5 * time.Millisecond, MaxValueAxis: chart.AxisY}
	require.True(t, s.Start(paths(0.02, 0.02), cfg))

	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("animation did not finish")
	}
	events := rec.get()
	require.Len(t, events, 2)
	assert.Equal(t, 0, events[0].Index)
	assert.Equal(t, 1, events[1].Index)
	assert.False(t, s.Snapshot().IsAnimating)
}

func TestScheduler_Restart(t *testing.T) {
	s := New(WithFrameInterval(time.Millisecond))
	rec := &recorder{}
	s.Subscribe(rec.listen)

	cfg := Config{Mode: chart.ModeStaggered, Settle: time.Millisecond, MaxValueAxis: chart.AxisY}
	require.True(t, s.Start(paths(10), cfg))
	first := s.Snapshot().Generation

	require.True(t, s.Restart(context.Background()))
	st := s.Snapshot()
	assert.Greater(t, st.Generation, first)
	assert.Equal(t, PhaseRunning, st.Phase)
	assert.Empty(t, rec.get())

	s.Cancel()
	assert.Empty(t, rec.get())
}

func TestScheduler_RestartHonoursContext(t *testing.T) {
	s := New(WithClock(timeutil.NewFakeClock(t0)))
	require.True(t, s.Prepare(paths(1), staggered()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, s.Restart(ctx))
	assert.Equal(t, PhaseIdle, s.Snapshot().Phase)
}

func TestScheduler_CompletionValuesFollowAxis(t *testing.T) {
	a := chart.Series{ID: "a", Title: "A", Data: []chart.Point{{X: 0, Y: 1}, {X: 1, Y: 5}}, AnimationDurationSeconds: 1}
	b := chart.Series{ID: "b", Title: "B", Data: []chart.Point{{X: 0, Y: 2}, {X: 1, Y: 3}}, AnimationDurationSeconds: 1}
	p := []geometry.PathDatum{{Index: 0, Series: a}, {Index: 1, Series: b}}

	s := New()
	rec := &recorder{}
	s.Subscribe(rec.listen)
	require.True(t, s.Prepare(p, staggered()))
	s.Tick(t0)
	s.Tick(t0.Add(time.Minute))

	assert.Equal(t, []chart.CompletionEvent{
		{Index: 0, SeriesID: "a", SeriesTitle: "A", Value: 5},
		{Index: 1, SeriesID: "b", SeriesTitle: "B", Value: 3},
	}, rec.get())
}

func TestScheduler_Unsubscribe(t *testing.T) {
	s := New()
	rec := &recorder{}
	cancel := s.Subscribe(rec.listen)
	cancel()

	require.True(t, s.Prepare(paths(1), staggered()))
	s.Tick(t0)
	s.Tick(t0.Add(time.Minute))
	assert.Empty(t, rec.get())
}
