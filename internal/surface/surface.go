// Package surface owns the chart box: it measures the container, keeps the
// geometry current across resizes and composes animation progress with that
// geometry into drawable scenes.
//
// Geometry and animation are independent: a resize recomputes paths but
// never interrupts or restarts the running animation. Loading new data or
// configuration starts a new generation.
package surface

import (
	"context"
	"sync"
	"time"

	"github.com/buffos/go-linerace/internal/anim"
	"github.com/buffos/go-linerace/internal/chart"
	"github.com/buffos/go-linerace/internal/focus"
	"github.com/buffos/go-linerace/internal/geometry"
	"github.com/buffos/go-linerace/internal/label"
	"github.com/buffos/go-linerace/internal/monitoring"
	"github.com/buffos/go-linerace/internal/timeutil"
)

// Option configures a Surface.
type Option func(*Surface)

// WithClock sets the clock used for resize debouncing and the frame loop.
func WithClock(c timeutil.Clock) Option { return func(s *Surface) { s.clock = c } }

// WithMeasurer sets the text measurement capability for label boxes.
func WithMeasurer(m label.Measurer) Option { return func(s *Surface) { s.measurer = m } }

// WithConfig sets the initial configuration. Its FrameInterval drives the
// frame loop for the lifetime of the surface.
func WithConfig(cfg chart.Config) Option { return func(s *Surface) { s.cfg = cfg } }

// WithManualTicks arms generations without a frame loop; the caller
// advances them with Tick.
func WithManualTicks() Option { return func(s *Surface) { s.manual = true } }

// Surface is safe for concurrent use.
type Surface struct {
	clock    timeutil.Clock
	measurer label.Measurer
	manual   bool
	focus    *focus.Store
	sched    *anim.Scheduler

	mu           sync.Mutex
	cfg          chart.Config
	series       []chart.Series
	width        float64
	windowHeight float64
	viewport     chart.Viewport
	geo          geometry.Result
	resizeSeq    uint64
	resizeTimer  timeutil.Timer
	resizeStop   chan struct{}
}

// New creates a surface with the default configuration and a 1x1 box.
func New(opts ...Option) *Surface {
	s := &Surface{
		clock:    timeutil.RealClock{},
		measurer: label.Heuristic{},
		focus:    focus.NewStore(),
		cfg:      chart.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sched = anim.New(
		anim.WithClock(s.clock),
		anim.WithFrameInterval(s.cfg.FrameInterval),
		anim.WithFocus(s.focus),
	)
	s.viewport = ComputeViewport(0, 0, s.cfg)
	s.geo = geometry.Compute(nil, s.viewport.PlotArea(s.cfg.Margin()), s.cfg)
	return s
}

// Scheduler exposes the animation scheduler, e.g. to subscribe to
// completion events.
func (s *Surface) Scheduler() *anim.Scheduler { return s.sched }

// Focus exposes the chart's focus state.
func (s *Surface) Focus() *focus.Store { return s.focus }

// ComputeViewport derives the chart box from the container width: height is
// width*AspectRatio, floored at MinHeight, and both sides are at least 1.
func ComputeViewport(width, windowHeight float64, cfg chart.Config) chart.Viewport {
	height := width * cfg.AspectRatio
	minHeight, err := cfg.MinHeightPixels(windowHeight)
	if err != nil {
		monitoring.Logf("surface: ignoring min height: %v", err)
	} else if height < minHeight {
		height = minHeight
	}
	return chart.ClampViewport(width, height)
}

// Load starts a new generation with series and cfg. Any running animation
// is cancelled first. It reports whether an animation was started; empty
// input renders axes only.
func (s *Surface) Load(series []chart.Series, cfg chart.Config) bool {
	s.sched.Cancel()

	s.mu.Lock()
	s.series = append([]chart.Series(nil), series...)
	s.cfg = cfg
	s.recomputeLocked()
	paths := s.geo.Paths
	s.mu.Unlock()

	if len(paths) == 0 {
		monitoring.Logf("surface: nothing to animate")
		return false
	}
	if s.manual {
		return s.sched.Prepare(paths, anim.ConfigFrom(cfg))
	}
	return s.sched.Start(paths, anim.ConfigFrom(cfg))
}

// Measure applies a container size immediately. windowHeight resolves
// viewport-relative minimum heights.
func (s *Surface) Measure(width, windowHeight float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.windowHeight = width, windowHeight
	s.recomputeLocked()
}

// Resize records a container size change and applies it after the debounce
// interval; a newer call supersedes a pending one.
func (s *Surface) Resize(width, windowHeight float64) {
	s.mu.Lock()
	s.stopResizeLocked()
	s.resizeSeq++
	seq := s.resizeSeq
	timer := s.clock.NewTimer(s.cfg.ResizeDebounce)
	stop := make(chan struct{})
	s.resizeTimer, s.resizeStop = timer, stop
	s.mu.Unlock()

	go func() {
		select {
		case <-timer.C():
		case <-stop:
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if seq != s.resizeSeq {
			return
		}
		s.resizeTimer, s.resizeStop = nil, nil
		s.width, s.windowHeight = width, windowHeight
		s.recomputeLocked()
	}()
}

func (s *Surface) stopResizeLocked() {
	if s.resizeTimer != nil {
		s.resizeTimer.Stop()
		close(s.resizeStop)
		s.resizeTimer, s.resizeStop = nil, nil
	}
}

// recomputeLocked rebuilds the viewport and geometry. Caller holds mu.
func (s *Surface) recomputeLocked() {
	vp := ComputeViewport(s.width, s.windowHeight, s.cfg)
	if vp != s.viewport {
		monitoring.Logf("surface: viewport %.0fx%.0f", vp.Width, vp.Height)
	}
	s.viewport = vp
	s.geo = geometry.Compute(s.series, vp.PlotArea(s.cfg.Margin()), s.cfg)
}

// Viewport returns the current chart box.
func (s *Surface) Viewport() chart.Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport
}

// Geometry returns the current geometry.
func (s *Surface) Geometry() geometry.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.geo
}

// Config returns the configuration of the current generation.
func (s *Surface) Config() chart.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Tick advances a manually ticked generation; see WithManualTicks.
func (s *Surface) Tick(now time.Time) bool { return s.sched.Tick(now) }

// Restart replays the current generation from the start.
func (s *Surface) Restart(ctx context.Context) bool {
	if s.manual {
		s.mu.Lock()
		paths, cfg := s.geo.Paths, s.cfg
		s.mu.Unlock()
		s.sched.Cancel()
		return s.sched.Prepare(paths, anim.ConfigFrom(cfg))
	}
	return s.sched.Restart(ctx)
}

// ClickLegend toggles focus on the series at index. Ignored while animating.
func (s *Surface) ClickLegend(index int) bool {
	return s.focus.Toggle(index)
}

// ClickAt handles a click at viewport point p, toggling focus when it lands
// on a legend entry.
func (s *Surface) ClickAt(p chart.Point) bool {
	sc := s.Frame()
	i := sc.LegendHit(plotPoint(sc, p))
	if i < 0 {
		return false
	}
	return s.ClickLegend(i)
}

// Frame composes the scene for the current animation state.
func (s *Surface) Frame() Scene {
	st := s.sched.Snapshot()
	fs := s.focus.State()
	s.mu.Lock()
	in := Input{
		Geometry: s.geo,
		Viewport: s.viewport,
		Config:   s.cfg,
		Anim:     st,
		Focus:    fs,
		Measurer: s.measurer,
	}
	s.mu.Unlock()
	return Compose(in)
}

// Close cancels the animation and any pending resize.
func (s *Surface) Close() {
	s.sched.Cancel()
	s.mu.Lock()
	s.stopResizeLocked()
	s.resizeSeq++
	s.mu.Unlock()
}
