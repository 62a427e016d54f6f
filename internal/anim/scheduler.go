// Package anim sequences the per-series reveal animation.
//
// A Scheduler moves through Idle -> Running -> Draining -> Idle. Every
// Start and Cancel bumps a generation counter; each frame, wait and settle
// step re-checks that counter before touching state, so a continuation
// from a cancelled generation can never write into a newer one.
//
// The state machine advances only through Tick, which makes it fully
// deterministic under synthetic timestamps. Start additionally runs a frame
// loop that feeds Tick from the scheduler's clock.
package anim

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/buffos/go-linerace/internal/chart"
	"github.com/buffos/go-linerace/internal/focus"
	"github.com/buffos/go-linerace/internal/geometry"
	"github.com/buffos/go-linerace/internal/monitoring"
	"github.com/buffos/go-linerace/internal/timeutil"
)

// Phase is the scheduler lifecycle state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseDraining
)

func (p Phase) String() string {
	switch p {
	case PhaseRunning:
		return "running"
	case PhaseDraining:
		return "draining"
	default:
		return "idle"
	}
}

// State is a copy of the animation state. ActiveIndex is -1 when no series
// is being revealed. Indexes are positions in the path slice given to Start.
type State struct {
	Generation  uint64
	Phase       Phase
	Mode        chart.Mode
	ActiveIndex int
	Progress    []float64
	Completed   []bool
	IsAnimating bool
}

// CompletedCount returns how many series finished their reveal.
func (s State) CompletedCount() int {
	n := 0
	for _, c := range s.Completed {
		if c {
			n++
		}
	}
	return n
}

// Config is the sequencing part of chart.Config.
type Config struct {
	Mode         chart.Mode
	Delay        time.Duration // Pause between staggered reveals
	Settle       time.Duration // Pause after the last reveal before going idle
	MaxValueAxis chart.Axis
}

// ConfigFrom extracts the scheduler settings from a chart configuration.
func ConfigFrom(c chart.Config) Config {
	return Config{
		Mode:         c.Mode(),
		Delay:        c.Delay,
		Settle:       c.Settle,
		MaxValueAxis: c.MaxValueAxis,
	}
}

// Listener receives completion events on the goroutine that ticks the
// scheduler. Listeners must not call Cancel or Restart synchronously.
type Listener func(chart.CompletionEvent)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the clock driving the frame loop.
func WithClock(c timeutil.Clock) Option { return func(s *Scheduler) { s.clock = c } }

// WithFrameInterval sets the frame loop period.
func WithFrameInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.frame = d
		}
	}
}

// WithFocus connects a focus store that follows the active series.
func WithFocus(f *focus.Store) Option { return func(s *Scheduler) { s.focus = f } }

// WithEasing replaces the cubic ease-in-out ramp.
func WithEasing(e EaseFunc) Option {
	return func(s *Scheduler) {
		if e != nil {
			s.ease = e
		}
	}
}

type stageKind int

const (
	stageReveal stageKind = iota
	stageWait
	stageSettle
)

type stage struct {
	kind     stageKind
	index    int
	start    time.Time
	until    time.Time
	anchored bool
}

type track struct {
	series   chart.Series
	duration time.Duration
}

// run is the bookkeeping of one generation.
type run struct {
	gen       uint64
	id        uuid.UUID
	done      chan struct{}
	closeOnce sync.Once
	stop      context.CancelFunc
	loopDone  chan struct{}
}

func (r *run) finish() { r.closeOnce.Do(func() { close(r.done) }) }

// effect is work produced under the state lock and applied after it.
type effect struct {
	event   *chart.CompletionEvent
	follow  int
	release bool
	done    bool
}

// Scheduler is safe for concurrent use.
type Scheduler struct {
	clock timeutil.Clock
	frame time.Duration
	focus *focus.Store
	ease  EaseFunc

	// emitMu serializes effect dispatch; Cancel acquires it as a barrier.
	emitMu sync.Mutex

	mu        sync.Mutex
	gen       uint64
	state     State
	cfg       Config
	tracks    []track
	stage     stage
	run       *run
	lastPaths []geometry.PathDatum
	listeners map[int]Listener
	nextID    int
}

// New creates an idle scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:     timeutil.RealClock{},
		frame:     16 * time.Millisecond,
		ease:      EaseInOutCubic,
		listeners: make(map[int]Listener),
		state:     State{ActiveIndex: -1},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers l for completion events and returns its cancel func.
func (s *Scheduler) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Prepare arms a new generation without a frame loop; the caller drives it
// with Tick. It is a no-op returning false when a generation is already
// running or paths is empty.
func (s *Scheduler) Prepare(paths []geometry.PathDatum, cfg Config) bool {
	r := s.arm(paths, cfg, false)
	return r != nil
}

// Start arms a new generation and runs the frame loop until it finishes or
// is cancelled. Re-entrant calls while running are ignored, not queued.
func (s *Scheduler) Start(paths []geometry.PathDatum, cfg Config) bool {
	r := s.arm(paths, cfg, true)
	return r != nil
}

func (s *Scheduler) arm(paths []geometry.PathDatum, cfg Config, withLoop bool) *run {
	s.mu.Lock()
	if s.state.Phase != PhaseIdle {
		gen, phase := s.gen, s.state.Phase
		s.mu.Unlock()
		monitoring.Logf("anim: start ignored, generation %d is %s", gen, phase)
		return nil
	}
	if len(paths) == 0 {
		s.mu.Unlock()
		return nil
	}

	s.gen++
	r := &run{gen: s.gen, id: uuid.New(), done: make(chan struct{})}
	s.run = r
	s.cfg = cfg
	s.lastPaths = paths
	s.tracks = make([]track, len(paths))
	for i, p := range paths {
		s.tracks[i] = track{series: p.Series, duration: p.Series.AnimationDuration()}
	}
	s.state = State{
		Generation:  s.gen,
		Phase:       PhaseRunning,
		Mode:        cfg.Mode,
		ActiveIndex: -1,
		Progress:    make([]float64, len(paths)),
		Completed:   make([]bool, len(paths)),
		IsAnimating: true,
	}
	s.stage = stage{kind: stageReveal, index: 0}
	if cfg.Mode == chart.ModeStaggered {
		s.state.ActiveIndex = 0
	}
	follow := s.state.ActiveIndex

	var ticker timeutil.Ticker
	var ctx context.Context
	if withLoop {
		ctx, r.stop = context.WithCancel(context.Background())
		r.loopDone = make(chan struct{})
		ticker = s.clock.NewTicker(s.frame)
	}
	s.mu.Unlock()

	monitoring.Logf("anim: generation %d (%s) started: %d series, %s", r.gen, r.id, len(paths), cfg.Mode)
	s.apply(r.gen, []effect{{follow: follow}})
	if withLoop {
		go s.loop(ctx, r, ticker)
	}
	return r
}

func (s *Scheduler) loop(ctx context.Context, r *run, ticker timeutil.Ticker) {
	defer close(r.loopDone)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C():
			if !s.tick(r.gen, now) {
				return
			}
		}
	}
}

// Tick advances the current generation to now and reports whether it is
// still running. The first tick of a generation anchors its timeline.
func (s *Scheduler) Tick(now time.Time) bool {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()
	return s.tick(gen, now)
}

func (s *Scheduler) tick(gen uint64, now time.Time) bool {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.gen != gen || s.state.Phase == PhaseIdle {
		s.mu.Unlock()
		return false
	}
	effects := s.advance(now)
	running := s.state.Phase != PhaseIdle
	s.mu.Unlock()

	s.dispatch(gen, effects)
	return running
}

// advance runs the state machine up to now. Stage boundaries use exact
// times, so the outcome does not depend on the frame rate. Caller holds mu.
func (s *Scheduler) advance(now time.Time) []effect {
	var out []effect
	if !s.stage.anchored {
		s.stage.start = now
		s.stage.anchored = true
	}
	last := len(s.tracks) - 1

	for {
		switch s.stage.kind {
		case stageReveal:
			if s.cfg.Mode == chart.ModeSimultaneous {
				window := s.window()
				t := fraction(now.Sub(s.stage.start), window)
				for i := range s.state.Progress {
					s.state.Progress[i] = s.ease(t)
				}
				if t < 1 {
					return out
				}
				for i := range s.tracks {
					out = append(out, s.complete(i))
				}
				s.settleFrom(s.stage.start.Add(window))
				continue
			}

			i := s.stage.index
			dur := s.tracks[i].duration
			t := fraction(now.Sub(s.stage.start), dur)
			s.state.Progress[i] = s.ease(t)
			if t < 1 {
				return out
			}
			out = append(out, s.complete(i))
			end := s.stage.start.Add(dur)
			if i < last {
				s.stage = stage{kind: stageWait, index: i, until: end.Add(s.cfg.Delay), anchored: true}
			} else {
				s.settleFrom(end)
			}

		case stageWait:
			if now.Before(s.stage.until) {
				return out
			}
			next := s.stage.index + 1
			s.stage = stage{kind: stageReveal, index: next, start: s.stage.until, anchored: true}
			s.state.ActiveIndex = next
			out = append(out, effect{follow: next})

		case stageSettle:
			if now.Before(s.stage.until) {
				return out
			}
			s.state.Phase = PhaseIdle
			s.state.ActiveIndex = -1
			s.state.IsAnimating = false
			out = append(out, effect{follow: -1, release: true, done: true})
			return out
		}
	}
}

func (s *Scheduler) complete(i int) effect {
	s.state.Progress[i] = 1
	s.state.Completed[i] = true
	ev := chart.NewCompletionEvent(i, s.tracks[i].series, s.cfg.MaxValueAxis)
	return effect{event: &ev, follow: s.state.ActiveIndex}
}

func (s *Scheduler) settleFrom(end time.Time) {
	s.stage = stage{kind: stageSettle, until: end.Add(s.cfg.Settle), anchored: true}
	s.state.Phase = PhaseDraining
}

// window is the shared duration of a simultaneous reveal: the longest track.
func (s *Scheduler) window() time.Duration {
	var w time.Duration
	for _, t := range s.tracks {
		if t.duration > w {
			w = t.duration
		}
	}
	return w
}

func fraction(elapsed, total time.Duration) float64 {
	if total <= 0 {
		return 1
	}
	return clamp01(float64(elapsed) / float64(total))
}

// dispatch applies effects in order, stopping as soon as the generation is
// no longer current. Caller holds emitMu.
func (s *Scheduler) dispatch(gen uint64, effects []effect) {
	for _, e := range effects {
		s.mu.Lock()
		current := s.gen == gen
		listeners := make([]Listener, 0, len(s.listeners))
		for id := 0; id < s.nextID; id++ {
			if l, ok := s.listeners[id]; ok {
				listeners = append(listeners, l)
			}
		}
		r := s.run
		s.mu.Unlock()
		if !current {
			return
		}

		if s.focus != nil {
			if e.release {
				s.focus.Release()
			} else if e.event == nil {
				s.focus.Follow(e.follow)
			}
		}
		if e.event != nil {
			for _, l := range listeners {
				l(*e.event)
			}
		}
		if e.done && r != nil && r.gen == gen {
			monitoring.Logf("anim: generation %d (%s) finished", gen, r.id)
			if r.stop != nil {
				r.stop()
			}
			r.finish()
		}
	}
}

func (s *Scheduler) apply(gen uint64, effects []effect) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.dispatch(gen, effects)
}

// Cancel stops the current generation. After it returns no further events
// or state changes from that generation are observable and its frame loop
// has exited with its ticker stopped. Cancel is idempotent.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	r := s.run
	wasActive := s.state.Phase != PhaseIdle
	s.gen++
	s.state.Generation = s.gen
	s.state.Phase = PhaseIdle
	s.state.ActiveIndex = -1
	s.state.IsAnimating = false
	s.run = nil
	s.mu.Unlock()

	if r == nil {
		return
	}
	if r.stop != nil {
		r.stop()
	}
	// Wait for any in-flight dispatch of the old generation.
	s.emitMu.Lock()
	s.emitMu.Unlock()
	if r.loopDone != nil {
		<-r.loopDone
	}
	r.finish()
	if wasActive {
		monitoring.Logf("anim: generation %d (%s) cancelled", r.gen, r.id)
		if s.focus != nil {
			s.focus.Release()
		}
	}
}

// Restart cancels the current generation, yields one frame so the old loop
// is fully torn down, then starts again on the same paths.
func (s *Scheduler) Restart(ctx context.Context) bool {
	s.mu.Lock()
	paths, cfg := s.lastPaths, s.cfg
	s.mu.Unlock()

	s.Cancel()
	select {
	case <-ctx.Done():
		return false
	case <-s.clock.After(s.frame):
	}
	return s.Start(paths, cfg)
}

// Snapshot returns a copy of the current state.
func (s *Scheduler) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Progress = append([]float64(nil), s.state.Progress...)
	st.Completed = append([]bool(nil), s.state.Completed...)
	return st
}

// Done returns a channel closed when the current generation finishes or is
// cancelled. With no generation armed the channel is already closed.
func (s *Scheduler) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return s.run.done
}
