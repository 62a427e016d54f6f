// Package focus holds the per-chart focus and animating flags. One Store
// belongs to one chart instance; the scheduler writes the animating side,
// legend clicks write the user side, and renderers subscribe to changes.
package focus

import "sync"

// State is a snapshot of the store. Focused is -1 when nothing is focused.
type State struct {
	Animating bool
	Focused   int
}

// HasFocus reports whether a series is focused.
func (s State) HasFocus() bool { return s.Focused >= 0 }

// Dimmed reports whether series index should render in the unfocused style.
func (s State) Dimmed(index int) bool {
	return s.HasFocus() && s.Focused != index
}

// Store is safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	state  State
	nextID int
	subs   map[int]func(State)
}

// NewStore returns a store with no focus and no animation running.
func NewStore() *Store {
	return &Store{state: State{Focused: -1}, subs: make(map[int]func(State))}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn for every change and returns its cancel func.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Follow marks an animation in progress and focuses index, or clears focus
// when index is negative (simultaneous reveals follow nothing).
func (s *Store) Follow(index int) {
	if index < 0 {
		index = -1
	}
	s.update(func(st *State) {
		st.Animating = true
		st.Focused = index
	})
}

// Release ends the animation and clears the focus it imposed.
func (s *Store) Release() {
	s.update(func(st *State) {
		st.Animating = false
		st.Focused = -1
	})
}

// Toggle flips user focus on index. It is a no-op while animating and
// reports whether the state changed.
func (s *Store) Toggle(index int) bool {
	changed := false
	s.update(func(st *State) {
		if st.Animating || index < 0 {
			return
		}
		if st.Focused == index {
			st.Focused = -1
		} else {
			st.Focused = index
		}
		changed = true
	})
	return changed
}

func (s *Store) update(mutate func(*State)) {
	s.mu.Lock()
	before := s.state
	mutate(&s.state)
	after := s.state
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	if before == after {
		return
	}
	for _, fn := range subs {
		fn(after)
	}
}
