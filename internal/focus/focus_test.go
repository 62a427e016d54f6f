package focus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_ToggleWhenIdle(t *testing.T) {
	s := NewStore()
	assert.False(t, s.State().HasFocus())

	assert.True(t, s.Toggle(2))
	assert.Equal(t, State{Focused: 2}, s.State())
	assert.True(t, s.State().Dimmed(0))
	assert.False(t, s.State().Dimmed(2))

	assert.True(t, s.Toggle(1))
	assert.Equal(t, 1, s.State().Focused)

	assert.True(t, s.Toggle(1))
	assert.False(t, s.State().HasFocus())
	assert.False(t, s.State().Dimmed(0))
}

func TestStore_ToggleIgnoredWhileAnimating(t *testing.T) {
	s := NewStore()
	s.Follow(0)
	assert.False(t, s.Toggle(3))
	assert.Equal(t, State{Animating: true, Focused: 0}, s.State())

	s.Follow(1)
	assert.Equal(t, 1, s.State().Focused)

	s.Release()
	assert.Equal(t, State{Focused: -1}, s.State())
	assert.True(t, s.Toggle(3))
}

func TestStore_FollowNegativeClearsFocus(t *testing.T) {
	s := NewStore()
	s.Follow(-7)
	assert.Equal(t, State{Animating: true, Focused: -1}, s.State())
	assert.False(t, s.State().Dimmed(0))
}

func TestStore_Subscribe(t *testing.T) {
	s := NewStore()
	var seen []State
	cancel := s.Subscribe(func(st State) { seen = append(seen, st) })

	s.Follow(0)
	s.Follow(0) // unchanged, no notification
	s.Release()
	cancel()
	s.Toggle(1)

	assert.Equal(t, []State{{Animating: true, Focused: 0}, {Focused: -1}}, seen)
}
