package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealClock_NewTimer(t *testing.T) {
	clock := RealClock{}
	timer := clock.NewTimer(10 * time.Millisecond)
	defer timer.Stop()

	select {
	case <-timer.C():
	case <-time.After(time.Second):
		t.Error("timer did not fire")
	}
}

func TestRealClock_NewTicker(t *testing.T) {
	clock := RealClock{}
	ticker := clock.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	select {
	case <-ticker.C():
	case <-time.After(time.Second):
		t.Error("ticker did not fire")
	}
}

func TestFakeClock_TimerFiresOnlyWhenDue(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)
	timer := clock.NewTimer(time.Second)

	clock.Advance(500 * time.Millisecond)
	select {
	case <-timer.C():
		t.Fatal("timer fired early")
	default:
	}
	assert.Equal(t, 1, clock.Pending())

	clock.Advance(500 * time.Millisecond)
	select {
	case got := <-timer.C():
		assert.Equal(t, start.Add(time.Second), got)
	default:
		t.Fatal("timer did not fire")
	}
	assert.Equal(t, 0, clock.Pending())
}

func TestFakeClock_StoppedTimerIsPruned(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	timer := clock.NewTimer(time.Second)
	require.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	assert.Equal(t, 0, clock.Pending())

	clock.Advance(2 * time.Second)
	select {
	case <-timer.C():
		t.Fatal("stopped timer fired")
	default:
	}
}

func TestFakeClock_Ticker(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	ticker := clock.NewTicker(10 * time.Millisecond)

	clock.Advance(10 * time.Millisecond)
	<-ticker.C()
	clock.Advance(5 * time.Millisecond)
	select {
	case <-ticker.C():
		t.Fatal("ticker fired before its period")
	default:
	}
	clock.Advance(5 * time.Millisecond)
	<-ticker.C()

	ticker.Stop()
	assert.Equal(t, 0, clock.Pending())
}
