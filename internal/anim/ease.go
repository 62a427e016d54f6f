package anim

import "math"

// EaseFunc maps linear time in [0,1] to progress in [0,1].
type EaseFunc func(t float64) float64

// EaseInOutCubic accelerates through the first half and decelerates through
// the second. It maps 0 to 0 and 1 to exactly 1.
func EaseInOutCubic(t float64) float64 {
	t = clamp01(t)
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// Linear is the identity ramp.
func Linear(t float64) float64 { return clamp01(t) }

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
