// Package label positions end-of-line labels next to the drawing tip.
//
// Placement is a local clamp, not a global non-overlap solver: a label is
// kept inside the chart bounds, but two labels may still overlap each other.
package label

import (
	"math"

	"github.com/buffos/go-linerace/internal/chart"
)

const (
	EdgeGap    = 10.0 // Gap between anchor and box for top/bottom/left/right
	CornerGap  = 5.0  // Gap on both axes for the corner positions
	EdgeMargin = 5.0  // Minimum distance between box and chart edge
	BoxPadding = 6.0  // Padding between label text and box border
)

// FallbackTextSize is used when a measurer reports an empty size.
var FallbackTextSize = chart.Size{Width: 60, Height: 20}

// BoxSize measures text and adds the box padding on every side.
func BoxSize(m Measurer, text string, fontSize float64) chart.Size {
	size := chart.Size{}
	if m != nil && text != "" {
		size = m.Measure(text, fontSize)
	}
	if size.Width <= 0 || size.Height <= 0 {
		size = FallbackTextSize
	}
	return chart.Size{Width: size.Width + BoxPadding*2, Height: size.Height + BoxPadding*2}
}

// Place returns the center of a box of the given size anchored at anchor in
// the direction pos, clamped inside bounds.
func Place(anchor chart.Point, box chart.Size, pos chart.LabelPosition, bounds chart.Size) chart.Point {
	return Clamp(Offset(anchor, box, pos), box, bounds)
}

// Offset moves the box center away from the anchor by half the box plus a gap.
// Unknown positions leave the center on the anchor.
func Offset(anchor chart.Point, box chart.Size, pos chart.LabelPosition) chart.Point {
	halfW, halfH := box.Width/2, box.Height/2
	c := anchor
	switch pos {
	case chart.LabelTop:
		c.Y -= halfH + EdgeGap
	case chart.LabelBottom:
		c.Y += halfH + EdgeGap
	case chart.LabelLeft:
		c.X -= halfW + EdgeGap
	case chart.LabelRight:
		c.X += halfW + EdgeGap
	case chart.LabelTopLeft:
		c.X -= halfW + CornerGap
		c.Y -= halfH + CornerGap
	case chart.LabelTopRight:
		c.X += halfW + CornerGap
		c.Y -= halfH + CornerGap
	case chart.LabelBottomLeft:
		c.X -= halfW + CornerGap
		c.Y += halfH + CornerGap
	case chart.LabelBottomRight:
		c.X += halfW + CornerGap
		c.Y += halfH + CornerGap
	}
	return c
}

// Clamp translates the box back inside bounds, keeping EdgeMargin from each
// edge. A box too large for an axis is centered on that axis.
func Clamp(center chart.Point, box chart.Size, bounds chart.Size) chart.Point {
	return chart.Point{
		X: clampAxis(center.X, box.Width, bounds.Width),
		Y: clampAxis(center.Y, box.Height, bounds.Height),
	}
}

func clampAxis(c, size, limit float64) float64 {
	half := size / 2
	if size+EdgeMargin*2 > limit {
		return limit / 2
	}
	if c-half < EdgeMargin {
		return half + EdgeMargin
	}
	if c+half > limit-EdgeMargin {
		return limit - half - EdgeMargin
	}
	if math.IsNaN(c) {
		return limit / 2
	}
	return c
}
