// Package chart defines the data model shared by the line-race engine:
// series, the configuration bag, viewport sizes and completion events.
package chart

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
)

// --- Series ---

// Point is one data point in data space, or in pixel space once scaled.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LabelPosition selects where the end-of-line label sits relative to the
// drawing tip.
type LabelPosition string

const (
	LabelTop         LabelPosition = "top"
	LabelBottom      LabelPosition = "bottom"
	LabelLeft        LabelPosition = "left"
	LabelRight       LabelPosition = "right"
	LabelTopLeft     LabelPosition = "topLeft"
	LabelTopRight    LabelPosition = "topRight"
	LabelBottomLeft  LabelPosition = "bottomLeft"
	LabelBottomRight LabelPosition = "bottomRight"
)

// DefaultAnimationDuration is used when a series does not set its own.
const DefaultAnimationDuration = 4 * time.Second

// Series is one named, colored line. Data is ordered by X and holds only
// finite values; empty series are dropped before they reach the engine.
type Series struct {
	ID                       string        `json:"id"`
	Title                    string        `json:"title"`
	Data                     []Point       `json:"data"`
	Color                    string        `json:"color,omitempty"`
	Label                    string        `json:"label,omitempty"`      // Plain label text
	LabelHTML                string        `json:"label_html,omitempty"` // Rich label content, wins over Label
	LabelPosition            LabelPosition `json:"label_position,omitempty"`
	LabelBackgroundColor     string        `json:"label_background_color,omitempty"` // Overrides Config.LabelBackgroundColor
	AnimationDurationSeconds float64       `json:"animation_duration_seconds,omitempty"`
}

// AnimationDuration returns the reveal duration, defaulting to 4s.
func (s Series) AnimationDuration() time.Duration {
	if s.AnimationDurationSeconds <= 0 {
		return DefaultAnimationDuration
	}
	return time.Duration(s.AnimationDurationSeconds * float64(time.Second))
}

// EffectiveLabelPosition defaults an unset position to top.
func (s Series) EffectiveLabelPosition() LabelPosition {
	if s.LabelPosition == "" {
		return LabelTop
	}
	return s.LabelPosition
}

// LabelText returns the label, falling back to the title.
func (s Series) LabelText() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Title
}

// MaxValue is the largest coordinate on the selected axis, 0 for an empty series.
func (s Series) MaxValue(axis Axis) float64 {
	if len(s.Data) == 0 {
		return 0
	}
	vals := make([]float64, len(s.Data))
	for i, p := range s.Data {
		if axis == AxisY {
			vals[i] = p.Y
		} else {
			vals[i] = p.X
		}
	}
	return floats.Max(vals)
}

// Axis names a chart axis.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
)

// CompletionEvent is emitted exactly once per series when its reveal ends.
type CompletionEvent struct {
	Index       int     `json:"index"`
	SeriesID    string  `json:"series_id"`
	SeriesTitle string  `json:"series_title"`
	Value       float64 `json:"value"`
}

// NewCompletionEvent builds the event for series s at position index.
func NewCompletionEvent(index int, s Series, axis Axis) CompletionEvent {
	return CompletionEvent{
		Index:       index,
		SeriesID:    s.ID,
		SeriesTitle: s.Title,
		Value:       s.MaxValue(axis),
	}
}

// --- Sizes ---

// Size is a width/height pair in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Viewport is the measured chart box. Both dimensions are at least 1.
type Viewport Size

// PlotArea is the drawable region inside the margins.
type PlotArea Size

// ClampViewport floors both dimensions at 1 so scale divisions stay finite.
func ClampViewport(width, height float64) Viewport {
	return Viewport{Width: atLeastOne(width), Height: atLeastOne(height)}
}

// Margin is the space reserved around the plot area for axes and titles.
type Margin struct {
	Top, Right, Bottom, Left float64
}

// DefaultMargin matches the axis gutter of the rendered chart.
var DefaultMargin = Margin{Top: 20, Right: 20, Bottom: 30, Left: 40}

// PlotArea subtracts the margins from the viewport, keeping at least 1px.
func (v Viewport) PlotArea(m Margin) PlotArea {
	return PlotArea{
		Width:  atLeastOne(v.Width - m.Left - m.Right),
		Height: atLeastOne(v.Height - m.Top - m.Bottom),
	}
}

func atLeastOne(v float64) float64 {
	if v < 1 || math.IsNaN(v) {
		return 1
	}
	return v
}
