package label

import (
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/buffos/go-linerace/internal/chart"
)

// Measurer reports the rendered size of text at a font size in pixels.
type Measurer interface {
	Measure(text string, fontSize float64) chart.Size
}

// MeasureFunc adapts a plain function to Measurer.
type MeasureFunc func(text string, fontSize float64) chart.Size

func (f MeasureFunc) Measure(text string, fontSize float64) chart.Size { return f(text, fontSize) }

// Heuristic estimates text size from the rune count: an average glyph is
// 0.6em wide and a line is 1.2em tall.
type Heuristic struct{}

func (Heuristic) Measure(text string, fontSize float64) chart.Size {
	if fontSize <= 0 || text == "" {
		return chart.Size{}
	}
	return chart.Size{
		Width:  float64(len([]rune(text))) * fontSize * 0.6,
		Height: fontSize * 1.2,
	}
}

// FontMeasurer measures with a real font face, scaling the face's advances
// to the requested font size.
type FontMeasurer struct {
	Face font.Face
}

// NewFontMeasurer returns a measurer backed by the built-in 7x13 face.
func NewFontMeasurer() FontMeasurer {
	return FontMeasurer{Face: basicfont.Face7x13}
}

func (m FontMeasurer) Measure(text string, fontSize float64) chart.Size {
	if m.Face == nil || fontSize <= 0 || text == "" {
		return chart.Size{}
	}
	metrics := m.Face.Metrics()
	faceHeight := toFloat(metrics.Height)
	if faceHeight <= 0 {
		faceHeight = toFloat(metrics.Ascent + metrics.Descent)
	}
	if faceHeight <= 0 {
		return chart.Size{}
	}
	scale := fontSize / faceHeight
	return chart.Size{
		Width:  toFloat(font.MeasureString(m.Face, text)) * scale,
		Height: faceHeight * scale,
	}
}

func toFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
