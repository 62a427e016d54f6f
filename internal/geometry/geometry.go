// Package geometry turns series and configuration into scaled path strings,
// axis domains and tick lists. Everything here is a pure function of its
// inputs: identical inputs produce byte-identical paths.
package geometry

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"

	"github.com/buffos/go-linerace/internal/chart"
)

// TickCount is the number of ticks per axis, domain ends included.
const TickCount = 5

// curveSamples is how many chords approximate one cubic segment when
// measuring length or sampling a point along a curved path.
const curveSamples = 16

// Domain is a closed [Min, Max] value range.
type Domain struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Range returns Max - Min.
func (d Domain) Range() float64 { return d.Max - d.Min }

// Tick is one axis tick: its data value, pixel position and label text.
type Tick struct {
	Value float64 `json:"value"`
	Pos   float64 `json:"pos"`
	Label string  `json:"label"`
}

// PathDatum is the scaled geometry of one series. It is never mutated after
// Compute returns; a changed input produces a new value.
type PathDatum struct {
	Index  int           // Position of the series in the input slice
	Series chart.Series  // Source series (data space)
	Path   string        // SVG path data
	Points []chart.Point // Pixel-space points
	Start  chart.Point
	End    chart.Point
	Color  string
	Length float64 // Total drawn length in pixels

	trace []chart.Point // Flattened polyline of the drawn path
	cum   []float64     // Cumulative length at each trace vertex
}

// Result is the full output of Compute.
type Result struct {
	Paths   []PathDatum
	Plot    chart.PlotArea
	XDomain Domain
	YDomain Domain
	XTicks  []Tick
	YTicks  []Tick
}

// Compute derives path geometry, domains and ticks for the plot area.
func Compute(series []chart.Series, plot chart.PlotArea, cfg chart.Config) Result {
	plot = chart.PlotArea(chart.ClampViewport(plot.Width, plot.Height))

	// --- Phase 1: filter points and collect values ---
	filtered := make([][]chart.Point, len(series))
	var xs, ys []float64
	for i, s := range series {
		for _, p := range s.Data {
			if cfg.SkipZeroes && p.Y == 0 {
				continue
			}
			filtered[i] = append(filtered[i], p)
			xs = append(xs, p.X)
			ys = append(ys, p.Y)
		}
	}

	xDomain, yDomain := computeDomains(xs, ys, cfg)
	xScale := linearScale{domain: xDomain, size: plot.Width}
	yScale := linearScale{domain: yDomain, size: plot.Height, flip: true}

	// --- Phase 2: scale each series and build its path ---
	result := Result{Plot: plot, XDomain: xDomain, YDomain: yDomain}
	for i, s := range series {
		if len(filtered[i]) == 0 {
			continue
		}
		pixels := make([]chart.Point, len(filtered[i]))
		for j, p := range filtered[i] {
			pixels[j] = chart.Point{X: xScale.apply(p.X), Y: yScale.apply(p.Y)}
		}
		result.Paths = append(result.Paths, newPathDatum(i, s, pixels, cfg))
	}

	result.XTicks = buildTicks(xDomain, xScale, cfg.Decimals)
	result.YTicks = buildTicks(yDomain, yScale, cfg.Decimals)
	return result
}

// computeDomains applies the zero floors and padding rules to both axes.
func computeDomains(xs, ys []float64, cfg chart.Config) (Domain, Domain) {
	x := Domain{Min: 0, Max: 1}
	y := Domain{Min: 0, Max: 1}
	if len(xs) == 0 {
		return x, y
	}

	x = Domain{Min: math.Max(0, floats.Min(xs)), Max: floats.Max(xs)}
	xPad := cfg.XAxisPadding * x.Range()
	x.Min = math.Max(0, x.Min-xPad)
	x.Max += xPad

	y = Domain{Min: math.Max(0, floats.Min(ys)), Max: floats.Max(ys)}
	if cfg.IsZoomed {
		yPad := cfg.YAxisPadding * y.Range()
		y.Min = math.Max(0, y.Min-yPad)
		y.Max += yPad
	} else {
		y.Min = 0
		y.Max += cfg.YAxisPadding * y.Range()
	}
	return x, y
}

// linearScale maps a domain onto [0, size]. A zero-width domain uses an
// identity factor so every value lands on the same pixel row.
type linearScale struct {
	domain Domain
	size   float64
	flip   bool
}

func (s linearScale) factor() float64 {
	if r := s.domain.Range(); r > 0 {
		return s.size / r
	}
	return 1
}

func (s linearScale) apply(v float64) float64 {
	px := (v - s.domain.Min) * s.factor()
	if s.flip {
		return s.size - px
	}
	return px
}

func buildTicks(d Domain, scale linearScale, format chart.DecimalFormat) []Tick {
	ticks := make([]Tick, TickCount)
	step := d.Range() / float64(TickCount-1)
	for i := range ticks {
		v := d.Min + step*float64(i)
		if i == TickCount-1 {
			v = d.Max
		}
		ticks[i] = Tick{Value: v, Pos: scale.apply(v), Label: FormatValue(v, format)}
	}
	return ticks
}

// FormatValue renders a tick value: integers without decimals unless
// ShowDecimals is set, everything else with DecimalPlaces digits.
func FormatValue(v float64, format chart.DecimalFormat) string {
	if !format.ShowDecimals && v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', format.DecimalPlaces, 64)
}

// --- Path construction ---

func newPathDatum(index int, s chart.Series, pixels []chart.Point, cfg chart.Config) PathDatum {
	d := PathDatum{
		Index:  index,
		Series: s,
		Points: pixels,
		Start:  pixels[0],
		End:    pixels[len(pixels)-1],
		Color:  cfg.ColorFor(index, s),
	}

	var path bytes.Buffer
	fmt.Fprintf(&path, "M %s %s", coord(pixels[0].X), coord(pixels[0].Y))
	d.trace = []chart.Point{pixels[0]}
	for j := 1; j < len(pixels); j++ {
		prev, cur := pixels[j-1], pixels[j]
		if cfg.Curved {
			// Midpoint smoothing: both control points share the mid x.
			midX := (prev.X + cur.X) / 2
			fmt.Fprintf(&path, " C %s %s, %s %s, %s %s",
				coord(midX), coord(prev.Y), coord(midX), coord(cur.Y), coord(cur.X), coord(cur.Y))
			c1 := chart.Point{X: midX, Y: prev.Y}
			c2 := chart.Point{X: midX, Y: cur.Y}
			for k := 1; k <= curveSamples; k++ {
				d.trace = append(d.trace, cubicAt(prev, c1, c2, cur, float64(k)/curveSamples))
			}
		} else {
			fmt.Fprintf(&path, " L %s %s", coord(cur.X), coord(cur.Y))
			d.trace = append(d.trace, cur)
		}
	}
	d.Path = path.String()

	d.cum = make([]float64, len(d.trace))
	for k := 1; k < len(d.trace); k++ {
		d.cum[k] = d.cum[k-1] + distance(d.trace[k-1], d.trace[k])
	}
	d.Length = d.cum[len(d.cum)-1]
	return d
}

// PointAt returns the point reached after drawing fraction of the path,
// fraction clamped to [0,1].
func (d PathDatum) PointAt(fraction float64) chart.Point {
	if len(d.trace) == 0 {
		return d.Start
	}
	fraction = math.Max(0, math.Min(1, fraction))
	target := fraction * d.Length
	for k := 1; k < len(d.trace); k++ {
		if d.cum[k] < target {
			continue
		}
		seg := d.cum[k] - d.cum[k-1]
		if seg == 0 || d.cum[k] == target {
			return d.trace[k]
		}
		t := (target - d.cum[k-1]) / seg
		a, b := d.trace[k-1], d.trace[k]
		return chart.Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
	}
	return d.trace[len(d.trace)-1]
}

// DashOffset is the stroke-dashoffset that reveals progress of the path.
func (d PathDatum) DashOffset(progress float64) float64 {
	progress = math.Max(0, math.Min(1, progress))
	return (1 - progress) * d.Length
}

func cubicAt(p0, p1, p2, p3 chart.Point, t float64) chart.Point {
	u := 1 - t
	a, b, c, e := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return chart.Point{
		X: a*p0.X + b*p1.X + c*p2.X + e*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + e*p3.Y,
	}
}

func distance(a, b chart.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// coord formats a pixel coordinate with at most two decimals.
func coord(v float64) string {
	r := math.Round(v*100) / 100
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
