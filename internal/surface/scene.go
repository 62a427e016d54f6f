package surface

import (
	"sort"

	"github.com/buffos/go-linerace/internal/anim"
	"github.com/buffos/go-linerace/internal/chart"
	"github.com/buffos/go-linerace/internal/focus"
	"github.com/buffos/go-linerace/internal/geometry"
	"github.com/buffos/go-linerace/internal/label"
)

const (
	legendWidth  = 100.0
	legendRow    = 20.0
	legendSwatch = 10.0
	tipRadius    = 4.0
	untitled     = "Untitled"
)

// Scene is one drawable frame. Coordinates of everything but the outer
// box are relative to the plot area origin (inside the margins).
type Scene struct {
	Width      float64
	Height     float64
	Background string
	Margin     chart.Margin
	Plot       chart.PlotArea
	FontSize   float64

	AxisColor      string
	AxisTitleColor string
	XTicks         []geometry.Tick
	YTicks         []geometry.Tick
	XTitle         string
	YTitle         string
	GridLines      []GridLine

	Lines     []Line // Paint order: the focused line comes last
	Labels    []Label
	Legend    *Legend
	Watermark string
}

// GridLine is one horizontal dashed guide at a y tick.
type GridLine struct {
	Y     float64
	Color string
}

// Line is one partially revealed series stroke.
type Line struct {
	Index      int
	Path       string
	Color      string
	Width      float64
	Length     float64
	DashOffset float64
	Progress   float64
	Dimmed     bool
	Tip        chart.Point
	ShowTip    bool
}

// Label is the box following the tip of a line.
type Label struct {
	Index      int
	Text       string
	HTML       string
	Center     chart.Point
	Box        chart.Size
	Color      string
	Background string
	FontSize   float64
	Dimmed     bool
}

// TopLeft returns the box origin.
func (l Label) TopLeft() chart.Point {
	return chart.Point{X: l.Center.X - l.Box.Width/2, Y: l.Center.Y - l.Box.Height/2}
}

// Legend lists every drawn series; entries double as focus toggles.
type Legend struct {
	X, Y       float64
	Background string
	TextColor  string
	Entries    []LegendEntry
}

// LegendEntry is one legend row.
type LegendEntry struct {
	Index   int
	Title   string
	Color   string
	Focused bool
	Dimmed  bool
}

// Input is everything Compose needs for one frame.
type Input struct {
	Geometry geometry.Result
	Viewport chart.Viewport
	Config   chart.Config
	Anim     anim.State
	Focus    focus.State
	Measurer label.Measurer
}

// Compose merges static geometry with the animation progress of one frame.
func Compose(in Input) Scene {
	cfg := in.Config
	g := in.Geometry
	sc := Scene{
		Width:          in.Viewport.Width,
		Height:         in.Viewport.Height,
		Background:     cfg.ChartBackgroundColor,
		Margin:         cfg.Margin(),
		Plot:           g.Plot,
		FontSize:       cfg.FontSize,
		AxisColor:      cfg.AxisColor,
		AxisTitleColor: cfg.AxisTitleColor,
		XTicks:         g.XTicks,
		YTicks:         g.YTicks,
		XTitle:         cfg.XAxisTitle,
		YTitle:         cfg.YAxisTitle,
		Watermark:      cfg.Watermark,
	}

	if cfg.ShowHorizontalGridLines {
		for _, t := range g.YTicks {
			sc.GridLines = append(sc.GridLines, GridLine{Y: t.Pos, Color: cfg.HorizontalGridLineColor})
		}
	}

	bounds := chart.Size(g.Plot)
	for i, d := range g.Paths {
		p := progressAt(in.Anim, i)
		line := Line{
			Index:      i,
			Path:       d.Path,
			Color:      d.Color,
			Width:      cfg.StrokeWidth,
			Length:     d.Length,
			DashOffset: d.DashOffset(p),
			Progress:   p,
			Dimmed:     in.Focus.Dimmed(i),
		}
		if p > 0 {
			line.Tip = d.PointAt(p)
			line.ShowTip = true
			sc.Labels = append(sc.Labels, composeLabel(i, d, line, cfg, in.Measurer, bounds))
		}
		sc.Lines = append(sc.Lines, line)
	}

	// Focused series is painted on top.
	if in.Focus.HasFocus() {
		sort.SliceStable(sc.Lines, func(a, b int) bool {
			return sc.Lines[a].Index != in.Focus.Focused && sc.Lines[b].Index == in.Focus.Focused
		})
		sort.SliceStable(sc.Labels, func(a, b int) bool {
			return sc.Labels[a].Index != in.Focus.Focused && sc.Labels[b].Index == in.Focus.Focused
		})
	}

	if cfg.ShowLegend && len(g.Paths) > 0 {
		sc.Legend = composeLegend(g.Paths, in.Focus, cfg, g.Plot.Width)
	}
	return sc
}

func progressAt(st anim.State, i int) float64 {
	if i < 0 || i >= len(st.Progress) {
		return 0
	}
	return st.Progress[i]
}

func composeLabel(i int, d geometry.PathDatum, line Line, cfg chart.Config, m label.Measurer, bounds chart.Size) Label {
	s := d.Series
	content := s.LabelText()
	if s.LabelHTML != "" {
		content = richLabelText(s.LabelHTML)
	}
	box := label.BoxSize(m, content, cfg.FontSize)
	bg := cfg.LabelBackgroundColor
	if s.LabelBackgroundColor != "" {
		bg = s.LabelBackgroundColor
	}
	return Label{
		Index:      i,
		Text:       s.LabelText(),
		HTML:       s.LabelHTML,
		Center:     label.Place(line.Tip, box, s.EffectiveLabelPosition(), bounds),
		Box:        box,
		Color:      cfg.LabelColor,
		Background: bg,
		FontSize:   cfg.FontSize,
		Dimmed:     line.Dimmed,
	}
}

func composeLegend(paths []geometry.PathDatum, st focus.State, cfg chart.Config, plotWidth float64) *Legend {
	lg := &Legend{
		X:          plotWidth - legendWidth,
		Background: cfg.LegendBackgroundColor,
		TextColor:  cfg.LegendTextColor,
	}
	for i, d := range paths {
		title := d.Series.Title
		if title == "" {
			title = untitled
		}
		lg.Entries = append(lg.Entries, LegendEntry{
			Index:   i,
			Title:   title,
			Color:   d.Color,
			Focused: st.Focused == i,
			Dimmed:  st.Dimmed(i),
		})
	}
	return lg
}

// LegendHit returns the legend entry at plot-relative point p, or -1.
func (sc Scene) LegendHit(p chart.Point) int {
	if sc.Legend == nil {
		return -1
	}
	x := p.X - sc.Legend.X
	y := p.Y - sc.Legend.Y
	if x < 0 || x > legendWidth || y < 0 {
		return -1
	}
	row := int(y / legendRow)
	if row >= len(sc.Legend.Entries) {
		return -1
	}
	return sc.Legend.Entries[row].Index
}
