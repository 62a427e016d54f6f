package raster

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/buffos/go-linerace/internal/chart"
	"github.com/buffos/go-linerace/internal/geometry"
)

// StaticPNG draws the fully revealed chart with gonum/plot and writes it as
// PNG. Axis ranges come from geo so the bitmap matches the SVG scales;
// width and height are in points.
func StaticPNG(w io.Writer, geo geometry.Result, cfg chart.Config, width, height float64) error {
	p := plot.New()
	p.BackgroundColor = ParseColor(cfg.ChartBackgroundColor)
	p.X.Label.Text = cfg.XAxisTitle
	p.Y.Label.Text = cfg.YAxisTitle
	p.X.Label.TextStyle.Color = ParseColor(cfg.AxisTitleColor)
	p.Y.Label.TextStyle.Color = ParseColor(cfg.AxisTitleColor)
	p.X.Min, p.X.Max = geo.XDomain.Min, geo.XDomain.Max
	p.Y.Min, p.Y.Max = geo.YDomain.Min, geo.YDomain.Max
	if cfg.Watermark != "" {
		p.Title.Text = cfg.Watermark
	}

	if cfg.ShowHorizontalGridLines {
		grid := plotter.NewGrid()
		grid.Vertical.Color = nil
		grid.Horizontal.Color = ParseColor(cfg.HorizontalGridLineColor)
		grid.Horizontal.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
		p.Add(grid)
	}

	for _, d := range geo.Paths {
		pts := make(plotter.XYs, 0, len(d.Series.Data))
		for _, pt := range d.Series.Data {
			if cfg.SkipZeroes && pt.Y == 0 {
				continue
			}
			pts = append(pts, plotter.XY{X: pt.X, Y: pt.Y})
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("series %q: %w", d.Series.Title, err)
		}
		line.Color = ParseColor(d.Color)
		line.Width = vg.Points(cfg.StrokeWidth)
		p.Add(line)
		if cfg.ShowLegend {
			title := d.Series.Title
			if title == "" {
				title = "Untitled"
			}
			p.Legend.Add(title, line)
		}
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	wt, err := p.WriterTo(vg.Points(width), vg.Points(height), "png")
	if err != nil {
		return fmt.Errorf("preparing png: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("writing png: %w", err)
	}
	return nil
}
