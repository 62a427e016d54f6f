// Package export writes the series as an interactive go-echarts page.
package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/buffos/go-linerace/internal/chart"
	"github.com/buffos/go-linerace/internal/geometry"
)

// Options controls the page around the chart.
type Options struct {
	PageTitle  string
	Width      int    // Pixels
	AssetsHost string // Empty uses the go-echarts default CDN
}

// NewLineChart builds the line chart for the fully revealed series. Axis
// ranges come from geo so the page matches the rendered frames.
func NewLineChart(geo geometry.Result, cfg chart.Config, o Options) *charts.Line {
	width := o.Width
	if width <= 0 {
		width = 900
	}
	height := int(float64(width) * cfg.AspectRatio)

	init := opts.Initialization{
		PageTitle:       o.PageTitle,
		Width:           fmt.Sprintf("%dpx", width),
		Height:          fmt.Sprintf("%dpx", height),
		BackgroundColor: cfg.ChartBackgroundColor,
	}
	if o.AssetsHost != "" {
		init.AssetsHost = o.AssetsHost
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(init),
		charts.WithTitleOpts(opts.Title{Title: o.PageTitle, Subtitle: cfg.Watermark}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(cfg.ShowLegend), Right: "10"}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:         "value",
			Name:         cfg.XAxisTitle,
			NameLocation: "middle",
			NameGap:      25,
			Min:          geo.XDomain.Min,
			Max:          geo.XDomain.Max,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:         "value",
			Name:         cfg.YAxisTitle,
			NameLocation: "middle",
			NameGap:      30,
			Min:          geo.YDomain.Min,
			Max:          geo.YDomain.Max,
			SplitLine: &opts.SplitLine{
				Show:      opts.Bool(cfg.ShowHorizontalGridLines),
				LineStyle: &opts.LineStyle{Type: "dashed", Color: cfg.HorizontalGridLineColor},
			},
		}),
	)

	for _, d := range geo.Paths {
		data := make([]opts.LineData, 0, len(d.Series.Data))
		for _, p := range d.Series.Data {
			if cfg.SkipZeroes && p.Y == 0 {
				continue
			}
			data = append(data, opts.LineData{Value: []interface{}{p.X, p.Y}})
		}
		name := d.Series.Title
		if name == "" {
			name = "Untitled"
		}
		line.AddSeries(name, data,
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(cfg.Curved), ShowSymbol: opts.Bool(false)}),
			charts.WithLineStyleOpts(opts.LineStyle{Width: float32(cfg.StrokeWidth), Color: d.Color}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: d.Color}),
		)
	}
	return line
}

// WriteHTML renders the chart page to w.
func WriteHTML(w io.Writer, geo geometry.Result, cfg chart.Config, o Options) error {
	var buf bytes.Buffer
	if err := NewLineChart(geo, cfg, o).Render(&buf); err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing html: %w", err)
	}
	return nil
}
