package main

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/buffos/go-linerace/internal/chart"
	"github.com/buffos/go-linerace/internal/geometry"
	"github.com/buffos/go-linerace/internal/label"
	"github.com/buffos/go-linerace/internal/raster"
	"github.com/buffos/go-linerace/internal/surface"
	"github.com/buffos/go-linerace/internal/timeutil"
)

type renderFlags struct {
	at     time.Duration
	output string
	format string
	engine string
	scale  float64
}

func newRenderCmd(o *options) *cobra.Command {
	rf := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "render <data>",
		Short: "Render one frame of the animation as SVG, PNG or JPEG",
		Long: `render plays the animation on a virtual clock up to --at and writes the
resulting frame. Without --at the fully settled chart is written.

Bitmaps are produced by headless Chrome (--engine chrome, the default) or by
gonum/plot (--engine plot). The plot engine always draws the final state.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, o, rf, args[0])
		},
	}
	cmd.Flags().DurationVar(&rf.at, "at", -1, "Animation time to render (default: end of animation)")
	cmd.Flags().StringVarP(&rf.output, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVarP(&rf.format, "format", "f", "", "Output format: svg, png, jpg (default: from --output, else svg)")
	cmd.Flags().StringVar(&rf.engine, "engine", engineChrome, "Raster engine: chrome or plot")
	cmd.Flags().Float64Var(&rf.scale, "scale", 2, "Device pixel ratio of Chrome screenshots")
	return cmd
}

func runRender(cmd *cobra.Command, o *options, rf *renderFlags, dataPath string) error {
	cfg, err := o.chartConfig(cmd)
	if err != nil {
		return err
	}
	format, err := imageFormat(rf.format, rf.output)
	if err != nil {
		return err
	}
	if err := checkEngine(rf.engine); err != nil {
		return err
	}
	series, err := o.loadSeries(dataPath, cfg)
	if err != nil {
		return err
	}

	var browser *raster.Browser
	var measurer label.Measurer = label.NewFontMeasurer()
	if format != "svg" && rf.engine == engineChrome {
		log.Println("Starting headless Chrome...")
		browser, err = raster.NewBrowser(cmd.Context(), rf.scale)
		if err != nil {
			return fmt.Errorf("PNG/JPG generation requires Chrome: %w", err)
		}
		defer browser.Close()
		measurer = browser
	}

	sc, geo := snapshotAt(series, cfg, o, measurer, rf.at)

	w, finish, err := createOutput(rf.output, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	log.Printf("Generating output for format: %s", format)
	var genErr error
	switch {
	case format == "svg":
		genErr = surface.WriteSVG(w, sc)
	case rf.engine == enginePlot:
		var buf bytes.Buffer
		genErr = raster.StaticPNG(&buf, geo, cfg, sc.Width, sc.Height)
		if genErr == nil {
			genErr = raster.Encode(&buf, raster.Format(format), w)
		}
	default:
		genErr = browser.Rasterize(surface.RenderSVG(sc), raster.Format(format), w)
	}
	if genErr != nil {
		genErr = fmt.Errorf("generating %s: %w", format, genErr)
	}
	if err := finish(genErr); err != nil {
		return err
	}
	log.Printf("Successfully generated %s output.", strings.ToUpper(format))
	return nil
}

// snapshotAt plays the animation on a virtual clock up to at and returns
// the composed frame with its geometry. A negative at renders the settled
// chart.
func snapshotAt(series []chart.Series, cfg chart.Config, o *options, m label.Measurer, at time.Duration) (surface.Scene, geometry.Result) {
	clk := timeutil.NewFakeClock(time.Unix(0, 0))
	surf := surface.New(
		surface.WithClock(clk),
		surface.WithManualTicks(),
		surface.WithMeasurer(m),
		surface.WithConfig(cfg),
	)
	defer surf.Close()

	surf.Measure(o.width, o.windowHeight)
	if surf.Load(series, cfg) {
		if at < 0 {
			at = playbackLength(series, cfg)
		}
		start := clk.Now()
		surf.Tick(start)
		surf.Tick(start.Add(at))
	}
	return surf.Frame(), surf.Geometry()
}
