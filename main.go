// main.go
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/buffos/go-linerace/internal/chart"
	"github.com/buffos/go-linerace/internal/config"
	"github.com/buffos/go-linerace/internal/dataset"
	"github.com/buffos/go-linerace/internal/monitoring"
)

// --- Shared Options ---

// options holds the flags shared by every command.
type options struct {
	configPath   string
	width        float64
	windowHeight float64
	sheet        string
	quiet        bool

	staggered    bool
	delay        time.Duration
	curved       bool
	zoom         bool
	firstColumnX bool
}

// --- Main Program Logic ---

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:   "linerace",
		Short: "Render animated multi-series line-race charts",
		Long: `linerace draws several data series as lines that reveal themselves
one after another (or all at once), ranks the series as they finish and
exports the result as SVG, PNG/JPEG frames or an interactive HTML page.

Data files may be .csv, .xlsx (first row holds the series titles) or a
.json array of series.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if o.quiet {
				log.SetOutput(io.Discard)
				monitoring.SetLogger(nil)
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&o.configPath, "config", "c", "", "Chart settings JSON file")
	pf.Float64Var(&o.width, "width", 900, "Container width in pixels")
	pf.Float64Var(&o.windowHeight, "window-height", 1080, "Window height used to resolve vh and % minimum heights")
	pf.StringVar(&o.sheet, "sheet", "", "Worksheet to read from .xlsx data (default: first sheet)")
	pf.BoolVarP(&o.quiet, "quiet", "q", false, "Suppress diagnostic logging")
	pf.BoolVar(&o.staggered, "staggered", true, "Reveal series one after another")
	pf.DurationVar(&o.delay, "delay", time.Second, "Pause between staggered reveals")
	pf.BoolVar(&o.curved, "curved", false, "Draw smooth curves")
	pf.BoolVar(&o.zoom, "zoom", false, "Pad the y axis around the data instead of starting at zero")
	pf.BoolVar(&o.firstColumnX, "first-column-x", false, "Use the first CSV/XLSX column as x values")

	root.AddCommand(
		newRenderCmd(o),
		newFramesCmd(o),
		newPlayCmd(o),
		newHTMLCmd(o),
	)
	return root
}

// chartConfig layers the settings file and then explicitly set flags over
// the defaults.
func (o *options) chartConfig(cmd *cobra.Command) (chart.Config, error) {
	cfg := chart.DefaultConfig()
	if o.configPath != "" {
		log.Printf("Reading settings file: %s", o.configPath)
		s, err := config.Load(o.configPath)
		if err != nil {
			return cfg, err
		}
		if cfg, err = s.Apply(cfg); err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("staggered") {
		cfg.Staggered = o.staggered
	}
	if flags.Changed("delay") {
		cfg.Delay = o.delay
	}
	if flags.Changed("curved") {
		cfg.Curved = o.curved
	}
	if flags.Changed("zoom") {
		cfg.IsZoomed = o.zoom
	}
	if flags.Changed("first-column-x") {
		cfg.UseFirstColumnAsX = o.firstColumnX
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadSeries reads the data file. A file without usable series is not an
// error: the chart renders its axes only.
func (o *options) loadSeries(path string, cfg chart.Config) ([]chart.Series, error) {
	log.Printf("Reading data file: %s", path)
	series, err := dataset.Load(path, dataset.Options{
		UseFirstColumnAsX: cfg.UseFirstColumnAsX,
		Sheet:             o.sheet,
	})
	if errors.Is(err, dataset.ErrNoSeries) {
		log.Printf("Warning: no series with data found in '%s'", path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading data file '%s': %w", path, err)
	}
	log.Printf("Loaded %d series.", len(series))
	return series, nil
}

// playbackLength is the time from the first tick until the animation has
// settled.
func playbackLength(series []chart.Series, cfg chart.Config) time.Duration {
	var total, longest time.Duration
	for i, s := range series {
		d := s.AnimationDuration()
		total += d
		if i > 0 {
			total += cfg.Delay
		}
		longest = max(longest, d)
	}
	if !cfg.Staggered {
		total = longest
	}
	return total + cfg.Settle
}
