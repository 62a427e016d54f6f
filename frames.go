package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/buffos/go-linerace/internal/chart"
	"github.com/buffos/go-linerace/internal/label"
	"github.com/buffos/go-linerace/internal/rank"
	"github.com/buffos/go-linerace/internal/raster"
	"github.com/buffos/go-linerace/internal/surface"
	"github.com/buffos/go-linerace/internal/timeutil"
)

// rankingFile is written next to the frames.
const rankingFile = "ranking.json"

type framesFlags struct {
	dir    string
	fps    int
	format string
	scale  float64
}

// rankingLog is the content of ranking.json.
type rankingLog struct {
	Completions []completionRecord `json:"completions"`
	Snapshots   []rankingSnapshot  `json:"snapshots"`
}

// completionRecord is a completion event and the frame it happened on.
type completionRecord struct {
	Frame    int                   `json:"frame"`
	AtMillis int64                 `json:"at_ms"`
	Event    chart.CompletionEvent `json:"event"`
}

// rankingSnapshot is the visible ranking table from Frame on. A row shows
// up SortDelay after its series completed.
type rankingSnapshot struct {
	Frame    int          `json:"frame"`
	AtMillis int64        `json:"at_ms"`
	Entries  []rank.Entry `json:"entries"`
}

func newFramesCmd(o *options) *cobra.Command {
	ff := &framesFlags{}
	cmd := &cobra.Command{
		Use:   "frames <data>",
		Short: "Write every animation frame to a directory",
		Long: `frames plays the animation on a virtual clock, one tick per frame, and
writes each frame as frame_00000.svg (or .png/.jpg through headless Chrome).
A ranking.json is written alongside with every completion event and a
snapshot of the visible ranking each time it changes. Rows appear
sort_delay after their series completed; frames continue past the end of
the animation until every row is visible.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFrames(cmd, o, ff, args[0])
		},
	}
	cmd.Flags().StringVar(&ff.dir, "dir", "frames", "Output directory")
	cmd.Flags().IntVar(&ff.fps, "fps", 30, "Frames per second of animation time")
	cmd.Flags().StringVarP(&ff.format, "format", "f", "svg", "Frame format: svg, png, jpg")
	cmd.Flags().Float64Var(&ff.scale, "scale", 1, "Device pixel ratio of Chrome screenshots")
	return cmd
}

func runFrames(cmd *cobra.Command, o *options, ff *framesFlags, dataPath string) error {
	if ff.fps <= 0 {
		return fmt.Errorf("--fps must be positive, got %d", ff.fps)
	}
	cfg, err := o.chartConfig(cmd)
	if err != nil {
		return err
	}
	format, err := imageFormat(ff.format, "")
	if err != nil {
		return err
	}
	series, err := o.loadSeries(dataPath, cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(ff.dir, 0755); err != nil {
		return fmt.Errorf("creating frame directory '%s': %w", ff.dir, err)
	}

	var browser *raster.Browser
	var measurer label.Measurer = label.NewFontMeasurer()
	if format != "svg" {
		log.Println("Starting headless Chrome...")
		browser, err = raster.NewBrowser(cmd.Context(), ff.scale)
		if err != nil {
			return fmt.Errorf("PNG/JPG frames require Chrome: %w", err)
		}
		defer browser.Close()
		measurer = browser
	}

	clk := timeutil.NewFakeClock(time.Unix(0, 0))
	surf := surface.New(
		surface.WithClock(clk),
		surface.WithManualTicks(),
		surface.WithMeasurer(measurer),
		surface.WithConfig(cfg),
	)
	defer surf.Close()
	surf.Measure(o.width, o.windowHeight)

	table := rank.NewTable(clk, cfg.SortDelay, cfg.LowerIsBetter)
	start := clk.Now()
	frame := 0
	var ranking rankingLog
	// Listeners run synchronously inside Tick on this goroutine.
	unsubscribe := surf.Scheduler().Subscribe(func(ev chart.CompletionEvent) {
		table.Push(ev)
		ranking.Completions = append(ranking.Completions, completionRecord{
			Frame:    frame,
			AtMillis: clk.Now().Sub(start).Milliseconds(),
			Event:    ev,
		})
	})
	defer unsubscribe()

	var shown []rank.Entry
	publish := func() {
		visible := table.Visible()
		if slices.Equal(visible, shown) {
			return
		}
		shown = visible
		ranking.Snapshots = append(ranking.Snapshots, rankingSnapshot{
			Frame:    frame,
			AtMillis: clk.Now().Sub(start).Milliseconds(),
			Entries:  visible,
		})
	}

	surf.Load(series, cfg)
	step := time.Second / time.Duration(ff.fps)
	log.Printf("Writing frames to %s at %d fps", ff.dir, ff.fps)

	running := surf.Tick(clk.Now())
	for {
		publish()
		if err := writeFrame(ff.dir, frame, format, surf.Frame(), browser); err != nil {
			return err
		}
		if !running && len(shown) == table.Len() {
			break
		}
		frame++
		clk.Advance(step)
		running = surf.Tick(clk.Now())
	}
	log.Printf("Wrote %d frames.", frame+1)

	data, err := json.MarshalIndent(ranking, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding ranking snapshots: %w", err)
	}
	path := filepath.Join(ff.dir, rankingFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing '%s': %w", path, err)
	}
	log.Printf("Ranking saved to: %s", path)
	return nil
}

func writeFrame(dir string, n int, format string, sc surface.Scene, browser *raster.Browser) error {
	path := filepath.Join(dir, fmt.Sprintf("frame_%05d.%s", n, format))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating frame '%s': %w", path, err)
	}
	if format == "svg" {
		err = surface.WriteSVG(f, sc)
	} else {
		err = browser.Rasterize(surface.RenderSVG(sc), raster.Format(format), f)
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("writing frame '%s': %w", path, err)
	}
	return nil
}
