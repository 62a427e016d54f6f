package main

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/buffos/go-linerace/internal/chart"
	"github.com/buffos/go-linerace/internal/label"
	"github.com/buffos/go-linerace/internal/rank"
	"github.com/buffos/go-linerace/internal/surface"
	"github.com/buffos/go-linerace/internal/timeutil"
)

// replayMarker separates the output of consecutive generations.
const replayMarker = "--- replay ---"

func newPlayCmd(o *options) *cobra.Command {
	var repeat int
	cmd := &cobra.Command{
		Use:   "play <data>",
		Short: "Play the animation in real time and print the ranking as series finish",
		Long: `play runs the animation on the real clock. Each completion is printed as
it happens; the ranking table is printed again whenever a row becomes
visible, sort_delay after its series finished.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if repeat < 0 {
				return fmt.Errorf("--repeat must not be negative, got %d", repeat)
			}
			return runPlay(cmd, o, args[0], repeat)
		},
	}
	cmd.Flags().IntVar(&repeat, "repeat", 0, "Replay the animation this many more times")
	return cmd
}

// syncWriter serializes writes from the scheduler goroutine and the
// table printer.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func runPlay(cmd *cobra.Command, o *options, dataPath string, repeat int) error {
	cfg, err := o.chartConfig(cmd)
	if err != nil {
		return err
	}
	series, err := o.loadSeries(dataPath, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := timeutil.RealClock{}
	surf := surface.New(
		surface.WithClock(clock),
		surface.WithConfig(cfg),
		surface.WithMeasurer(label.NewFontMeasurer()),
	)
	defer surf.Close()
	surf.Measure(o.width, o.windowHeight)

	out := &syncWriter{w: cmd.OutOrStdout()}
	table := rank.NewTable(clock, cfg.SortDelay, cfg.LowerIsBetter)
	unsubscribe := surf.Scheduler().Subscribe(func(ev chart.CompletionEvent) {
		table.Push(ev)
		entry := rank.FromEvent(ev)
		fmt.Fprintf(out, "%s finished at %s\n", entry.Name, entry.DisplayValue())
	})
	defer unsubscribe()

	if !surf.Load(series, cfg) {
		log.Println("Nothing to play.")
		return nil
	}
	log.Printf("Playing %d series (%s).", len(series), cfg.Mode())

	interval := cfg.FrameInterval
	if interval <= 0 {
		interval = chart.DefaultConfig().FrameInterval
	}
	poll := clock.NewTicker(interval)
	defer poll.Stop()

	var shown []rank.Entry
	done := surf.Scheduler().Done()
	for round := 0; ; {
		select {
		case <-ctx.Done():
			surf.Close()
			log.Println("Playback cancelled.")
			return nil
		case <-done:
			// A nil channel never fires again.
			done = nil
		case <-poll.C():
		}

		if visible := table.Visible(); !slices.Equal(visible, shown) {
			shown = visible
			printTable(out, visible)
		}
		if done != nil || len(shown) < table.Len() {
			continue
		}
		if round == repeat {
			log.Println("Playback finished.")
			return nil
		}

		// A new generation starts from an empty table.
		round++
		table.Reset()
		shown = nil
		fmt.Fprintln(out, replayMarker)
		if !surf.Restart(ctx) {
			log.Println("Playback cancelled.")
			return nil
		}
		done = surf.Scheduler().Done()
	}
}

// printTable writes the table in one Write so it is never interleaved with
// completion lines.
func printTable(w io.Writer, entries []rank.Entry) {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tNAME\tVALUE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", e.Rank, e.Name, e.DisplayValue())
	}
	tw.Flush()
	w.Write(buf.Bytes())
}
