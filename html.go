package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buffos/go-linerace/internal/export"
	"github.com/buffos/go-linerace/internal/geometry"
	"github.com/buffos/go-linerace/internal/surface"
)

type htmlFlags struct {
	output     string
	title      string
	assetsHost string
}

func newHTMLCmd(o *options) *cobra.Command {
	hf := &htmlFlags{}
	cmd := &cobra.Command{
		Use:   "html <data>",
		Short: "Export the series as an interactive HTML chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.chartConfig(cmd)
			if err != nil {
				return err
			}
			series, err := o.loadSeries(args[0], cfg)
			if err != nil {
				return err
			}

			vp := surface.ComputeViewport(o.width, o.windowHeight, cfg)
			geo := geometry.Compute(series, vp.PlotArea(cfg.Margin()), cfg)

			w, finish, err := createOutput(hf.output, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			genErr := export.WriteHTML(w, geo, cfg, export.Options{
				PageTitle:  hf.title,
				Width:      int(vp.Width),
				AssetsHost: hf.assetsHost,
			})
			if genErr != nil {
				genErr = fmt.Errorf("HTML generation failed: %w", genErr)
			}
			return finish(genErr)
		},
	}
	cmd.Flags().StringVarP(&hf.output, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&hf.title, "title", "Line Race", "Page title")
	cmd.Flags().StringVar(&hf.assetsHost, "assets-host", "", "Host serving echarts.min.js (default: go-echarts CDN)")
	return cmd
}
