// Package config loads chart settings from JSON. Every field is optional;
// omitted fields keep the values of the base configuration they are
// applied to, so partial files are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/buffos/go-linerace/internal/chart"
)

// MaxFileSize bounds settings files.
const MaxFileSize = 1 * 1024 * 1024 // 1MB

// Settings is the on-disk form of chart.Config. Durations are strings
// like "500ms" or "1s".
type Settings struct {
	// Colors
	ChartBackgroundColor    *string  `json:"chart_background_color,omitempty"`
	AxisColor               *string  `json:"axis_color,omitempty"`
	AxisTitleColor          *string  `json:"axis_title_color,omitempty"`
	LabelColor              *string  `json:"label_color,omitempty"`
	LabelBackgroundColor    *string  `json:"label_background_color,omitempty"`
	LegendBackgroundColor   *string  `json:"legend_background_color,omitempty"`
	LegendTextColor         *string  `json:"legend_text_color,omitempty"`
	HorizontalGridLineColor *string  `json:"horizontal_grid_line_color,omitempty"`
	DataLineColors          []string `json:"data_line_colors,omitempty"`

	// Drawing
	ShowLegend              *bool    `json:"show_legend,omitempty"`
	ShowHorizontalGridLines *bool    `json:"show_horizontal_grid_lines,omitempty"`
	Curved                  *bool    `json:"curved,omitempty"`
	SkipZeroes              *bool    `json:"skip_zeroes,omitempty"`
	StrokeWidth             *float64 `json:"stroke_width,omitempty"`
	FontSize                *float64 `json:"font_size,omitempty"`
	XAxisTitle              *string  `json:"x_axis_title,omitempty"`
	YAxisTitle              *string  `json:"y_axis_title,omitempty"`
	Watermark               *string  `json:"watermark,omitempty"`

	// Scales
	UseFirstColumnAsX *bool    `json:"use_first_column_as_x,omitempty"`
	IsZoomed          *bool    `json:"is_zoomed,omitempty"`
	YAxisPadding      *float64 `json:"y_axis_padding,omitempty"`
	XAxisPadding      *float64 `json:"x_axis_padding,omitempty"`
	ShowDecimals      *bool    `json:"show_decimals,omitempty"`
	DecimalPlaces     *int     `json:"decimal_places,omitempty"`

	// Sizing
	AspectRatio    *float64 `json:"aspect_ratio,omitempty"`
	MinHeight      *string  `json:"min_height,omitempty"`
	ResizeDebounce *string  `json:"resize_debounce,omitempty"`

	// Animation
	Staggered     *bool   `json:"staggered,omitempty"`
	Delay         *string `json:"delay,omitempty"`
	Settle        *string `json:"settle,omitempty"`
	FrameInterval *string `json:"frame_interval,omitempty"`

	// Ranking
	MaxValueAxis  *string `json:"max_value_axis,omitempty"`
	LowerIsBetter *bool   `json:"lower_is_better,omitempty"`
	SortDelay     *string `json:"sort_delay,omitempty"`
}

// Load reads a settings file. The path must end in .json and the file
// must not exceed MaxFileSize.
func Load(path string) (*Settings, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), MaxFileSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes settings JSON and checks that durations parse.
func Parse(data []byte) (*Settings, error) {
	s := &Settings{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if _, err := s.Apply(chart.DefaultConfig()); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return s, nil
}

// Apply overlays the set fields on base and validates the result.
func (s *Settings) Apply(base chart.Config) (chart.Config, error) {
	c := base
	c.ChartBackgroundColor = getString(s.ChartBackgroundColor, c.ChartBackgroundColor)
	c.AxisColor = getString(s.AxisColor, c.AxisColor)
	c.AxisTitleColor = getString(s.AxisTitleColor, c.AxisTitleColor)
	c.LabelColor = getString(s.LabelColor, c.LabelColor)
	c.LabelBackgroundColor = getString(s.LabelBackgroundColor, c.LabelBackgroundColor)
	c.LegendBackgroundColor = getString(s.LegendBackgroundColor, c.LegendBackgroundColor)
	c.LegendTextColor = getString(s.LegendTextColor, c.LegendTextColor)
	c.HorizontalGridLineColor = getString(s.HorizontalGridLineColor, c.HorizontalGridLineColor)
	if len(s.DataLineColors) > 0 {
		c.DataLineColors = append([]string(nil), s.DataLineColors...)
	}

	c.ShowLegend = getBool(s.ShowLegend, c.ShowLegend)
	c.ShowHorizontalGridLines = getBool(s.ShowHorizontalGridLines, c.ShowHorizontalGridLines)
	c.Curved = getBool(s.Curved, c.Curved)
	c.SkipZeroes = getBool(s.SkipZeroes, c.SkipZeroes)
	c.StrokeWidth = getFloat64(s.StrokeWidth, c.StrokeWidth)
	c.FontSize = getFloat64(s.FontSize, c.FontSize)
	c.XAxisTitle = getString(s.XAxisTitle, c.XAxisTitle)
	c.YAxisTitle = getString(s.YAxisTitle, c.YAxisTitle)
	c.Watermark = getString(s.Watermark, c.Watermark)

	c.UseFirstColumnAsX = getBool(s.UseFirstColumnAsX, c.UseFirstColumnAsX)
	c.IsZoomed = getBool(s.IsZoomed, c.IsZoomed)
	c.YAxisPadding = getFloat64(s.YAxisPadding, c.YAxisPadding)
	c.XAxisPadding = getFloat64(s.XAxisPadding, c.XAxisPadding)
	c.Decimals.ShowDecimals = getBool(s.ShowDecimals, c.Decimals.ShowDecimals)
	c.Decimals.DecimalPlaces = getInt(s.DecimalPlaces, c.Decimals.DecimalPlaces)

	c.AspectRatio = getFloat64(s.AspectRatio, c.AspectRatio)
	c.MinHeight = getString(s.MinHeight, c.MinHeight)
	c.Staggered = getBool(s.Staggered, c.Staggered)
	c.LowerIsBetter = getBool(s.LowerIsBetter, c.LowerIsBetter)
	if s.MaxValueAxis != nil {
		c.MaxValueAxis = chart.Axis(*s.MaxValueAxis)
	}

	durations := []struct {
		name string
		src  *string
		dst  *time.Duration
	}{
		{"resize_debounce", s.ResizeDebounce, &c.ResizeDebounce},
		{"delay", s.Delay, &c.Delay},
		{"settle", s.Settle, &c.Settle},
		{"frame_interval", s.FrameInterval, &c.FrameInterval},
		{"sort_delay", s.SortDelay, &c.SortDelay},
	}
	for _, d := range durations {
		v, err := getDuration(d.src, *d.dst)
		if err != nil {
			return base, fmt.Errorf("invalid %s: %w", d.name, err)
		}
		*d.dst = v
	}

	if err := c.Validate(); err != nil {
		return base, err
	}
	return c, nil
}

// FromConfig captures every field of c, e.g. to export the settings in use.
func FromConfig(c chart.Config) Settings {
	axis := string(c.MaxValueAxis)
	return Settings{
		ChartBackgroundColor:    &c.ChartBackgroundColor,
		AxisColor:               &c.AxisColor,
		AxisTitleColor:          &c.AxisTitleColor,
		LabelColor:              &c.LabelColor,
		LabelBackgroundColor:    &c.LabelBackgroundColor,
		LegendBackgroundColor:   &c.LegendBackgroundColor,
		LegendTextColor:         &c.LegendTextColor,
		HorizontalGridLineColor: &c.HorizontalGridLineColor,
		DataLineColors:          append([]string(nil), c.DataLineColors...),
		ShowLegend:              &c.ShowLegend,
		ShowHorizontalGridLines: &c.ShowHorizontalGridLines,
		Curved:                  &c.Curved,
		SkipZeroes:              &c.SkipZeroes,
		StrokeWidth:             &c.StrokeWidth,
		FontSize:                &c.FontSize,
		XAxisTitle:              &c.XAxisTitle,
		YAxisTitle:              &c.YAxisTitle,
		Watermark:               &c.Watermark,
		UseFirstColumnAsX:       &c.UseFirstColumnAsX,
		IsZoomed:                &c.IsZoomed,
		YAxisPadding:            &c.YAxisPadding,
		XAxisPadding:            &c.XAxisPadding,
		ShowDecimals:            &c.Decimals.ShowDecimals,
		DecimalPlaces:           &c.Decimals.DecimalPlaces,
		AspectRatio:             &c.AspectRatio,
		MinHeight:               &c.MinHeight,
		ResizeDebounce:          durationString(c.ResizeDebounce),
		Staggered:               &c.Staggered,
		Delay:                   durationString(c.Delay),
		Settle:                  durationString(c.Settle),
		FrameInterval:           durationString(c.FrameInterval),
		MaxValueAxis:            &axis,
		LowerIsBetter:           &c.LowerIsBetter,
		SortDelay:               durationString(c.SortDelay),
	}
}

// Save writes s as indented JSON.
func Save(path string, s Settings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

// --- Pointer helpers ---

func getString(ptr *string, def string) string {
	if ptr != nil {
		return *ptr
	}
	return def
}

func getInt(ptr *int, def int) int {
	if ptr != nil {
		return *ptr
	}
	return def
}

func getFloat64(ptr *float64, def float64) float64 {
	if ptr != nil {
		return *ptr
	}
	return def
}

func getBool(ptr *bool, def bool) bool {
	if ptr != nil {
		return *ptr
	}
	return def
}

func getDuration(ptr *string, def time.Duration) (time.Duration, error) {
	if ptr == nil || *ptr == "" {
		return def, nil
	}
	return time.ParseDuration(*ptr)
}

func durationString(d time.Duration) *string {
	s := d.String()
	return &s
}
