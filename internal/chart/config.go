package chart

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Mode selects how series reveals are sequenced.
type Mode int

const (
	ModeStaggered Mode = iota
	ModeSimultaneous
)

func (m Mode) String() string {
	if m == ModeSimultaneous {
		return "simultaneous"
	}
	return "staggered"
}

// DecimalFormat controls tick label formatting.
type DecimalFormat struct {
	ShowDecimals  bool
	DecimalPlaces int
}

// Config is the immutable-per-render configuration bag. Build it from
// DefaultConfig and override fields; a zero Config is not meaningful.
type Config struct {
	// Colors
	ChartBackgroundColor    string
	AxisColor               string
	AxisTitleColor          string
	LabelColor              string
	LabelBackgroundColor    string
	LegendBackgroundColor   string
	LegendTextColor         string
	HorizontalGridLineColor string
	DataLineColors          []string

	// Drawing
	ShowLegend              bool
	ShowHorizontalGridLines bool
	Curved                  bool
	SkipZeroes              bool
	StrokeWidth             float64
	FontSize                float64
	XAxisTitle              string
	YAxisTitle              string
	Watermark               string

	// Scales
	UseFirstColumnAsX bool
	IsZoomed          bool
	YAxisPadding      float64 // Fraction of the y range, [0,1)
	XAxisPadding      float64 // Fraction of the x range, [0,1)
	Decimals          DecimalFormat

	// Sizing
	AspectRatio    float64 // height = width * AspectRatio
	MinHeight      string  // "400", "400px", "50vh" or "50%"
	ResizeDebounce time.Duration

	// Animation
	Staggered     bool
	Delay         time.Duration // Pause between staggered reveals
	Settle        time.Duration // Pause after the last reveal
	FrameInterval time.Duration

	// Ranking
	MaxValueAxis  Axis
	LowerIsBetter bool
	SortDelay     time.Duration // Reveal delay for new rank rows
}

// DefaultConfig returns the documented defaults for every field.
func DefaultConfig() Config {
	return Config{
		ChartBackgroundColor:    "#ffffff",
		AxisColor:               "#000000",
		AxisTitleColor:          "#000000",
		LabelColor:              "#000000",
		LabelBackgroundColor:    "rgba(255, 255, 255, 0.7)",
		LegendBackgroundColor:   "rgba(255, 255, 255, 0)",
		LegendTextColor:         "#000000",
		HorizontalGridLineColor: "#e0e0e0",
		DataLineColors:          []string{"#FFD700", "#000000", "#f26122", "#1E90FF", "#104E8B", "#3CB371"},

		ShowLegend:              true,
		ShowHorizontalGridLines: true,
		StrokeWidth:             2,
		FontSize:                12,
		XAxisTitle:              "X Axis",
		YAxisTitle:              "Y Axis",

		YAxisPadding: 0.1,
		XAxisPadding: 0.05,
		Decimals:     DecimalFormat{DecimalPlaces: 2},

		AspectRatio:    0.5,
		ResizeDebounce: 250 * time.Millisecond,

		Staggered:     true,
		Delay:         time.Second,
		Settle:        500 * time.Millisecond,
		FrameInterval: 16 * time.Millisecond,

		MaxValueAxis: AxisX,
		SortDelay:    500 * time.Millisecond,
	}
}

// Mode reports the sequencing mode implied by Staggered.
func (c Config) Mode() Mode {
	if c.Staggered {
		return ModeStaggered
	}
	return ModeSimultaneous
}

// ColorFor returns the explicit series color or the palette entry for index.
func (c Config) ColorFor(index int, s Series) string {
	if s.Color != "" {
		return s.Color
	}
	if len(c.DataLineColors) == 0 {
		return "#000000"
	}
	return c.DataLineColors[index%len(c.DataLineColors)]
}

// Margin widens DefaultMargin to leave room for axis titles.
func (c Config) Margin() Margin {
	m := DefaultMargin
	if c.XAxisTitle != "" {
		m.Bottom += 20
	}
	if c.YAxisTitle != "" {
		m.Left += 20
	}
	return m
}

// MinHeightPixels resolves MinHeight against the window height. An empty
// value means no floor.
func (c Config) MinHeightPixels(windowHeight float64) (float64, error) {
	raw := strings.TrimSpace(c.MinHeight)
	if raw == "" {
		return 0, nil
	}
	var (
		numeric = raw
		percent bool
	)
	switch {
	case strings.HasSuffix(raw, "px"):
		numeric = strings.TrimSuffix(raw, "px")
	case strings.HasSuffix(raw, "vh"):
		numeric, percent = strings.TrimSuffix(raw, "vh"), true
	case strings.HasSuffix(raw, "%"):
		numeric, percent = strings.TrimSuffix(raw, "%"), true
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(numeric), 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid min height %q", c.MinHeight)
	}
	if percent {
		return windowHeight * v / 100, nil
	}
	return v, nil
}

// Validate checks the ranges documented for each field.
func (c Config) Validate() error {
	if c.YAxisPadding < 0 || c.YAxisPadding >= 1 {
		return fmt.Errorf("y_axis_padding must be in [0,1), got %v", c.YAxisPadding)
	}
	if c.XAxisPadding < 0 || c.XAxisPadding >= 1 {
		return fmt.Errorf("x_axis_padding must be in [0,1), got %v", c.XAxisPadding)
	}
	if c.Decimals.DecimalPlaces < 0 || c.Decimals.DecimalPlaces > 10 {
		return fmt.Errorf("decimal_places must be in [0,10], got %d", c.Decimals.DecimalPlaces)
	}
	if c.StrokeWidth <= 0 {
		return fmt.Errorf("stroke_width must be positive, got %v", c.StrokeWidth)
	}
	if c.AspectRatio <= 0 {
		return fmt.Errorf("aspect_ratio must be positive, got %v", c.AspectRatio)
	}
	if c.MaxValueAxis != AxisX && c.MaxValueAxis != AxisY {
		return fmt.Errorf("max_value_axis must be %q or %q, got %q", AxisX, AxisY, c.MaxValueAxis)
	}
	if c.Delay < 0 || c.Settle < 0 || c.SortDelay < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	if _, err := c.MinHeightPixels(0); err != nil {
		return err
	}
	return nil
}
