package geometry

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buffos/go-linerace/internal/chart"
)

func plainConfig() chart.Config {
	cfg := chart.DefaultConfig()
	cfg.XAxisPadding = 0
	cfg.YAxisPadding = 0
	return cfg
}

func square() chart.PlotArea { return chart.PlotArea{Width: 100, Height: 100} }

func TestCompute_DomainsNeverNegative(t *testing.T) {
	series := []chart.Series{
		{Title: "neg", Data: []chart.Point{{X: -5, Y: -3}, {X: 2, Y: 7}}},
		{Title: "pos", Data: []chart.Point{{X: 1, Y: 2}, {X: 4, Y: 1}}},
	}
	for _, zoomed := range []bool{false, true} {
		cfg := chart.DefaultConfig()
		cfg.IsZoomed = zoomed
		cfg.XAxisPadding, cfg.YAxisPadding = 0.9, 0.9
		res := Compute(series, square(), cfg)
		assert.GreaterOrEqual(t, res.XDomain.Min, 0.0, "zoomed=%v", zoomed)
		assert.GreaterOrEqual(t, res.YDomain.Min, 0.0, "zoomed=%v", zoomed)
	}
}

func TestCompute_ScaleCorrectness(t *testing.T) {
	series := []chart.Series{{Title: "A", Data: []chart.Point{{X: 0, Y: 0}, {X: 1, Y: 10}}}}

	t.Run("no padding", func(t *testing.T) {
		res := Compute(series, square(), plainConfig())
		require.Len(t, res.Paths, 1)
		assert.Equal(t, Domain{Min: 0, Max: 10}, res.YDomain)
		assert.Equal(t, chart.Point{X: 100, Y: 0}, res.Paths[0].End)
		assert.Equal(t, chart.Point{X: 0, Y: 100}, res.Paths[0].Start)
	})

	t.Run("y padding", func(t *testing.T) {
		cfg := plainConfig()
		cfg.YAxisPadding = 0.1
		res := Compute(series, square(), cfg)
		assert.Equal(t, 10*(1+0.1), res.YDomain.Max)
		assert.Equal(t, 0.0, res.YDomain.Min)
		wantY := 100 - (10-0)*(100/res.YDomain.Max)
		assert.Equal(t, wantY, res.Paths[0].End.Y)
	})
}

func TestCompute_ZoomedPadsBothEnds(t *testing.T) {
	series := []chart.Series{{Data: []chart.Point{{X: 0, Y: 50}, {X: 10, Y: 150}}}}
	cfg := chart.DefaultConfig()
	cfg.IsZoomed = true
	cfg.YAxisPadding = 0.1
	cfg.XAxisPadding = 0.1

	res := Compute(series, square(), cfg)
	assert.Equal(t, Domain{Min: 40, Max: 160}, res.YDomain)
	// x min is clamped at zero, max padded by 10% of the range.
	assert.Equal(t, Domain{Min: 0, Max: 11}, res.XDomain)

	cfg.IsZoomed = false
	res = Compute(series, square(), cfg)
	assert.Equal(t, 0.0, res.YDomain.Min)
	assert.InDelta(t, 165.0, res.YDomain.Max, 1e-9)
}

func TestCompute_PathStrings(t *testing.T) {
	series := []chart.Series{{Data: []chart.Point{{X: 0, Y: 0}, {X: 1, Y: 10}, {X: 2, Y: 5}}}}
	plot := chart.PlotArea{Width: 200, Height: 100}

	cfg := plainConfig()
	res := Compute(series, plot, cfg)
	assert.Equal(t, "M 0 100 L 100 0 L 200 50", res.Paths[0].Path)

	cfg.Curved = true
	res = Compute(series, plot, cfg)
	assert.Equal(t, "M 0 100 C 50 100, 50 0, 100 0 C 150 0, 150 50, 200 50", res.Paths[0].Path)
}

func TestCompute_Deterministic(t *testing.T) {
	series := []chart.Series{
		{Title: "A", Data: []chart.Point{{X: 0, Y: 1}, {X: 1, Y: 5}, {X: 2, Y: 2}}},
		{Title: "B", Data: []chart.Point{{X: 0, Y: 3}, {X: 1, Y: 3}, {X: 2, Y: 3}}},
	}
	cfg := chart.DefaultConfig()
	cfg.Curved = true
	plot := chart.PlotArea{Width: 733, Height: 311}

	first := Compute(series, plot, cfg)
	second := Compute(series, plot, cfg)
	if diff := cmp.Diff(first, second, cmp.AllowUnexported(PathDatum{})); diff != "" {
		t.Errorf("Compute not deterministic (-first +second):\n%s", diff)
	}
	for i := range first.Paths {
		assert.Equal(t, first.Paths[i].Path, second.Paths[i].Path)
	}
}

func TestCompute_SinglePoint(t *testing.T) {
	series := []chart.Series{{Data: []chart.Point{{X: 3, Y: 4}}}}
	res := Compute(series, square(), plainConfig())
	require.Len(t, res.Paths, 1)
	p := res.Paths[0]
	assert.Equal(t, "M 0 0", p.Path)
	assert.Equal(t, 0.0, p.Length)
	assert.Equal(t, p.Start, p.End)
	assert.Equal(t, p.Start, p.PointAt(0.7))
}

func TestCompute_EqualValuesUseIdentityScale(t *testing.T) {
	series := []chart.Series{{Data: []chart.Point{{X: 0, Y: 3}, {X: 1, Y: 3}, {X: 2, Y: 3}}}}
	cfg := plainConfig()
	cfg.IsZoomed = true

	res := Compute(series, square(), cfg)
	assert.Equal(t, Domain{Min: 3, Max: 3}, res.YDomain)
	for _, p := range res.Paths[0].Points {
		assert.Equal(t, 100.0, p.Y)
		assert.False(t, math.IsNaN(p.X))
	}
}

func TestCompute_SkipZeroes(t *testing.T) {
	series := []chart.Series{
		{Title: "A", Data: []chart.Point{{X: 0, Y: 0}, {X: 1, Y: 4}, {X: 2, Y: 0}, {X: 3, Y: 8}}},
		{Title: "zeros", Data: []chart.Point{{X: 0, Y: 0}}},
	}
	cfg := plainConfig()
	cfg.SkipZeroes = true

	res := Compute(series, square(), cfg)
	require.Len(t, res.Paths, 1, "series left without points is dropped")
	assert.Len(t, res.Paths[0].Points, 2)
	assert.Equal(t, 0, res.Paths[0].Index)
	assert.Equal(t, Domain{Min: 1, Max: 3}, res.XDomain)
}

func TestCompute_Empty(t *testing.T) {
	res := Compute(nil, chart.PlotArea{}, chart.DefaultConfig())
	assert.Empty(t, res.Paths)
	assert.Equal(t, chart.PlotArea{Width: 1, Height: 1}, res.Plot)
	assert.Len(t, res.YTicks, TickCount)
}

func TestCompute_Ticks(t *testing.T) {
	series := []chart.Series{{Data: []chart.Point{{X: 0, Y: 0}, {X: 4, Y: 10}}}}
	res := Compute(series, square(), plainConfig())

	want := []Tick{
		{Value: 0, Pos: 100, Label: "0"},
		{Value: 2.5, Pos: 75, Label: "2.50"},
		{Value: 5, Pos: 50, Label: "5"},
		{Value: 7.5, Pos: 25, Label: "7.50"},
		{Value: 10, Pos: 0, Label: "10"},
	}
	if diff := cmp.Diff(want, res.YTicks, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("y ticks mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"0", "1", "2", "3", "4"}, tickLabels(res.XTicks))
}

func tickLabels(ticks []Tick) []string {
	out := make([]string, len(ticks))
	for i, t := range ticks {
		out[i] = t.Label
	}
	return out
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "12", FormatValue(12, chart.DecimalFormat{DecimalPlaces: 2}))
	assert.Equal(t, "12.00", FormatValue(12, chart.DecimalFormat{ShowDecimals: true, DecimalPlaces: 2}))
	assert.Equal(t, "1.3", FormatValue(1.26, chart.DecimalFormat{DecimalPlaces: 1}))
	assert.Equal(t, "0.333", FormatValue(1.0/3, chart.DecimalFormat{ShowDecimals: true, DecimalPlaces: 3}))
}

func TestPathDatum_PointAtAndDashOffset(t *testing.T) {
	series := []chart.Series{{Data: []chart.Point{{X: 0, Y: 0}, {X: 1, Y: 10}}}}
	p := Compute(series, square(), plainConfig()).Paths[0]

	assert.InDelta(t, math.Sqrt2*100, p.Length, 1e-9)
	mid := p.PointAt(0.5)
	assert.InDelta(t, 50, mid.X, 1e-9)
	assert.InDelta(t, 50, mid.Y, 1e-9)
	assert.Equal(t, p.Start, p.PointAt(-1))
	assert.Equal(t, p.End, p.PointAt(2))

	assert.InDelta(t, p.Length, p.DashOffset(0), 1e-9)
	assert.Equal(t, 0.0, p.DashOffset(1))
}

func TestPathDatum_CurvedLengthBounds(t *testing.T) {
	series := []chart.Series{{Data: []chart.Point{{X: 0, Y: 0}, {X: 1, Y: 10}}}}
	cfg := plainConfig()
	cfg.Curved = true
	p := Compute(series, square(), cfg).Paths[0]

	// The curve is longer than the chord and shorter than its control polygon.
	assert.Greater(t, p.Length, math.Sqrt2*100)
	assert.Less(t, p.Length, 200.0)
	assert.Equal(t, p.End, p.PointAt(1))
}
