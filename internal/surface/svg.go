package surface

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"math"
	"regexp"
	"strings"

	"github.com/buffos/go-linerace/internal/chart"
)

const defaultFont = "Arial, sans-serif"
const tickSize = 6.0

var markdownLink = regexp.MustCompile(`\[([^\]]+)\]\(([^\)]+)\)`)
var markupTag = regexp.MustCompile(`<[^>]*>`)

// --- Parameter structs ---

type axisParams struct {
	Scene  Scene
	Bottom bool
}

type labelBoxParams struct {
	Label  Label
	Radius float64
}

// RenderSVG renders the scene as a standalone SVG document.
func RenderSVG(sc Scene) string {
	var body bytes.Buffer

	drawWatermark(&body, sc)
	drawGridLines(&body, sc)
	drawAxis(&body, axisParams{Scene: sc, Bottom: true})
	drawAxis(&body, axisParams{Scene: sc, Bottom: false})
	drawAxisTitles(&body, sc)
	for _, l := range sc.Lines {
		drawLine(&body, l)
	}
	for _, l := range sc.Labels {
		drawLabel(&body, labelBoxParams{Label: l, Radius: 4})
	}
	if sc.Legend != nil {
		drawLegend(&body, *sc.Legend, sc.FontSize)
	}

	return assembleSVG(body, sc)
}

// WriteSVG writes RenderSVG(sc) to w.
func WriteSVG(w io.Writer, sc Scene) error {
	if _, err := io.WriteString(w, RenderSVG(sc)); err != nil {
		return fmt.Errorf("writing svg: %w", err)
	}
	return nil
}

// assembleSVG wraps the body in the document, background and margin group.
func assembleSVG(body bytes.Buffer, sc Scene) string {
	width := math.Max(sc.Width, 1)
	height := math.Max(sc.Height, 1)

	var out bytes.Buffer
	fmt.Fprintf(&out, `<svg width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f" xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink">`,
		width, height, width, height)
	out.WriteString("\n")
	fmt.Fprintf(&out, `  <rect width="%.0f" height="%.0f" fill="%s"/>`, width, height, escapeXML(sc.Background))
	out.WriteString("\n")

	out.WriteString("  <style>\n")
	fmt.Fprintf(&out, "    text { font-family: %s; }\n", defaultFont)
	out.WriteString("    .line { fill: none; stroke-linejoin: round; stroke-linecap: round; }\n")
	out.WriteString("    .dimmed { opacity: 0.3; }\n")
	out.WriteString("    .legend-item { cursor: pointer; }\n")
	out.WriteString("  </style>\n")

	fmt.Fprintf(&out, `<g transform="translate(%.2f, %.2f)">`, sc.Margin.Left, sc.Margin.Top)
	out.WriteString("\n")
	out.Write(body.Bytes())
	out.WriteString("</g>\n")
	out.WriteString("</svg>")
	return out.String()
}

// --- Axes and guides ---

func drawGridLines(svg *bytes.Buffer, sc Scene) {
	for _, g := range sc.GridLines {
		fmt.Fprintf(svg, `  <line class="grid" x1="0" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-dasharray="5,5"/>`,
			g.Y, sc.Plot.Width, g.Y, escapeXML(g.Color))
		svg.WriteString("\n")
	}
}

func drawAxis(svg *bytes.Buffer, params axisParams) {
	sc := params.Scene
	color := escapeXML(sc.AxisColor)
	if params.Bottom {
		fmt.Fprintf(svg, `  <g class="axis x-axis" transform="translate(0, %.2f)">`, sc.Plot.Height)
		svg.WriteString("\n")
		fmt.Fprintf(svg, `    <line x1="0" y1="0" x2="%.2f" y2="0" stroke="%s"/>`, sc.Plot.Width, color)
		svg.WriteString("\n")
		for _, t := range sc.XTicks {
			fmt.Fprintf(svg, `    <line x1="%.2f" y1="0" x2="%.2f" y2="%.0f" stroke="%s"/>`, t.Pos, t.Pos, tickSize, color)
			fmt.Fprintf(svg, `<text x="%.2f" y="%.2f" font-size="%.0f" fill="%s" text-anchor="middle" dominant-baseline="hanging">%s</text>`,
				t.Pos, tickSize+3, sc.FontSize, color, escapeXML(t.Label))
			svg.WriteString("\n")
		}
	} else {
		svg.WriteString(`  <g class="axis y-axis">`)
		svg.WriteString("\n")
		fmt.Fprintf(svg, `    <line x1="0" y1="0" x2="0" y2="%.2f" stroke="%s"/>`, sc.Plot.Height, color)
		svg.WriteString("\n")
		for _, t := range sc.YTicks {
			fmt.Fprintf(svg, `    <line x1="%.0f" y1="%.2f" x2="0" y2="%.2f" stroke="%s"/>`, -tickSize, t.Pos, t.Pos, color)
			fmt.Fprintf(svg, `<text x="%.2f" y="%.2f" font-size="%.0f" fill="%s" text-anchor="end" dominant-baseline="middle">%s</text>`,
				-(tickSize + 3), t.Pos, sc.FontSize, color, escapeXML(t.Label))
			svg.WriteString("\n")
		}
	}
	svg.WriteString("  </g>\n")
}

func drawAxisTitles(svg *bytes.Buffer, sc Scene) {
	color := escapeXML(sc.AxisTitleColor)
	if sc.XTitle != "" {
		fmt.Fprintf(svg, `  <text class="axis-title" x="%.2f" y="%.2f" font-size="%.0f" fill="%s" text-anchor="middle">%s</text>`,
			sc.Plot.Width/2, sc.Plot.Height+sc.Margin.Bottom-6, sc.FontSize, color, escapeXML(sc.XTitle))
		svg.WriteString("\n")
	}
	if sc.YTitle != "" {
		fmt.Fprintf(svg, `  <text class="axis-title" transform="rotate(-90)" x="%.2f" y="%.2f" font-size="%.0f" fill="%s" text-anchor="middle">%s</text>`,
			-sc.Plot.Height/2, -sc.Margin.Left+sc.FontSize, sc.FontSize, color, escapeXML(sc.YTitle))
		svg.WriteString("\n")
	}
}

func drawWatermark(svg *bytes.Buffer, sc Scene) {
	if sc.Watermark == "" {
		return
	}
	cx, cy := sc.Plot.Width/2, sc.Plot.Height/2
	fmt.Fprintf(svg, `  <text class="watermark" x="%.2f" y="%.2f" transform="rotate(-45 %.2f %.2f)" font-size="%.0f" fill="%s" opacity="0.2" text-anchor="middle" dominant-baseline="middle">%s</text>`,
		cx, cy, cx, cy, sc.FontSize*4, escapeXML(sc.AxisColor), escapeXML(sc.Watermark))
	svg.WriteString("\n")
}

// --- Series ---

func drawLine(svg *bytes.Buffer, l Line) {
	class := "line"
	if l.Dimmed {
		class += " dimmed"
	}
	fmt.Fprintf(svg, `  <path class="%s" data-index="%d" d="%s" stroke="%s" stroke-width="%.2f" stroke-dasharray="%.2f" stroke-dashoffset="%.2f"/>`,
		class, l.Index, l.Path, escapeXML(l.Color), l.Width, l.Length, l.DashOffset)
	svg.WriteString("\n")
	if l.ShowTip {
		fmt.Fprintf(svg, `  <circle class="tip%s" cx="%.2f" cy="%.2f" r="%.0f" fill="%s"/>`,
			dimmedSuffix(l.Dimmed), l.Tip.X, l.Tip.Y, tipRadius, escapeXML(l.Color))
		svg.WriteString("\n")
	}
}

func drawLabel(svg *bytes.Buffer, params labelBoxParams) {
	l := params.Label
	tl := l.TopLeft()
	fmt.Fprintf(svg, `  <g class="label%s">`, dimmedSuffix(l.Dimmed))
	svg.WriteString("\n")
	fmt.Fprintf(svg, `    <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" rx="%.0f" ry="%.0f"/>`,
		tl.X, tl.Y, l.Box.Width, l.Box.Height, escapeXML(l.Background), params.Radius, params.Radius)
	svg.WriteString("\n")

	if l.HTML != "" {
		fmt.Fprintf(svg, `    <foreignObject x="%.2f" y="%.2f" width="%.2f" height="%.2f">`, tl.X, tl.Y, l.Box.Width, l.Box.Height)
		svg.WriteString("\n")
		style := fmt.Sprintf("color:%s; font-family:%s; font-size:%.0fpx; padding:6px; white-space:nowrap;",
			escapeXML(l.Color), defaultFont, l.FontSize)
		fmt.Fprintf(svg, `      <div xmlns="http://www.w3.org/1999/xhtml" class="label-html-content" style="%s">`, style)
		svg.WriteString(formatRichLabel(l.HTML))
		svg.WriteString(`</div>`)
		svg.WriteString("\n")
		svg.WriteString(`    </foreignObject>`)
		svg.WriteString("\n")
	} else {
		fmt.Fprintf(svg, `    <text x="%.2f" y="%.2f" font-size="%.0f" fill="%s" text-anchor="middle" dominant-baseline="middle">%s</text>`,
			l.Center.X, l.Center.Y, l.FontSize, escapeXML(l.Color), escapeXML(l.Text))
		svg.WriteString("\n")
	}
	svg.WriteString("  </g>\n")
}

// formatRichLabel turns [text](url) into links and newlines into breaks.
func formatRichLabel(s string) string {
	s = markdownLink.ReplaceAllString(s, `<a href="$2" target="_blank">$1</a>`)
	return strings.ReplaceAll(s, "\n", "<br />")
}

// richLabelText is the text a rich label displays: link text without its
// url, tags removed and entities decoded.
func richLabelText(s string) string {
	s = markdownLink.ReplaceAllString(s, "$1")
	return html.UnescapeString(markupTag.ReplaceAllString(s, ""))
}

// --- Legend ---

func drawLegend(svg *bytes.Buffer, lg Legend, fontSize float64) {
	fmt.Fprintf(svg, `  <g class="legend" transform="translate(%.2f, %.2f)">`, lg.X, lg.Y)
	svg.WriteString("\n")
	fmt.Fprintf(svg, `    <rect x="-10" y="-5" width="%.0f" height="%.0f" fill="%s"/>`,
		legendWidth+10, float64(len(lg.Entries))*legendRow+10, escapeXML(lg.Background))
	svg.WriteString("\n")
	for row, e := range lg.Entries {
		y := float64(row) * legendRow
		fmt.Fprintf(svg, `    <g class="legend-item%s" data-index="%d" role="button" tabindex="0" transform="translate(0, %.0f)">`,
			dimmedSuffix(e.Dimmed), e.Index, y)
		fmt.Fprintf(svg, `<rect width="%.0f" height="%.0f" fill="%s"/>`, legendSwatch, legendSwatch, escapeXML(e.Color))
		weight := "normal"
		if e.Focused {
			weight = "bold"
		}
		fmt.Fprintf(svg, `<text x="%.0f" y="%.0f" font-size="%.0f" font-weight="%s" fill="%s" dominant-baseline="middle">%s</text>`,
			legendSwatch+5, legendSwatch/2, fontSize, weight, escapeXML(lg.TextColor), escapeXML(e.Title))
		svg.WriteString("</g>\n")
	}
	svg.WriteString("  </g>\n")
}

func dimmedSuffix(dimmed bool) string {
	if dimmed {
		return " dimmed"
	}
	return ""
}

// --- XML Escaping ---

func escapeXML(s string) string {
	var buf strings.Builder
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&#39;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}

// plotPoint converts a viewport point to plot coordinates.
func plotPoint(sc Scene, p chart.Point) chart.Point {
	return chart.Point{X: p.X - sc.Margin.Left, Y: p.Y - sc.Margin.Top}
}
