package raster

import (
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ParseColor understands #rgb, #rrggbb, rgb(), rgba() and CSS color names.
// Anything else is black.
func ParseColor(s string) color.Color {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(s, "#"):
		if c, ok := parseHex(s[1:]); ok {
			return c
		}
	case strings.HasPrefix(s, "rgb"):
		if c, ok := parseFunc(s); ok {
			return c
		}
	default:
		if c, ok := colornames.Map[s]; ok {
			return c
		}
	}
	return color.RGBA{A: 255}
}

func parseHex(h string) (color.RGBA, bool) {
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, true
}

// parseFunc reads rgb(r, g, b) and rgba(r, g, b, a) into a premultiplied color.
func parseFunc(s string) (color.RGBA, bool) {
	open, end := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return color.RGBA{}, false
	}
	parts := strings.Split(s[open+1:end], ",")
	if len(parts) != 3 && len(parts) != 4 {
		return color.RGBA{}, false
	}
	var ch [3]float64
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return color.RGBA{}, false
		}
		ch[i] = clampByte(v)
	}
	alpha := 1.0
	if len(parts) == 4 {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil {
			return color.RGBA{}, false
		}
		alpha = v
		if alpha < 0 {
			alpha = 0
		} else if alpha > 1 {
			alpha = 1
		}
	}
	return color.RGBA{
		R: uint8(ch[0]*alpha + 0.5),
		G: uint8(ch[1]*alpha + 0.5),
		B: uint8(ch[2]*alpha + 0.5),
		A: uint8(255*alpha + 0.5),
	}, true
}

func clampByte(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
