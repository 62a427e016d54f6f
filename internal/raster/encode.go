package raster

import (
	"fmt"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
)

// Format is an output bitmap format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpg"
)

// JPEGQuality is used when re-encoding screenshots as JPEG.
const JPEGQuality = 90

// ParseFormat accepts png, jpg and jpeg in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	default:
		return "", fmt.Errorf("unsupported image format %q", s)
	}
}

// Encode copies a PNG stream to w, re-encoding it when format is JPEG.
func Encode(pngData io.Reader, format Format, w io.Writer) error {
	switch format {
	case FormatPNG:
		if _, err := io.Copy(w, pngData); err != nil {
			return fmt.Errorf("failed to write PNG data: %w", err)
		}
	case FormatJPEG:
		img, err := png.Decode(pngData)
		if err != nil {
			return fmt.Errorf("failed to decode PNG screenshot: %w", err)
		}
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return fmt.Errorf("failed to encode JPEG: %w", err)
		}
	default:
		return fmt.Errorf("unsupported image format %q", format)
	}
	return nil
}
