package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/buffos/go-linerace/internal/raster"
)

// --- Output Handling ---

// createOutput opens path for writing, or returns stdout when path is empty.
// The returned finish func closes the file and removes it when generation
// failed, so no partial output is left behind.
func createOutput(path string, stdout io.Writer) (io.Writer, func(genErr error) error, error) {
	if path == "" {
		log.Println("Output directed to stdout.")
		return stdout, func(genErr error) error { return genErr }, nil
	}

	log.Printf("Output directed to file: %s", path)
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file '%s': %w", path, err)
	}
	finish := func(genErr error) error {
		closeErr := f.Close()
		if genErr != nil {
			log.Printf("Removing incomplete file: %s", path)
			if err := os.Remove(path); err != nil {
				log.Printf("Warning: could not remove output file '%s' after error: %v", path, err)
			}
			return genErr
		}
		if closeErr != nil {
			return fmt.Errorf("closing output file '%s': %w", path, closeErr)
		}
		log.Printf("Output saved to: %s", path)
		return nil
	}
	return f, finish, nil
}

// imageFormat resolves the output format. An empty format is taken from the
// output file extension and falls back to svg. It returns "svg" or a raster
// format name.
func imageFormat(format, outputPath string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(outputPath)), ".")
	}
	if format == "" || format == "svg" {
		return "svg", nil
	}
	f, err := raster.ParseFormat(format)
	if err != nil {
		return "", err
	}
	return string(f), nil
}

// checkEngine validates the raster engine name.
func checkEngine(engine string) error {
	switch engine {
	case engineChrome, enginePlot:
		return nil
	default:
		return fmt.Errorf("unsupported engine '%s' (want %s or %s)", engine, engineChrome, enginePlot)
	}
}

const (
	engineChrome = "chrome"
	enginePlot   = "plot"
)
