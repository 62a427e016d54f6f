// Package dataset reads tabular files into chart series.
//
// The first row holds the series titles. With UseFirstColumnAsX the first
// column supplies the x value of each row; otherwise x is the 0-based row
// index and every column is a series. Cells that do not parse as numbers
// are dropped, and series left without points are dropped too.
package dataset

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/buffos/go-linerace/internal/chart"
)

// ErrNoSeries is returned when a file yields no plottable series.
var ErrNoSeries = errors.New("no series with numeric data")

// Options controls how rows become series.
type Options struct {
	UseFirstColumnAsX bool
	Sheet             string // XLSX sheet; empty selects the first one
}

// Load picks the reader by file extension: .csv, .xlsx or .json.
func Load(path string, opts Options) ([]chart.Series, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		return ReadCSV(f, opts)
	case ".xlsx":
		return LoadXLSX(path, opts)
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return ParseJSON(data)
	default:
		return nil, fmt.Errorf("unsupported data file %q (want .csv, .xlsx or .json)", path)
	}
}

// ReadCSV parses comma separated rows.
func ReadCSV(r io.Reader, opts Options) ([]chart.Series, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return FromRows(rows, opts)
}

// LoadXLSX reads the selected sheet of an Excel workbook.
func LoadXLSX(path string, opts Options) ([]chart.Series, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrNoSeries
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	return FromRows(rows, opts)
}

// ParseJSON decodes a JSON array of series, filling in missing ids.
func ParseJSON(data []byte) ([]chart.Series, error) {
	var series []chart.Series
	if err := json.Unmarshal(data, &series); err != nil {
		return nil, fmt.Errorf("decoding series: %w", err)
	}
	out := series[:0]
	for _, s := range series {
		if len(s.Data) == 0 {
			continue
		}
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, ErrNoSeries
	}
	return out, nil
}

// FromRows converts a header row plus data rows into series.
func FromRows(rows [][]string, opts Options) ([]chart.Series, error) {
	rows = skipBlank(rows)
	if len(rows) < 2 {
		return nil, ErrNoSeries
	}
	header := rows[0]

	first := 0
	if opts.UseFirstColumnAsX {
		first = 1
	}
	width := len(header)
	for _, row := range rows[1:] {
		if len(row) > width {
			width = len(row)
		}
	}
	if width <= first {
		return nil, ErrNoSeries
	}

	series := make([]chart.Series, width-first)
	for col := first; col < width; col++ {
		s := &series[col-first]
		s.ID = uuid.NewString()
		if col < len(header) {
			s.Title = strings.TrimSpace(header[col])
		}
	}

	for i, row := range rows[1:] {
		x := float64(i)
		if opts.UseFirstColumnAsX {
			v, ok := parseCell(row, 0)
			if !ok {
				continue
			}
			x = v
		}
		for col := first; col < width; col++ {
			if y, ok := parseCell(row, col); ok {
				series[col-first].Data = append(series[col-first].Data, chart.Point{X: x, Y: y})
			}
		}
	}

	out := series[:0]
	for _, s := range series {
		if len(s.Data) > 0 {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoSeries
	}
	return out, nil
}

func parseCell(row []string, col int) (float64, bool) {
	if col >= len(row) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func skipBlank(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}
