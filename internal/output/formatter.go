package output

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fuabioo/xlcodec/internal/cellref"
	"github.com/fuabioo/xlcodec/internal/model"
)

// Format represents output format options
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
)

// ErrUnknownFormat is returned for format names other than json, csv and tsv.
var ErrUnknownFormat = errors.New("unknown format")

// ParseFormat normalizes a format name. The empty string selects JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV, FormatTSV:
		return f, nil
	case "":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %s (valid: json, csv, tsv)", ErrUnknownFormat, s)
}

// Formatter renders grids of display strings.
type Formatter interface {
	// FormatRows renders rows, one line per row for the delimited formats.
	FormatRows(rows [][]string) ([]byte, error)
}

// NewFormatter creates a formatter for the specified format
func NewFormatter(format string) (Formatter, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	switch f {
	case FormatCSV:
		return &DelimitedFormatter{Comma: ','}, nil
	case FormatTSV:
		return &DelimitedFormatter{Comma: '\t'}, nil
	}
	return &JSONFormatter{}, nil
}

// JSONFormatter outputs rows as a JSON array of arrays.
type JSONFormatter struct{}

func (f *JSONFormatter) FormatRows(rows [][]string) ([]byte, error) {
	if rows == nil {
		rows = [][]string{}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON rows: %w", err)
	}
	return append(data, '\n'), nil
}

// DelimitedFormatter outputs CSV, or TSV when Comma is a tab. Fields are
// quoted as needed so embedded separators and newlines survive.
type DelimitedFormatter struct {
	Comma rune
}

func (f *DelimitedFormatter) FormatRows(rows [][]string) ([]byte, error) {
	var buf strings.Builder
	w := csv.NewWriter(&buf)
	w.Comma = f.Comma
	for i, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("delimited writer error: %w", err)
	}
	return []byte(buf.String()), nil
}

// Grid renders the used range of a sheet as display strings, starting at
// A1 so cell positions are preserved. Merge slaves render empty.
func Grid(s *model.Sheet) [][]string {
	dim, ok := s.Dimension()
	if !ok {
		return nil
	}
	rows := make([][]string, dim.End.Row+1)
	width := dim.End.Col + 1
	for r := range rows {
		rows[r] = make([]string, width)
	}
	for _, c := range s.Cells() {
		if s.IsMergeSlave(c.Row, c.Col) {
			continue
		}
		rows[c.Row][c.Col] = model.Display(c.Value)
	}
	return rows
}

// HeaderRow returns column letters for a grid of the given width, useful as
// a first CSV line.
func HeaderRow(width int) []string {
	h := make([]string, width)
	for i := range h {
		h[i] = cellref.ColumnName(i)
	}
	return h
}

// FormatRows is a convenience function for formatting row data
func FormatRows(format string, rows [][]string) ([]byte, error) {
	f, err := NewFormatter(format)
	if err != nil {
		return nil, fmt.Errorf("failed to create formatter: %w", err)
	}

	data, err := f.FormatRows(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to format rows: %w", err)
	}
	return data, nil
}

// FormatSingle formats one object. JSON marshals it indented; the delimited
// formats need a grid, so anything else is rejected for them.
func FormatSingle(format string, v any) ([]byte, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	if f == FormatJSON {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return append(data, '\n'), nil
	}
	rows, ok := v.([][]string)
	if !ok {
		return nil, fmt.Errorf("%w: %s output needs tabular data, got %T", ErrUnknownFormat, f, v)
	}
	return FormatRows(string(f), rows)
}
