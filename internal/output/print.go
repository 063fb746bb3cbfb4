package output

import (
	"fmt"
	"io"

	"github.com/fuabioo/xlcodec/internal/model"
)

// Print writes any result in the specified format to w.
// This is a convenience function for CLI commands.
func Print(w io.Writer, result any, format string) error {
	out, err := FormatSingle(format, result)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	_, err = w.Write(out)
	return err
}

// WriteSheets writes each sheet as a grid in a delimited format. With more
// than one sheet, every grid is preceded by a "# name" line.
func WriteSheets(w io.Writer, format string, sheets []*model.Sheet) error {
	f, err := NewFormatter(format)
	if err != nil {
		return err
	}
	for i, s := range sheets {
		if len(sheets) > 1 {
			if i > 0 {
				if _, err := io.WriteString(w, "\n"); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "# %s\n", s.Name); err != nil {
				return err
			}
		}
		out, err := f.FormatRows(Grid(s))
		if err != nil {
			return fmt.Errorf("sheet %s: %w", s.Name, err)
		}
		if _, err := w.Write(out); err != nil {
			return err
		}
	}
	return nil
}
