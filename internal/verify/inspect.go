package verify

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/fuabioo/xlcodec/internal/archive"
)

// PartInfo describes one package entry.
type PartInfo struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// SheetInfo contains metadata about a worksheet as excelize sees it
type SheetInfo struct {
	Name      string   `json:"name"`
	Visible   bool     `json:"visible"`
	Dimension string   `json:"dimension,omitempty"`
	Rows      int      `json:"rows"`
	Cols      int      `json:"cols"`
	Headers   []string `json:"headers,omitempty"`
}

// PackageInfo is the outcome of Inspect.
type PackageInfo struct {
	Parts  []PartInfo  `json:"parts"`
	Sheets []SheetInfo `json:"sheets"`
}

// Inspect lists the entries of a package and summarizes each sheet. Rows
// are streamed, so large sheets are never loaded whole.
func Inspect(data []byte, unpacker archive.Packer) (*PackageInfo, error) {
	if unpacker == nil {
		unpacker = archive.Zip{}
	}
	files, err := unpacker.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	info := &PackageInfo{}
	for name, b := range files {
		info.Parts = append(info.Parts, PartInfo{Name: name, Size: len(b)})
	}
	sort.Slice(info.Parts, func(i, j int) bool { return info.Parts[i].Name < info.Parts[j].Name })

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	defer f.Close()

	for _, name := range f.GetSheetList() {
		si, err := sheetInfo(f, name)
		if err != nil {
			return nil, err
		}
		info.Sheets = append(info.Sheets, *si)
	}
	return info, nil
}

func sheetInfo(f *excelize.File, sheet string) (*SheetInfo, error) {
	info := &SheetInfo{Name: sheet}

	visible, err := f.GetSheetVisible(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read visibility of sheet %s: %w", sheet, err)
	}
	info.Visible = visible
	if dim, err := f.GetSheetDimension(sheet); err == nil {
		info.Dimension = dim
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	rowNum := 0
	for rows.Next() {
		rowNum++
		cols, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read columns at row %d: %w", rowNum, err)
		}
		if len(cols) > info.Cols {
			info.Cols = len(cols)
		}
		// First row = headers
		if rowNum == 1 && len(cols) > 0 {
			info.Headers = make([]string, len(cols))
			copy(info.Headers, cols)
		}
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	info.Rows = rowNum
	return info, nil
}
