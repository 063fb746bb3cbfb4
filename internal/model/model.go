// Package model is the in-memory spreadsheet the codec reads from and
// writes into: workbooks, sheets, cells and their tagged values.
package model

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/fuabioo/xlcodec/internal/cellref"
	"github.com/fuabioo/xlcodec/internal/styles"
)

// Error types
var (
	ErrDuplicateSheet = errors.New("duplicate sheet name")
	ErrInvalidSheet   = errors.New("invalid sheet name")
)

// Sheet visibility states.
const (
	StateVisible    = "visible"
	StateHidden     = "hidden"
	StateVeryHidden = "veryHidden"
)

// MaxSheetNameLength is the longest sheet name a package accepts.
const MaxSheetNameLength = 31

// Hyperlink is a link attached to a cell. Targets starting with '#' or of
// the form Sheet!A1 point inside the workbook; imports always report them
// in the '#' form.
type Hyperlink struct {
	Target  string `json:"target"`
	Tooltip string `json:"tooltip,omitempty"`
	Display string `json:"display,omitempty"`
}

// Comment is a note attached to a cell.
type Comment struct {
	Text   string `json:"text"`
	Author string `json:"author,omitempty"`
}

// Cell is a single addressed cell. Row and Col are 0-based.
type Cell struct {
	Row       int
	Col       int
	Value     Value
	Style     *styles.Descriptor
	Hyperlink *Hyperlink
	Comment   *Comment
}

// Ref returns the cell address.
func (c *Cell) Ref() string {
	return cellref.Encode(c.Row, c.Col)
}

// IsEmpty reports whether the cell carries nothing worth storing.
func (c *Cell) IsEmpty() bool {
	return c.Value == nil && c.Style.IsEmpty() && c.Hyperlink == nil && c.Comment == nil
}

// ColInfo holds per-column layout.
type ColInfo struct {
	Width  float64 `json:"width,omitempty"`
	Hidden bool    `json:"hidden,omitempty"`
}

// RowInfo holds per-row layout.
type RowInfo struct {
	Height float64 `json:"height,omitempty"`
	Hidden bool    `json:"hidden,omitempty"`
}

// SheetView is the display state of a sheet. Zero values mean the format
// defaults (grid lines shown, zoom 100, no frozen panes).
type SheetView struct {
	FrozenRows    int    `json:"frozenRows,omitempty"`
	FrozenCols    int    `json:"frozenCols,omitempty"`
	HideGridLines bool   `json:"hideGridLines,omitempty"`
	Zoom          int    `json:"zoom,omitempty"`
	ActiveCell    string `json:"activeCell,omitempty"`
}

// IsDefault reports whether v carries nothing beyond defaults.
func (v SheetView) IsDefault() bool {
	return v == SheetView{}
}

type cellKey struct{ row, col int }

// Sheet is a named grid of cells.
type Sheet struct {
	Name  string
	State string
	View  SheetView
	Cols  map[int]ColInfo
	Rows  map[int]RowInfo

	cells  map[cellKey]*Cell
	merges []cellref.Range
}

// NewSheet creates an empty visible sheet.
func NewSheet(name string) *Sheet {
	return &Sheet{
		Name:  name,
		State: StateVisible,
		Cols:  make(map[int]ColInfo),
		Rows:  make(map[int]RowInfo),
		cells: make(map[cellKey]*Cell),
	}
}

// Cell returns the cell at (row, col) if it exists.
func (s *Sheet) Cell(row, col int) (*Cell, bool) {
	c, ok := s.cells[cellKey{row, col}]
	return c, ok
}

// Touch returns the cell at (row, col), creating it if needed.
func (s *Sheet) Touch(row, col int) *Cell {
	k := cellKey{row, col}
	if c, ok := s.cells[k]; ok {
		return c
	}
	c := &Cell{Row: row, Col: col}
	s.cells[k] = c
	return c
}

// SetValue stores v at (row, col).
func (s *Sheet) SetValue(row, col int, v Value) *Cell {
	c := s.Touch(row, col)
	c.Value = v
	return c
}

// SetValueAt is SetValue addressed by reference, e.g. "B3".
func (s *Sheet) SetValueAt(ref string, v Value) (*Cell, error) {
	r, err := cellref.Decode(ref)
	if err != nil {
		return nil, err
	}
	return s.SetValue(r.Row, r.Col, v), nil
}

// Delete removes the cell at (row, col).
func (s *Sheet) Delete(row, col int) {
	delete(s.cells, cellKey{row, col})
}

// Len returns the number of stored cells.
func (s *Sheet) Len() int {
	return len(s.cells)
}

// Cells returns every stored cell in row-major order.
func (s *Sheet) Cells() []*Cell {
	out := make([]*Cell, 0, len(s.cells))
	for _, c := range s.cells {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}

// Merge records a merged range.
func (s *Sheet) Merge(r cellref.Range) {
	s.merges = append(s.merges, r.Normalize())
}

// MergeRef records a merged range given in A1:B2 notation.
func (s *Sheet) MergeRef(ref string) error {
	r, err := cellref.ParseRange(ref)
	if err != nil {
		return err
	}
	s.Merge(r)
	return nil
}

// Merges returns the merged ranges in insertion order.
func (s *Sheet) Merges() []cellref.Range {
	return s.merges
}

// IsMergeSlave reports whether (row, col) is covered by a merge without
// being its top-left cell.
func (s *Sheet) IsMergeSlave(row, col int) bool {
	for _, m := range s.merges {
		if m.Contains(row, col) && (row != m.Start.Row || col != m.Start.Col) {
			return true
		}
	}
	return false
}

// DropMergeSlaves deletes every stored cell covered by a merge other than its
// top-left anchor and returns the removed cells.
func (s *Sheet) DropMergeSlaves() []*Cell {
	if len(s.merges) == 0 {
		return nil
	}
	var dropped []*Cell
	for k, c := range s.cells {
		if s.IsMergeSlave(k.row, k.col) {
			delete(s.cells, k)
			dropped = append(dropped, c)
		}
	}
	return dropped
}

// Dimension returns the range spanning every stored cell. ok is false for an
// empty sheet.
func (s *Sheet) Dimension() (r cellref.Range, ok bool) {
	first := true
	for k := range s.cells {
		if first {
			r = cellref.Range{Start: cellref.Ref{Row: k.row, Col: k.col}, End: cellref.Ref{Row: k.row, Col: k.col}}
			first = false
			continue
		}
		r.Start.Row = min(r.Start.Row, k.row)
		r.Start.Col = min(r.Start.Col, k.col)
		r.End.Row = max(r.End.Row, k.row)
		r.End.Col = max(r.End.Col, k.col)
	}
	return r, !first
}

// Properties is the document metadata stored in docProps.
type Properties struct {
	Title          string    `json:"title,omitempty"`
	Subject        string    `json:"subject,omitempty"`
	Creator        string    `json:"creator,omitempty"`
	Keywords       string    `json:"keywords,omitempty"`
	Description    string    `json:"description,omitempty"`
	LastModifiedBy string    `json:"lastModifiedBy,omitempty"`
	Created        time.Time `json:"created,omitempty"`
	Modified       time.Time `json:"modified,omitempty"`
	Application    string    `json:"application,omitempty"`
	Company        string    `json:"company,omitempty"`
}

// Workbook is an ordered set of sheets.
type Workbook struct {
	Sheets      []*Sheet
	ActiveSheet int
	Properties  Properties
}

// NewWorkbook creates a workbook with no sheets.
func NewWorkbook() *Workbook {
	return &Workbook{}
}

// AddSheet appends a new sheet.
func (w *Workbook) AddSheet(name string) (*Sheet, error) {
	if name == "" || len([]rune(name)) > MaxSheetNameLength {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSheet, name)
	}
	if w.Sheet(name) != nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSheet, name)
	}
	s := NewSheet(name)
	w.Sheets = append(w.Sheets, s)
	return s, nil
}

// Sheet returns the sheet with the given name, or nil.
func (w *Workbook) Sheet(name string) *Sheet {
	for _, s := range w.Sheets {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// SheetNames returns the sheet names in order.
func (w *Workbook) SheetNames() []string {
	names := make([]string, len(w.Sheets))
	for i, s := range w.Sheets {
		names[i] = s.Name
	}
	return names
}
