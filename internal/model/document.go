package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/fuabioo/xlcodec/internal/cellref"
	"github.com/fuabioo/xlcodec/internal/styles"
)

// ErrInvalidDocument is returned for JSON documents that do not describe a
// workbook.
var ErrInvalidDocument = errors.New("invalid workbook document")

// Document is the JSON form of a workbook used by the CLI and MCP tools.
type Document struct {
	ActiveSheet int        `json:"activeSheet,omitempty"`
	Properties  Properties `json:"properties"`
	Sheets      []SheetDoc `json:"sheets"`
}

// SheetDoc is the JSON form of a sheet.
type SheetDoc struct {
	Name   string     `json:"name"`
	State  string     `json:"state,omitempty"`
	View   *SheetView `json:"view,omitempty"`
	Cols   []ColDoc   `json:"cols,omitempty"`
	Rows   []RowDoc   `json:"rows,omitempty"`
	Merges []string   `json:"merges,omitempty"`
	Cells  []CellDoc  `json:"cells"`
}

// ColDoc is the JSON form of a column's layout. Col is a letter name.
type ColDoc struct {
	Col string `json:"col"`
	ColInfo
}

// RowDoc is the JSON form of a row's layout. Row is 1-based.
type RowDoc struct {
	Row int `json:"row"`
	RowInfo
}

// CellDoc is the JSON form of a cell. Type selects how Value is coerced; when
// empty it is inferred from the JSON type. A non-empty Formula makes Value the
// cached result.
type CellDoc struct {
	Ref       string             `json:"ref"`
	Type      string             `json:"type,omitempty"`
	Value     any                `json:"value,omitempty"`
	Runs      []Run              `json:"runs,omitempty"`
	Formula   string             `json:"formula,omitempty"`
	Style     *styles.Descriptor `json:"style,omitempty"`
	Hyperlink *Hyperlink         `json:"hyperlink,omitempty"`
	Comment   *Comment           `json:"comment,omitempty"`
}

// ParseDocument decodes JSON into a workbook.
func ParseDocument(data []byte) (*Workbook, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return doc.Workbook()
}

// Workbook builds the in-memory workbook described by the document.
func (d *Document) Workbook() (*Workbook, error) {
	wb := NewWorkbook()
	wb.Properties = d.Properties
	wb.ActiveSheet = d.ActiveSheet

	for _, sd := range d.Sheets {
		s, err := wb.AddSheet(sd.Name)
		if err != nil {
			return nil, err
		}
		if sd.State != "" {
			switch sd.State {
			case StateVisible, StateHidden, StateVeryHidden:
				s.State = sd.State
			default:
				return nil, fmt.Errorf("%w: sheet %s: state %q", ErrInvalidDocument, sd.Name, sd.State)
			}
		}
		if sd.View != nil {
			s.View = *sd.View
		}
		for _, c := range sd.Cols {
			idx, err := cellref.ColumnIndex(c.Col)
			if err != nil {
				return nil, fmt.Errorf("sheet %s: %w", sd.Name, err)
			}
			s.Cols[idx] = c.ColInfo
		}
		for _, r := range sd.Rows {
			if r.Row < 1 || r.Row > cellref.MaxRows {
				return nil, fmt.Errorf("%w: sheet %s: row %d", ErrInvalidDocument, sd.Name, r.Row)
			}
			s.Rows[r.Row-1] = r.RowInfo
		}
		for _, m := range sd.Merges {
			if err := s.MergeRef(m); err != nil {
				return nil, fmt.Errorf("sheet %s: %w", sd.Name, err)
			}
		}
		for _, cd := range sd.Cells {
			ref, err := cellref.Decode(cd.Ref)
			if err != nil {
				return nil, fmt.Errorf("sheet %s: %w", sd.Name, err)
			}
			v, err := cd.value()
			if err != nil {
				return nil, fmt.Errorf("%w: sheet %s cell %s: %v", ErrInvalidDocument, sd.Name, cd.Ref, err)
			}
			c := s.SetValue(ref.Row, ref.Col, v)
			c.Style = cd.Style
			c.Hyperlink = cd.Hyperlink
			c.Comment = cd.Comment
		}
	}

	if len(wb.Sheets) > 0 && (wb.ActiveSheet < 0 || wb.ActiveSheet >= len(wb.Sheets)) {
		return nil, fmt.Errorf("%w: active sheet %d out of range", ErrInvalidDocument, wb.ActiveSheet)
	}
	return wb, nil
}

func (cd CellDoc) value() (Value, error) {
	if cd.Formula != "" {
		result, err := coerce(cd.Type, cd.Value, cd.Runs)
		if err != nil {
			return nil, err
		}
		return Formula{Expr: strings.TrimPrefix(cd.Formula, "="), Result: result}, nil
	}
	return coerce(cd.Type, cd.Value, cd.Runs)
}

func coerce(typ string, v any, runs []Run) (Value, error) {
	if typ == "" {
		switch x := v.(type) {
		case nil:
			if len(runs) > 0 {
				return RichText(runs), nil
			}
			return nil, nil
		case bool:
			return Bool(x), nil
		case float64, json.Number, int, int64:
			typ = KindNumber.String()
		default:
			typ = KindText.String()
		}
	}

	switch typ {
	case KindText.String():
		s, err := cast.ToStringE(v)
		return Text(s), err
	case KindNumber.String():
		if s, ok := v.(string); ok {
			switch strings.TrimSpace(s) {
			case "NaN":
				return Number(math.NaN()), nil
			case "Infinity", "+Infinity":
				return Number(math.Inf(1)), nil
			case "-Infinity":
				return Number(math.Inf(-1)), nil
			}
		}
		f, err := cast.ToFloat64E(v)
		return Number(f), err
	case KindBool.String():
		b, err := cast.ToBoolE(v)
		return Bool(b), err
	case KindDate.String():
		t, err := cast.ToTimeE(v)
		return NewDate(t), err
	case KindError.String():
		s, err := cast.ToStringE(v)
		return ErrorValue(s), err
	case KindRichText.String():
		return RichText(runs), nil
	}
	return nil, fmt.Errorf("unknown cell type %q", typ)
}

// NewDocument converts a workbook into its JSON form.
func NewDocument(wb *Workbook) *Document {
	doc := &Document{ActiveSheet: wb.ActiveSheet, Properties: wb.Properties}
	for _, s := range wb.Sheets {
		sd := SheetDoc{Name: s.Name, Cells: []CellDoc{}}
		if s.State != StateVisible {
			sd.State = s.State
		}
		if !s.View.IsDefault() {
			v := s.View
			sd.View = &v
		}
		for _, col := range sortedKeys(s.Cols) {
			sd.Cols = append(sd.Cols, ColDoc{Col: cellref.ColumnName(col), ColInfo: s.Cols[col]})
		}
		for _, row := range sortedKeys(s.Rows) {
			sd.Rows = append(sd.Rows, RowDoc{Row: row + 1, RowInfo: s.Rows[row]})
		}
		for _, m := range s.Merges() {
			sd.Merges = append(sd.Merges, m.String())
		}
		for _, c := range s.Cells() {
			sd.Cells = append(sd.Cells, newCellDoc(c))
		}
		doc.Sheets = append(doc.Sheets, sd)
	}
	return doc
}

func newCellDoc(c *Cell) CellDoc {
	cd := CellDoc{Ref: c.Ref(), Style: c.Style, Hyperlink: c.Hyperlink, Comment: c.Comment}
	v := c.Value
	if f, ok := v.(Formula); ok {
		cd.Formula = f.Expr
		v = f.Result
	}
	if v == nil {
		return cd
	}
	cd.Type = v.Kind().String()
	switch x := v.(type) {
	case Text:
		cd.Value = string(x)
	case Number:
		f := float64(x)
		switch {
		case math.IsNaN(f):
			cd.Value = "NaN"
		case math.IsInf(f, 1):
			cd.Value = "Infinity"
		case math.IsInf(f, -1):
			cd.Value = "-Infinity"
		default:
			cd.Value = f
		}
	case Bool:
		cd.Value = bool(x)
	case Date:
		cd.Value = x.Format("2006-01-02T15:04:05.000Z07:00")
	case ErrorValue:
		cd.Value = string(x)
	case RichText:
		cd.Runs = x
	}
	return cd
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// MarshalIndent renders the document as indented JSON.
func (d *Document) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Summary returns a short human readable description of the workbook.
func (d *Document) Summary() string {
	parts := make([]string, 0, len(d.Sheets))
	for _, s := range d.Sheets {
		parts = append(parts, s.Name+"("+strconv.Itoa(len(s.Cells))+")")
	}
	return strings.Join(parts, ", ")
}
