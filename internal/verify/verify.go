// Package verify cross-checks exported packages with excelize, an engine
// that shares no code with the codec.
package verify

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/fuabioo/xlcodec/internal/model"
	"github.com/fuabioo/xlcodec/internal/parts"
	"github.com/fuabioo/xlcodec/internal/xldate"
)

// Error types
var (
	ErrUnreadable = errors.New("package cannot be opened by excelize")
	ErrNilModel   = errors.New("expected workbook is nil")
)

// Mismatch is one difference between the expected model and what excelize
// reads from the package.
type Mismatch struct {
	Sheet   string `json:"sheet"`
	Address string `json:"address,omitempty"`
	Field   string `json:"field"`
	Want    string `json:"want"`
	Got     string `json:"got"`
}

func (m Mismatch) String() string {
	where := m.Sheet
	if m.Address != "" {
		where += "!" + m.Address
	}
	return fmt.Sprintf("%s %s: want %q, got %q", where, m.Field, m.Want, m.Got)
}

// Report is the outcome of Check.
type Report struct {
	Sheets     int        `json:"sheets"`
	Cells      int        `json:"cells"`
	Merges     int        `json:"merges"`
	Hyperlinks int        `json:"hyperlinks"`
	Comments   int        `json:"comments"`
	Mismatches []Mismatch `json:"mismatches,omitempty"`
}

// OK reports whether no mismatch was found.
func (r *Report) OK() bool {
	return len(r.Mismatches) == 0
}

func (r *Report) add(sheet, addr, field, want, got string) {
	r.Mismatches = append(r.Mismatches, Mismatch{Sheet: sheet, Address: addr, Field: field, Want: want, Got: got})
}

var raw = excelize.Options{RawCellValue: true}

// Check opens data with excelize and compares sheet names, cell values,
// formulas, merges, hyperlinks and comments with want. Merge-slave cells
// are not compared since they are never written.
func Check(data []byte, want *model.Workbook) (*Report, error) {
	if want == nil {
		return nil, ErrNilModel
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	defer f.Close()

	r := &Report{}
	names := f.GetSheetList()
	wantNames := want.SheetNames()
	if strings.Join(names, "\x00") != strings.Join(wantNames, "\x00") {
		r.add("", "", "sheets", strings.Join(wantNames, ","), strings.Join(names, ","))
	}

	for _, s := range want.Sheets {
		if !contains(names, s.Name) {
			continue
		}
		r.Sheets++
		if err := checkSheet(f, s, r); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", s.Name, err)
		}
	}
	return r, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func checkSheet(f *excelize.File, s *model.Sheet, r *Report) error {
	comments, err := f.GetComments(s.Name)
	if err != nil {
		return fmt.Errorf("failed to read comments: %w", err)
	}
	byCell := make(map[string]excelize.Comment, len(comments))
	for _, c := range comments {
		byCell[c.Cell] = c
	}

	for _, c := range s.Cells() {
		if s.IsMergeSlave(c.Row, c.Col) {
			continue
		}
		ref := c.Ref()
		r.Cells++
		if err := checkValue(f, s.Name, ref, c.Value, r); err != nil {
			return err
		}

		if c.Hyperlink != nil {
			r.Hyperlinks++
			ok, target, err := f.GetCellHyperLink(s.Name, ref)
			if err != nil {
				return fmt.Errorf("failed to read hyperlink %s: %w", ref, err)
			}
			want := c.Hyperlink.Target
			if external, location := parts.ClassifyLink(want); !external {
				want = location
			}
			if !ok {
				target = ""
			}
			if target != want {
				r.add(s.Name, ref, "hyperlink", want, target)
			}
		}

		if c.Comment != nil {
			r.Comments++
			got, ok := byCell[ref]
			if !ok {
				r.add(s.Name, ref, "comment", c.Comment.Text, "")
				continue
			}
			if got.Author != c.Comment.Author {
				r.add(s.Name, ref, "comment author", c.Comment.Author, got.Author)
			}
			if text := commentText(got); text != c.Comment.Text {
				r.add(s.Name, ref, "comment", c.Comment.Text, text)
			}
		}
	}

	merges, err := f.GetMergeCells(s.Name)
	if err != nil {
		return fmt.Errorf("failed to read merges: %w", err)
	}
	got := make(map[string]bool, len(merges))
	for _, m := range merges {
		got[m.GetStartAxis()+":"+m.GetEndAxis()] = true
	}
	for _, m := range s.Merges() {
		r.Merges++
		key := m.Start.String() + ":" + m.End.String()
		if !got[key] {
			r.add(s.Name, key, "merge", key, "")
		}
	}
	return nil
}

func commentText(c excelize.Comment) string {
	if len(c.Paragraph) == 0 {
		return c.Text
	}
	var b strings.Builder
	for _, p := range c.Paragraph {
		b.WriteString(p.Text)
	}
	return b.String()
}

func checkValue(f *excelize.File, sheet, ref string, v model.Value, r *Report) error {
	if fv, ok := v.(model.Formula); ok {
		expr, err := f.GetCellFormula(sheet, ref)
		if err != nil {
			return fmt.Errorf("failed to read formula %s: %w", ref, err)
		}
		if want := strings.TrimPrefix(fv.Expr, "="); expr != want {
			r.add(sheet, ref, "formula", want, expr)
		}
		v = fv.Result
	}

	got, err := f.GetCellValue(sheet, ref, raw)
	if err != nil {
		return fmt.Errorf("failed to read cell %s: %w", ref, err)
	}
	if !sameValue(v, got) {
		r.add(sheet, ref, "value", expected(v), got)
	}
	return nil
}

// expected renders v the way it is stored in the package.
func expected(v model.Value) string {
	switch x := v.(type) {
	case nil:
		return ""
	case model.Number:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return parts.NumError
		}
		return parts.FormatNumber(f)
	case model.Bool:
		if x {
			return "1"
		}
		return "0"
	case model.Date:
		return parts.FormatNumber(xldate.ToSerial(x.Time))
	}
	return model.Display(v)
}

func sameValue(v model.Value, got string) bool {
	switch x := v.(type) {
	case model.Bool:
		if x {
			return got == "1" || strings.EqualFold(got, "TRUE")
		}
		return got == "0" || strings.EqualFold(got, "FALSE")
	case model.Number:
		if want := expected(v); want == parts.NumError {
			return got == want
		}
		g, err := strconv.ParseFloat(got, 64)
		return err == nil && g == float64(x)
	case model.Date:
		g, err := strconv.ParseFloat(got, 64)
		return err == nil && math.Abs(g-xldate.ToSerial(x.Time)) < 1e-6
	}
	return got == expected(v)
}
