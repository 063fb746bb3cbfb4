package verify

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/fuabioo/xlcodec/internal/codec"
	"github.com/fuabioo/xlcodec/internal/model"
)

func testWorkbook(t *testing.T) *model.Workbook {
	t.Helper()
	wb := model.NewWorkbook()
	s, err := wb.AddSheet("Sales")
	if err != nil {
		t.Fatalf("AddSheet failed: %v", err)
	}
	s.SetValue(0, 0, model.Text("Region"))
	s.SetValue(0, 1, model.Text("Total"))
	s.SetValue(1, 0, model.Text("North"))
	s.SetValue(1, 1, model.Number(1250.75))
	s.SetValue(2, 0, model.Text("South"))
	s.SetValue(2, 1, model.Number(math.Inf(1)))
	s.SetValue(3, 0, model.Bool(false))
	s.SetValue(3, 1, model.Formula{Expr: "SUM(B2:B3)", Result: model.Number(1250.75)})
	s.SetValue(4, 0, model.NewDate(time.Date(2024, 6, 30, 8, 15, 0, 0, time.UTC)))
	link := s.SetValue(5, 0, model.Text("docs"))
	link.Hyperlink = &model.Hyperlink{Target: "https://example.com/docs"}
	back := s.SetValue(5, 1, model.Text("top"))
	back.Hyperlink = &model.Hyperlink{Target: "#Sales!A1"}
	s.Touch(6, 0).Comment = &model.Comment{Text: "audited", Author: "qa"}
	s.SetValue(7, 0, model.Text("span"))
	if err := s.MergeRef("A8:C8"); err != nil {
		t.Fatalf("MergeRef failed: %v", err)
	}

	if _, err := wb.AddSheet("Empty"); err != nil {
		t.Fatalf("AddSheet failed: %v", err)
	}
	return wb
}

func exportBytes(t *testing.T, wb *model.Workbook, opts codec.ExportOptions) []byte {
	t.Helper()
	data, err := codec.NewWriter().Export(wb, opts)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	return data
}

func TestCheckExport(t *testing.T) {
	for _, inline := range []bool{false, true} {
		wb := testWorkbook(t)
		report, err := Check(exportBytes(t, wb, codec.ExportOptions{InlineStrings: inline}), wb)
		if err != nil {
			t.Fatalf("Check failed: %v", err)
		}
		if !report.OK() {
			t.Errorf("inline=%v: unexpected mismatches: %v", inline, report.Mismatches)
		}
		if report.Sheets != 2 {
			t.Errorf("Sheets = %d; want 2", report.Sheets)
		}
		if report.Merges != 1 || report.Hyperlinks != 2 || report.Comments != 1 {
			t.Errorf("counts = %d merges, %d links, %d comments; want 1, 2, 1",
				report.Merges, report.Hyperlinks, report.Comments)
		}
	}
}

func TestCheckImportedModel(t *testing.T) {
	data := exportBytes(t, testWorkbook(t), codec.ExportOptions{})
	res, err := codec.NewReader().Import(data, codec.ImportOptions{})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	report, err := Check(data, res.Workbook)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !report.OK() {
		t.Errorf("unexpected mismatches: %v", report.Mismatches)
	}
}

func TestCheckDetectsDifferences(t *testing.T) {
	wb := testWorkbook(t)
	data := exportBytes(t, wb, codec.ExportOptions{})

	s := wb.Sheets[0]
	s.SetValue(1, 1, model.Number(99))
	s.SetValue(3, 1, model.Formula{Expr: "SUM(B2:B4)", Result: model.Number(1250.75)})
	if err := s.MergeRef("D1:E2"); err != nil {
		t.Fatalf("MergeRef failed: %v", err)
	}
	wb.Sheets[1].Name = "Renamed"

	report, err := Check(data, wb)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	fields := map[string]bool{}
	for _, m := range report.Mismatches {
		fields[m.Field] = true
	}
	for _, want := range []string{"sheets", "value", "formula", "merge"} {
		if !fields[want] {
			t.Errorf("expected a %q mismatch, got %v", want, report.Mismatches)
		}
	}
}

func TestCheckErrors(t *testing.T) {
	if _, err := Check(nil, nil); !errors.Is(err, ErrNilModel) {
		t.Errorf("Check(nil model) error = %v; want ErrNilModel", err)
	}
	if _, err := Check([]byte("junk"), model.NewWorkbook()); !errors.Is(err, ErrUnreadable) {
		t.Errorf("Check(junk) error = %v; want ErrUnreadable", err)
	}
}

func TestInspect(t *testing.T) {
	info, err := Inspect(exportBytes(t, testWorkbook(t), codec.ExportOptions{}), nil)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}

	names := map[string]bool{}
	for _, p := range info.Parts {
		names[p.Name] = true
		if p.Size == 0 {
			t.Errorf("part %s is empty", p.Name)
		}
	}
	for _, want := range []string{"[Content_Types].xml", "xl/workbook.xml", "xl/worksheets/sheet1.xml", "xl/comments1.xml"} {
		if !names[want] {
			t.Errorf("missing part %s", want)
		}
	}

	if len(info.Sheets) != 2 {
		t.Fatalf("got %d sheets; want 2", len(info.Sheets))
	}
	sales := info.Sheets[0]
	if sales.Name != "Sales" || !sales.Visible {
		t.Errorf("sheet 0 = %+v", sales)
	}
	if sales.Rows != 8 {
		t.Errorf("Rows = %d; want 8", sales.Rows)
	}
	if len(sales.Headers) != 2 || sales.Headers[0] != "Region" || sales.Headers[1] != "Total" {
		t.Errorf("Headers = %v; want [Region Total]", sales.Headers)
	}
}

func TestInspectInvalid(t *testing.T) {
	if _, err := Inspect([]byte("junk"), nil); !errors.Is(err, ErrUnreadable) {
		t.Errorf("Inspect(junk) error = %v; want ErrUnreadable", err)
	}
}
