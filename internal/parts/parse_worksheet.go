package parts

import (
	"github.com/fuabioo/xlcodec/internal/cellref"
	"github.com/fuabioo/xlcodec/internal/xmlscan"
)

// ParsedCell is a raw cell record. Value holds the <v> text (or the inline
// string for t="inlineStr") and still needs resolving against the shared
// strings and styles.
type ParsedCell struct {
	Ref     string
	Type    string
	Style   int
	Value   string
	HasV    bool
	Formula string
}

// ParsedHyperlink is one hyperlink element.
type ParsedHyperlink struct {
	Ref      string
	RelID    string
	Location string
	Display  string
	Tooltip  string
}

// ParsedCol is one column layout record. Min and Max are 1-based.
type ParsedCol struct {
	Min    int
	Max    int
	Width  float64
	Hidden bool
}

// ParsedRow is the layout of one row. Row is 1-based.
type ParsedRow struct {
	Row    int
	Height float64
	Hidden bool
}

// ParsedView is the first sheet view.
type ParsedView struct {
	TabSelected   bool
	ShowGridLines bool
	Zoom          int
	FrozenRows    int
	FrozenCols    int
	ActiveCell    string
}

// ParsedWorksheet is the parsed content of a worksheet part.
type ParsedWorksheet struct {
	Cells      []ParsedCell
	Rows       []ParsedRow
	Cols       []ParsedCol
	Merges     []string
	Hyperlinks []ParsedHyperlink
	View       ParsedView
}

// ParseWorksheet parses a worksheet part. Cells without an r attribute are
// addressed from their position in the row.
func ParseWorksheet(doc string) ParsedWorksheet {
	var ws ParsedWorksheet

	var view, pane, selection Attrs
	if el, ok := xmlscan.Find(doc, "sheetView"); ok {
		view = el.Attrs
		ch := firstChildren(el.Inner, []string{"pane", "selection"})
		pane, selection = ch["pane"], ch["selection"]
	}
	ws.View = ViewRecord(view, pane, selection)

	if cols, ok := xmlscan.Find(doc, "cols"); ok {
		for _, el := range xmlscan.FindAll(cols.Inner, "col") {
			ws.Cols = append(ws.Cols, ColRecord(el.Attrs))
		}
	}

	if data, ok := xmlscan.Find(doc, "sheetData"); ok {
		nextRow := 1
		for _, row := range xmlscan.FindAll(data.Inner, "row") {
			r := RowNumber(row.Attrs, nextRow)
			nextRow = r + 1
			if pr, ok := RowRecord(row.Attrs, r); ok {
				ws.Rows = append(ws.Rows, pr)
			}
			if row.SelfClosing {
				continue
			}
			nextCol := 0
			for _, c := range xmlscan.FindAll(row.Inner, "c") {
				pc := parseCell(c)
				nextCol = PlaceCell(&pc, r, nextCol)
				ws.Cells = append(ws.Cells, pc)
			}
		}
	}

	for _, el := range xmlscan.FindAll(doc, "mergeCell") {
		if ref, ok := el.Attr("ref"); ok {
			ws.Merges = append(ws.Merges, ref)
		}
	}
	for _, el := range xmlscan.FindAll(doc, "hyperlink") {
		ws.Hyperlinks = append(ws.Hyperlinks, HyperlinkRecord(el.Attrs))
	}
	return ws
}

// PlaceCell addresses a cell that carries no reference from its position in
// row r and returns the column index following it.
func PlaceCell(pc *ParsedCell, r, nextCol int) int {
	if pc.Ref == "" {
		pc.Ref = cellref.Encode(r-1, nextCol)
	}
	if ref, err := cellref.Decode(pc.Ref); err == nil {
		return ref.Col + 1
	}
	return nextCol
}

func parseCell(c xmlscan.Element) ParsedCell {
	pc := CellRecord(c.Attrs)
	if c.SelfClosing {
		return pc
	}
	if pc.Type == "inlineStr" {
		if is, ok := xmlscan.Find(c.Inner, "is"); ok {
			pc.Value = RunText(is.Inner)
			pc.HasV = true
		}
	} else if v, ok := xmlscan.Text(c.Inner, "v"); ok {
		pc.Value = v
		pc.HasV = true
	}
	if f, ok := xmlscan.Text(c.Inner, "f"); ok {
		pc.Formula = f
	}
	return pc
}
