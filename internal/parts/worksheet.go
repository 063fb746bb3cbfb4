package parts

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/valyala/bytebufferpool"

	"github.com/fuabioo/xlcodec/internal/cellref"
	"github.com/fuabioo/xlcodec/internal/model"
	"github.com/fuabioo/xlcodec/internal/sst"
	"github.com/fuabioo/xlcodec/internal/styles"
	"github.com/fuabioo/xlcodec/internal/xldate"
	"github.com/fuabioo/xlcodec/internal/xmlscan"
)

// NumError is written for numbers the format cannot represent.
const NumError = "#NUM!"

// Default sheet sizing used when BuildOptions leaves them unset.
const (
	DefaultRowHeight = 15.0
	DefaultColWidth  = 8.43
)

var externalPrefixes = []string{"http://", "https://", "ftp://", "mailto:", "file:", "news:"}

var sheetLocation = regexp.MustCompile(`^(?:'[^']+'|[^!]+)!\$?[A-Za-z]{1,3}\$?[0-9]+(?::\$?[A-Za-z]{1,3}\$?[0-9]+)?$`)

// ClassifyLink splits hyperlink targets into external URLs, which need a
// relationship, and in-document locations. Unrecognized targets are treated
// as external.
func ClassifyLink(target string) (external bool, location string) {
	lower := strings.ToLower(target)
	for _, p := range externalPrefixes {
		if strings.HasPrefix(lower, p) {
			return true, ""
		}
	}
	if strings.HasPrefix(target, "#") {
		return false, target[1:]
	}
	if sheetLocation.MatchString(target) {
		return false, target
	}
	return true, ""
}

// LinkTarget is the inverse of ClassifyLink for in-document locations. The
// canonical in-document form is '#'-prefixed, so "#Sheet!A1" survives a round
// trip and "Sheet!A1" reads back as "#Sheet!A1".
func LinkTarget(location string) string {
	return "#" + location
}

// CanonicalLinkTarget returns the form a target reads back as after export.
func CanonicalLinkTarget(target string) string {
	if external, location := ClassifyLink(target); !external {
		return LinkTarget(location)
	}
	return target
}

// EffectiveStyle returns the style a cell is emitted with. Dates without an
// explicit number format get the built-in date or date-time format.
func EffectiveStyle(c *model.Cell) *styles.Descriptor {
	d, ok := dateOf(c.Value)
	if !ok || (c.Style != nil && c.Style.NumberFormat != "") {
		return c.Style
	}
	id := styles.DateNumFmtID
	if xldate.HasTime(d.Time) {
		id = styles.DateTimeNumFmtID
	}
	code, _ := styles.BuiltinNumFmt(id)
	s := c.Style.Clone()
	if s == nil {
		s = &styles.Descriptor{}
	}
	s.NumberFormat = code
	return s
}

func dateOf(v model.Value) (model.Date, bool) {
	switch x := v.(type) {
	case model.Date:
		return x, true
	case model.Formula:
		d, ok := x.Result.(model.Date)
		return d, ok
	}
	return model.Date{}, false
}

// FormatNumber renders a float the way cell values are stored.
func FormatNumber(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-9 || abs >= 1e21) {
		return strconv.FormatFloat(f, 'E', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Worksheet generates the worksheet part for e and returns the relationship
// records the sheet needs (external hyperlinks, then comments).
func Worksheet(b *BuildContext, e SheetEntry) (string, []Relationship, error) {
	if err := b.check(); err != nil {
		return "", nil, err
	}
	s := e.Sheet
	cells := s.Cells()
	var rels []Relationship

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteString(Header)
	buf.WriteString(`<worksheet xmlns="` + NSMain + `" xmlns:r="` + NSRelationships + `">`)

	dim := "A1"
	if r, ok := s.Dimension(); ok {
		dim = r.String()
	}
	buf.WriteString(`<dimension ref="` + dim + `"/>`)

	writeSheetView(buf, s.View, e.Number-1 == activeTab(b.Workbook))
	writeSheetFormat(buf, b.Options)
	writeCols(buf, s.Cols)

	buf.WriteString(`<sheetData>`)
	writeRows(buf, b, s, cells)
	buf.WriteString(`</sheetData>`)

	if merges := s.Merges(); len(merges) > 0 {
		buf.WriteString(`<mergeCells count="` + strconv.Itoa(len(merges)) + `">`)
		for _, m := range merges {
			buf.WriteString(`<mergeCell ref="` + m.String() + `"/>`)
		}
		buf.WriteString(`</mergeCells>`)
	}

	first := true
	for _, c := range cells {
		if c.Hyperlink == nil || c.Hyperlink.Target == "" || s.IsMergeSlave(c.Row, c.Col) {
			continue
		}
		if first {
			buf.WriteString(`<hyperlinks>`)
			first = false
		}
		buf.WriteString(`<hyperlink ref="` + c.Ref() + `"`)
		if external, location := ClassifyLink(c.Hyperlink.Target); external {
			id := RelID(len(rels) + 1)
			rels = append(rels, Relationship{ID: id, Type: RelHyperlink, Target: c.Hyperlink.Target, TargetMode: TargetModeExternal})
			buf.WriteString(` r:id="` + id + `"`)
		} else {
			buf.WriteString(` location="` + xmlscan.EscapeAttr(location) + `"`)
		}
		writeAttr(buf, "tooltip", c.Hyperlink.Tooltip)
		writeAttr(buf, "display", c.Hyperlink.Display)
		buf.WriteString(`/>`)
	}
	if !first {
		buf.WriteString(`</hyperlinks>`)
	}

	buf.WriteString(`<pageMargins left="0.7" right="0.7" top="0.75" bottom="0.75" header="0.3" footer="0.3"/>`)
	buf.WriteString(`</worksheet>`)

	if e.HasComments {
		rels = append(rels, Relationship{
			ID:     RelID(len(rels) + 1),
			Type:   RelComments,
			Target: "../comments" + strconv.Itoa(e.Number) + ".xml",
		})
	}
	return buf.String(), rels, nil
}

func writeAttr(buf *bytebufferpool.ByteBuffer, name, value string) {
	if value == "" {
		return
	}
	buf.WriteString(` ` + name + `="`)
	buf.WriteString(xmlscan.EscapeAttr(value))
	buf.WriteString(`"`)
}

func writeSheetView(buf *bytebufferpool.ByteBuffer, v model.SheetView, selected bool) {
	buf.WriteString(`<sheetViews><sheetView`)
	if v.HideGridLines {
		buf.WriteString(` showGridLines="0"`)
	}
	if selected {
		buf.WriteString(` tabSelected="1"`)
	}
	if v.Zoom > 0 && v.Zoom != 100 {
		buf.WriteString(` zoomScale="` + strconv.Itoa(v.Zoom) + `"`)
	}
	buf.WriteString(` workbookViewId="0">`)

	pane := ""
	if v.FrozenRows > 0 || v.FrozenCols > 0 {
		switch {
		case v.FrozenRows > 0 && v.FrozenCols > 0:
			pane = "bottomRight"
		case v.FrozenRows > 0:
			pane = "bottomLeft"
		default:
			pane = "topRight"
		}
		buf.WriteString(`<pane`)
		if v.FrozenCols > 0 {
			buf.WriteString(` xSplit="` + strconv.Itoa(v.FrozenCols) + `"`)
		}
		if v.FrozenRows > 0 {
			buf.WriteString(` ySplit="` + strconv.Itoa(v.FrozenRows) + `"`)
		}
		buf.WriteString(` topLeftCell="` + cellref.Encode(v.FrozenRows, v.FrozenCols) + `"`)
		buf.WriteString(` activePane="` + pane + `" state="frozen"/>`)
	}
	if v.ActiveCell != "" || pane != "" {
		buf.WriteString(`<selection`)
		if pane != "" {
			buf.WriteString(` pane="` + pane + `"`)
		}
		if v.ActiveCell != "" {
			ref := xmlscan.EscapeAttr(v.ActiveCell)
			buf.WriteString(` activeCell="` + ref + `" sqref="` + ref + `"`)
		}
		buf.WriteString(`/>`)
	}
	buf.WriteString(`</sheetView></sheetViews>`)
}

func writeSheetFormat(buf *bytebufferpool.ByteBuffer, opts BuildOptions) {
	height := opts.DefaultRowHeight
	if height <= 0 {
		height = DefaultRowHeight
	}
	buf.WriteString(`<sheetFormatPr`)
	if opts.DefaultColWidth > 0 {
		buf.WriteString(` defaultColWidth="` + FormatNumber(opts.DefaultColWidth) + `"`)
	}
	buf.WriteString(` defaultRowHeight="` + FormatNumber(height) + `"/>`)
}

func writeCols(buf *bytebufferpool.ByteBuffer, cols map[int]model.ColInfo) {
	if len(cols) == 0 {
		return
	}
	idx := make([]int, 0, len(cols))
	for c := range cols {
		idx = append(idx, c)
	}
	sort.Ints(idx)

	buf.WriteString(`<cols>`)
	for _, c := range idx {
		info := cols[c]
		n := strconv.Itoa(c + 1)
		buf.WriteString(`<col min="` + n + `" max="` + n + `"`)
		if info.Width > 0 {
			buf.WriteString(` width="` + FormatNumber(info.Width) + `" customWidth="1"`)
		}
		if info.Hidden {
			buf.WriteString(` hidden="1"`)
		}
		buf.WriteString(`/>`)
	}
	buf.WriteString(`</cols>`)
}

func writeRows(buf *bytebufferpool.ByteBuffer, b *BuildContext, s *model.Sheet, cells []*model.Cell) {
	rowSet := make(map[int]bool, len(s.Rows))
	for r := range s.Rows {
		rowSet[r] = true
	}
	for _, c := range cells {
		rowSet[c.Row] = true
	}
	rows := make([]int, 0, len(rowSet))
	for r := range rowSet {
		rows = append(rows, r)
	}
	sort.Ints(rows)

	i := 0
	for _, r := range rows {
		start := i
		for i < len(cells) && cells[i].Row == r {
			i++
		}
		rowCells := cells[start:i]

		info, hasInfo := s.Rows[r]
		body := bytebufferpool.Get()
		for _, c := range rowCells {
			if s.IsMergeSlave(c.Row, c.Col) {
				continue
			}
			writeCell(body, b, c)
		}
		if body.Len() == 0 && (!hasInfo || (info.Height <= 0 && !info.Hidden)) {
			bytebufferpool.Put(body)
			continue
		}

		buf.WriteString(`<row r="` + strconv.Itoa(r+1) + `"`)
		if info.Height > 0 {
			buf.WriteString(` ht="` + FormatNumber(info.Height) + `" customHeight="1"`)
		}
		if info.Hidden {
			buf.WriteString(` hidden="1"`)
		}
		if body.Len() == 0 {
			buf.WriteString(`/>`)
		} else {
			buf.WriteString(`>`)
			buf.Write(body.B)
			buf.WriteString(`</row>`)
		}
		bytebufferpool.Put(body)
	}
}

// writeCell emits one <c> element, or nothing when the cell carries neither
// value nor style.
func writeCell(buf *bytebufferpool.ByteBuffer, b *BuildContext, c *model.Cell) {
	style := b.Styles.Lookup(EffectiveStyle(c))
	if c.Value == nil && style == 0 {
		return
	}

	buf.WriteString(`<c r="` + c.Ref() + `"`)
	if style != 0 {
		buf.WriteString(` s="` + strconv.Itoa(style) + `"`)
	}
	if c.Value == nil {
		buf.WriteString(`/>`)
		return
	}

	switch v := c.Value.(type) {
	case model.Text:
		writeString(buf, b, string(v))
	case model.RichText:
		writeString(buf, b, v.String())
	case model.Number:
		writeNumber(buf, float64(v), "")
	case model.Bool:
		buf.WriteString(` t="b"><v>` + boolDigit(bool(v)) + `</v></c>`)
	case model.Date:
		buf.WriteString(`><v>` + FormatNumber(xldate.ToSerial(v.Time)) + `</v></c>`)
	case model.ErrorValue:
		buf.WriteString(` t="e"><v>` + xmlscan.EscapeText(string(v)) + `</v></c>`)
	case model.Formula:
		writeFormula(buf, v)
	}
}

func boolDigit(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func writeString(buf *bytebufferpool.ByteBuffer, b *BuildContext, text string) {
	if b.Options.SharedStrings {
		if i, ok := b.Strings.Lookup(text); ok {
			buf.WriteString(` t="s"><v>` + strconv.Itoa(i) + `</v></c>`)
			return
		}
	}
	buf.WriteString(` t="inlineStr"><is>`)
	sst.WriteText(buf, text)
	buf.WriteString(`</is></c>`)
}

// writeNumber emits a numeric value; formula is the already rendered <f>
// element, if any.
func writeNumber(buf *bytebufferpool.ByteBuffer, f float64, formula string) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		buf.WriteString(` t="e">` + formula + `<v>` + NumError + `</v></c>`)
		return
	}
	buf.WriteString(`>` + formula + `<v>` + FormatNumber(f) + `</v></c>`)
}

func writeFormula(buf *bytebufferpool.ByteBuffer, f model.Formula) {
	expr := `<f>` + xmlscan.EscapeText(strings.TrimPrefix(f.Expr, "=")) + `</f>`
	switch r := f.Result.(type) {
	case nil:
		buf.WriteString(`>` + expr + `</c>`)
	case model.Text:
		buf.WriteString(` t="str">` + expr + `<v>` + xmlscan.EscapeText(string(r)) + `</v></c>`)
	case model.RichText:
		buf.WriteString(` t="str">` + expr + `<v>` + xmlscan.EscapeText(r.String()) + `</v></c>`)
	case model.Number:
		writeNumber(buf, float64(r), expr)
	case model.Bool:
		buf.WriteString(` t="b">` + expr + `<v>` + boolDigit(bool(r)) + `</v></c>`)
	case model.Date:
		writeNumber(buf, xldate.ToSerial(r.Time), expr)
	case model.ErrorValue:
		buf.WriteString(` t="e">` + expr + `<v>` + xmlscan.EscapeText(string(r)) + `</v></c>`)
	case model.Formula:
		writeFormula(buf, model.Formula{Expr: f.Expr, Result: r.Result})
	}
}
