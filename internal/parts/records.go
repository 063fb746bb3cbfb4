package parts

import (
	"github.com/fuabioo/xlcodec/internal/model"
	"github.com/fuabioo/xlcodec/internal/styles"
	"github.com/fuabioo/xlcodec/internal/xmlscan"
)

// Attrs are the unescaped attributes of one element, keyed by name as
// written (prefix included). A nil Attrs means the element is absent.
type Attrs = map[string]string

// Side is a border side element and the first color element inside it.
type Side struct {
	Attrs Attrs
	Color Attrs
}

// The record builders below turn element attributes into parsed records.
// Both the structural parsers and the accelerated bridge go through them,
// so the two paths only differ in how they find elements.

func attr(a Attrs, name, def string) string {
	if v, ok := xmlscan.Lookup(a, name); ok {
		return v
	}
	return def
}

// RelationshipRecord builds a relationship from its element.
func RelationshipRecord(a Attrs) Relationship {
	return Relationship{
		ID:         attr(a, "Id", ""),
		Type:       attr(a, "Type", ""),
		Target:     attr(a, "Target", ""),
		TargetMode: attr(a, "TargetMode", ""),
	}
}

// SheetRecord builds a workbook sheet entry.
func SheetRecord(a Attrs) WorkbookSheet {
	return WorkbookSheet{
		Name:    attr(a, "name", ""),
		SheetID: attr(a, "sheetId", ""),
		RelID:   attr(a, "id", ""),
		State:   attr(a, "state", model.StateVisible),
	}
}

// WorkbookRecord builds the workbook-level settings from the first
// workbookView and workbookPr elements. The sheet list is left empty.
func WorkbookRecord(view, pr Attrs) WorkbookInfo {
	return WorkbookInfo{
		ActiveTab: atoi(attr(view, "activeTab", "0")),
		Date1904:  parseBool(attr(pr, "date1904", "0")),
	}
}

// NumFmtRecord returns the id and code of a numFmt element.
func NumFmtRecord(a Attrs) (int, string) {
	return atoi(attr(a, "numFmtId", "0")), attr(a, "formatCode", "")
}

func flagRecord(a Attrs) bool {
	if a == nil {
		return false
	}
	v, ok := xmlscan.Lookup(a, "val")
	return !ok || parseBool(v)
}

// ColorRecord normalizes the rgb attribute of a color element. Theme and
// indexed colors are not resolved.
func ColorRecord(a Attrs) string {
	if a == nil {
		return ""
	}
	rgb, err := styles.NormalizeColor(attr(a, "rgb", ""))
	if err != nil {
		return ""
	}
	return rgb
}

// FontRecord builds a font from the first child element of each kind.
func FontRecord(children map[string]Attrs) styles.Font {
	f := styles.Font{
		Bold:   flagRecord(children["b"]),
		Italic: flagRecord(children["i"]),
		Strike: flagRecord(children["strike"]),
		Color:  ColorRecord(children["color"]),
	}
	if u := children["u"]; u != nil {
		f.Underline = attr(u, "val", "single")
		if f.Underline == "none" {
			f.Underline = ""
		}
	}
	if sz := children["sz"]; sz != nil {
		f.Size = atof(attr(sz, "val", "0"))
	}
	if name := children["name"]; name != nil {
		f.Name = attr(name, "val", "")
	}
	return f
}

// FontChildren are the font child elements FontRecord reads.
var FontChildren = []string{"b", "i", "strike", "u", "sz", "color", "name"}

// FillRecord builds a fill from its patternFill element and that element's
// first fgColor and bgColor.
func FillRecord(pattern, fg, bg Attrs) styles.Fill {
	if pattern == nil {
		return styles.Fill{Pattern: "none"}
	}
	return styles.Fill{
		Pattern: attr(pattern, "patternType", "none"),
		FgColor: ColorRecord(fg),
		BgColor: ColorRecord(bg),
	}
}

// BorderSides are the side elements BorderRecord reads; start and end are
// the bidi spellings of left and right.
var BorderSides = []string{"left", "right", "top", "bottom", "diagonal", "start", "end"}

func sideRecord(sides map[string]Side, tags ...string) *styles.BorderSide {
	for _, tag := range tags {
		s, ok := sides[tag]
		if !ok {
			continue
		}
		style := attr(s.Attrs, "style", "")
		if style == "" || style == "none" {
			return nil
		}
		return &styles.BorderSide{Style: style, Color: ColorRecord(s.Color)}
	}
	return nil
}

// BorderRecord builds a border from its element and the first side element
// of each kind.
func BorderRecord(a Attrs, sides map[string]Side) styles.Border {
	return styles.Border{
		Left:         sideRecord(sides, "left", "start"),
		Right:        sideRecord(sides, "right", "end"),
		Top:          sideRecord(sides, "top"),
		Bottom:       sideRecord(sides, "bottom"),
		Diagonal:     sideRecord(sides, "diagonal"),
		DiagonalUp:   parseBool(attr(a, "diagonalUp", "0")),
		DiagonalDown: parseBool(attr(a, "diagonalDown", "0")),
	}
}

// XfRecord builds a cell format from its element and its first alignment
// and protection children.
func XfRecord(a, alignment, protection Attrs) styles.CellXf {
	xf := styles.CellXf{
		NumFmtID: atoi(attr(a, "numFmtId", "0")),
		FontID:   atoi(attr(a, "fontId", "0")),
		FillID:   atoi(attr(a, "fillId", "0")),
		BorderID: atoi(attr(a, "borderId", "0")),
	}
	if alignment != nil {
		al := styles.Alignment{
			Horizontal:   attr(alignment, "horizontal", ""),
			Vertical:     attr(alignment, "vertical", ""),
			WrapText:     parseBool(attr(alignment, "wrapText", "0")),
			TextRotation: atoi(attr(alignment, "textRotation", "0")),
			Indent:       atoi(attr(alignment, "indent", "0")),
			ShrinkToFit:  parseBool(attr(alignment, "shrinkToFit", "0")),
		}
		if al != (styles.Alignment{}) {
			xf.Alignment = &al
		}
	}
	if protection != nil {
		locked := parseBool(attr(protection, "locked", "1"))
		hidden := parseBool(attr(protection, "hidden", "0"))
		if !locked || hidden {
			xf.Protection = &styles.Protection{Locked: &locked, Hidden: hidden}
		}
	}
	return xf
}

// ColRecord builds a column layout record.
func ColRecord(a Attrs) ParsedCol {
	return ParsedCol{
		Min:    atoi(attr(a, "min", "0")),
		Max:    atoi(attr(a, "max", "0")),
		Width:  atof(attr(a, "width", "0")),
		Hidden: parseBool(attr(a, "hidden", "0")),
	}
}

// RowNumber returns the 1-based row number, or next when the row carries no
// usable r attribute.
func RowNumber(a Attrs, next int) int {
	if r := atoi(attr(a, "r", "0")); r > 0 {
		return r
	}
	return next
}

// RowRecord builds a row layout record; ok is false when the row carries no
// layout worth keeping.
func RowRecord(a Attrs, r int) (ParsedRow, bool) {
	pr := ParsedRow{Row: r, Hidden: parseBool(attr(a, "hidden", "0"))}
	if parseBool(attr(a, "customHeight", "0")) {
		pr.Height = atof(attr(a, "ht", "0"))
	}
	return pr, pr.Height > 0 || pr.Hidden
}

// CellRecord builds a cell from its element attributes. Value and formula
// are filled in by the caller.
func CellRecord(a Attrs) ParsedCell {
	return ParsedCell{
		Ref:   attr(a, "r", ""),
		Type:  attr(a, "t", ""),
		Style: atoi(attr(a, "s", "0")),
	}
}

// HyperlinkRecord builds a hyperlink record.
func HyperlinkRecord(a Attrs) ParsedHyperlink {
	return ParsedHyperlink{
		Ref:      attr(a, "ref", ""),
		RelID:    attr(a, "id", ""),
		Location: attr(a, "location", ""),
		Display:  attr(a, "display", ""),
		Tooltip:  attr(a, "tooltip", ""),
	}
}

// ViewRecord builds a sheet view from the first sheetView element and its
// first pane and selection children. A nil view yields the defaults.
func ViewRecord(view, pane, selection Attrs) ParsedView {
	v := ParsedView{
		TabSelected:   parseBool(attr(view, "tabSelected", "0")),
		ShowGridLines: parseBool(attr(view, "showGridLines", "1")),
		Zoom:          atoi(attr(view, "zoomScale", "0")),
	}
	if pane != nil {
		state := attr(pane, "state", "")
		if state == "frozen" || state == "frozenSplit" {
			v.FrozenCols = int(atof(attr(pane, "xSplit", "0")))
			v.FrozenRows = int(atof(attr(pane, "ySplit", "0")))
		}
	}
	if selection != nil {
		v.ActiveCell = attr(selection, "activeCell", "")
	}
	return v
}
