package parts

import (
	"github.com/fuabioo/xlcodec/internal/styles"
	"github.com/fuabioo/xlcodec/internal/xldate"
	"github.com/fuabioo/xlcodec/internal/xmlscan"
)

// StyleSheet is the parsed styles part. Table positions equal the indices
// used in the file.
type StyleSheet struct {
	NumFmts map[int]string
	Fonts   []styles.Font
	Fills   []styles.Fill
	Borders []styles.Border
	CellXfs []styles.CellXf
}

// ParseStyles parses xl/styles.xml.
func ParseStyles(doc string) StyleSheet {
	ss := StyleSheet{NumFmts: make(map[int]string)}

	for _, el := range xmlscan.FindAll(doc, "numFmt") {
		id, code := NumFmtRecord(el.Attrs)
		ss.NumFmts[id] = code
	}
	if fonts, ok := xmlscan.Find(doc, "fonts"); ok {
		for _, el := range xmlscan.FindAll(fonts.Inner, "font") {
			ss.Fonts = append(ss.Fonts, FontRecord(firstChildren(el.Inner, FontChildren)))
		}
	}
	if fills, ok := xmlscan.Find(doc, "fills"); ok {
		for _, el := range xmlscan.FindAll(fills.Inner, "fill") {
			pf, ok := xmlscan.Find(el.Inner, "patternFill")
			if !ok {
				ss.Fills = append(ss.Fills, FillRecord(nil, nil, nil))
				continue
			}
			colors := firstChildren(pf.Inner, []string{"fgColor", "bgColor"})
			ss.Fills = append(ss.Fills, FillRecord(pf.Attrs, colors["fgColor"], colors["bgColor"]))
		}
	}
	if borders, ok := xmlscan.Find(doc, "borders"); ok {
		for _, el := range xmlscan.FindAll(borders.Inner, "border") {
			sides := make(map[string]Side)
			for _, tag := range BorderSides {
				if side, ok := xmlscan.Find(el.Inner, tag); ok {
					s := Side{Attrs: side.Attrs}
					if c, ok := xmlscan.Find(side.Inner, "color"); ok {
						s.Color = c.Attrs
					}
					sides[tag] = s
				}
			}
			ss.Borders = append(ss.Borders, BorderRecord(el.Attrs, sides))
		}
	}
	if xfs, ok := xmlscan.Find(doc, "cellXfs"); ok {
		for _, el := range xmlscan.FindAll(xfs.Inner, "xf") {
			ch := firstChildren(el.Inner, []string{"alignment", "protection"})
			ss.CellXfs = append(ss.CellXfs, XfRecord(el.Attrs, ch["alignment"], ch["protection"]))
		}
	}
	return ss
}

// firstChildren returns the attributes of the first element of each tag
// found in inner.
func firstChildren(inner string, tags []string) map[string]Attrs {
	out := make(map[string]Attrs, len(tags))
	for _, tag := range tags {
		if el, ok := xmlscan.Find(inner, tag); ok {
			out[tag] = el.Attrs
		}
	}
	return out
}

// NumFmtCode returns the code of a number format id, custom or built-in.
func (s *StyleSheet) NumFmtCode(id int) string {
	if code, ok := s.NumFmts[id]; ok {
		return code
	}
	code, _ := styles.BuiltinNumFmt(id)
	return code
}

// IsDateStyle reports whether cell format xf displays numbers as dates.
func (s *StyleSheet) IsDateStyle(xf int) bool {
	if xf < 0 || xf >= len(s.CellXfs) {
		return false
	}
	id := s.CellXfs[xf].NumFmtID
	return xldate.IsDateFormat(id, s.NumFmtCode(id))
}

// Descriptor resolves cell format xf into a style descriptor. Parts equal
// to the format defaults are left nil; a cell format with nothing but
// defaults yields nil. ok is false when xf is out of range.
func (s *StyleSheet) Descriptor(xf int) (*styles.Descriptor, bool) {
	if xf < 0 || xf >= len(s.CellXfs) {
		return nil, false
	}
	x := s.CellXfs[xf]
	d := &styles.Descriptor{}

	if x.FontID > 0 && x.FontID < len(s.Fonts) {
		f := s.Fonts[x.FontID]
		d.Font = &f
	}
	if x.FillID > 1 && x.FillID < len(s.Fills) {
		f := s.Fills[x.FillID]
		d.Fill = &f
	}
	if x.BorderID > 0 && x.BorderID < len(s.Borders) && !s.Borders[x.BorderID].IsEmpty() {
		b := s.Borders[x.BorderID]
		d.Border = &b
	}
	if x.NumFmtID != 0 {
		d.NumberFormat = s.NumFmtCode(x.NumFmtID)
	}
	if x.Alignment != nil {
		a := *x.Alignment
		d.Alignment = &a
	}
	if x.Protection != nil {
		p := *x.Protection
		d.Protection = &p
	}
	if d.IsEmpty() {
		return nil, true
	}
	return d.Clone(), true
}
