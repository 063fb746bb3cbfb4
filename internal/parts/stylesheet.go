package parts

import (
	"strconv"

	"github.com/valyala/bytebufferpool"

	"github.com/fuabioo/xlcodec/internal/styles"
	"github.com/fuabioo/xlcodec/internal/xmlscan"
)

// Styles generates xl/styles.xml from the frozen registry. Table positions
// equal the indices cells reference.
func Styles(b *BuildContext) (string, error) {
	if err := b.check(); err != nil {
		return "", err
	}
	reg := b.Styles

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteString(Header)
	buf.WriteString(`<styleSheet xmlns="` + NSMain + `">`)

	if numFmts := reg.NumFmts(); len(numFmts) > 0 {
		buf.WriteString(`<numFmts count="` + strconv.Itoa(len(numFmts)) + `">`)
		for _, nf := range numFmts {
			buf.WriteString(`<numFmt numFmtId="` + strconv.Itoa(nf.ID) + `" formatCode="`)
			buf.WriteString(xmlscan.EscapeAttr(nf.Code))
			buf.WriteString(`"/>`)
		}
		buf.WriteString(`</numFmts>`)
	}

	fonts := reg.Fonts()
	buf.WriteString(`<fonts count="` + strconv.Itoa(len(fonts)) + `">`)
	for _, f := range fonts {
		writeFont(buf, f)
	}
	buf.WriteString(`</fonts>`)

	fills := reg.Fills()
	buf.WriteString(`<fills count="` + strconv.Itoa(len(fills)) + `">`)
	for _, f := range fills {
		writeFill(buf, f)
	}
	buf.WriteString(`</fills>`)

	borders := reg.Borders()
	buf.WriteString(`<borders count="` + strconv.Itoa(len(borders)) + `">`)
	for _, br := range borders {
		writeBorder(buf, br)
	}
	buf.WriteString(`</borders>`)

	buf.WriteString(`<cellStyleXfs count="1"><xf numFmtId="0" fontId="0" fillId="0" borderId="0"/></cellStyleXfs>`)

	xfs := reg.CellXfs()
	buf.WriteString(`<cellXfs count="` + strconv.Itoa(len(xfs)) + `">`)
	for _, xf := range xfs {
		writeXf(buf, xf)
	}
	buf.WriteString(`</cellXfs>`)

	buf.WriteString(`<cellStyles count="1"><cellStyle name="Normal" xfId="0" builtinId="0"/></cellStyles>`)
	buf.WriteString(`<dxfs count="0"/><tableStyles count="0"/>`)
	buf.WriteString(`</styleSheet>`)
	return buf.String(), nil
}

func writeColor(buf *bytebufferpool.ByteBuffer, tag, rgb string) {
	if rgb == "" {
		return
	}
	buf.WriteString(`<` + tag + ` rgb="` + rgb + `"/>`)
}

func writeFont(buf *bytebufferpool.ByteBuffer, f styles.Font) {
	buf.WriteString(`<font>`)
	if f.Bold {
		buf.WriteString(`<b/>`)
	}
	if f.Italic {
		buf.WriteString(`<i/>`)
	}
	if f.Strike {
		buf.WriteString(`<strike/>`)
	}
	switch f.Underline {
	case "":
	case "single":
		buf.WriteString(`<u/>`)
	default:
		buf.WriteString(`<u val="` + f.Underline + `"/>`)
	}
	buf.WriteString(`<sz val="` + FormatNumber(f.Size) + `"/>`)
	writeColor(buf, "color", f.Color)
	buf.WriteString(`<name val="`)
	buf.WriteString(xmlscan.EscapeAttr(f.Name))
	buf.WriteString(`"/><family val="2"/></font>`)
}

func writeFill(buf *bytebufferpool.ByteBuffer, f styles.Fill) {
	buf.WriteString(`<fill><patternFill patternType="` + f.Pattern + `"`)
	if f.FgColor == "" && f.BgColor == "" {
		buf.WriteString(`/></fill>`)
		return
	}
	buf.WriteString(`>`)
	writeColor(buf, "fgColor", f.FgColor)
	writeColor(buf, "bgColor", f.BgColor)
	buf.WriteString(`</patternFill></fill>`)
}

func writeSide(buf *bytebufferpool.ByteBuffer, tag string, s *styles.BorderSide) {
	if s == nil {
		buf.WriteString(`<` + tag + `/>`)
		return
	}
	buf.WriteString(`<` + tag + ` style="` + s.Style + `"`)
	if s.Color == "" {
		buf.WriteString(`/>`)
		return
	}
	buf.WriteString(`>`)
	writeColor(buf, "color", s.Color)
	buf.WriteString(`</` + tag + `>`)
}

func writeBorder(buf *bytebufferpool.ByteBuffer, br styles.Border) {
	buf.WriteString(`<border`)
	if br.DiagonalUp {
		buf.WriteString(` diagonalUp="1"`)
	}
	if br.DiagonalDown {
		buf.WriteString(` diagonalDown="1"`)
	}
	buf.WriteString(`>`)
	writeSide(buf, "left", br.Left)
	writeSide(buf, "right", br.Right)
	writeSide(buf, "top", br.Top)
	writeSide(buf, "bottom", br.Bottom)
	writeSide(buf, "diagonal", br.Diagonal)
	buf.WriteString(`</border>`)
}

func writeXf(buf *bytebufferpool.ByteBuffer, xf styles.CellXf) {
	buf.WriteString(`<xf numFmtId="` + strconv.Itoa(xf.NumFmtID) +
		`" fontId="` + strconv.Itoa(xf.FontID) +
		`" fillId="` + strconv.Itoa(xf.FillID) +
		`" borderId="` + strconv.Itoa(xf.BorderID) + `" xfId="0"`)
	if xf.NumFmtID != 0 {
		buf.WriteString(` applyNumberFormat="1"`)
	}
	if xf.FontID != 0 {
		buf.WriteString(` applyFont="1"`)
	}
	if xf.FillID != 0 {
		buf.WriteString(` applyFill="1"`)
	}
	if xf.BorderID != 0 {
		buf.WriteString(` applyBorder="1"`)
	}
	if xf.Alignment != nil {
		buf.WriteString(` applyAlignment="1"`)
	}
	if xf.Protection != nil {
		buf.WriteString(` applyProtection="1"`)
	}
	if xf.Alignment == nil && xf.Protection == nil {
		buf.WriteString(`/>`)
		return
	}
	buf.WriteString(`>`)
	if a := xf.Alignment; a != nil {
		buf.WriteString(`<alignment`)
		if a.Horizontal != "" {
			buf.WriteString(` horizontal="` + a.Horizontal + `"`)
		}
		if a.Vertical != "" {
			buf.WriteString(` vertical="` + a.Vertical + `"`)
		}
		if a.TextRotation != 0 {
			buf.WriteString(` textRotation="` + strconv.Itoa(a.TextRotation) + `"`)
		}
		if a.WrapText {
			buf.WriteString(` wrapText="1"`)
		}
		if a.Indent != 0 {
			buf.WriteString(` indent="` + strconv.Itoa(a.Indent) + `"`)
		}
		if a.ShrinkToFit {
			buf.WriteString(` shrinkToFit="1"`)
		}
		buf.WriteString(`/>`)
	}
	if p := xf.Protection; p != nil {
		buf.WriteString(`<protection`)
		if !p.IsLocked() {
			buf.WriteString(` locked="0"`)
		}
		if p.Hidden {
			buf.WriteString(` hidden="1"`)
		}
		buf.WriteString(`/>`)
	}
	buf.WriteString(`</xf>`)
}
