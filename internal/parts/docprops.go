package parts

import (
	"strconv"
	"time"

	"github.com/metakeule/fmtdate"
	"github.com/valyala/bytebufferpool"

	"github.com/fuabioo/xlcodec/internal/model"
	"github.com/fuabioo/xlcodec/internal/sst"
	"github.com/fuabioo/xlcodec/internal/xmlscan"
)

// W3CDTF is the fmtdate layout of docProps timestamps (always UTC, with a
// trailing Z).
const W3CDTF = "YYYY-MM-DDThh:mm:ss"

// DefaultApplication is written to docProps/app.xml when none is set.
const DefaultApplication = "xlcodec"

// FormatW3CDTF renders t as a UTC W3CDTF timestamp.
func FormatW3CDTF(t time.Time) string {
	return fmtdate.Format(W3CDTF, t.UTC()) + "Z"
}

// Comments generates the comments part for e. Authors are listed in order
// of first appearance.
func Comments(b *BuildContext, e SheetEntry) (string, error) {
	if err := b.check(); err != nil {
		return "", err
	}
	var authors []string
	authorID := map[string]int{}
	var commented []*model.Cell
	for _, c := range e.Sheet.Cells() {
		if c.Comment == nil || e.Sheet.IsMergeSlave(c.Row, c.Col) {
			continue
		}
		if _, ok := authorID[c.Comment.Author]; !ok {
			authorID[c.Comment.Author] = len(authors)
			authors = append(authors, c.Comment.Author)
		}
		commented = append(commented, c)
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteString(Header)
	buf.WriteString(`<comments xmlns="` + NSMain + `"><authors>`)
	for _, a := range authors {
		buf.WriteString(`<author>` + xmlscan.EscapeText(a) + `</author>`)
	}
	buf.WriteString(`</authors><commentList>`)
	for _, c := range commented {
		buf.WriteString(`<comment ref="` + c.Ref() + `" authorId="` + strconv.Itoa(authorID[c.Comment.Author]) + `"><text>`)
		sst.WriteText(buf, c.Comment.Text)
		buf.WriteString(`</text></comment>`)
	}
	buf.WriteString(`</commentList></comments>`)
	return buf.String(), nil
}

func writeElement(buf *bytebufferpool.ByteBuffer, tag, text string) {
	if text == "" {
		return
	}
	buf.WriteString(`<` + tag + `>` + xmlscan.EscapeText(text) + `</` + tag + `>`)
}

// CoreProps generates docProps/core.xml. Unset timestamps default to the
// build time.
func CoreProps(b *BuildContext) (string, error) {
	if err := b.check(); err != nil {
		return "", err
	}
	p := b.Workbook.Properties
	now := b.Options.Now
	if now.IsZero() {
		now = time.Now()
	}
	created, modified := p.Created, p.Modified
	if created.IsZero() {
		created = now
	}
	if modified.IsZero() {
		modified = now
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteString(Header)
	buf.WriteString(`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"` +
		` xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/"` +
		` xmlns:dcmitype="http://purl.org/dc/dcmitype/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`)
	writeElement(buf, "dc:title", p.Title)
	writeElement(buf, "dc:subject", p.Subject)
	writeElement(buf, "dc:creator", p.Creator)
	writeElement(buf, "cp:keywords", p.Keywords)
	writeElement(buf, "dc:description", p.Description)
	writeElement(buf, "cp:lastModifiedBy", p.LastModifiedBy)
	buf.WriteString(`<dcterms:created xsi:type="dcterms:W3CDTF">` + FormatW3CDTF(created) + `</dcterms:created>`)
	buf.WriteString(`<dcterms:modified xsi:type="dcterms:W3CDTF">` + FormatW3CDTF(modified) + `</dcterms:modified>`)
	buf.WriteString(`</cp:coreProperties>`)
	return buf.String(), nil
}

// AppProps generates docProps/app.xml.
func AppProps(b *BuildContext) (string, error) {
	if err := b.check(); err != nil {
		return "", err
	}
	app := b.Workbook.Properties.Application
	if app == "" {
		app = b.Options.Application
	}
	if app == "" {
		app = DefaultApplication
	}
	n := strconv.Itoa(len(b.Sheets))

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteString(Header)
	buf.WriteString(`<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties"` +
		` xmlns:vt="http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes">`)
	writeElement(buf, "Application", app)
	buf.WriteString(`<DocSecurity>0</DocSecurity><ScaleCrop>false</ScaleCrop>`)
	buf.WriteString(`<HeadingPairs><vt:vector size="2" baseType="variant">` +
		`<vt:variant><vt:lpstr>Worksheets</vt:lpstr></vt:variant>` +
		`<vt:variant><vt:i4>` + n + `</vt:i4></vt:variant></vt:vector></HeadingPairs>`)
	buf.WriteString(`<TitlesOfParts><vt:vector size="` + n + `" baseType="lpstr">`)
	for _, e := range b.Sheets {
		writeElement(buf, "vt:lpstr", e.Sheet.Name)
	}
	buf.WriteString(`</vt:vector></TitlesOfParts>`)
	writeElement(buf, "Company", b.Workbook.Properties.Company)
	buf.WriteString(`<LinksUpToDate>false</LinksUpToDate><SharedDoc>false</SharedDoc>`)
	buf.WriteString(`<HyperlinksChanged>false</HyperlinksChanged><AppVersion>16.0300</AppVersion>`)
	buf.WriteString(`</Properties>`)
	return buf.String(), nil
}

// SharedStrings generates xl/sharedStrings.xml.
func SharedStrings(b *BuildContext) (string, error) {
	if err := b.check(); err != nil {
		return "", err
	}
	return b.Strings.XML(Header), nil
}
