package parts

import (
	"strconv"
	"strings"
	"time"

	"github.com/metakeule/fmtdate"

	"github.com/fuabioo/xlcodec/internal/model"
	"github.com/fuabioo/xlcodec/internal/xmlscan"
)

// WorkbookSheet is one entry of the workbook sheet list.
type WorkbookSheet struct {
	Name    string
	SheetID string
	RelID   string
	State   string
}

// WorkbookInfo is the parsed workbook part.
type WorkbookInfo struct {
	Sheets    []WorkbookSheet
	ActiveTab int
	Date1904  bool
}

// ParsedComment is one comment of a comments part.
type ParsedComment struct {
	Ref    string
	Author string
	Text   string
}

// ParseRelationships parses any relationships part.
func ParseRelationships(doc string) []Relationship {
	var rels []Relationship
	for _, el := range xmlscan.FindAll(doc, "Relationship") {
		rels = append(rels, RelationshipRecord(el.Attrs))
	}
	return rels
}

// ParseWorkbook parses xl/workbook.xml.
func ParseWorkbook(doc string) WorkbookInfo {
	var view, pr Attrs
	if el, ok := xmlscan.Find(doc, "workbookView"); ok {
		view = el.Attrs
	}
	if el, ok := xmlscan.Find(doc, "workbookPr"); ok {
		pr = el.Attrs
	}
	info := WorkbookRecord(view, pr)
	sheets, ok := xmlscan.Find(doc, "sheets")
	if !ok {
		return info
	}
	for _, el := range xmlscan.FindAll(sheets.Inner, "sheet") {
		info.Sheets = append(info.Sheets, SheetRecord(el.Attrs))
	}
	return info
}

// ParseSharedStrings parses xl/sharedStrings.xml. Rich runs are flattened;
// phonetic runs are dropped.
func ParseSharedStrings(doc string) []string {
	var out []string
	for _, si := range xmlscan.FindAll(doc, "si") {
		out = append(out, RunText(si.Inner))
	}
	return out
}

// RunText concatenates the <t> elements of a rich text container, skipping
// phonetic runs.
func RunText(inner string) string {
	if strings.Contains(inner, "rPh") {
		inner = stripElements(inner, "rPh")
	}
	ts := xmlscan.FindAll(inner, "t")
	if len(ts) == 1 {
		return xmlscan.Unescape(ts[0].Inner)
	}
	var b strings.Builder
	for _, t := range ts {
		b.WriteString(xmlscan.Unescape(t.Inner))
	}
	return b.String()
}

func stripElements(doc, tag string) string {
	els := xmlscan.FindAll(doc, tag)
	if len(els) == 0 {
		return doc
	}
	var b strings.Builder
	pos := 0
	for _, el := range els {
		if el.Start < pos {
			continue
		}
		b.WriteString(doc[pos:el.Start])
		pos = el.End
	}
	b.WriteString(doc[pos:])
	return b.String()
}

// ParseComments parses a comments part.
func ParseComments(doc string) []ParsedComment {
	var authors []string
	if list, ok := xmlscan.Find(doc, "authors"); ok {
		for _, a := range xmlscan.FindAll(list.Inner, "author") {
			authors = append(authors, xmlscan.Unescape(a.Inner))
		}
	}
	var out []ParsedComment
	for _, el := range xmlscan.FindAll(doc, "comment") {
		c := ParsedComment{Ref: el.AttrOr("ref", "")}
		if id := atoi(el.AttrOr("authorId", "-1")); id >= 0 && id < len(authors) {
			c.Author = authors[id]
		}
		if text, ok := xmlscan.Find(el.Inner, "text"); ok {
			c.Text = RunText(text.Inner)
		}
		out = append(out, c)
	}
	return out
}

// ParseCoreProps parses docProps/core.xml.
func ParseCoreProps(doc string) model.Properties {
	text := func(tag string) string {
		s, _ := xmlscan.Text(doc, tag)
		return s
	}
	return model.Properties{
		Title:          text("title"),
		Subject:        text("subject"),
		Creator:        text("creator"),
		Keywords:       text("keywords"),
		Description:    text("description"),
		LastModifiedBy: text("lastModifiedBy"),
		Created:        ParseW3CDTF(text("created")),
		Modified:       ParseW3CDTF(text("modified")),
	}
}

// ParseAppProps returns the application and company of docProps/app.xml.
func ParseAppProps(doc string) (application, company string) {
	app, _ := xmlscan.Text(doc, "Application")
	comp, _ := xmlscan.Text(doc, "Company")
	return app, comp
}

// ParseW3CDTF parses a docProps timestamp. Unparseable input yields the zero
// time.
func ParseW3CDTF(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC()
	}
	if t, err := fmtdate.Parse(W3CDTF, strings.TrimSuffix(s, "Z")); err == nil {
		return t.UTC()
	}
	if t, err := fmtdate.Parse("YYYY-MM-DD", s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func atof(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func parseBool(s string) bool {
	switch strings.TrimSpace(s) {
	case "1", "true", "TRUE", "True":
		return true
	}
	return false
}
