package parts

import (
	"strconv"

	"github.com/valyala/bytebufferpool"

	"github.com/fuabioo/xlcodec/internal/model"
	"github.com/fuabioo/xlcodec/internal/xmlscan"
)

const (
	ctWorkbook      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"
	ctWorksheet     = "application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"
	ctStyles        = "application/vnd.openxmlformats-officedocument.spreadsheetml.styles+xml"
	ctSharedStrings = "application/vnd.openxmlformats-officedocument.spreadsheetml.sharedStrings+xml"
	ctComments      = "application/vnd.openxmlformats-officedocument.spreadsheetml.comments+xml"
	ctCoreProps     = "application/vnd.openxmlformats-package.core-properties+xml"
	ctAppProps      = "application/vnd.openxmlformats-officedocument.extended-properties+xml"
	ctRelationships = "application/vnd.openxmlformats-package.relationships+xml"
)

func writeOverride(buf *bytebufferpool.ByteBuffer, partName, contentType string) {
	buf.WriteString(`<Override PartName="/`)
	buf.WriteString(partName)
	buf.WriteString(`" ContentType="`)
	buf.WriteString(contentType)
	buf.WriteString(`"/>`)
}

// ContentTypes generates [Content_Types].xml.
func ContentTypes(b *BuildContext) (string, error) {
	if err := b.check(); err != nil {
		return "", err
	}
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteString(Header)
	buf.WriteString(`<Types xmlns="` + NSContentTypes + `">`)
	buf.WriteString(`<Default Extension="rels" ContentType="` + ctRelationships + `"/>`)
	buf.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	writeOverride(buf, PathWorkbook, ctWorkbook)
	for _, e := range b.Sheets {
		writeOverride(buf, SheetPath(e.Number), ctWorksheet)
	}
	writeOverride(buf, PathStyles, ctStyles)
	if b.Options.SharedStrings {
		writeOverride(buf, PathSharedStrings, ctSharedStrings)
	}
	for _, e := range b.Sheets {
		if e.HasComments {
			writeOverride(buf, CommentsPath(e.Number), ctComments)
		}
	}
	if b.Options.IncludeProperties {
		writeOverride(buf, PathCoreProps, ctCoreProps)
		writeOverride(buf, PathAppProps, ctAppProps)
	}
	buf.WriteString(`</Types>`)
	return buf.String(), nil
}

func relationships(rels []Relationship) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteString(Header)
	buf.WriteString(`<Relationships xmlns="` + NSPackageRels + `">`)
	for _, r := range rels {
		buf.WriteString(`<Relationship Id="`)
		buf.WriteString(xmlscan.EscapeAttr(r.ID))
		buf.WriteString(`" Type="`)
		buf.WriteString(r.Type)
		buf.WriteString(`" Target="`)
		buf.WriteString(xmlscan.EscapeAttr(r.Target))
		buf.WriteString(`"`)
		if r.TargetMode != "" {
			buf.WriteString(` TargetMode="`)
			buf.WriteString(r.TargetMode)
			buf.WriteString(`"`)
		}
		buf.WriteString(`/>`)
	}
	buf.WriteString(`</Relationships>`)
	return buf.String()
}

// RootRels generates _rels/.rels.
func RootRels(b *BuildContext) (string, error) {
	if err := b.check(); err != nil {
		return "", err
	}
	rels := []Relationship{{ID: RelID(1), Type: RelOfficeDocument, Target: PathWorkbook}}
	if b.Options.IncludeProperties {
		rels = append(rels,
			Relationship{ID: RelID(2), Type: RelCoreProps, Target: PathCoreProps},
			Relationship{ID: RelID(3), Type: RelExtendedProps, Target: PathAppProps},
		)
	}
	return relationships(rels), nil
}

// WorkbookRels generates xl/_rels/workbook.xml.rels.
func WorkbookRels(b *BuildContext) (string, error) {
	if err := b.check(); err != nil {
		return "", err
	}
	rels := make([]Relationship, 0, len(b.Sheets)+2)
	for _, e := range b.Sheets {
		rels = append(rels, Relationship{
			ID:     e.RelID,
			Type:   RelWorksheet,
			Target: "worksheets/sheet" + strconv.Itoa(e.Number) + ".xml",
		})
	}
	rels = append(rels, Relationship{ID: b.StylesRelID, Type: RelStyles, Target: "styles.xml"})
	if b.Options.SharedStrings {
		rels = append(rels, Relationship{ID: b.SharedStringsRelID, Type: RelSharedStrings, Target: "sharedStrings.xml"})
	}
	return relationships(rels), nil
}

// SheetRels generates a worksheet relationships part from the records
// returned by Worksheet.
func SheetRels(rels []Relationship) string {
	return relationships(rels)
}

// Workbook generates xl/workbook.xml.
func Workbook(b *BuildContext) (string, error) {
	if err := b.check(); err != nil {
		return "", err
	}
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteString(Header)
	buf.WriteString(`<workbook xmlns="` + NSMain + `" xmlns:r="` + NSRelationships + `">`)
	buf.WriteString(`<bookViews><workbookView activeTab="`)
	buf.WriteString(strconv.Itoa(activeTab(b.Workbook)))
	buf.WriteString(`"/></bookViews><sheets>`)
	for _, e := range b.Sheets {
		buf.WriteString(`<sheet name="`)
		buf.WriteString(xmlscan.EscapeAttr(e.Sheet.Name))
		buf.WriteString(`" sheetId="`)
		buf.WriteString(strconv.Itoa(e.Number))
		buf.WriteString(`"`)
		if e.Sheet.State == model.StateHidden || e.Sheet.State == model.StateVeryHidden {
			buf.WriteString(` state="`)
			buf.WriteString(e.Sheet.State)
			buf.WriteString(`"`)
		}
		buf.WriteString(` r:id="`)
		buf.WriteString(e.RelID)
		buf.WriteString(`"/>`)
	}
	buf.WriteString(`</sheets></workbook>`)
	return buf.String(), nil
}

func activeTab(wb *model.Workbook) int {
	if wb.ActiveSheet < 0 || wb.ActiveSheet >= len(wb.Sheets) {
		return 0
	}
	return wb.ActiveSheet
}
