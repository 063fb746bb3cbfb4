package accel

import (
	"fmt"
	"reflect"

	"github.com/fuabioo/xlcodec/internal/parts"
)

const probeWorkbook = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<x:workbook xmlns:x="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<x:workbookPr date1904="0"/>
<x:bookViews><x:workbookView activeTab="1"/></x:bookViews>
<x:sheets><x:sheet name="A &amp; B" sheetId="1" r:id="rId1"/><x:sheet name="Hidden" sheetId="2" state="hidden" r:id="rId2"/></x:sheets>
</x:workbook>`

const probeRelationships = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink" Target="https://example.com/?a=1&amp;b=2" TargetMode="External"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/comments" Target="../comments1.xml"/>
</Relationships>`

const probeSharedStrings = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" count="4" uniqueCount="4">
<si><t>plain</t></si>
<si><r><rPr><b/><sz val="11"/></rPr><t>bold</t></r><r><t>tail</t></r></si>
<si><t>漢字</t><rPh sb="0" eb="2"><t>かんじ</t></rPh></si>
<si><t>&amp;lt;&#65;&gt;</t></si>
<si><t/></si>
</sst>`

const probeStyles = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<styleSheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
<numFmts count="1"><numFmt numFmtId="164" formatCode="0.00&quot;x&quot;"/></numFmts>
<fonts count="2"><font><sz val="11"/><name val="Calibri"/></font><font><b/><i val="0"/><u/><sz val="14"/><color rgb="FFFF0000"/><name val="Arial"/></font></fonts>
<fills count="3"><fill><patternFill patternType="none"/></fill><fill><patternFill patternType="gray125"/></fill><fill><patternFill patternType="solid"><fgColor rgb="FF00FF00"/><bgColor indexed="64"/></patternFill></fill></fills>
<borders count="2"><border><left/><right/><top/><bottom/><diagonal/></border><border diagonalUp="1"><left style="thin"><color rgb="FF000000"/></left><right/><top style="double"/><bottom/><diagonal style="hair"/></border></borders>
<cellStyleXfs count="1"><xf numFmtId="0" fontId="0" fillId="0" borderId="0"/></cellStyleXfs>
<cellXfs count="3"><xf numFmtId="0" fontId="0" fillId="0" borderId="0" xfId="0"/><xf numFmtId="164" fontId="1" fillId="2" borderId="1" xfId="0" applyAlignment="1"><alignment horizontal="center" wrapText="1"/><protection locked="0"/></xf><xf numFmtId="14" fontId="0" fillId="0" borderId="0" xfId="0"/></cellXfs>
<dxfs count="1"><dxf><font><i/></font></dxf></dxfs>
</styleSheet>`

const probeWorksheet = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<dimension ref="A1:D3"/>
<sheetViews><sheetView tabSelected="1" showGridLines="0" zoomScale="120" workbookViewId="0"><pane xSplit="1" ySplit="2" topLeftCell="B3" activePane="bottomRight" state="frozen"/><selection pane="bottomRight" activeCell="B3" sqref="B3"/></sheetView></sheetViews>
<cols><col min="1" max="2" width="20.5" customWidth="1"/><col min="4" max="4" width="9" hidden="1"/></cols>
<sheetData>
<row r="1" ht="30" customHeight="1"><c r="A1" t="s"><v>0</v></c><c r="B1" s="1"><v>3.25</v></c><c r="C1" t="inlineStr"><is><r><t>in&amp;</t></r><r><t>line</t></r></is></c><c r="D1" t="str"><f>A1&amp;"x"</f><v>&amp;lt;x</v></c></row>
<row hidden="1"><c><v>1</v></c><c t="b"><v>1</v></c><c r="D2" s="2"/></row>
<row r="3"><c r="A3" t="e"><v>#DIV/0!</v></c><c r="B3"><f t="shared" si="0"/><v>9</v></c></row>
<row r="4"/>
</sheetData>
<mergeCells count="1"><mergeCell ref="A3:B4"/></mergeCells>
<hyperlinks><hyperlink ref="A1" r:id="rId1" tooltip="go &amp; see"/><hyperlink ref="B1" location="Other!A1" display="Other"/></hyperlinks>
<pageMargins left="0.7" right="0.7" top="0.75" bottom="0.75" header="0.3" footer="0.3"/>
</worksheet>`

const probeWhitespace = `<sst><si><t xml:space="preserve"> padded </t></si></sst>`

// load checks the tokenizer against the structural parsers. Any difference
// on the probe documents makes the bridge unavailable.
func (b *Bridge) load() error {
	checks := []struct {
		part string
		run  func() (got, want any, err error)
	}{
		{"workbook", func() (any, any, error) {
			got, err := parseWorkbook(probeWorkbook)
			return got, parts.ParseWorkbook(probeWorkbook), err
		}},
		{"relationships", func() (any, any, error) {
			got, err := parseRelationships(probeRelationships)
			return got, parts.ParseRelationships(probeRelationships), err
		}},
		{"sharedStrings", func() (any, any, error) {
			got, err := parseSharedStrings(probeSharedStrings)
			return got, parts.ParseSharedStrings(probeSharedStrings), err
		}},
		{"styles", func() (any, any, error) {
			got, err := parseStyles(probeStyles)
			return got, parts.ParseStyles(probeStyles), err
		}},
		{"worksheet", func() (any, any, error) {
			got, err := parseWorksheet(probeWorksheet)
			return got, parts.ParseWorksheet(probeWorksheet), err
		}},
	}
	for _, c := range checks {
		got, want, err := c.run()
		if err != nil {
			return fmt.Errorf("%w: %s probe: %w", ErrUnavailable, c.part, err)
		}
		if !reflect.DeepEqual(got, want) {
			return fmt.Errorf("%w: %s", ErrMismatch, c.part)
		}
	}

	got, err := parseSharedStrings(probeWhitespace)
	if err != nil {
		return fmt.Errorf("%w: whitespace probe: %w", ErrUnavailable, err)
	}
	b.trimsText = !reflect.DeepEqual(got, parts.ParseSharedStrings(probeWhitespace))
	return nil
}
