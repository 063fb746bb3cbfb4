package accel

import (
	"slices"
	"strings"

	"github.com/fuabioo/xlcodec/internal/parts"
	"github.com/fuabioo/xlcodec/internal/xmlscan"
)

func parseRelationships(doc string) ([]parts.Relationship, error) {
	var rels []parts.Relationship
	err := walk(doc, func(ev *event) {
		if !ev.end && ev.name == "Relationship" {
			rels = append(rels, parts.RelationshipRecord(ev.attrs()))
		}
	})
	return rels, err
}

func parseWorkbook(doc string) (parts.WorkbookInfo, error) {
	var (
		view, pr       parts.Attrs
		sheets         []parts.WorkbookSheet
		inSheets, done bool
	)
	err := walk(doc, func(ev *event) {
		if ev.end {
			if ev.name == "sheets" && inSheets {
				inSheets, done = false, true
			}
			return
		}
		switch ev.name {
		case "workbookView":
			if view == nil {
				view = ev.attrs()
			}
		case "workbookPr":
			if pr == nil {
				pr = ev.attrs()
			}
		case "sheets":
			inSheets = !done
		case "sheet":
			if inSheets {
				sheets = append(sheets, parts.SheetRecord(ev.attrs()))
			}
		}
	})
	info := parts.WorkbookRecord(view, pr)
	info.Sheets = sheets
	return info, err
}

// runText collects the <t> text of a rich text container, skipping
// phonetic runs.
type runText struct {
	b        strings.Builder
	phonetic int
}

func (r *runText) reset() {
	r.b.Reset()
	r.phonetic = 0
}

func (r *runText) event(ev *event) {
	switch {
	case ev.name == "rPh" && !ev.end:
		r.phonetic++
	case ev.name == "rPh":
		r.phonetic--
	case ev.name == "t" && !ev.end && r.phonetic == 0:
		r.b.WriteString(ev.text())
	}
}

func parseSharedStrings(doc string) ([]string, error) {
	var (
		out  []string
		run  runText
		inSI bool
	)
	err := walk(doc, func(ev *event) {
		if ev.name == "si" {
			if !ev.end {
				inSI = true
				run.reset()
				return
			}
			if inSI {
				out = append(out, run.b.String())
				inSI = false
			}
			return
		}
		if inSI {
			run.event(ev)
		}
	})
	return out, err
}

type styleSection int

const (
	sectionNone styleSection = iota
	sectionFonts
	sectionFills
	sectionBorders
	sectionCellXfs
)

var sectionTags = map[string]styleSection{
	"fonts":   sectionFonts,
	"fills":   sectionFills,
	"borders": sectionBorders,
	"cellXfs": sectionCellXfs,
}

func parseStyles(doc string) (parts.StyleSheet, error) {
	ss := parts.StyleSheet{NumFmts: make(map[int]string)}

	var (
		section styleSection
		seen    = make(map[styleSection]bool)

		font map[string]parts.Attrs

		inFill          bool
		inPattern       bool
		pattern, fg, bg parts.Attrs

		border parts.Attrs
		sides  map[string]parts.Side
		side   string

		xf, alignment, protection parts.Attrs
	)

	err := walk(doc, func(ev *event) {
		if s, ok := sectionTags[ev.name]; ok {
			switch {
			case !ev.end && section == sectionNone && !seen[s]:
				section = s
			case ev.end && section == s:
				section = sectionNone
				seen[s] = true
			}
			return
		}
		if ev.name == "numFmt" && !ev.end {
			id, code := parts.NumFmtRecord(ev.attrs())
			ss.NumFmts[id] = code
			return
		}

		switch section {
		case sectionFonts:
			switch {
			case ev.name == "font" && !ev.end:
				font = make(map[string]parts.Attrs)
			case ev.name == "font":
				ss.Fonts = append(ss.Fonts, parts.FontRecord(font))
				font = nil
			case font != nil && !ev.end && slices.Contains(parts.FontChildren, ev.name):
				if _, ok := font[ev.name]; !ok {
					font[ev.name] = ev.attrs()
				}
			}

		case sectionFills:
			switch {
			case ev.name == "fill" && !ev.end:
				inFill, pattern, fg, bg = true, nil, nil, nil
			case ev.name == "fill":
				ss.Fills = append(ss.Fills, parts.FillRecord(pattern, fg, bg))
				inFill = false
			case !inFill:
			case ev.name == "patternFill" && !ev.end:
				if pattern == nil {
					pattern = ev.attrs()
					inPattern = true
				}
			case ev.name == "patternFill":
				inPattern = false
			case inPattern && !ev.end && ev.name == "fgColor" && fg == nil:
				fg = ev.attrs()
			case inPattern && !ev.end && ev.name == "bgColor" && bg == nil:
				bg = ev.attrs()
			}

		case sectionBorders:
			switch {
			case ev.name == "border" && !ev.end:
				border = ev.attrs()
				sides = make(map[string]parts.Side)
				side = ""
			case ev.name == "border":
				ss.Borders = append(ss.Borders, parts.BorderRecord(border, sides))
				sides = nil
			case sides == nil:
			case ev.name == side && ev.end:
				side = ""
			case side == "" && !ev.end && slices.Contains(parts.BorderSides, ev.name):
				if _, ok := sides[ev.name]; !ok {
					sides[ev.name] = parts.Side{Attrs: ev.attrs()}
					side = ev.name
				}
			case side != "" && !ev.end && ev.name == "color":
				if s := sides[side]; s.Color == nil {
					s.Color = ev.attrs()
					sides[side] = s
				}
			}

		case sectionCellXfs:
			switch {
			case ev.name == "xf" && !ev.end:
				xf, alignment, protection = ev.attrs(), nil, nil
			case ev.name == "xf":
				ss.CellXfs = append(ss.CellXfs, parts.XfRecord(xf, alignment, protection))
				xf = nil
			case xf == nil || ev.end:
			case ev.name == "alignment" && alignment == nil:
				alignment = ev.attrs()
			case ev.name == "protection" && protection == nil:
				protection = ev.attrs()
			}
		}
	})
	return ss, err
}

// worksheetState tracks the position inside a worksheet part. Only the
// first sheetView, cols and sheetData elements are read.
type worksheetState struct {
	ws parts.ParsedWorksheet

	view, pane, selection parts.Attrs
	inView                bool

	inCols, colsDone bool

	inData, dataDone bool
	inRow            bool
	row, nextRow     int
	nextCol          int

	inCell       bool
	cell         parts.ParsedCell
	vSeen, fSeen bool
	isSeen, inIs bool
	run          runText
}

func (s *worksheetState) event(ev *event) {
	switch ev.name {
	case "sheetView":
		if !ev.end && s.view == nil {
			s.view, s.inView = ev.attrs(), true
		} else if ev.end {
			s.inView = false
		}
		return
	case "pane":
		if !ev.end && s.inView && s.pane == nil {
			s.pane = ev.attrs()
		}
		return
	case "selection":
		if !ev.end && s.inView && s.selection == nil {
			s.selection = ev.attrs()
		}
		return
	case "cols":
		if !ev.end && !s.colsDone {
			s.inCols = true
		} else if ev.end && s.inCols {
			s.inCols, s.colsDone = false, true
		}
		return
	case "col":
		if !ev.end && s.inCols {
			s.ws.Cols = append(s.ws.Cols, parts.ColRecord(ev.attrs()))
		}
		return
	case "sheetData":
		if !ev.end && !s.dataDone {
			s.inData, s.nextRow = true, 1
		} else if ev.end && s.inData {
			s.inData, s.dataDone = false, true
		}
		return
	case "mergeCell":
		if !ev.end {
			if ref, ok := xmlscan.Lookup(ev.attrs(), "ref"); ok {
				s.ws.Merges = append(s.ws.Merges, ref)
			}
		}
		return
	case "hyperlink":
		if !ev.end {
			s.ws.Hyperlinks = append(s.ws.Hyperlinks, parts.HyperlinkRecord(ev.attrs()))
		}
		return
	}

	if !s.inData {
		return
	}
	switch {
	case ev.name == "row" && !ev.end:
		a := ev.attrs()
		s.row = parts.RowNumber(a, s.nextRow)
		s.nextRow = s.row + 1
		if pr, ok := parts.RowRecord(a, s.row); ok {
			s.ws.Rows = append(s.ws.Rows, pr)
		}
		s.inRow, s.nextCol = true, 0
	case ev.name == "row":
		s.inRow = false
	case !s.inRow:
	case ev.name == "c" && !ev.end:
		s.cell = parts.CellRecord(ev.attrs())
		s.inCell = true
		s.vSeen, s.fSeen, s.isSeen, s.inIs = false, false, false, false
	case ev.name == "c":
		s.nextCol = parts.PlaceCell(&s.cell, s.row, s.nextCol)
		s.ws.Cells = append(s.ws.Cells, s.cell)
		s.inCell = false
	case !s.inCell:
	default:
		s.cellEvent(ev)
	}
}

func (s *worksheetState) cellEvent(ev *event) {
	inline := s.cell.Type == "inlineStr"
	switch {
	case ev.name == "is" && !ev.end && inline && !s.isSeen:
		s.isSeen, s.inIs = true, true
		s.run.reset()
	case ev.name == "is" && ev.end && s.inIs:
		s.inIs = false
		s.cell.Value = s.run.b.String()
		s.cell.HasV = true
	case s.inIs:
		s.run.event(ev)
	case ev.end:
	case ev.name == "v" && !s.vSeen:
		s.vSeen = true
		if !inline {
			s.cell.Value = ev.text()
			s.cell.HasV = true
		}
	case ev.name == "f" && !s.fSeen:
		s.fSeen = true
		s.cell.Formula = ev.text()
	}
}

func parseWorksheet(doc string) (parts.ParsedWorksheet, error) {
	var s worksheetState
	err := walk(doc, s.event)
	s.ws.View = parts.ViewRecord(s.view, s.pane, s.selection)
	return s.ws, err
}
