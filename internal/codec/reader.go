package codec

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/fuabioo/xlcodec/internal/archive"
	"github.com/fuabioo/xlcodec/internal/cache"
	"github.com/fuabioo/xlcodec/internal/cellref"
	"github.com/fuabioo/xlcodec/internal/model"
	"github.com/fuabioo/xlcodec/internal/parts"
	"github.com/fuabioo/xlcodec/internal/styles"
	"github.com/fuabioo/xlcodec/internal/xldate"
)

// Result is the outcome of one import.
type Result struct {
	Workbook *model.Workbook
	Stats    Stats
	Warnings []Warning
}

// Reader imports xlsx packages. It holds no per-import state and is safe for
// concurrent use as long as its Accelerator is.
type Reader struct {
	cfg config
}

// NewReader creates a Reader. Without WithAccelerator every part goes
// through the structural parsers.
func NewReader(opts ...Option) *Reader {
	return &Reader{cfg: newConfig(opts)}
}

// ImportFile imports the package at path.
func (r *Reader) ImportFile(path string, opts ImportOptions) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return r.Import(data, opts)
}

// ImportReader imports a package read fully from src.
func (r *Reader) ImportReader(src io.Reader, opts ImportOptions) (*Result, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read package: %w", err)
	}
	return r.Import(data, opts)
}

// Import parses an xlsx package. Only an unreadable archive or a missing
// workbook part fail the import; every other problem becomes a warning.
func (r *Reader) Import(data []byte, opts ImportOptions) (*Result, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}
	start := time.Now()
	p := &parseContext{
		cfg:    r.cfg,
		opts:   opts,
		wb:     model.NewWorkbook(),
		styles: parts.StyleSheet{NumFmts: map[int]string{}},
		cache:  cache.New[int, resolvedStyle](r.cfg.styleCache),
	}

	if err := p.unzip(data); err != nil {
		return nil, err
	}
	if err := p.loadWorkbook(); err != nil {
		return nil, err
	}
	p.loadSharedStrings()
	p.loadStyles()
	p.loadSheets()
	p.loadProperties()

	p.stats.Duration = time.Since(start)
	p.cfg.log.WithFields(logrus.Fields{
		"sheets":        p.stats.Sheets,
		"cells":         p.stats.Cells,
		"formula_cells": p.stats.FormulaCells,
		"merges":        p.stats.Merges,
		"accelerated":   p.stats.Accelerated,
		"warnings":      len(p.warnings),
		"duration":      p.stats.Duration,
	}).Debug("workbook imported")

	return &Result{Workbook: p.wb, Stats: p.stats, Warnings: p.warnings}, nil
}

type resolvedStyle struct {
	desc *styles.Descriptor
	ok   bool
}

// parseContext is the state of one import. Tables are filled strictly in
// phase order: workbook, shared strings, styles, then sheets.
type parseContext struct {
	cfg  config
	opts ImportOptions

	files    map[string][]byte
	wbPath   string
	wbRels   map[string]parts.Relationship
	rootRels []parts.Relationship
	info     parts.WorkbookInfo
	strings  []string
	styles   parts.StyleSheet
	cache    *cache.LRU[int, resolvedStyle]

	wb       *model.Workbook
	warnings []Warning
	stats    Stats
}

func (p *parseContext) warn(code, sheet, address, format string, args ...any) {
	w := Warning{Code: code, Sheet: sheet, Address: address, Message: fmt.Sprintf(format, args...)}
	p.warnings = append(p.warnings, w)
	p.cfg.log.WithFields(logrus.Fields{
		"code":    code,
		"sheet":   sheet,
		"address": address,
	}).Warn(w.Message)
}

// part returns the decoded text of an archive entry.
func (p *parseContext) part(name string) (string, bool) {
	b, ok := p.files[name]
	if !ok {
		return "", false
	}
	return decodeText(b), true
}

func (p *parseContext) unzip(data []byte) error {
	p.opts.progress(PhaseUnzip, 0, 1)
	packer := p.cfg.packer
	if packer == nil {
		packer = archive.Zip{MaxEntrySize: p.cfg.maxEntry}
	}
	files, err := packer.Unpack(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArchive, err)
	}
	p.files = files
	p.cfg.log.WithField("entries", len(files)).Debug("package unpacked")
	p.opts.progress(PhaseUnzip, 1, 1)
	return nil
}

func (p *parseContext) loadWorkbook() error {
	p.wbPath = parts.PathWorkbook
	if doc, ok := p.part(parts.PathRootRels); ok {
		p.rootRels = p.relationships(doc)
		if rel, ok := findRel(p.rootRels, "officeDocument"); ok {
			p.wbPath = resolveTarget("", rel.Target)
		}
	}
	doc, ok := p.part(p.wbPath)
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingWorkbook, p.wbPath)
	}
	p.info = p.workbook(doc)

	p.wbRels = make(map[string]parts.Relationship)
	if doc, ok := p.part(relsPath(p.wbPath)); ok {
		for _, rel := range p.relationships(doc) {
			p.wbRels[rel.ID] = rel
		}
	}
	p.cfg.log.WithFields(logrus.Fields{
		"workbook": p.wbPath,
		"sheets":   len(p.info.Sheets),
	}).Debug("workbook parsed")
	return nil
}

// tablePath finds a workbook-level part by relationship kind, falling back
// to its conventional location.
func (p *parseContext) tablePath(kind, def string) string {
	for _, rel := range p.wbRels {
		if relKind(rel.Type) == kind {
			return resolveTarget(p.wbPath, rel.Target)
		}
	}
	return def
}

func (p *parseContext) loadSharedStrings() {
	p.opts.progress(PhaseSharedStrings, 0, 1)
	if doc, ok := p.part(p.tablePath("sharedStrings", parts.PathSharedStrings)); ok {
		p.strings = p.sharedStrings(doc)
	}
	p.cfg.log.WithField("strings", len(p.strings)).Debug("shared strings parsed")
	p.opts.progress(PhaseSharedStrings, 1, 1)
}

func (p *parseContext) loadStyles() {
	p.opts.progress(PhaseStyles, 0, 1)
	if doc, ok := p.part(p.tablePath("styles", parts.PathStyles)); ok {
		p.styles = p.styleSheet(doc)
	}
	p.cfg.log.WithField("cell_formats", len(p.styles.CellXfs)).Debug("styles parsed")
	p.opts.progress(PhaseStyles, 1, 1)
}

// selectSheets resolves the requested names and indexes to positions in
// the workbook sheet list, in workbook order.
func (p *parseContext) selectSheets() []int {
	n := len(p.info.Sheets)
	if len(p.opts.Sheets) == 0 && len(p.opts.SheetIndexes) == 0 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}

	chosen := make([]bool, n)
	for _, name := range p.opts.Sheets {
		i := p.sheetIndex(name)
		if i < 0 {
			p.warn(WarnUnknownSheet, name, "", "sheet %q not found in workbook", name)
			continue
		}
		chosen[i] = true
	}
	for _, i := range p.opts.SheetIndexes {
		if i >= n {
			p.warn(WarnUnknownSheet, "", "", "sheet index %d out of range (workbook has %d sheets)", i, n)
			continue
		}
		chosen[i] = true
	}
	var out []int
	for i, ok := range chosen {
		if ok {
			out = append(out, i)
		}
	}
	return out
}

func (p *parseContext) sheetIndex(name string) int {
	for i, s := range p.info.Sheets {
		if s.Name == name {
			return i
		}
	}
	for i, s := range p.info.Sheets {
		if strings.EqualFold(s.Name, name) {
			return i
		}
	}
	return -1
}

func (p *parseContext) loadSheets() {
	selected := p.selectSheets()
	p.opts.progress(PhaseSheets, 0, len(selected))
	for n, i := range selected {
		ws := p.info.Sheets[i]
		if s := p.loadSheet(ws); s != nil && i == p.info.ActiveTab {
			p.wb.ActiveSheet = len(p.wb.Sheets) - 1
		}
		p.opts.progress(PhaseSheets, n+1, len(selected))
	}
}

func (p *parseContext) loadSheet(ws parts.WorkbookSheet) *model.Sheet {
	rel, ok := p.wbRels[ws.RelID]
	if !ok {
		p.warn(WarnMissingSheetPart, ws.Name, "", "no workbook relationship %q", ws.RelID)
		return nil
	}
	sheetPath := resolveTarget(p.wbPath, rel.Target)
	doc, ok := p.part(sheetPath)
	if !ok {
		p.warn(WarnMissingSheetPart, ws.Name, "", "worksheet part %s is missing", sheetPath)
		return nil
	}

	parsed := p.worksheet(doc)
	s := model.NewSheet(ws.Name)
	if ws.State != "" {
		s.State = ws.State
	}
	p.wb.Sheets = append(p.wb.Sheets, s)

	var sheetRels []parts.Relationship
	if doc, ok := p.part(relsPath(sheetPath)); ok {
		sheetRels = p.relationships(doc)
	}

	if !p.opts.SkipView {
		s.View = sheetView(parsed.View)
	}
	p.applyLayout(s, parsed)
	p.applyCells(s, parsed.Cells)
	if !p.opts.SkipMerges {
		p.applyMerges(s, parsed.Merges)
	}
	if !p.opts.SkipHyperlinks {
		p.applyHyperlinks(s, parsed.Hyperlinks, sheetRels)
	}
	if !p.opts.SkipComments {
		p.applyComments(s, sheetPath, sheetRels)
	}
	for _, c := range s.DropMergeSlaves() {
		if model.KindOf(c.Value) == model.KindFormula {
			p.stats.FormulaCells--
		}
	}

	p.stats.Sheets++
	p.stats.Cells += s.Len()
	p.cfg.log.WithFields(logrus.Fields{
		"sheet": s.Name,
		"cells": s.Len(),
		"part":  sheetPath,
	}).Debug("sheet parsed")
	return s
}

func sheetView(v parts.ParsedView) model.SheetView {
	view := model.SheetView{
		FrozenRows:    v.FrozenRows,
		FrozenCols:    v.FrozenCols,
		HideGridLines: !v.ShowGridLines,
		Zoom:          v.Zoom,
		ActiveCell:    v.ActiveCell,
	}
	if view.Zoom == 100 {
		view.Zoom = 0
	}
	if view.ActiveCell == "A1" {
		view.ActiveCell = ""
	}
	return view
}

func (p *parseContext) applyLayout(s *model.Sheet, ws parts.ParsedWorksheet) {
	colLimit, rowLimit := p.opts.colLimit(), p.opts.rowLimit()
	for _, c := range ws.Cols {
		if c.Width <= 0 && !c.Hidden {
			continue
		}
		for col := max(c.Min, 1); col <= c.Max && col <= colLimit; col++ {
			s.Cols[col-1] = model.ColInfo{Width: c.Width, Hidden: c.Hidden}
		}
	}
	for _, r := range ws.Rows {
		if r.Row >= 1 && r.Row <= rowLimit {
			s.Rows[r.Row-1] = model.RowInfo{Height: r.Height, Hidden: r.Hidden}
		}
	}
}

func (p *parseContext) applyCells(s *model.Sheet, cells []parts.ParsedCell) {
	rowLimit, colLimit := p.opts.rowLimit(), p.opts.colLimit()
	var rowsCut, colsCut bool
	for _, pc := range cells {
		ref, err := cellref.Decode(pc.Ref)
		if err != nil {
			p.warn(WarnInvalidReference, s.Name, pc.Ref, "cell skipped: %v", err)
			continue
		}
		if ref.Row >= rowLimit {
			rowsCut = true
			continue
		}
		if ref.Col >= colLimit {
			colsCut = true
			continue
		}

		v := p.cellValue(s.Name, pc)
		if pc.Formula != "" && !p.opts.SkipFormulas {
			v = model.Formula{Expr: pc.Formula, Result: v}
			p.stats.FormulaCells++
		}
		style := p.cellStyle(s.Name, pc, v)
		if v == nil && style == nil {
			continue
		}
		c := s.Touch(ref.Row, ref.Col)
		c.Value = v
		c.Style = style
	}
	if rowsCut {
		p.warn(WarnRowsTruncated, s.Name, "", "rows beyond %d were not imported", rowLimit)
	}
	if colsCut {
		p.warn(WarnColsTruncated, s.Name, "", "columns beyond %s were not imported", cellref.ColumnName(colLimit-1))
	}
}

// cellValue resolves a raw cell against the shared strings and the number
// formats. Unparseable numbers are kept as text.
func (p *parseContext) cellValue(sheet string, pc parts.ParsedCell) model.Value {
	if !pc.HasV {
		return nil
	}
	switch pc.Type {
	case "s":
		idx, err := strconv.Atoi(strings.TrimSpace(pc.Value))
		if err != nil || idx < 0 || idx >= len(p.strings) {
			p.warn(WarnInvalidSharedString, sheet, pc.Ref, "shared string index %q out of range (%d strings)", pc.Value, len(p.strings))
			return nil
		}
		return model.Text(p.strings[idx])
	case "inlineStr", "str":
		return model.Text(pc.Value)
	case "b":
		v := strings.TrimSpace(pc.Value)
		return model.Bool(v == "1" || strings.EqualFold(v, "true"))
	case "e":
		return model.ErrorValue(pc.Value)
	case "d":
		if t, ok := parseISODate(pc.Value); ok {
			return model.NewDate(t)
		}
		return model.Text(pc.Value)
	}

	raw := strings.TrimSpace(pc.Value)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return model.Text(pc.Value)
	}
	if p.styles.IsDateStyle(pc.Style) {
		if p.info.Date1904 {
			f += xldate.Offset1904
		}
		return model.NewDate(xldate.FromSerial(f))
	}
	return model.Number(f)
}

func parseISODate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// cellStyle resolves the cell format of pc. A date value whose format is
// the one export would imply anyway gets no explicit number format.
func (p *parseContext) cellStyle(sheet string, pc parts.ParsedCell, v model.Value) *styles.Descriptor {
	if p.opts.SkipStyles || pc.Style == 0 {
		return nil
	}
	rs := p.cache.GetOrLoad(pc.Style, func(xf int) resolvedStyle {
		d, ok := p.styles.Descriptor(xf)
		return resolvedStyle{desc: d, ok: ok}
	})
	if !rs.ok {
		p.warn(WarnInvalidStyleIndex, sheet, pc.Ref, "cell format %d out of range (%d formats)", pc.Style, len(p.styles.CellXfs))
		return nil
	}
	if rs.desc == nil {
		return nil
	}

	d := rs.desc.Clone()
	if implied := parts.EffectiveStyle(&model.Cell{Value: v}); implied != nil && implied.NumberFormat == d.NumberFormat {
		d.NumberFormat = ""
		if d.IsEmpty() {
			return nil
		}
	}
	return d
}

func (p *parseContext) applyMerges(s *model.Sheet, merges []string) {
	rowLimit, colLimit := p.opts.rowLimit(), p.opts.colLimit()
	for _, ref := range merges {
		rg, err := cellref.ParseRange(ref)
		if err != nil {
			p.warn(WarnInvalidMerge, s.Name, ref, "merge skipped: %v", err)
			continue
		}
		if rg.Start.Row >= rowLimit || rg.Start.Col >= colLimit {
			continue
		}
		s.Merge(rg)
		p.stats.Merges++
	}
}

func (p *parseContext) applyHyperlinks(s *model.Sheet, links []parts.ParsedHyperlink, rels []parts.Relationship) {
	byID := make(map[string]parts.Relationship, len(rels))
	for _, rel := range rels {
		byID[rel.ID] = rel
	}
	rowLimit, colLimit := p.opts.rowLimit(), p.opts.colLimit()

	for _, h := range links {
		rg, err := cellref.ParseRange(h.Ref)
		if err != nil {
			p.warn(WarnInvalidHyperlink, s.Name, h.Ref, "hyperlink skipped: %v", err)
			continue
		}
		var target string
		switch {
		case h.RelID != "":
			rel, ok := byID[h.RelID]
			if !ok {
				p.warn(WarnInvalidHyperlink, s.Name, h.Ref, "hyperlink relationship %q not found", h.RelID)
				continue
			}
			target = rel.Target
			if h.Location != "" {
				target += "#" + h.Location
			}
		case h.Location != "":
			target = parts.LinkTarget(h.Location)
		default:
			p.warn(WarnInvalidHyperlink, s.Name, h.Ref, "hyperlink has neither target nor location")
			continue
		}
		if rg.Start.Row >= rowLimit || rg.Start.Col >= colLimit {
			continue
		}
		c := s.Touch(rg.Start.Row, rg.Start.Col)
		c.Hyperlink = &model.Hyperlink{Target: target, Tooltip: h.Tooltip, Display: h.Display}
	}
}

func (p *parseContext) applyComments(s *model.Sheet, sheetPath string, rels []parts.Relationship) {
	rowLimit, colLimit := p.opts.rowLimit(), p.opts.colLimit()
	for _, rel := range rels {
		if relKind(rel.Type) != "comments" {
			continue
		}
		commentsPath := resolveTarget(sheetPath, rel.Target)
		doc, ok := p.part(commentsPath)
		if !ok {
			p.warn(WarnMissingCommentsPart, s.Name, "", "comments part %s is missing", commentsPath)
			continue
		}
		for _, pc := range parts.ParseComments(doc) {
			ref, err := cellref.Decode(pc.Ref)
			if err != nil {
				p.warn(WarnInvalidReference, s.Name, pc.Ref, "comment skipped: %v", err)
				continue
			}
			if ref.Row >= rowLimit || ref.Col >= colLimit {
				continue
			}
			c := s.Touch(ref.Row, ref.Col)
			c.Comment = &model.Comment{Text: pc.Text, Author: pc.Author}
		}
	}
}

func (p *parseContext) loadProperties() {
	if p.opts.SkipProperties {
		return
	}
	p.opts.progress(PhaseProperties, 0, 1)
	corePath, appPath := parts.PathCoreProps, parts.PathAppProps
	if rel, ok := findRel(p.rootRels, "core-properties"); ok {
		corePath = resolveTarget("", rel.Target)
	}
	if rel, ok := findRel(p.rootRels, "extended-properties"); ok {
		appPath = resolveTarget("", rel.Target)
	}
	if doc, ok := p.part(corePath); ok {
		p.wb.Properties = parts.ParseCoreProps(doc)
	}
	if doc, ok := p.part(appPath); ok {
		p.wb.Properties.Application, p.wb.Properties.Company = parts.ParseAppProps(doc)
	}
	p.opts.progress(PhaseProperties, 1, 1)
}

// Accelerated parse with structural fallback.

func (p *parseContext) relationships(doc string) []parts.Relationship {
	if a := p.cfg.accel; a != nil {
		if rels, ok := a.ParseRelationships(doc); ok {
			p.stats.Accelerated++
			return rels
		}
	}
	return parts.ParseRelationships(doc)
}

func (p *parseContext) workbook(doc string) parts.WorkbookInfo {
	if a := p.cfg.accel; a != nil {
		if info, ok := a.ParseWorkbook(doc); ok {
			p.stats.Accelerated++
			return info
		}
	}
	return parts.ParseWorkbook(doc)
}

func (p *parseContext) sharedStrings(doc string) []string {
	if a := p.cfg.accel; a != nil {
		if out, ok := a.ParseSharedStrings(doc); ok {
			p.stats.Accelerated++
			return out
		}
	}
	return parts.ParseSharedStrings(doc)
}

func (p *parseContext) styleSheet(doc string) parts.StyleSheet {
	if a := p.cfg.accel; a != nil {
		if ss, ok := a.ParseStyles(doc); ok {
			p.stats.Accelerated++
			return ss
		}
	}
	return parts.ParseStyles(doc)
}

func (p *parseContext) worksheet(doc string) parts.ParsedWorksheet {
	if a := p.cfg.accel; a != nil {
		if ws, ok := a.ParseWorksheet(doc); ok {
			p.stats.Accelerated++
			return ws
		}
	}
	return parts.ParseWorksheet(doc)
}

// relKind returns the last path segment of a relationship type, so the
// transitional and strict namespaces match alike.
func relKind(t string) string {
	return t[strings.LastIndexByte(t, '/')+1:]
}

func findRel(rels []parts.Relationship, kind string) (parts.Relationship, bool) {
	for _, rel := range rels {
		if relKind(rel.Type) == kind {
			return rel, true
		}
	}
	return parts.Relationship{}, false
}

// resolveTarget resolves a relationship target against the part that owns
// the relationship. Absolute targets are package-rooted.
func resolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Clean(path.Join(path.Dir(source), target))
}

// relsPath returns the relationships part belonging to a part.
func relsPath(part string) string {
	dir, file := path.Split(part)
	return dir + "_rels/" + file + ".rels"
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

// decodeText returns a part as UTF-8 text, honoring a UTF-8 or UTF-16 byte
// order mark.
func decodeText(b []byte) string {
	if !bytes.HasPrefix(b, bomUTF8) && !bytes.HasPrefix(b, bomUTF16BE) && !bytes.HasPrefix(b, bomUTF16LE) {
		return string(b)
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), b)
	if err != nil {
		return string(b)
	}
	return string(out)
}
