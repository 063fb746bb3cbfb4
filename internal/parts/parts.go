// Package parts generates and parses the individual XML parts of a
// spreadsheet package. Generators read a frozen BuildContext; parsers are
// their structural inverse and never fail on missing features.
package parts

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fuabioo/xlcodec/internal/model"
	"github.com/fuabioo/xlcodec/internal/sst"
	"github.com/fuabioo/xlcodec/internal/styles"
)

// Header starts every generated part.
const Header = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// Namespaces
const (
	NSMain          = "http://schemas.openxmlformats.org/spreadsheetml/2006/main"
	NSRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	NSPackageRels   = "http://schemas.openxmlformats.org/package/2006/relationships"
	NSContentTypes  = "http://schemas.openxmlformats.org/package/2006/content-types"
)

// Relationship types
const (
	RelOfficeDocument = NSRelationships + "/officeDocument"
	RelWorksheet      = NSRelationships + "/worksheet"
	RelStyles         = NSRelationships + "/styles"
	RelSharedStrings  = NSRelationships + "/sharedStrings"
	RelHyperlink      = NSRelationships + "/hyperlink"
	RelComments       = NSRelationships + "/comments"
	RelExtendedProps  = NSRelationships + "/extended-properties"
	RelCoreProps      = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
)

// Part paths
const (
	PathContentTypes  = "[Content_Types].xml"
	PathRootRels      = "_rels/.rels"
	PathWorkbook      = "xl/workbook.xml"
	PathWorkbookRels  = "xl/_rels/workbook.xml.rels"
	PathStyles        = "xl/styles.xml"
	PathSharedStrings = "xl/sharedStrings.xml"
	PathCoreProps     = "docProps/core.xml"
	PathAppProps      = "docProps/app.xml"
)

// TargetModeExternal marks relationships that point outside the package.
const TargetModeExternal = "External"

// Error types
var (
	ErrNotFrozen = errors.New("build context is not frozen")
	ErrFrozen    = errors.New("build context is frozen")
)

// SheetPath returns the archive path of the n-th (1-based) worksheet.
func SheetPath(n int) string {
	return "xl/worksheets/sheet" + strconv.Itoa(n) + ".xml"
}

// SheetRelsPath returns the archive path of the n-th worksheet's
// relationships.
func SheetRelsPath(n int) string {
	return "xl/worksheets/_rels/sheet" + strconv.Itoa(n) + ".xml.rels"
}

// CommentsPath returns the archive path of the n-th worksheet's comments.
func CommentsPath(n int) string {
	return "xl/comments" + strconv.Itoa(n) + ".xml"
}

// Relationship is one entry of a relationships part.
type Relationship struct {
	ID         string
	Type       string
	Target     string
	TargetMode string
}

// IsExternal reports whether the target lies outside the package.
func (r Relationship) IsExternal() bool {
	return r.TargetMode == TargetModeExternal
}

// RelID formats the n-th (1-based) relationship id.
func RelID(n int) string {
	return "rId" + strconv.Itoa(n)
}

// SheetEntry is a sheet scheduled for emission.
type SheetEntry struct {
	Sheet       *model.Sheet
	Number      int    // 1-based part number
	RelID       string // id in the workbook relationships
	HasComments bool
}

// BuildOptions configures part generation.
type BuildOptions struct {
	SharedStrings     bool
	IncludeProperties bool
	DefaultColWidth   float64
	DefaultRowHeight  float64
	Application       string
	Now               time.Time
}

// BuildContext accumulates the shared string and style tables during the
// collection pass and is read-only once frozen.
type BuildContext struct {
	Workbook           *model.Workbook
	Strings            *sst.Table
	Styles             *styles.Registry
	Sheets             []SheetEntry
	StylesRelID        string
	SharedStringsRelID string
	Options            BuildOptions

	frozen bool
}

// NewBuildContext assigns relationship ids in the fixed order sheets,
// styles, shared strings.
func NewBuildContext(wb *model.Workbook, opts BuildOptions) *BuildContext {
	b := &BuildContext{
		Workbook: wb,
		Strings:  sst.New(),
		Styles:   styles.NewRegistry(),
		Options:  opts,
	}
	for i, s := range wb.Sheets {
		entry := SheetEntry{Sheet: s, Number: i + 1, RelID: RelID(i + 1)}
		for _, c := range s.Cells() {
			if c.Comment != nil && !s.IsMergeSlave(c.Row, c.Col) {
				entry.HasComments = true
				break
			}
		}
		b.Sheets = append(b.Sheets, entry)
	}
	b.StylesRelID = RelID(len(b.Sheets) + 1)
	if opts.SharedStrings {
		b.SharedStringsRelID = RelID(len(b.Sheets) + 2)
	}
	return b
}

// Collect registers the style and shared text of one cell.
func (b *BuildContext) Collect(c *model.Cell) error {
	if b.frozen {
		return ErrFrozen
	}
	if _, err := b.Styles.Register(EffectiveStyle(c)); err != nil {
		return fmt.Errorf("cell %s: %w", c.Ref(), err)
	}
	if b.Options.SharedStrings {
		if text, ok := model.SharedText(c.Value); ok {
			b.Strings.Intern(text)
		}
	}
	return nil
}

// Freeze ends the collection pass.
func (b *BuildContext) Freeze() {
	b.frozen = true
	b.Strings.Freeze()
	b.Styles.Freeze()
}

// Frozen reports whether Freeze has been called.
func (b *BuildContext) Frozen() bool {
	return b.frozen
}

func (b *BuildContext) check() error {
	if !b.frozen {
		return ErrNotFrozen
	}
	return nil
}
