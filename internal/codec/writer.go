package codec

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fuabioo/xlcodec/internal/archive"
	"github.com/fuabioo/xlcodec/internal/cellref"
	"github.com/fuabioo/xlcodec/internal/model"
	"github.com/fuabioo/xlcodec/internal/parts"
)

// DefaultSheetName names the sheet added when a workbook has none.
const DefaultSheetName = "Sheet1"

// Writer exports workbooks. It holds no per-export state and is safe for
// concurrent use.
type Writer struct {
	cfg config
}

// NewWriter creates a Writer.
func NewWriter(opts ...Option) *Writer {
	return &Writer{cfg: newConfig(opts)}
}

// Export serializes wb into an xlsx package. wb is only read.
func (w *Writer) Export(wb *model.Workbook, opts ExportOptions) ([]byte, error) {
	if wb == nil {
		return nil, ErrNilWorkbook
	}
	if err := validateOptions(opts); err != nil {
		return nil, err
	}
	start := time.Now()
	snapshot := *wb
	if len(snapshot.Sheets) == 0 {
		snapshot.Sheets = []*model.Sheet{model.NewSheet(DefaultSheetName)}
	}

	b := parts.NewBuildContext(&snapshot, parts.BuildOptions{
		SharedStrings:     !opts.InlineStrings,
		IncludeProperties: !opts.OmitProperties,
		DefaultColWidth:   opts.DefaultColWidth,
		DefaultRowHeight:  opts.DefaultRowHeight,
		Application:       opts.Application,
		Now:               w.cfg.now(),
	})
	if err := collect(b); err != nil {
		return nil, err
	}
	b.Freeze()

	entries, err := emit(b)
	if err != nil {
		return nil, err
	}

	packer := w.cfg.packer
	if packer == nil {
		packer = archive.Zip{Level: opts.CompressionLevel, First: []string{parts.PathContentTypes}}
	}
	data, err := packer.Pack(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to pack workbook: %w", err)
	}

	w.cfg.log.WithFields(logrus.Fields{
		"sheets":         len(b.Sheets),
		"parts":          len(entries),
		"strings":        b.Strings.Distinct(),
		"string_refs":    b.Strings.Total(),
		"cell_formats":   len(b.Styles.CellXfs()),
		"bytes":          len(data),
		"duration":       time.Since(start),
		"shared_strings": b.Options.SharedStrings,
	}).Debug("workbook exported")
	return data, nil
}

// collect registers every non-slave cell with the build context.
func collect(b *parts.BuildContext) error {
	for _, e := range b.Sheets {
		s := e.Sheet
		for _, c := range s.Cells() {
			if err := cellref.Validate(c.Row, c.Col); err != nil {
				return fmt.Errorf("sheet %s: %w", s.Name, err)
			}
			if s.IsMergeSlave(c.Row, c.Col) {
				continue
			}
			if err := b.Collect(c); err != nil {
				return fmt.Errorf("sheet %s: %w", s.Name, err)
			}
		}
	}
	return nil
}

// emit generates every part in dependency order: worksheets and their
// dependents first, then the tables they reference, then the package
// manifest.
func emit(b *parts.BuildContext) (map[string][]byte, error) {
	entries := make(map[string][]byte)
	put := func(path string, gen func() (string, error)) error {
		doc, err := gen()
		if err != nil {
			return fmt.Errorf("failed to generate %s: %w", path, err)
		}
		entries[path] = []byte(doc)
		return nil
	}

	for _, e := range b.Sheets {
		doc, rels, err := parts.Worksheet(b, e)
		if err != nil {
			return nil, fmt.Errorf("failed to generate %s: %w", parts.SheetPath(e.Number), err)
		}
		entries[parts.SheetPath(e.Number)] = []byte(doc)
		if len(rels) > 0 {
			entries[parts.SheetRelsPath(e.Number)] = []byte(parts.SheetRels(rels))
		}
		if e.HasComments {
			if err := put(parts.CommentsPath(e.Number), func() (string, error) { return parts.Comments(b, e) }); err != nil {
				return nil, err
			}
		}
	}

	gens := []struct {
		path string
		gen  func(*parts.BuildContext) (string, error)
		when bool
	}{
		{parts.PathSharedStrings, parts.SharedStrings, b.Options.SharedStrings},
		{parts.PathStyles, parts.Styles, true},
		{parts.PathWorkbook, parts.Workbook, true},
		{parts.PathWorkbookRels, parts.WorkbookRels, true},
		{parts.PathCoreProps, parts.CoreProps, b.Options.IncludeProperties},
		{parts.PathAppProps, parts.AppProps, b.Options.IncludeProperties},
		{parts.PathContentTypes, parts.ContentTypes, true},
		{parts.PathRootRels, parts.RootRels, true},
	}
	for _, g := range gens {
		if !g.when {
			continue
		}
		if err := put(g.path, func() (string, error) { return g.gen(b) }); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// ExportFile exports wb to path. The package is written to a temporary file
// in the target directory and renamed into place.
func (w *Writer) ExportFile(path string, wb *model.Workbook, opts ExportOptions) error {
	data, err := w.Export(wb, opts)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions on %s: %w", tmpPath, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	return nil
}
