// Package codec exports spreadsheet models to xlsx packages and imports them
// back. A Writer runs a collection pass and then emits every part; a Reader
// unpacks, parses the shared tables once and then each selected sheet.
package codec

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/fuabioo/xlcodec/internal/archive"
	"github.com/fuabioo/xlcodec/internal/cellref"
	"github.com/fuabioo/xlcodec/internal/parts"
)

// Error types
var (
	ErrInvalidArchive  = errors.New("invalid package archive")
	ErrMissingWorkbook = errors.New("package has no workbook part")
	ErrInvalidOptions  = errors.New("invalid options")
	ErrNilWorkbook     = errors.New("workbook is nil")
	ErrFileNotFound    = errors.New("file not found")
)

// ExportOptions configures one export.
type ExportOptions struct {
	// CompressionLevel is a compress/flate level; 0 selects the default.
	CompressionLevel int `json:"compressionLevel" yaml:"compression_level" validate:"gte=-2,lte=9"`
	// InlineStrings writes text as inline strings instead of through the
	// shared-string table.
	InlineStrings bool `json:"inlineStrings" yaml:"inline_strings"`
	// OmitProperties leaves out docProps/core.xml and docProps/app.xml.
	OmitProperties   bool    `json:"omitProperties" yaml:"omit_properties"`
	DefaultColWidth  float64 `json:"defaultColWidth" yaml:"default_col_width" validate:"gte=0,lte=255"`
	DefaultRowHeight float64 `json:"defaultRowHeight" yaml:"default_row_height" validate:"gte=0,lte=409"`
	Application      string  `json:"application" yaml:"application" validate:"max=255"`
}

// Phase names a stage of an import.
type Phase string

// Import phases, in execution order.
const (
	PhaseUnzip         Phase = "unzip"
	PhaseSharedStrings Phase = "sharedStrings"
	PhaseStyles        Phase = "styles"
	PhaseSheets        Phase = "sheets"
	PhaseProperties    Phase = "properties"
)

// ProgressFunc receives (phase, current, total) as an import advances.
type ProgressFunc func(phase Phase, current, total int)

// ImportOptions configures one import. Sheets and SheetIndexes together
// select sheets; both empty selects every sheet.
type ImportOptions struct {
	Sheets       []string `json:"sheets" yaml:"sheets"`
	SheetIndexes []int    `json:"sheetIndexes" yaml:"sheet_indexes" validate:"dive,gte=0"`

	SkipStyles     bool `json:"skipStyles" yaml:"skip_styles"`
	SkipFormulas   bool `json:"skipFormulas" yaml:"skip_formulas"`
	SkipMerges     bool `json:"skipMerges" yaml:"skip_merges"`
	SkipHyperlinks bool `json:"skipHyperlinks" yaml:"skip_hyperlinks"`
	SkipComments   bool `json:"skipComments" yaml:"skip_comments"`
	SkipProperties bool `json:"skipProperties" yaml:"skip_properties"`
	SkipView       bool `json:"skipView" yaml:"skip_view"`

	// MaxRows and MaxCols cap the imported grid; 0 means no cap.
	MaxRows int `json:"maxRows" yaml:"max_rows" validate:"gte=0,lte=1048576"`
	MaxCols int `json:"maxCols" yaml:"max_cols" validate:"gte=0,lte=16384"`

	Progress ProgressFunc `json:"-" yaml:"-"`
}

func (o ImportOptions) progress(phase Phase, current, total int) {
	if o.Progress != nil {
		o.Progress(phase, current, total)
	}
}

func (o ImportOptions) rowLimit() int {
	if o.MaxRows > 0 {
		return o.MaxRows
	}
	return cellref.MaxRows
}

func (o ImportOptions) colLimit() int {
	if o.MaxCols > 0 {
		return o.MaxCols
	}
	return cellref.MaxColumns
}

var validate = validator.New()

func validateOptions(opts any) error {
	err := validate.Struct(opts)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on '%s' (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidOptions, strings.Join(msgs, "; "))
}

// Accelerator is an optional faster parse path. Every method reports
// ok=false when it cannot serve the call; the structural parsers in package
// parts are used instead.
type Accelerator interface {
	ParseWorksheet(doc string) (parts.ParsedWorksheet, bool)
	ParseSharedStrings(doc string) ([]string, bool)
	ParseStyles(doc string) (parts.StyleSheet, bool)
	ParseWorkbook(doc string) (parts.WorkbookInfo, bool)
	ParseRelationships(doc string) ([]parts.Relationship, bool)
}

type config struct {
	log        logrus.FieldLogger
	packer     archive.Packer
	accel      Accelerator
	now        func() time.Time
	styleCache int
	maxEntry   int64
}

// Option configures a Writer or a Reader.
type Option func(*config)

// WithLogger sets the logger phases and warnings are reported to.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}

// WithPacker replaces the zip container used to pack and unpack parts.
func WithPacker(p archive.Packer) Option {
	return func(c *config) { c.packer = p }
}

// WithAccelerator sets the accelerated parse path used by a Reader.
func WithAccelerator(a Accelerator) Option {
	return func(c *config) { c.accel = a }
}

// WithClock sets the time source for default document timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// WithStyleCache sets how many resolved cell formats a Reader memoizes per
// import.
func WithStyleCache(size int) Option {
	return func(c *config) { c.styleCache = size }
}

// WithMaxEntrySize bounds a single decompressed package entry on import.
func WithMaxEntrySize(n int64) Option {
	return func(c *config) { c.maxEntry = n }
}

func newConfig(opts []Option) config {
	l := logrus.New()
	l.SetOutput(io.Discard)
	c := config{
		log:        l,
		now:        time.Now,
		styleCache: 256,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
