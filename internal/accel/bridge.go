// Package accel is the accelerated parse path. It reads the same parts as
// the structural parsers in package parts, through a streaming tokenizer,
// and reports "unavailable" instead of failing so callers can fall back.
package accel

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/fuabioo/xlcodec/internal/parts"
)

// Bridge is an explicitly loaded accelerator. The zero value is not usable;
// construct one with New or Disabled. A Bridge is safe for concurrent use.
type Bridge struct {
	log      logrus.FieldLogger
	disabled bool

	once  sync.Once
	err   error
	ready atomic.Bool

	// set when the tokenizer trims leading or trailing whitespace of text
	trimsText bool
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger load results and declined parts are reported to.
func WithLogger(l logrus.FieldLogger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.log = l
		}
	}
}

// New returns a bridge that becomes available once EnsureLoaded succeeds.
// Until then every parse call reports unavailable.
func New(opts ...Option) *Bridge {
	b := &Bridge{log: discardLogger()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Disabled returns a bridge that is never available.
func Disabled() *Bridge {
	b := New()
	b.disabled = true
	return b
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// EnsureLoaded loads the bridge once. Later calls return the memoized
// outcome. Loading runs probe documents through both parse paths and fails
// with ErrMismatch when they disagree.
func (b *Bridge) EnsureLoaded(ctx context.Context) error {
	if b.disabled {
		return ErrUnavailable
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	b.once.Do(func() {
		b.err = b.load()
		if b.err != nil {
			b.log.WithError(b.err).Debug("accelerator unavailable")
			return
		}
		b.ready.Store(true)
		b.log.WithField("trims_text", b.trimsText).Debug("accelerator loaded")
	})
	return b.err
}

// Available reports whether parse calls can succeed.
func (b *Bridge) Available() bool {
	return !b.disabled && b.ready.Load()
}

// ParseWorksheet parses a worksheet part. ok is false when the bridge is
// unavailable or the part could not be tokenized.
func (b *Bridge) ParseWorksheet(doc string) (parts.ParsedWorksheet, bool) {
	if !b.accepts(doc, "worksheet") {
		return parts.ParsedWorksheet{}, false
	}
	ws, err := parseWorksheet(doc)
	return ws, b.result(err, "worksheet")
}

// ParseSharedStrings parses the shared-strings part.
func (b *Bridge) ParseSharedStrings(doc string) ([]string, bool) {
	if !b.accepts(doc, "sharedStrings") {
		return nil, false
	}
	out, err := parseSharedStrings(doc)
	return out, b.result(err, "sharedStrings")
}

// ParseStyles parses the styles part.
func (b *Bridge) ParseStyles(doc string) (parts.StyleSheet, bool) {
	if !b.Available() {
		return parts.StyleSheet{}, false
	}
	ss, err := parseStyles(doc)
	return ss, b.result(err, "styles")
}

// ParseWorkbook parses the workbook part.
func (b *Bridge) ParseWorkbook(doc string) (parts.WorkbookInfo, bool) {
	if !b.Available() {
		return parts.WorkbookInfo{}, false
	}
	info, err := parseWorkbook(doc)
	return info, b.result(err, "workbook")
}

// ParseRelationships parses a relationships part.
func (b *Bridge) ParseRelationships(doc string) ([]parts.Relationship, bool) {
	if !b.Available() {
		return nil, false
	}
	rels, err := parseRelationships(doc)
	return rels, b.result(err, "relationships")
}

// accepts reports whether a text-bearing part can go through the tokenizer.
// Whitespace-preserving text is declined when the tokenizer trims it.
func (b *Bridge) accepts(doc, part string) bool {
	if !b.Available() {
		return false
	}
	if b.trimsText && strings.Contains(doc, `xml:space="preserve"`) {
		b.log.WithField("part", part).Debug("accelerator declined whitespace-preserving text")
		return false
	}
	return true
}

func (b *Bridge) result(err error, part string) bool {
	if err != nil {
		b.log.WithError(err).WithField("part", part).Debug("accelerated parse failed")
		return false
	}
	return true
}
