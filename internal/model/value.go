package model

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/fuabioo/xlcodec/internal/styles"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindText Kind = iota + 1
	KindNumber
	KindBool
	KindDate
	KindFormula
	KindError
	KindRichText
)

var kindNames = map[Kind]string{
	KindText:     "string",
	KindNumber:   "number",
	KindBool:     "bool",
	KindDate:     "date",
	KindFormula:  "formula",
	KindError:    "error",
	KindRichText: "richtext",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "empty"
}

// Value is the content of a cell. The set of implementations is closed;
// a nil Value means the cell has no content.
type Value interface {
	Kind() Kind
	value()
}

// Text is a plain string value.
type Text string

// Number is a numeric value.
type Number float64

// Bool is a boolean value.
type Bool bool

// Date is a calendar timestamp. It is stored in packages as a day-serial.
type Date struct {
	time.Time
}

// ErrorValue is an error code such as "#DIV/0!".
type ErrorValue string

// Formula is an opaque expression (without the leading '=') with the result
// last computed for it. Result may be nil and is never itself a Formula.
type Formula struct {
	Expr   string
	Result Value
}

// Run is one span of a rich text value.
type Run struct {
	Text string       `json:"text"`
	Font *styles.Font `json:"font,omitempty"`
}

// RichText is text made of independently formatted runs. Packages store it
// flattened.
type RichText []Run

func (Text) Kind() Kind       { return KindText }
func (Number) Kind() Kind     { return KindNumber }
func (Bool) Kind() Kind       { return KindBool }
func (Date) Kind() Kind       { return KindDate }
func (Formula) Kind() Kind    { return KindFormula }
func (ErrorValue) Kind() Kind { return KindError }
func (RichText) Kind() Kind   { return KindRichText }

func (Text) value()       {}
func (Number) value()     {}
func (Bool) value()       {}
func (Date) value()       {}
func (Formula) value()    {}
func (ErrorValue) value() {}
func (RichText) value()   {}

// String flattens the runs.
func (r RichText) String() string {
	var b strings.Builder
	for _, run := range r {
		b.WriteString(run.Text)
	}
	return b.String()
}

// NewDate wraps t as a Date value.
func NewDate(t time.Time) Date {
	return Date{Time: t}
}

// KindOf returns the kind of v, or 0 when v is nil.
func KindOf(v Value) Kind {
	if v == nil {
		return 0
	}
	return v.Kind()
}

// SharedText returns the text a value contributes to the shared-string
// table, if any. Formulas contribute their string results.
func SharedText(v Value) (string, bool) {
	switch x := v.(type) {
	case Text:
		return string(x), true
	case RichText:
		return x.String(), true
	case Formula:
		if x.Result == nil {
			return "", false
		}
		switch r := x.Result.(type) {
		case Text:
			return string(r), true
		case RichText:
			return r.String(), true
		}
	}
	return "", false
}

// Display renders v the way the CLI prints it.
func Display(v Value) string {
	switch x := v.(type) {
	case nil:
		return ""
	case Text:
		return string(x)
	case Number:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "#NUM!"
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	case Bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case Date:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format("2006-01-02T15:04:05")
	case Formula:
		return Display(x.Result)
	case ErrorValue:
		return string(x)
	case RichText:
		return x.String()
	}
	return ""
}

// Equal reports whether two values carry the same content. Dates compare by
// instant.
func Equal(a, b Value) bool {
	if KindOf(a) != KindOf(b) {
		return false
	}
	switch x := a.(type) {
	case nil:
		return true
	case Date:
		return x.Equal(b.(Date).Time)
	case Formula:
		y := b.(Formula)
		return x.Expr == y.Expr && Equal(x.Result, y.Result)
	case RichText:
		return x.String() == b.(RichText).String()
	case Number:
		y := b.(Number)
		if math.IsNaN(float64(x)) {
			return math.IsNaN(float64(y))
		}
		return x == y
	default:
		return a == b
	}
}
