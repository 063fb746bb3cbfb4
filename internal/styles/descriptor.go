// Package styles defines cell style descriptors and the registry that
// deduplicates them into the indexed tables of a styles part.
package styles

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Error types
var (
	ErrInvalidColor = errors.New("invalid color")
	ErrInvalidStyle = errors.New("invalid style")
	ErrFrozen       = errors.New("style registry is frozen")
)

// Descriptor is the full style of a cell. Nil parts mean "default".
type Descriptor struct {
	Font         *Font       `json:"font,omitempty"`
	Fill         *Fill       `json:"fill,omitempty"`
	Border       *Border     `json:"border,omitempty"`
	Alignment    *Alignment  `json:"alignment,omitempty"`
	NumberFormat string      `json:"numberFormat,omitempty"`
	Protection   *Protection `json:"protection,omitempty"`
}

// Font describes character formatting.
type Font struct {
	Name      string  `json:"name,omitempty"`
	Size      float64 `json:"size,omitempty"`
	Bold      bool    `json:"bold,omitempty"`
	Italic    bool    `json:"italic,omitempty"`
	Underline string  `json:"underline,omitempty"` // single, double, singleAccounting, doubleAccounting
	Strike    bool    `json:"strike,omitempty"`
	Color     string  `json:"color,omitempty"`
}

// Fill describes a pattern fill.
type Fill struct {
	Pattern string `json:"pattern,omitempty"`
	FgColor string `json:"fgColor,omitempty"`
	BgColor string `json:"bgColor,omitempty"`
}

// BorderSide is one edge of a border.
type BorderSide struct {
	Style string `json:"style,omitempty"`
	Color string `json:"color,omitempty"`
}

// Border describes the four sides and the diagonal.
type Border struct {
	Left         *BorderSide `json:"left,omitempty"`
	Right        *BorderSide `json:"right,omitempty"`
	Top          *BorderSide `json:"top,omitempty"`
	Bottom       *BorderSide `json:"bottom,omitempty"`
	Diagonal     *BorderSide `json:"diagonal,omitempty"`
	DiagonalUp   bool        `json:"diagonalUp,omitempty"`
	DiagonalDown bool        `json:"diagonalDown,omitempty"`
}

// Alignment describes text placement inside the cell.
type Alignment struct {
	Horizontal   string `json:"horizontal,omitempty"`
	Vertical     string `json:"vertical,omitempty"`
	WrapText     bool   `json:"wrapText,omitempty"`
	TextRotation int    `json:"textRotation,omitempty"`
	Indent       int    `json:"indent,omitempty"`
	ShrinkToFit  bool   `json:"shrinkToFit,omitempty"`
}

// Protection describes cell locking. Locked defaults to true when nil.
type Protection struct {
	Locked *bool `json:"locked,omitempty"`
	Hidden bool  `json:"hidden,omitempty"`
}

// Default font used for index 0 and to fill in unspecified font fields.
const (
	DefaultFontName = "Calibri"
	DefaultFontSize = 11.0
)

var (
	horizontalValues = set("general", "left", "center", "right", "fill", "justify", "centerContinuous", "distributed")
	verticalValues   = set("top", "center", "bottom", "justify", "distributed")
	underlineValues  = set("single", "double", "singleAccounting", "doubleAccounting")
	borderStyles     = set("thin", "medium", "thick", "dashed", "dotted", "double", "hair",
		"mediumDashed", "dashDot", "mediumDashDot", "dashDotDot", "mediumDashDotDot", "slantDashDot")
	patternTypes = set("none", "solid", "gray125", "gray0625", "darkGray", "mediumGray", "lightGray",
		"darkHorizontal", "darkVertical", "darkDown", "darkUp", "darkGrid", "darkTrellis",
		"lightHorizontal", "lightVertical", "lightDown", "lightUp", "lightGrid", "lightTrellis")
)

func set(values ...string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}

// IsEmpty reports whether the descriptor carries nothing.
func (d *Descriptor) IsEmpty() bool {
	return d == nil || (d.Font == nil && d.Fill == nil && d.Border == nil &&
		d.Alignment == nil && d.NumberFormat == "" && d.Protection == nil)
}

// Clone returns a deep copy.
func (d *Descriptor) Clone() *Descriptor {
	if d == nil {
		return nil
	}
	c := *d
	if d.Font != nil {
		f := *d.Font
		c.Font = &f
	}
	if d.Fill != nil {
		f := *d.Fill
		c.Fill = &f
	}
	if d.Border != nil {
		b := d.Border.clone()
		c.Border = &b
	}
	if d.Alignment != nil {
		a := *d.Alignment
		c.Alignment = &a
	}
	if d.Protection != nil {
		p := *d.Protection
		if p.Locked != nil {
			l := *p.Locked
			p.Locked = &l
		}
		c.Protection = &p
	}
	return &c
}

func (b Border) clone() Border {
	cp := func(s *BorderSide) *BorderSide {
		if s == nil {
			return nil
		}
		v := *s
		return &v
	}
	b.Left, b.Right, b.Top, b.Bottom, b.Diagonal = cp(b.Left), cp(b.Right), cp(b.Top), cp(b.Bottom), cp(b.Diagonal)
	return b
}

func (f Font) normalize() (Font, error) {
	if f.Name == "" {
		f.Name = DefaultFontName
	}
	if f.Size == 0 {
		f.Size = DefaultFontSize
	}
	if f.Size < 0 {
		return f, fmt.Errorf("%w: font size %v", ErrInvalidStyle, f.Size)
	}
	if f.Underline != "" && !underlineValues[f.Underline] {
		return f, fmt.Errorf("%w: underline %q", ErrInvalidStyle, f.Underline)
	}
	var err error
	if f.Color, err = NormalizeColor(f.Color); err != nil {
		return f, err
	}
	return f, nil
}

func (f Font) key() string {
	return fmt.Sprintf("%q|%s|%t|%t|%q|%t|%s", f.Name, strconv.FormatFloat(f.Size, 'g', -1, 64),
		f.Bold, f.Italic, f.Underline, f.Strike, f.Color)
}

func (f Fill) normalize() (Fill, error) {
	var err error
	if f.FgColor, err = NormalizeColor(f.FgColor); err != nil {
		return f, err
	}
	if f.BgColor, err = NormalizeColor(f.BgColor); err != nil {
		return f, err
	}
	if f.Pattern == "" {
		if f.FgColor != "" || f.BgColor != "" {
			f.Pattern = "solid"
		} else {
			f.Pattern = "none"
		}
	}
	if !patternTypes[f.Pattern] {
		return f, fmt.Errorf("%w: fill pattern %q", ErrInvalidStyle, f.Pattern)
	}
	return f, nil
}

func (f Fill) key() string {
	return f.Pattern + "|" + f.FgColor + "|" + f.BgColor
}

func normalizeSide(s *BorderSide) (*BorderSide, error) {
	if s == nil || s.Style == "" || s.Style == "none" {
		return nil, nil
	}
	if !borderStyles[s.Style] {
		return nil, fmt.Errorf("%w: border style %q", ErrInvalidStyle, s.Style)
	}
	color, err := NormalizeColor(s.Color)
	if err != nil {
		return nil, err
	}
	return &BorderSide{Style: s.Style, Color: color}, nil
}

func (b Border) normalize() (Border, error) {
	var err error
	out := Border{DiagonalUp: b.DiagonalUp, DiagonalDown: b.DiagonalDown}
	sides := []struct {
		in  *BorderSide
		out **BorderSide
	}{
		{b.Left, &out.Left}, {b.Right, &out.Right}, {b.Top, &out.Top},
		{b.Bottom, &out.Bottom}, {b.Diagonal, &out.Diagonal},
	}
	for _, s := range sides {
		if *s.out, err = normalizeSide(s.in); err != nil {
			return out, err
		}
	}
	return out, nil
}

func sideKey(s *BorderSide) string {
	if s == nil {
		return "-"
	}
	return s.Style + "/" + s.Color
}

func (b Border) key() string {
	return strings.Join([]string{
		sideKey(b.Left), sideKey(b.Right), sideKey(b.Top), sideKey(b.Bottom), sideKey(b.Diagonal),
		strconv.FormatBool(b.DiagonalUp), strconv.FormatBool(b.DiagonalDown),
	}, "|")
}

// IsEmpty reports whether no side is drawn.
func (b Border) IsEmpty() bool {
	return b.Left == nil && b.Right == nil && b.Top == nil && b.Bottom == nil && b.Diagonal == nil
}

func (a *Alignment) normalize() (*Alignment, error) {
	if a == nil {
		return nil, nil
	}
	if a.Horizontal != "" && !horizontalValues[a.Horizontal] {
		return nil, fmt.Errorf("%w: horizontal alignment %q", ErrInvalidStyle, a.Horizontal)
	}
	if a.Vertical != "" && !verticalValues[a.Vertical] {
		return nil, fmt.Errorf("%w: vertical alignment %q", ErrInvalidStyle, a.Vertical)
	}
	if a.TextRotation < 0 || (a.TextRotation > 180 && a.TextRotation != 255) {
		return nil, fmt.Errorf("%w: text rotation %d", ErrInvalidStyle, a.TextRotation)
	}
	if a.Indent < 0 {
		return nil, fmt.Errorf("%w: indent %d", ErrInvalidStyle, a.Indent)
	}
	if *a == (Alignment{}) {
		return nil, nil
	}
	c := *a
	return &c, nil
}

func (a *Alignment) key() string {
	if a == nil {
		return "-"
	}
	return fmt.Sprintf("%s|%s|%t|%d|%d|%t", a.Horizontal, a.Vertical, a.WrapText, a.TextRotation, a.Indent, a.ShrinkToFit)
}

func (p *Protection) normalize() *Protection {
	if p == nil {
		return nil
	}
	locked := true
	if p.Locked != nil {
		locked = *p.Locked
	}
	if locked && !p.Hidden {
		return nil // identical to the format default
	}
	return &Protection{Locked: &locked, Hidden: p.Hidden}
}

// IsLocked reports the effective locked flag.
func (p *Protection) IsLocked() bool {
	return p == nil || p.Locked == nil || *p.Locked
}

func (p *Protection) key() string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%t|%t", p.IsLocked(), p.Hidden)
}
