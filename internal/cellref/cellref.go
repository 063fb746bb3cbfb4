// Package cellref converts between 0-based (row, col) coordinates and A1
// notation.
package cellref

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Error types
var (
	ErrInvalidReference = errors.New("invalid cell reference")
	ErrInvalidRange     = errors.New("invalid cell range")
)

// Sheet limits of the file format.
const (
	MaxColumns = 16384
	MaxRows    = 1048576
)

// refRegex matches references like A1, $B$23, aa100
var refRegex = regexp.MustCompile(`^([A-Za-z]+)([0-9]+)$`)

// Ref is a 0-based cell coordinate.
type Ref struct {
	Row int
	Col int
}

// String returns the reference in A1 notation.
func (r Ref) String() string {
	return Encode(r.Row, r.Col)
}

// Range is a rectangular block of cells, inclusive on both ends.
type Range struct {
	Start Ref
	End   Ref
}

// ColumnName converts a 0-based column index to letters (0 -> A, 26 -> AA).
func ColumnName(col int) string {
	if col < 0 {
		return ""
	}
	var buf [8]byte
	i := len(buf)
	n := col + 1
	for n > 0 {
		n-- // bijective base 26 has no zero digit
		i--
		buf[i] = byte('A' + n%26)
		n /= 26
	}
	return string(buf[i:])
}

// ColumnIndex converts column letters to a 0-based index.
func ColumnIndex(letters string) (int, error) {
	if letters == "" {
		return 0, fmt.Errorf("%w: empty column", ErrInvalidReference)
	}
	n := 0
	for i := 0; i < len(letters); i++ {
		c := letters[i]
		switch {
		case c >= 'A' && c <= 'Z':
			n = n*26 + int(c-'A'+1)
		case c >= 'a' && c <= 'z':
			n = n*26 + int(c-'a'+1)
		default:
			return 0, fmt.Errorf("%w: column %q", ErrInvalidReference, letters)
		}
		if n > MaxColumns {
			return 0, fmt.Errorf("%w: column %q out of range", ErrInvalidReference, letters)
		}
	}
	return n - 1, nil
}

// Encode formats a 0-based row and column as A1 notation.
func Encode(row, col int) string {
	return ColumnName(col) + strconv.Itoa(row+1)
}

// Decode parses A1 notation into a 0-based Ref. "$" markers are ignored.
func Decode(ref string) (Ref, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(ref), "$", "")
	m := refRegex.FindStringSubmatch(clean)
	if m == nil {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidReference, ref)
	}
	col, err := ColumnIndex(m[1])
	if err != nil {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidReference, ref)
	}
	row, err := strconv.Atoi(m[2])
	if err != nil || row < 1 || row > MaxRows {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidReference, ref)
	}
	return Ref{Row: row - 1, Col: col}, nil
}

// Validate reports whether a 0-based coordinate fits the sheet limits.
func Validate(row, col int) error {
	if row < 0 || row >= MaxRows || col < 0 || col >= MaxColumns {
		return fmt.Errorf("%w: row %d col %d", ErrInvalidReference, row, col)
	}
	return nil
}

// ParseRange parses "A1:C10" or a bare "A1". Reversed bounds are normalized.
func ParseRange(s string) (Range, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	switch len(parts) {
	case 1:
		ref, err := Decode(parts[0])
		if err != nil {
			return Range{}, err
		}
		return Range{Start: ref, End: ref}, nil
	case 2:
		start, err := Decode(parts[0])
		if err != nil {
			return Range{}, fmt.Errorf("%w: invalid start %s", ErrInvalidRange, parts[0])
		}
		end, err := Decode(parts[1])
		if err != nil {
			return Range{}, fmt.Errorf("%w: invalid end %s", ErrInvalidRange, parts[1])
		}
		return Range{Start: start, End: end}.Normalize(), nil
	default:
		return Range{}, fmt.Errorf("%w: %s", ErrInvalidRange, s)
	}
}

// Normalize orders the bounds so Start is the top-left corner.
func (r Range) Normalize() Range {
	if r.Start.Row > r.End.Row {
		r.Start.Row, r.End.Row = r.End.Row, r.Start.Row
	}
	if r.Start.Col > r.End.Col {
		r.Start.Col, r.End.Col = r.End.Col, r.Start.Col
	}
	return r
}

// Contains checks if a cell is within this range.
func (r Range) Contains(row, col int) bool {
	return row >= r.Start.Row && row <= r.End.Row &&
		col >= r.Start.Col && col <= r.End.Col
}

// Single reports whether the range covers exactly one cell.
func (r Range) Single() bool {
	return r.Start == r.End
}

// String returns the range as "A1:C10", or "A1" for a single cell.
func (r Range) String() string {
	if r.Single() {
		return r.Start.String()
	}
	return r.Start.String() + ":" + r.End.String()
}
