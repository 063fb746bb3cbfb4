package styles

import (
	"fmt"
	"strconv"
)

// CellXf is a composite cell format: indices into the font, fill, border and
// number format tables plus the inline alignment and protection payload.
type CellXf struct {
	NumFmtID   int
	FontID     int
	FillID     int
	BorderID   int
	Alignment  *Alignment
	Protection *Protection
}

func (x CellXf) key() string {
	return strconv.Itoa(x.NumFmtID) + "|" + strconv.Itoa(x.FontID) + "|" +
		strconv.Itoa(x.FillID) + "|" + strconv.Itoa(x.BorderID) + "|" +
		x.Alignment.key() + "|" + x.Protection.key()
}

// table is an insertion-ordered dedup table. Position equals index.
type table[T any] struct {
	keys  map[string]int
	items []T
}

func newTable[T any]() table[T] {
	return table[T]{keys: make(map[string]int)}
}

func (t *table[T]) add(key string, v T) int {
	if i, ok := t.keys[key]; ok {
		return i
	}
	i := len(t.items)
	t.keys[key] = i
	t.items = append(t.items, v)
	return i
}

func (t *table[T]) lookup(key string) (int, bool) {
	i, ok := t.keys[key]
	return i, ok
}

const seedKey = "seed|"

// Registry deduplicates style descriptors into the five indexed tables of a
// styles part. Index 0 of every table is the format default.
type Registry struct {
	fonts   table[Font]
	fills   table[Fill]
	borders table[Border]
	xfs     table[CellXf]

	numFmtIDs  map[string]int
	numFmts    []NumFmt
	nextNumFmt int

	frozen bool
}

// NewRegistry creates a registry seeded with the records every styles part
// must contain.
func NewRegistry() *Registry {
	r := &Registry{
		fonts:      newTable[Font](),
		fills:      newTable[Fill](),
		borders:    newTable[Border](),
		xfs:        newTable[CellXf](),
		numFmtIDs:  make(map[string]int),
		nextNumFmt: FirstCustomNumFmtID,
	}

	font := Font{Name: DefaultFontName, Size: DefaultFontSize}
	r.fonts.add(font.key(), font)

	// The two reserved fills are keyed apart so a user fill with the same
	// pattern gets a slot of its own.
	none := Fill{Pattern: "none"}
	gray := Fill{Pattern: "gray125"}
	r.fills.add(seedKey+none.key(), none)
	r.fills.add(seedKey+gray.key(), gray)

	var border Border
	r.borders.add(border.key(), border)

	var xf CellXf
	r.xfs.add(xf.key(), xf)
	return r
}

// Register returns the composite index for d, adding records on first
// sight. A nil or empty descriptor maps to 0.
func (r *Registry) Register(d *Descriptor) (int, error) {
	if d.IsEmpty() {
		return 0, nil
	}
	if r.frozen {
		xf, err := r.resolve(d, false)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrFrozen, err)
		}
		if i, ok := r.xfs.lookup(xf.key()); ok {
			return i, nil
		}
		return 0, ErrFrozen
	}
	xf, err := r.resolve(d, true)
	if err != nil {
		return 0, err
	}
	return r.xfs.add(xf.key(), xf), nil
}

// Lookup returns the composite index previously assigned to d without
// modifying the registry. Unknown or invalid descriptors map to 0.
func (r *Registry) Lookup(d *Descriptor) int {
	if d.IsEmpty() {
		return 0
	}
	xf, err := r.resolve(d, false)
	if err != nil {
		return 0
	}
	i, _ := r.xfs.lookup(xf.key())
	return i
}

// resolve normalizes d and maps each sub-part to its table index. With add
// false it only reads; a missing sub-part yields an error.
func (r *Registry) resolve(d *Descriptor, add bool) (CellXf, error) {
	var xf CellXf
	if d.Font != nil {
		f, err := d.Font.normalize()
		if err != nil {
			return xf, err
		}
		if xf.FontID, err = index(&r.fonts, f.key(), f, add); err != nil {
			return xf, err
		}
	}
	if d.Fill != nil {
		f, err := d.Fill.normalize()
		if err != nil {
			return xf, err
		}
		if xf.FillID, err = index(&r.fills, f.key(), f, add); err != nil {
			return xf, err
		}
	}
	if d.Border != nil {
		b, err := d.Border.normalize()
		if err != nil {
			return xf, err
		}
		if xf.BorderID, err = index(&r.borders, b.key(), b, add); err != nil {
			return xf, err
		}
	}
	if d.NumberFormat != "" {
		id, err := r.numFmtID(d.NumberFormat, add)
		if err != nil {
			return xf, err
		}
		xf.NumFmtID = id
	}

	var err error
	if xf.Alignment, err = d.Alignment.normalize(); err != nil {
		return xf, err
	}
	xf.Protection = d.Protection.normalize()
	return xf, nil
}

func index[T any](t *table[T], key string, v T, add bool) (int, error) {
	if add {
		return t.add(key, v), nil
	}
	if i, ok := t.lookup(key); ok {
		return i, nil
	}
	return 0, fmt.Errorf("%w: unregistered record", ErrInvalidStyle)
}

func (r *Registry) numFmtID(code string, add bool) (int, error) {
	if id, ok := BuiltinNumFmtID(code); ok {
		return id, nil
	}
	if id, ok := r.numFmtIDs[code]; ok {
		return id, nil
	}
	if !add {
		return 0, fmt.Errorf("%w: unregistered number format %q", ErrInvalidStyle, code)
	}
	id := r.nextNumFmt
	r.nextNumFmt++
	r.numFmtIDs[code] = id
	r.numFmts = append(r.numFmts, NumFmt{ID: id, Code: code})
	return id, nil
}

// Freeze makes the registry read-only; Register fails afterwards unless the
// descriptor is already known.
func (r *Registry) Freeze() {
	r.frozen = true
}

// Fonts returns the font table in index order.
func (r *Registry) Fonts() []Font { return r.fonts.items }

// Fills returns the fill table in index order.
func (r *Registry) Fills() []Fill { return r.fills.items }

// Borders returns the border table in index order.
func (r *Registry) Borders() []Border { return r.borders.items }

// CellXfs returns the composite table in index order.
func (r *Registry) CellXfs() []CellXf { return r.xfs.items }

// NumFmts returns the custom number formats in id order.
func (r *Registry) NumFmts() []NumFmt { return r.numFmts }
