package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistrySeeds(t *testing.T) {
	r := NewRegistry()

	require.Len(t, r.Fonts(), 1)
	assert.Equal(t, DefaultFontName, r.Fonts()[0].Name)
	assert.Equal(t, DefaultFontSize, r.Fonts()[0].Size)

	require.Len(t, r.Fills(), 2)
	assert.Equal(t, "none", r.Fills()[0].Pattern)
	assert.Equal(t, "gray125", r.Fills()[1].Pattern)

	require.Len(t, r.Borders(), 1)
	assert.True(t, r.Borders()[0].IsEmpty())

	require.Len(t, r.CellXfs(), 1)
	assert.Equal(t, CellXf{}, r.CellXfs()[0])
	assert.Empty(t, r.NumFmts())
}

func TestRegisterKeepsUserFillsOutOfReservedSlots(t *testing.T) {
	r := NewRegistry()

	gray, err := r.Register(&Descriptor{Fill: &Fill{Pattern: "gray125"}})
	require.NoError(t, err)
	none, err := r.Register(&Descriptor{Fill: &Fill{Pattern: "none"}})
	require.NoError(t, err)

	require.Len(t, r.Fills(), 4)
	assert.Equal(t, 2, r.CellXfs()[gray].FillID)
	assert.Equal(t, 3, r.CellXfs()[none].FillID)
	assert.Equal(t, gray, r.Lookup(&Descriptor{Fill: &Fill{Pattern: "gray125"}}))

	r.Freeze()
	again, err := r.Register(&Descriptor{Fill: &Fill{Pattern: "gray125"}})
	require.NoError(t, err)
	assert.Equal(t, gray, again)
}

func TestRegisterNilIsDefault(t *testing.T) {
	r := NewRegistry()

	i, err := r.Register(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, i)

	i, err = r.Register(&Descriptor{})
	require.NoError(t, err)
	assert.Equal(t, 0, i)
	assert.Len(t, r.CellXfs(), 1)
}

func TestRegisterDeduplicates(t *testing.T) {
	r := NewRegistry()
	bold := &Descriptor{Font: &Font{Bold: true}}

	first, err := r.Register(bold)
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	second, err := r.Register(&Descriptor{Font: &Font{Bold: true, Name: "Calibri", Size: 11}})
	require.NoError(t, err)
	assert.Equal(t, first, second, "defaults are filled before hashing")

	assert.Len(t, r.Fonts(), 2)
	assert.Len(t, r.CellXfs(), 2)
	assert.Equal(t, first, r.Lookup(bold))
}

func TestRegisterSharesSubRecords(t *testing.T) {
	r := NewRegistry()
	red := &Fill{FgColor: "#FF0000"}

	a, err := r.Register(&Descriptor{Fill: red})
	require.NoError(t, err)
	b, err := r.Register(&Descriptor{Fill: red, Font: &Font{Italic: true}})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	require.Len(t, r.Fills(), 3)
	assert.Equal(t, Fill{Pattern: "solid", FgColor: "FFFF0000"}, r.Fills()[2])
	assert.Equal(t, r.CellXfs()[a].FillID, r.CellXfs()[b].FillID)
}

func TestRegisterNumberFormats(t *testing.T) {
	r := NewRegistry()

	i, err := r.Register(&Descriptor{NumberFormat: "0.00"})
	require.NoError(t, err)
	assert.Equal(t, 2, r.CellXfs()[i].NumFmtID)
	assert.Empty(t, r.NumFmts(), "built-in codes need no record")

	i, err = r.Register(&Descriptor{NumberFormat: "yyyy-mm-dd"})
	require.NoError(t, err)
	assert.Equal(t, FirstCustomNumFmtID, r.CellXfs()[i].NumFmtID)

	j, err := r.Register(&Descriptor{NumberFormat: "0.000"})
	require.NoError(t, err)
	assert.Equal(t, FirstCustomNumFmtID+1, r.CellXfs()[j].NumFmtID)

	assert.Equal(t, []NumFmt{
		{ID: 164, Code: "yyyy-mm-dd"},
		{ID: 165, Code: "0.000"},
	}, r.NumFmts())
}

func TestRegisterAlignmentAndProtection(t *testing.T) {
	r := NewRegistry()
	unlocked := false

	i, err := r.Register(&Descriptor{
		Alignment:  &Alignment{Horizontal: "center", WrapText: true},
		Protection: &Protection{Locked: &unlocked},
	})
	require.NoError(t, err)

	xf := r.CellXfs()[i]
	require.NotNil(t, xf.Alignment)
	assert.Equal(t, "center", xf.Alignment.Horizontal)
	require.NotNil(t, xf.Protection)
	assert.False(t, xf.Protection.IsLocked())

	locked := true
	i, err = r.Register(&Descriptor{Protection: &Protection{Locked: &locked}})
	require.NoError(t, err)
	assert.Equal(t, 0, i, "explicit default protection collapses to xf 0")
}

func TestRegisterErrors(t *testing.T) {
	tests := []struct {
		name string
		d    *Descriptor
		err  error
	}{
		{"bad font color", &Descriptor{Font: &Font{Color: "red"}}, ErrInvalidColor},
		{"bad fill color", &Descriptor{Fill: &Fill{FgColor: "#12345"}}, ErrInvalidColor},
		{"bad pattern", &Descriptor{Fill: &Fill{Pattern: "polka"}}, ErrInvalidStyle},
		{"bad border style", &Descriptor{Border: &Border{Left: &BorderSide{Style: "wavy"}}}, ErrInvalidStyle},
		{"bad alignment", &Descriptor{Alignment: &Alignment{Horizontal: "middle"}}, ErrInvalidStyle},
		{"bad underline", &Descriptor{Font: &Font{Underline: "triple"}}, ErrInvalidStyle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			_, err := r.Register(tt.d)
			assert.ErrorIs(t, err, tt.err)
			assert.Len(t, r.CellXfs(), 1)
		})
	}
}

func TestFrozenRegistry(t *testing.T) {
	r := NewRegistry()
	known := &Descriptor{Font: &Font{Bold: true}}
	i, err := r.Register(known)
	require.NoError(t, err)
	r.Freeze()

	j, err := r.Register(known)
	require.NoError(t, err)
	assert.Equal(t, i, j)

	_, err = r.Register(&Descriptor{Font: &Font{Italic: true}})
	assert.ErrorIs(t, err, ErrFrozen)
	assert.Len(t, r.Fonts(), 2)
	assert.Equal(t, 0, r.Lookup(&Descriptor{Font: &Font{Italic: true}}))
}

func TestNormalizeColor(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "", false},
		{"#ff0000", "FFFF0000", false},
		{"00ff00", "FF00FF00", false},
		{"#80112233", "80112233", false},
		{"#fff", "", true},
		{"zzzzzz", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeColor(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidColor, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestBuiltinNumFmt(t *testing.T) {
	code, ok := BuiltinNumFmt(14)
	assert.True(t, ok)
	assert.Equal(t, "mm-dd-yy", code)

	id, ok := BuiltinNumFmtID("@")
	assert.True(t, ok)
	assert.Equal(t, 49, id)

	_, ok = BuiltinNumFmt(100)
	assert.False(t, ok)
}

func TestDescriptorClone(t *testing.T) {
	locked := false
	d := &Descriptor{
		Font:       &Font{Bold: true},
		Border:     &Border{Top: &BorderSide{Style: "thin"}},
		Protection: &Protection{Locked: &locked},
	}
	c := d.Clone()
	c.Font.Bold = false
	c.Border.Top.Style = "thick"
	*c.Protection.Locked = true

	assert.True(t, d.Font.Bold)
	assert.Equal(t, "thin", d.Border.Top.Style)
	assert.False(t, *d.Protection.Locked)
	assert.Nil(t, (*Descriptor)(nil).Clone())
}
