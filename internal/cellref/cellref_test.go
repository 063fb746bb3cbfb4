package cellref

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnName(t *testing.T) {
	tests := []struct {
		col  int
		want string
	}{
		{0, "A"},
		{25, "Z"},
		{26, "AA"},
		{51, "AZ"},
		{52, "BA"},
		{701, "ZZ"},
		{702, "AAA"},
		{16383, "XFD"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ColumnName(tt.col), "col %d", tt.col)
		got, err := ColumnIndex(tt.want)
		require.NoError(t, err)
		assert.Equal(t, tt.col, got)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Ref
		wantErr error
	}{
		{name: "A1", input: "A1", want: Ref{0, 0}},
		{name: "absolute markers", input: "$B$23", want: Ref{22, 1}},
		{name: "lowercase", input: "aa100", want: Ref{99, 26}},
		{name: "spaces", input: " C3 ", want: Ref{2, 2}},
		{name: "no row", input: "A", wantErr: ErrInvalidReference},
		{name: "no column", input: "12", wantErr: ErrInvalidReference},
		{name: "row zero", input: "A0", wantErr: ErrInvalidReference},
		{name: "negative", input: "A-1", wantErr: ErrInvalidReference},
		{name: "digits first", input: "1A", wantErr: ErrInvalidReference},
		{name: "column past XFD", input: "XFE1", wantErr: ErrInvalidReference},
		{name: "row past limit", input: "A1048577", wantErr: ErrInvalidReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.input)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeDecodeBijection(t *testing.T) {
	rows := []int{0, 1, 9, 99, 1048575}
	for col := 0; col < MaxColumns; col += 37 {
		for _, row := range rows {
			ref, err := Decode(Encode(row, col))
			require.NoError(t, err)
			assert.Equal(t, Ref{Row: row, Col: col}, ref)
		}
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "single", input: "B2", want: "B2"},
		{name: "range", input: "A1:C10", want: "A1:C10"},
		{name: "reversed", input: "D5:B2", want: "B2:D5"},
		{name: "mixed corners", input: "B5:D2", want: "B2:D5"},
		{name: "absolute", input: "$A$1:$B$2", want: "A1:B2"},
		{name: "incomplete", input: "A1:B", wantErr: ErrInvalidRange},
		{name: "too many parts", input: "A1:B2:C3", wantErr: ErrInvalidRange},
		{name: "garbage", input: "nope", wantErr: ErrInvalidReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseRange(tt.input)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.String())
		})
	}
}

func TestRangeContains(t *testing.T) {
	r, err := ParseRange("B2:C4")
	require.NoError(t, err)

	assert.True(t, r.Contains(1, 1))
	assert.True(t, r.Contains(3, 2))
	assert.False(t, r.Contains(0, 1))
	assert.False(t, r.Contains(1, 3))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(0, 0))
	assert.ErrorIs(t, Validate(-1, 0), ErrInvalidReference)
	assert.ErrorIs(t, Validate(0, MaxColumns), ErrInvalidReference)
}
