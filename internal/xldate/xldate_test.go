package xldate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestToSerialBoundaries(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want float64
	}{
		{"first day", date(1900, 1, 1), 1},
		{"before phantom day", date(1900, 2, 28), 59},
		{"after phantom day", date(1900, 3, 1), 61},
		{"2024 new year", date(2024, 1, 1), 45292},
		{"known serial", date(2005, 2, 23), 38406},
		{"noon", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), 45292.5},
		{"far future", date(9999, 12, 31), 2958465},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ToSerial(tt.in), 1e-9)
		})
	}
}

func TestSerial60NeverProduced(t *testing.T) {
	for d := date(1900, 1, 1); d.Before(date(1900, 4, 1)); d = d.AddDate(0, 0, 1) {
		assert.NotEqual(t, float64(PhantomLeapDay), ToSerial(d), d.Format(time.DateOnly))
	}
}

func TestFromSerialInverse(t *testing.T) {
	for d := date(1900, 1, 1); d.Before(date(1900, 6, 1)); d = d.AddDate(0, 0, 1) {
		assert.Equal(t, d, FromSerial(ToSerial(d)))
	}
	for _, d := range []time.Time{date(1970, 1, 1), date(2000, 2, 29), date(2024, 1, 1), date(9999, 12, 31)} {
		assert.Equal(t, d, FromSerial(ToSerial(d)))
	}
}

func TestFromSerialTimeOfDay(t *testing.T) {
	in := time.Date(2021, 7, 14, 17, 47, 13, 0, time.UTC)
	got := FromSerial(ToSerial(in))
	assert.WithinDuration(t, in, got, time.Millisecond)

	assert.Equal(t, time.Date(1900, 2, 28, 0, 0, 0, 0, time.UTC), FromSerial(PhantomLeapDay))
}

func TestToSerialUsesInstant(t *testing.T) {
	east := time.FixedZone("UTC+2", 2*3600)
	in := time.Date(2024, 1, 2, 1, 30, 0, 0, east)

	assert.InDelta(t, ToSerial(in.UTC()), ToSerial(in), 1e-9)
	assert.True(t, in.Equal(FromSerial(ToSerial(in))))
	assert.True(t, HasTime(in))
	assert.False(t, HasTime(time.Date(2024, 1, 2, 2, 0, 0, 0, east)))
}

func TestIsDateFormat(t *testing.T) {
	tests := []struct {
		id   int
		code string
		want bool
	}{
		{14, "", true},
		{22, "m/d/yy h:mm", true},
		{47, "mmss.0", true},
		{0, "General", false},
		{2, "0.00", false},
		{164, "yyyy-mm-dd", true},
		{164, "[$-409]mmmm d, yyyy", true},
		{164, "[h]:mm", true},
		{164, "hh:mm:ss.000", false},
		{164, `"day "0`, false},
		{164, `#,##0.00 "days"`, false},
		{164, "[Red]0.00", false},
		{164, "@", false},
		{164, `yyyy;0`, true},
		{164, `\d0`, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsDateFormat(tt.id, tt.code), "%d %q", tt.id, tt.code)
	}
}
