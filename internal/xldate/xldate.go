// Package xldate converts between calendar timestamps and the 1900-based
// day serials used by spreadsheet files.
//
// The 1900 system treats 1900 as a leap year: serial 60 is the nonexistent
// 1900-02-29, so every date from 1900-03-01 on is one higher than a plain
// day count from the anchor.
package xldate

import (
	"math"
	"time"
)

var (
	// anchor is serial 0; serial 1 is 1900-01-01.
	anchor = time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC)
	// leapBugBoundary is the first real date shifted by the phantom 1900-02-29.
	leapBugBoundary = time.Date(1900, 3, 1, 0, 0, 0, 0, time.UTC)
)

const (
	secondsPerDay = 86400
	msPerDay      = secondsPerDay * 1000

	// PhantomLeapDay is the serial reserved for 1900-02-29.
	PhantomLeapDay = 60

	// Offset1904 converts a 1904-system serial to the 1900 system.
	Offset1904 = 1462
)

// ToSerial converts t to a day serial. t is converted to UTC first, so
// FromSerial(ToSerial(t)) is the same instant as t.
func ToSerial(t time.Time) float64 {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	days := int((day.Unix() - anchor.Unix()) / secondsPerDay)
	if !day.Before(leapBugBoundary) {
		days++
	}
	secs := t.Hour()*3600 + t.Minute()*60 + t.Second()
	frac := (float64(secs) + float64(t.Nanosecond())/1e9) / secondsPerDay
	return float64(days) + frac
}

// FromSerial converts a day serial to a UTC time, rounded to the
// millisecond. Serial 60 decodes to 1900-02-28, matching readers that skip
// the phantom day.
func FromSerial(serial float64) time.Time {
	days := math.Floor(serial)
	ms := int64(math.Round((serial - days) * msPerDay))
	d := int(days)
	if d >= PhantomLeapDay {
		d--
	}
	return anchor.AddDate(0, 0, d).Add(time.Duration(ms) * time.Millisecond)
}

// IsTimeOnly reports whether the serial carries no date part.
func IsTimeOnly(serial float64) bool {
	return serial >= 0 && serial < 1
}

// HasTime reports whether t has a non-midnight UTC time of day.
func HasTime(t time.Time) bool {
	t = t.UTC()
	return t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0
}
