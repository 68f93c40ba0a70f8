package common

import "time"

// DateLayout is the persisted form of a calendar date.
const DateLayout = "2006-01-02"

// DateOf drops the clock part of t, keeping its calendar day in its own location.
// The result is midnight UTC so dates compare with Equal regardless of zone.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a calendar date for storage.
func FormatDate(t time.Time) string {
	return DateOf(t).Format(DateLayout)
}

// ParseDate parses a stored calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// IsMonthDay reports whether t falls on the given month and day of any year.
func IsMonthDay(t time.Time, month time.Month, day int) bool {
	return t.Month() == month && t.Day() == day
}
