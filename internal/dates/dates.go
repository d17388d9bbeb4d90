// Package dates provides the calendar-day keys every date-indexed
// collection in the document is looked up by. Keys are always computed
// in the location of the time value passed in, so callers must be
// consistent about which "now" they use.
package dates

import (
	"time"
)

// Layouts for the two textual date forms stored in the document.
const (
	KeyLayout       = "2006-01-02" // yyyy-MM-dd
	YearMonthLayout = "2006-01"    // yyyy-MM
)

// Key formats t as a yyyy-MM-dd key using t's own location.
func Key(t time.Time) string {
	return t.Format(KeyLayout)
}

// YearMonth formats t as yyyy-MM using t's own location.
func YearMonth(t time.Time) string {
	return t.Format(YearMonthLayout)
}

// LastNDays returns n date keys, oldest first, ending with from's day.
// n <= 0 yields an empty slice.
func LastNDays(n int, from time.Time) []string {
	if n <= 0 {
		return []string{}
	}
	start := StartOfDay(from)
	days := make([]string, n)
	for i := 0; i < n; i++ {
		days[i] = Key(start.AddDate(0, 0, i-(n-1)))
	}
	return days
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Parse reads a yyyy-MM-dd key as midnight in loc.
func Parse(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(KeyLayout, key, loc)
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the following month normalizes to the last day of month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampedDate returns midnight on the given day of the month in loc,
// clamping day into [1, last day of that month]. Unlike time.Date it
// never overflows into the next month.
func ClampedDate(year int, month time.Month, day int, loc *time.Location) time.Time {
	// Normalize month overflow first (e.g. month 13 → January next year).
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	year, month = first.Year(), first.Month()

	last := DaysInMonth(year, month)
	switch {
	case day < 1:
		day = 1
	case day > last:
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// SameDay reports whether a and b fall on the same calendar day when
// both are viewed in a's location.
func SameDay(a, b time.Time) bool {
	return Key(a) == Key(b.In(a.Location()))
}
