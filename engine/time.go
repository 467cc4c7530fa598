package engine

import (
	"time"
)

// =============================================================================
// CALENDAR HELPERS
// =============================================================================
// All helpers keep the location of their input: a "day" is a local calendar
// day in whatever zone the caller expressed the time in.

const DateLayout = "2006-01-02"

func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// AtHour returns t's calendar day at the given hour.
func AtHour(t time.Time, hour int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, t.Location())
}

func NextDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+1, t.Hour(), 0, 0, 0, t.Location())
}

func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func StartOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}

func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func DaysInYear(year int) int {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay()
}

// ParseDate reads a YYYY-MM-DD date as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, s, loc)
}

// =============================================================================
// CIVIL DAY COMPARISON
// =============================================================================
// Goal records are keyed by calendar day. Comparing the civil date (year,
// month, day read in each value's own location) keeps the comparison stable
// when a store hands back days in a different zone than the query used.

func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func SameDay(a, b time.Time) bool { return civil(a).Equal(civil(b)) }

// compareDays returns -1, 0 or +1 as a's calendar day is before, equal to or after b's.
func compareDays(a, b time.Time) int {
	return civil(a).Compare(civil(b))
}

func DaysBetween(from, to time.Time) int {
	return int(civil(to).Sub(civil(from)).Hours() / 24)
}
