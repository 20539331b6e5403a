package core

import "time"

// Period is the first and last calendar day of one month. Derived, never
// stored.
type Period struct {
	Start time.Time
	End   time.Time
}

// MonthPeriod returns the period covering the month that contains monthStart.
func MonthPeriod(monthStart time.Time) Period {
	y, m, _ := monthStart.Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, -1)}
}

// RemainingDays reports the number of days in the month containing monthStart
// and how many of them are still ahead relative to today, floored at 1. Only
// the month currently being lived in is partially consumed: for a past or
// future month the whole month counts as remaining, since a daily suggestion
// is only meaningful for the current month.
func RemainingDays(monthStart, today time.Time) (daysInMonth, remaining int) {
	p := MonthPeriod(monthStart)
	daysInMonth = p.End.Day()
	if !sameMonth(monthStart, today) {
		return daysInMonth, daysInMonth
	}
	remaining = daysInMonth - today.Day() + 1
	if remaining < 1 {
		remaining = 1
	}
	return daysInMonth, remaining
}

// MonthsBetween returns the number of whole calendar months from the month
// containing a to the month containing b. Negative when b's month is earlier.
func MonthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// OverlapsPeriod reports whether the lifespan is active at any point of the
// period: an interval-overlap test, not an equality test, so an entry that
// starts or ends mid-period counts for the whole period. The Active flag is
// deliberately not consulted here; call sites filter on it first.
func (l Lifespan) OverlapsPeriod(p Period) bool {
	if l.StartsOn.After(p.End) {
		return false
	}
	if l.EndsOn.IsEmpty() {
		return true
	}
	return !l.EndsOn.Before(p.Start)
}
