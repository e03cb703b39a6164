package stats

import (
	"time"

	"playdash/internal/core"
)

// WeekStart returns the most recent Sunday on or before now, using the
// calendar of now's location.
func WeekStart(now time.Time) core.Date {
	today := core.DateOf(now)
	return today.AddDays(-int(now.Weekday()))
}

// MonthStart returns the first day of now's month in now's location.
func MonthStart(now time.Time) core.Date {
	y, m, _ := now.Date()
	return core.NewDate(y, m, 1)
}

// PeriodSum sums the day totals of records dated on or after start.
func PeriodSum(days []core.DailyRecord, start core.Date) int {
	total := 0
	for _, d := range days {
		if !d.Date.Before(start) {
			total += d.Total()
		}
	}
	return total
}

// RangeSum sums the day totals of records in [from, to).
func RangeSum(days []core.DailyRecord, from, to core.Date) int {
	total := 0
	for _, d := range days {
		if !d.Date.Before(from) && d.Date.Before(to) {
			total += d.Total()
		}
	}
	return total
}

// Period computes the current week and month sums relative to now.
func Period(days []core.DailyRecord, now time.Time) core.PeriodStats {
	week, month := WeekStart(now), MonthStart(now)
	return core.PeriodStats{
		WeekStart:    week,
		MonthStart:   month,
		WeekMinutes:  PeriodSum(days, week),
		MonthMinutes: PeriodSum(days, month),
	}
}

// LastMonths keeps the n most recent months by "YYYY-MM" ordering and
// returns them oldest first.
func LastMonths(months []core.MonthTotal, n int) []core.MonthTotal {
	sorted := sortedMonths(months)
	if n >= 0 && len(sorted) > n {
		sorted = sorted[len(sorted)-n:]
	}
	return sorted
}
