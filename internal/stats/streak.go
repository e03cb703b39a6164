package stats

import (
	"slices"

	"playdash/internal/core"
)

// ConsecutiveDayStreak returns the longest run of calendar-consecutive dates
// with nonzero playtime.
func ConsecutiveDayStreak(days []core.DailyRecord) int {
	dates := make([]core.Date, 0, len(days))
	for _, d := range days {
		if d.Total() > 0 {
			dates = append(dates, d.Date)
		}
	}
	return LongestRun(dates)
}

// LongestRun returns the length of the longest run of consecutive calendar
// dates in the set: 0 for no dates, at least 1 otherwise. Duplicates and
// ordering of the input do not matter.
func LongestRun(dates []core.Date) int {
	if len(dates) == 0 {
		return 0
	}
	sorted := slices.Clone(dates)
	slices.SortFunc(sorted, func(a, b core.Date) int { return a.Compare(b.Time) })
	sorted = slices.CompactFunc(sorted, func(a, b core.Date) bool { return a.Equal(b.Time) })

	best, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].AddDays(1).Equal(sorted[i].Time) {
			run++
			best = max(best, run)
		} else {
			run = 1
		}
	}
	return best
}
