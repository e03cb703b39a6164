package calendar

import "playdash/internal/core"

// Intensity levels of a calendar cell.
const (
	LevelNoData = iota
	LevelUnderOneHour
	LevelUnderTwoHours
	LevelUnderThreeHours
	LevelThreeHoursPlus
)

// AnnotatedCell is a grid cell with its day total. HasData distinguishes a
// day reported with zero minutes from a day without any record.
type AnnotatedCell struct {
	Cell
	HasData bool `json:"hasData"`
	Minutes int  `json:"minutes"`
	Level   int  `json:"level"`
}

// DailyTotals indexes the day totals of records by date.
func DailyTotals(days []core.DailyRecord) map[core.Date]int {
	out := make(map[core.Date]int, len(days))
	for _, d := range days {
		out[d.Date] += d.Total()
	}
	return out
}

// Annotate attaches the total for each cell's date when one was reported.
func Annotate(grid []Cell, totals map[core.Date]int) []AnnotatedCell {
	out := make([]AnnotatedCell, len(grid))
	for i, c := range grid {
		minutes, ok := totals[c.Date]
		out[i] = AnnotatedCell{
			Cell:    c,
			HasData: ok,
			Minutes: minutes,
			Level:   IntensityLevel(minutes, ok),
		}
	}
	return out
}

// IntensityLevel buckets a day total by whole hours played.
func IntensityLevel(minutes int, hasData bool) int {
	if !hasData {
		return LevelNoData
	}
	switch hours := minutes / 60; {
	case hours < 1:
		return LevelUnderOneHour
	case hours < 2:
		return LevelUnderTwoHours
	case hours < 3:
		return LevelUnderThreeHours
	default:
		return LevelThreeHoursPlus
	}
}

// DefaultDay picks the day selected when a grid is shown: today when it is
// in the displayed month and has data, otherwise the latest day of the
// displayed month with data. ok is false when the month has no data.
func DefaultDay(grid []AnnotatedCell) (day core.Date, ok bool) {
	for _, c := range grid {
		if c.IsToday && c.HasData {
			return c.Date, true
		}
	}
	for _, c := range grid {
		if c.IsCurrentMonth && c.HasData && (!ok || c.Date.After(day)) {
			day, ok = c.Date, true
		}
	}
	return day, ok
}
