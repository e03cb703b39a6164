// Package calendar lays out month grids, annotates them with daily totals and
// resolves the per-title breakdown of a single day.
package calendar

import (
	"fmt"
	"time"

	"playdash/internal/core"
)

// GridCells is the fixed size of a month grid: six weeks of seven days.
const GridCells = 42

// Month identifies a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing d.
func MonthOf(d core.Date) Month {
	return Month{Year: d.Year(), Month: d.Month()}
}

// Shift moves delta months forward (backward when negative). There are no bounds.
func (m Month) Shift(delta int) Month {
	first := time.Date(m.Year, m.Month+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	return Month{Year: first.Year(), Month: first.Month()}
}

// First returns the first day of the month.
func (m Month) First() core.Date {
	return core.NewDate(m.Year, m.Month, 1)
}

// Contains reports whether d falls in the month.
func (m Month) Contains(d core.Date) bool {
	return d.Year() == m.Year && d.Month() == m.Month
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// Cell is one day of a month grid.
type Cell struct {
	Date           core.Date `json:"date"`
	IsCurrentMonth bool      `json:"isCurrentMonth"`
	IsToday        bool      `json:"isToday"`
}

// BuildMonthGrid returns the 42 cells of m's grid. The first row starts on
// the Sunday on or before the 1st; the remainder is padded with days of the
// previous and next months.
func BuildMonthGrid(m Month, today core.Date) []Cell {
	first := m.First()
	start := first.AddDays(-int(first.Weekday()))
	cells := make([]Cell, GridCells)
	for i := range cells {
		d := start.AddDays(i)
		cells[i] = Cell{
			Date:           d,
			IsCurrentMonth: m.Contains(d),
			IsToday:        m.Contains(d) && d.Equal(today.Time),
		}
	}
	return cells
}

// ShiftMonth moves current by delta months and builds the new grid.
func ShiftMonth(current Month, delta int, today core.Date) (Month, []Cell) {
	next := current.Shift(delta)
	return next, BuildMonthGrid(next, today)
}
