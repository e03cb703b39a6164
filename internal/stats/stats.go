// Package stats derives totals, rankings, streaks and milestones from the
// canonical play history. Every function is pure and never mutates its input.
package stats

import (
	"cmp"
	"fmt"
	"slices"

	"playdash/internal/core"
)

// Chart sizes used by the dashboard views.
const (
	RecentChartSize = 5
	TopGamesSize    = 8
	MonthlyWindow   = 12
	ActivityLimit   = 8
)

// TotalPlaytime sums totalPlayedMinutes over all records.
func TotalPlaytime(records []core.PlayRecord) int {
	total := 0
	for _, r := range records {
		total += r.TotalPlayedMinutes
	}
	return total
}

// MostPlayed returns the record with the most minutes. Ties go to the
// earliest record in input order. ok is false for an empty input.
func MostPlayed(records []core.PlayRecord) (best core.PlayRecord, ok bool) {
	for i, r := range records {
		if i == 0 || r.TotalPlayedMinutes > best.TotalPlayedMinutes {
			best = r
		}
	}
	return best, len(records) > 0
}

// TopN orders items by minutes descending, keeping input order for ties, and
// returns at most n of them. The input slice is not modified.
func TopN[T any](items []T, n int, minutes func(T) int) []T {
	if n <= 0 {
		return []T{}
	}
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b T) int {
		return cmp.Compare(minutes(b), minutes(a))
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// TopGames returns the n most played titles.
func TopGames(records []core.PlayRecord, n int) []core.PlayRecord {
	return TopN(records, n, func(r core.PlayRecord) int { return r.TotalPlayedMinutes })
}

// BuildOverview summarizes a dataset for the overview panel.
func BuildOverview(ds core.CanonicalDataset) core.Overview {
	ov := core.Overview{
		TotalGames:    len(ds.PlayHistories),
		TotalMinutes:  TotalPlaytime(ds.PlayHistories),
		LastUpdatedAt: ds.LastUpdatedAt,
	}
	if best, ok := MostPlayed(ds.PlayHistories); ok {
		ov.MostPlayed = &best
	}
	return ov
}

// Milestone kinds.
const (
	MilestonePlaytime   = "playtime"
	MilestoneCollection = "collection"
	MilestoneMostPlayed = "most_played"
	MilestoneStreak     = "streak"
)

// Milestones derives the achievement list in a fixed order: total playtime,
// distinct games, most played title, and the play streak when it spans at
// least two days. The streak comes from days when any are given, otherwise
// from the records' last played dates.
func Milestones(records []core.PlayRecord, days []core.DailyRecord) []core.Milestone {
	out := []core.Milestone{
		{
			Kind:        MilestonePlaytime,
			Title:       "Playtime Champion",
			Description: fmt.Sprintf("Reached %d hours of total playtime", TotalPlaytime(records)/60),
		},
		{
			Kind:        MilestoneCollection,
			Title:       "Collector",
			Description: fmt.Sprintf("Played %d different games", len(records)),
		},
	}
	if best, ok := MostPlayed(records); ok {
		out = append(out, core.Milestone{
			Kind:        MilestoneMostPlayed,
			Title:       "Devoted Fan",
			Description: fmt.Sprintf("%s played for %d hours", best.TitleName, best.TotalPlayedMinutes/60),
		})
	}

	var streak int
	if len(days) > 0 {
		streak = ConsecutiveDayStreak(days)
	} else {
		dates := make([]core.Date, 0, len(records))
		for _, r := range records {
			if !r.LastPlayedAt.IsZero() {
				dates = append(dates, core.DateOf(r.LastPlayedAt))
			}
		}
		streak = LongestRun(dates)
	}
	if streak >= 2 {
		out = append(out, core.Milestone{
			Kind:        MilestoneStreak,
			Title:       "Consistent Player",
			Description: fmt.Sprintf("Played %d days in a row", streak),
		})
	}
	return out
}
