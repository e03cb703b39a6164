package stats

import (
	"cmp"
	"slices"
	"strings"

	"playdash/internal/core"
)

// RecentTitleTotals sums minutes per title across the recent day-groups, in
// order of first appearance.
func RecentTitleTotals(groups []core.DayGroup) []core.TitleMinutes {
	out := make([]core.TitleMinutes, 0)
	index := make(map[string]int)
	for _, g := range groups {
		for _, e := range g.Entries {
			k := cmp.Or(e.TitleID, e.TitleName)
			if i, ok := index[k]; ok {
				out[i].Minutes += e.Minutes
				continue
			}
			index[k] = len(out)
			out = append(out, core.TitleMinutes{
				TitleID:   e.TitleID,
				TitleName: e.TitleName,
				ImageURL:  e.ImageURL,
				Minutes:   e.Minutes,
			})
		}
	}
	return out
}

// RecentChart returns the n titles played most in the recent window. When
// the window has no title data it falls back to the n most played titles
// overall and reports fallback=true.
func RecentChart(ds core.CanonicalDataset, n int) (items []core.TitleMinutes, fallback bool) {
	totals := RecentTitleTotals(ds.RecentPlayHistories)
	if len(totals) > 0 {
		return TopN(totals, n, func(t core.TitleMinutes) int { return t.Minutes }), false
	}
	top := TopGames(ds.PlayHistories, n)
	items = make([]core.TitleMinutes, 0, len(top))
	for _, r := range top {
		items = append(items, core.TitleMinutes{
			TitleID:   r.TitleID,
			TitleName: r.TitleName,
			ImageURL:  r.ImageURL,
			Minutes:   r.TotalPlayedMinutes,
		})
	}
	return items, true
}

// RecentActivity flattens day-groups into entries ordered most recent first,
// keeping the in-group order for entries of the same day, capped at limit.
func RecentActivity(groups []core.DayGroup, limit int) []core.RecentActivityEntry {
	if limit <= 0 {
		return []core.RecentActivityEntry{}
	}
	ordered := slices.Clone(groups)
	slices.SortStableFunc(ordered, func(a, b core.DayGroup) int {
		return b.PlayedDate.Compare(a.PlayedDate.Time)
	})
	out := make([]core.RecentActivityEntry, 0, limit)
	for _, g := range ordered {
		for _, e := range g.Entries {
			if len(out) >= limit {
				return out
			}
			out = append(out, e)
		}
	}
	return out
}

// RecentDay is one day of the recent tab.
type RecentDay struct {
	Date    core.Date                  `json:"date"`
	Minutes int                        `json:"minutes"`
	Entries []core.RecentActivityEntry `json:"entries"`
}

// RecentDays returns each day-group with its total and its titles ordered by
// minutes descending.
func RecentDays(groups []core.DayGroup) []RecentDay {
	out := make([]RecentDay, 0, len(groups))
	for _, g := range groups {
		out = append(out, RecentDay{
			Date:    g.PlayedDate,
			Minutes: g.Total(),
			Entries: TopN(g.Entries, len(g.Entries), func(e core.RecentActivityEntry) int { return e.Minutes }),
		})
	}
	return out
}

// DayLabel renders date relative to today: "Today", "Yesterday" or the date.
func DayLabel(date, today core.Date) string {
	switch {
	case date.Equal(today.Time):
		return "Today"
	case date.Equal(today.AddDays(-1).Time):
		return "Yesterday"
	default:
		return date.String()
	}
}

func sortedMonths(months []core.MonthTotal) []core.MonthTotal {
	sorted := slices.Clone(months)
	slices.SortStableFunc(sorted, func(a, b core.MonthTotal) int {
		return strings.Compare(a.Month, b.Month)
	})
	return sorted
}
