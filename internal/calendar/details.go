package calendar

import (
	"cmp"
	"slices"

	"playdash/internal/core"
)

// DetailsFor returns the titles played on date. Entries for the same title,
// keyed by title id or name when the id is missing, are summed; the result
// is ordered by minutes descending with ties kept in input order.
func DetailsFor(date core.Date, days []core.DailyRecord) []core.TitleMinutes {
	out := make([]core.TitleMinutes, 0)
	index := make(map[string]int)
	for _, d := range days {
		if !d.Date.Equal(date.Time) {
			continue
		}
		for _, t := range d.Titles {
			k := t.Key()
			if i, ok := index[k]; ok {
				out[i].Minutes += t.Minutes
				out[i].ImageURL = cmp.Or(out[i].ImageURL, t.ImageURL)
				continue
			}
			index[k] = len(out)
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b core.TitleMinutes) int {
		return cmp.Compare(b.Minutes, a.Minutes)
	})
	return out
}
