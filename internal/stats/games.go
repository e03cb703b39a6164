package stats

import (
	"fmt"
	"slices"
	"strings"

	"playdash/internal/core"
)

// SortKey selects the game list ordering.
type SortKey string

const (
	SortByPlaytime SortKey = "playtime"
	SortByRecent   SortKey = "recent"
	SortByName     SortKey = "name"
)

// ParseSortKey validates a sort key. The empty string means playtime.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortByPlaytime, nil
	case SortByPlaytime, SortByRecent, SortByName:
		return k, nil
	default:
		return "", fmt.Errorf("unknown sort key %q", s)
	}
}

// FilterGames keeps records whose title or original name contains query,
// case-insensitively. An empty query keeps everything.
func FilterGames(records []core.PlayRecord, query string) []core.PlayRecord {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]core.PlayRecord, 0, len(records))
	for _, r := range records {
		if q == "" ||
			strings.Contains(strings.ToLower(r.TitleName), q) ||
			strings.Contains(strings.ToLower(r.OriginalName), q) {
			out = append(out, r)
		}
	}
	return out
}

// SortGames returns a sorted copy. Recent puts records without a last played
// time at the end; all orderings are stable.
func SortGames(records []core.PlayRecord, key SortKey) []core.PlayRecord {
	sorted := slices.Clone(records)
	switch key {
	case SortByRecent:
		slices.SortStableFunc(sorted, func(a, b core.PlayRecord) int {
			switch {
			case a.LastPlayedAt.IsZero() && b.LastPlayedAt.IsZero():
				return 0
			case a.LastPlayedAt.IsZero():
				return 1
			case b.LastPlayedAt.IsZero():
				return -1
			}
			return b.LastPlayedAt.Compare(a.LastPlayedAt)
		})
	case SortByName:
		slices.SortStableFunc(sorted, func(a, b core.PlayRecord) int {
			return strings.Compare(strings.ToLower(a.TitleName), strings.ToLower(b.TitleName))
		})
	default:
		sorted = TopN(sorted, len(sorted), func(r core.PlayRecord) int { return r.TotalPlayedMinutes })
	}
	return sorted
}
