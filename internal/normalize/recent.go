package normalize

import (
	"cmp"
	"encoding/json"
	"errors"
	"slices"

	"playdash/internal/core"
	"playdash/internal/log"
)

// Shape is the classified structure of a recent activity payload.
type Shape int

const (
	// ShapeEmpty is an empty body or JSON null.
	ShapeEmpty Shape = iota
	// ShapeArray is a bare array of day-groups.
	ShapeArray
	// ShapeWrapped is an object holding the day-groups under a known key.
	ShapeWrapped
	// ShapeMismatch is valid JSON matching no known shape.
	ShapeMismatch
)

func (s Shape) String() string {
	switch s {
	case ShapeEmpty:
		return "empty"
	case ShapeArray:
		return "array"
	case ShapeWrapped:
		return "wrapped"
	case ShapeMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// wrappedRecentKeys are the object keys the day-group array has been served under.
var wrappedRecentKeys = []string{"recentPlayHistories", "recent_play_histories"}

type rawEntry struct {
	TitleID            string  `json:"titleId"`
	TitleIDSnake       string  `json:"title_id"`
	TitleName          string  `json:"titleName"`
	Name               string  `json:"name"`
	ImageURL           string  `json:"imageUrl"`
	ImageURLSnake      string  `json:"image_url"`
	TotalPlayedMinutes flexInt `json:"totalPlayedMinutes"`
	PlayedMinutes      flexInt `json:"playedMinutes"`
	Minutes            flexInt `json:"minutes"`
	TotalMinutes       flexInt `json:"total_minutes"`
}

func (e rawEntry) titleMinutes(n *Normalizer) core.TitleMinutes {
	minutes, _ := firstInt(e.TotalPlayedMinutes, e.PlayedMinutes, e.Minutes, e.TotalMinutes)
	name := firstString(e.TitleName, e.Name)
	if name == "" {
		name = core.UnknownTitleName
	}
	return core.TitleMinutes{
		TitleID:   firstString(e.TitleID, e.TitleIDSnake),
		TitleName: name,
		ImageURL:  n.ResolveImage(firstString(e.ImageURL, e.ImageURLSnake)),
		Minutes:   minutes,
	}
}

// rawDay covers both the recent activity day-group and the history day record.
type rawDay struct {
	PlayedDate      string     `json:"playedDate"`
	PlayedDateSnake string     `json:"played_date"`
	Date            string     `json:"date"`
	Entries         []rawEntry `json:"dailyPlayHistories"`
	EntriesSnake    []rawEntry `json:"daily_play_histories"`
	Games           []rawEntry `json:"games"`
	DayMinutes      flexInt    `json:"totalPlayedMinutes"`
	DayMinutesSnake flexInt    `json:"total_minutes"`
}

func (d rawDay) entries() []rawEntry {
	switch {
	case len(d.Entries) > 0:
		return d.Entries
	case len(d.EntriesSnake) > 0:
		return d.EntriesSnake
	default:
		return d.Games
	}
}

// day converts the raw day into a date and per-title minutes. Title entries
// are authoritative; the day aggregate is only used, as an unknown-title
// bucket, when the day carries no title entries at all.
func (d rawDay) day(n *Normalizer, endpoint string) (core.Date, []core.TitleMinutes, bool) {
	rawDate := firstString(d.PlayedDate, d.PlayedDateSnake, d.Date)
	date, err := core.ParseDate(rawDate)
	if err != nil {
		n.logger.Warn("Skipping day with unreadable date",
			log.FieldEndpoint, endpoint,
			log.FieldDate, rawDate)
		return core.Date{}, nil, false
	}

	entries := d.entries()
	titles := make([]core.TitleMinutes, 0, len(entries))
	for _, e := range entries {
		titles = append(titles, e.titleMinutes(n))
	}
	if len(titles) == 0 {
		if total, ok := firstInt(d.DayMinutes, d.DayMinutesSnake); ok && total > 0 {
			titles = append(titles, core.TitleMinutes{TitleName: core.UnknownTitleName, Minutes: total})
		}
	}
	return date, mergeTitles(titles), true
}

type recentPayload struct {
	shape Shape
	days  []rawDay
}

// classifyRecent decides the payload shape up front. Only malformed JSON is
// an error; a valid document of an unknown shape is reported as ShapeMismatch.
func classifyRecent(b []byte) (recentPayload, error) {
	switch jsonKind(b) {
	case 0:
		return recentPayload{shape: ShapeEmpty}, nil
	case '[':
		var days []rawDay
		if err := json.Unmarshal(b, &days); err != nil {
			return recentPayload{}, err
		}
		return recentPayload{shape: ShapeArray, days: days}, nil
	case '{':
		inner, key, err := objectField(b, wrappedRecentKeys...)
		if err != nil {
			return recentPayload{}, err
		}
		if key == "" {
			return recentPayload{shape: ShapeMismatch}, nil
		}
		if isNull(inner) {
			return recentPayload{shape: ShapeEmpty}, nil
		}
		if jsonKind(inner) != '[' {
			return recentPayload{shape: ShapeMismatch}, nil
		}
		var days []rawDay
		if err := json.Unmarshal(inner, &days); err != nil {
			return recentPayload{}, err
		}
		return recentPayload{shape: ShapeWrapped, days: days}, nil
	default:
		if !json.Valid(b) {
			return recentPayload{}, errors.New("invalid JSON")
		}
		if isNull(b) {
			return recentPayload{shape: ShapeEmpty}, nil
		}
		return recentPayload{shape: ShapeMismatch}, nil
	}
}

// Recent normalizes the /api/recent_activities payload into day-groups,
// most recent first, with one entry per title per day.
func (n *Normalizer) Recent(b []byte) ([]core.DayGroup, error) {
	p, err := classifyRecent(b)
	if err != nil {
		return nil, parseErr(EndpointRecent, err)
	}
	n.logger.Debug("Classified recent activity payload",
		log.FieldShape, p.shape.String(),
		log.FieldDays, len(p.days))

	switch p.shape {
	case ShapeArray, ShapeWrapped:
		return n.dayGroups(p.days), nil
	case ShapeMismatch:
		n.mismatch(EndpointRecent, p.shape, "no day-group array found")
		return []core.DayGroup{}, nil
	default:
		return []core.DayGroup{}, nil
	}
}

func (n *Normalizer) dayGroups(days []rawDay) []core.DayGroup {
	byDate := make(map[core.Date]int, len(days))
	groups := make([]core.DayGroup, 0, len(days))
	for _, d := range days {
		date, titles, ok := d.day(n, EndpointRecent)
		if !ok {
			continue
		}
		entries := make([]core.RecentActivityEntry, 0, len(titles))
		for _, t := range titles {
			entries = append(entries, core.RecentActivityEntry{
				Date:      date,
				TitleID:   t.TitleID,
				TitleName: t.TitleName,
				ImageURL:  t.ImageURL,
				Minutes:   t.Minutes,
			})
		}
		if i, seen := byDate[date]; seen {
			groups[i].Entries = mergeEntries(append(groups[i].Entries, entries...))
			continue
		}
		byDate[date] = len(groups)
		groups = append(groups, core.DayGroup{PlayedDate: date, Entries: entries})
	}
	slices.SortStableFunc(groups, func(a, b core.DayGroup) int {
		return b.PlayedDate.Compare(a.PlayedDate.Time)
	})
	return groups
}

// mergeTitles sums minutes of entries sharing a title key, keeping the
// position of the first occurrence and filling missing fields from later ones.
func mergeTitles(in []core.TitleMinutes) []core.TitleMinutes {
	out := make([]core.TitleMinutes, 0, len(in))
	index := make(map[string]int, len(in))
	for _, t := range in {
		k := t.Key()
		if i, ok := index[k]; ok {
			out[i].Minutes += t.Minutes
			out[i].ImageURL = cmp.Or(out[i].ImageURL, t.ImageURL)
			continue
		}
		index[k] = len(out)
		out = append(out, t)
	}
	return out
}

func mergeEntries(in []core.RecentActivityEntry) []core.RecentActivityEntry {
	out := make([]core.RecentActivityEntry, 0, len(in))
	index := make(map[string]int, len(in))
	for _, e := range in {
		k := cmp.Or(e.TitleID, e.TitleName)
		if i, ok := index[k]; ok {
			out[i].Minutes += e.Minutes
			out[i].ImageURL = cmp.Or(out[i].ImageURL, e.ImageURL)
			continue
		}
		index[k] = len(out)
		out = append(out, e)
	}
	return out
}
