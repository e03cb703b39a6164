package normalize

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"time"

	"playdash/internal/core"
	"playdash/internal/log"
)

// History normalizes the /api/history payload into daily records ordered by
// date ascending. Records for the same date are merged and duplicate titles
// within a day are summed.
func (n *Normalizer) History(b []byte) ([]core.DailyRecord, error) {
	var days []rawDay
	switch jsonKind(b) {
	case 0:
		return []core.DailyRecord{}, nil
	case '[':
		if err := json.Unmarshal(b, &days); err != nil {
			return nil, parseErr(EndpointHistory, err)
		}
	case '{':
		inner, key, err := objectField(b, "history", "days")
		if err != nil {
			return nil, parseErr(EndpointHistory, err)
		}
		if key == "" || jsonKind(inner) != '[' {
			n.mismatch(EndpointHistory, ShapeMismatch, "object without a history array")
			return []core.DailyRecord{}, nil
		}
		if err := json.Unmarshal(inner, &days); err != nil {
			return nil, parseErr(EndpointHistory, err)
		}
	default:
		if !json.Valid(b) {
			return nil, parseErr(EndpointHistory, errors.New("invalid JSON"))
		}
		if !isNull(b) {
			n.mismatch(EndpointHistory, ShapeMismatch, "scalar payload")
		}
		return []core.DailyRecord{}, nil
	}

	byDate := make(map[core.Date]int, len(days))
	out := make([]core.DailyRecord, 0, len(days))
	for _, d := range days {
		date, titles, ok := d.day(n, EndpointHistory)
		if !ok {
			continue
		}
		if i, seen := byDate[date]; seen {
			out[i].Titles = mergeTitles(append(out[i].Titles, titles...))
			continue
		}
		byDate[date] = len(out)
		out = append(out, core.DailyRecord{Date: date, Titles: titles})
	}
	slices.SortStableFunc(out, func(a, b core.DailyRecord) int {
		return a.Date.Compare(b.Date.Time)
	})
	return out, nil
}

// Monthly normalizes the /api/monthly_playtime mapping into month totals
// ordered by month ascending. Keys that are not "YYYY-MM" are ignored.
func (n *Normalizer) Monthly(b []byte) ([]core.MonthTotal, error) {
	if isNull(b) {
		return []core.MonthTotal{}, nil
	}
	if jsonKind(b) != '{' {
		if !json.Valid(b) {
			return nil, parseErr(EndpointMonthly, errors.New("invalid JSON"))
		}
		n.mismatch(EndpointMonthly, ShapeMismatch, "expected an object keyed by month")
		return []core.MonthTotal{}, nil
	}

	var raw map[string]flexInt
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, parseErr(EndpointMonthly, err)
	}
	out := make([]core.MonthTotal, 0, len(raw))
	for month, v := range raw {
		month = strings.TrimSpace(month)
		if _, err := time.Parse("2006-01", month); err != nil {
			n.logger.Debug("Ignoring monthly key", log.FieldMonth, month)
			continue
		}
		minutes, _ := firstInt(v)
		out = append(out, core.MonthTotal{Month: month, Minutes: minutes})
	}
	slices.SortFunc(out, func(a, b core.MonthTotal) int {
		return strings.Compare(a.Month, b.Month)
	})
	return out, nil
}

type rawGameDaily struct {
	TitleID       string `json:"title_id"`
	TitleIDCamel  string `json:"titleId"`
	Name          string `json:"name"`
	TitleName     string `json:"titleName"`
	ImageURL      string `json:"image_url"`
	ImageURLCamel string `json:"imageUrl"`
	DailyData     []struct {
		Date    string  `json:"date"`
		Minutes flexInt `json:"minutes"`
	} `json:"daily_data"`
}

// GameDaily normalizes the per-title daily series payload. Points are
// ordered by date and points sharing a date are summed.
func (n *Normalizer) GameDaily(b []byte) (core.GameTimeline, error) {
	if jsonKind(b) != '{' {
		if isNull(b) {
			return core.GameTimeline{Daily: []core.DailyPoint{}}, nil
		}
		if !json.Valid(b) {
			return core.GameTimeline{}, parseErr(EndpointGameDaily, errors.New("invalid JSON"))
		}
		n.mismatch(EndpointGameDaily, ShapeMismatch, "expected an object")
		return core.GameTimeline{Daily: []core.DailyPoint{}}, nil
	}

	var raw rawGameDaily
	if err := json.Unmarshal(b, &raw); err != nil {
		return core.GameTimeline{}, parseErr(EndpointGameDaily, err)
	}
	tl := core.GameTimeline{
		TitleID:  firstString(raw.TitleID, raw.TitleIDCamel),
		Name:     firstString(raw.Name, raw.TitleName),
		ImageURL: n.ResolveImage(firstString(raw.ImageURL, raw.ImageURLCamel)),
		Daily:    make([]core.DailyPoint, 0, len(raw.DailyData)),
	}
	index := make(map[core.Date]int, len(raw.DailyData))
	for _, p := range raw.DailyData {
		date, err := core.ParseDate(p.Date)
		if err != nil {
			n.logger.Warn("Skipping daily point with unreadable date",
				log.FieldEndpoint, EndpointGameDaily,
				log.FieldDate, p.Date)
			continue
		}
		minutes, _ := firstInt(p.Minutes)
		if i, ok := index[date]; ok {
			tl.Daily[i].Minutes += minutes
			continue
		}
		index[date] = len(tl.Daily)
		tl.Daily = append(tl.Daily, core.DailyPoint{Date: date, Minutes: minutes})
	}
	slices.SortStableFunc(tl.Daily, func(a, b core.DailyPoint) int {
		return a.Date.Compare(b.Date.Time)
	})
	return tl, nil
}
