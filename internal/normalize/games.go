package normalize

import (
	"encoding/json"
	"errors"
	"time"

	"playdash/internal/core"
	"playdash/internal/log"
)

type rawGame struct {
	TitleID            string  `json:"titleId"`
	TitleIDSnake       string  `json:"title_id"`
	TitleName          string  `json:"titleName"`
	Name               string  `json:"name"`
	OriginalName       string  `json:"originalName"`
	OriginalNameSnake  string  `json:"original_name"`
	ImageURL           string  `json:"imageUrl"`
	ImageURLSnake      string  `json:"image_url"`
	DeviceType         string  `json:"deviceType"`
	DeviceTypeSnake    string  `json:"device_type"`
	FirstPlayedAt      string  `json:"firstPlayedAt"`
	FirstPlayedAtSnake string  `json:"first_played_at"`
	LastPlayedAt       string  `json:"lastPlayedAt"`
	LastPlayedAtSnake  string  `json:"last_played_at"`
	TotalPlayedDays    flexInt `json:"totalPlayedDays"`
	TotalDaysSnake     flexInt `json:"total_played_days"`
	TotalPlayedMinutes flexInt `json:"totalPlayedMinutes"`
	TotalMinutesSnake  flexInt `json:"total_played_minutes"`
	TotalMinutesShort  flexInt `json:"total_minutes"`
}

func (g rawGame) record(n *Normalizer) core.PlayRecord {
	minutes, _ := firstInt(g.TotalPlayedMinutes, g.TotalMinutesSnake, g.TotalMinutesShort)
	days, _ := firstInt(g.TotalPlayedDays, g.TotalDaysSnake)
	name := firstString(g.TitleName, g.Name)
	id := firstString(g.TitleID, g.TitleIDSnake)
	if id == "" {
		id = name
	}
	return core.PlayRecord{
		TitleID:            id,
		TitleName:          name,
		OriginalName:       firstString(g.OriginalName, g.OriginalNameSnake),
		ImageURL:           n.ResolveImage(firstString(g.ImageURL, g.ImageURLSnake)),
		DeviceType:         firstString(g.DeviceType, g.DeviceTypeSnake),
		FirstPlayedAt:      parseTimestamp(firstString(g.FirstPlayedAt, g.FirstPlayedAtSnake)),
		LastPlayedAt:       parseTimestamp(firstString(g.LastPlayedAt, g.LastPlayedAtSnake)),
		TotalPlayedDays:    days,
		TotalPlayedMinutes: minutes,
	}
}

// Games normalizes the /api/games payload: a bare array of games, or an
// object wrapping it under "playHistories" or "games".
//
// Records sharing a title id are merged into the position of the first
// occurrence: totals take the maximum, first play the earliest, last play
// the latest, and empty descriptive fields are filled from later records.
// Totals only ever grow, so the maximum is the most recent observation.
func (n *Normalizer) Games(b []byte) ([]core.PlayRecord, error) {
	items, err := n.gamesArray(b)
	if err != nil {
		return nil, err
	}

	out := make([]core.PlayRecord, 0, len(items))
	index := make(map[string]int, len(items))
	for _, raw := range items {
		rec := raw.record(n)
		if rec.TitleID == "" {
			n.logger.Warn("Skipping game without title id or name",
				log.FieldEndpoint, EndpointGames,
				"minutes", rec.TotalPlayedMinutes)
			continue
		}
		if i, dup := index[rec.TitleID]; dup {
			n.logger.Warn("Duplicate title id in games payload, merging",
				log.FieldTitleID, rec.TitleID,
				"kept_minutes", out[i].TotalPlayedMinutes,
				"duplicate_minutes", rec.TotalPlayedMinutes)
			out[i] = mergeRecords(out[i], rec)
			continue
		}
		index[rec.TitleID] = len(out)
		out = append(out, rec)
	}
	return out, nil
}

func (n *Normalizer) gamesArray(b []byte) ([]rawGame, error) {
	var items []rawGame
	switch jsonKind(b) {
	case 0, 'n':
		if !isNull(b) {
			return nil, parseErr(EndpointGames, errors.New("invalid JSON"))
		}
		return nil, nil
	case '[':
		if err := json.Unmarshal(b, &items); err != nil {
			return nil, parseErr(EndpointGames, err)
		}
	case '{':
		inner, key, err := objectField(b, "playHistories", "games", "play_histories")
		if err != nil {
			return nil, parseErr(EndpointGames, err)
		}
		if key == "" || isNull(inner) {
			n.mismatch(EndpointGames, ShapeMismatch, "object without a games array")
			return nil, nil
		}
		if err := json.Unmarshal(inner, &items); err != nil {
			return nil, parseErr(EndpointGames, err)
		}
	default:
		if !json.Valid(b) {
			return nil, parseErr(EndpointGames, errors.New("invalid JSON"))
		}
		n.mismatch(EndpointGames, ShapeMismatch, "scalar payload")
	}
	return items, nil
}

func mergeRecords(a, b core.PlayRecord) core.PlayRecord {
	a.TotalPlayedMinutes = max(a.TotalPlayedMinutes, b.TotalPlayedMinutes)
	a.TotalPlayedDays = max(a.TotalPlayedDays, b.TotalPlayedDays)
	a.FirstPlayedAt = earliest(a.FirstPlayedAt, b.FirstPlayedAt)
	if b.LastPlayedAt.After(a.LastPlayedAt) {
		a.LastPlayedAt = b.LastPlayedAt
	}
	if a.TitleName == "" {
		a.TitleName = b.TitleName
	}
	if a.OriginalName == "" {
		a.OriginalName = b.OriginalName
	}
	if a.ImageURL == "" {
		a.ImageURL = b.ImageURL
	}
	if a.DeviceType == "" {
		a.DeviceType = b.DeviceType
	}
	return a
}

func earliest(a, b time.Time) time.Time {
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	case b.Before(a):
		return b
	default:
		return a
	}
}
