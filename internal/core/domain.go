package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// UnknownTitleName labels minutes reported for a day without any per-title breakdown.
const UnknownTitleName = "Unknown title"

const dateLayout = "2006-01-02"

type (
	// Date is a calendar date without a time component, stored at UTC midnight.
	Date struct {
		time.Time
	}

	// PlayRecord is the lifetime play summary of one title.
	PlayRecord struct {
		TitleID            string    `json:"titleId"`
		TitleName          string    `json:"titleName"`
		OriginalName       string    `json:"originalName,omitempty"`
		ImageURL           string    `json:"imageUrl,omitempty"`
		DeviceType         string    `json:"deviceType,omitempty"`
		FirstPlayedAt      time.Time `json:"firstPlayedAt"`
		LastPlayedAt       time.Time `json:"lastPlayedAt"`
		TotalPlayedDays    int       `json:"totalPlayedDays"`
		TotalPlayedMinutes int       `json:"totalPlayedMinutes"`
	}

	// TitleMinutes is the playtime of one title on one day.
	TitleMinutes struct {
		TitleID   string `json:"title_id,omitempty"`
		TitleName string `json:"name"`
		ImageURL  string `json:"image_url,omitempty"`
		Minutes   int    `json:"minutes"`
	}

	// DailyRecord holds per-title minutes for a single date. Titles carries
	// one entry per title key; duplicates are summed by the normalizer.
	DailyRecord struct {
		Date   Date           `json:"date"`
		Titles []TitleMinutes `json:"games"`
	}

	// RecentActivityEntry is one title played on one recent day.
	RecentActivityEntry struct {
		Date      Date   `json:"date"`
		TitleID   string `json:"titleId"`
		TitleName string `json:"titleName"`
		ImageURL  string `json:"imageUrl,omitempty"`
		Minutes   int    `json:"totalPlayedMinutes"`
	}

	// DayGroup is a batch of recent activity entries sharing one date.
	DayGroup struct {
		PlayedDate Date                  `json:"playedDate"`
		Entries    []RecentActivityEntry `json:"dailyPlayHistories"`
	}

	// CanonicalDataset is the normalized play history and the only value persisted to cache.
	CanonicalDataset struct {
		PlayHistories       []PlayRecord `json:"playHistories"`
		RecentPlayHistories []DayGroup   `json:"recentPlayHistories"`
		LastUpdatedAt       time.Time    `json:"lastUpdatedAt"`
	}

	// CacheEntry is a persisted dataset with the time its fetch completed.
	CacheEntry struct {
		Dataset   CanonicalDataset
		FetchedAt time.Time
	}

	// DailyPoint is one day of a single title's play series.
	DailyPoint struct {
		Date    Date `json:"date"`
		Minutes int  `json:"minutes"`
	}

	// GameTimeline is the day-by-day series of one title.
	GameTimeline struct {
		TitleID  string       `json:"titleId"`
		Name     string       `json:"name"`
		ImageURL string       `json:"imageUrl,omitempty"`
		Daily    []DailyPoint `json:"daily"`
	}
)

var (
	ErrZeroDate          = errors.New("date cannot be zero")
	ErrEmptyTitleID      = errors.New("empty title id")
	ErrNegativeMinutes   = errors.New("negative minutes")
	ErrDuplicateTitleID  = errors.New("duplicate title id")
	ErrInvalidDateFormat = errors.New("invalid date format")
)

// NewDate creates a Date from year, month, day. Out of range values are
// normalized the way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate accepts "2006-01-02" optionally followed by a time part
// ("2006-01-02T15:04:05Z", "2006-01-02 15:04:05"). Only the date is kept.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "T "); i >= 0 {
		s = s[:i]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// AddDays returns the date n calendar days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return NewDate(d.Year(), d.Month(), d.Day()+n)
}

// Before reports whether d is an earlier calendar date than other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d is a later calendar date than other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		*d = Date{}
		return nil
	}
	return d.UnmarshalText([]byte(s))
}

// Key identifies the title: the title id, or the name when the id is missing.
func (t TitleMinutes) Key() string {
	if t.TitleID != "" {
		return t.TitleID
	}
	return t.TitleName
}

// Total returns the minutes played across all titles on this day.
func (d DailyRecord) Total() int {
	total := 0
	for _, t := range d.Titles {
		total += t.Minutes
	}
	return total
}

// PerTitle returns minutes keyed by title key.
func (d DailyRecord) PerTitle() map[string]int {
	out := make(map[string]int, len(d.Titles))
	for _, t := range d.Titles {
		out[t.Key()] += t.Minutes
	}
	return out
}

// Total returns the minutes played across the group.
func (g DayGroup) Total() int {
	total := 0
	for _, e := range g.Entries {
		total += e.Minutes
	}
	return total
}

func (r PlayRecord) Validate() error {
	if strings.TrimSpace(r.TitleID) == "" {
		return ErrEmptyTitleID
	}
	if r.TotalPlayedMinutes < 0 || r.TotalPlayedDays < 0 {
		return ErrNegativeMinutes
	}
	return nil
}

// Validate checks title id uniqueness and non-negative totals.
func (ds CanonicalDataset) Validate() error {
	seen := make(map[string]struct{}, len(ds.PlayHistories))
	for i, r := range ds.PlayHistories {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("play history %d: %w", i, err)
		}
		if _, dup := seen[r.TitleID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateTitleID, r.TitleID)
		}
		seen[r.TitleID] = struct{}{}
	}
	for _, g := range ds.RecentPlayHistories {
		for _, e := range g.Entries {
			if e.Minutes < 0 {
				return fmt.Errorf("recent %s: %w", g.PlayedDate, ErrNegativeMinutes)
			}
		}
	}
	return nil
}

// Fresh reports whether the entry is younger than ttl at now.
func (e CacheEntry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.FetchedAt) < ttl
}
