package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want Date
		ok   bool
	}{
		{"2024-01-05", NewDate(2024, 1, 5), true},
		{"2024-01-05T23:59:59Z", NewDate(2024, 1, 5), true},
		{"2024-01-05 08:00:00", NewDate(2024, 1, 5), true},
		{" 2024-02-29 ", NewDate(2024, 2, 29), true},
		{"2023-02-29", Date{}, false},
		{"05/01/2024", Date{}, false},
		{"", Date{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDate(tc.in)
			if !tc.ok {
				if !errors.Is(err, ErrInvalidDateFormat) {
					t.Fatalf("expected ErrInvalidDateFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tc.want.Time) {
				t.Fatalf("got %s want %s", got, tc.want)
			}
		})
	}
}

func TestDateAddDaysCrossesMonthAndYear(t *testing.T) {
	d := NewDate(2023, 12, 31).AddDays(1)
	if d.String() != "2024-01-01" {
		t.Fatalf("got %s", d)
	}
	d = NewDate(2024, 3, 1).AddDays(-1)
	if d.String() != "2024-02-29" {
		t.Fatalf("got %s", d)
	}
}

func TestDateJSON(t *testing.T) {
	var g DayGroup
	if err := json.Unmarshal([]byte(`{"playedDate":"2024-01-02T00:00:00Z","dailyPlayHistories":[]}`), &g); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if g.PlayedDate.String() != "2024-01-02" {
		t.Fatalf("got %s", g.PlayedDate)
	}
	b, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"playedDate":"2024-01-02","dailyPlayHistories":[]}` {
		t.Fatalf("unexpected json %s", b)
	}
}

func TestDailyRecordTotals(t *testing.T) {
	rec := DailyRecord{
		Date: NewDate(2024, 1, 1),
		Titles: []TitleMinutes{
			{TitleID: "a", TitleName: "Alpha", Minutes: 30},
			{TitleName: "Beta", Minutes: 15},
		},
	}
	if rec.Total() != 45 {
		t.Fatalf("total = %d", rec.Total())
	}
	per := rec.PerTitle()
	if per["a"] != 30 || per["Beta"] != 15 {
		t.Fatalf("per title = %v", per)
	}
}

func TestCanonicalDatasetValidate(t *testing.T) {
	good := CanonicalDataset{
		PlayHistories: []PlayRecord{
			{TitleID: "a", TitleName: "Alpha", TotalPlayedMinutes: 10},
			{TitleID: "b", TitleName: "Beta", TotalPlayedMinutes: 0},
		},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []CanonicalDataset{
		{PlayHistories: []PlayRecord{{TitleID: "", TitleName: "x"}}},
		{PlayHistories: []PlayRecord{{TitleID: "a", TotalPlayedMinutes: -1}}},
		{PlayHistories: []PlayRecord{{TitleID: "a"}, {TitleID: "a"}}},
		{RecentPlayHistories: []DayGroup{{PlayedDate: NewDate(2024, 1, 1), Entries: []RecentActivityEntry{{Minutes: -5}}}}},
	}
	for i, ds := range bads {
		if err := ds.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestCacheEntryFresh(t *testing.T) {
	fetched := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	e := CacheEntry{FetchedAt: fetched}
	if !e.Fresh(fetched.Add(23*time.Hour), 24*time.Hour) {
		t.Fatalf("expected fresh before ttl")
	}
	if e.Fresh(fetched.Add(24*time.Hour), 24*time.Hour) {
		t.Fatalf("expected stale at exactly ttl")
	}
}

func TestFetchErrorIs(t *testing.T) {
	var err error = NewTransportError("/api/games", 500, nil)
	if !errors.Is(err, ErrTransport) || errors.Is(err, ErrParse) {
		t.Fatalf("transport error matched wrong sentinel: %v", err)
	}
	err = NewParseError("/api/history", errors.New("bad json"))
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected parse failure")
	}
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Endpoint != "/api/history" {
		t.Fatalf("errors.As failed: %v", err)
	}
}
