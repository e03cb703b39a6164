package stats

import (
	"testing"
	"time"

	"playdash/internal/core"
)

func library() []core.PlayRecord {
	return []core.PlayRecord{
		{TitleID: "1", TitleName: "zelda", OriginalName: "The Legend of Zelda", TotalPlayedMinutes: 50,
			LastPlayedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{TitleID: "2", TitleName: "Mario Kart", TotalPlayedMinutes: 300},
		{TitleID: "3", TitleName: "Animal Crossing", TotalPlayedMinutes: 300,
			LastPlayedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func ids(records []core.PlayRecord) string {
	s := ""
	for _, r := range records {
		s += r.TitleID
	}
	return s
}

func TestFilterGames(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"", "123"},
		{"LEGEND", "1"},
		{"kart", "2"},
		{"  crossing ", "3"},
		{"metroid", ""},
	}
	for _, tt := range tests {
		if got := ids(FilterGames(library(), tt.query)); got != tt.want {
			t.Errorf("FilterGames(%q) = %s, want %s", tt.query, got, tt.want)
		}
	}
}

func TestSortGames(t *testing.T) {
	tests := []struct {
		key  SortKey
		want string
	}{
		{SortByPlaytime, "231"},
		{SortByRecent, "312"},
		{SortByName, "321"},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			if got := ids(SortGames(library(), tt.key)); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseSortKey(t *testing.T) {
	if k, err := ParseSortKey(""); err != nil || k != SortByPlaytime {
		t.Fatalf("empty key: %v %v", k, err)
	}
	if k, err := ParseSortKey("Name"); err != nil || k != SortByName {
		t.Fatalf("Name: %v %v", k, err)
	}
	if _, err := ParseSortKey("random"); err == nil {
		t.Fatalf("expected error")
	}
}
