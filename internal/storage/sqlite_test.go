package storage

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"playdash/internal/cache"
	"playdash/internal/core"
)

func testEntry() core.CacheEntry {
	d := core.NewDate(2024, 3, 9)
	return core.CacheEntry{
		Dataset: core.CanonicalDataset{
			PlayHistories: []core.PlayRecord{{
				TitleID:            "0100A",
				TitleName:          "Alpha",
				FirstPlayedAt:      time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
				LastPlayedAt:       time.Date(2024, 3, 9, 21, 0, 0, 0, time.UTC),
				TotalPlayedDays:    9,
				TotalPlayedMinutes: 610,
			}},
			RecentPlayHistories: []core.DayGroup{{
				PlayedDate: d,
				Entries:    []core.RecentActivityEntry{{Date: d, TitleID: "0100A", TitleName: "Alpha", Minutes: 50}},
			}},
			LastUpdatedAt: time.Date(2024, 3, 9, 22, 0, 0, 0, time.UTC),
		},
		FetchedAt: time.Date(2024, 3, 9, 22, 0, 0, 0, time.UTC),
	}
}

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "playdash.db"), nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	if _, ok, err := s.Read(ctx); ok || err != nil {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}

	want := testEntry()
	if err := s.Write(ctx, want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, ok, err := s.Read(ctx)
	if err != nil || !ok {
		t.Fatalf("Read: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}

	next := testEntry()
	next.FetchedAt = next.FetchedAt.Add(time.Hour)
	next.Dataset.PlayHistories[0].TotalPlayedMinutes = 700
	if err := s.Write(ctx, next); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _, _ = s.Read(ctx)
	if got.Dataset.PlayHistories[0].TotalPlayedMinutes != 700 || !got.FetchedAt.Equal(next.FetchedAt) {
		t.Fatalf("overwrite not visible: %+v", got)
	}
}

func TestSQLiteStoreMissingTimestampIsAbsent(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO cache_entries (key, value, updated_at) VALUES (?, ?, 0)`, cache.KeyDataset, `{}`); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := s.Read(ctx); ok || err != nil {
		t.Fatalf("half-written entry must read as absent: ok=%v err=%v", ok, err)
	}
}

func TestSQLiteStoreReopenKeepsEntry(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "playdash.db")
	s, err := NewSQLiteStore(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Write(ctx, testEntry()); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = NewSQLiteStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, ok, err := s.Read(ctx); !ok || err != nil {
		t.Fatalf("entry lost after reopen: ok=%v err=%v", ok, err)
	}
}

func TestSQLiteStoreRefreshRuns(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)
	base := time.Date(2024, 3, 9, 4, 0, 0, 0, time.UTC)
	for i, outcome := range []string{"ok", "failed", "superseded"} {
		run := RefreshRun{
			ID:         string(rune('a' + i)),
			Reason:     "schedule",
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			FinishedAt: base.Add(time.Duration(i)*time.Hour + time.Second),
			Outcome:    outcome,
		}
		if err := s.RecordRefresh(ctx, run); err != nil {
			t.Fatalf("RecordRefresh: %v", err)
		}
	}
	runs, err := s.RecentRefreshes(ctx, 2)
	if err != nil {
		t.Fatalf("RecentRefreshes: %v", err)
	}
	if len(runs) != 2 || runs[0].Outcome != "superseded" || runs[1].Outcome != "failed" {
		t.Fatalf("unexpected runs %+v", runs)
	}
}
