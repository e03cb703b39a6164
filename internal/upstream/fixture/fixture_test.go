package fixture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"playdash/internal/core"
)

func TestSourceReadsFiles(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		FileGames:                 `[{"title_id":"A"}]`,
		FileRecent:                `{"recentPlayHistories":[]}`,
		FileHistory:               `[]`,
		FileMonthly:               `{"2024-01":10}`,
		"game_0100ABC_daily.json": `{"title_id":"0100ABC","daily_data":[]}`,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	s := New(dir)
	ctx := context.Background()
	b, err := s.Games(ctx)
	if err != nil || string(b) != files[FileGames] {
		t.Fatalf("Games = %s, %v", b, err)
	}
	if _, err := s.RecentActivities(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s.History(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s.MonthlyPlaytime(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GameDaily(ctx, "0100ABC"); err != nil {
		t.Fatal(err)
	}
}

func TestSourceMissingAndInvalid(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.History(context.Background())
	var fe *core.FetchError
	if !errors.As(err, &fe) || fe.Status != 404 || !errors.Is(err, core.ErrTransport) {
		t.Fatalf("expected 404 transport failure, got %v", err)
	}
	if _, err := s.GameDaily(context.Background(), "../secrets"); !errors.Is(err, core.ErrTransport) {
		t.Fatalf("expected rejected title id, got %v", err)
	}
}
