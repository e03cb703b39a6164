// Package fixture serves upstream payloads from JSON files on disk. It backs
// local development and demos without a running play history API.
package fixture

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"playdash/internal/core"
	"playdash/internal/upstream"
)

// File names read from the fixture directory.
const (
	FileGames   = "games.json"
	FileRecent  = "recent_activities.json"
	FileHistory = "history.json"
	FileMonthly = "monthly_playtime.json"
	// FileGameDaily is formatted with the title id.
	FileGameDaily = "game_%s_daily.json"
)

var titleIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Source reads payloads from a directory.
type Source struct {
	dir string
}

var _ upstream.Source = (*Source)(nil)

// New returns a Source reading from dir.
func New(dir string) *Source {
	return &Source{dir: dir}
}

func (s *Source) Games(ctx context.Context) ([]byte, error) {
	return s.read(ctx, upstream.PathGames, FileGames)
}

func (s *Source) RecentActivities(ctx context.Context) ([]byte, error) {
	return s.read(ctx, upstream.PathRecent, FileRecent)
}

func (s *Source) History(ctx context.Context) ([]byte, error) {
	return s.read(ctx, upstream.PathHistory, FileHistory)
}

func (s *Source) MonthlyPlaytime(ctx context.Context) ([]byte, error) {
	return s.read(ctx, upstream.PathMonthly, FileMonthly)
}

func (s *Source) GameDaily(ctx context.Context, titleID string) ([]byte, error) {
	endpoint := fmt.Sprintf(upstream.PathGameDaily, "{id}")
	if !titleIDPattern.MatchString(titleID) {
		return nil, core.NewTransportError(endpoint, 400, fmt.Errorf("invalid title id %q", titleID))
	}
	return s.read(ctx, endpoint, fmt.Sprintf(FileGameDaily, titleID))
}

// read maps a missing file to a 404 TransportFailure, the way the HTTP
// source reports a missing resource.
func (s *Source) read(ctx context.Context, endpoint, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.NewTransportError(endpoint, 0, err)
	}
	b, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, core.NewTransportError(endpoint, 404, err)
	}
	if err != nil {
		return nil, core.NewTransportError(endpoint, 0, err)
	}
	return b, nil
}
