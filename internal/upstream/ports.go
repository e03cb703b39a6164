// Package upstream defines the read ports for the play history API. Each
// port returns the raw response body; decoding belongs to the normalizer.
package upstream

import "context"

// Ports for outbound adapters.
type (
	GamesReader interface {
		// Games returns the /api/games payload.
		Games(ctx context.Context) ([]byte, error)
	}

	RecentReader interface {
		// RecentActivities returns the /api/recent_activities payload.
		RecentActivities(ctx context.Context) ([]byte, error)
	}

	HistoryReader interface {
		// History returns the /api/history payload.
		History(ctx context.Context) ([]byte, error)
	}

	MonthlyReader interface {
		// MonthlyPlaytime returns the /api/monthly_playtime payload.
		MonthlyPlaytime(ctx context.Context) ([]byte, error)
	}

	GameDailyReader interface {
		// GameDaily returns the daily series payload of one title.
		GameDaily(ctx context.Context, titleID string) ([]byte, error)
	}

	// Source is the full set of upstream reads the dashboard needs.
	Source interface {
		GamesReader
		RecentReader
		HistoryReader
		MonthlyReader
		GameDailyReader
	}
)

// Endpoint paths of the upstream API.
const (
	PathGames     = "/api/games"
	PathRecent    = "/api/recent_activities"
	PathHistory   = "/api/history"
	PathMonthly   = "/api/monthly_playtime"
	PathGameDaily = "/api/game/%s/daily"
)
