// Package http serves the dashboard views as a JSON API for the
// presentation layer.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"playdash/internal/calendar"
	"playdash/internal/core"
	"playdash/internal/dashboard"
	"playdash/internal/log"
	"playdash/internal/middleware/ratelimit"
	"playdash/internal/middleware/security"
	"playdash/internal/middleware/trace"
	"playdash/internal/storage"
)

// DefaultRefreshPerMinute limits forced refreshes per client.
const DefaultRefreshPerMinute = 6

// Dashboard is the orchestrator surface the handlers use.
type Dashboard interface {
	Load(ctx context.Context, force bool) (dashboard.State, error)
	Snapshot() dashboard.State
	History(ctx context.Context) ([]core.DailyRecord, error)
	PeriodStats(ctx context.Context) (core.PeriodStats, error)
	Monthly(ctx context.Context) ([]core.MonthTotal, error)
	Calendar(ctx context.Context, m calendar.Month) (dashboard.CalendarView, error)
	ShiftMonth(ctx context.Context, delta int) (dashboard.CalendarView, error)
	SelectDay(ctx context.Context, date core.Date) ([]core.TitleMinutes, error)
	GameTimeline(ctx context.Context, titleID string) (core.GameTimeline, error)
}

// RunLister lists recorded refresh runs.
type RunLister interface {
	RecentRefreshes(ctx context.Context, limit int) ([]storage.RefreshRun, error)
}

// Options configures a Server.
type Options struct {
	Addr             string
	Dashboard        Dashboard
	Runs             RunLister
	RefreshPerMinute int
	Logger           *log.Logger
	Now              func() time.Time
}

type Server struct {
	http.Server
	dash    Dashboard
	runs    RunLister
	limiter *ratelimit.Limiter
	logger  *log.Logger
	now     func() time.Time
	started time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	if opts.RefreshPerMinute <= 0 {
		opts.RefreshPerMinute = DefaultRefreshPerMinute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := log.OrDiscard(opts.Logger).WithComponent(log.ComponentHTTP)

	s := &Server{
		dash:    opts.Dashboard,
		runs:    opts.Runs,
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RefreshPerMinute}),
		logger:  logger,
		now:     opts.Now,
		started: opts.Now(),
	}

	mux := http.NewServeMux()
	limited := s.limiter.Middleware(security.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
	})

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.Handle("POST /api/refresh", limited(http.HandlerFunc(s.handleRefresh)))
	mux.HandleFunc("GET /api/refreshes", s.handleRefreshRuns)
	mux.HandleFunc("GET /api/recent", s.handleRecent)
	mux.HandleFunc("GET /api/games", s.handleGames)
	mux.HandleFunc("GET /api/games/{titleID}/daily", s.handleGameDaily)
	mux.HandleFunc("GET /api/stats/period", s.handlePeriod)
	mux.HandleFunc("GET /api/stats/monthly", s.handleMonthly)
	mux.HandleFunc("GET /api/stats/top", s.handleTop)
	mux.HandleFunc("GET /api/milestones", s.handleMilestones)
	mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	mux.HandleFunc("GET /api/calendar/day", s.handleCalendarDay)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(security.ClientIP, opts.Logger)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           tracer.Middleware(headers.Middleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
