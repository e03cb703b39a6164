package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"playdash/internal/core"
	"playdash/internal/dashboard"
	"playdash/internal/log"
	"playdash/internal/stats"
)

const refreshRunsLimit = 20

type activityItem struct {
	core.RecentActivityEntry
	DayLabel string `json:"dayLabel"`
}

type dashboardResponse struct {
	Origin         dashboard.Origin    `json:"origin"`
	FetchedAt      time.Time           `json:"fetchedAt"`
	Overview       core.Overview       `json:"overview"`
	RecentChart    []core.TitleMinutes `json:"recentChart"`
	RecentFallback bool                `json:"recentChartFallback"`
	TopGames       []core.PlayRecord   `json:"topGames"`
	Activity       []activityItem      `json:"activity"`
}

type refreshResponse struct {
	Origin     dashboard.Origin `json:"origin"`
	FetchedAt  time.Time        `json:"fetchedAt"`
	Games      int              `json:"games"`
	AppliedSeq uint64           `json:"appliedSeq"`
}

type monthResponse struct {
	Month   string  `json:"month"`
	Minutes int     `json:"minutes"`
	Hours   float64 `json:"hours"`
}

type dayResponse struct {
	Date    core.Date           `json:"date"`
	Label   string              `json:"label"`
	Minutes int                 `json:"minutes"`
	Games   []core.TitleMinutes `json:"games"`
}

type refreshRunResponse struct {
	ID         string    `json:"id"`
	Reason     string    `json:"reason"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
	Games      int       `json:"games"`
	Days       int       `json:"days"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": s.now().Sub(s.started).Round(time.Second).String(),
	})
}

// handleReady reports 503 until a dataset has been displayed.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	st := s.dash.Snapshot()
	if !st.HasDataset {
		writeError(w, http.StatusServiceUnavailable, "no dataset loaded yet")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ready",
		"origin":    st.Origin,
		"fetchedAt": st.FetchedAt,
	})
}

// dataset loads through the orchestrator on every request so that cache
// freshness is checked and entries written by the worker are picked up.
func (s *Server) dataset(ctx context.Context) (dashboard.State, error) {
	return s.dash.Load(ctx, false)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	st, err := s.dataset(r.Context())
	if err != nil {
		s.writeFailure(w, r, "dashboard", err)
		return
	}
	ds := st.Dataset
	chart, fallback := stats.RecentChart(ds, stats.RecentChartSize)
	today := core.DateOf(s.now())

	entries := stats.RecentActivity(ds.RecentPlayHistories, stats.ActivityLimit)
	activity := make([]activityItem, 0, len(entries))
	for _, e := range entries {
		activity = append(activity, activityItem{RecentActivityEntry: e, DayLabel: stats.DayLabel(e.Date, today)})
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		Origin:         st.Origin,
		FetchedAt:      st.FetchedAt,
		Overview:       stats.BuildOverview(ds),
		RecentChart:    chart,
		RecentFallback: fallback,
		TopGames:       stats.TopGames(ds.PlayHistories, stats.TopGamesSize),
		Activity:       activity,
	})
}

// handleRefresh forces a combined fetch, bypassing cache freshness.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	st, err := s.dash.Load(r.Context(), true)
	if err != nil {
		s.writeFailure(w, r, "refresh", err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{
		Origin:     st.Origin,
		FetchedAt:  st.FetchedAt,
		Games:      len(st.Dataset.PlayHistories),
		AppliedSeq: st.AppliedSeq,
	})
}

func (s *Server) handleRefreshRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusNotFound, "refresh history is not recorded by this backend")
		return
	}
	runs, err := s.runs.RecentRefreshes(r.Context(), refreshRunsLimit)
	if err != nil {
		s.writeFailure(w, r, "refreshes", err)
		return
	}
	out := make([]refreshRunResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, refreshRunResponse(run))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	st, err := s.dataset(r.Context())
	if err != nil {
		s.writeFailure(w, r, "recent", err)
		return
	}
	today := core.DateOf(s.now())
	days := stats.RecentDays(st.Dataset.RecentPlayHistories)
	out := make([]dayResponse, 0, len(days))
	for _, d := range days {
		games := make([]core.TitleMinutes, 0, len(d.Entries))
		for _, e := range d.Entries {
			games = append(games, core.TitleMinutes{TitleID: e.TitleID, TitleName: e.TitleName, ImageURL: e.ImageURL, Minutes: e.Minutes})
		}
		out = append(out, dayResponse{Date: d.Date, Label: stats.DayLabel(d.Date, today), Minutes: d.Minutes, Games: games})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	key, err := stats.ParseSortKey(r.URL.Query().Get("sort"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	st, err := s.dataset(r.Context())
	if err != nil {
		s.writeFailure(w, r, "games", err)
		return
	}
	query := sanitizeInput(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, stats.SortGames(stats.FilterGames(st.Dataset.PlayHistories, query), key))
}

func (s *Server) handleGameDaily(w http.ResponseWriter, r *http.Request) {
	id := sanitizeInput(r.PathValue("titleID"))
	tl, err := s.dash.GameTimeline(r.Context(), id)
	if errors.Is(err, core.ErrEmptyTitleID) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.writeFailure(w, r, "game_daily", err)
		return
	}
	writeJSON(w, http.StatusOK, tl)
}

func (s *Server) handlePeriod(w http.ResponseWriter, r *http.Request) {
	ps, err := s.dash.PeriodStats(r.Context())
	if err != nil {
		s.writeFailure(w, r, "period", err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	months, err := s.dash.Monthly(r.Context())
	if err != nil {
		s.writeFailure(w, r, "monthly", err)
		return
	}
	out := make([]monthResponse, 0, len(months))
	for _, m := range months {
		out = append(out, monthResponse{Month: m.Month, Minutes: m.Minutes, Hours: m.Hours()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	n, err := parseIntParam(r, "n", stats.TopGamesSize)
	if err != nil || n < 1 || n > maxTopN {
		writeError(w, http.StatusBadRequest, "n must be between 1 and 50")
		return
	}
	st, err := s.dataset(r.Context())
	if err != nil {
		s.writeFailure(w, r, "top", err)
		return
	}
	writeJSON(w, http.StatusOK, stats.TopGames(st.Dataset.PlayHistories, n))
}

// handleMilestones derives milestones from the dataset. The daily history
// only refines the streak, so its failure falls back to last played dates.
func (s *Server) handleMilestones(w http.ResponseWriter, r *http.Request) {
	st, err := s.dataset(r.Context())
	if err != nil {
		s.writeFailure(w, r, "milestones", err)
		return
	}
	days, err := s.dash.History(r.Context())
	if err != nil {
		s.logger.Warn("History unavailable for milestones", log.FieldError, err.Error())
		days = nil
	}
	writeJSON(w, http.StatusOK, stats.Milestones(st.Dataset.PlayHistories, days))
}

// handleCalendar shows ?year=&month=, shifts by ?delta=, or redraws the
// current month. A view superseded by a newer request is still returned.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	m, ok, err := parseMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	delta, err := parseIntParam(r, "delta", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var view dashboard.CalendarView
	switch {
	case ok:
		view, err = s.dash.Calendar(r.Context(), m)
	default:
		view, err = s.dash.ShiftMonth(r.Context(), delta)
	}
	if err != nil && !errors.Is(err, dashboard.ErrSuperseded) {
		s.writeFailure(w, r, "calendar", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCalendarDay(w http.ResponseWriter, r *http.Request) {
	date, err := core.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	details, err := s.dash.SelectDay(r.Context(), date)
	if err != nil && !errors.Is(err, dashboard.ErrSuperseded) {
		s.writeFailure(w, r, "calendar_day", err)
		return
	}
	total := 0
	for _, d := range details {
		total += d.Minutes
	}
	writeJSON(w, http.StatusOK, dayResponse{
		Date:    date,
		Label:   stats.DayLabel(date, core.DateOf(s.now())),
		Minutes: total,
		Games:   details,
	})
}
