package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"playdash/internal/calendar"
	"playdash/internal/dashboard"
	"playdash/internal/log"
)

// maxTopN caps the n parameter of the top games list.
const maxTopN = 50

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeFailure maps an orchestrator error to a status. A dataset that could
// not be obtained at all is 503, a forced refresh discarded for a newer one
// is 409, and every other panel failure is 502.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, dashboard.ErrNoData):
		status = http.StatusServiceUnavailable
	case errors.Is(err, dashboard.ErrSuperseded):
		status = http.StatusConflict
	}
	log.FromContext(r.Context()).Warn("Request failed",
		log.FieldOperation, op,
		log.FieldStatusCode, status,
		log.FieldError, err.Error())
	writeError(w, status, err.Error())
}

// parseMonth reads year and month from the query. Both must be present
// together; neither means ok=false.
func parseMonth(r *http.Request) (m calendar.Month, ok bool, err error) {
	q := r.URL.Query()
	ys, ms := strings.TrimSpace(q.Get("year")), strings.TrimSpace(q.Get("month"))
	if ys == "" && ms == "" {
		return calendar.Month{}, false, nil
	}
	year, err := strconv.Atoi(ys)
	if err != nil {
		return calendar.Month{}, false, fmt.Errorf("invalid year %q", ys)
	}
	month, err := strconv.Atoi(ms)
	if err != nil || month < 1 || month > 12 {
		return calendar.Month{}, false, fmt.Errorf("invalid month %q", ms)
	}
	return calendar.Month{Year: year, Month: time.Month(month)}, true, nil
}

// parseIntParam reads an integer query parameter, returning def when absent.
func parseIntParam(r *http.Request, name string, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, v)
	}
	return n, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 {
			return -1
		}
		return r
	}, s)
}
