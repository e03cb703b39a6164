// Package worker runs dataset refreshes outside the web process: on
// request from the queue and on a daily schedule.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"playdash/internal/amqp"
	"playdash/internal/dashboard"
	"playdash/internal/log"
	"playdash/internal/storage"
)

// Refresh outcomes stored with each run.
const (
	OutcomeOK         = "ok"
	OutcomeSuperseded = "superseded"
	OutcomeFailed     = "failed"
)

// Refresher performs one combined dataset fetch.
type Refresher interface {
	Refresh(ctx context.Context) (dashboard.State, error)
}

// RunRecorder persists refresh outcomes.
type RunRecorder interface {
	RecordRefresh(ctx context.Context, run storage.RefreshRun) error
}

// RefreshWorker runs refreshes and records their outcome.
type RefreshWorker struct {
	refresher Refresher
	runs      RunRecorder
	logger    *log.Logger
	now       func() time.Time
}

// NewRefreshWorker builds a worker. runs may be nil when the cache backend
// keeps no run history.
func NewRefreshWorker(refresher Refresher, runs RunRecorder, logger *log.Logger) *RefreshWorker {
	return &RefreshWorker{
		refresher: refresher,
		runs:      runs,
		logger:    log.OrDiscard(logger).WithComponent(log.ComponentWorker),
		now:       time.Now,
	}
}

// HandleRefreshRequest processes a refresh request from the queue.
func (w *RefreshWorker) HandleRefreshRequest(ctx context.Context, msg *amqp.RefreshRequest) error {
	return w.run(ctx, msg.ID.String(), msg.Reason)
}

// RunScheduled performs the scheduled daily refresh.
func (w *RefreshWorker) RunScheduled(ctx context.Context) error {
	return w.run(ctx, uuid.NewString(), amqp.ReasonScheduled)
}

// RunNow performs an immediate refresh, e.g. at worker startup.
func (w *RefreshWorker) RunNow(ctx context.Context, reason string) error {
	return w.run(ctx, uuid.NewString(), reason)
}

func (w *RefreshWorker) run(ctx context.Context, id, reason string) error {
	run := storage.RefreshRun{ID: id, Reason: reason, StartedAt: w.now()}
	w.logger.InfoContext(ctx, "Refreshing dataset", "run_id", id, log.FieldReason, reason)

	st, err := w.refresher.Refresh(ctx)
	run.FinishedAt = w.now()
	switch {
	case err == nil:
		run.Outcome = OutcomeOK
		run.Games = len(st.Dataset.PlayHistories)
		run.Days = len(st.Dataset.RecentPlayHistories)
	case errors.Is(err, dashboard.ErrSuperseded):
		// A newer refresh already applied its data.
		run.Outcome = OutcomeSuperseded
		err = nil
	default:
		run.Outcome = OutcomeFailed
		run.Error = err.Error()
	}
	w.record(ctx, run)

	if err != nil {
		w.logger.ErrorContext(ctx, "Refresh failed",
			"run_id", id,
			log.FieldReason, reason,
			log.FieldError, err.Error())
		return fmt.Errorf("refresh %s: %w", id, err)
	}
	w.logger.InfoContext(ctx, "Refresh finished",
		"run_id", id,
		"outcome", run.Outcome,
		log.FieldGames, run.Games,
		log.FieldDays, run.Days,
		log.FieldDuration, run.FinishedAt.Sub(run.StartedAt).Milliseconds())
	return nil
}

func (w *RefreshWorker) record(ctx context.Context, run storage.RefreshRun) {
	if w.runs == nil {
		return
	}
	if err := w.runs.RecordRefresh(ctx, run); err != nil {
		// The refresh itself already succeeded or failed; the history is best effort.
		w.logger.WarnContext(ctx, "Failed to record refresh run",
			"run_id", run.ID,
			log.FieldError, err.Error())
	}
}
