package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"playdash/internal/log"
)

// DefaultSchedule runs the refresh daily at 04:00.
const DefaultSchedule = "0 4 * * *"

// Scheduler triggers RunScheduled on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	worker  *RefreshWorker
	timeout time.Duration
	logger  *log.Logger
}

// NewScheduler registers the refresh job under spec, a standard five-field
// cron expression evaluated in loc.
func NewScheduler(spec string, loc *time.Location, w *RefreshWorker, timeout time.Duration, logger *log.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		worker:  w,
		timeout: timeout,
		logger:  log.OrDiscard(logger).WithComponent(log.ComponentWorker),
	}
	if _, err := s.cron.AddFunc(spec, s.runJob); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) runJob() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.worker.RunScheduled(ctx); err != nil {
		s.logger.Error("Scheduled refresh failed", log.FieldError, err.Error())
	}
}

// Next returns the next scheduled run after the scheduler started.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Start begins running the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Refresh scheduler started", "next_run", s.Next())
}

// Stop halts the schedule and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Refresh scheduler stopped")
}
