package worker

import (
	"testing"
	"time"
)

func TestNewSchedulerRejectsInvalidSpec(t *testing.T) {
	w := NewRefreshWorker(&fakeRefresher{}, nil, nil)
	if _, err := NewScheduler("every day", time.UTC, w, 0, nil); err == nil {
		t.Fatalf("expected error for invalid schedule")
	}
}

func TestSchedulerNextRun(t *testing.T) {
	w := NewRefreshWorker(&fakeRefresher{}, nil, nil)
	s, err := NewScheduler(DefaultSchedule, time.UTC, w, time.Minute, nil)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	s.Start()
	defer s.Stop()

	next := s.Next().UTC()
	if next.IsZero() {
		t.Fatalf("next run not scheduled")
	}
	if next.Hour() != 4 || next.Minute() != 0 {
		t.Fatalf("next run at %v, want 04:00", next)
	}
	if d := time.Until(next); d <= 0 || d > 24*time.Hour {
		t.Fatalf("next run %v not within a day", next)
	}
}
