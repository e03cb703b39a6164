package dashboard

import (
	"context"
	"fmt"

	"playdash/internal/calendar"
	"playdash/internal/core"
	"playdash/internal/log"
	"playdash/internal/stats"
)

const (
	keyHistory = "history"
	keyMonthly = "monthly"
)

// History returns the normalized daily history, memoized in the panel cache.
func (o *Orchestrator) History(ctx context.Context) ([]core.DailyRecord, error) {
	if days, ok := o.history.Get(keyHistory); ok {
		return days, nil
	}
	v, err, _ := o.flight.Do(keyHistory, func() (any, error) {
		fctx, cancel := o.flightContext(ctx)
		defer cancel()
		raw, err := o.source.History(fctx)
		if err != nil {
			return nil, err
		}
		days, err := o.normalizer.History(raw)
		if err != nil {
			return nil, err
		}
		o.history.Set(keyHistory, days)
		return days, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]core.DailyRecord), nil
}

// MonthlyTotals returns the normalized monthly playtime, memoized in the
// panel cache.
func (o *Orchestrator) MonthlyTotals(ctx context.Context) ([]core.MonthTotal, error) {
	if months, ok := o.monthly.Get(keyMonthly); ok {
		return months, nil
	}
	v, err, _ := o.flight.Do(keyMonthly, func() (any, error) {
		fctx, cancel := o.flightContext(ctx)
		defer cancel()
		raw, err := o.source.MonthlyPlaytime(fctx)
		if err != nil {
			return nil, err
		}
		months, err := o.normalizer.Monthly(raw)
		if err != nil {
			return nil, err
		}
		o.monthly.Set(keyMonthly, months)
		return months, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]core.MonthTotal), nil
}

// PeriodStats renders the current week and month sums.
func (o *Orchestrator) PeriodStats(ctx context.Context) (core.PeriodStats, error) {
	days, err := o.History(ctx)
	if err != nil {
		o.panelFailure(PanelPeriod, err)
		return core.PeriodStats{}, err
	}
	ps := stats.Period(days, o.now())
	o.presenter.RenderPeriodStats(ps)
	return ps, nil
}

// Monthly renders the last twelve months of playtime.
func (o *Orchestrator) Monthly(ctx context.Context) ([]core.MonthTotal, error) {
	months, err := o.MonthlyTotals(ctx)
	if err != nil {
		o.panelFailure(PanelMonthly, err)
		return nil, err
	}
	last := stats.LastMonths(months, stats.MonthlyWindow)
	o.presenter.RenderMonthly(last)
	return last, nil
}

// Calendar displays month m with the default day selected. A result that
// arrives after a newer calendar or day request is discarded.
func (o *Orchestrator) Calendar(ctx context.Context, m calendar.Month) (CalendarView, error) {
	o.mu.Lock()
	o.navMonth = m
	seq := o.calendarSeq.Add(1)
	o.mu.Unlock()
	return o.showCalendar(ctx, seq, m)
}

// ShiftMonth moves the calendar by delta months from the latest requested
// month, which may still be loading, and redraws it.
func (o *Orchestrator) ShiftMonth(ctx context.Context, delta int) (CalendarView, error) {
	o.mu.Lock()
	m := o.navMonth.Shift(delta)
	o.navMonth = m
	seq := o.calendarSeq.Add(1)
	o.mu.Unlock()
	return o.showCalendar(ctx, seq, m)
}

func (o *Orchestrator) showCalendar(ctx context.Context, seq uint64, m calendar.Month) (CalendarView, error) {
	days, err := o.History(ctx)
	if err != nil {
		o.panelFailure(PanelCalendar, err)
		return CalendarView{}, err
	}

	cells := calendar.Annotate(calendar.BuildMonthGrid(m, o.today()), calendar.DailyTotals(days))
	view := CalendarView{
		Month:      m,
		MonthLabel: m.String(),
		Cells:      cells,
		Details:    []core.TitleMinutes{},
	}
	if day, ok := calendar.DefaultDay(cells); ok {
		view.SelectedDay = &day
		view.Details = calendar.DetailsFor(day, days)
	}

	if err := o.applyCalendar(seq, m, view.SelectedDay); err != nil {
		return view, err
	}
	o.presenter.RenderCalendar(view)
	if view.SelectedDay != nil {
		o.presenter.RenderDayDetails(*view.SelectedDay, view.Details)
	}
	return view, nil
}

// SelectDay shows the per-title breakdown of date. The calendar month is
// left unchanged.
func (o *Orchestrator) SelectDay(ctx context.Context, date core.Date) ([]core.TitleMinutes, error) {
	if err := date.Validate(); err != nil {
		return nil, err
	}
	seq := o.calendarSeq.Add(1)
	days, err := o.History(ctx)
	if err != nil {
		o.panelFailure(PanelDayDetails, err)
		return nil, err
	}
	details := calendar.DetailsFor(date, days)

	o.mu.Lock()
	if seq <= o.state.CalendarSeq {
		applied := o.state.CalendarSeq
		o.mu.Unlock()
		o.superseded(seqCalendar, seq, applied)
		return details, ErrSuperseded
	}
	o.state.CalendarSeq = seq
	o.state.SelectedDay = &date
	o.mu.Unlock()

	o.presenter.RenderDayDetails(date, details)
	return details, nil
}

// GameTimeline renders the daily series of one title.
func (o *Orchestrator) GameTimeline(ctx context.Context, titleID string) (core.GameTimeline, error) {
	if titleID == "" {
		return core.GameTimeline{}, core.ErrEmptyTitleID
	}
	tl, ok := o.timelines.Get(titleID)
	if !ok {
		v, err, _ := o.flight.Do("timeline:"+titleID, func() (any, error) {
			fctx, cancel := o.flightContext(ctx)
			defer cancel()
			raw, err := o.source.GameDaily(fctx, titleID)
			if err != nil {
				return nil, err
			}
			tl, err := o.normalizer.GameDaily(raw)
			if err != nil {
				return nil, err
			}
			o.timelines.Set(titleID, tl)
			return tl, nil
		})
		if err != nil {
			o.logger.Warn("Game timeline unavailable", log.FieldTitleID, titleID)
			o.panelFailure(PanelTimeline, fmt.Errorf("title %s: %w", titleID, err))
			return core.GameTimeline{}, err
		}
		tl = v.(core.GameTimeline)
	}
	o.presenter.RenderTimeline(tl)
	return tl, nil
}

// flightContext detaches a shared fetch from the caller that started it, so
// one cancelled request does not fail every caller waiting on the flight.
func (o *Orchestrator) flightContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), o.bgTimeout)
}

func (o *Orchestrator) applyCalendar(seq uint64, m calendar.Month, selected *core.Date) error {
	o.mu.Lock()
	if seq <= o.state.CalendarSeq {
		applied := o.state.CalendarSeq
		o.mu.Unlock()
		o.superseded(seqCalendar, seq, applied)
		return ErrSuperseded
	}
	o.state.CalendarSeq = seq
	o.state.Month = m
	o.state.SelectedDay = selected
	o.mu.Unlock()
	return nil
}
