package dashboard

import (
	"playdash/internal/calendar"
	"playdash/internal/core"
)

// Panel names a dashboard area that renders and fails independently.
type Panel string

const (
	PanelDataset    Panel = "dataset"
	PanelPeriod     Panel = "period"
	PanelMonthly    Panel = "monthly"
	PanelCalendar   Panel = "calendar"
	PanelDayDetails Panel = "day_details"
	PanelTimeline   Panel = "timeline"
)

// Presenter receives computed views. Implementations must not retain or
// mutate the slices they are handed beyond the call.
type Presenter interface {
	RenderDataset(state State)
	RenderPeriodStats(stats core.PeriodStats)
	RenderMonthly(months []core.MonthTotal)
	RenderCalendar(view CalendarView)
	RenderDayDetails(date core.Date, titles []core.TitleMinutes)
	RenderTimeline(timeline core.GameTimeline)
	// ShowFailure marks a panel as failed. For PanelDataset it is the
	// blocking notification shown when no data can be displayed at all.
	ShowFailure(panel Panel, err error)
}

// CalendarView is an annotated month grid with the selected day.
type CalendarView struct {
	Month       calendar.Month           `json:"-"`
	MonthLabel  string                   `json:"month"`
	Cells       []calendar.AnnotatedCell `json:"cells"`
	SelectedDay *core.Date               `json:"selectedDay,omitempty"`
	Details     []core.TitleMinutes      `json:"details"`
}

// NopPresenter discards every render. Used by headless callers such as the worker.
type NopPresenter struct{}

func (NopPresenter) RenderDataset(State)                             {}
func (NopPresenter) RenderPeriodStats(core.PeriodStats)              {}
func (NopPresenter) RenderMonthly([]core.MonthTotal)                 {}
func (NopPresenter) RenderCalendar(CalendarView)                     {}
func (NopPresenter) RenderDayDetails(core.Date, []core.TitleMinutes) {}
func (NopPresenter) RenderTimeline(core.GameTimeline)                {}
func (NopPresenter) ShowFailure(Panel, error)                        {}
