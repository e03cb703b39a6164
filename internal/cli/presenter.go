package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"playdash/internal/calendar"
	"playdash/internal/core"
	"playdash/internal/dashboard"
	"playdash/internal/stats"
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	originStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Reverse(true)

	// levelStyles colors calendar cells by intensity level.
	levelStyles = [...]lipgloss.Style{
		calendar.LevelNoData:          lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		calendar.LevelUnderOneHour:    lipgloss.NewStyle().Foreground(lipgloss.Color("22")),
		calendar.LevelUnderTwoHours:   lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
		calendar.LevelUnderThreeHours: lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		calendar.LevelThreeHoursPlus:  lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true),
	}
)

// TerminalPresenter renders dashboard panels as styled text.
type TerminalPresenter struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

var _ dashboard.Presenter = (*TerminalPresenter)(nil)

// NewTerminalPresenter writes to out. now drives relative day labels.
func NewTerminalPresenter(out io.Writer, now func() time.Time) *TerminalPresenter {
	if now == nil {
		now = time.Now
	}
	return &TerminalPresenter{out: out, now: now}
}

func (p *TerminalPresenter) write(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, s)
}

func (p *TerminalPresenter) RenderDataset(state dashboard.State) {
	ds := state.Dataset
	ov := stats.BuildOverview(ds)
	today := core.DateOf(p.now())

	var b strings.Builder
	b.WriteString(headerStyle.Render("Play Dashboard") + "\n")
	fmt.Fprintf(&b, "%s  %s\n",
		originStyle.Render(string(state.Origin)),
		dateStyle.Render("fetched "+state.FetchedAt.Local().Format("2006-01-02 15:04")))
	fmt.Fprintf(&b, "Games: %s   Total: %s\n",
		countStyle.Render(fmt.Sprint(ov.TotalGames)),
		countStyle.Render(core.FormatMinutes(ov.TotalMinutes)))
	if ov.MostPlayed != nil {
		fmt.Fprintf(&b, "Most played: %s (%s)\n",
			titleStyle.Render(ov.MostPlayed.TitleName),
			core.FormatMinutes(ov.MostPlayed.TotalPlayedMinutes))
	}

	chart, fallback := stats.RecentChart(ds, stats.RecentChartSize)
	label := "Recent playtime"
	if fallback {
		label += " (all time)"
	}
	b.WriteString("\n" + headerStyle.Render(label) + "\n")
	writeBars(&b, chart)

	b.WriteString("\n" + headerStyle.Render("Top games") + "\n")
	for i, r := range stats.TopGames(ds.PlayHistories, stats.TopGamesSize) {
		fmt.Fprintf(&b, "%2d. %-18s %s\n", i+1,
			core.Truncate(r.TitleName, core.ListNameWidth),
			countStyle.Render(core.FormatMinutes(r.TotalPlayedMinutes)))
	}

	b.WriteString("\n" + headerStyle.Render("Recent activity") + "\n")
	for _, e := range stats.RecentActivity(ds.RecentPlayHistories, stats.ActivityLimit) {
		fmt.Fprintf(&b, "%-10s %-18s %s\n",
			dateStyle.Render(stats.DayLabel(e.Date, today)),
			core.Truncate(e.TitleName, core.ListNameWidth),
			core.FormatMinutes(e.Minutes))
	}
	p.write(strings.TrimRight(b.String(), "\n"))
}

func (p *TerminalPresenter) RenderPeriodStats(ps core.PeriodStats) {
	p.write(fmt.Sprintf("%s  week: %s  month: %s",
		headerStyle.Render("Period"),
		countStyle.Render(core.FormatMinutes(ps.WeekMinutes)),
		countStyle.Render(core.FormatMinutes(ps.MonthMinutes))))
}

func (p *TerminalPresenter) RenderMonthly(months []core.MonthTotal) {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Monthly playtime") + "\n")
	for _, m := range months {
		fmt.Fprintf(&b, "%s %6.1fh %s\n", dateStyle.Render(m.Month), m.Hours(), bar(m.Minutes, 60))
	}
	p.write(strings.TrimRight(b.String(), "\n"))
}

func (p *TerminalPresenter) RenderCalendar(view dashboard.CalendarView) {
	var b strings.Builder
	b.WriteString(headerStyle.Render(view.MonthLabel) + "\n")
	b.WriteString(dateStyle.Render(" Su  Mo  Tu  We  Th  Fr  Sa") + "\n")
	for i, c := range view.Cells {
		cell := fmt.Sprintf("%3d", c.Date.Day())
		style := levelStyles[c.Level]
		if !c.IsCurrentMonth {
			style = dateStyle.Faint(true)
		}
		if view.SelectedDay != nil && c.Date.Equal(view.SelectedDay.Time) {
			style = style.Inherit(selectedStyle)
		}
		b.WriteString(style.Render(cell) + " ")
		if i%7 == 6 {
			b.WriteString("\n")
		}
	}
	p.write(strings.TrimRight(b.String(), "\n"))
}

func (p *TerminalPresenter) RenderDayDetails(date core.Date, titles []core.TitleMinutes) {
	var b strings.Builder
	b.WriteString(headerStyle.Render(stats.DayLabel(date, core.DateOf(p.now()))) + "\n")
	if len(titles) == 0 {
		b.WriteString(dateStyle.Render("No play recorded"))
		p.write(b.String())
		return
	}
	writeBars(&b, titles)
	p.write(strings.TrimRight(b.String(), "\n"))
}

func (p *TerminalPresenter) RenderTimeline(tl core.GameTimeline) {
	var b strings.Builder
	b.WriteString(titleStyle.Render(tl.Name) + "\n")
	total := 0
	for _, d := range tl.Daily {
		total += d.Minutes
		fmt.Fprintf(&b, "%s %8s %s\n", dateStyle.Render(d.Date.String()), core.FormatMinutes(d.Minutes), bar(d.Minutes, 15))
	}
	fmt.Fprintf(&b, "Total: %s", countStyle.Render(core.FormatMinutes(total)))
	p.write(b.String())
}

func (p *TerminalPresenter) ShowFailure(panel dashboard.Panel, err error) {
	msg := fmt.Sprintf("%s unavailable: %v", panel, err)
	if panel == dashboard.PanelDataset {
		msg = "Could not load play data: " + err.Error()
	}
	p.write(errorStyle.Render(msg))
}

func writeBars(b *strings.Builder, items []core.TitleMinutes) {
	for _, t := range items {
		fmt.Fprintf(b, "%-15s %8s %s\n",
			core.Truncate(t.TitleName, core.ChartNameWidth),
			core.FormatMinutes(t.Minutes),
			bar(t.Minutes, 15))
	}
}

// bar draws one block per unit minutes, capped at 40 blocks.
func bar(minutes, unit int) string {
	n := minutes / unit
	if minutes > 0 && n == 0 {
		n = 1
	}
	if n > 40 {
		n = 40
	}
	return countStyle.Render(strings.Repeat("█", n))
}
