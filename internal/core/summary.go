package core

import (
	"math"
	"time"
)

// MonthTotal is the playtime of one "YYYY-MM" month.
type MonthTotal struct {
	Month   string `json:"month"`
	Minutes int    `json:"minutes"`
}

// Hours returns the month total in hours rounded to one decimal.
func (m MonthTotal) Hours() float64 {
	return HoursOneDecimal(m.Minutes)
}

// Milestone is a deterministic achievement derived from play history.
type Milestone struct {
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Overview is the headline summary of a dataset.
type Overview struct {
	TotalGames    int         `json:"totalGames"`
	TotalMinutes  int         `json:"totalMinutes"`
	MostPlayed    *PlayRecord `json:"mostPlayed,omitempty"`
	LastUpdatedAt time.Time   `json:"lastUpdatedAt"`
}

// PeriodStats holds the current week and month sums.
type PeriodStats struct {
	WeekStart    Date `json:"weekStart"`
	MonthStart   Date `json:"monthStart"`
	WeekMinutes  int  `json:"weekMinutes"`
	MonthMinutes int  `json:"monthMinutes"`
}

// HoursOneDecimal converts minutes to hours rounded to one decimal place.
func HoursOneDecimal(minutes int) float64 {
	return math.Round(float64(minutes)/60*10) / 10
}
