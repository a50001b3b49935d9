// Package achievement lays yearly daily stats out as a week-by-week
// contribution grid with a completion level per day.
package achievement

import (
	"time"

	"github.com/nhle/jast/internal/datekey"
	"github.com/nhle/jast/internal/model"
)

// Level buckets a day's completion ratio for colouring.
type Level int

// Completion levels, from an empty or untouched day up to a fully
// completed one.
const (
	LevelNone Level = iota
	LevelLow
	LevelMedium
	LevelHigh
	LevelVeryHigh
	LevelDone
)

// LevelFor maps a day's counts to its level.
func LevelFor(total, completed int) Level {
	if total <= 0 || completed <= 0 {
		return LevelNone
	}
	pct := float64(completed) / float64(total) * 100
	switch {
	case pct >= 100:
		return LevelDone
	case pct >= 75:
		return LevelVeryHigh
	case pct >= 50:
		return LevelHigh
	case pct >= 25:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Cell is one day of the grid.
type Cell struct {
	Date  int
	Stat  *model.DailyStat
	Level Level
}

// MonthLabel marks the first week column of a month.
type MonthLabel struct {
	Month time.Month
	Week  int
}

// Grid is a year of days in Sunday-first week columns. The last week may
// be shorter than seven days.
type Grid struct {
	Weeks  [][]Cell
	Months []MonthLabel
}

// BuildGrid lays out every day from the Sunday on or before one year
// before today through today, attaching the stat for each day that has one.
func BuildGrid(stats []model.DailyStat, today int) (Grid, error) {
	end, err := datekey.ToTime(today, time.UTC)
	if err != nil {
		return Grid{}, err
	}
	start := end.AddDate(-1, 0, 0)
	start = start.AddDate(0, 0, -int(start.Weekday()))

	byDate := make(map[int]model.DailyStat, len(stats))
	for _, s := range stats {
		byDate[s.Date] = s
	}

	var grid Grid
	var week []Cell
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		key := datekey.FromTime(day)
		cell := Cell{Date: key}
		if s, ok := byDate[key]; ok {
			cell.Stat = &s
			cell.Level = LevelFor(s.TotalCount, s.CompletedCount)
		}
		week = append(week, cell)
		if len(week) == 7 {
			grid.Weeks = append(grid.Weeks, week)
			week = nil
		}
	}
	if len(week) > 0 {
		grid.Weeks = append(grid.Weeks, week)
	}

	lastMonth := time.Month(0)
	for i, w := range grid.Weeks {
		_, month, _ := datekey.Split(w[0].Date)
		if month != lastMonth {
			grid.Months = append(grid.Months, MonthLabel{Month: month, Week: i})
			lastMonth = month
		}
	}

	return grid, nil
}
