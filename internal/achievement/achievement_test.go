package achievement

import (
	"testing"
	"time"

	"github.com/nhle/jast/internal/datekey"
	"github.com/nhle/jast/internal/model"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		total, completed int
		want             Level
	}{
		{0, 0, LevelNone},
		{4, 0, LevelNone},
		{10, 1, LevelLow},
		{4, 1, LevelMedium},
		{2, 1, LevelHigh},
		{4, 3, LevelVeryHigh},
		{3, 3, LevelDone},
	}

	for _, tt := range tests {
		if got := LevelFor(tt.total, tt.completed); got != tt.want {
			t.Errorf("LevelFor(%d, %d) = %d, want %d", tt.total, tt.completed, got, tt.want)
		}
	}
}

func TestBuildGrid(t *testing.T) {
	today := 20261015 // a Thursday
	stats := []model.DailyStat{
		{Date: 20261015, TotalCount: 2, CompletedCount: 2},
		{Date: 20260101, TotalCount: 4, CompletedCount: 1},
		{Date: 20240101, TotalCount: 1, CompletedCount: 1}, // outside the grid
	}

	grid, err := BuildGrid(stats, today)
	if err != nil {
		t.Fatalf("BuildGrid failed: %v", err)
	}

	first := grid.Weeks[0][0]
	firstDay, _ := datekey.ToTime(first.Date, time.UTC)
	if firstDay.Weekday() != time.Sunday {
		t.Errorf("grid starts on %s, want Sunday", firstDay.Weekday())
	}
	if first.Date > 20251015 {
		t.Errorf("grid starts at %d, after one year ago", first.Date)
	}

	for i, w := range grid.Weeks[:len(grid.Weeks)-1] {
		if len(w) != 7 {
			t.Fatalf("week %d has %d days", i, len(w))
		}
	}

	lastWeek := grid.Weeks[len(grid.Weeks)-1]
	last := lastWeek[len(lastWeek)-1]
	if last.Date != today {
		t.Errorf("grid ends at %d, want %d", last.Date, today)
	}
	if len(lastWeek) != 5 {
		t.Errorf("last week has %d days, want 5 (Sun..Thu)", len(lastWeek))
	}
	if last.Level != LevelDone || last.Stat == nil {
		t.Errorf("today cell = %+v, want LevelDone with stat", last)
	}

	found := false
	for _, w := range grid.Weeks {
		for _, c := range w {
			if c.Date == 20260101 {
				found = true
				if c.Level != LevelMedium {
					t.Errorf("20260101 level = %d, want %d", c.Level, LevelMedium)
				}
			}
			if c.Date == 20240101 {
				t.Error("stat outside the window was placed on the grid")
			}
		}
	}
	if !found {
		t.Error("20260101 missing from grid")
	}

	if len(grid.Months) < 12 {
		t.Errorf("got %d month labels, want at least 12", len(grid.Months))
	}
	for i := 1; i < len(grid.Months); i++ {
		if grid.Months[i].Week <= grid.Months[i-1].Week {
			t.Errorf("month labels not increasing at %d", i)
		}
	}
}

func TestBuildGridRejectsInvalidToday(t *testing.T) {
	if _, err := BuildGrid(nil, 20261301); err == nil {
		t.Fatal("expected error for invalid date key")
	}
}
