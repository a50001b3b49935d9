package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nhle/jast/internal/achievement"
	"github.com/nhle/jast/internal/datekey"
	"github.com/nhle/jast/internal/hierarchy"
	"github.com/nhle/jast/internal/model"
)

// renderDay prints a day header followed by its todos as an indented
// two-level list.
func (a *app) renderDay(date int, todos []model.Todo) {
	view := hierarchy.Build(todos)

	done := 0
	for _, t := range todos {
		if t.IsCompleted() {
			done++
		}
	}

	fmt.Fprintf(a.out, "%s %s\n",
		a.styles.Header.Render(datekey.Format(date)),
		a.styles.Muted.Render(fmt.Sprintf("(%d/%d done)", done, len(todos))))

	if len(view) == 0 {
		fmt.Fprintln(a.out, a.styles.Muted.Render("  Nothing planned."))
		return
	}
	for _, t := range hierarchy.Flatten(view) {
		indent := "  "
		if !t.IsTopLevel() {
			indent = "     "
		}
		a.renderTodo(t, indent)
	}
}

func (a *app) renderTodo(t model.Todo, indent string) {
	box := "[ ]"
	if t.IsCompleted() {
		box = "[x]"
	}
	fmt.Fprintf(a.out, "%s%d. %s %s %s\n",
		indent, t.Position, box,
		a.styles.Status(t.Status).Render(t.Title),
		a.styles.Muted.Render(fmt.Sprintf("#%d", t.ID)))
}

// renderStats prints one line per day followed by a total.
func (a *app) renderStats(stats []model.DailyStat) {
	total, completed := 0, 0
	for _, s := range stats {
		total += s.TotalCount
		completed += s.CompletedCount
		fmt.Fprintf(a.out, "%-17s %4d/%-4d %3.0f%%\n",
			datekey.Format(s.Date), s.CompletedCount, s.TotalCount, s.Ratio()*100)
	}
	fmt.Fprintln(a.out, a.styles.Header.Render(
		fmt.Sprintf("%d days, %d of %d todos done", len(stats), completed, total)))
}

var weekdayLabels = [7]string{"", "Mon", "", "Wed", "", "Fri", ""}

// renderGraph prints the achievement grid: a month label row, then one
// row per weekday with a cell per week.
func (a *app) renderGraph(grid achievement.Grid) {
	width := 2 * len(grid.Weeks)
	months := []byte(strings.Repeat(" ", width))
	next := 0
	for _, m := range grid.Months {
		col := 2 * m.Week
		if col < next || col+3 > width {
			continue
		}
		copy(months[col:], m.Month.String()[:3])
		next = col + 4
	}
	fmt.Fprintf(a.out, "    %s\n", strings.TrimRight(string(months), " "))

	for day := 0; day < 7; day++ {
		var b strings.Builder
		fmt.Fprintf(&b, "%-4s", weekdayLabels[day])
		for _, week := range grid.Weeks {
			if day >= len(week) {
				break
			}
			b.WriteString(a.cell(week[day]))
			b.WriteByte(' ')
		}
		fmt.Fprintln(a.out, strings.TrimRight(b.String(), " "))
	}

	var legend strings.Builder
	legend.WriteString("    Less ")
	for lvl := achievement.LevelNone; lvl <= achievement.LevelDone; lvl++ {
		legend.WriteString(a.cell(achievement.Cell{Level: lvl}))
		legend.WriteByte(' ')
	}
	legend.WriteString("More")
	fmt.Fprintln(a.out, a.styles.Muted.Render(legend.String()))
}

// cell draws one graph day: a coloured square on colour terminals, the
// level digit otherwise.
func (a *app) cell(c achievement.Cell) string {
	if a.styles.Color {
		return a.styles.Level(c.Level).Render("■")
	}
	if c.Level == achievement.LevelNone {
		return "."
	}
	return strconv.Itoa(int(c.Level))
}
