package testutil

import (
	"context"
	"testing"

	"github.com/nhle/jast/internal/model"
	"github.com/nhle/jast/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with the schema applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T, opts ...store.Option) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:", opts...)
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// MustCreate creates a todo or fails the test.
func MustCreate(t *testing.T, s store.Store, title string, date int, parentID *int64) *model.Todo {
	t.Helper()

	todo, err := s.CreateTodo(context.Background(), title, date, parentID)
	if err != nil {
		t.Fatalf("creating todo %q: %v", title, err)
	}
	return todo
}

// AssertDense fails the test unless every sibling group on date holds
// positions exactly 1..n.
func AssertDense(t *testing.T, s store.Store, date int) {
	t.Helper()

	todos, err := s.ListByDate(context.Background(), date)
	if err != nil {
		t.Fatalf("listing %d: %v", date, err)
	}

	groups := make(map[int64][]int)
	for _, todo := range todos {
		var parent int64
		if todo.ParentID != nil {
			parent = *todo.ParentID
		}
		groups[parent] = append(groups[parent], todo.Position)
	}

	for parent, positions := range groups {
		used := make(map[int]bool, len(positions))
		for _, p := range positions {
			if p < 1 || p > len(positions) || used[p] {
				t.Errorf("date %d parent %d: positions %v are not 1..%d",
					date, parent, positions, len(positions))
				break
			}
			used[p] = true
		}
	}
}

// AssertStat fails the test unless the daily stat for date matches the
// live todos on it, including being absent for an empty day.
func AssertStat(t *testing.T, s store.Store, date int) {
	t.Helper()
	ctx := context.Background()

	todos, err := s.ListByDate(ctx, date)
	if err != nil {
		t.Fatalf("listing %d: %v", date, err)
	}
	completed := 0
	for _, todo := range todos {
		if todo.IsCompleted() {
			completed++
		}
	}

	stats, err := s.GetYearlyStats(ctx, date, date)
	if err != nil {
		t.Fatalf("getting stat %d: %v", date, err)
	}

	if len(todos) == 0 {
		if len(stats) != 0 {
			t.Errorf("date %d has no todos but stat %+v", date, stats[0])
		}
		return
	}
	if len(stats) != 1 {
		t.Fatalf("date %d has %d todos but %d stat rows", date, len(todos), len(stats))
	}
	if stats[0].TotalCount != len(todos) || stats[0].CompletedCount != completed {
		t.Errorf("date %d stat = %d/%d, want %d/%d", date,
			stats[0].CompletedCount, stats[0].TotalCount, completed, len(todos))
	}
}
