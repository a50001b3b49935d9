package model

import (
	"fmt"
	"time"
)

// TodoStatus is the completion state of a todo, persisted as an integer.
type TodoStatus int

// Todo status values.
const (
	TodoStatusPending   TodoStatus = 0
	TodoStatusCompleted TodoStatus = 1
)

// Valid reports whether s is a known status.
func (s TodoStatus) Valid() bool {
	return s == TodoStatusPending || s == TodoStatusCompleted
}

// Toggled returns the opposite status.
func (s TodoStatus) Toggled() TodoStatus {
	if s == TodoStatusCompleted {
		return TodoStatusPending
	}
	return TodoStatusCompleted
}

func (s TodoStatus) String() string {
	switch s {
	case TodoStatusPending:
		return "pending"
	case TodoStatusCompleted:
		return "completed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Todo is a single task scheduled for a calendar day.
//
// Todos nest at most one level: a todo with a non-nil ParentID is a child
// and never has children of its own. Position is the 1-based rank of the
// todo among live siblings sharing its ParentID and TargetDate.
type Todo struct {
	ID         int64      `json:"id"`
	ParentID   *int64     `json:"parent_id,omitempty"`
	Title      string     `json:"title"`
	Status     TodoStatus `json:"status"`
	Position   int        `json:"position"`
	TargetDate int        `json:"target_date"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	IsDeleted  bool       `json:"is_deleted"`
}

// IsTopLevel reports whether the todo has no parent.
func (t Todo) IsTopLevel() bool {
	return t.ParentID == nil
}

// IsCompleted reports whether the todo is marked done.
func (t Todo) IsCompleted() bool {
	return t.Status == TodoStatusCompleted
}

// TodoWithChildren is a top-level todo together with its ordered children.
type TodoWithChildren struct {
	Todo
	Children []Todo `json:"children"`
}

// TodoPosition assigns a position to a todo in a reorder command.
type TodoPosition struct {
	ID       int64 `json:"id"`
	Position int   `json:"position"`
}

// DailyStat is the derived per-day count of live and completed todos.
type DailyStat struct {
	Date           int `json:"date" db:"date"`
	TotalCount     int `json:"total_count" db:"total_count"`
	CompletedCount int `json:"completed_count" db:"completed_count"`
}

// Ratio returns the completed fraction in [0, 1].
func (d DailyStat) Ratio() float64 {
	if d.TotalCount == 0 {
		return 0
	}
	return float64(d.CompletedCount) / float64(d.TotalCount)
}
