package store

import (
	"context"
	"errors"

	"github.com/nhle/jast/internal/model"
)

// Sentinel errors returned (wrapped) by Store implementations. Match them
// with errors.Is.
var (
	// ErrNotFound means the referenced todo does not exist or is deleted.
	ErrNotFound = errors.New("todo not found")

	// ErrValidation means an argument was rejected before touching storage:
	// a blank title, an invalid date key or an unknown status.
	ErrValidation = errors.New("validation failed")

	// ErrConsistency means a reorder command would break the dense
	// 1..n position sequence of a sibling group.
	ErrConsistency = errors.New("inconsistent position assignment")

	// ErrInvalidParent means a parent assignment would nest deeper than one
	// level, cross calendar days or point a todo at itself.
	ErrInvalidParent = errors.New("invalid parent")
)

// Store defines the persistence interface for daily todos and their
// derived per-day statistics.
//
// Every mutating method keeps two invariants before it returns: live todos
// sharing a (parent, date) sibling group hold positions exactly 1..n, and
// the daily_stats row for every affected date matches the live todos on it.
// Multi-step mutations are applied in a single transaction.
type Store interface {
	// === Queries ===

	ListByDate(ctx context.Context, date int) ([]model.Todo, error)
	GetTodoByID(ctx context.Context, id int64) (*model.Todo, error)

	// === Todo mutations ===

	CreateTodo(ctx context.Context, title string, date int, parentID *int64) (*model.Todo, error)
	UpdateTodoTitle(ctx context.Context, id int64, title string) error
	UpdateTodoStatus(ctx context.Context, id int64, status model.TodoStatus) error
	ToggleTodoStatus(ctx context.Context, id int64) (model.TodoStatus, error)
	SoftDeleteTodo(ctx context.Context, id int64) error
	ReorderTodos(ctx context.Context, updates []model.TodoPosition) error
	UpdateTodoParent(ctx context.Context, id int64, parentID *int64) error
	UpdateTodoDate(ctx context.Context, id int64, date int) error

	// === Daily stats ===

	RecomputeDailyStat(ctx context.Context, date int) error
	RebuildDailyStats(ctx context.Context) error
	GetYearlyStats(ctx context.Context, from, to int) ([]model.DailyStat, error)

	Close() error
}

var _ Store = (*SQLiteStore)(nil)
