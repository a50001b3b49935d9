package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/nhle/jast/internal/datekey"
	"github.com/nhle/jast/internal/model"
)

// ListByDate returns the live todos scheduled for date: top-level todos
// first, then children, each by ascending position.
func (s *SQLiteStore) ListByDate(ctx context.Context, date int) ([]model.Todo, error) {
	todos, err := selectTodos(ctx, s.db, `
		SELECT `+todoColumns+` FROM todos
		WHERE target_date = ? AND is_deleted = 0
		ORDER BY parent_id IS NOT NULL, position, id`,
		date,
	)
	if err != nil {
		return nil, fmt.Errorf("listing todos for %d: %w", date, err)
	}
	return todos, nil
}

// GetTodoByID retrieves a single live todo by ID.
func (s *SQLiteStore) GetTodoByID(ctx context.Context, id int64) (*model.Todo, error) {
	return getLiveTodo(ctx, s.db, id)
}

// CreateTodo inserts a new pending todo at the end of its sibling group.
// A parent, when given, must be a live top-level todo on the same date.
func (s *SQLiteStore) CreateTodo(
	ctx context.Context,
	title string,
	date int,
	parentID *int64,
) (*model.Todo, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("todo title must not be empty: %w", ErrValidation)
	}
	if !datekey.Valid(date) {
		return nil, fmt.Errorf("date key %d: %w", date, ErrValidation)
	}

	var id int64
	err := s.withTx(ctx, "create", func(tx *sqlx.Tx) error {
		if parentID != nil {
			parent, err := getLiveTodo(ctx, tx, *parentID)
			if err != nil {
				return fmt.Errorf("loading parent: %w", err)
			}
			if !parent.IsTopLevel() {
				return fmt.Errorf("todo %d is itself a child: %w", parent.ID, ErrInvalidParent)
			}
			if parent.TargetDate != date {
				return fmt.Errorf("parent %d is scheduled for %d, not %d: %w",
					parent.ID, parent.TargetDate, date, ErrInvalidParent)
			}
		}

		position, err := nextPosition(ctx, tx, parentID, date)
		if err != nil {
			return err
		}

		now := s.timestamp()
		res, err := tx.ExecContext(ctx, `
			INSERT INTO todos (
				parent_id, title, status, position, target_date,
				created_at, updated_at, is_deleted
			) VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
			nullID(parentID), title, int(model.TodoStatusPending), position, date,
			now, now,
		)
		if err != nil {
			return fmt.Errorf("creating todo: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("reading new todo id: %w", err)
		}

		return recomputeDailyStat(ctx, tx, date)
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("todo created", zap.Int64("id", id), zap.Int("date", date))
	return getLiveTodo(ctx, s.db, id)
}

// UpdateTodoTitle renames a live todo.
func (s *SQLiteStore) UpdateTodoTitle(ctx context.Context, id int64, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("todo title must not be empty: %w", ErrValidation)
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE todos SET title = ?, updated_at = ? WHERE id = ? AND is_deleted = 0",
		title, s.timestamp(), id,
	)
	if err != nil {
		return fmt.Errorf("updating todo %d: %w", id, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("todo %d: %w", id, ErrNotFound)
	}
	return nil
}

// UpdateTodoStatus sets the status of a live todo and refreshes its day's
// stats.
func (s *SQLiteStore) UpdateTodoStatus(
	ctx context.Context,
	id int64,
	status model.TodoStatus,
) error {
	if !status.Valid() {
		return fmt.Errorf("unknown status %d: %w", int(status), ErrValidation)
	}

	return s.withTx(ctx, "update_status", func(tx *sqlx.Tx) error {
		todo, err := getLiveTodo(ctx, tx, id)
		if err != nil {
			return err
		}
		return s.setStatus(ctx, tx, todo, status)
	})
}

// ToggleTodoStatus flips a live todo between pending and completed and
// returns the new status.
func (s *SQLiteStore) ToggleTodoStatus(ctx context.Context, id int64) (model.TodoStatus, error) {
	var status model.TodoStatus
	err := s.withTx(ctx, "toggle_status", func(tx *sqlx.Tx) error {
		todo, err := getLiveTodo(ctx, tx, id)
		if err != nil {
			return err
		}
		status = todo.Status.Toggled()
		return s.setStatus(ctx, tx, todo, status)
	})
	if err != nil {
		return 0, err
	}
	return status, nil
}

func (s *SQLiteStore) setStatus(
	ctx context.Context,
	tx *sqlx.Tx,
	todo *model.Todo,
	status model.TodoStatus,
) error {
	if _, err := tx.ExecContext(ctx,
		"UPDATE todos SET status = ?, updated_at = ? WHERE id = ?",
		int(status), s.timestamp(), todo.ID,
	); err != nil {
		return fmt.Errorf("updating status of todo %d: %w", todo.ID, err)
	}
	return recomputeDailyStat(ctx, tx, todo.TargetDate)
}

// SoftDeleteTodo marks a todo deleted and closes its slot. Live children
// are promoted to top level and take over the vacated slot in their
// existing order; later siblings shift to make room. Deleting a missing or
// already deleted todo is a no-op.
func (s *SQLiteStore) SoftDeleteTodo(ctx context.Context, id int64) error {
	return s.withTx(ctx, "soft_delete", func(tx *sqlx.Tx) error {
		todo, err := getLiveTodo(ctx, tx, id)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		children, err := liveChildren(ctx, tx, todo.ID)
		if err != nil {
			return err
		}

		now := s.timestamp()
		if _, err := tx.ExecContext(ctx,
			"UPDATE todos SET is_deleted = 1, updated_at = ? WHERE id = ?",
			now, todo.ID,
		); err != nil {
			return fmt.Errorf("deleting todo %d: %w", todo.ID, err)
		}
		if err := recomputeDailyStat(ctx, tx, todo.TargetDate); err != nil {
			return err
		}

		// Children on the parent's day fill its slot. A child scheduled on
		// another day has no slot to take and joins the end of that day.
		var inSlot []model.Todo
		for _, child := range children {
			if child.TargetDate == todo.TargetDate {
				inSlot = append(inSlot, child)
				continue
			}
			if err := s.moveToGroupEnd(ctx, tx, child.ID, nil, child.TargetDate); err != nil {
				return err
			}
		}

		if err := shiftSiblings(ctx, tx, todo.ParentID, todo.TargetDate,
			todo.Position, len(inSlot)-1, now); err != nil {
			return err
		}

		for i, child := range inSlot {
			if _, err := tx.ExecContext(ctx,
				"UPDATE todos SET parent_id = NULL, position = ?, updated_at = ? WHERE id = ?",
				todo.Position+i, now, child.ID,
			); err != nil {
				return fmt.Errorf("promoting todo %d: %w", child.ID, err)
			}
		}

		s.log.Debug("todo deleted",
			zap.Int64("id", todo.ID), zap.Int("promoted", len(children)))
		return nil
	})
}

// ReorderTodos applies a complete ordering for one or more sibling groups.
//
// The submitted ids are grouped by their current (parent, date) group. For
// every group touched, the submission must name each live member exactly
// once with positions forming 1..n; otherwise nothing is written and
// ErrConsistency is returned.
func (s *SQLiteStore) ReorderTodos(ctx context.Context, updates []model.TodoPosition) error {
	if len(updates) == 0 {
		return nil
	}

	return s.withTx(ctx, "reorder", func(tx *sqlx.Tx) error {
		type groupKey struct {
			parent int64
			child  bool
			date   int
		}
		groups := make(map[groupKey][]int)
		seen := make(map[int64]bool, len(updates))

		for _, u := range updates {
			if seen[u.ID] {
				return fmt.Errorf("todo %d listed twice: %w", u.ID, ErrConsistency)
			}
			seen[u.ID] = true

			todo, err := getLiveTodo(ctx, tx, u.ID)
			if err != nil {
				return err
			}
			key := groupKey{child: todo.ParentID != nil, date: todo.TargetDate}
			if todo.ParentID != nil {
				key.parent = *todo.ParentID
			}
			groups[key] = append(groups[key], u.Position)
		}

		for key, positions := range groups {
			var parentID *int64
			if key.child {
				parentID = &key.parent
			}
			size, err := groupSize(ctx, tx, parentID, key.date)
			if err != nil {
				return err
			}
			if err := checkDense(positions, size); err != nil {
				return err
			}
		}

		now := s.timestamp()
		for _, u := range updates {
			if _, err := tx.ExecContext(ctx,
				"UPDATE todos SET position = ?, updated_at = ? WHERE id = ?",
				u.Position, now, u.ID,
			); err != nil {
				return fmt.Errorf("reordering todo %d: %w", u.ID, err)
			}
		}
		return nil
	})
}

// checkDense verifies positions are a permutation of 1..size.
func checkDense(positions []int, size int) error {
	if len(positions) != size {
		return fmt.Errorf("got %d positions for a group of %d: %w",
			len(positions), size, ErrConsistency)
	}
	used := make([]bool, size+1)
	for _, p := range positions {
		if p < 1 || p > size {
			return fmt.Errorf("position %d outside 1..%d: %w", p, size, ErrConsistency)
		}
		if used[p] {
			return fmt.Errorf("position %d assigned twice: %w", p, ErrConsistency)
		}
		used[p] = true
	}
	return nil
}

// UpdateTodoParent moves a todo under a new parent, or to top level when
// parentID is nil. The todo joins the end of the destination group on its
// own date and the gap it leaves is closed.
func (s *SQLiteStore) UpdateTodoParent(ctx context.Context, id int64, parentID *int64) error {
	return s.withTx(ctx, "update_parent", func(tx *sqlx.Tx) error {
		todo, err := getLiveTodo(ctx, tx, id)
		if err != nil {
			return err
		}
		if sameParent(todo.ParentID, parentID) {
			return nil
		}

		if parentID != nil {
			if *parentID == todo.ID {
				return fmt.Errorf("todo %d cannot be its own parent: %w", id, ErrInvalidParent)
			}
			parent, err := getLiveTodo(ctx, tx, *parentID)
			if err != nil {
				return fmt.Errorf("loading parent: %w", err)
			}
			if !parent.IsTopLevel() {
				return fmt.Errorf("todo %d is itself a child: %w", parent.ID, ErrInvalidParent)
			}
			if parent.TargetDate != todo.TargetDate {
				return fmt.Errorf("parent %d is scheduled for %d, not %d: %w",
					parent.ID, parent.TargetDate, todo.TargetDate, ErrInvalidParent)
			}
			children, err := liveChildren(ctx, tx, todo.ID)
			if err != nil {
				return err
			}
			if len(children) > 0 {
				return fmt.Errorf("todo %d has %d children: %w",
					todo.ID, len(children), ErrInvalidParent)
			}
		}

		if err := s.moveToGroupEnd(ctx, tx, todo.ID, parentID, todo.TargetDate); err != nil {
			return err
		}
		return shiftSiblings(ctx, tx, todo.ParentID, todo.TargetDate,
			todo.Position, -1, s.timestamp())
	})
}

// UpdateTodoDate reschedules a todo to date, placing it at the end of the
// destination day's top-level group. A top-level todo takes its live
// children along; a child moved on its own leaves its parent behind and
// becomes top-level.
func (s *SQLiteStore) UpdateTodoDate(ctx context.Context, id int64, date int) error {
	if !datekey.Valid(date) {
		return fmt.Errorf("date key %d: %w", date, ErrValidation)
	}

	return s.withTx(ctx, "update_date", func(tx *sqlx.Tx) error {
		todo, err := getLiveTodo(ctx, tx, id)
		if err != nil {
			return err
		}
		if todo.TargetDate == date {
			return nil
		}

		now := s.timestamp()
		if err := s.moveToGroupEnd(ctx, tx, todo.ID, nil, date); err != nil {
			return err
		}
		if todo.IsTopLevel() {
			if _, err := tx.ExecContext(ctx, `
				UPDATE todos SET target_date = ?, updated_at = ?
				WHERE parent_id = ? AND is_deleted = 0`,
				date, now, todo.ID,
			); err != nil {
				return fmt.Errorf("moving children of todo %d: %w", todo.ID, err)
			}
		}
		if err := shiftSiblings(ctx, tx, todo.ParentID, todo.TargetDate,
			todo.Position, -1, now); err != nil {
			return err
		}

		if err := recomputeDailyStat(ctx, tx, todo.TargetDate); err != nil {
			return err
		}
		return recomputeDailyStat(ctx, tx, date)
	})
}

// moveToGroupEnd places a todo last in the (parentID, date) group. The
// caller closes the gap in the group it left.
func (s *SQLiteStore) moveToGroupEnd(
	ctx context.Context,
	tx *sqlx.Tx,
	id int64,
	parentID *int64,
	date int,
) error {
	position, err := nextPosition(ctx, tx, parentID, date)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE todos SET parent_id = ?, target_date = ?, position = ?, updated_at = ?
		WHERE id = ?`,
		nullID(parentID), date, position, s.timestamp(), id,
	); err != nil {
		return fmt.Errorf("moving todo %d: %w", id, err)
	}
	return nil
}

// nextPosition returns 1 + the highest live position in a sibling group.
func nextPosition(ctx context.Context, q sqlx.QueryerContext, parentID *int64, date int) (int, error) {
	var maxPosition int
	err := sqlx.GetContext(ctx, q, &maxPosition, `
		SELECT COALESCE(MAX(position), 0) FROM todos
		WHERE parent_id IS ? AND target_date = ? AND is_deleted = 0`,
		nullID(parentID), date,
	)
	if err != nil {
		return 0, fmt.Errorf("getting max position: %w", err)
	}
	return maxPosition + 1, nil
}

// groupSize counts the live members of a sibling group.
func groupSize(ctx context.Context, q sqlx.QueryerContext, parentID *int64, date int) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, q, &n, `
		SELECT COUNT(*) FROM todos
		WHERE parent_id IS ? AND target_date = ? AND is_deleted = 0`,
		nullID(parentID), date,
	)
	if err != nil {
		return 0, fmt.Errorf("counting sibling group: %w", err)
	}
	return n, nil
}

// shiftSiblings adds delta to the position of every live todo in the
// (parentID, date) group positioned after the given position.
func shiftSiblings(
	ctx context.Context,
	tx *sqlx.Tx,
	parentID *int64,
	date int,
	after int,
	delta int,
	now string,
) error {
	if delta == 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx, `
		UPDATE todos SET position = position + ?, updated_at = ?
		WHERE parent_id IS ? AND target_date = ? AND is_deleted = 0 AND position > ?`,
		delta, now, nullID(parentID), date, after,
	)
	if err != nil {
		return fmt.Errorf("shifting siblings after position %d: %w", after, err)
	}
	return nil
}

// liveChildren returns a todo's live children in position order.
func liveChildren(ctx context.Context, q sqlx.QueryerContext, id int64) ([]model.Todo, error) {
	children, err := selectTodos(ctx, q, `
		SELECT `+todoColumns+` FROM todos
		WHERE parent_id = ? AND is_deleted = 0
		ORDER BY position, id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("loading children of todo %d: %w", id, err)
	}
	return children, nil
}
