package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/jast/internal/datekey"
	"github.com/nhle/jast/internal/hierarchy"
	"github.com/nhle/jast/internal/model"
)

func newListCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list [date]",
		Aliases: []string{"ls"},
		Short:   "Show the todos of a day",
		Long: `Show the todos of a day, today by default. A date is YYYY-MM-DD,
YYYYMMDD, today, tomorrow or yesterday.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var arg string
			if len(args) > 0 {
				arg = args[0]
			}
			date, err := a.parseDate(arg)
			if err != nil {
				return err
			}

			todos, err := a.store.ListByDate(cmd.Context(), date)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(hierarchy.Build(todos))
			}
			a.renderDay(date, todos)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the day as JSON")
	return cmd
}

func newAddCommand(a *app) *cobra.Command {
	var (
		date   string
		parent int64
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a todo at the end of its list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := a.parseDate(date)
			if err != nil {
				return err
			}

			var parentID *int64
			if parent > 0 {
				parentID = &parent
				// Children live on their parent's day unless told otherwise.
				if !cmd.Flags().Changed("date") {
					p, err := a.store.GetTodoByID(cmd.Context(), parent)
					if err != nil {
						return err
					}
					key = p.TargetDate
				}
			}

			todo, err := a.store.CreateTodo(cmd.Context(), strings.Join(args, " "), key, parentID)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Added %s %q to %s\n",
				a.styles.Muted.Render(fmt.Sprintf("#%d", todo.ID)), todo.Title, datekey.Format(todo.TargetDate))
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "today", "day to schedule the todo for")
	cmd.Flags().Int64VarP(&parent, "parent", "p", 0, "id of the parent todo")
	return cmd
}

func newRenameCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Change the title of a todo",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.store.UpdateTodoTitle(cmd.Context(), id, strings.Join(args[1:], " ")); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Renamed #%d\n", id)
			return nil
		},
	}
}

func newStatusCommand(a *app, use, short string, status model.TodoStatus) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				if err := a.store.UpdateTodoStatus(cmd.Context(), id, status); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "#%d is %s\n", id, status)
			}
			return nil
		},
	}
}

func newToggleCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a todo between pending and completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			status, err := a.store.ToggleTodoStatus(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "#%d is %s\n", id, status)
			return nil
		},
	}
}

func newRemoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"delete"},
		Short:   "Delete todos; their children move up to take their place",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				if err := a.store.SoftDeleteTodo(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Removed #%d\n", id)
			}
			return nil
		},
	}
}

func newMoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <date>",
		Short: "Reschedule a todo, with its children, to another day",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			date, err := a.parseDate(args[1])
			if err != nil {
				return err
			}
			if err := a.store.UpdateTodoDate(cmd.Context(), id, date); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Moved #%d to %s\n", id, datekey.Format(date))
			return nil
		},
	}
}

func newIndentCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "indent <id> <parent>",
		Short: "Make a todo a child of another todo on the same day",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			parent, err := parseID(args[1])
			if err != nil {
				return err
			}
			if err := a.store.UpdateTodoParent(cmd.Context(), id, &parent); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "#%d is now under #%d\n", id, parent)
			return nil
		},
	}
}

func newOutdentCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "outdent <id>",
		Short: "Make a child todo top-level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.store.UpdateTodoParent(cmd.Context(), id, nil); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "#%d is now top-level\n", id)
			return nil
		},
	}
}

func newReorderCommand(a *app) *cobra.Command {
	var parent int64

	cmd := &cobra.Command{
		Use:   "reorder <date> <id>...",
		Short: "Put todos of a day in the given order",
		Long: `Put the top-level todos of a day in the given order. Todos not named
keep their relative order after the named ones. With --parent the children
of that todo are reordered instead.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := a.parseDate(args[0])
			if err != nil {
				return err
			}
			ids := make([]int64, 0, len(args)-1)
			for _, arg := range args[1:] {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			todos, err := a.store.ListByDate(cmd.Context(), date)
			if err != nil {
				return err
			}
			group, err := siblingIDs(hierarchy.Build(todos), parent)
			if err != nil {
				return err
			}
			order, err := completeOrder(group, ids)
			if err != nil {
				return err
			}

			updates := make([]model.TodoPosition, len(order))
			for i, id := range order {
				updates[i] = model.TodoPosition{ID: id, Position: i + 1}
			}
			if err := a.store.ReorderTodos(cmd.Context(), updates); err != nil {
				return err
			}

			a.renderDay(date, reloadDay(cmd, a, date))
			return nil
		},
	}

	cmd.Flags().Int64VarP(&parent, "parent", "p", 0, "reorder the children of this todo")
	return cmd
}

func newShiftCommand(a *app, use, short string, delta int) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			todo, err := a.store.GetTodoByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			todos, err := a.store.ListByDate(cmd.Context(), todo.TargetDate)
			if err != nil {
				return err
			}

			updates, err := shiftUpdates(hierarchy.Build(todos), todo, delta)
			if err != nil {
				return err
			}
			if updates == nil {
				edge := "last"
				if delta < 0 {
					edge = "first"
				}
				fmt.Fprintf(a.out, "#%d is already %s\n", id, edge)
				return nil
			}
			if err := a.store.ReorderTodos(cmd.Context(), updates); err != nil {
				return err
			}

			a.renderDay(todo.TargetDate, reloadDay(cmd, a, todo.TargetDate))
			return nil
		},
	}
}

// siblingIDs returns the ids of the top-level todos in view, or of the
// children of parent when parent is non-zero, in position order.
func siblingIDs(view []model.TodoWithChildren, parent int64) ([]int64, error) {
	if parent == 0 {
		ids := make([]int64, len(view))
		for i, root := range view {
			ids[i] = root.ID
		}
		return ids, nil
	}
	for _, root := range view {
		if root.ID != parent {
			continue
		}
		ids := make([]int64, len(root.Children))
		for i, child := range root.Children {
			ids[i] = child.ID
		}
		return ids, nil
	}
	return nil, fmt.Errorf("todo #%d is not a top-level todo on that day", parent)
}

// completeOrder puts the named ids first, in the order given, followed by
// the rest of group in its current order.
func completeOrder(group, named []int64) ([]int64, error) {
	members := make(map[int64]bool, len(group))
	for _, id := range group {
		members[id] = true
	}

	order := make([]int64, 0, len(group))
	seen := make(map[int64]bool, len(named))
	for _, id := range named {
		if !members[id] {
			return nil, fmt.Errorf("todo #%d is not in that list", id)
		}
		if seen[id] {
			return nil, fmt.Errorf("todo #%d is named twice", id)
		}
		seen[id] = true
		order = append(order, id)
	}
	for _, id := range group {
		if !seen[id] {
			order = append(order, id)
		}
	}
	return order, nil
}

// shiftUpdates returns the reorder command moving todo delta places
// within its sibling group, or nil when it is already at the edge.
func shiftUpdates(view []model.TodoWithChildren, todo *model.Todo, delta int) ([]model.TodoPosition, error) {
	if todo.IsTopLevel() {
		for i, root := range view {
			if root.ID == todo.ID {
				if i+delta < 0 || i+delta >= len(view) {
					return nil, nil
				}
				return hierarchy.MoveTopLevel(view, i, i+delta), nil
			}
		}
		return nil, fmt.Errorf("todo #%d is missing from its day", todo.ID)
	}

	for _, root := range view {
		if root.ID != *todo.ParentID {
			continue
		}
		for j, child := range root.Children {
			if child.ID == todo.ID {
				if j+delta < 0 || j+delta >= len(root.Children) {
					return nil, nil
				}
				return hierarchy.MoveChild(root, j, j+delta), nil
			}
		}
	}
	return nil, fmt.Errorf("todo #%d is missing from its day", todo.ID)
}

// reloadDay reads a day back for display after a write. Errors are logged
// and yield an empty list.
func reloadDay(cmd *cobra.Command, a *app, date int) []model.Todo {
	todos, err := a.store.ListByDate(cmd.Context(), date)
	if err != nil {
		a.log.Warn("reloading day", zap.Int("date", date), zap.Error(err))
		return nil
	}
	return todos
}
