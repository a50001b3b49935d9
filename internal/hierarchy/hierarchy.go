// Package hierarchy turns a day's flat todo list into the two-level
// parent/children view the list is displayed as.
package hierarchy

import (
	"sort"

	"github.com/nhle/jast/internal/model"
)

// Build partitions todos into top-level todos ordered by position, each
// carrying its live children ordered by position. Deleted todos and
// children whose parent is not in todos are left out. The input is not
// modified.
func Build(todos []model.Todo) []model.TodoWithChildren {
	var roots []model.TodoWithChildren
	children := make(map[int64][]model.Todo)

	for _, t := range todos {
		if t.IsDeleted {
			continue
		}
		if t.ParentID == nil {
			roots = append(roots, model.TodoWithChildren{Todo: t})
			continue
		}
		children[*t.ParentID] = append(children[*t.ParentID], t)
	}

	sort.SliceStable(roots, func(i, j int) bool {
		return roots[i].Position < roots[j].Position
	})

	result := make([]model.TodoWithChildren, len(roots))
	for i, root := range roots {
		kids := children[root.ID]
		sort.SliceStable(kids, func(a, b int) bool {
			return kids[a].Position < kids[b].Position
		})
		if kids == nil {
			kids = []model.Todo{}
		}
		root.Children = kids
		result[i] = root
	}
	return result
}

// Flatten lists the view in display order: each top-level todo followed by
// its children.
func Flatten(view []model.TodoWithChildren) []model.Todo {
	var out []model.Todo
	for _, root := range view {
		out = append(out, root.Todo)
		out = append(out, root.Children...)
	}
	return out
}

// MoveTopLevel returns the reorder command that moves the top-level todo at
// index from to index to, renumbering the whole top-level group 1..n.
// Indexes are clamped to the view.
func MoveTopLevel(view []model.TodoWithChildren, from, to int) []model.TodoPosition {
	ids := make([]int64, len(view))
	for i, root := range view {
		ids[i] = root.ID
	}
	return move(ids, from, to)
}

// MoveChild returns the reorder command that moves the child at index from
// to index to within the children of parent.
func MoveChild(parent model.TodoWithChildren, from, to int) []model.TodoPosition {
	ids := make([]int64, len(parent.Children))
	for i, child := range parent.Children {
		ids[i] = child.ID
	}
	return move(ids, from, to)
}

func move(ids []int64, from, to int) []model.TodoPosition {
	if len(ids) == 0 {
		return nil
	}
	from = clamp(from, len(ids)-1)
	to = clamp(to, len(ids)-1)

	moved := ids[from]
	ordered := make([]int64, 0, len(ids))
	ordered = append(ordered, ids[:from]...)
	ordered = append(ordered, ids[from+1:]...)
	ordered = append(ordered[:to], append([]int64{moved}, ordered[to:]...)...)

	updates := make([]model.TodoPosition, len(ordered))
	for i, id := range ordered {
		updates[i] = model.TodoPosition{ID: id, Position: i + 1}
	}
	return updates
}

func clamp(i, hi int) int {
	if i < 0 {
		return 0
	}
	if i > hi {
		return hi
	}
	return i
}
