package hierarchy

import (
	"reflect"
	"testing"

	"github.com/nhle/jast/internal/model"
)

func ptr(id int64) *int64 { return &id }

func ids(todos []model.Todo) []int64 {
	out := make([]int64, len(todos))
	for i, t := range todos {
		out[i] = t.ID
	}
	return out
}

func TestBuild(t *testing.T) {
	todos := []model.Todo{
		{ID: 1, Position: 2},
		{ID: 2, Position: 1},
		{ID: 3, ParentID: ptr(1), Position: 2},
		{ID: 4, ParentID: ptr(1), Position: 1},
		{ID: 5, ParentID: ptr(2), Position: 1},
		{ID: 6, ParentID: ptr(99), Position: 1},
		{ID: 7, Position: 3, IsDeleted: true},
		{ID: 8, ParentID: ptr(2), Position: 2, IsDeleted: true},
	}

	view := Build(todos)

	if len(view) != 2 {
		t.Fatalf("got %d roots, want 2", len(view))
	}
	if view[0].ID != 2 || view[1].ID != 1 {
		t.Errorf("root order = [%d %d], want [2 1]", view[0].ID, view[1].ID)
	}
	if got := ids(view[0].Children); !reflect.DeepEqual(got, []int64{5}) {
		t.Errorf("children of 2 = %v, want [5]", got)
	}
	if got := ids(view[1].Children); !reflect.DeepEqual(got, []int64{4, 3}) {
		t.Errorf("children of 1 = %v, want [4 3]", got)
	}

	if got := ids(Flatten(view)); !reflect.DeepEqual(got, []int64{2, 5, 1, 4, 3}) {
		t.Errorf("Flatten = %v, want [2 5 1 4 3]", got)
	}
}

func TestBuildEmpty(t *testing.T) {
	if view := Build(nil); len(view) != 0 {
		t.Errorf("Build(nil) = %v, want empty", view)
	}
}

func TestBuildChildlessRootHasEmptySlice(t *testing.T) {
	view := Build([]model.Todo{{ID: 1, Position: 1}})
	if view[0].Children == nil {
		t.Error("Children = nil, want empty slice")
	}
}

func TestMoveTopLevel(t *testing.T) {
	view := Build([]model.Todo{
		{ID: 10, Position: 1},
		{ID: 20, Position: 2},
		{ID: 30, Position: 3},
		{ID: 40, Position: 4},
	})

	tests := []struct {
		name     string
		from, to int
		want     []model.TodoPosition
	}{
		{"down", 0, 2, []model.TodoPosition{{ID: 20, Position: 1}, {ID: 30, Position: 2}, {ID: 10, Position: 3}, {ID: 40, Position: 4}}},
		{"up", 3, 0, []model.TodoPosition{{ID: 40, Position: 1}, {ID: 10, Position: 2}, {ID: 20, Position: 3}, {ID: 30, Position: 4}}},
		{"same", 1, 1, []model.TodoPosition{{ID: 10, Position: 1}, {ID: 20, Position: 2}, {ID: 30, Position: 3}, {ID: 40, Position: 4}}},
		{"clamped", -5, 99, []model.TodoPosition{{ID: 20, Position: 1}, {ID: 30, Position: 2}, {ID: 40, Position: 3}, {ID: 10, Position: 4}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MoveTopLevel(view, tt.from, tt.to)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MoveTopLevel(%d, %d) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestMoveChild(t *testing.T) {
	view := Build([]model.Todo{
		{ID: 1, Position: 1},
		{ID: 2, ParentID: ptr(1), Position: 1},
		{ID: 3, ParentID: ptr(1), Position: 2},
	})

	got := MoveChild(view[0], 1, 0)
	want := []model.TodoPosition{{ID: 3, Position: 1}, {ID: 2, Position: 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MoveChild = %v, want %v", got, want)
	}

	if got := MoveChild(model.TodoWithChildren{}, 0, 1); got != nil {
		t.Errorf("MoveChild on empty = %v, want nil", got)
	}
}
