package theme

import (
	"bytes"
	"testing"

	"github.com/nhle/jast/internal/achievement"
	"github.com/nhle/jast/internal/model"
)

func TestNewWithoutColorRendersPlainText(t *testing.T) {
	s := New(&bytes.Buffer{}, false)

	if s.Color {
		t.Error("Color = true for a plain writer")
	}

	tests := []struct {
		name string
		got  string
	}{
		{"header", s.Header.Render("Today")},
		{"done", s.Status(model.TodoStatusCompleted).Render("Today")},
		{"pending", s.Status(model.TodoStatusPending).Render("Today")},
		{"level", s.Level(achievement.LevelDone).Render("Today")},
		{"out of range level", s.Level(achievement.Level(42)).Render("Today")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != "Today" {
				t.Errorf("rendered %q, want plain %q", tt.got, "Today")
			}
		})
	}
}
