package theme

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/nhle/jast/internal/achievement"
	"github.com/nhle/jast/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
)

// levelColors shade the achievement graph, indexed by achievement.Level.
var levelColors = [...]lipgloss.AdaptiveColor{
	achievement.LevelNone:     ColorSubtle,
	achievement.LevelLow:      {Dark: "#0E4429", Light: "#9BE9A8"},
	achievement.LevelMedium:   {Dark: "#006D32", Light: "#40C463"},
	achievement.LevelHigh:     {Dark: "#26A641", Light: "#30A14E"},
	achievement.LevelVeryHigh: {Dark: "#39D353", Light: "#216E39"},
	achievement.LevelDone:     ColorYellow,
}

// Styles holds the styles used to render command output to one writer.
type Styles struct {
	// Color reports whether the writer receives colour escape codes.
	Color bool

	// Header is used for day titles and section headers.
	Header lipgloss.Style

	// Muted is used for ids, counts and hints.
	Muted lipgloss.Style

	// Pending and Done style todo titles by status.
	Pending lipgloss.Style
	Done    lipgloss.Style

	// Error styles messages printed before a non-zero exit.
	Error lipgloss.Style

	levels [len(levelColors)]lipgloss.Style
}

// New builds styles for w. When color is false, or w is not a colour
// terminal, every style renders plain text.
func New(w io.Writer, color bool) Styles {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}

	s := Styles{
		Color:   r.ColorProfile() != termenv.Ascii,
		Header:  r.NewStyle().Bold(true).Foreground(ColorBlue),
		Muted:   r.NewStyle().Foreground(ColorGray),
		Pending: r.NewStyle().Foreground(ColorWhite),
		Done:    r.NewStyle().Foreground(ColorGreen).Strikethrough(true),
		Error:   r.NewStyle().Bold(true).Foreground(ColorRed),
	}
	for lvl, c := range levelColors {
		s.levels[lvl] = r.NewStyle().Foreground(c)
	}
	return s
}

// Status returns the title style for a todo status.
func (s Styles) Status(status model.TodoStatus) lipgloss.Style {
	if status == model.TodoStatusCompleted {
		return s.Done
	}
	return s.Pending
}

// Level returns the graph cell style for an achievement level.
func (s Styles) Level(level achievement.Level) lipgloss.Style {
	if level < 0 || int(level) >= len(s.levels) {
		return s.levels[achievement.LevelNone]
	}
	return s.levels[level]
}
