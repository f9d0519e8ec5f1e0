package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/example/taskly/internal/core/backlog"
)

// Layout styles for the board columns and archive cards.
var (
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"}).
			Padding(0, 1).
			Width(30)
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(0, 1).
			Width(64)
	headerStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"})
)

const separator = "────────────────────────────────────────────────────────────────"

func statusColor(s backlog.Status) *color.Color {
	switch s {
	case backlog.StatusTodo:
		return color.New(color.FgHiBlue)
	case backlog.StatusInProgress:
		return color.New(color.FgYellow)
	case backlog.StatusReview:
		return color.New(color.FgHiMagenta)
	case backlog.StatusDone:
		return color.New(color.FgHiGreen)
	default:
		return color.New(color.FgHiBlack)
	}
}

func typeColor(t backlog.ItemType) *color.Color {
	switch t {
	case backlog.TypeEpic:
		return color.New(color.FgMagenta, color.Bold)
	case backlog.TypeStory:
		return color.New(color.FgCyan)
	case backlog.TypeBug:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgWhite)
	}
}

// statusBadge renders "[In Progress]" in the status colour.
func statusBadge(s backlog.Status) string {
	return statusColor(s).Sprintf("[%s]", s.Label())
}

// typeBadge renders the upper-case type in its colour.
func typeBadge(t backlog.ItemType) string {
	return typeColor(t).Sprint(strings.ToUpper(t.Label()))
}

func success(format string, args ...any) string {
	return color.New(color.FgGreen).Sprint("✓") + " " + fmt.Sprintf(format, args...)
}

func muted(s string) string {
	return color.New(color.FgHiBlack).Sprint(s)
}

func idRef(id *int64) string {
	if id == nil {
		return "-"
	}
	return fmt.Sprintf("#%d", *id)
}
