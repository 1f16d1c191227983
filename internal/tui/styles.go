// Package tui provides a live terminal dashboard for supervised commands.
//
// The TUI uses Bubble Tea for the application framework and Lipgloss for styling.
// It displays per-command output panes, session status, and pattern-match
// counters with attempt-duration percentiles.
package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// Color Palette
// =============================================================================

// Colors based on a modern dark theme
var (
	colorPrimary   = lipgloss.Color("#7C3AED") // Purple
	colorSecondary = lipgloss.Color("#06B6D4") // Cyan

	colorSuccess = lipgloss.Color("#10B981") // Green
	colorWarning = lipgloss.Color("#F59E0B") // Amber
	colorError   = lipgloss.Color("#EF4444") // Red

	colorText      = lipgloss.Color("#E5E7EB") // Light gray
	colorTextMuted = lipgloss.Color("#9CA3AF") // Medium gray
	colorTextDim   = lipgloss.Color("#6B7280") // Dark gray
	colorBorder    = lipgloss.Color("#374151") // Border gray
)

// =============================================================================
// Base Styles
// =============================================================================

var (
	mutedStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	titleStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	statusOK = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	statusWarning = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	statusError = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)
)

// =============================================================================
// Layout Styles
// =============================================================================

var (
	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	paneFocusedStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorSecondary).
				Padding(0, 1)

	paneTitleStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorPrimary).
			Bold(true).
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted).
			MarginTop(1)

	statLabelStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted).
			Width(20)

	statValueStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Bold(true)
)

// =============================================================================
// Line Highlighting
// =============================================================================

// highlightLine styles well-known output markers so errors and retries
// stand out in the pane.
func highlightLine(line string) string {
	switch {
	case hasAnyPrefix(line, "[panic:", "[spawn error]", "[error]", "[aborted by stop_on_failure]"):
		return statusError.Render(line)
	case hasAnyPrefix(line, "[retry ", "[stderr] ", "[external] not running"):
		return statusWarning.Render(line)
	case hasAnyPrefix(line, "[start]", "[done]", "[external] running"):
		return statusOK.Render(line)
	default:
		return line
	}
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if len(s) >= len(p) && s[:len(p)] == p {
			return true
		}
	}
	return false
}

// RenderStatRow renders a label-count pair for the stats footer.
func RenderStatRow(label string, count uint64) string {
	return lipgloss.JoinHorizontal(lipgloss.Left,
		statLabelStyle.Render(label+":"),
		statValueStyle.Render(fmt.Sprintf("%d", count)),
	)
}
