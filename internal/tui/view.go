package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// Main View Rendering
// =============================================================================

// renderDashboard renders the full dashboard: header, one pane per command,
// the stats footer, and the key help line.
func (m Model) renderDashboard() string {
	var sections []string

	sections = append(sections, m.renderHeader())

	commands := m.sup.Commands()
	tail := m.paneTail(len(commands))
	for i, c := range commands {
		sections = append(sections, m.renderPane(i, c.Cmdline, c.Log.Tail(tail)))
	}

	if m.agg != nil && m.agg.Len() > 0 {
		sections = append(sections, m.renderStats())
	}

	sections = append(sections, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// =============================================================================
// Header
// =============================================================================

func (m Model) renderHeader() string {
	header := fmt.Sprintf(
		" go-cmd-watchdog │ %s │ %s │ Elapsed: %s ",
		m.jobID,
		m.statusLabel(),
		formatDuration(m.Elapsed()),
	)
	return headerStyle.Width(m.width).Render(header)
}

func (m Model) statusLabel() string {
	if m.sup.External() {
		if m.sup.ExternalRunning() {
			return statusOK.Render("external: running")
		}
		return statusWarning.Render("external: not running")
	}
	if m.sup.Started() {
		return statusOK.Render("running")
	}
	return statusError.Render("stopped")
}

// =============================================================================
// Command Panes
// =============================================================================

// paneTail returns how many log lines fit in each pane for the current
// terminal height.
func (m Model) paneTail(panes int) int {
	if panes == 0 {
		return 0
	}
	// Header, stats footer, and help line overhead plus two border rows
	// per pane.
	avail := m.height - 8 - 2*panes
	tail := avail / panes
	if tail < 3 {
		tail = 3
	}
	return tail
}

func (m Model) renderPane(index int, cmdline string, lines []string) string {
	title := paneTitleStyle.Render(truncate(cmdline, m.width-8))

	rows := make([]string, 0, len(lines)+1)
	rows = append(rows, title)
	if len(lines) == 0 {
		rows = append(rows, dimStyle.Render("(no output)"))
	}
	for _, line := range lines {
		rows = append(rows, highlightLine(truncate(line, m.width-6)))
	}

	style := paneStyle
	if index == m.focus {
		style = paneFocusedStyle
	}
	return style.Width(m.width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// =============================================================================
// Stats Footer
// =============================================================================

func (m Model) renderStats() string {
	labels := m.agg.Labels()
	counts := m.agg.Counts()

	rows := make([]string, 0, len(labels)+1)
	for i, label := range labels {
		rows = append(rows, RenderStatRow(label, counts[i]))
	}

	if m.durations != nil && m.durations.Count() > 0 {
		rows = append(rows, mutedStyle.Render(fmt.Sprintf(
			"attempts: %d  mean: %s  p50: %s  p99: %s",
			m.durations.Count(),
			formatMs(m.durations.Mean()),
			formatMs(m.durations.Quantile(0.5)),
			formatMs(m.durations.Quantile(0.99)),
		)))
	}

	return paneStyle.Width(m.width - 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// =============================================================================
// Footer
// =============================================================================

func (m Model) renderFooter() string {
	help := "s start │ x stop │ r restart │ R restart+clear │ k kill │ tab focus │ q quit"
	if m.metricsAddr != "" {
		help += " │ metrics " + m.metricsAddr
	}
	if m.notice != "" {
		help = statusWarning.Render(m.notice) + "  " + help
	}
	return footerStyle.Render(help)
}
