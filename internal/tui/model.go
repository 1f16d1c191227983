package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/randomizedcoder/go-cmd-watchdog/internal/stats"
	"github.com/randomizedcoder/go-cmd-watchdog/internal/supervisor"
)

// =============================================================================
// Messages
// =============================================================================

// TickMsg is sent periodically to refresh the panes and counters.
type TickMsg time.Time

// QuitMsg signals the TUI should exit.
type QuitMsg struct{}

// tickInterval is the display refresh period.
const tickInterval = 500 * time.Millisecond

// =============================================================================
// Model
// =============================================================================

// Model represents the dashboard state.
type Model struct {
	// Configuration
	jobID       string
	metricsAddr string

	// Data sources
	sup       *supervisor.Supervisor
	agg       *stats.Aggregator
	durations *stats.Durations

	// Current state
	startTime  time.Time
	lastUpdate time.Time
	focus      int
	notice     string

	// Display options
	width  int
	height int

	quitting bool
}

// Config holds TUI configuration.
type Config struct {
	JobID       string
	MetricsAddr string
	Supervisor  *supervisor.Supervisor
	Aggregator  *stats.Aggregator
	Durations   *stats.Durations
}

// New creates a new dashboard model.
func New(cfg Config) Model {
	return Model{
		jobID:       cfg.JobID,
		metricsAddr: cfg.MetricsAddr,
		sup:         cfg.Supervisor,
		agg:         cfg.Aggregator,
		durations:   cfg.Durations,
		startTime:   time.Now(),
		lastUpdate:  time.Now(),
		width:       80,
		height:      24,
	}
}

// =============================================================================
// Bubble Tea Interface
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case TickMsg:
		if m.agg != nil && m.sup != nil {
			m.agg.UpdateFromLogs(m.sup.Logs())
		}
		m.lastUpdate = time.Now()
		return m, tickCmd()

	case QuitMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "s":
		m.sup.Start()
		m.notice = ""
		return m, nil

	case "x":
		m.sup.StopAll()
		m.notice = ""
		return m, nil

	case "r":
		if err := m.sup.RestartAll(false); err != nil {
			m.notice = err.Error()
		} else {
			m.notice = ""
		}
		return m, nil

	case "R":
		if err := m.sup.RestartAll(true); err != nil {
			m.notice = err.Error()
		} else {
			m.notice = ""
		}
		return m, nil

	case "k":
		if m.sup.KillExternal() {
			m.notice = "kill command dispatched"
		}
		return m, nil

	case "tab":
		if n := len(m.sup.Commands()); n > 0 {
			m.focus = (m.focus + 1) % n
		}
		return m, nil
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.renderDashboard()
}

// =============================================================================
// Commands
// =============================================================================

// tickCmd returns a command that sends a tick after the refresh period.
func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// =============================================================================
// Accessors
// =============================================================================

// Elapsed returns the time since the dashboard started.
func (m Model) Elapsed() time.Duration {
	return time.Since(m.startTime)
}

// Focus returns the index of the focused pane.
func (m Model) Focus() int {
	return m.focus
}

// =============================================================================
// Helper for external use
// =============================================================================

// SendQuit sends a quit message to the TUI.
func SendQuit(p *tea.Program) {
	if p != nil {
		p.Send(QuitMsg{})
	}
}

// =============================================================================
// Formatting Helpers (used by view.go)
// =============================================================================

// formatDuration formats a duration as HH:MM:SS.
func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// formatMs formats a duration as milliseconds.
func formatMs(d time.Duration) string {
	ms := d.Milliseconds()
	if ms == 0 && d > 0 {
		return fmt.Sprintf("%d µs", d.Microseconds())
	}
	return fmt.Sprintf("%d ms", ms)
}

// truncate shortens a command line to fit a pane title.
func truncate(s string, max int) string {
	if max <= 3 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
