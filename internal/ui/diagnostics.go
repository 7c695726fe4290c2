package ui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/handbook/internal/logtail"
)

// diagLevels is the order L cycles through.
var diagLevels = []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError}

type diagState struct {
	viewport viewport.Model
	lines    []string
	minLevel slog.Level
	err      error
	loaded   bool
}

func newDiagState() diagState {
	return diagState{
		viewport: viewport.New(0, 0),
		minLevel: slog.LevelDebug,
	}
}

func levelLabel(l slog.Level) string {
	return strings.ToLower(l.String()) + "+"
}

func (m *Model) handleLogLines(msg logLinesMsg) {
	m.diag.lines = msg.lines
	m.diag.err = msg.err
	m.diag.loaded = true
	if msg.err != nil {
		m.log.Warn("read log failed", "path", m.logPath, "error", msg.err)
	}
	m.updateDiagViewport()
	m.diag.viewport.GotoBottom()
}

func (m *Model) updateDiagViewport() {
	if m.diag.viewport.Width <= 0 {
		return
	}
	m.diag.viewport.SetContent(m.renderLogContent(m.diag.viewport.Width))
}

func (m Model) renderLogContent(width int) string {
	styles := m.theme.Styles()

	switch {
	case m.logPath == "":
		return styles.MutedText.Render("Logging to a file is disabled (log.path is empty)")
	case m.diag.err != nil:
		return styles.DangerText.Render("Cannot read log: " + firstLine(m.diag.err.Error()))
	case !m.diag.loaded:
		return styles.MutedText.Render("Loading log...")
	}

	lines := logtail.FilterLevel(m.diag.lines, m.diag.minLevel)
	if len(lines) == 0 {
		return styles.MutedText.Render("No log lines at " + levelLabel(m.diag.minLevel))
	}

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		style := styles.Text
		if lvl, ok := logtail.Level(line); ok {
			switch {
			case lvl >= slog.LevelError:
				style = styles.DangerText
			case lvl >= slog.LevelWarn:
				style = styles.WarningText
			case lvl < slog.LevelInfo:
				style = styles.FaintText
			}
		}
		out = append(out, style.Render(truncate(line, width)))
	}
	return strings.Join(out, "\n")
}

func (m *Model) cycleLevel() {
	next := diagLevels[0]
	for i, l := range diagLevels {
		if l == m.diag.minLevel {
			next = diagLevels[(i+1)%len(diagLevels)]
			break
		}
	}
	m.diag.minLevel = next
	m.updateDiagViewport()
	m.diag.viewport.GotoBottom()
}

func (m Model) handleDiagnosticsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.currentView = ViewBrowse
	case key.Matches(msg, m.keys.CycleLevel):
		m.cycleLevel()
	case key.Matches(msg, m.keys.Reload):
		return m, readLogCmd(m.logPath)
	case key.Matches(msg, m.keys.Up):
		m.diag.viewport.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.diag.viewport.ScrollDown(1)
	case key.Matches(msg, m.keys.Top):
		m.diag.viewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.diag.viewport.GotoBottom()
	case key.Matches(msg, m.keys.HalfPageDown):
		m.diag.viewport.HalfPageDown()
	case key.Matches(msg, m.keys.HalfPageUp):
		m.diag.viewport.HalfPageUp()
	}
	return m, nil
}

func (m Model) renderDiagnostics() string {
	title := "Log"
	if m.logPath != "" {
		title = fmt.Sprintf("Log · %s · %s", truncate(m.logPath, 48), levelLabel(m.diag.minLevel))
	}
	box := m.renderTitledBox(title, m.diag.viewport.View(), m.width, m.height-2, true)
	return lipgloss.NewStyle().Width(m.width).Render(box)
}
