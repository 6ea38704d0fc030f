package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/scoop/internal/logtail"
)

func (m Model) logPaneHeight() int {
	return maxInt(m.height/3, LogPaneMinHeight)
}

func (m *Model) resizeLogViewport() {
	h := m.logPaneHeight() - 1
	if m.logViewport.Width == 0 && m.logViewport.Height == 0 {
		m.logViewport = viewport.New(m.width, h)
	} else {
		m.logViewport.Width = m.width
		m.logViewport.Height = h
	}
	m.setLogContent()
}

func (m *Model) handleLogLines(msg logLinesMsg) {
	if msg.err != nil {
		m.logLines = []string{"log unavailable: " + msg.err.Error()}
	} else {
		m.logLines = msg.lines
	}
	m.setLogContent()
}

func (m *Model) setLogContent() {
	styles := m.theme.Styles()
	colored := make([]string, 0, len(m.logLines))
	for _, line := range m.logLines {
		colored = append(colored, m.levelStyle(logtail.Level(line), styles).Render(line))
	}
	m.logViewport.SetContent(strings.Join(colored, "\n"))
	m.logViewport.GotoBottom()
}

func (m Model) levelStyle(level string, styles Styles) lipgloss.Style {
	switch level {
	case "ERR", "FTL", "PNC":
		return styles.DangerText
	case "WRN":
		return styles.WarningText
	case "DBG", "TRC":
		return styles.FaintText
	default:
		return styles.Text
	}
}

func (m Model) renderLogPane() string {
	styles := m.theme.Styles()
	title := "Log"
	if m.config != nil && m.config.LogFile != "" {
		title += "  " + m.config.LogFile
	}
	return styles.Footer.Width(m.width).Render(truncate(title, m.width-2)) + "\n" + m.logViewport.View()
}
