package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderMain renders the signed-out screen or the collection with its header,
// command bar and optional log pane.
func (m Model) renderMain() string {
	if !m.state.SignedIn() {
		return m.renderAuth()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderList(m.listHeight()))
	if m.showLogs {
		b.WriteString("\n")
		b.WriteString(m.renderLogPane())
	}
	return b.String()
}

// renderHeader shows the identity, item count and the current activity.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)

	parts := []string{
		bg.Render("scoop", styles.Logo),
		bg.Render("Ice Cream List", styles.Text.Bold(true)),
		bg.Render(truncate(m.state.Identity, 40), styles.AccentText),
		bg.Render(fmt.Sprintf("%d flavors", len(m.state.Items)), styles.MutedText),
	}

	switch busy := m.state.Busy; {
	case busy.Loading:
		parts = append(parts, bg.Render(m.spinner.View()+" Loading", styles.WarningText))
	case busy.Mutating:
		parts = append(parts, bg.Render(m.spinner.View()+" Saving", styles.WarningText))
	case m.state.IsOffline():
		parts = append(parts, bg.Render("OFFLINE", styles.DangerText))
	case !m.state.LastUpdated.IsZero():
		parts = append(parts, bg.Render("updated "+m.state.LastUpdated.Format("15:04:05"), styles.FaintText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, sep))
}

// renderCommandBar lists the actions, dimming the ones a busy flag disables.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Background)
	bg := NewBgStyle(m.theme.Background)
	busy := m.state.Busy

	cmd := func(k, label string, enabled bool) string {
		if !enabled {
			return bg.Render(k+" "+label, styles.FaintText)
		}
		return bg.Render(k, styles.WarningText) + bg.Space() + bg.Render(label, styles.MutedText)
	}

	parts := []string{
		cmd("a", "add", !busy.Mutating),
		cmd("d", "delete", !busy.Mutating && len(m.state.Items) > 0),
		cmd("r", "reload", !busy.Loading),
		cmd("l", ternary(m.showLogs, "hide logs", "logs"), true),
		cmd("S", "sign out", true),
		cmd("?", "help", true),
		cmd("q", "quit", true),
	}
	return bg.FillLine(bg.Join(parts, "  "), m.width)
}

// renderList draws the collection, keeping the selected row visible.
func (m Model) renderList(height int) string {
	styles := m.theme.Styles()
	items := m.state.Items

	if len(items) == 0 {
		msg := "No ice cream flavors yet!"
		if m.state.Busy.Loading && !m.state.Loaded {
			msg = m.spinner.View() + " Loading ice cream flavors..."
		}
		return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, styles.MutedText.Render(msg))
	}

	start := 0
	if m.selectedRow >= height {
		start = m.selectedRow - height + 1
	}
	end := start + height
	if end > len(items) {
		end = len(items)
	}

	nameWidth := maxInt(m.width-4, 10)
	lines := make([]string, 0, height)
	for i := start; i < end; i++ {
		row := padRight(truncate(items[i].Name, nameWidth), nameWidth)
		if i == m.selectedRow {
			lines = append(lines, styles.Selected.Render("> "+row))
		} else {
			lines = append(lines, styles.Text.Render("  "+row))
		}
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// renderAuth draws the signed-out screen.
func (m Model) renderAuth() string {
	styles := m.theme.Styles()
	f := m.auth

	rows := []string{
		styles.Logo.Render("Ice Cream App"),
		styles.MutedText.Render("Sign in to manage your ice cream flavors"),
		"",
		styles.AccentText.Bold(true).Render(f.title()),
		"",
	}
	for _, in := range f.inputs() {
		rows = append(rows, in.View())
	}
	rows = append(rows, "")

	switch {
	case m.state.Busy.Loading:
		rows = append(rows, styles.WarningText.Render(m.spinner.View()+" Loading ice cream flavors..."))
	case f.err != "":
		rows = append(rows, styles.DangerText.Render(f.err))
	case f.info != "":
		rows = append(rows, styles.SuccessText.Render(f.info))
	}

	switchLabel := "ctrl+t create account"
	if f.mode == modeSignUp {
		switchLabel = "ctrl+t back to sign in"
	}
	rows = append(rows, "", styles.FaintText.Render("tab next field · enter submit · "+switchLabel+" · esc quit"))

	return placeModal(m.theme, m.width, m.height, 56, lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderNotice shows the last failure until it is dismissed.
func (m Model) renderNotice() string {
	styles := m.theme.Styles()
	body := lipgloss.JoinVertical(lipgloss.Left,
		styles.DangerText.Render(m.notice.Title),
		"",
		styles.Text.Render(m.notice.Message),
		"",
		styles.MutedText.Render("enter OK"),
	)
	return placeModal(m.theme, m.width, m.height, 50, body)
}

// listHeight is what remains after the header, command bar and log pane.
func (m Model) listHeight() int {
	h := m.height - 2
	if m.showLogs {
		h -= m.logPaneHeight() + 1
	}
	return maxInt(h, 1)
}
