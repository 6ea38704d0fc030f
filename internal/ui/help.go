package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var helpTitles = []string{"Navigation", "Flavors", "General"}

// renderHelp renders the help overlay from the key map.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Warning)).
		Width(12)

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	groups := m.keys.FullHelp()
	for i, group := range groups {
		if i < len(helpTitles) {
			b.WriteString(styles.AccentText.Bold(true).Render(helpTitles[i]))
			b.WriteString("\n")
		}
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(keyStyle.Render(h.Key))
			b.WriteString(styles.Text.Render(h.Desc))
			b.WriteString("\n")
		}
		if i < len(groups)-1 {
			b.WriteString("\n")
		}
	}

	return placeModal(m.theme, m.width, m.height, 40, b.String())
}
