package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BgStyle paints every cell of a bar, spaces included, with one background.
// Adjacent lipgloss renders otherwise leave unpainted gaps between segments.
type BgStyle struct {
	fill  lipgloss.Style
	space string
}

// NewBgStyle returns a painter for the given background color.
func NewBgStyle(bgColor string) BgStyle {
	fill := lipgloss.NewStyle().Background(lipgloss.Color(bgColor))
	return BgStyle{fill: fill, space: fill.Render(" ")}
}

// Render applies style to text word by word so the spaces keep the background.
func (b BgStyle) Render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	styled := style.Inherit(b.fill)
	words := strings.Split(text, " ")
	for i, w := range words {
		if w != "" {
			words[i] = styled.Render(w)
		}
	}
	return strings.Join(words, b.space)
}

// Space returns one painted space.
func (b BgStyle) Space() string { return b.space }

// Spaces returns n painted spaces.
func (b BgStyle) Spaces(n int) string {
	return b.fill.Render(strings.Repeat(" ", n))
}

// Join joins rendered parts with a painted separator.
func (b BgStyle) Join(parts []string, sep string) string {
	return strings.Join(parts, b.fill.Render(sep))
}

// FillLine pads rendered content to width with the background.
func (b BgStyle) FillLine(content string, width int) string {
	return b.fill.Width(width).Render(content)
}
