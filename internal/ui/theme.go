package ui

import "github.com/charmbracelet/lipgloss"

// Theme is a named color palette.
type Theme struct {
	Name string

	Background string // screen and command bar
	Surface    string // header and log title

	SelectionBg   string
	SelectionText string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style

	Header   lipgloss.Style
	Footer   lipgloss.Style
	Logo     lipgloss.Style
	Selected lipgloss.Style
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	fg := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	return Styles{
		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),

		Header: fg(t.Text).
			Background(lipgloss.Color(t.Surface)).
			Padding(0, 1),
		Footer: fg(t.Muted).
			Background(lipgloss.Color(t.Surface)).
			Padding(0, 1),
		Logo: fg(t.Warning).Bold(true),
		Selected: fg(t.SelectionText).
			Background(lipgloss.Color(t.SelectionBg)),
	}
}

// WithBackground returns a copy of s where every text style carries bgColor
// instead of inheriting the terminal background.
func (s Styles) WithBackground(bgColor string) Styles {
	bg := lipgloss.Color(bgColor)
	return Styles{
		Text:        s.Text.Background(bg),
		MutedText:   s.MutedText.Background(bg),
		FaintText:   s.FaintText.Background(bg),
		AccentText:  s.AccentText.Background(bg),
		SuccessText: s.SuccessText.Background(bg),
		WarningText: s.WarningText.Background(bg),
		DangerText:  s.DangerText.Background(bg),
		Header:      s.Header.Background(bg),
		Footer:      s.Footer.Background(bg),
		Logo:        s.Logo.Background(bg),
		Selected:    s.Selected,
	}
}

var themes = map[string]Theme{
	"Nightfox": nightfoxTheme(),
	"Kanagawa": kanagawaTheme(),
	"Slate":    slateTheme(),
}

var themeOrder = []string{"Nightfox", "Kanagawa", "Slate"}

// GetTheme returns a theme by name, falling back to the first theme.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes[themeOrder[0]]
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names.
func ThemeNames() []string {
	return append([]string(nil), themeOrder...)
}

func nightfoxTheme() Theme {
	// https://github.com/EdenEast/nightfox.nvim
	return Theme{
		Name:          "Nightfox",
		Background:    "#131a24",
		Surface:       "#192330",
		SelectionBg:   "#2b3b51",
		SelectionText: "#cdcecf",
		Text:          "#cdcecf",
		Muted:         "#738091",
		Faint:         "#71839b",
		Accent:        "#719cd6",
		Success:       "#81b29a",
		Warning:       "#dbc074",
		Danger:        "#c94f6d",
	}
}

func kanagawaTheme() Theme {
	// https://github.com/rebelot/kanagawa.nvim
	return Theme{
		Name:          "Kanagawa",
		Background:    "#16161D",
		Surface:       "#1F1F28",
		SelectionBg:   "#2D4F67",
		SelectionText: "#DCD7BA",
		Text:          "#DCD7BA",
		Muted:         "#C8C093",
		Faint:         "#727169",
		Accent:        "#7E9CD8",
		Success:       "#98BB6C",
		Warning:       "#E6C384",
		Danger:        "#E46876",
	}
}

func slateTheme() Theme {
	// Tailwind slate and sky
	return Theme{
		Name:          "Slate",
		Background:    "#020617",
		Surface:       "#0f172a",
		SelectionBg:   "#0284c7",
		SelectionText: "#f8fafc",
		Text:          "#f1f5f9",
		Muted:         "#94a3b8",
		Faint:         "#64748b",
		Accent:        "#38bdf8",
		Success:       "#22c55e",
		Warning:       "#f59e0b",
		Danger:        "#ef4444",
	}
}
