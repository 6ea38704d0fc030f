package ui

import (
	"fmt"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/scoop/internal/flavor"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// addModal collects a new flavor name. It stays open until the add succeeds.
type addModal struct {
	input textinput.Model
}

func newAddModal() *addModal {
	in := textinput.New()
	in.Placeholder = "Enter ice cream flavor..."
	in.CharLimit = flavor.MaxNameLength
	in.Focus()
	return &addModal{input: in}
}

func (a *addModal) focusCmd() tea.Cmd {
	return textinput.Blink
}

func (a *addModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(k, keys.Escape):
			return a, nil, true
		case key.Matches(k, keys.Confirm):
			name := a.input.Value()
			return a, func() tea.Msg { return addRequestMsg{name: name} }, false
		}
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd, false
}

func (a *addModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	count := fmt.Sprintf("%d/%d characters", utf8.RuneCountInString(a.input.Value()), flavor.MaxNameLength)
	body := lipgloss.JoinVertical(lipgloss.Left,
		styles.Text.Bold(true).Render("Add New Ice Cream Flavor"),
		"",
		a.input.View(),
		styles.FaintText.Render(count),
		"",
		styles.MutedText.Render("enter add · esc cancel"),
	)
	return placeModal(theme, width, height, 50, body)
}

// confirmModal asks before removing an item.
type confirmModal struct {
	item flavor.Item
}

func newConfirmModal(item flavor.Item) *confirmModal {
	return &confirmModal{item: item}
}

func (c *confirmModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil, false
	}
	switch {
	case key.Matches(k, keys.Yes):
		id := c.item.ID
		return c, func() tea.Msg { return removeRequestMsg{id: id} }, true
	case key.Matches(k, keys.No):
		return c, nil, true
	}
	return c, nil, false
}

func (c *confirmModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	body := lipgloss.JoinVertical(lipgloss.Left,
		styles.DangerText.Render("Delete Ice Cream"),
		"",
		styles.Text.Render(fmt.Sprintf("Are you sure you want to delete %q?", c.item.Name)),
		"",
		styles.MutedText.Render("y delete · n cancel"),
	)
	return placeModal(theme, width, height, 50, body)
}

// placeModal centers a bordered box on the screen.
func placeModal(theme Theme, width, height, boxWidth int, content string) string {
	if width > 0 && boxWidth > width-4 {
		boxWidth = maxInt(width-4, 20)
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2).
		Width(boxWidth).
		Render(content)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
