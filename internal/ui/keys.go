package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	ToggleLogs key.Binding
	Escape     key.Binding
	Confirm    key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Collection actions
	Add     key.Binding
	Delete  key.Binding
	Refresh key.Binding
	SignOut key.Binding

	// Forms
	NextField  key.Binding
	PrevField  key.Binding
	SwitchMode key.Binding
	Yes        key.Binding
	No         key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		ToggleLogs: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Toggle log pane"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Cancel"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),

		Add: key.NewBinding(
			key.WithKeys("a", "+"),
			key.WithHelp("a", "Add flavor"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "x", "delete"),
			key.WithHelp("d", "Delete flavor"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Reload"),
		),
		SignOut: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "Sign out"),
		),

		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "Next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "Previous field"),
		),
		SwitchMode: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "Sign in / sign up"),
		),
		Yes: key.NewBinding(
			key.WithKeys("y", "Y", "enter"),
			key.WithHelp("y", "Delete"),
		),
		No: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n", "Cancel"),
		),
	}
}

// FullHelp returns key bindings grouped for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Add, k.Delete, k.Refresh, k.SignOut},
		{k.ToggleLogs, k.CycleTheme, k.Help, k.Quit},
	}
}
