package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Escape     key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding

	// Browse
	CycleCategory     key.Binding
	CycleCategoryBack key.Binding
	Search            key.Binding
	Copy              key.Binding
	Diagnostics       key.Binding
	Login             key.Binding

	// Admin
	NewCategory key.Binding
	NewEntry    key.Binding
	EditEntry   key.Binding
	DeleteEntry key.Binding

	// Navigation
	Up           key.Binding
	Down         key.Binding
	Top          key.Binding
	Bottom       key.Binding
	HalfPageUp   key.Binding
	HalfPageDown key.Binding

	// Diagnostics
	CycleLevel key.Binding
	Reload     key.Binding

	// Forms and confirmations
	Confirm key.Binding
	Yes     key.Binding
	No      key.Binding
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
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back / cancel"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next field"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous field"),
		),

		CycleCategory: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Next category"),
		),
		CycleCategoryBack: key.NewBinding(
			key.WithKeys("F"),
			key.WithHelp("F", "Previous category"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Search messages"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "Copy resolution"),
		),
		Diagnostics: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "Diagnostics log"),
		),
		Login: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Log in / out"),
		),

		NewCategory: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "New category"),
		),
		NewEntry: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "New entry"),
		),
		EditEntry: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "Edit entry"),
		),
		DeleteEntry: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Delete entry"),
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
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "Half page up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "Half page down"),
		),

		CycleLevel: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Cycle minimum level"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Reload"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
		Yes: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "Yes"),
		),
		No: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n", "No"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.CycleCategory, k.CycleCategoryBack, k.Search, k.Copy},
		{k.Login, k.NewCategory, k.NewEntry, k.EditEntry, k.DeleteEntry},
		{k.Diagnostics, k.CycleLevel, k.Reload},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
