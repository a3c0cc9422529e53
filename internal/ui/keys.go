package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds all key bindings for the application.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Sort      key.Binding
	Export    key.Binding
	Rescan    key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
	Help      key.Binding
	ToggleMap key.Binding

	// Panel switching
	PanelFiles    key.Binding
	PanelDirs     key.Binding
	PanelTypes    key.Binding
	PanelFiltered key.Binding

	// Deletion
	ToggleDelete key.Binding
	Delete       key.Binding
	ConfirmYes   key.Binding
	ConfirmNo    key.Binding

	// Filter builder
	AddMinSize    key.Binding
	AddMinAge     key.Binding
	AddMaxAge     key.Binding
	AddMaxResults key.Binding
	NextFilter    key.Binding
	PrevFilter    key.Binding
	Increase      key.Binding
	Decrease      key.Binding
	RemoveFilter  key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Sort: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "cycle sort"),
		),
		Export: key.NewBinding(
			key.WithKeys("E"),
			key.WithHelp("E", "export"),
		),
		Rescan: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rescan"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "force quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		ToggleMap: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "types map"),
		),
		PanelFiles: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "files"),
		),
		PanelDirs: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "directories"),
		),
		PanelTypes: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "types"),
		),
		PanelFiltered: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "filtered"),
		),
		ToggleDelete: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "allow delete"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		ConfirmYes: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "yes"),
		),
		ConfirmNo: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n/esc", "no"),
		),
		AddMinSize: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "add min-size"),
		),
		AddMinAge: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "add min-age"),
		),
		AddMaxAge: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "add max-age"),
		),
		AddMaxResults: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "add max-results"),
		),
		NextFilter: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("tab/→", "next filter"),
		),
		PrevFilter: key.NewBinding(
			key.WithKeys("shift+tab", "left", "h"),
			key.WithHelp("←", "previous filter"),
		),
		Increase: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "increase"),
		),
		Decrease: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "decrease"),
		),
		RemoveFilter: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "remove filter"),
		),
	}
}
