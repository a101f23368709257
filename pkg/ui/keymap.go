package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the browse-mode key bindings. Quick annotation keys come from
// the configuration and are handled separately.
type KeyMap struct {
	Quit        key.Binding
	Help        key.Binding
	Open        key.Binding
	Save        key.Binding
	ToggleMode  key.Binding
	Forward     key.Binding
	Backward    key.Binding
	Grow        key.Binding
	Shrink      key.Binding
	Goto        key.Binding
	Annotate    key.Binding
	RemoveLabel key.Binding
	Note        key.Binding
	MarkValid   key.Binding
	MarkInvalid key.Binding
	Chart       key.Binding
}

// DefaultKeyMap returns the browse-mode bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Open:        key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open file")),
		Save:        key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		ToggleMode:  key.NewBinding(key.WithKeys("tab", "m"), key.WithHelp("tab", "sensors/gps")),
		Forward:     key.NewBinding(key.WithKeys("right", "f"), key.WithHelp("→", "step forward")),
		Backward:    key.NewBinding(key.WithKeys("left", "b"), key.WithHelp("←", "step back")),
		Grow:        key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "grow window")),
		Shrink:      key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "shrink window")),
		Goto:        key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "goto fraction")),
		Annotate:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "annotate")),
		RemoveLabel: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove label")),
		Note:        key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "add note")),
		MarkValid:   key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "mark valid")),
		MarkInvalid: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "mark invalid")),
		Chart:       key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "render chart")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Forward, k.Backward, k.Grow, k.Shrink, k.ToggleMode, k.Save, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Forward, k.Backward, k.Grow, k.Shrink, k.Goto},
		{k.Annotate, k.RemoveLabel, k.Note, k.MarkValid, k.MarkInvalid},
		{k.Open, k.Save, k.ToggleMode, k.Chart, k.Help, k.Quit},
	}
}
