package cliapp

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit    key.Binding
	ZoomIn  key.Binding
	ZoomOut key.Binding
	Help    key.Binding
	Reset   key.Binding
	Click   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		ZoomIn: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "zoom in"),
		),
		ZoomOut: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "zoom out"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		// Reset is documentation only: every unbound key resets the view.
		Reset: key.NewBinding(
			key.WithKeys("any"),
			key.WithHelp("any key", "back to root"),
		),
		Click: key.NewBinding(
			key.WithKeys("click"),
			key.WithHelp("click", "drill into crate"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Click, k.Reset, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Click, k.Reset},
		{k.ZoomIn, k.ZoomOut},
		{k.Help, k.Quit},
	}
}
