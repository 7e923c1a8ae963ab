package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	choose   key.Binding
	skip     key.Binding
	back     key.Binding
	auto     key.Binding
	rerun    key.Binding
	generate key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		choose:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "choose")),
		skip:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "skip")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		auto:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "auto-select")),
		rerun:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rerun")),
		generate: key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "generate")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.choose, k.skip},
		{k.auto, k.rerun, k.generate},
		{k.back, k.quit},
	}
}
