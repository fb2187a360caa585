// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	Quit key.Binding
	Help key.Binding
	Back key.Binding

	// Submit sends the typed question or query.
	Submit key.Binding

	Up   key.Binding
	Down key.Binding

	// Select opens the profiles of the highlighted float.
	Select key.Binding

	// NewQuery refocuses the input after a result is shown.
	NewQuery key.Binding

	// Context toggles the structured data behind an answer.
	Context key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "submit"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "profiles"),
		),
		NewQuery: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new query"),
		),
		Context: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "context"),
		),
	}
}

// ShortHelp returns the bindings shown while typing.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Back}
}

// ResultsHelp returns the bindings shown next to search results.
func (k *KeyMap) ResultsHelp() []key.Binding {
	return []key.Binding{k.NewQuery, k.Up, k.Select, k.Back}
}

// AnswerHelp returns the bindings shown next to an answer.
func (k *KeyMap) AnswerHelp() []key.Binding {
	return []key.Binding{k.NewQuery, k.Context, k.Back}
}

// FullHelp returns the full list of keybindings for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select},
		{k.Submit, k.NewQuery, k.Context},
		{k.Back, k.Help, k.Quit},
	}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
