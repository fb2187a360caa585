// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
)

// AskCompleted carries the answer to a question back to the model.
type AskCompleted struct {
	Answer domain.Answer
}

// SearchCompleted carries nearest-float matches back to the model.
type SearchCompleted struct {
	Query   string
	Matches []domain.FloatMatch
	Err     error
}

// ProfilesLoaded carries the profiles of one float.
type ProfilesLoaded struct {
	FloatID  int64
	Profiles []domain.Profile
	Err      error
}

// StatsLoaded carries the float and profile counts shown on the menu.
type StatsLoaded struct {
	Stats domain.FloatStats
	Err   error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewAsk is the question and answer view.
	ViewAsk
	// ViewSearch is the float similarity search view.
	ViewSearch
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewAsk:
		return "ask"
	case ViewSearch:
		return "search"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
