// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/oceanai-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/oceanai-cli/internal/adapters/driving/tui/styles"
)

// State represents the current view state for display.
type State string

const (
	StateReady   State = "ready"
	StateBusy    State = "busy"
	StateError   State = "error"
	StateResults State = "results"
	StateAnswer  State = "answer"
)

// Bar displays view status and keybinding hints.
type Bar struct {
	styles      *styles.Styles
	keymap      *keymap.KeyMap
	state       State
	message     string
	resultCount int
	width       int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	// The bar style pads one cell on each side.
	padding := s.width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

// Update is a no-op; the bar is driven through its setters.
func (s *Bar) Update(_ tea.Msg) (*Bar, tea.Cmd) {
	return s, nil
}

func (s *Bar) renderLeft() string {
	switch s.state {
	case StateBusy:
		if s.message != "" {
			return s.styles.Muted.Render(s.message)
		}
		return s.styles.Muted.Render("Working...")
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render("Error: " + s.message)
		}
		return s.styles.Error.Render("Error")
	case StateResults:
		if s.resultCount == 1 {
			return s.styles.Normal.Render("1 float")
		}
		return s.styles.Normal.Render(fmt.Sprintf("%d floats", s.resultCount))
	case StateAnswer:
		if s.message != "" {
			return s.styles.Normal.Render(s.message)
		}
	case StateReady:
	}
	return s.styles.Muted.Render("Ready")
}

func (s *Bar) renderRight() string {
	var bindings []key.Binding
	switch {
	case s.state == StateResults && s.resultCount > 0:
		bindings = s.keymap.ResultsHelp()
	case s.state == StateAnswer:
		bindings = s.keymap.AnswerHelp()
	default:
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets the text shown for busy, error and answer states.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetResultCount sets the number of floats shown.
func (s *Bar) SetResultCount(count int) {
	s.resultCount = count
}

// ResultCount returns the current result count.
func (s *Bar) ResultCount() int {
	return s.resultCount
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Clear resets the status bar to default state.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.resultCount = 0
}
