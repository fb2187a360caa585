// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/oceanai-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
)

// MatchList displays nearest-float matches in a navigable list.
type MatchList struct {
	matches  []domain.FloatMatch
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewMatchList creates an empty match list.
func NewMatchList(s *styles.Styles) *MatchList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &MatchList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (l *MatchList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *MatchList) Update(msg tea.Msg) (*MatchList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the visible window of matches.
func (l *MatchList) View() string {
	if len(l.matches) == 0 {
		return l.styles.Muted.Render("No floats")
	}

	lines := make([]string, 0, len(l.matches)+2)
	header := l.styles.Subtitle.Render(fmt.Sprintf("Nearest floats (%d)", len(l.matches)))
	lines = append(lines, header, "")

	start, end := l.window()
	for i := start; i < end; i++ {
		lines = append(lines, l.renderMatch(i, l.matches[i]))
	}

	return strings.Join(lines, "\n")
}

// window returns the range of matches that fits the height and keeps the
// selection visible.
func (l *MatchList) window() (start, end int) {
	visible := l.height - 2
	if visible < 1 {
		visible = 1
	}
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end = start + visible
	if end > len(l.matches) {
		end = len(l.matches)
	}
	return start, end
}

func (l *MatchList) renderMatch(index int, m domain.FloatMatch) string {
	label := fmt.Sprintf("float %d", m.InstrumentID)
	distance := fmt.Sprintf("%.4f", m.Distance)

	if index == l.selected {
		return l.styles.Selected.Render(fmt.Sprintf("> %-20s %s", label, distance))
	}
	return l.styles.Normal.Render(fmt.Sprintf("  %-20s ", label)) + l.styles.Muted.Render(distance)
}

// SetMatches replaces the list contents and resets the selection.
func (l *MatchList) SetMatches(matches []domain.FloatMatch) {
	l.matches = matches
	l.selected = 0
}

// Matches returns the current matches.
func (l *MatchList) Matches() []domain.FloatMatch {
	return l.matches
}

// Selected returns the index of the selected match.
func (l *MatchList) Selected() int {
	return l.selected
}

// SelectedMatch returns the currently selected match, or nil if none.
func (l *MatchList) SelectedMatch() *domain.FloatMatch {
	if l.selected < 0 || l.selected >= len(l.matches) {
		return nil
	}
	return &l.matches[l.selected]
}

// MoveUp moves selection up.
func (l *MatchList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *MatchList) MoveDown() {
	if l.selected < len(l.matches)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *MatchList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of matches.
func (l *MatchList) Count() int {
	return len(l.matches)
}
