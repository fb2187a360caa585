// Package menu provides the main navigation menu view for the TUI.
package menu

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/oceanai-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/oceanai-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
)

// Item represents a single menu option.
type Item struct {
	Label string
	View  messages.ViewType
	Quit  bool
}

// View represents the main menu view.
type View struct {
	styles   *styles.Styles
	items    []Item
	selected int
	stats    *domain.FloatStats
	width    int
	height   int
	ready    bool
}

// NewView creates a new menu view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &View{
		styles: s,
		items: []Item{
			{Label: "Ask a question", View: messages.ViewAsk},
			{Label: "Search floats", View: messages.ViewSearch},
			{Label: "Help", View: messages.ViewHelp},
			{Label: "Quit", Quit: true},
		},
		width:  80,
		height: 24,
	}
}

// Init initialises the menu view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.StatsLoaded:
		if msg.Err == nil {
			stats := msg.Stats
			v.stats = &stats
		}
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if v.selected > 0 {
				v.selected--
			}
		case "down", "j":
			if v.selected < len(v.items)-1 {
				v.selected++
			}
		case "enter":
			item := v.items[v.selected]
			if item.Quit {
				return v, tea.Quit
			}
			return v, func() tea.Msg {
				return messages.ViewChanged{View: item.View}
			}
		case "q":
			return v, tea.Quit
		}
	}

	return v, nil
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder

	b.WriteString(v.styles.Title.Render("OceanAI"))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Muted.Render("ARGO float explorer"))
	b.WriteString("\n")
	if v.stats != nil {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%d floats, %d profiles (%d in the last 24h)",
			v.stats.ActiveFloats, v.stats.TotalProfiles, v.stats.DailyProfiles)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for i, item := range v.items {
		if i == v.selected {
			b.WriteString("> " + v.styles.Subtitle.Render(item.Label))
		} else {
			b.WriteString("  " + v.styles.Normal.Render(item.Label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] Navigate  [Enter] Select  [q] Quit"))

	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Selected returns the currently selected index.
func (v *View) Selected() int {
	return v.selected
}

// Items returns the menu entries.
func (v *View) Items() []Item {
	return v.items
}
