// Package search provides the float similarity search view for the TUI.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/oceanai-cli/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/oceanai-cli/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/oceanai-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/oceanai-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/oceanai-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/oceanai-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driving"
)

// DefaultLimit is the number of nearest floats requested per query.
const DefaultLimit = 10

// maxProfileLines bounds the profile panel.
const maxProfileLines = 8

// View shows a query input, the nearest floats and the profiles of the
// selected float.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.Prompt
	list      *list.MatchList
	statusbar *status.Bar

	search driving.VectorSearchService
	floats driving.FloatService
	ctx    context.Context
	limit  int

	profilesFor int64
	profiles    []domain.Profile

	width      int
	height     int
	ready      bool
	err        error
	focusInput bool
}

// NewView creates a new search view. search may be nil when no index has been
// built; floats may be nil to disable the profile panel.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	search driving.VectorSearchService,
	floats driving.FloatService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewPrompt(s, "Search", "warm water near the equator, float 1902672..."),
		list:       list.NewMatchList(s),
		statusbar:  status.NewBar(s, km),
		search:     search,
		floats:     floats,
		ctx:        context.Background(),
		limit:      DefaultLimit,
		width:      80,
		height:     24,
		focusInput: true,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SearchCompleted:
		v.handleSearchCompleted(msg)
		return v, nil

	case messages.ProfilesLoaded:
		v.handleProfilesLoaded(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			query := strings.TrimSpace(v.input.Value())
			if query == "" {
				return v, nil
			}
			v.focusInput = false
			v.input.Blur()
			v.statusbar.SetState(status.StateBusy)
			v.statusbar.SetMessage("Searching...")
			return v, v.performSearch(query)
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case msg.Type == tea.KeyEnter:
		return v, v.loadSelectedProfiles()
	case keymap.Matches(msg.String(), v.keymap.NewQuery):
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	default:
		v.list, _ = v.list.Update(msg)
		return v, nil
	}
}

func (v *View) performSearch(query string) tea.Cmd {
	search, ctx, limit := v.search, v.ctx, v.limit
	return func() tea.Msg {
		if search == nil {
			return messages.ErrorOccurred{Err: ErrIndexNotLoaded}
		}
		return messages.SearchCompleted{Query: query, Matches: search.Nearest(ctx, query, limit)}
	}
}

func (v *View) loadSelectedProfiles() tea.Cmd {
	match := v.list.SelectedMatch()
	if match == nil || v.floats == nil {
		return nil
	}
	id := match.InstrumentID
	floats, ctx := v.floats, v.ctx

	v.statusbar.SetState(status.StateBusy)
	v.statusbar.SetMessage(fmt.Sprintf("Loading float %d...", id))
	return func() tea.Msg {
		profiles, err := floats.Profiles(ctx, id)
		return messages.ProfilesLoaded{FloatID: id, Profiles: profiles, Err: err}
	}
}

func (v *View) handleSearchCompleted(msg messages.SearchCompleted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.err = nil
	v.profiles, v.profilesFor = nil, 0
	v.list.SetMatches(msg.Matches)
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetResultCount(len(msg.Matches))
	v.focusInput = false
	v.input.Blur()
}

func (v *View) handleProfilesLoaded(msg messages.ProfilesLoaded) {
	if msg.Err != nil {
		v.setError(fmt.Errorf("float %d: %w", msg.FloatID, msg.Err))
		return
	}

	v.err = nil
	v.profilesFor = msg.FloatID
	v.profiles = msg.Profiles
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetResultCount(v.list.Count())
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// View renders the search view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := []string{
		v.styles.Title.Render("OceanAI"), "",
		v.input.View(), "",
	}

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	sections = append(sections, v.list.View())

	if v.profilesFor != 0 {
		sections = append(sections, "", v.renderProfiles())
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderProfiles() string {
	lines := []string{
		v.styles.Subtitle.Render(fmt.Sprintf("Float %d: %d profiles", v.profilesFor, len(v.profiles))),
	}

	for i := range v.profiles {
		if i == maxProfileLines {
			lines = append(lines, v.styles.Muted.Render(fmt.Sprintf("  ... %d more", len(v.profiles)-i)))
			break
		}
		p := &v.profiles[i]
		cycle := "?"
		if p.CycleNumber != domain.UnknownCycle {
			cycle = fmt.Sprint(p.CycleNumber)
		}
		lines = append(lines, v.styles.Normal.Render(fmt.Sprintf("  cycle %-4s %s  (%.2f, %.2f)  %d levels",
			cycle, p.Timestamp.UTC().Format(time.DateOnly), p.Latitude, p.Longitude, p.Levels())))
	}

	return strings.Join(lines, "\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	// Header, input, status bar and the profile panel.
	v.list.SetDimensions(width, height-10-maxProfileLines)
	v.statusbar.SetWidth(width)
}

// Query returns the current query text.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the query text.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}

// Matches returns the current matches.
func (v *View) Matches() []domain.FloatMatch {
	return v.list.Matches()
}

// SelectedIndex returns the index of the selected match.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// Profiles returns the float whose profiles are shown and the profiles.
func (v *View) Profiles() (int64, []domain.Profile) {
	return v.profilesFor, v.profiles
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Reset returns the view to an empty, focused input.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.list.SetMatches(nil)
	v.profiles, v.profilesFor = nil, 0
	v.err = nil
	v.statusbar.Clear()
}
