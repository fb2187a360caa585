// Package ask provides the question and answer view for the TUI.
package ask

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/oceanai-cli/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/oceanai-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/oceanai-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/oceanai-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/oceanai-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driving"
)

// ErrNoRetrievalService is reported when questions cannot be answered.
var ErrNoRetrievalService = errors.New("retrieval service is required")

// View lets the user ask a question and read the answer.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.Prompt
	statusbar *status.Bar

	retrieval driving.RetrievalService
	ctx       context.Context

	answer      *domain.Answer
	showContext bool

	width      int
	height     int
	ready      bool
	err        error
	focusInput bool
}

// NewView creates a new ask view.
func NewView(s *styles.Styles, km *keymap.KeyMap, retrieval driving.RetrievalService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewPrompt(s, "Ask", "What is the average temperature?"),
		statusbar:  status.NewBar(s, km),
		retrieval:  retrieval,
		ctx:        context.Background(),
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

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AskCompleted:
		answer := msg.Answer
		v.answer = &answer
		v.err = nil
		v.showContext = false
		v.statusbar.SetState(status.StateAnswer)
		v.statusbar.SetMessage(answer.Intent.Description())
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.focusInput = true
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, v.input.Focus()
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
			question := strings.TrimSpace(v.input.Value())
			if question == "" {
				return v, nil
			}
			v.focusInput = false
			v.input.Blur()
			v.statusbar.SetState(status.StateBusy)
			v.statusbar.SetMessage("Thinking...")
			return v, v.ask(question)
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case keymap.Matches(msg.String(), v.keymap.NewQuery):
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	case keymap.Matches(msg.String(), v.keymap.Context):
		v.showContext = !v.showContext
	}
	return v, nil
}

func (v *View) ask(question string) tea.Cmd {
	retrieval, ctx := v.retrieval, v.ctx
	return func() tea.Msg {
		if retrieval == nil {
			return messages.ErrorOccurred{Err: ErrNoRetrievalService}
		}
		return messages.AskCompleted{Answer: retrieval.Ask(ctx, question)}
	}
}

// View renders the ask view.
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

	if v.answer != nil {
		sections = append(sections, v.renderAnswer()...)
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderAnswer() []string {
	a := v.answer
	width := v.width - 4
	if width < 20 {
		width = 20
	}

	out := []string{v.styles.Answer.Width(width).Render(a.Text), ""}

	source := v.styles.Success.Render(string(a.Source))
	if a.Source == domain.AnswerFallback {
		source = v.styles.Warning.Render(string(a.Source))
	}
	meta := v.styles.Muted.Render(a.Intent.Description()+" | ") + source
	if a.Context != nil && a.Context.Demo {
		meta += v.styles.Warning.Render(" | sample data")
	}
	out = append(out, meta)

	if len(a.RelatedFloats) > 0 {
		ids := make([]string, len(a.RelatedFloats))
		for i, id := range a.RelatedFloats {
			ids[i] = strconv.FormatInt(id, 10)
		}
		out = append(out, v.styles.Muted.Render("Related floats: "+strings.Join(ids, ", ")))
	}

	if v.showContext && a.Context != nil {
		data, err := json.MarshalIndent(a.Context, "", "  ")
		if err != nil {
			data = []byte(fmt.Sprintf("context unavailable: %v", err))
		}
		out = append(out, "", v.styles.Border.Render(string(data)))
	}
	return out
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
}

// Question returns the current question text.
func (v *View) Question() string {
	return v.input.Value()
}

// Answer returns the last answer, or nil.
func (v *View) Answer() *domain.Answer {
	return v.answer
}

// ContextShown reports whether the structured context is displayed.
func (v *View) ContextShown() bool {
	return v.showContext
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
	v.answer = nil
	v.showContext = false
	v.err = nil
	v.statusbar.Clear()
}
