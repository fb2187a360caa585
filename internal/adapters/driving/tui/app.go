package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/oceanai-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/oceanai-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/oceanai-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/oceanai-cli/internal/adapters/driving/tui/views/ask"
	"github.com/custodia-labs/oceanai-cli/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/oceanai-cli/internal/adapters/driving/tui/views/search"
)

// App is the main TUI application following the Elm architecture.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles

	menuView   *menu.View
	askView    *ask.View
	searchView *search.View

	currentView messages.ViewType
	err         error

	width  int
	height int
	ready  bool
}

var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		menuView:    menu.NewView(s),
		askView:     ask.NewView(s, km, ports.Retrieval),
		searchView:  search.NewView(s, km, ports.Search, ports.Floats),
		currentView: messages.ViewMenu,
	}, nil
}

// WithContext sets the context passed to service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.askView.WithContext(ctx)
	a.searchView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("oceanai"),
		a.loadStats(),
	)
}

func (a *App) loadStats() tea.Cmd {
	floats, ctx := a.ports.Floats, a.ctx
	if floats == nil {
		return nil
	}
	return func() tea.Msg {
		stats, err := floats.Stats(ctx)
		return messages.StatsLoaded{Stats: stats, Err: err}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a.forward(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewAsk:
			a.askView.Reset()
			return a, a.askView.Init()
		case messages.ViewSearch:
			a.searchView.Reset()
			return a, a.searchView.Init()
		case messages.ViewMenu:
			return a, a.loadStats()
		case messages.ViewHelp:
		}
		return a, nil

	case messages.StatsLoaded:
		a.menuView, cmd = a.menuView.Update(msg)
		return a, cmd

	case messages.AskCompleted:
		a.askView, cmd = a.askView.Update(msg)
		return a, cmd

	case messages.SearchCompleted, messages.ProfilesLoaded:
		a.searchView, cmd = a.searchView.Update(msg)
		a.err = a.searchView.Err()
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a.forward(msg)

	case messages.Quit:
		return a, tea.Quit
	}

	return a.forward(msg)
}

// forward passes msg to the active view.
func (a *App) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewAsk:
		a.askView, cmd = a.askView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewHelp:
		if key, ok := msg.(tea.KeyMsg); ok && (key.Type == tea.KeyEsc || key.String() == "q") {
			a.currentView = messages.ViewMenu
		}
	}
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewAsk:
		return a.askView.View()
	case messages.ViewSearch:
		return a.searchView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

func (a *App) viewHelp() string {
	return a.styles.Title.Render("Help") + `

Menu:
  j/k, ↑/↓    Navigate options
  enter       Select option
  q           Quit

Ask:
  (type)      Enter a question
  enter       Submit
  c           Show the data behind the answer
  n           New question

Search floats:
  (type)      Describe a float or region
  enter       Search, then open the selected float's profiles
  j/k, ↑/↓    Navigate results
  n           New search

Anywhere:
  esc         Back to menu
  ctrl+c      Quit

` + a.styles.Help.Render("[esc] back to menu")
}

// Run starts the TUI and blocks until it exits.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the active view.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.askView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
}
