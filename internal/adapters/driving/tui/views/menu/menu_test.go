package menu

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/oceanai-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
)

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestNewView(t *testing.T) {
	v := NewView(nil)

	require.Len(t, v.Items(), 4)
	assert.Equal(t, messages.ViewAsk, v.Items()[0].View)
	assert.Equal(t, messages.ViewSearch, v.Items()[1].View)
	assert.True(t, v.Items()[3].Quit)
	assert.Equal(t, "Initialising...", v.View())
}

func TestView_Navigation(t *testing.T) {
	v := NewView(nil)

	v, _ = v.Update(keyRune('k'))
	assert.Equal(t, 0, v.Selected())

	v, _ = v.Update(keyRune('j'))
	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})
	v, _ = v.Update(keyRune('j'))
	v, _ = v.Update(keyRune('j'))
	assert.Equal(t, 3, v.Selected())

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 2, v.Selected())
}

func TestView_EnterChangesView(t *testing.T) {
	v := NewView(nil)
	v, _ = v.Update(keyRune('j'))

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	assert.Equal(t, messages.ViewChanged{View: messages.ViewSearch}, cmd())
}

func TestView_Quit(t *testing.T) {
	v := NewView(nil)

	_, cmd := v.Update(keyRune('q'))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestView_ShowsStats(t *testing.T) {
	v := NewView(nil)
	v.SetDimensions(80, 24)
	assert.NotContains(t, v.View(), "profiles")

	v, _ = v.Update(messages.StatsLoaded{Err: errors.New("store down")})
	assert.NotContains(t, v.View(), "profiles")

	v, _ = v.Update(messages.StatsLoaded{Stats: domain.FloatStats{ActiveFloats: 2, DailyProfiles: 1, TotalProfiles: 9}})
	view := v.View()
	assert.Contains(t, view, "OceanAI")
	assert.Contains(t, view, "2 floats, 9 profiles (1 in the last 24h)")
	assert.Contains(t, view, "> ")
}
