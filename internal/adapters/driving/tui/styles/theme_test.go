package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTheme_ColoursAreDistinct(t *testing.T) {
	theme := DefaultTheme()

	palette := []lipgloss.Color{
		theme.Primary,
		theme.Secondary,
		theme.Success,
		theme.Warning,
		theme.Error,
	}

	seen := make(map[lipgloss.Color]bool)
	for _, c := range palette {
		require.NotEmpty(t, string(c))
		assert.False(t, seen[c], "duplicate colour %s", c)
		seen[c] = true
	}
}

func TestNewStyles_NilTheme(t *testing.T) {
	s := NewStyles(nil)

	require.NotNil(t, s.Theme())
	assert.Equal(t, DefaultTheme().Primary, s.Theme().Primary)
}

func TestStyles_TitleIsBold(t *testing.T) {
	s := DefaultStyles()

	assert.True(t, s.Title.GetBold())
	assert.True(t, s.Subtitle.GetBold())
	assert.False(t, s.Normal.GetBold())
}

func TestStyles_AnswerHasLeftBorder(t *testing.T) {
	s := DefaultStyles()

	assert.True(t, s.Answer.GetBorderLeft())
	assert.False(t, s.Answer.GetBorderTop())
}

func TestStyles_CanRenderText(t *testing.T) {
	s := DefaultStyles()

	for name, style := range map[string]lipgloss.Style{
		"title":  s.Title,
		"muted":  s.Muted,
		"error":  s.Error,
		"answer": s.Answer,
	} {
		t.Run(name, func(t *testing.T) {
			assert.Contains(t, style.Render("float 1902672"), "float 1902672")
		})
	}
}
