package home

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/eduforge/internal/router"
	"github.com/abhisek/eduforge/internal/screens/compose"
	"github.com/abhisek/eduforge/internal/screens/history"
	"github.com/abhisek/eduforge/internal/store"
	"github.com/abhisek/eduforge/internal/ui/components"
	"github.com/abhisek/eduforge/internal/ui/layout"
	"github.com/abhisek/eduforge/internal/ui/theme"
)

// HomeScreen is the landing menu.
type HomeScreen struct {
	menu components.Menu
}

var _ router.Screen = (*HomeScreen)(nil)

// New builds the menu. History is disabled when runs is nil.
func New(runner compose.Runner, runs store.RunRepo) *HomeScreen {
	items := []components.MenuItem{
		{
			Label:  "Generate content",
			Action: func() tea.Cmd { return router.Push(compose.New(runner)) },
		},
		{
			Label:    "Run history",
			Disabled: runs == nil,
			Action: func() tea.Cmd {
				return router.Push(history.New(runs))
			},
		},
		{
			Label:  "Quit",
			Action: func() tea.Cmd { return tea.Quit },
		},
	}
	return &HomeScreen{menu: components.NewMenu(items)}
}

func (h *HomeScreen) Init() tea.Cmd { return nil }

func (h *HomeScreen) Title() string { return "Home" }

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("Grade-appropriate lessons, reviewed before you see them"))
	b.WriteString("\n")
	b.WriteString(theme.Hint.Render("Pick a grade and a topic; an explanation and three questions are generated,"))
	b.WriteString("\n")
	b.WriteString(theme.Hint.Render("checked by a reviewer, and refined once if the reviewer asks for changes."))
	b.WriteString("\n\n")
	b.WriteString(h.menu.View())

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, b.String())
}
