package app

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/eduforge/internal/router"
	"github.com/abhisek/eduforge/internal/screens/compose"
	"github.com/abhisek/eduforge/internal/screens/home"
	"github.com/abhisek/eduforge/internal/store"
	"github.com/abhisek/eduforge/internal/ui/layout"
)

// Options carries what the screens need.
type Options struct {
	Runner compose.Runner
	Runs   store.RunRepo // nil disables history
	Status string        // shown at the right of the header, e.g. provider/model
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	status string
	width  int
	height int
}

func newAppModel(opts Options) AppModel {
	return AppModel{
		router: router.New(home.New(opts.Runner, opts.Runs)),
		status: opts.Status,
	}
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	return m, m.router.Update(msg)
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	header := layout.RenderHeader(active.Title(), m.status, m.width)
	footer := layout.RenderFooter(hintsFor(active, m.router.Depth()), m.width)

	body := m.router.View(m.width, layout.BodyHeight(m.height))
	v.SetContent(layout.RenderFrame(header, body, footer, m.width, m.height))
	return v
}

func hintsFor(s router.Screen, depth int) []layout.KeyHint {
	if p, ok := s.(router.KeyHintProvider); ok {
		return p.KeyHints()
	}
	if depth > 1 {
		return []layout.KeyHint{{Key: "Esc", Description: "Back"}, {Key: "Ctrl+C", Description: "Quit"}}
	}
	return []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
}

// Run starts the program and blocks until the user quits.
func Run(opts Options) error {
	_, err := tea.NewProgram(newAppModel(opts)).Run()
	return err
}
