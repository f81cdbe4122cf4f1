package result

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/eduforge/internal/pipeline"
	"github.com/abhisek/eduforge/internal/router"
	"github.com/abhisek/eduforge/internal/ui/components"
	"github.com/abhisek/eduforge/internal/ui/layout"
	"github.com/abhisek/eduforge/internal/ui/theme"
)

// ResultScreen shows one run: initial content, verdict and the refined
// content when there is one.
type ResultScreen struct {
	res      *pipeline.Result
	runID    string
	vp       viewport.Model
	showJSON bool
	width    int

	// exportDir is where E writes the result; empty means the working
	// directory.
	exportDir string
	status    string
}

// exportedMsg reports the outcome of an export.
type exportedMsg struct {
	path string
	err  error
}

var _ router.Screen = (*ResultScreen)(nil)

func New(res *pipeline.Result, runID string) *ResultScreen {
	return &ResultScreen{
		res:   res,
		runID: runID,
		vp:    viewport.New(),
	}
}

func (s *ResultScreen) Init() tea.Cmd { return nil }

func (s *ResultScreen) Title() string {
	return strings.TrimSpace(s.res.Topic) + " · grade " + strconv.Itoa(s.res.Grade)
}

func (s *ResultScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "J", Description: "Toggle JSON"},
		{Key: "E", Description: "Export JSON"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *ResultScreen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "esc", "q":
			return s, router.Pop
		case "J", "ctrl+j":
			s.showJSON = !s.showJSON
			s.vp.SetContent(s.render(s.width))
			s.vp.GotoTop()
			return s, nil
		case "E", "e":
			return s, exportCmd(s.res, s.exportDir)
		}
	case exportedMsg:
		if msg.err != nil {
			s.status = theme.ErrorText.Render("export failed: " + msg.err.Error())
		} else {
			s.status = theme.Hint.Render("exported to " + msg.path)
		}
		s.vp.SetContent(s.render(s.width))
		return s, nil
	}

	var cmd tea.Cmd
	s.vp, cmd = s.vp.Update(msg)
	return s, cmd
}

func (s *ResultScreen) View(width, height int) string {
	if width != s.width {
		s.width = width
		s.vp.SetContent(s.render(width))
	}
	s.vp.SetWidth(width)
	s.vp.SetHeight(height)
	return s.vp.View()
}

func (s *ResultScreen) render(width int) string {
	w := max(width-4, 20)

	if s.showJSON {
		b, err := json.MarshalIndent(s.res, "", "  ")
		if err != nil {
			return theme.ErrorText.Render(err.Error())
		}
		return string(b)
	}

	var b strings.Builder
	if s.status != "" {
		b.WriteString(s.status)
		b.WriteString("\n")
	}
	if s.runID != "" {
		b.WriteString(theme.Hint.Render("run " + s.runID))
		b.WriteString("\n")
	}

	b.WriteString(theme.Section.Render("Initial content"))
	b.WriteString("\n")
	b.WriteString(components.RenderContent(s.res.InitialContent, w))

	b.WriteString(theme.Section.Render("Review"))
	b.WriteString("\n")
	b.WriteString(components.RenderVerdict(s.res.ReviewResult, w))
	b.WriteString("\n")

	if s.res.WasRefined && s.res.RefinedContent != nil {
		b.WriteString(theme.Section.Render("Refined content") + "  " + theme.Refined.Render("REFINED"))
		b.WriteString("\n")
		b.WriteString(components.RenderContent(*s.res.RefinedContent, w))
	}
	return b.String()
}

// ExportFileName names the export after the topic, keeping only characters
// that are safe in a file name.
func ExportFileName(topic string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			return r
		case unicode.IsSpace(r):
			return '_'
		}
		return -1
	}, strings.TrimSpace(topic))
	if name == "" {
		name = "untitled"
	}
	return "educational_content_" + name + ".json"
}

func exportCmd(res *pipeline.Result, dir string) tea.Cmd {
	return func() tea.Msg {
		b, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return exportedMsg{err: fmt.Errorf("encode result: %w", err)}
		}
		path := filepath.Join(dir, ExportFileName(res.Topic))
		if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
			return exportedMsg{err: err}
		}
		return exportedMsg{path: path}
	}
}
