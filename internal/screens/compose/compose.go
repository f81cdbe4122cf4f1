package compose

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/eduforge/internal/content"
	"github.com/abhisek/eduforge/internal/pipeline"
	"github.com/abhisek/eduforge/internal/router"
	"github.com/abhisek/eduforge/internal/screens/result"
	"github.com/abhisek/eduforge/internal/ui/components"
	"github.com/abhisek/eduforge/internal/ui/layout"
	"github.com/abhisek/eduforge/internal/ui/theme"
)

// Runner executes one pipeline run; *pipeline.Recorder satisfies it.
type Runner interface {
	Run(ctx context.Context, grade int, topic string) (string, *pipeline.Result, error)
}

type runDoneMsg struct {
	ID     string
	Result *pipeline.Result
	Err    error
}

const (
	focusGrade = iota
	focusTopic
	focusSubmit
	focusCount
)

// ComposeScreen collects a grade and topic and runs the pipeline.
type ComposeScreen struct {
	runner  Runner
	grade   components.TextInput
	topic   components.TextInput
	submit  components.Button
	focus   int
	spinner spinner.Model
	running bool
	cancel  context.CancelFunc
	errMsg  string
}

var _ router.Screen = (*ComposeScreen)(nil)

func New(runner Runner) *ComposeScreen {
	return &ComposeScreen{
		runner:  runner,
		grade:   components.NewTextInput("Grade (1-12)", "4", true, 2),
		topic:   components.NewTextInput("Topic", "Photosynthesis", false, 120),
		submit:  components.NewButton("Generate"),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(theme.Selected)),
	}
}

func (c *ComposeScreen) Init() tea.Cmd {
	return c.grade.Focus()
}

func (c *ComposeScreen) Title() string { return "New content" }

func (c *ComposeScreen) KeyHints() []layout.KeyHint {
	if c.running {
		return []layout.KeyHint{{Key: "Esc", Description: "Cancel"}}
	}
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Generate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (c *ComposeScreen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case runDoneMsg:
		return c, c.handleDone(msg)

	case spinner.TickMsg:
		if !c.running {
			return c, nil
		}
		var cmd tea.Cmd
		c.spinner, cmd = c.spinner.Update(msg)
		return c, cmd

	case tea.KeyPressMsg:
		if c.running {
			if msg.String() == "esc" && c.cancel != nil {
				c.cancel()
			}
			return c, nil
		}
		switch msg.String() {
		case "esc":
			return c, router.Pop
		case "tab", "down":
			return c, c.setFocus((c.focus + 1) % focusCount)
		case "shift+tab", "up":
			return c, c.setFocus((c.focus + focusCount - 1) % focusCount)
		case "enter":
			if c.focus == focusGrade {
				return c, c.setFocus(focusTopic)
			}
			return c, c.start()
		}
	}

	var cmd tea.Cmd
	switch c.focus {
	case focusGrade:
		c.grade, cmd = c.grade.Update(msg)
	case focusTopic:
		c.topic, cmd = c.topic.Update(msg)
	}
	return c, cmd
}

func (c *ComposeScreen) setFocus(f int) tea.Cmd {
	c.focus = f
	c.grade.Blur()
	c.topic.Blur()
	c.submit.Active = f == focusSubmit
	switch f {
	case focusGrade:
		return c.grade.Focus()
	case focusTopic:
		return c.topic.Focus()
	}
	return nil
}

// start validates locally so obvious mistakes never reach the provider.
func (c *ComposeScreen) start() tea.Cmd {
	c.errMsg = ""
	c.grade.Err, c.topic.Err = "", ""

	grade, err := c.grade.NumericValue()
	if err != nil {
		grade = 0
	}
	req := content.Request{Grade: grade, Topic: strings.TrimSpace(c.topic.Value())}
	if err := req.Validate(); err != nil {
		var inv *content.InvalidInputError
		if errors.As(err, &inv) && inv.Field == "topic" {
			c.topic.Err = err.Error()
			return c.setFocus(focusTopic)
		}
		c.grade.Err = err.Error()
		return c.setFocus(focusGrade)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.running = true

	run := func() tea.Msg {
		defer cancel()
		id, res, err := c.runner.Run(ctx, req.Grade, req.Topic)
		return runDoneMsg{ID: id, Result: res, Err: err}
	}
	return tea.Batch(run, c.spinner.Tick)
}

func (c *ComposeScreen) handleDone(msg runDoneMsg) tea.Cmd {
	c.running = false
	c.cancel = nil
	if msg.Err != nil {
		if errors.Is(msg.Err, context.Canceled) || content.Kind(msg.Err) == content.KindTimeout {
			c.errMsg = "Run cancelled or timed out."
		} else {
			c.errMsg = fmt.Sprintf("%s: %v", content.Kind(msg.Err), msg.Err)
		}
		return nil
	}
	return router.Push(result.New(msg.Result, msg.ID))
}

func (c *ComposeScreen) View(width, height int) string {
	formWidth := min(width-4, 60)

	var b strings.Builder
	b.WriteString(c.grade.View())
	b.WriteString("\n\n")
	b.WriteString(c.topic.View())
	b.WriteString("\n\n")

	if c.running {
		b.WriteString(c.spinner.View() + " " + theme.Hint.Render("Generating, reviewing and refining if needed..."))
	} else {
		b.WriteString(c.submit.View())
	}
	if c.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(theme.ErrorText.Width(formWidth).Render(c.errMsg))
	}

	card := theme.Card.Width(formWidth).Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}
