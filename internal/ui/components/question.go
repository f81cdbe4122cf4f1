package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/eduforge/internal/content"
	"github.com/abhisek/eduforge/internal/ui/theme"
)

// RenderQuestion draws a numbered question with its options; the correct
// option is highlighted.
func RenderQuestion(n int, q content.Question, width int) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Width(width).
		Render(fmt.Sprintf("%d. %s", n, q.Question)))
	b.WriteString("\n")

	correct := q.AnswerIndex()
	for i, opt := range q.Options {
		line := "   " + opt
		if i == correct {
			b.WriteString(theme.Correct.Render(line + "  ✓"))
		} else {
			b.WriteString(theme.Unselected.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderContent draws an explanation followed by its questions.
func RenderContent(c content.Content, width int) string {
	var b strings.Builder
	b.WriteString(theme.Body.Width(width).Render(c.Explanation))
	b.WriteString("\n\n")
	for i, q := range c.Questions {
		b.WriteString(RenderQuestion(i+1, q, width))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderVerdict draws the review status badge and feedback list.
func RenderVerdict(v content.Verdict, width int) string {
	badge := theme.Fail.Render("FAIL")
	if v.Passed() {
		badge = theme.Pass.Render("PASS")
	}
	if len(v.Feedback) == 0 {
		return badge + "  " + theme.Hint.Render("no feedback")
	}

	var b strings.Builder
	b.WriteString(badge)
	b.WriteString("\n")
	for _, f := range v.Feedback {
		b.WriteString(theme.Body.Width(width).Render("  • " + f))
		b.WriteString("\n")
	}
	return b.String()
}
