package reviewer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/eduforge/internal/content"
	"github.com/abhisek/eduforge/internal/generator"
)

const systemPrompt = `You are a strict reviewer of educational content for school students.
Respond with a single valid JSON object only. No prose before or after it, no markdown code fences.`

// buildUserMessage composes the evaluation prompt. The content under review
// is embedded as indented JSON so the model sees exactly what will be shown.
func buildUserMessage(c content.Content, grade int, topic string) (string, error) {
	body, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode content for review: %w", err)
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Review the following educational content for Grade %d students on the topic: %q\n\n", grade, topic)

	if guideline, err := generator.GuidelineFor(grade); err == nil {
		fmt.Fprintf(&b, "Expected language level: %s\n\n", guideline)
	}

	b.WriteString("Content:\n")
	b.Write(body)
	b.WriteString("\n\n")

	b.WriteString("Evaluate it against these criteria:\n")
	b.WriteString("1. Age appropriateness: vocabulary and sentence complexity suit the grade.\n")
	b.WriteString("2. Correctness: every fact in the explanation and every answer key is accurate.\n")
	fmt.Fprintf(&b, "3. Completeness: exactly %d questions, each with exactly %d options and exactly one unambiguous correct answer.\n",
		content.QuestionCount, content.OptionCount)
	b.WriteString("4. Clarity: the explanation and questions are clear and test the explained material.\n\n")

	b.WriteString(`Set "status" to "pass" if every criterion is met, otherwise "fail".` + "\n")
	b.WriteString(`When failing, list concrete, actionable fixes in "feedback" (for example "Q2 has two correct options"). When passing, "feedback" must be an empty list.` + "\n\n")

	b.WriteString("Respond with JSON in exactly this format:\n")
	b.WriteString(`{"status": "pass" or "fail", "feedback": ["<actionable fix>", ...]}`)

	return b.String(), nil
}
