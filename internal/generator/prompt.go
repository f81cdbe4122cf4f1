package generator

import (
	"fmt"
	"strings"

	"github.com/abhisek/eduforge/internal/content"
)

const systemPrompt = `You are an expert educational content creator.
Respond with a single valid JSON object only. No prose before or after it, no markdown code fences.`

// buildUserMessage composes the generation prompt for req. A non-empty
// feedback list adds the reviewer's points verbatim and asks for a full
// regeneration.
func buildUserMessage(req content.Request, guideline string, feedback []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Create educational content for Grade %d students on the topic: %q\n\n", req.Grade, req.Topic)
	fmt.Fprintf(&b, "Language guideline: %s\n\n", guideline)

	b.WriteString("Instructions:\n")
	b.WriteString("1. Write one explanation of the topic in 2-4 paragraphs suited to the grade.\n")
	fmt.Fprintf(&b, "2. Write exactly %d multiple-choice questions that test understanding of the explanation.\n", content.QuestionCount)
	fmt.Fprintf(&b, "3. Give every question exactly %d options, labelled A, B, C and D.\n", content.OptionCount)
	b.WriteString("4. Exactly one option per question is correct; give its letter as the answer.\n")
	b.WriteString("5. Keep every fact accurate and the wording appropriate for the grade.\n")

	if len(feedback) > 0 {
		b.WriteString("\nIMPORTANT - Address this feedback from the reviewer:\n")
		for _, f := range feedback {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\nPlease regenerate the content addressing ALL feedback points above.\n")
	}

	b.WriteString("\nRespond with JSON in exactly this format:\n")
	b.WriteString(outputFormat)

	return b.String()
}

const outputFormat = `{
  "explanation": "<explanation text>",
  "mcqs": [
    {
      "question": "<question text>",
      "options": ["A. <option>", "B. <option>", "C. <option>", "D. <option>"],
      "answer": "<A, B, C or D>"
    }
  ]
}`
