package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// demoLesson is the content the demo provider returns for every topic.
var demoLesson = map[string]any{
	"explanation": "This is demo content produced without a language model. " +
		"It lets you try the generate, review and history flows offline.\n\n" +
		"Pick a real provider and set its API key to get content written for your topic.",
	"mcqs": []map[string]any{
		{
			"question": "What produced this content?",
			"options":  []string{"A. A demo provider", "B. A teacher", "C. A textbook", "D. A search engine"},
			"answer":   "A",
		},
		{
			"question": "What do you need for real content?",
			"options":  []string{"A. A printer", "B. A provider API key", "C. A webcam", "D. Nothing"},
			"answer":   "B",
		},
		{
			"question": "How many questions come with each lesson?",
			"options":  []string{"A. One", "B. Two", "C. Three", "D. Ten"},
			"answer":   "C",
		},
	},
}

var demoVerdict = map[string]any{"status": "pass", "feedback": []string{}}

// NewDemoProvider returns a MockProvider scripted to answer any content
// request with a fixed lesson and any review request with a pass verdict.
// It backs the "mock" provider setting.
func NewDemoProvider() *MockProvider {
	return &MockProvider{Script: demoScript}
}

func demoScript(ctx context.Context, _ Request) MockResponse {
	body := demoLesson
	if strings.Contains(PurposeFrom(ctx), "review") {
		body = demoVerdict
	}
	b, err := json.Marshal(body)
	if err != nil {
		return MockResponse{Err: err}
	}
	out := len(b) / 4
	return MockResponse{Text: string(b), Usage: Usage{InputTokens: 1, OutputTokens: out, TotalTokens: out + 1}}
}
