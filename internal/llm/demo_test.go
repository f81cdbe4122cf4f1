package llm

import (
	"context"
	"encoding/json"
	"testing"
)

func TestDemoProvider(t *testing.T) {
	p := NewDemoProvider()

	for range 3 {
		resp, err := p.Generate(WithPurpose(context.Background(), "content-gen"), Request{})
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		var lesson struct {
			Explanation string            `json:"explanation"`
			MCQs        []json.RawMessage `json:"mcqs"`
		}
		if err := json.Unmarshal([]byte(resp.Text), &lesson); err != nil {
			t.Fatalf("lesson is not JSON: %v", err)
		}
		if lesson.Explanation == "" || len(lesson.MCQs) != 3 {
			t.Fatalf("unexpected lesson: %s", resp.Text)
		}
	}

	resp, err := p.Generate(WithPurpose(context.Background(), "content-review"), Request{})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if resp.Text != `{"feedback":[],"status":"pass"}` {
		t.Fatalf("unexpected verdict: %s", resp.Text)
	}
	if p.CallCount() != 4 {
		t.Fatalf("expected 4 calls, got %d", p.CallCount())
	}
}

func TestMockProvider_QueueBeforeScript(t *testing.T) {
	p := NewDemoProvider()
	p.AddResponse(MockResponse{Text: "queued"})

	resp, err := p.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "queued" {
		t.Fatalf("expected queued response first, got %q", resp.Text)
	}
}
