package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/abhisek/eduforge/internal/content"
	"github.com/abhisek/eduforge/internal/generator"
	"github.com/abhisek/eduforge/internal/llm"
	"github.com/abhisek/eduforge/internal/reviewer"
	"github.com/abhisek/eduforge/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecorder_PersistsSuccess(t *testing.T) {
	s := openStore(t)
	p, _ := newMockPipeline(
		llm.MockResponse{Text: contentJSON("Initial")},
		llm.MockResponse{Text: `{"status": "fail", "feedback": ["simplify Q3"]}`},
		llm.MockResponse{Text: contentJSON("Refined")},
	)
	rec := &Recorder{Pipeline: p, Repo: s.RunRepo()}

	id, res, err := rec.Run(context.Background(), 7, "Fractions")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatal("expected a run ID")
	}

	got, err := s.RunRepo().GetRun(context.Background(), id)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.Status != "fail" || !got.WasRefined || got.Grade != 7 || got.Topic != "Fractions" {
		t.Fatalf("unexpected stored run: %+v", got.RunData)
	}

	var stored Result
	if err := json.Unmarshal(got.Result, &stored); err != nil {
		t.Fatalf("decode stored result: %v", err)
	}
	if stored.RefinedContent == nil || stored.RefinedContent.Explanation != res.RefinedContent.Explanation {
		t.Fatal("stored result does not match returned result")
	}
}

func TestRecorder_PersistsFailure(t *testing.T) {
	s := openStore(t)
	p, _ := newMockPipeline(llm.MockResponse{Text: "I cannot help with that."})
	rec := &Recorder{Pipeline: p, Repo: s.RunRepo()}

	id, res, err := rec.Run(context.Background(), 3, "Plants")
	if res != nil || err == nil {
		t.Fatal("expected failure with no result")
	}
	var perr *content.GenerationParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected GenerationParseError, got %T", err)
	}

	got, err := s.RunRepo().GetRun(context.Background(), id)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.Status != OutcomeError || got.ErrorKind != string(content.KindGenerationParseError) {
		t.Fatalf("unexpected stored run: %+v", got.RunData)
	}

	var raw map[string]string
	if err := json.Unmarshal(got.Result, &raw); err != nil {
		t.Fatalf("decode raw: %v", err)
	}
	if raw["raw_response"] != "I cannot help with that." {
		t.Fatalf("raw response not kept: %q", raw["raw_response"])
	}
}

func TestRecorder_NoRepo(t *testing.T) {
	p, _ := newMockPipeline(
		llm.MockResponse{Text: contentJSON("x")},
		llm.MockResponse{Text: `{"status": "pass", "feedback": []}`},
	)
	rec := &Recorder{Pipeline: p}

	id, res, err := rec.Run(context.Background(), 1, "Colors")
	if err != nil || res == nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "" {
		t.Fatalf("expected empty ID without a repository, got %q", id)
	}
}

func TestRecorder_TagsProviderCalls(t *testing.T) {
	s := openStore(t)
	mock := llm.NewMockProvider(
		llm.MockResponse{Text: contentJSON("Initial")},
		llm.MockResponse{Text: `{"status": "fail", "feedback": ["shorter sentences"]}`},
		llm.MockResponse{Text: contentJSON("Refined")},
	)
	logged := llm.WithLogging(mock, "mock", s.EventRepo(), nil)
	p := New(
		generator.New(logged, generator.DefaultConfig()),
		reviewer.New(logged, reviewer.DefaultConfig()),
	)
	rec := &Recorder{Pipeline: p, Repo: s.RunRepo()}

	id, _, err := rec.Run(context.Background(), 5, "Magnets")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events, err := s.EventRepo().QueryLLMEvents(context.Background(), store.QueryOpts{RunID: id})
	if err != nil {
		t.Fatalf("query events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events for run %s, got %d", id, len(events))
	}
	want := []string{generator.PurposeRefine, reviewer.PurposeReview, generator.PurposeGenerate}
	for i, e := range events {
		if e.Purpose != want[i] {
			t.Errorf("event %d purpose = %q, want %q", i, e.Purpose, want[i])
		}
	}
}
