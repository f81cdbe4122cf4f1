package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/abhisek/eduforge/internal/content"
	"github.com/abhisek/eduforge/internal/generator"
	"github.com/abhisek/eduforge/internal/llm"
	"github.com/abhisek/eduforge/internal/observability"
	"github.com/abhisek/eduforge/internal/reviewer"
)

func contentJSON(label string) string {
	return fmt.Sprintf(`{"explanation": "%s explanation.", "mcqs": [
		{"question": "%s Q1", "options": ["A. a", "B. b", "C. c", "D. d"], "answer": "A"},
		{"question": "%s Q2", "options": ["A. a", "B. b", "C. c", "D. d"], "answer": "B"},
		{"question": "%s Q3", "options": ["A. a", "B. b", "C. c", "D. d"], "answer": "C"}
	]}`, label, label, label, label)
}

// newMockPipeline wires the real generator and reviewer to one shared mock
// provider, so responses are consumed in call order.
func newMockPipeline(responses ...llm.MockResponse) (*Pipeline, *llm.MockProvider) {
	mock := llm.NewMockProvider(responses...)
	p := New(
		generator.New(mock, generator.DefaultConfig()),
		reviewer.New(mock, reviewer.DefaultConfig()),
	)
	return p, mock
}

func TestScenarioA_PassNoRefinement(t *testing.T) {
	p, mock := newMockPipeline(
		llm.MockResponse{Text: contentJSON("Photosynthesis")},
		llm.MockResponse{Text: `{"status": "pass", "feedback": []}`},
	)

	res, err := p.Run(context.Background(), 4, "Photosynthesis")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.WasRefined {
		t.Fatal("expected no refinement")
	}
	if res.RefinedContent != nil {
		t.Fatal("expected nil refined content")
	}
	if mock.CallCount() != 2 {
		t.Fatalf("expected 2 provider calls, got %d", mock.CallCount())
	}

	b, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"refined_content":null`) || !strings.Contains(string(b), `"was_refined":false`) {
		t.Fatalf("unexpected serialized result: %s", b)
	}
}

func TestRun_DemoProviderPasses(t *testing.T) {
	prov, err := llm.NewProvider(context.Background(), llm.Config{Provider: "mock"}, nil, nil)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	p := New(
		generator.New(prov, generator.DefaultConfig()),
		reviewer.New(prov, reviewer.DefaultConfig()),
	)

	res, err := p.Run(context.Background(), 7, "Volcanoes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome() != string(content.StatusPass) || res.WasRefined {
		t.Fatalf("unexpected result: outcome=%q refined=%v", res.Outcome(), res.WasRefined)
	}
	if len(res.InitialContent.Questions) != content.QuestionCount {
		t.Fatalf("expected %d questions, got %d", content.QuestionCount, len(res.InitialContent.Questions))
	}
}

func TestScenarioB_FailWithFeedbackRefinesOnce(t *testing.T) {
	p, mock := newMockPipeline(
		llm.MockResponse{Text: contentJSON("Initial")},
		llm.MockResponse{Text: `{"status": "fail", "feedback": ["Q2 has two correct options"]}`},
		llm.MockResponse{Text: contentJSON("Refined")},
	)

	res, err := p.Run(context.Background(), 7, "Fractions")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.WasRefined || res.RefinedContent == nil {
		t.Fatal("expected refinement")
	}
	if res.InitialContent.Explanation != "Initial explanation." {
		t.Fatalf("initial content changed: %q", res.InitialContent.Explanation)
	}
	if res.RefinedContent.Explanation != "Refined explanation." {
		t.Fatalf("unexpected refined content: %q", res.RefinedContent.Explanation)
	}
	if mock.CallCount() != 3 {
		t.Fatalf("expected 3 provider calls (refined content never re-reviewed), got %d", mock.CallCount())
	}

	prompts := mock.Prompts()
	if !strings.Contains(prompts[2], "- Q2 has two correct options") {
		t.Fatal("refinement prompt must carry the feedback verbatim")
	}
	if strings.Contains(prompts[0], "Q2 has two correct options") {
		t.Fatal("initial prompt must not carry feedback")
	}
	if res.FinalContent().Explanation != "Refined explanation." {
		t.Fatal("final content should be the refined content")
	}
}

func TestScenarioC_InvalidGradeBeforeProvider(t *testing.T) {
	for _, grade := range []int{0, 13} {
		p, mock := newMockPipeline()

		_, err := p.Run(context.Background(), grade, "Plants")
		var inv *content.InvalidInputError
		if !errors.As(err, &inv) {
			t.Fatalf("grade %d: expected InvalidInputError, got %T (%v)", grade, err, err)
		}
		if mock.CallCount() != 0 {
			t.Fatalf("grade %d: provider called %d times", grade, mock.CallCount())
		}
	}

	p, mock := newMockPipeline()
	if _, err := p.Run(context.Background(), 5, "   "); content.Kind(err) != content.KindInvalidInput {
		t.Fatalf("blank topic: expected invalid_input, got %v", err)
	}
	if mock.CallCount() != 0 {
		t.Fatal("provider must not be called for a blank topic")
	}
}

func TestScenarioD_ReviewTransportFailure(t *testing.T) {
	transport := errors.New("connection refused")
	p, mock := newMockPipeline(
		llm.MockResponse{Text: contentJSON("Initial")},
		llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: transport}},
	)

	res, err := p.Run(context.Background(), 6, "Volcanoes")
	if res != nil {
		t.Fatal("no partial result may be returned")
	}
	var pe *content.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %T (%v)", err, err)
	}
	if pe.Stage != content.StageReview {
		t.Fatalf("stage = %q, want review", pe.Stage)
	}
	if !errors.Is(err, transport) {
		t.Fatal("provider error must surface unchanged")
	}
	if mock.CallCount() != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.CallCount())
	}
}

func TestScenarioE_ProseAndFences(t *testing.T) {
	bare := contentJSON("Fenced")
	wrapped := "Sure! ```json " + bare + " ``` Hope that helps!"

	p, _ := newMockPipeline(
		llm.MockResponse{Text: wrapped},
		llm.MockResponse{Text: `{"status": "pass", "feedback": []}`},
	)

	res, err := p.Run(context.Background(), 9, "Cells")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want, err := content.ParseContent(bare)
	if err != nil {
		t.Fatalf("bare parse: %v", err)
	}
	if !reflect.DeepEqual(res.InitialContent, *want) {
		t.Fatalf("wrapped parse differs from bare parse")
	}
}

func TestFailWithoutFeedbackDoesNotRefine(t *testing.T) {
	p, mock := newMockPipeline(
		llm.MockResponse{Text: contentJSON("Initial")},
		llm.MockResponse{Text: `{"status": "fail", "feedback": []}`},
	)

	res, err := p.Run(context.Background(), 2, "Shapes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.WasRefined || res.RefinedContent != nil {
		t.Fatal("fail with empty feedback must not refine")
	}
	if res.ReviewResult.Status != content.StatusFail {
		t.Fatalf("status = %q, want fail", res.ReviewResult.Status)
	}
	if mock.CallCount() != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.CallCount())
	}
}

func TestStageFailuresPropagate(t *testing.T) {
	tests := []struct {
		name      string
		responses []llm.MockResponse
		wantKind  content.ErrorKind
		wantCalls int
	}{
		{
			name:      "initial parse error",
			responses: []llm.MockResponse{{Text: "no json here"}},
			wantKind:  content.KindGenerationParseError,
			wantCalls: 1,
		},
		{
			name:      "initial provider error",
			responses: []llm.MockResponse{{Err: &llm.ErrRateLimit{Err: errors.New("429")}}},
			wantKind:  content.KindProvider,
			wantCalls: 1,
		},
		{
			name: "review parse error",
			responses: []llm.MockResponse{
				{Text: contentJSON("x")},
				{Text: "Looks great!"},
			},
			wantKind:  content.KindReviewParseError,
			wantCalls: 2,
		},
		{
			name: "refine parse error is not retried",
			responses: []llm.MockResponse{
				{Text: contentJSON("x")},
				{Text: `{"status": "fail", "feedback": ["fix Q1"]}`},
				{Text: "garbage"},
				{Text: contentJSON("never used")},
			},
			wantKind:  content.KindGenerationParseError,
			wantCalls: 3,
		},
		{
			name: "refine provider error",
			responses: []llm.MockResponse{
				{Text: contentJSON("x")},
				{Text: `{"status": "fail", "feedback": ["fix Q1"]}`},
				{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}},
			},
			wantKind:  content.KindProvider,
			wantCalls: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, mock := newMockPipeline(tt.responses...)
			res, err := p.Run(context.Background(), 5, "Weather")
			if res != nil {
				t.Fatal("no partial result may be returned")
			}
			if got := content.Kind(err); got != tt.wantKind {
				t.Fatalf("kind = %q, want %q (err: %v)", got, tt.wantKind, err)
			}
			if mock.CallCount() != tt.wantCalls {
				t.Fatalf("calls = %d, want %d", mock.CallCount(), tt.wantCalls)
			}
		})
	}
}

func TestContextDeadlineIsTimeout(t *testing.T) {
	p, _ := newMockPipeline(llm.MockResponse{Text: contentJSON("x")})

	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	<-ctx.Done()

	_, err := p.Run(ctx, 5, "Weather")
	if content.Kind(err) != content.KindTimeout {
		t.Fatalf("kind = %q, want timeout (err: %v)", content.Kind(err), err)
	}
}

// fakeGenerator and fakeReviewer count calls without any provider.
type fakeGenerator struct {
	calls         int
	feedbackCalls int
}

func (g *fakeGenerator) Generate(_ context.Context, req content.Request, feedback []string) (*content.Content, error) {
	g.calls++
	if len(feedback) > 0 {
		g.feedbackCalls++
	}
	c, err := content.ParseContent(contentJSON(req.Topic))
	return c, err
}

type fakeReviewer struct {
	verdict content.Verdict
}

func (r fakeReviewer) Review(context.Context, content.Content, int, string) (*content.Verdict, error) {
	v := r.verdict
	return &v, nil
}

func TestRefinementInvariant(t *testing.T) {
	verdicts := []content.Verdict{
		{Status: content.StatusPass, Feedback: []string{}},
		{Status: content.StatusPass, Feedback: []string{"nit"}},
		{Status: content.StatusFail, Feedback: []string{}},
		{Status: content.StatusFail, Feedback: nil},
		{Status: content.StatusFail, Feedback: []string{"one"}},
		{Status: content.StatusFail, Feedback: []string{"one", "two", "three"}},
	}

	for grade := 1; grade <= 12; grade++ {
		for _, v := range verdicts {
			gen := &fakeGenerator{}
			p := New(gen, fakeReviewer{verdict: v})

			res, err := p.Run(context.Background(), grade, "Topic")
			if err != nil {
				t.Fatalf("grade %d verdict %+v: %v", grade, v, err)
			}

			want := v.Status == content.StatusFail && len(v.Feedback) > 0
			if res.WasRefined != want {
				t.Fatalf("grade %d verdict %+v: was_refined = %v, want %v", grade, v, res.WasRefined, want)
			}
			if (res.RefinedContent != nil) != want {
				t.Fatalf("grade %d verdict %+v: refined content presence mismatch", grade, v)
			}
			if gen.feedbackCalls > 1 {
				t.Fatalf("at most one feedback generation per run, got %d", gen.feedbackCalls)
			}
		}
	}
}

func TestPipelineMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.MustNewMetrics(reg)

	gen := &fakeGenerator{}
	p := New(gen, fakeReviewer{verdict: content.Verdict{Status: content.StatusFail, Feedback: []string{"x"}}}, WithMetrics(m))
	if _, err := p.Run(context.Background(), 3, "Bees"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Run(context.Background(), 0, "Bees"); err == nil {
		t.Fatal("expected invalid input")
	}

	if got, err := testutil.GatherAndCount(reg, "eduforge_pipeline_runs_total"); err != nil || got != 2 {
		t.Fatalf("expected 2 run outcome series, got %d (%v)", got, err)
	}
	if got, err := testutil.GatherAndCount(reg, "eduforge_pipeline_refinements_total"); err != nil || got != 1 {
		t.Fatalf("expected refinements counter, got %d series (%v)", got, err)
	}
	if got, err := testutil.GatherAndCount(reg, "eduforge_pipeline_stage_duration_seconds"); err != nil || got != 3 {
		t.Fatalf("expected 3 stage series, got %d (%v)", got, err)
	}
}
