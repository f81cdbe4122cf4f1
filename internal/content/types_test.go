package content

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/abhisek/eduforge/internal/llm"
)

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name  string
		req   Request
		field string
	}{
		{"grade 1", Request{Grade: 1, Topic: "Plants"}, ""},
		{"grade 12", Request{Grade: 12, Topic: "Calculus"}, ""},
		{"grade 0", Request{Grade: 0, Topic: "Plants"}, "grade"},
		{"grade 13", Request{Grade: 13, Topic: "Plants"}, "grade"},
		{"negative grade", Request{Grade: -3, Topic: "Plants"}, "grade"},
		{"empty topic", Request{Grade: 5, Topic: ""}, "topic"},
		{"blank topic", Request{Grade: 5, Topic: "  \t"}, "topic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var inv *InvalidInputError
			if !errors.As(err, &inv) {
				t.Fatalf("expected InvalidInputError, got %T (%v)", err, err)
			}
			if inv.Field != tt.field {
				t.Fatalf("field = %q, want %q", inv.Field, tt.field)
			}
		})
	}
}

func TestAnswerIndex(t *testing.T) {
	for i, l := range OptionLetters {
		if got := (Question{Answer: l}).AnswerIndex(); got != i {
			t.Errorf("AnswerIndex(%q) = %d, want %d", l, got, i)
		}
	}
	if got := (Question{Answer: "E"}).AnswerIndex(); got != -1 {
		t.Errorf("AnswerIndex(E) = %d, want -1", got)
	}
}

func TestVerdictActionable(t *testing.T) {
	tests := []struct {
		v    Verdict
		want bool
	}{
		{Verdict{Status: StatusPass}, false},
		{Verdict{Status: StatusPass, Feedback: []string{"minor"}}, false},
		{Verdict{Status: StatusFail}, false},
		{Verdict{Status: StatusFail, Feedback: []string{}}, false},
		{Verdict{Status: StatusFail, Feedback: []string{"fix Q2"}}, true},
	}
	for _, tt := range tests {
		if got := tt.v.Actionable(); got != tt.want {
			t.Errorf("%+v.Actionable() = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestKind(t *testing.T) {
	rateLimited := &ProviderError{Stage: StageReview, Err: &llm.ErrRateLimit{Err: errors.New("429")}}

	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"invalid", &InvalidInputError{Field: "grade", Message: "x"}, KindInvalidInput},
		{"provider", rateLimited, KindProvider},
		{"wrapped provider", fmt.Errorf("run: %w", rateLimited), KindProvider},
		{"gen parse", &GenerationParseError{Err: errors.New("x")}, KindGenerationParseError},
		{"review parse", &ReviewParseError{Err: errors.New("x")}, KindReviewParseError},
		{"timeout", &ProviderError{Stage: StageGenerate, Err: context.DeadlineExceeded}, KindTimeout},
		{"other", errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Kind(tt.err); got != tt.want {
				t.Fatalf("Kind() = %q, want %q", got, tt.want)
			}
		})
	}

	var rl *llm.ErrRateLimit
	if !errors.As(rateLimited, &rl) {
		t.Fatal("ProviderError must unwrap to the provider's error")
	}
}
