package generator

import (
	"context"
	"errors"

	"github.com/abhisek/eduforge/internal/content"
	"github.com/abhisek/eduforge/internal/llm"
)

// Purpose labels recorded with every LLM request event.
const (
	PurposeGenerate = "content-gen"
	PurposeRefine   = "content-refine"
)

// Generator produces content for a request, optionally guided by reviewer
// feedback.
type Generator interface {
	Generate(ctx context.Context, req content.Request, feedback []string) (*content.Content, error)
}

// LLMGenerator implements Generator using the LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
}

// New creates a new LLMGenerator with the given provider and config.
func New(provider llm.Provider, cfg Config) *LLMGenerator {
	return &LLMGenerator{provider: provider, config: cfg}
}

// Generate makes one provider call and parses its answer. Every call is a
// full regeneration; feedback is prompt context, never a patch.
func (g *LLMGenerator) Generate(ctx context.Context, req content.Request, feedback []string) (*content.Content, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	guideline, err := GuidelineFor(req.Grade)
	if err != nil {
		return nil, err
	}

	stage, purpose := content.StageGenerate, PurposeGenerate
	if len(feedback) > 0 {
		stage, purpose = content.StageRefine, PurposeRefine
	}
	ctx = llm.WithPurpose(ctx, purpose)

	raw, err := llm.Complete(ctx, g.provider, systemPrompt, buildUserMessage(req, guideline, feedback), llm.Options{
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
		JSONObject:  true,
	})
	if err != nil {
		var truncated *llm.ErrMaxTokensExceeded
		if errors.As(err, &truncated) {
			return nil, &content.GenerationParseError{Raw: truncated.Text, Err: err}
		}
		return nil, &content.ProviderError{Stage: stage, Err: err}
	}

	return content.ParseContent(raw)
}
