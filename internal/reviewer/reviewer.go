package reviewer

import (
	"context"
	"errors"

	"github.com/abhisek/eduforge/internal/content"
	"github.com/abhisek/eduforge/internal/llm"
)

// PurposeReview labels review requests in the LLM event log.
const PurposeReview = "content-review"

// Reviewer judges generated content.
type Reviewer interface {
	Review(ctx context.Context, c content.Content, grade int, topic string) (*content.Verdict, error)
}

// Config controls the behavior of the LLMReviewer.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the recommended defaults. Reviews are short, so the
// token budget is smaller than generation's.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   1024,
		Temperature: 0.7,
	}
}

// LLMReviewer implements Reviewer using the LLM provider.
type LLMReviewer struct {
	provider llm.Provider
	config   Config
}

// New creates a new LLMReviewer.
func New(provider llm.Provider, cfg Config) *LLMReviewer {
	return &LLMReviewer{provider: provider, config: cfg}
}

// Review makes one provider call and parses the verdict.
func (r *LLMReviewer) Review(ctx context.Context, c content.Content, grade int, topic string) (*content.Verdict, error) {
	ctx = llm.WithPurpose(ctx, PurposeReview)

	prompt, err := buildUserMessage(c, grade, topic)
	if err != nil {
		return nil, err
	}

	raw, err := llm.Complete(ctx, r.provider, systemPrompt, prompt, llm.Options{
		MaxTokens:   r.config.MaxTokens,
		Temperature: r.config.Temperature,
		JSONObject:  true,
	})
	if err != nil {
		var truncated *llm.ErrMaxTokensExceeded
		if errors.As(err, &truncated) {
			return nil, &content.ReviewParseError{Raw: truncated.Text, Err: err}
		}
		return nil, &content.ProviderError{Stage: content.StageReview, Err: err}
	}

	return content.ParseVerdict(raw)
}
