package llm

import "context"

// Provider is the core abstraction for LLM interaction.
// Consumers call Generate with a Request and receive the raw completion text.
// Providers never interpret the text; turning it into structured data is the
// caller's job.
type Provider interface {
	// Generate sends a prompt to the LLM and returns its text response.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the LLM.
type Request struct {
	// System is the system prompt. Sets the LLM's role and constraints.
	System string

	// Messages is the conversation history. For single-turn generation
	// (the common case in EduForge), this contains one user message.
	Messages []Message

	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	// Default: 0.0 (deterministic) when not set.
	Temperature float64

	// JSONObject asks the backend to answer with a single JSON object, using
	// whatever mechanism it offers. It is a hint: callers still parse
	// defensively.
	JSONObject bool
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Response holds the LLM's output.
type Response struct {
	// Text is the generated output exactly as the model produced it.
	Text string

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "max_tokens", "error"
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Options carries per-call generation settings for Complete.
type Options struct {
	MaxTokens   int
	Temperature float64
	JSONObject  bool
}

// Complete sends a single user prompt with an optional system instruction and
// returns the raw completion text.
func Complete(ctx context.Context, p Provider, system, prompt string, opts Options) (string, error) {
	resp, err := p.Generate(ctx, Request{
		System: system,
		Messages: []Message{
			{Role: RoleUser, Content: prompt},
		},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		JSONObject:  opts.JSONObject,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
