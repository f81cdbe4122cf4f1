package pipeline

import "github.com/abhisek/eduforge/internal/content"

// Result is the read-only record of one run. RefinedContent is nil unless
// WasRefined.
type Result struct {
	Grade          int              `json:"grade"`
	Topic          string           `json:"topic"`
	InitialContent content.Content  `json:"initial_content"`
	ReviewResult   content.Verdict  `json:"review_result"`
	RefinedContent *content.Content `json:"refined_content"`
	WasRefined     bool             `json:"was_refined"`
}

// FinalContent returns the refined content when present, else the initial.
func (r *Result) FinalContent() content.Content {
	if r.RefinedContent != nil {
		return *r.RefinedContent
	}
	return r.InitialContent
}

// Outcome is the run's metric and storage label: the review status.
func (r *Result) Outcome() string {
	return string(r.ReviewResult.Status)
}
