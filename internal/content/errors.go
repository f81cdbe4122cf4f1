package content

import (
	"context"
	"errors"
	"fmt"
)

// InvalidInputError indicates the request was rejected before any provider
// call.
type InvalidInputError struct {
	Field   string
	Message string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Stage names used in ProviderError and across logs and metrics.
const (
	StageGenerate = "generate"
	StageReview   = "review"
	StageRefine   = "refine"
)

// ProviderError wraps a completion provider failure with the stage that made
// the call.
type ProviderError struct {
	Stage string
	Err   error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: completion provider failed: %v", e.Stage, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// GenerationParseError indicates the generator's response could not be
// turned into a valid Content.
type GenerationParseError struct {
	Raw string
	Err error
}

func (e *GenerationParseError) Error() string {
	return fmt.Sprintf("parse generated content: %v", e.Err)
}

func (e *GenerationParseError) Unwrap() error { return e.Err }

// ReviewParseError indicates the reviewer's response could not be turned
// into a valid Verdict.
type ReviewParseError struct {
	Raw string
	Err error
}

func (e *ReviewParseError) Error() string {
	return fmt.Sprintf("parse review verdict: %v", e.Err)
}

func (e *ReviewParseError) Unwrap() error { return e.Err }

// ErrorKind is a stable, user-facing error category.
type ErrorKind string

const (
	KindInvalidInput         ErrorKind = "invalid_input"
	KindProvider             ErrorKind = "provider_error"
	KindGenerationParseError ErrorKind = "generation_parse_error"
	KindReviewParseError     ErrorKind = "review_parse_error"
	KindTimeout              ErrorKind = "timeout"
	KindInternal             ErrorKind = "internal"
)

// Kind classifies err. Deadline expiry wins over the wrapping error type so a
// provider call cut short by a request timeout reports as a timeout.
func Kind(err error) ErrorKind {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var invalid *InvalidInputError
	if errors.As(err, &invalid) {
		return KindInvalidInput
	}
	var genParse *GenerationParseError
	if errors.As(err, &genParse) {
		return KindGenerationParseError
	}
	var revParse *ReviewParseError
	if errors.As(err, &revParse) {
		return KindReviewParseError
	}
	var prov *ProviderError
	if errors.As(err, &prov) {
		return KindProvider
	}
	return KindInternal
}

// RawResponse returns the unparseable model output carried by a parse error,
// or "" for any other error.
func RawResponse(err error) string {
	var genParse *GenerationParseError
	if errors.As(err, &genParse) {
		return genParse.Raw
	}
	var revParse *ReviewParseError
	if errors.As(err, &revParse) {
		return revParse.Raw
	}
	return ""
}
