package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/abhisek/eduforge/internal/logging"
)

// retryClass says how an error may be retried.
type retryClass int

const (
	retryNever retryClass = iota
	retryOnce
	retryAlways
)

// classify sorts provider errors for the retry decorator. Cancellation,
// truncation and rejected requests are final; an empty answer gets a single second chance; rate
// limits, outages and transport errors are transient.
func classify(err error) retryClass {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retryNever
	}
	var maxTok *ErrMaxTokensExceeded
	if errors.As(err, &maxTok) {
		return retryNever
	}
	var rejected *ErrRequestRejected
	if errors.As(err, &rejected) {
		return retryNever
	}
	var invalid *ErrInvalidResponse
	if errors.As(err, &invalid) {
		return retryOnce
	}
	return retryAlways
}

// RetryProvider retries transient provider failures with exponential backoff
// and jitter. A rate limit's RetryAfter overrides the computed wait.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
	log    *logging.Logger
}

// WithRetry wraps p. MaxAttempts counts the first call.
func WithRetry(p Provider, cfg RetryConfig, log *logging.Logger) Provider {
	if log == nil {
		log = logging.Nop()
	}
	return &RetryProvider{inner: p, config: cfg, log: log}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	attempts := max(r.config.MaxAttempts, 1)
	usedOnce := false

	var err error
	for attempt := range attempts {
		var resp *Response
		resp, err = r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}

		switch classify(err) {
		case retryNever:
			return nil, err
		case retryOnce:
			if usedOnce {
				return nil, err
			}
			usedOnce = true
		}

		if attempt == attempts-1 {
			break
		}

		wait := r.backoff(attempt, err)
		r.log.Warn("retrying LLM request",
			"purpose", PurposeFrom(ctx),
			"attempt", attempt+1,
			"wait_ms", wait.Milliseconds(),
			"error", err,
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, err
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

func (r *RetryProvider) backoff(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	wait = min(wait, float64(r.config.MaxWait))
	// ±20% jitter
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	return time.Duration(max(wait, 0))
}
