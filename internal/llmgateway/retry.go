package llmgateway

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// isRetryable reports whether err is a ProviderError flagged Retryable,
// i.e. eligible for backoff-and-retry; anything else propagates
// immediately (spec §7).
func isRetryable(err error) bool {
	var pErr *ProviderError
	if errors.As(err, &pErr) {
		return pErr.Retryable
	}
	return false
}

// Retry retries Generate up to maxAttempts with exponential backoff and
// jitter starting at baseDelay, capped at maxDelay. Non-retryable
// provider errors and context cancellation abort immediately. Grounded
// on the teacher's llm.Retry (internal/llm/middleware_retry.go),
// generalized with a max-delay cap and jitter per spec §5 ("retry_attempts
// with exponential backoff and jitter on retryable provider errors only").
func Retry(maxAttempts int, baseDelay, maxDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 10 * time.Second
	}
	return func(next Client) Client {
		return &retrying{next: next, max: maxAttempts, base: baseDelay, maxDelay: maxDelay}
	}
}

type retrying struct {
	next     Client
	max      int
	base     time.Duration
	maxDelay time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }

func (r *retrying) Generate(ctx context.Context, rendered string) (string, error) {
	var last error
	for attempt := 0; attempt < r.max; attempt++ {
		out, err := r.next.Generate(ctx, rendered)
		if err == nil {
			return out, nil
		}
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			return "", err
		}
		if !isRetryable(err) {
			return "", err
		}
		last = err
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		delay := r.base * time.Duration(1<<attempt)
		if delay > r.maxDelay {
			delay = r.maxDelay
		}
		jitter := time.Duration(rand.Int63n(int64(delay)/2 + 1))
		timer := time.NewTimer(delay/2 + jitter)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	return "", last
}
