package llmgateway

import (
	"context"
	"errors"

	"github.com/sony/gobreaker"
)

// CircuitBreak wraps Client calls in a gobreaker circuit, opening after
// maxFailures consecutive failures to stop hammering a degraded
// provider; this is additive resilience the spec does not name
// directly but is consistent with §5's per-call timeout and retry
// posture. Every error other than a schema ValidationError (provider
// errors of either kind, context errors) counts toward the trip; a
// ValidationError does not (a malformed-but-reachable provider should
// not be treated as down).
func CircuitBreak(maxFailures uint32) Middleware {
	settings := gobreaker.Settings{
		Name: "llmgateway",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return maxFailures > 0 && counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var vErr *ValidationError
			return errors.As(err, &vErr)
		},
	}
	cb := gobreaker.NewCircuitBreaker(settings)
	return func(next Client) Client {
		return &breaking{next: next, cb: cb}
	}
}

type breaking struct {
	next Client
	cb   *gobreaker.CircuitBreaker
}

func (b *breaking) Name() string { return b.next.Name() }

func (b *breaking) Generate(ctx context.Context, rendered string) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Generate(ctx, rendered)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			return "", &ProviderError{Err: err, Retryable: false}
		}
		return "", err
	}
	return out.(string), nil
}
