package llmgateway

import (
	"context"
	"errors"
	"testing"
)

func TestCircuitBreakTripsAfterConsecutiveProviderFailures(t *testing.T) {
	inner := &fakeClient{results: []fakeResult{
		{err: &ProviderError{Err: errors.New("down"), Retryable: true}},
		{err: &ProviderError{Err: errors.New("down"), Retryable: true}},
		{out: "ok"},
	}}
	cli := CircuitBreak(2)(inner)

	for i := 0; i < 2; i++ {
		if _, err := cli.Generate(context.Background(), "p"); err == nil {
			t.Fatalf("expected underlying provider error on attempt %d", i)
		}
	}
	// breaker should now be open; the third call never reaches inner with "ok"
	if _, err := cli.Generate(context.Background(), "p"); err == nil {
		t.Fatalf("expected circuit breaker to be open")
	}
	if inner.calls != 2 {
		t.Fatalf("expected inner client not to be called while breaker open, calls=%d", inner.calls)
	}
}

func TestCircuitBreakIgnoresValidationFailures(t *testing.T) {
	inner := &fakeClient{results: []fakeResult{
		{err: &ValidationError{PromptKey: "k", Detail: "bad"}},
		{err: &ValidationError{PromptKey: "k", Detail: "bad"}},
		{out: "ok"},
	}}
	cli := CircuitBreak(2)(inner)
	for i := 0; i < 2; i++ {
		if _, err := cli.Generate(context.Background(), "p"); err == nil {
			t.Fatalf("expected validation error on attempt %d", i)
		}
	}
	// breaker must still be closed since validation errors don't count
	out, err := cli.Generate(context.Background(), "p")
	if err != nil {
		t.Fatalf("expected breaker to remain closed: %v", err)
	}
	if out != "ok" {
		t.Fatalf("expected ok, got %q", out)
	}
}
