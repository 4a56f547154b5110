package llmgateway

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeClient struct {
	name    string
	results []fakeResult
	calls   int
}

type fakeResult struct {
	out string
	err error
}

func (f *fakeClient) Name() string { return f.name }

func (f *fakeClient) Generate(ctx context.Context, rendered string) (string, error) {
	i := f.calls
	f.calls++
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	r := f.results[i]
	return r.out, r.err
}

func TestRetrySucceedsAfterRetryableFailures(t *testing.T) {
	inner := &fakeClient{results: []fakeResult{
		{err: &ProviderError{Err: errors.New("timeout"), Retryable: true}},
		{err: &ProviderError{Err: errors.New("timeout"), Retryable: true}},
		{out: "ok"},
	}}
	cli := Retry(5, time.Millisecond, 10*time.Millisecond)(inner)
	out, err := cli.Generate(context.Background(), "p")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "ok" {
		t.Fatalf("expected ok, got %q", out)
	}
	if inner.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", inner.calls)
	}
}

func TestRetryStopsOnNonRetryableProviderError(t *testing.T) {
	inner := &fakeClient{results: []fakeResult{
		{err: &ProviderError{Err: errors.New("bad request"), Retryable: false}},
		{out: "ok"},
	}}
	cli := Retry(5, time.Millisecond, 10*time.Millisecond)(inner)
	if _, err := cli.Generate(context.Background(), "p"); err == nil {
		t.Fatalf("expected non-retryable error to propagate")
	}
	if inner.calls != 1 {
		t.Fatalf("expected exactly 1 attempt, got %d", inner.calls)
	}
}

func TestRetryStopsOnValidationError(t *testing.T) {
	inner := &fakeClient{results: []fakeResult{
		{err: &ValidationError{PromptKey: "k", Detail: "bad shape"}},
		{out: "ok"},
	}}
	cli := Retry(5, time.Millisecond, 10*time.Millisecond)(inner)
	if _, err := cli.Generate(context.Background(), "p"); err == nil {
		t.Fatalf("expected validation error to propagate without retry")
	}
	if inner.calls != 1 {
		t.Fatalf("expected exactly 1 attempt, got %d", inner.calls)
	}
}

func TestRetryExhaustsAttemptsAndReturnsLastError(t *testing.T) {
	want := errors.New("still down")
	inner := &fakeClient{results: []fakeResult{
		{err: &ProviderError{Err: want, Retryable: true}},
	}}
	cli := Retry(3, time.Millisecond, 5*time.Millisecond)(inner)
	_, err := cli.Generate(context.Background(), "p")
	if err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
	if inner.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", inner.calls)
	}
}

func TestRetryAbortsOnContextCancellation(t *testing.T) {
	inner := &fakeClient{results: []fakeResult{
		{err: &ProviderError{Err: errors.New("timeout"), Retryable: true}},
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cli := Retry(5, 50*time.Millisecond, 200*time.Millisecond)(inner)
	if _, err := cli.Generate(ctx, "p"); err == nil {
		t.Fatalf("expected context cancellation to abort retry loop")
	}
}
