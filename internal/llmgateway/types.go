// Package llmgateway implements the pipeline's external contract for
// calling a language model: llm.run(prompt_key, variables) -> Response,
// with deterministic generation defaults, one constrained schema-repair
// retry, and provider-agnostic resilience middleware (spec §4.M).
// Per-item quarantine after repeated failure is left to callers. Grounded on the teacher's
// internal/llmClient.LLMClient interface shape and its
// internal/llm/{middleware_retry,middleware/rate_limit}.go decorators.
package llmgateway

import (
	"encoding/json"
	"fmt"
)

// Response is the gateway's external contract result: either content
// (parsed JSON when the prompt's schema is known) or an error.
type Response struct {
	OK      bool
	Content json.RawMessage
	Error   string
}

// ValidationError indicates the provider's response failed schema
// validation even after the one constrained retry.
type ValidationError struct {
	PromptKey string
	Detail    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("llmgateway: validation failed for %q: %s", e.PromptKey, e.Detail)
}

// ProviderError wraps a transport/provider-level failure. Retryable
// distinguishes backoff-and-retry candidates from permanent failures
// (spec §7: "ProviderError retryable -> backoff+retry, non-retryable ->
// quarantine").
type ProviderError struct {
	PromptKey string
	Err       error
	Retryable bool
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("llmgateway: provider error for %q: %v", e.PromptKey, e.Err)
}
func (e *ProviderError) Unwrap() error { return e.Err }

// QuarantineError describes an item given up on after Attempts
// failures. Nothing in this package returns it: Gateway.Run reports a
// ValidationError or ProviderError per call, and callers that count
// their own attempts per item may build one.
type QuarantineError struct {
	PromptKey string
	Attempts  int
	Last      error
}

func (e *QuarantineError) Error() string {
	return fmt.Sprintf("llmgateway: quarantined %q after %d attempts: %v", e.PromptKey, e.Attempts, e.Last)
}
func (e *QuarantineError) Unwrap() error { return e.Last }
