package llmgateway

import (
	"context"
	"encoding/json"
	"fmt"

	"taxonomy/internal/settings"
)

// Gateway implements the spec §4.M external contract: llm.run(prompt_key,
// variables) -> Response, with schema validation plus one constrained
// retry. Generation defaults (temperature and, for Gemini, seed) are
// set on the provider Client when it is constructed. Gateway does not quarantine items
// itself; it exposes the configured threshold via
// QuarantineAfterAttempts.
type Gateway struct {
	client   Client
	registry *Registry
	policy   settings.LLMPolicy
}

// NewGateway wraps client with the standard resilience middleware chain
// (circuit breaker outermost, then retry, then rate limit, matching the
// teacher's outer-to-inner decorator convention) and binds it to policy
// and the fixed prompt registry.
func NewGateway(client Client, policy settings.LLMPolicy, registry *Registry) *Gateway {
	decorated := Chain(client,
		CircuitBreak(policy.CircuitBreakerMaxFailures),
		func(c Client) Client { return Retry(policy.RetryAttempts, policy.RetryBaseDelay, policy.RetryMaxDelay)(c) },
		func(c Client) Client { return RateLimit(policy.RateLimitRPS, policy.RateLimitBurst)(c) },
	)
	return &Gateway{client: decorated, registry: registry, policy: policy}
}

// Run executes promptKey against variables, applying one constrained
// schema-repair retry on validation failure (spec §4.M point c). Run
// never returns a QuarantineError; a caller that issues repeated Run
// calls for the same logical item counts attempts itself (S1's
// Extractor quarantines once its own max_retries budget is spent).
func (g *Gateway) Run(ctx context.Context, promptKey string, variables map[string]any) (Response, error) {
	spec, err := g.registry.Lookup(promptKey)
	if err != nil {
		return Response{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, g.policy.CallTimeout)
	defer cancel()

	rendered := RenderTemplate(spec.Template, variables)
	var lastErr error

	for repair := 0; repair < 2; repair++ {
		if repair == 1 {
			rendered = rendered + "\n\n" + RepairHint(spec.Schema)
		}
		raw, genErr := g.client.Generate(ctx, rendered)
		if genErr != nil {
			// The repair-hint retry is for schema mismatches only; a
			// provider/transport failure (already retried, if
			// eligible, by the Retry middleware) is terminal here.
			lastErr = genErr
			break
		}
		content := json.RawMessage(raw)
		if detail := Validate(content, spec.Schema); detail != "" {
			lastErr = &ValidationError{PromptKey: promptKey, Detail: detail}
			continue
		}
		return Response{OK: true, Content: content}, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("llmgateway: exhausted constrained retries for %q", promptKey)
	}
	return Response{}, lastErr
}

// QuarantineAfterAttempts reports policy's configured failure
// threshold, for callers tracking their own per-item attempt count.
func (g *Gateway) QuarantineAfterAttempts() int { return g.policy.QuarantineAfterAttempts }
