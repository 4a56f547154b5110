package llmgateway

import "context"

// Client is the provider-facing contract every adapter implements: a
// single rendered prompt in, raw JSON text out. Mirrors the shape of
// the teacher's llmclient.LLMClient, trimmed to what this pipeline
// needs (no streaming, no token accounting).
type Client interface {
	Name() string
	Generate(ctx context.Context, rendered string) (string, error)
}

// Middleware decorates a Client with cross-cutting behavior (retry,
// rate limiting, circuit breaking), the same decorator chain shape as
// the teacher's llm.Middleware.
type Middleware func(Client) Client

// Chain applies middlewares to base in order, so the first middleware
// listed is the outermost decorator.
func Chain(base Client, middlewares ...Middleware) Client {
	out := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		out = middlewares[i](out)
	}
	return out
}
