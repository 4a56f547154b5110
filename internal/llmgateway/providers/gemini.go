// Package providers holds llmgateway.Client adapters for concrete model
// backends. Each adapter is a thin translation layer: render a prompt
// in, get raw JSON text back, leave retry/rate-limit/circuit-breaking
// to the gateway's middleware chain.
package providers

import (
	"context"
	"errors"
	"fmt"

	genai "google.golang.org/genai"

	"taxonomy/internal/llmgateway"
)

// ErrEmptyResponse is returned when the model produces no candidates or
// text, which the gateway treats as a retryable provider error.
var ErrEmptyResponse = errors.New("providers: empty response from model")

// Gemini adapts google.golang.org/genai to llmgateway.Client, grounded
// on the teacher's internal/llm.GeminiClient.
type Gemini struct {
	cli         *genai.Client
	model       string
	temperature float64
	seed        int64
}

// NewGemini builds a Gemini client for model, requesting the Gemini
// Developer API backend (reads GEMINI_API_KEY/GOOGLE_API_KEY from the
// environment, same as the teacher's client construction).
func NewGemini(ctx context.Context, model string, temperature float64, seed int64) (*Gemini, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("providers: new gemini client: %w", err)
	}
	return &Gemini{cli: cli, model: model, temperature: temperature, seed: seed}, nil
}

func (g *Gemini) Name() string { return "gemini:" + g.model }

// Generate requests application/json output, matching the structured
// JSON contract every prompt in llmgateway.Registry expects.
func (g *Gemini) Generate(ctx context.Context, rendered string) (string, error) {
	temp := float32(g.temperature)
	seed := int32(g.seed)
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      &temp,
		Seed:             &seed,
	}
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: rendered}}}},
		cfg,
	)
	if err != nil {
		return "", &llmgateway.ProviderError{Err: err, Retryable: classifyRetryable(err)}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", &llmgateway.ProviderError{Err: ErrEmptyResponse, Retryable: true}
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
