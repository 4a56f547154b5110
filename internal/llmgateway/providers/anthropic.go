package providers

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"taxonomy/internal/llmgateway"
)

// Anthropic adapts github.com/anthropics/anthropic-sdk-go to
// llmgateway.Client, the second interchangeable provider behind the
// gateway (policy.provider = "anthropic").
type Anthropic struct {
	cli         anthropic.Client
	model       anthropic.Model
	maxTokens   int64
	temperature float64
}

// NewAnthropic builds an Anthropic client for model, reading
// ANTHROPIC_API_KEY from the environment via the SDK default option.
func NewAnthropic(apiKey, model string, maxTokens int64, temperature float64) *Anthropic {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &Anthropic{
		cli:         anthropic.NewClient(opts...),
		model:       anthropic.Model(model),
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

func (a *Anthropic) Name() string { return "anthropic:" + string(a.model) }

// Generate sends rendered as a single user turn and concatenates every
// returned text block. The prompt template itself carries the "return
// only JSON" instruction (see llmgateway.Registry), since Anthropic has
// no dedicated JSON response-format knob the way Gemini does.
func (a *Anthropic) Generate(ctx context.Context, rendered string) (string, error) {
	msg, err := a.cli.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		Temperature: anthropic.Float(a.temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(rendered)),
		},
	})
	if err != nil {
		return "", &llmgateway.ProviderError{Err: err, Retryable: classifyRetryable(err)}
	}
	var out string
	for _, block := range msg.Content {
		if block.Type == "text" {
			out += block.Text
		}
	}
	if out == "" {
		return "", &llmgateway.ProviderError{Err: fmt.Errorf("providers: %w", ErrEmptyResponse), Retryable: true}
	}
	return out, nil
}
