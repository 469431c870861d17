package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// Default OpenAI pricing (USD per million tokens). Overridable per config.
var defaultOpenAIPricing = Pricing{InputPerMillion: 0.15, OutputPerMillion: 0.60}

// OpenAIProvider implements Provider on the OpenAI chat completions API.
type OpenAIProvider struct {
	client  *openai.Client
	model   string
	pricing Pricing
}

// NewOpenAIProvider creates a provider for the given model. A zero pricing
// falls back to the built-in default.
func NewOpenAIProvider(apiKey, model string, pricing Pricing) *OpenAIProvider {
	if pricing == (Pricing{}) {
		pricing = defaultOpenAIPricing
	}
	return &OpenAIProvider{
		client:  openai.NewClient(apiKey),
		model:   model,
		pricing: pricing,
	}
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string { return "openai" }

// ModelName implements Provider.
func (p *OpenAIProvider) ModelName() string { return p.model }

// Pricing implements Provider.
func (p *OpenAIProvider) Pricing() Pricing { return p.pricing }

// Complete implements Provider.
func (p *OpenAIProvider) Complete(ctx context.Context, system, user string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: user,
	})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: 0,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai completion: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}
