package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Default Anthropic pricing (USD per million tokens). Overridable per config.
var defaultAnthropicPricing = Pricing{InputPerMillion: 0.80, OutputPerMillion: 4.00}

const anthropicMaxTokens = 2048

// AnthropicProvider implements Provider on the Anthropic Messages API.
type AnthropicProvider struct {
	client  anthropic.Client
	model   string
	pricing Pricing
}

// NewAnthropicProvider creates a provider for the given model. A zero
// pricing falls back to the built-in default.
func NewAnthropicProvider(apiKey, model string, pricing Pricing) *AnthropicProvider {
	if pricing == (Pricing{}) {
		pricing = defaultAnthropicPricing
	}
	return &AnthropicProvider{
		client:  anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		pricing: pricing,
	}
}

// Name implements Provider.
func (p *AnthropicProvider) Name() string { return "anthropic" }

// ModelName implements Provider.
func (p *AnthropicProvider) ModelName() string { return p.model }

// Pricing implements Provider.
func (p *AnthropicProvider) Pricing() Pricing { return p.pricing }

// Complete implements Provider.
func (p *AnthropicProvider) Complete(ctx context.Context, system, user string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return "", fmt.Errorf("anthropic completion: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("anthropic completion: empty response")
	}
	return sb.String(), nil
}
