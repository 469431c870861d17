// Package llm is the provider-agnostic gateway for LLM-backed search term
// classification. The provider is chosen once at configuration time; callers
// only see the Provider interface and the batch gateway.
package llm

import (
	"context"
	"errors"
)

// ErrRateLimited marks a provider rate-limit rejection. The gateway retries
// these with backoff; any other provider error abandons the batch.
var ErrRateLimited = errors.New("llm provider rate limited")

// Pricing is a provider's cost per million tokens, used for pre-flight cost
// estimates.
type Pricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// Provider is a single backing LLM vendor. Implementations must wrap
// rate-limit rejections with ErrRateLimited so the gateway can tell them
// apart from hard failures.
type Provider interface {
	// Name identifies the provider for logs and reports.
	Name() string
	// ModelName identifies the configured model.
	ModelName() string
	// Complete sends one prompt and returns the raw completion text.
	Complete(ctx context.Context, system, user string) (string, error)
	// Pricing returns the per-token pricing of the configured model.
	Pricing() Pricing
}

// CostEstimate is a pre-flight estimate of one classification run's LLM
// spend, computed before any money is committed.
type CostEstimate struct {
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	Terms        int     `json:"terms"`
	Batches      int     `json:"batches"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	USD          float64 `json:"usd"`
}
