package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/paidsearchlab/searchintent/internal/domain"
	"github.com/paidsearchlab/searchintent/internal/logger"
)

const (
	// DefaultBatchSize is how many terms go into one prompt.
	DefaultBatchSize = 50

	// interBatchDelay spaces sequential batches to respect provider rate
	// limits. There is no concurrent fan-out.
	interBatchDelay = 200 * time.Millisecond

	maxRateLimitRetries = 3

	llmConfidence        = 0.9
	llmDefaultConfidence = 0.4

	// Rough chars-per-token ratio used for pre-flight estimates.
	charsPerToken = 4
	// Expected completion tokens per classified term (one category word
	// per line plus a newline).
	outputTokensPerTerm = 3
)

// rateLimitBackoffs are the waits between retries of a rate-limited batch.
var rateLimitBackoffs = []time.Duration{5 * time.Second, 15 * time.Second, 30 * time.Second}

// BatchMetrics receives LLM batch outcomes ("ok", "retried", "abandoned").
type BatchMetrics interface {
	LLMBatch(outcome string)
}

type nopBatchMetrics struct{}

func (nopBatchMetrics) LLMBatch(string) {}

// Gateway batches terms into prompts, parses completions leniently, and
// absorbs provider failures. Classification failure is never fatal: a batch
// abandoned after retries simply leaves its terms unresolved for the caller
// to default.
type Gateway struct {
	provider     Provider
	batchSize    int
	businessType string
	metrics      BatchMetrics
	log          logger.Logger

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

// GatewayOptions configures a Gateway.
type GatewayOptions struct {
	// BatchSize caps terms per prompt; zero means DefaultBatchSize.
	BatchSize int
	// BusinessType is free text describing the account's business, used to
	// contextualize prompts.
	BusinessType string
	// Metrics counts batch outcomes; nil disables counting.
	Metrics BatchMetrics
}

// NewGateway creates a gateway over the given provider.
func NewGateway(provider Provider, opts GatewayOptions, log logger.Logger) *Gateway {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Metrics == nil {
		opts.Metrics = nopBatchMetrics{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Gateway{
		provider:     provider,
		batchSize:    opts.BatchSize,
		businessType: opts.BusinessType,
		metrics:      opts.Metrics,
		log:          log,
		sleep:        time.Sleep,
	}
}

// ClassifyTerms classifies terms in sequential batches. The result holds an
// entry for every term whose batch succeeded; terms of abandoned batches are
// absent and must be defaulted by the caller. The only error returned is
// context cancellation.
func (g *Gateway) ClassifyTerms(ctx context.Context, terms []string) (map[string]domain.Classification, error) {
	results := make(map[string]domain.Classification, len(terms))

	for start := 0; start < len(terms); start += g.batchSize {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if start > 0 {
			g.sleep(interBatchDelay)
		}

		end := start + g.batchSize
		if end > len(terms) {
			end = len(terms)
		}
		batch := terms[start:end]

		response, err := g.completeWithRetry(ctx, batch)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return results, err
			}
			g.log.Warn("abandoning llm batch",
				logger.Int("batch_start", start),
				logger.Int("batch_len", len(batch)),
				logger.Err(err),
			)
			g.metrics.LLMBatch("abandoned")
			continue
		}

		g.metrics.LLMBatch("ok")
		for term, c := range g.parseBatch(batch, response) {
			results[term] = c
		}
	}

	return results, nil
}

// completeWithRetry sends one batch, retrying rate-limit rejections with
// increasing backoff. Other failures return immediately.
func (g *Gateway) completeWithRetry(ctx context.Context, batch []string) (string, error) {
	system, user := g.buildPrompt(batch)

	var lastErr error
	for attempt := 0; attempt <= maxRateLimitRetries; attempt++ {
		if attempt > 0 {
			g.metrics.LLMBatch("retried")
			g.log.Info("retrying rate-limited llm batch",
				logger.Int("attempt", attempt),
				logger.String("backoff", rateLimitBackoffs[attempt-1].String()),
			)
			g.sleep(rateLimitBackoffs[attempt-1])
		}

		response, err := g.provider.Complete(ctx, system, user)
		if err == nil {
			return response, nil
		}
		lastErr = err
		if !errors.Is(err, ErrRateLimited) {
			return "", err
		}
	}
	return "", fmt.Errorf("rate limit retries exhausted: %w", lastErr)
}

// buildPrompt renders the system and user prompts for one batch. The model
// is instructed to emit exactly one category word per line, in input order.
func (g *Gateway) buildPrompt(batch []string) (system, user string) {
	var sb strings.Builder
	sb.WriteString("You classify Google Ads search terms by purchase intent.\n")
	if g.businessType != "" {
		sb.WriteString("The advertiser's business: ")
		sb.WriteString(g.businessType)
		sb.WriteString("\n")
	}
	sb.WriteString("Categories: brand, navigational, high_intent, medium_intent, low_intent, negative.\n")
	sb.WriteString("Respond with exactly one category per line, in the same order as the input terms. No numbering, no extra text.")
	system = sb.String()

	var ub strings.Builder
	ub.WriteString("Classify these search terms:\n")
	for _, term := range batch {
		ub.WriteString(term)
		ub.WriteString("\n")
	}
	user = ub.String()
	return system, user
}

// parseBatch maps response lines back to the batch terms. Lines are parsed
// leniently through the category synonym table; a line that fails to
// normalize defaults that single term to medium_intent at reduced
// confidence instead of failing the batch. Missing trailing lines leave
// their terms unresolved.
func (g *Gateway) parseBatch(batch []string, response string) map[string]domain.Classification {
	lines := make([]string, 0, len(batch))
	for _, line := range strings.Split(response, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	out := make(map[string]domain.Classification, len(batch))
	for i, term := range batch {
		if i >= len(lines) {
			g.log.Warn("llm response shorter than batch",
				logger.Int("terms", len(batch)),
				logger.Int("lines", len(lines)),
			)
			break
		}
		if cat, ok := domain.NormalizeCategory(lines[i]); ok {
			out[term] = domain.Classification{
				Category:   cat,
				Confidence: llmConfidence,
				Method:     domain.MethodLLM,
			}
			continue
		}
		g.log.Debug("unrecognized llm category line",
			logger.String("term", term),
			logger.String("line", lines[i]),
		)
		out[term] = domain.Classification{
			Category:   domain.CategoryMediumIntent,
			Confidence: llmDefaultConfidence,
			Method:     domain.MethodLLMDefault,
		}
	}
	return out
}

// EstimateCost computes the pre-flight spend estimate for classifying the
// given terms, from expected token counts and the provider's pricing.
func (g *Gateway) EstimateCost(terms []string) CostEstimate {
	if len(terms) == 0 {
		return CostEstimate{Provider: g.provider.Name(), Model: g.provider.ModelName()}
	}

	batches := (len(terms) + g.batchSize - 1) / g.batchSize

	// Per-batch overhead covers the system prompt and the user prompt
	// scaffold around the term list.
	system, user := g.buildPrompt(nil)
	promptOverhead := (len(system) + len(user)) / charsPerToken

	inputTokens := batches * promptOverhead
	for _, term := range terms {
		inputTokens += len(term)/charsPerToken + 1
	}
	outputTokens := len(terms) * outputTokensPerTerm

	pricing := g.provider.Pricing()
	usd := float64(inputTokens)/1e6*pricing.InputPerMillion +
		float64(outputTokens)/1e6*pricing.OutputPerMillion

	return CostEstimate{
		Provider:     g.provider.Name(),
		Model:        g.provider.ModelName(),
		Terms:        len(terms),
		Batches:      batches,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		USD:          usd,
	}
}
