//nolint:testpackage // Testing internal llm requires same package access
package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paidsearchlab/searchintent/internal/domain"
)

// scriptedProvider returns canned responses (or errors) in call order.
type scriptedProvider struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (p *scriptedProvider) Name() string      { return "scripted" }
func (p *scriptedProvider) ModelName() string { return "scripted-mini" }
func (p *scriptedProvider) Pricing() Pricing {
	return Pricing{InputPerMillion: 1.0, OutputPerMillion: 2.0}
}

func (p *scriptedProvider) Complete(_ context.Context, _, user string) (string, error) {
	i := p.calls
	p.calls++
	p.prompts = append(p.prompts, user)
	if i < len(p.errs) && p.errs[i] != nil {
		return "", p.errs[i]
	}
	if i < len(p.responses) {
		return p.responses[i], nil
	}
	return "", errors.New("no scripted response")
}

func newTestGateway(p Provider, opts GatewayOptions) (*Gateway, *[]time.Duration) {
	g := NewGateway(p, opts, nil)
	var slept []time.Duration
	g.sleep = func(d time.Duration) { slept = append(slept, d) }
	return g, &slept
}

type captureMetrics struct {
	outcomes []string
}

func (m *captureMetrics) LLMBatch(outcome string) {
	m.outcomes = append(m.outcomes, outcome)
}

func TestGatewayClassifyTerms(t *testing.T) {
	p := &scriptedProvider{responses: []string{"high_intent\nnegative\nbrand\n"}}
	g, _ := newTestGateway(p, GatewayOptions{})

	results, err := g.ClassifyTerms(context.Background(), []string{"buy shoes", "shoe jobs", "contoso"})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, domain.CategoryHighIntent, results["buy shoes"].Category)
	assert.Equal(t, domain.CategoryNegative, results["shoe jobs"].Category)
	assert.Equal(t, domain.CategoryBrand, results["contoso"].Category)
	for _, c := range results {
		assert.Equal(t, domain.MethodLLM, c.Method)
		assert.InDelta(t, llmConfidence, c.Confidence, 1e-9)
	}
}

func TestGatewayLenientParsing(t *testing.T) {
	// Numbered lines, synonym spellings, and junk all come back from real
	// models; only the junk line falls back to the default.
	p := &scriptedProvider{responses: []string{"1. High Intent\n- low-intent\ntotal gibberish\n"}}
	g, _ := newTestGateway(p, GatewayOptions{})

	results, err := g.ClassifyTerms(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)

	assert.Equal(t, domain.CategoryHighIntent, results["a"].Category)
	assert.Equal(t, domain.CategoryLowIntent, results["b"].Category)

	junk := results["c"]
	assert.Equal(t, domain.CategoryMediumIntent, junk.Category)
	assert.Equal(t, domain.MethodLLMDefault, junk.Method)
	assert.InDelta(t, llmDefaultConfidence, junk.Confidence, 1e-9)
}

func TestGatewayShortResponse(t *testing.T) {
	p := &scriptedProvider{responses: []string{"high_intent\n"}}
	g, _ := newTestGateway(p, GatewayOptions{})

	results, err := g.ClassifyTerms(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)

	// Terms past the last response line stay unresolved for the caller.
	require.Len(t, results, 1)
	assert.Contains(t, results, "a")
}

func TestGatewayBatchingAndDelay(t *testing.T) {
	p := &scriptedProvider{responses: []string{"brand\nbrand\n", "brand\n"}}
	g, slept := newTestGateway(p, GatewayOptions{BatchSize: 2})

	results, err := g.ClassifyTerms(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)

	assert.Len(t, results, 3)
	assert.Equal(t, 2, p.calls)
	require.Len(t, *slept, 1)
	assert.Equal(t, interBatchDelay, (*slept)[0])
}

func TestGatewayRateLimitRetry(t *testing.T) {
	p := &scriptedProvider{
		errs:      []error{ErrRateLimited, ErrRateLimited, nil},
		responses: []string{"", "", "high_intent\n"},
	}
	m := &captureMetrics{}
	g, slept := newTestGateway(p, GatewayOptions{Metrics: m})

	results, err := g.ClassifyTerms(context.Background(), []string{"buy shoes"})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, 3, p.calls)
	assert.Equal(t, []time.Duration{rateLimitBackoffs[0], rateLimitBackoffs[1]}, *slept)
	assert.Equal(t, []string{"retried", "retried", "ok"}, m.outcomes)
}

func TestGatewayAbandonsBatchAfterRetries(t *testing.T) {
	rateLimited := make([]error, maxRateLimitRetries+1)
	for i := range rateLimited {
		rateLimited[i] = ErrRateLimited
	}
	// Second batch succeeds after the first is abandoned.
	p := &scriptedProvider{
		errs:      append(rateLimited, nil),
		responses: []string{"", "", "", "", "brand\n"},
	}
	g, _ := newTestGateway(p, GatewayOptions{BatchSize: 1})

	results, err := g.ClassifyTerms(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Contains(t, results, "b")
}

func TestGatewayHardFailureNoRetry(t *testing.T) {
	p := &scriptedProvider{errs: []error{errors.New("boom")}}
	g, slept := newTestGateway(p, GatewayOptions{})

	results, err := g.ClassifyTerms(context.Background(), []string{"a"})
	require.NoError(t, err)

	assert.Empty(t, results)
	assert.Equal(t, 1, p.calls)
	assert.Empty(t, *slept)
}

func TestGatewayContextCancellation(t *testing.T) {
	p := &scriptedProvider{responses: []string{"brand\n"}}
	g, _ := newTestGateway(p, GatewayOptions{BatchSize: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.ClassifyTerms(ctx, []string{"a", "b"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGatewayEstimateCost(t *testing.T) {
	p := &scriptedProvider{}
	g, _ := newTestGateway(p, GatewayOptions{BatchSize: 2})

	terms := []string{"buy shoes", "shoe jobs", "contoso"}
	est := g.EstimateCost(terms)
	assert.Equal(t, "scripted", est.Provider)
	assert.Equal(t, "scripted-mini", est.Model)
	assert.Equal(t, 3, est.Terms)
	assert.Equal(t, 2, est.Batches)
	assert.Equal(t, 3*outputTokensPerTerm, est.OutputTokens)

	// Input tokens cover both prompt scaffolds per batch plus the terms.
	system, user := g.buildPrompt(nil)
	overhead := (len(system) + len(user)) / charsPerToken
	wantInput := 2 * overhead
	for _, term := range terms {
		wantInput += len(term)/charsPerToken + 1
	}
	assert.Equal(t, wantInput, est.InputTokens)
	assert.Greater(t, est.USD, 0.0)

	empty := g.EstimateCost(nil)
	assert.Zero(t, empty.Terms)
	assert.Zero(t, empty.USD)
}

func TestGatewayPromptContainsTerms(t *testing.T) {
	p := &scriptedProvider{responses: []string{"brand\n"}}
	g, _ := newTestGateway(p, GatewayOptions{BusinessType: "running shoe retailer"})

	_, err := g.ClassifyTerms(context.Background(), []string{"contoso trainers"})
	require.NoError(t, err)

	require.Len(t, p.prompts, 1)
	assert.Contains(t, p.prompts[0], "contoso trainers")
}
