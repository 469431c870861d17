//nolint:testpackage // Testing internal classifier requires same package access
package classifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paidsearchlab/searchintent/internal/domain"
	"github.com/paidsearchlab/searchintent/internal/llm"
)

type fakeCache struct {
	entries  map[string]domain.IntentCategory
	putCalls []map[string]domain.IntentCategory
}

func newFakeCache(entries map[string]domain.IntentCategory) *fakeCache {
	if entries == nil {
		entries = make(map[string]domain.IntentCategory)
	}
	return &fakeCache{entries: entries}
}

func (f *fakeCache) GetBatch(_ context.Context, _ string, terms []string) (map[string]domain.IntentCategory, error) {
	hits := make(map[string]domain.IntentCategory)
	for _, t := range terms {
		if cat, ok := f.entries[t]; ok {
			hits[t] = cat
		}
	}
	return hits, nil
}

func (f *fakeCache) All(_ context.Context, _ string) (map[string]domain.IntentCategory, error) {
	out := make(map[string]domain.IntentCategory, len(f.entries))
	for k, v := range f.entries {
		out[k] = v
	}
	return out, nil
}

func (f *fakeCache) PutBatch(_ context.Context, _ string, entries map[string]domain.IntentCategory) error {
	f.putCalls = append(f.putCalls, entries)
	for k, v := range entries {
		f.entries[k] = v
	}
	return nil
}

type fakeGateway struct {
	verdicts map[string]domain.Classification
	calls    [][]string
}

func (f *fakeGateway) ClassifyTerms(_ context.Context, terms []string) (map[string]domain.Classification, error) {
	f.calls = append(f.calls, terms)
	out := make(map[string]domain.Classification)
	for _, t := range terms {
		if c, ok := f.verdicts[t]; ok {
			out[t] = c
		}
	}
	return out, nil
}

func (f *fakeGateway) EstimateCost(terms []string) llm.CostEstimate {
	return llm.CostEstimate{Provider: "fake", Terms: len(terms), Batches: 1, USD: 0.01 * float64(len(terms))}
}

func TestPipelineDeterministicStages(t *testing.T) {
	p, err := NewPipeline(PipelineConfig{AccountID: "acct-1"}, nil, nil, nil, nil)
	require.NoError(t, err)

	terms := []domain.SearchTerm{
		{Text: "buy running shoes", Impressions: 500},
		{Text: "running shoes jobs", Impressions: 50},
		{Text: "running shoes", Impressions: 5},
	}

	result, err := p.Run(context.Background(), terms)
	require.NoError(t, err)
	require.Len(t, result.Classifications, 3)

	buy := result.Classifications["buy running shoes"]
	assert.Equal(t, domain.CategoryHighIntent, buy.Category)
	assert.Equal(t, domain.MethodSignal, buy.Method)

	jobs := result.Classifications["running shoes jobs"]
	assert.Equal(t, domain.CategoryNegative, jobs.Category)
	assert.Equal(t, domain.MethodSignal, jobs.Method)

	tail := result.Classifications["running shoes"]
	assert.Equal(t, domain.CategoryLowVolume, tail.Category)
	assert.Equal(t, domain.MethodLowVolume, tail.Method)

	assert.Equal(t, 1, result.StageCounts[StageVolume])
	assert.Equal(t, 2, result.StageCounts[StageSignals])
	assert.Equal(t, 0, result.Defaulted)
	assert.Equal(t, 0, result.Reclassified)
	assert.NotEmpty(t, result.RunID)
}

func TestPipelineBrandOverridesLowVolume(t *testing.T) {
	cfg := PipelineConfig{
		AccountID:    "acct-1",
		BrandStrings: []string{"contoso"},
	}
	p, err := NewPipeline(cfg, nil, nil, nil, nil)
	require.NoError(t, err)

	terms := []domain.SearchTerm{
		{Text: "everyday query", Impressions: 1000},
		{Text: "buy contoso shoes", Impressions: 500},
		{Text: "contoso outlet", Impressions: 1},
	}

	result, err := p.Run(context.Background(), terms)
	require.NoError(t, err)

	// The outlet term falls in the low volume tail but carries the brand, so
	// the brand verdict wins and the volume count is rolled back.
	outlet := result.Classifications["contoso outlet"]
	assert.Equal(t, domain.CategoryBrand, outlet.Category)
	assert.Equal(t, domain.MethodBrand, outlet.Method)
	assert.Equal(t, 0, result.StageCounts[StageVolume])
	assert.Equal(t, 2, result.StageCounts[StageBrand])

	// Exact brand match outranks the "buy" signal word.
	assert.Equal(t, domain.MethodBrand, result.Classifications["buy contoso shoes"].Method)

	// Nothing fires on the remaining term.
	def := result.Classifications["everyday query"]
	assert.Equal(t, domain.CategoryMediumIntent, def.Category)
	assert.Equal(t, domain.MethodDefault, def.Method)
	assert.Equal(t, 1, result.Defaulted)
}

func TestPipelinePMaxSource(t *testing.T) {
	p, err := NewPipeline(PipelineConfig{AccountID: "acct-1"}, nil, nil, nil, nil)
	require.NoError(t, err)

	terms := []domain.SearchTerm{
		{Text: "aggregated category", Impressions: 100, Source: domain.SourcePMax},
		{Text: "blue widget", Impressions: 100},
	}

	result, err := p.Run(context.Background(), terms)
	require.NoError(t, err)

	pm := result.Classifications["aggregated category"]
	assert.Equal(t, domain.CategoryPMaxUncategorized, pm.Category)
	assert.Equal(t, domain.MethodPMax, pm.Method)
	assert.Equal(t, 1, result.StageCounts[StagePMax])
}

func TestPipelineCacheHit(t *testing.T) {
	store := newFakeCache(map[string]domain.IntentCategory{
		"blue widget": domain.CategoryHighIntent,
	})
	p, err := NewPipeline(PipelineConfig{AccountID: "acct-1"}, store, nil, nil, nil)
	require.NoError(t, err)

	terms := []domain.SearchTerm{
		{Text: "blue widget", Impressions: 20},
		{Text: "green widget", Impressions: 10},
	}

	result, err := p.Run(context.Background(), terms)
	require.NoError(t, err)

	hit := result.Classifications["blue widget"]
	assert.Equal(t, domain.CategoryHighIntent, hit.Category)
	assert.Equal(t, domain.MethodCache, hit.Method)
	assert.InDelta(t, cacheHitConfidence, hit.Confidence, 1e-9)
	assert.Equal(t, 1, result.StageCounts[StageCache])

	miss := result.Classifications["green widget"]
	assert.Equal(t, domain.CategoryMediumIntent, miss.Category)
}

func TestPipelinePredictiveWords(t *testing.T) {
	store := newFakeCache(map[string]domain.IntentCategory{
		"acme gadget": domain.CategoryNavigational,
	})
	cfg := PipelineConfig{
		AccountID:          "acct-1",
		PredictiveMinCount: 1,
		PredictiveMinShare: 0.5,
	}
	p, err := NewPipeline(cfg, store, nil, nil, nil)
	require.NoError(t, err)

	terms := []domain.SearchTerm{{Text: "acme widget", Impressions: 100}}

	result, err := p.Run(context.Background(), terms)
	require.NoError(t, err)

	c := result.Classifications["acme widget"]
	assert.Equal(t, domain.CategoryNavigational, c.Category)
	assert.Equal(t, domain.MethodPredictive, c.Method)
}

func TestPipelineCostGate(t *testing.T) {
	gateway := &fakeGateway{}
	p, err := NewPipeline(PipelineConfig{AccountID: "acct-1"}, nil, gateway, nil, nil)
	require.NoError(t, err)

	terms := []domain.SearchTerm{
		{Text: "blue widget", Impressions: 20},
		{Text: "green widget", Impressions: 10},
	}

	result, err := p.Run(context.Background(), terms)
	require.NoError(t, err)

	// Not opted in: the cost is reported but no request goes out and every
	// eligible term falls through to the default.
	assert.False(t, result.LLMRan)
	assert.Equal(t, 2, result.EstimatedCost.Terms)
	assert.Empty(t, gateway.calls)
	assert.Equal(t, 2, result.Defaulted)
}

func TestPipelineLLMCapAndOrder(t *testing.T) {
	gateway := &fakeGateway{
		verdicts: map[string]domain.Classification{
			"blue widget": {Category: domain.CategoryHighIntent, Confidence: 0.9, Method: domain.MethodLLM},
		},
	}
	cfg := PipelineConfig{AccountID: "acct-1", RunLLM: true, MaxLLMTerms: 1}
	p, err := NewPipeline(cfg, nil, gateway, nil, nil)
	require.NoError(t, err)

	terms := []domain.SearchTerm{
		{Text: "green widget", Impressions: 10},
		{Text: "blue widget", Impressions: 20},
	}

	result, err := p.Run(context.Background(), terms)
	require.NoError(t, err)

	// The cap keeps only the highest-impression term.
	require.Len(t, gateway.calls, 1)
	assert.Equal(t, []string{"blue widget"}, gateway.calls[0])
	assert.True(t, result.LLMRan)
	assert.Equal(t, 1, result.LLMClassified)
}

func TestPipelineLLMPersistAndPropagate(t *testing.T) {
	store := newFakeCache(nil)
	gateway := &fakeGateway{
		verdicts: map[string]domain.Classification{
			"blue widget":  {Category: domain.CategoryHighIntent, Confidence: 0.9, Method: domain.MethodLLM},
			"green widget": {Category: domain.CategoryMediumIntent, Confidence: 0.4, Method: domain.MethodLLMDefault},
		},
	}
	cfg := PipelineConfig{AccountID: "acct-1", RunLLM: true}
	p, err := NewPipeline(cfg, store, gateway, nil, nil)
	require.NoError(t, err)

	terms := []domain.SearchTerm{
		{Text: "blue widget", Impressions: 20},
		{Text: "green widget", Impressions: 10},
		{Text: "red widget", Impressions: 5},
	}

	result, err := p.Run(context.Background(), terms)
	require.NoError(t, err)

	// Only the LLM's own verdict is written back; the fallback default for
	// the unparsed line is not.
	require.Len(t, store.putCalls, 1)
	assert.Equal(t, map[string]domain.IntentCategory{
		"blue widget": domain.CategoryHighIntent,
	}, store.putCalls[0])
	assert.Equal(t, 1, result.LLMClassified)

	// The term the LLM never answered is picked up by propagation from the
	// run's training pairs.
	red := result.Classifications["red widget"]
	assert.Equal(t, domain.CategoryHighIntent, red.Category)
	assert.Equal(t, domain.MethodPropagated, red.Method)
	assert.Equal(t, 1, result.Propagated)
	assert.Equal(t, 0, result.Defaulted)

	// blue widget (llm, high) and red widget (propagated, high) moved off the
	// default; the llm_default medium verdict did not.
	assert.Equal(t, 2, result.Reclassified)
}

func TestPipelinePropagationRequiresLLMVerdicts(t *testing.T) {
	p, err := NewPipeline(PipelineConfig{AccountID: "acct-1"}, nil, nil, nil, nil)
	require.NoError(t, err)

	// Two signal-matched terms share the bigram "blue widget". Without any
	// completed LLM batch that pattern must not spread to the held-out term.
	terms := []domain.SearchTerm{
		{Text: "buy blue widget", Impressions: 100},
		{Text: "purchase blue widget", Impressions: 100},
		{Text: "blue widget pro", Impressions: 100},
	}

	result, err := p.Run(context.Background(), terms)
	require.NoError(t, err)

	heldOut := result.Classifications["blue widget pro"]
	assert.Equal(t, domain.CategoryMediumIntent, heldOut.Category)
	assert.Equal(t, domain.MethodDefault, heldOut.Method)
	assert.Equal(t, 0, result.Propagated)
	assert.Equal(t, 1, result.Defaulted)
}

func TestPipelineIdempotentRuns(t *testing.T) {
	store := newFakeCache(nil)
	gateway := &fakeGateway{
		verdicts: map[string]domain.Classification{
			"blue widget":  {Category: domain.CategoryHighIntent, Confidence: 0.9, Method: domain.MethodLLM},
			"green widget": {Category: domain.CategoryLowIntent, Confidence: 0.9, Method: domain.MethodLLM},
		},
	}
	cfg := PipelineConfig{AccountID: "acct-1", RunLLM: true}

	terms := []domain.SearchTerm{
		{Text: "blue widget", Impressions: 20},
		{Text: "green widget", Impressions: 10},
	}

	p1, err := NewPipeline(cfg, store, gateway, nil, nil)
	require.NoError(t, err)
	first, err := p1.Run(context.Background(), terms)
	require.NoError(t, err)
	require.Len(t, gateway.calls, 1)

	p2, err := NewPipeline(cfg, store, gateway, nil, nil)
	require.NoError(t, err)
	second, err := p2.Run(context.Background(), terms)
	require.NoError(t, err)

	// The second run answers everything from the cache: no further LLM
	// traffic and the same category for every term.
	assert.Len(t, gateway.calls, 1)
	assert.False(t, second.LLMRan)
	for term, c := range first.Classifications {
		assert.Equal(t, c.Category, second.Classifications[term].Category, term)
	}
	assert.Equal(t, 2, second.StageCounts[StageCache])
}

func TestPipelineRequiresAccountID(t *testing.T) {
	_, err := NewPipeline(PipelineConfig{}, nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestPipelineEveryTermClassified(t *testing.T) {
	p, err := NewPipeline(PipelineConfig{AccountID: "acct-1"}, nil, nil, nil, nil)
	require.NoError(t, err)

	terms := []domain.SearchTerm{
		{Text: "buy widgets", Impressions: 100},
		{Text: "widget tutorial", Impressions: 50},
		{Text: "unrelated thing", Impressions: 25},
		{Text: "кроссовки", Impressions: 10},
	}

	result, err := p.Run(context.Background(), terms)
	require.NoError(t, err)
	require.Len(t, result.Classifications, len(terms))

	total := 0
	for _, n := range result.Distribution {
		total += n
	}
	assert.Equal(t, len(terms), total)

	// One cyrillic term out of four drags the account below Latin dominance,
	// so the language filter stands down and the term defaults instead.
	assert.Equal(t, domain.CategoryMediumIntent, result.Classifications["кроссовки"].Category)
}
