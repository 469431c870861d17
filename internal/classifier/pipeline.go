package classifier

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/paidsearchlab/searchintent/internal/domain"
	"github.com/paidsearchlab/searchintent/internal/llm"
	"github.com/paidsearchlab/searchintent/internal/logger"
)

// Pipeline stage names, in execution order. Each stage only touches terms
// unresolved by all earlier stages, except the brand stage, which may
// overwrite a low_volume verdict.
const (
	StagePMax       = "pmax_filter"
	StageLanguage   = "language_filter"
	StageVolume     = "volume_filter"
	StageBrand      = "brand_match"
	StageCache      = "cache_lookup"
	StageSignals    = "signal_rules"
	StageSimilarity = "similarity_match"
	StagePredictive = "predictive_words"
	StageLLM        = "llm_batch"
	StagePropagate  = "ml_propagation"
	StageDefault    = "default"
)

// StageOrder lists the stages in the order the orchestrator runs them.
var StageOrder = []string{
	StagePMax, StageLanguage, StageVolume, StageBrand, StageCache,
	StageSignals, StageSimilarity, StagePredictive, StageLLM,
	StagePropagate, StageDefault,
}

// Fixed confidences for stages whose verdict is structural rather than
// evidence-weighted.
const (
	fullConfidence      = 1.0
	cacheHitConfidence  = 0.85
	defaultConfidence   = 0.5
	lowVolumeConfidence = 1.0
)

// CacheStore is the subset of the persistent cache the pipeline needs.
type CacheStore interface {
	GetBatch(ctx context.Context, accountID string, terms []string) (map[string]domain.IntentCategory, error)
	All(ctx context.Context, accountID string) (map[string]domain.IntentCategory, error)
	PutBatch(ctx context.Context, accountID string, entries map[string]domain.IntentCategory) error
}

// LLMClassifier is the subset of the LLM gateway the pipeline needs.
type LLMClassifier interface {
	ClassifyTerms(ctx context.Context, terms []string) (map[string]domain.Classification, error)
	EstimateCost(terms []string) llm.CostEstimate
}

// Metrics receives per-stage resolution counts. The prometheus
// implementation lives in internal/metrics; tests use the nop default.
type Metrics interface {
	StageResolved(stage string, count int)
	CacheHits(count int)
}

type nopMetrics struct{}

func (nopMetrics) StageResolved(string, int) {}
func (nopMetrics) CacheHits(int)             {}

// PipelineConfig is the immutable per-run configuration of the orchestrator.
// Model and provider selection happen before the run; nothing here is
// mutated while the pipeline executes.
type PipelineConfig struct {
	AccountID string

	// BrandStrings mark the account's own brand; CompetitorStrings and
	// SoldBrands both classify as navigational.
	BrandStrings      []string
	CompetitorStrings []string
	SoldBrands        []string

	// RunLLM opts in to spending money. Without it the orchestrator only
	// reports the estimated cost.
	RunLLM bool
	// MaxLLMTerms caps how many terms are sent to the LLM, chosen by
	// descending impression volume. Zero means no cap.
	MaxLLMTerms int

	// VolumeShare is the cumulative impression share separating low_volume;
	// zero means DefaultVolumeShare.
	VolumeShare float64
	// SimilarityThreshold for fuzzy brand matching; zero means
	// DefaultSimilarityThreshold.
	SimilarityThreshold float64

	PredictiveMinCount int
	PredictiveMinShare float64
}

func (c *PipelineConfig) applyDefaults() {
	if c.VolumeShare == 0 {
		c.VolumeShare = DefaultVolumeShare
	}
	if c.SimilarityThreshold == 0 {
		c.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if c.PredictiveMinCount == 0 {
		c.PredictiveMinCount = DefaultPredictiveMinCount
	}
	if c.PredictiveMinShare == 0 {
		c.PredictiveMinShare = DefaultPredictiveMinShare
	}
}

// RunResult is the output of one full pipeline run.
type RunResult struct {
	RunID           string                           `json:"run_id"`
	Classifications map[string]domain.Classification `json:"classifications"`
	StageCounts     map[string]int                   `json:"stage_counts"`
	Distribution    map[domain.IntentCategory]int    `json:"distribution"`
	EstimatedCost   llm.CostEstimate                 `json:"estimated_cost"`
	LLMRan          bool                             `json:"llm_ran"`
	LLMClassified   int                              `json:"llm_classified"`
	Propagated      int                              `json:"propagated"`
	Defaulted       int                              `json:"defaulted"`
	// Reclassified counts terms whose final category differs from what the
	// deterministic stages alone would have produced (medium_intent), i.e.
	// terms the LLM phase actually moved.
	Reclassified int `json:"reclassified"`
}

// Pipeline orchestrates the ten classification stages.
type Pipeline struct {
	cfg     PipelineConfig
	signals *SignalClassifier
	brands  *BrandMatcher
	cache   CacheStore
	gateway LLMClassifier
	metrics Metrics
	log     logger.Logger
}

// NewPipeline wires a pipeline. cache and gateway may be nil: a nil cache
// disables the cache and predictive stages, a nil gateway disables the LLM
// and propagation stages.
func NewPipeline(cfg PipelineConfig, store CacheStore, gateway LLMClassifier, metrics Metrics, log logger.Logger) (*Pipeline, error) {
	if cfg.AccountID == "" {
		return nil, fmt.Errorf("pipeline config: account id is required")
	}
	cfg.applyDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}

	competitors := make([]string, 0, len(cfg.CompetitorStrings)+len(cfg.SoldBrands))
	competitors = append(competitors, cfg.CompetitorStrings...)
	competitors = append(competitors, cfg.SoldBrands...)

	return &Pipeline{
		cfg:     cfg,
		signals: NewSignalClassifier(),
		brands:  NewBrandMatcher(cfg.BrandStrings, competitors),
		cache:   store,
		gateway: gateway,
		metrics: metrics,
		log:     log,
	}, nil
}

// run tracks one execution's mutable state.
type run struct {
	terms   []domain.SearchTerm
	results map[string]domain.Classification
	counts  map[string]int
}

func (r *run) resolve(stage, term string, c domain.Classification) {
	r.results[term] = c
	r.counts[stage]++
}

func (r *run) resolved(term string) bool {
	_, ok := r.results[term]
	return ok
}

// unresolvedTerms returns terms with no classification yet, in input order.
func (r *run) unresolvedTerms() []domain.SearchTerm {
	out := make([]domain.SearchTerm, 0, len(r.terms))
	for _, t := range r.terms {
		if !r.resolved(t.Text) {
			out = append(out, t)
		}
	}
	return out
}

// Run executes all stages over the aggregated terms and returns a complete
// classification map: every input term has exactly one final verdict.
func (p *Pipeline) Run(ctx context.Context, terms []domain.SearchTerm) (*RunResult, error) {
	st := &run{
		terms:   terms,
		results: make(map[string]domain.Classification, len(terms)),
		counts:  make(map[string]int, len(StageOrder)),
	}

	p.stagePMax(st)
	p.stageLanguage(st)
	p.stageVolume(st)
	p.stageBrand(st)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.stageCache(ctx, st)
	signalTrained := p.stageSignals(st)
	p.stageSimilarity(st)
	p.stagePredictive(ctx, st)

	result := &RunResult{
		RunID:           uuid.NewString(),
		Classifications: st.results,
		StageCounts:     st.counts,
	}

	llmTrained := p.stageLLM(ctx, st, result)
	p.stagePropagate(st, signalTrained, llmTrained, result)
	p.stageDefault(st, result)

	for _, stage := range StageOrder {
		p.metrics.StageResolved(stage, st.counts[stage])
	}

	result.Distribution = make(map[domain.IntentCategory]int)
	for _, c := range st.results {
		result.Distribution[c.Category]++
		// A term counts as reclassified when the paid phase moved it off
		// the medium_intent verdict the defaulting stage would have given.
		if (c.Method == domain.MethodLLM || c.Method == domain.MethodPropagated) &&
			c.Category != domain.CategoryMediumIntent {
			result.Reclassified++
		}
	}

	p.log.Info("pipeline run complete",
		logger.String("run_id", result.RunID),
		logger.String("account_id", p.cfg.AccountID),
		logger.Int("terms", len(terms)),
		logger.Int("llm_classified", result.LLMClassified),
		logger.Int("propagated", result.Propagated),
		logger.Int("defaulted", result.Defaulted),
	)

	return result, nil
}

// stagePMax flags performance-max sourced rows, which carry aggregated
// category labels rather than real queries.
func (p *Pipeline) stagePMax(st *run) {
	for _, t := range st.terms {
		if t.Source == domain.SourcePMax {
			st.resolve(StagePMax, t.Text, domain.Classification{
				Category:   domain.CategoryPMaxUncategorized,
				Confidence: fullConfidence,
				Method:     domain.MethodPMax,
			})
		}
	}
}

// stageLanguage flags non-Latin terms, but only in Latin-dominant accounts.
func (p *Pipeline) stageLanguage(st *run) {
	if !IsLatinDominant(st.terms) {
		return
	}
	for _, t := range st.terms {
		if st.resolved(t.Text) {
			continue
		}
		if IsNonLatinTerm(t.Text) {
			st.resolve(StageLanguage, t.Text, domain.Classification{
				Category:   domain.CategoryNonLatin,
				Confidence: fullConfidence,
				Method:     domain.MethodNonLatin,
			})
		}
	}
}

// stageVolume marks the bottom tail by cumulative impression share.
func (p *Pipeline) stageVolume(st *run) {
	low := LowVolumeTerms(st.terms, p.cfg.VolumeShare)
	for _, t := range st.terms {
		if st.resolved(t.Text) {
			continue
		}
		if low[t.Text] {
			st.resolve(StageVolume, t.Text, domain.Classification{
				Category:   domain.CategoryLowVolume,
				Confidence: lowVolumeConfidence,
				Method:     domain.MethodLowVolume,
			})
		}
	}
}

// stageBrand applies exact brand/competitor substring matches. This is the
// only stage allowed to overwrite an earlier verdict, and only a low_volume
// one: a brand term is worth knowing about however little traffic it has.
func (p *Pipeline) stageBrand(st *run) {
	for _, t := range st.terms {
		if existing, ok := st.results[t.Text]; ok && existing.Category != domain.CategoryLowVolume {
			continue
		}
		if c, ok := p.brands.Match(t.Text); ok {
			if prev, had := st.results[t.Text]; had && prev.Category == domain.CategoryLowVolume {
				st.counts[StageVolume]--
			}
			st.resolve(StageBrand, t.Text, c)
		}
	}
}

// stageCache reuses categories the LLM assigned in earlier runs. Read
// failures degrade to cache misses.
func (p *Pipeline) stageCache(ctx context.Context, st *run) {
	if p.cache == nil {
		return
	}
	unresolved := st.unresolvedTerms()
	if len(unresolved) == 0 {
		return
	}
	keys := make([]string, len(unresolved))
	for i, t := range unresolved {
		keys[i] = t.Text
	}

	hits, err := p.cache.GetBatch(ctx, p.cfg.AccountID, keys)
	if err != nil {
		p.log.Warn("cache lookup failed, treating as miss", logger.Err(err))
		return
	}
	for term, category := range hits {
		st.resolve(StageCache, term, domain.Classification{
			Category:   category,
			Confidence: cacheHitConfidence,
			Method:     domain.MethodCache,
		})
	}
	p.metrics.CacheHits(len(hits))
}

// stageSignals runs the lexical rule cascade and collects its matches as
// propagator training data.
func (p *Pipeline) stageSignals(st *run) []TrainingPair {
	var trained []TrainingPair
	for _, t := range st.terms {
		if st.resolved(t.Text) {
			continue
		}
		if m := p.signals.Classify(t.Text); m != nil {
			st.resolve(StageSignals, t.Text, domain.Classification{
				Category:   m.Category,
				Confidence: m.Confidence,
				Method:     domain.MethodSignal,
			})
			trained = append(trained, TrainingPair{Term: t.Text, Category: m.Category})
		}
	}
	return trained
}

// stageSimilarity fuzzy-matches single-word terms against known brand
// names; matches classify as navigational.
func (p *Pipeline) stageSimilarity(st *run) {
	names := p.brands.BrandNames()
	if len(names) == 0 {
		return
	}
	for _, t := range st.terms {
		if st.resolved(t.Text) {
			continue
		}
		if len(t.Words()) != 1 {
			continue
		}
		if _, sim, ok := FindBestMatch(t.Text, names, p.cfg.SimilarityThreshold); ok {
			st.resolve(StageSimilarity, t.Text, domain.Classification{
				Category:   domain.CategoryNavigational,
				Confidence: sim,
				Method:     domain.MethodSimilarity,
			})
		}
	}
}

// stagePredictive predicts from per-word statistics over the account's full
// cache history.
func (p *Pipeline) stagePredictive(ctx context.Context, st *run) {
	if p.cache == nil {
		return
	}
	entries, err := p.cache.All(ctx, p.cfg.AccountID)
	if err != nil {
		p.log.Warn("cache history unavailable for predictive words", logger.Err(err))
		return
	}
	if len(entries) == 0 {
		return
	}

	model := BuildPredictiveModel(entries, p.cfg.PredictiveMinCount, p.cfg.PredictiveMinShare)
	if model.Len() == 0 {
		return
	}
	for _, t := range st.terms {
		if st.resolved(t.Text) {
			continue
		}
		if c := model.Predict(t.Text); c != nil {
			st.resolve(StagePredictive, t.Text, *c)
		}
	}
}

// stageLLM sends the highest-impression unresolved terms to the LLM when
// opted in, and persists the LLM's own verdicts (only) back to the cache.
// It returns the training pairs for the propagator.
func (p *Pipeline) stageLLM(ctx context.Context, st *run, result *RunResult) []TrainingPair {
	if p.gateway == nil {
		return nil
	}
	eligible := st.unresolvedTerms()
	if len(eligible) == 0 {
		return nil
	}

	// Deterministic split: highest traffic first, ties by term text.
	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].Impressions != eligible[j].Impressions {
			return eligible[i].Impressions > eligible[j].Impressions
		}
		return eligible[i].Text < eligible[j].Text
	})
	if p.cfg.MaxLLMTerms > 0 && len(eligible) > p.cfg.MaxLLMTerms {
		eligible = eligible[:p.cfg.MaxLLMTerms]
	}

	keys := make([]string, len(eligible))
	for i, t := range eligible {
		keys[i] = t.Text
	}

	result.EstimatedCost = p.gateway.EstimateCost(keys)
	if !p.cfg.RunLLM {
		p.log.Warn("llm stage skipped: not opted in",
			logger.Int("eligible_terms", len(keys)),
			logger.Float64("estimated_usd", result.EstimatedCost.USD),
		)
		return nil
	}

	verdicts, err := p.gateway.ClassifyTerms(ctx, keys)
	if err != nil {
		p.log.Warn("llm classification interrupted", logger.Err(err))
	}
	result.LLMRan = true

	var trained []TrainingPair
	persisted := make(map[string]domain.IntentCategory, len(verdicts))
	for term, c := range verdicts {
		st.resolve(StageLLM, term, c)
		if c.Method == domain.MethodLLM {
			result.LLMClassified++
			persisted[term] = c.Category
			trained = append(trained, TrainingPair{Term: term, Category: c.Category})
		}
	}

	if p.cache != nil && len(persisted) > 0 {
		if err := p.cache.PutBatch(ctx, p.cfg.AccountID, persisted); err != nil {
			p.log.Warn("persisting llm verdicts failed", logger.Err(err))
		}
	}
	return trained
}

// stagePropagate trains on this run's LLM answers plus signal matches and
// spreads categories to terms never sent to the LLM. Without at least one LLM
// verdict from this run the stage does not run at all: signal matches alone
// never trigger propagation.
func (p *Pipeline) stagePropagate(st *run, signalPairs, llmPairs []TrainingPair, result *RunResult) {
	if len(llmPairs) == 0 {
		return
	}
	pairs := make([]TrainingPair, 0, len(signalPairs)+len(llmPairs))
	pairs = append(pairs, signalPairs...)
	pairs = append(pairs, llmPairs...)
	prop := NewPropagator(pairs)
	for _, t := range st.terms {
		if st.resolved(t.Text) {
			continue
		}
		if c := prop.Predict(t.Text); c != nil {
			st.resolve(StagePropagate, t.Text, *c)
			result.Propagated++
		}
	}
}

// stageDefault gives every remaining term the universal fallback.
func (p *Pipeline) stageDefault(st *run, result *RunResult) {
	for _, t := range st.terms {
		if st.resolved(t.Text) {
			continue
		}
		st.resolve(StageDefault, t.Text, domain.Classification{
			Category:   domain.CategoryMediumIntent,
			Confidence: defaultConfidence,
			Method:     domain.MethodDefault,
		})
		result.Defaulted++
	}
}
