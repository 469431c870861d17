// Package metrics exposes prometheus counters for pipeline runs and the
// LLM gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements the pipeline's Metrics interface on prometheus
// counters. One Recorder registers its collectors once; use NewRecorder per
// process.
type Recorder struct {
	stageResolved *prometheus.CounterVec
	cacheHits     prometheus.Counter
	llmBatches    *prometheus.CounterVec
}

// NewRecorder registers the classifier metrics with the given registerer. A
// nil registerer falls back to prometheus.DefaultRegisterer, which is what
// the /metrics endpoint gathers.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Recorder{
		stageResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "searchintent_stage_resolved_total",
			Help: "Terms resolved per pipeline stage",
		}, []string{"stage"}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "searchintent_cache_hits_total",
			Help: "Classification cache hits",
		}),
		llmBatches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "searchintent_llm_batches_total",
			Help: "LLM batches by outcome",
		}, []string{"outcome"}),
	}
}

// StageResolved records terms resolved by one stage in one run.
func (r *Recorder) StageResolved(stage string, count int) {
	if count > 0 {
		r.stageResolved.WithLabelValues(stage).Add(float64(count))
	}
}

// CacheHits records classification cache hits.
func (r *Recorder) CacheHits(count int) {
	if count > 0 {
		r.cacheHits.Add(float64(count))
	}
}

// LLMBatch records one LLM batch outcome ("ok", "abandoned", "retried").
func (r *Recorder) LLMBatch(outcome string) {
	r.llmBatches.WithLabelValues(outcome).Inc()
}
