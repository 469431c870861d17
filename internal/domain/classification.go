package domain

// Classification methods, recorded per term for reporting and cache
// discipline. Only MethodLLM results are ever persisted.
const (
	MethodPMax       = "pmax"
	MethodNonLatin   = "non_latin"
	MethodLowVolume  = "low_volume"
	MethodBrand      = "brand"
	MethodCompetitor = "competitor"
	MethodCache      = "cache"
	MethodSignal     = "signal"
	MethodSimilarity = "similarity"
	MethodPredictive = "predictive"
	MethodLLM        = "llm"
	MethodLLMDefault = "llm_default"
	MethodPropagated = "propagated"
	MethodDefault    = "default"
	MethodOverride   = "override"
)

// Classification is the verdict attached to one SearchTerm for one run.
// Exactly one Classification exists per term per run; later pipeline stages
// may overwrite an earlier one only where the orchestrator explicitly
// permits it.
type Classification struct {
	Category   IntentCategory `json:"category"`
	Confidence float64        `json:"confidence"`
	Method     string         `json:"method"`
}
