package api

import "github.com/paidsearchlab/searchintent/internal/domain"

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CacheStatsResponse reports one account's cache size and distribution.
type CacheStatsResponse struct {
	AccountID    string                        `json:"account_id"`
	Terms        int                           `json:"terms"`
	Distribution map[domain.IntentCategory]int `json:"distribution"`
}

// OverrideResponse confirms a manual override.
type OverrideResponse struct {
	Term     string                `json:"term"`
	Category domain.IntentCategory `json:"category"`
}

// ClearCacheResponse confirms a cache rebuild.
type ClearCacheResponse struct {
	AccountID string `json:"account_id"`
	Removed   int64  `json:"removed"`
}

// ClassifyResult is one term's rule-only verdict; nil in the response map
// means the cascade was undecided.
type ClassifyResult struct {
	Category   domain.IntentCategory `json:"category"`
	Confidence float64               `json:"confidence"`
	Signal     string                `json:"signal"`
}

// ClassifyResponse maps normalized terms to verdicts.
type ClassifyResponse struct {
	Results map[string]*ClassifyResult `json:"results"`
}
