// Package api exposes the classifier over HTTP: cache inspection, manual
// overrides, the rebuild operation, and rule-only classification.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paidsearchlab/searchintent/internal/cache"
	"github.com/paidsearchlab/searchintent/internal/classifier"
	"github.com/paidsearchlab/searchintent/internal/domain"
	"github.com/paidsearchlab/searchintent/internal/logger"
)

// Handler handles HTTP requests for the classifier API.
type Handler struct {
	store   *cache.Store
	signals *classifier.SignalClassifier
	log     logger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(store *cache.Store, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{
		store:   store,
		signals: classifier.NewSignalClassifier(),
		log:     log,
	}
}

// HealthCheck reports liveness.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CacheStats returns the cached term count and category distribution for
// one account.
func (h *Handler) CacheStats(c *gin.Context) {
	accountID := c.Param("account")

	count, err := h.store.Count(c.Request.Context(), accountID)
	if err != nil {
		h.log.Error("cache count failed", logger.String("account_id", accountID), logger.Err(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "cache unavailable"})
		return
	}
	dist, err := h.store.Distribution(c.Request.Context(), accountID)
	if err != nil {
		h.log.Error("cache distribution failed", logger.String("account_id", accountID), logger.Err(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "cache unavailable"})
		return
	}

	c.JSON(http.StatusOK, CacheStatsResponse{
		AccountID:    accountID,
		Terms:        count,
		Distribution: dist,
	})
}

// OverrideRequest is a manual category override for one term.
type OverrideRequest struct {
	Term     string `json:"term" binding:"required"`
	Category string `json:"category" binding:"required"`
}

// Override upserts a manual classification into the cache. The category
// must normalize to the closed enumeration.
func (h *Handler) Override(c *gin.Context) {
	accountID := c.Param("account")

	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	category, ok := domain.NormalizeCategory(req.Category)
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unrecognized category: " + req.Category})
		return
	}

	term := domain.NormalizeTerm(req.Term)
	if term == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "empty term"})
		return
	}
	if err := h.store.Put(c.Request.Context(), accountID, term, category); err != nil {
		h.log.Error("override failed", logger.String("account_id", accountID), logger.Err(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "cache unavailable"})
		return
	}

	c.JSON(http.StatusOK, OverrideResponse{Term: term, Category: category})
}

// ClearCache deletes every cached entry for an account, forcing a full
// rebuild on the next run.
func (h *Handler) ClearCache(c *gin.Context) {
	accountID := c.Param("account")

	removed, err := h.store.DeleteAccount(c.Request.Context(), accountID)
	if err != nil {
		h.log.Error("cache clear failed", logger.String("account_id", accountID), logger.Err(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "cache unavailable"})
		return
	}

	h.log.Info("cache cleared",
		logger.String("account_id", accountID),
		logger.Int64("removed", removed),
	)
	c.JSON(http.StatusOK, ClearCacheResponse{AccountID: accountID, Removed: removed})
}

// ClassifyRequest asks for rule-only classification of ad-hoc terms.
type ClassifyRequest struct {
	Terms []string `json:"terms" binding:"required,min=1,max=500"`
}

// Classify runs the signal cascade over the submitted terms. No LLM calls,
// no cache writes; undecided terms come back with an empty category.
func (h *Handler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	results := make(map[string]*ClassifyResult, len(req.Terms))
	for _, raw := range req.Terms {
		term := domain.NormalizeTerm(raw)
		if term == "" {
			continue
		}
		if m := h.signals.Classify(term); m != nil {
			results[term] = &ClassifyResult{
				Category:   m.Category,
				Confidence: m.Confidence,
				Signal:     m.Signal,
			}
		} else {
			results[term] = nil
		}
	}

	c.JSON(http.StatusOK, ClassifyResponse{Results: results})
}
