package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all API routes.
func SetupRoutes(router *gin.Engine, handler *Handler) {
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/classify", handler.Classify)

		accounts := v1.Group("/accounts/:account")
		{
			accounts.GET("/cache/stats", handler.CacheStats)
			accounts.POST("/cache/override", handler.Override)
			accounts.DELETE("/cache", handler.ClearCache)
		}
	}
}
