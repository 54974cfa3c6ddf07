package handlers

import (
	"net/http"

	"autoflow/internal/metrics"
	"autoflow/internal/store"

	"github.com/gin-gonic/gin"
)

// MetricsHandler exposes the process counters as JSON.
type MetricsHandler struct {
	store *store.Store
}

func NewMetricsHandler(store *store.Store) *MetricsHandler {
	return &MetricsHandler{store: store}
}

func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	execTotal, execBy := metrics.ExecutionSnapshot()
	rlTotal, rlBy := metrics.RateLimitSnapshot()

	c.JSON(http.StatusOK, gin.H{
		"automations": gin.H{
			"stored": h.store.Len(),
		},
		"translator": gin.H{
			"fallbacks": metrics.TranslatorFallbacks(),
		},
		"executions": gin.H{
			"total":      execTotal,
			"by_outcome": execBy,
		},
		"rate_limit": gin.H{
			"dropped":   rlTotal,
			"by_prefix": rlBy,
		},
	})
}
