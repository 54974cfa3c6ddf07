package handlers

import (
	"net/http"

	"autoflow/internal/store"

	"github.com/gin-gonic/gin"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	store *store.Store
}

func NewHealthHandler(store *store.Store) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "autoflow",
	})
}

// Ready reports readiness once the store has loaded. The store is opened
// before the router starts, so this is effectively a started-up signal plus
// the automation count.
func (h *HealthHandler) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ready",
		"automations": h.store.Len(),
	})
}
