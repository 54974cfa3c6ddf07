package handlers

import (
	"net/http"
	"strings"

	"autoflow/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AutomationHandler adapts HTTP requests onto the automation engine. It only
// validates input and serializes results; all semantics live in the engine.
type AutomationHandler struct {
	engine *services.Engine
	logger *logrus.Logger
}

func NewAutomationHandler(engine *services.Engine, logger *logrus.Logger) *AutomationHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &AutomationHandler{engine: engine, logger: logger}
}

type CreateAutomationRequest struct {
	Description string `json:"description"`
}

type ExecuteAutomationRequest struct {
	AutomationID string                 `json:"automation_id"`
	Parameters   map[string]interface{} `json:"parameters"`
}

// List returns all stored automations.
func (h *AutomationHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.List())
}

// Create builds a new automation from a natural-language description.
// An empty description is rejected here; the engine never sees it.
func (h *AutomationHandler) Create(c *gin.Context) {
	var req CreateAutomationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Description is required"})
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Description is required"})
		return
	}

	automation, err := h.engine.CreateFromDescription(c.Request.Context(), req.Description)
	if err != nil {
		h.logger.Errorf("create automation: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create automation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"automation": automation,
	})
}

// Execute runs an automation by id. Execution faults come back as a
// structured payload with HTTP 200, so callers can tell "automation missing"
// from "automation ran and failed".
func (h *AutomationHandler) Execute(c *gin.Context) {
	var req ExecuteAutomationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Automation ID is required"})
		return
	}
	if req.AutomationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Automation ID is required"})
		return
	}

	result := h.engine.Execute(c.Request.Context(), req.AutomationID, req.Parameters)
	c.JSON(http.StatusOK, result)
}

// Get returns a single automation.
func (h *AutomationHandler) Get(c *gin.Context) {
	automation, ok := h.engine.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Automation not found"})
		return
	}
	c.JSON(http.StatusOK, automation)
}

// Delete removes a single automation.
func (h *AutomationHandler) Delete(c *gin.Context) {
	removed, err := h.engine.Delete(c.Param("id"))
	if err != nil {
		h.logger.Errorf("delete automation: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete automation"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Automation not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Automation deleted successfully"})
}

// RegisterAutomationRoutes mounts the automation API on r.
func RegisterAutomationRoutes(r *gin.RouterGroup, handler *AutomationHandler) {
	r.GET("/automations", handler.List)
	auto := r.Group("/automation")
	{
		auto.POST("/create", handler.Create)
		auto.POST("/execute", handler.Execute)
		auto.GET("/:id", handler.Get)
		auto.DELETE("/:id", handler.Delete)
	}
}
