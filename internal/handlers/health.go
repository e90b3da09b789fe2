package handlers

import (
	"net/http"

	"mindpulse-be/internal/database"
	"mindpulse-be/internal/services"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	db     *database.MongoDB
	worker *services.AnalysisWorker
}

func NewHealthHandler(db *database.MongoDB, worker *services.AnalysisWorker) *HealthHandler {
	return &HealthHandler{db: db, worker: worker}
}

// Health godoc
// @Summary Service health
// @Tags health
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	overall := "ok"
	dbStatus := "connected"
	status := http.StatusOK
	if err := h.db.Ping(c.Request.Context()); err != nil {
		overall = "degraded"
		dbStatus = "unreachable"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":               overall,
		"database":             dbStatus,
		"analysis_queue_depth": h.worker.QueueDepth(),
	})
}
