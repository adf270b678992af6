package handlers

import (
	"net/http"
	"time"

	"github.com/admissions-dev/admissions/internal/monitors"
	"github.com/gin-gonic/gin"
)

const readinessTimeout = 2 * time.Second

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   "Admissions is running",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// Readiness runs every dependency probe and answers 503 if any is down.
func (h *Handler) Readiness(c *gin.Context) {
	results, healthy := monitors.Run(c.Request.Context(), readinessTimeout, h.probes)

	status, code := "ready", http.StatusOK
	if !healthy {
		status, code = "unavailable", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    status,
		"checks":    results,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
