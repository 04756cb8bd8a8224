package handler

import (
	"net/http"
	"time"

	"uaftools-backend/services/results"

	"github.com/gin-gonic/gin"
)

// Health returns a handler for GET /api/v1/health. It probes the lms
// login page so monitoring can tell a dead portal from a dead service.
func Health(svc results.Service, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		lmsStatus := "ok"
		if err := svc.PingLms(c.Request.Context()); err != nil {
			status = "degraded"
			lmsStatus = err.Error()
		}

		c.JSON(http.StatusOK, gin.H{
			"status": status,
			"lms":    lmsStatus,
			"uptime": time.Since(startTime).Round(time.Second).String(),
		})
	}
}
