package handler

import (
	"net/http"

	"uaftools-backend/services/results"

	"github.com/gin-gonic/gin"
)

const maxBulkRegistrations = 100

type BulkRequest struct {
	RegistrationNumbers []string `json:"registration_numbers" binding:"required"`
}

// StartBulk returns a handler for POST /api/v1/bulk. The scrapes run in
// the background; the response carries a job id to poll.
func StartBulk(svc results.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BulkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		if len(req.RegistrationNumbers) > maxBulkRegistrations {
			fail(c, http.StatusBadRequest, "maximum 100 registration numbers per request")
			return
		}

		id, err := svc.StartBulk(c.Request.Context(), req.RegistrationNumbers)
		if err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"id":      id,
			"total":   len(req.RegistrationNumbers),
		})
	}
}

// BulkStatus returns a handler for GET /api/v1/bulk/:id.
func BulkStatus(svc results.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := svc.BulkStatus(c.Param("id"))
		if !ok {
			fail(c, http.StatusNotFound, "bulk job not found")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"job":     job,
		})
	}
}
