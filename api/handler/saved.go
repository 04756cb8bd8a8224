package handler

import (
	"net/http"

	"uaftools-backend/lib/transcript"
	"uaftools-backend/services/results"

	"github.com/gin-gonic/gin"
)

type SaveResultRequest struct {
	RegistrationNumber string                    `json:"registration_number" binding:"required"`
	Records            []transcript.CourseRecord `json:"resultData"`
}

// SaveResult returns a handler for POST /api/v1/results. When no
// records are posted the caller's current session records are saved.
func SaveResult(svc results.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SaveResultRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}

		records := req.Records
		if len(records) == 0 {
			sessionID := c.GetHeader(sessionHeader)
			if sessionID == "" {
				fail(c, http.StatusBadRequest, "no records or session id provided")
				return
			}
			var err error
			records, err = svc.SessionRecords(c.Request.Context(), sessionID)
			if err != nil {
				fail(c, http.StatusBadRequest, err.Error())
				return
			}
			if len(records) == 0 {
				fail(c, http.StatusBadRequest, "no results to save")
				return
			}
		}

		id, err := svc.SaveResult(c.Request.Context(), req.RegistrationNumber, records)
		if err != nil {
			fail(c, http.StatusInternalServerError, err.Error())
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"id":      id,
		})
	}
}

// SavedResults returns a handler for GET /api/v1/results/:registration.
func SavedResults(svc results.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		saved, err := svc.SavedResults(c.Request.Context(), c.Param("registration"))
		if err != nil {
			fail(c, http.StatusInternalServerError, err.Error())
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"results": saved,
		})
	}
}

// DeleteSavedResult returns a handler for DELETE /api/v1/results/:id.
func DeleteSavedResult(svc results.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.DeleteSavedResult(c.Request.Context(), c.Param("id")); err != nil {
			fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
