package handler

import (
	"net/http"

	"uaftools-backend/lib/transcript"
	"uaftools-backend/services/results"

	"github.com/gin-gonic/gin"
)

// GPA returns a handler for GET /api/v1/gpa. With a registrationNumber
// query parameter it scrapes fresh records and summarizes those;
// otherwise it computes from the caller's session records.
func GPA(svc results.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var records []transcript.CourseRecord

		if registration := c.Query("registrationNumber"); registration != "" {
			out := svc.Scrape(c.Request.Context(), registration, "")
			if !out.Success {
				fail(c, http.StatusOK, out.Message)
				return
			}
			records = out.Records
		} else {
			sessionID := c.GetHeader(sessionHeader)
			if sessionID == "" {
				fail(c, http.StatusBadRequest, "no registration number or session id provided")
				return
			}

			var err error
			records, err = svc.SessionRecords(c.Request.Context(), sessionID)
			if err != nil {
				fail(c, http.StatusBadRequest, err.Error())
				return
			}
		}

		if len(records) == 0 {
			fail(c, http.StatusBadRequest, "no results to compute gpa from")
			return
		}

		summary := transcript.SummarizeGPA(records)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"gpa":     summary,
		})
	}
}
