package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"uaftools-backend/lib/exporter"
	"uaftools-backend/services/results"

	"github.com/gin-gonic/gin"
)

type ExportRequest struct {
	Filename string `json:"filename"`
}

// Export returns a handler for POST /api/v1/export. It renders the
// caller's session records into an xlsx attachment.
func Export(svc results.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ExportRequest
		// the body is optional, only the filename lives in it
		_ = c.ShouldBindJSON(&req)
		if req.Filename == "" {
			req.Filename = "student_results"
		}

		sessionID := c.GetHeader(sessionHeader)
		if sessionID == "" {
			fail(c, http.StatusBadRequest, "no session id provided")
			return
		}

		records, err := svc.SessionRecords(c.Request.Context(), sessionID)
		if err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		if len(records) == 0 {
			fail(c, http.StatusBadRequest, "no results to save")
			return
		}

		var buf bytes.Buffer
		if err := exporter.WriteXlsx(&buf, records); err != nil {
			fail(c, http.StatusInternalServerError, err.Error())
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", req.Filename+".xlsx"))
		c.Data(
			http.StatusOK,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			buf.Bytes(),
		)
	}
}
