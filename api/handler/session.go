package handler

import (
	"net/http"

	"uaftools-backend/lib/sessionstore"
	"uaftools-backend/services/results"

	"github.com/gin-gonic/gin"
)

// NewSession returns a handler for POST /api/v1/session. It mints an
// opaque session id the frontend sends back in the Session-Id header.
func NewSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := sessionstore.NewSessionID()
		if err != nil {
			fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"session_id": id,
		})
	}
}

// Session returns a handler for GET /api/v1/session, serving whatever
// live records the caller's session has accumulated.
func Session(svc results.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
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

		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"resultData": records,
		})
	}
}

// ClearSession returns a handler for DELETE /api/v1/session.
func ClearSession(svc results.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader(sessionHeader)
		if sessionID == "" {
			fail(c, http.StatusBadRequest, "no session id provided")
			return
		}

		if err := svc.ClearSession(c.Request.Context(), sessionID); err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
