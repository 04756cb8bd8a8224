package handler

import (
	"net/http"

	"uaftools-backend/services/results"

	"github.com/gin-gonic/gin"
)

type ScrapeRequest struct {
	RegistrationNumber string `json:"registration_number" binding:"required"`
}

// Scrape returns a handler for POST /api/v1/scrape.
//
// Portal faults are reported in the outcome body with success=false
// rather than as http errors; the frontend renders the message either
// way, and a 200 keeps flaky proxies from retrying expensive scrapes.
func Scrape(svc results.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}

		out := svc.Scrape(c.Request.Context(), req.RegistrationNumber, c.GetHeader(sessionHeader))
		c.JSON(http.StatusOK, out)
	}
}

// ScrapeSingle returns a handler for GET /api/v1/scrape. It is the
// stateless variant: no session is touched, the merged outcome is the
// whole response.
func ScrapeSingle(svc results.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		registration := c.Query("registrationNumber")
		if registration == "" {
			fail(c, http.StatusBadRequest, "no registration number provided")
			return
		}

		out := svc.Scrape(c.Request.Context(), registration, "")
		c.JSON(http.StatusOK, out)
	}
}
