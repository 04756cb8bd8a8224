package api

import (
	"time"

	"uaftools-backend/api/handler"
	"uaftools-backend/api/middleware"
	"uaftools-backend/services/results"

	"github.com/gin-gonic/gin"
)

type Config struct {
	// gin mode: "debug", "release" or "test"
	Mode      string                     `json:"mode"`
	RateLimit middleware.RateLimitConfig `json:"rate_limit"`
}

// NewRouter creates a configured gin engine with all routes and
// middleware.
//
// The health endpoint sits outside the rate limit so monitoring probes
// always work.
func NewRouter(svc results.Service, cfg Config, startTime time.Time) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.Cors())

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(svc, startTime))

	limited := v1.Group("")
	limited.Use(middleware.RateLimit(cfg.RateLimit))

	limited.POST("/scrape", handler.Scrape(svc))
	limited.GET("/scrape", handler.ScrapeSingle(svc))

	limited.POST("/session", handler.NewSession())
	limited.GET("/session", handler.Session(svc))
	limited.DELETE("/session", handler.ClearSession(svc))

	limited.POST("/results", handler.SaveResult(svc))
	limited.GET("/results/:registration", handler.SavedResults(svc))
	limited.DELETE("/results/:id", handler.DeleteSavedResult(svc))

	limited.POST("/export", handler.Export(svc))
	limited.GET("/gpa", handler.GPA(svc))

	limited.POST("/bulk", handler.StartBulk(svc))
	limited.GET("/bulk/:id", handler.BulkStatus(svc))

	return r
}
