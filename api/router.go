package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/harvest/api/handler"
	"github.com/use-agent/harvest/api/middleware"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/pipeline"
	"github.com/use-agent/harvest/store"
)

// Deps are the collaborators the routes need.
type Deps struct {
	Store   *store.Store
	Runner  handler.Runner
	Tracker *pipeline.Tracker

	// Pool is nil when the browser tier is disabled.
	Pool handler.PoolStater
	// Engines names the fetch tiers in escalation order.
	Engines []string

	StartTime time.Time
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// The status page and health check stay outside auth. ctx bounds background
// runs and the rate limiter's eviction loop.
func NewRouter(ctx context.Context, cfg *config.Config, d Deps) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.SetHTMLTemplate(handler.IndexTemplate)

	r.GET("/", handler.Index(d.Tracker, d.Store))

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(d.Pool, d.Store, d.Engines, d.StartTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(ctx, cfg.RateLimit))

	runs := handler.NewRuns(ctx, d.Runner, d.Tracker, cfg.Scraper.SessionCookie != "")
	protected.POST("/jobs/scrape", runs.ScrapeJobs())
	protected.POST("/people/scrape", runs.ScrapePeople())
	protected.GET("/status", runs.Status())

	protected.GET("/jobs", handler.ListJobs(d.Store))
	protected.DELETE("/jobs", handler.ClearJobs(d.Store))
	protected.GET("/people", handler.ListPeople(d.Store))
	protected.GET("/export", handler.Export(d.Store))

	return r
}
