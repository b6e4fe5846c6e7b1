package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/harvest/models"
)

// Version is reported by the health endpoint.
const Version = "0.2.0"

// PoolStater reports browser pool usage. *scraper.Scraper implements it.
type PoolStater interface {
	Stats() models.PoolStats
}

// Pinger checks a dependency. *store.Store implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health returns a handler for GET /api/v1/health.
//
// Degrades when more than 80% of browser pages are busy or the database does
// not answer. pool is nil when the browser tier is disabled. engines lists
// the fetch tiers in escalation order.
func Health(pool PoolStater, db Pinger, engines []string, startTime time.Time) gin.HandlerFunc {
	if engines == nil {
		engines = []string{}
	}
	return func(c *gin.Context) {
		var stats models.PoolStats
		if pool != nil {
			stats = pool.Stats()
		}

		status := "healthy"
		if stats.MaxPages > 0 && stats.ActivePages > int(float64(stats.MaxPages)*0.8) {
			status = "degraded"
		}

		storeStatus := "ok"
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			storeStatus = "unavailable"
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:    status,
			Uptime:    time.Since(startTime).Round(time.Second).String(),
			Engines:   engines,
			PoolStats: stats,
			Store:     storeStatus,
			Version:   Version,
		})
	}
}
