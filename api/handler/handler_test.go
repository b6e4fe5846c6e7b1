package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/harvest/models"
)

func TestMapErrorToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.NewScrapeError(models.ErrCodeTimeout, "", nil), http.StatusGatewayTimeout},
		{models.NewScrapeError(models.ErrCodeAuthWall, "", nil), http.StatusBadGateway},
		{models.NewScrapeError(models.ErrCodeEmptyDocument, "", nil), http.StatusUnprocessableEntity},
		{models.NewScrapeError(models.ErrCodeRunInProgress, "", nil), http.StatusConflict},
		{models.NewScrapeError(models.ErrCodeStorage, "", nil), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := mapErrorToStatus(models.AsScrapeError(tt.err)); got != tt.want {
			t.Errorf("mapErrorToStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestURLChecks(t *testing.T) {
	tests := []struct {
		url             string
		company, person bool
	}{
		{"https://www.linkedin.com/company/acme", true, false},
		{"https://linkedin.com/company/acme/jobs/", true, false},
		{"https://www.linkedin.com/company/", false, false},
		{"https://www.linkedin.com/in/jane-doe-123/", false, true},
		{"https://uk.linkedin.com/in/jane", false, true},
		{"https://www.linkedin.com/in/jane/details/skills", false, false},
		{"https://notlinkedin.com/in/jane", false, false},
		{"https://example.com/company/acme", false, false},
		{"/in/jane", false, false},
	}
	for _, tt := range tests {
		if got := isCompanyURL(tt.url); got != tt.company {
			t.Errorf("isCompanyURL(%q) = %v, want %v", tt.url, got, tt.company)
		}
		if got := isProfileURL(tt.url); got != tt.person {
			t.Errorf("isProfileURL(%q) = %v, want %v", tt.url, got, tt.person)
		}
	}
}

type fakePool struct{ stats models.PoolStats }

func (p fakePool) Stats() models.PoolStats { return p.stats }

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestHealthReportsEnginesAndPool(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name       string
		pool       PoolStater
		db         error
		engines    []string
		wantStatus string
		wantStore  string
	}{
		{"http only", nil, nil, []string{"http"}, "healthy", "ok"},
		{"busy browser", fakePool{models.PoolStats{MaxPages: 5, ActivePages: 5, Uptime: "1m0s"}}, nil, []string{"http", "browser"}, "degraded", "ok"},
		{"store down", nil, errors.New("closed"), nil, "degraded", "unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", Health(tt.pool, fakePinger{tt.db}, tt.engines, time.Now()))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			require.Equal(t, http.StatusOK, w.Code)

			var h models.HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &h))
			require.Equal(t, tt.wantStatus, h.Status)
			require.Equal(t, tt.wantStore, h.Store)
			if tt.engines == nil {
				require.NotNil(t, h.Engines)
				require.Empty(t, h.Engines)
			} else {
				require.Equal(t, tt.engines, h.Engines)
			}
			if tt.pool != nil {
				require.Equal(t, tt.pool.Stats().Uptime, h.PoolStats.Uptime)
			}
		})
	}
}
