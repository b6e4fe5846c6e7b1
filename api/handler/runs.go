package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/harvest/extract"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/pipeline"
)

// Runner executes batch workflows. *pipeline.Runner implements it.
type Runner interface {
	People(ctx context.Context, urls []string, opts pipeline.PeopleOptions) models.RunStatus
	Jobs(ctx context.Context, companyURL string, opts pipeline.JobsOptions) models.RunStatus
	CanUpload() bool
}

// Runs admits one workflow at a time and runs it in the background.
type Runs struct {
	// base outlives the request that started the run; cancelling it
	// stops the active workflow on shutdown.
	base    context.Context
	runner  Runner
	tracker *pipeline.Tracker
	session bool
}

// NewRuns builds the run triggers. session reports whether a signed-in
// cookie is configured, which selects the profile schema by default.
func NewRuns(base context.Context, runner Runner, tracker *pipeline.Tracker, session bool) *Runs {
	return &Runs{base: base, runner: runner, tracker: tracker, session: session}
}

// ScrapeJobs returns a handler for POST /api/v1/jobs/scrape.
func (h *Runs) ScrapeJobs() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ScrapeJobsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		req.Defaults()

		if !isCompanyURL(req.CompanyURL) {
			badRequest(c, "company_url must be a linkedin.com/company page")
			return
		}

		id, ok := h.tracker.TryStart(models.RunJobs)
		if !ok {
			respondError(c, errBusy)
			return
		}

		opts := pipeline.JobsOptions{
			ID:        id,
			Enrich:    req.Enrich,
			Limit:     req.Limit,
			FetchMode: req.FetchMode,
		}
		go func() {
			st := h.runner.Jobs(h.base, req.CompanyURL, opts)
			slog.Info("jobs run finished", "id", id, "state", st.State, "succeeded", st.Succeeded, "failed", st.Failed)
		}()

		c.JSON(http.StatusAccepted, models.RunResponse{ID: id, Status: h.tracker.Snapshot()})
	}
}

// ScrapePeople returns a handler for POST /api/v1/people/scrape.
func (h *Runs) ScrapePeople() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ScrapePeopleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		req.Defaults(h.runner.CanUpload(), h.session)

		urls := make([]string, 0, len(req.URLs))
		for _, u := range req.URLs {
			u = strings.TrimSpace(u)
			if !isProfileURL(u) {
				badRequest(c, "not a profile URL: "+u)
				return
			}
			urls = append(urls, u)
		}

		id, ok := h.tracker.TryStart(models.RunPeople)
		if !ok {
			respondError(c, errBusy)
			return
		}

		opts := pipeline.PeopleOptions{
			ID:        id,
			Upload:    *req.Upload,
			Session:   *req.Session,
			FetchMode: req.FetchMode,
		}
		go func() {
			st := h.runner.People(h.base, urls, opts)
			slog.Info("people run finished", "id", id, "state", st.State,
				"succeeded", st.Succeeded, "failed", st.Failed, "uploaded", st.Uploaded)
		}()

		c.JSON(http.StatusAccepted, models.RunResponse{ID: id, Status: h.tracker.Snapshot()})
	}
}

// Status returns a handler for GET /api/v1/status.
func (h *Runs) Status() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, h.tracker.Snapshot())
	}
}

var errBusy = models.NewScrapeError(models.ErrCodeRunInProgress, "a run is already in progress", nil)

func isCompanyURL(raw string) bool {
	u, ok := linkedInURL(raw)
	return ok && strings.HasPrefix(u.Path, "/company/") && len(strings.Trim(u.Path, "/")) > len("company")
}

func isProfileURL(raw string) bool {
	u, ok := linkedInURL(raw)
	return ok && extract.ProfileLinkPattern.MatchString(u.Path)
}

func linkedInURL(raw string) (*url.URL, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, false
	}
	host := strings.ToLower(u.Hostname())
	if host != "linkedin.com" && !strings.HasSuffix(host, ".linkedin.com") {
		return nil, false
	}
	return u, true
}
