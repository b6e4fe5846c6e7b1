package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/pipeline"
	"github.com/use-agent/harvest/store"
)

// blockingRunner reports each run to the tracker and holds it open until
// release is closed.
type blockingRunner struct {
	tracker *pipeline.Tracker
	release chan struct{}

	mu      sync.Mutex
	company string
	urls    []string
	people  pipeline.PeopleOptions
	done    chan struct{}
}

func newBlockingRunner(tr *pipeline.Tracker) *blockingRunner {
	return &blockingRunner{tracker: tr, release: make(chan struct{}), done: make(chan struct{}, 4)}
}

func (b *blockingRunner) finish(id string, kind models.RunKind) models.RunStatus {
	<-b.release
	st := models.RunStatus{ID: id, Kind: kind, State: models.StateCompleted}
	b.tracker.OnEvent(models.RunEvent{Type: models.EventRunCompleted, Status: st})
	b.done <- struct{}{}
	return st
}

func (b *blockingRunner) People(_ context.Context, urls []string, opts pipeline.PeopleOptions) models.RunStatus {
	b.mu.Lock()
	b.urls, b.people = urls, opts
	b.mu.Unlock()
	return b.finish(opts.ID, models.RunPeople)
}

func (b *blockingRunner) Jobs(_ context.Context, companyURL string, opts pipeline.JobsOptions) models.RunStatus {
	b.mu.Lock()
	b.company = companyURL
	b.mu.Unlock()
	return b.finish(opts.ID, models.RunJobs)
}

func (b *blockingRunner) CanUpload() bool { return false }

type fixture struct {
	router  http.Handler
	store   *store.Store
	tracker *pipeline.Tracker
	runner  *blockingRunner
}

func setup(t *testing.T, mutate func(*config.Config)) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	st, err := store.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := config.Load()
	cfg.Server.Mode = "test"
	cfg.Auth.Enabled = false
	cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100}
	cfg.Scraper.SessionCookie = ""
	if mutate != nil {
		mutate(cfg)
	}

	tr := pipeline.NewTracker()
	rn := newBlockingRunner(tr)
	t.Cleanup(func() {
		select {
		case <-rn.release:
		default:
			close(rn.release)
		}
	})

	r := NewRouter(ctx, cfg, Deps{Store: st, Runner: rn, Tracker: tr, Engines: []string{"http", "browser"}, StartTime: time.Now()})
	return &fixture{router: r, store: st, tracker: tr, runner: rn}
}

func (f *fixture) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	f := setup(t, nil)
	w := f.do(t, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	h := decode[models.HealthResponse](t, w)
	require.Equal(t, "healthy", h.Status)
	require.Equal(t, "ok", h.Store)
	require.Equal(t, []string{"http", "browser"}, h.Engines)
}

func TestScrapeJobsOneRunAtATime(t *testing.T) {
	f := setup(t, nil)
	body := map[string]any{"company_url": "https://www.linkedin.com/company/acme"}

	w := f.do(t, http.MethodPost, "/api/v1/jobs/scrape", body)
	require.Equal(t, http.StatusAccepted, w.Code)
	resp := decode[models.RunResponse](t, w)
	require.NotEmpty(t, resp.ID)
	require.Equal(t, models.StateRunning, resp.Status.State)

	w = f.do(t, http.MethodPost, "/api/v1/jobs/scrape", body)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, models.ErrCodeRunInProgress, decode[models.ErrorResponse](t, w).Error.Code)

	close(f.runner.release)
	<-f.runner.done

	st := decode[models.RunStatus](t, f.do(t, http.MethodGet, "/api/v1/status", nil))
	require.Equal(t, resp.ID, st.ID)
	require.Equal(t, models.StateCompleted, st.State)

	f.runner.mu.Lock()
	require.Equal(t, "https://www.linkedin.com/company/acme", f.runner.company)
	f.runner.mu.Unlock()

	// Idle again, so a new run is admitted.
	w = f.do(t, http.MethodPost, "/api/v1/jobs/scrape", body)
	require.Equal(t, http.StatusAccepted, w.Code)
	<-f.runner.done
}

func TestScrapeJobsRejectsBadInput(t *testing.T) {
	f := setup(t, nil)
	for _, u := range []string{
		"https://example.com/company/acme",
		"https://www.linkedin.com/in/jane",
		"https://www.linkedin.com/company/",
		"not a url",
	} {
		w := f.do(t, http.MethodPost, "/api/v1/jobs/scrape", map[string]any{"company_url": u})
		require.Equal(t, http.StatusBadRequest, w.Code, u)
	}
	require.Equal(t, models.StateIdle, f.tracker.Snapshot().State)
}

func TestScrapePeople(t *testing.T) {
	f := setup(t, nil)

	w := f.do(t, http.MethodPost, "/api/v1/people/scrape", map[string]any{
		"urls": []string{"https://www.linkedin.com/in/jane/", "https://www.linkedin.com/company/acme"},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/people/scrape", map[string]any{
		"urls": []string{"https://www.linkedin.com/in/jane/", "https://linkedin.com/in/john"},
	})
	require.Equal(t, http.StatusAccepted, w.Code)
	close(f.runner.release)
	<-f.runner.done

	f.runner.mu.Lock()
	defer f.runner.mu.Unlock()
	require.Len(t, f.runner.urls, 2)
	require.False(t, f.runner.people.Upload, "upload defaults to off without a sink")
	require.False(t, f.runner.people.Session)
	require.Equal(t, "auto", f.runner.people.FetchMode)
}

func TestRecordsAndExport(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	w := f.do(t, http.MethodGet, "/api/v1/export?kind=jobs&format=csv", nil)
	require.Equal(t, http.StatusBadRequest, w.Code, "empty export")

	for _, u := range []string{"https://www.linkedin.com/jobs/view/1", "https://www.linkedin.com/jobs/view/2"} {
		require.NoError(t, f.store.UpsertJob(ctx, &models.Job{JobURL: u, JobTitle: "Engineer", CompanyName: "Acme", ScrapedAt: time.Now()}))
	}
	require.NoError(t, f.store.UpsertPerson(ctx, &models.Person{LinkedInURL: "https://www.linkedin.com/in/jane", Name: "Jane", ScrapedAt: time.Now()}))

	jobs := decode[models.JobsResponse](t, f.do(t, http.MethodGet, "/api/v1/jobs?limit=1", nil))
	require.Equal(t, 1, jobs.Count)

	people := decode[models.PeopleResponse](t, f.do(t, http.MethodGet, "/api/v1/people", nil))
	require.Equal(t, 1, people.Count)
	require.Equal(t, "Jane", people.People[0].Name)

	require.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/v1/jobs?limit=-1", nil).Code)

	w = f.do(t, http.MethodGet, "/api/v1/export?kind=jobs&format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Disposition"), "linkedin_jobs_")
	require.Equal(t, 3, strings.Count(w.Body.String(), "\n"), "header plus two rows")

	w = f.do(t, http.MethodGet, "/api/v1/export?kind=people&format=xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")

	require.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/v1/export?format=pdf", nil).Code)

	cleared := decode[models.ClearResponse](t, f.do(t, http.MethodDelete, "/api/v1/jobs", nil))
	require.EqualValues(t, 2, cleared.Deleted)
	require.Zero(t, decode[models.JobsResponse](t, f.do(t, http.MethodGet, "/api/v1/jobs", nil)).Count)
}

func TestAuth(t *testing.T) {
	f := setup(t, func(c *config.Config) {
		c.Auth = config.AuthConfig{Enabled: true, APIKeys: []string{"secret"}}
	})

	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/v1/health", nil).Code)
	require.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/v1/status", nil).Code)
	require.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/v1/status", nil, "X-API-Key", "wrong").Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/v1/status", nil, "Authorization", "Bearer secret").Code)
}

func TestRateLimit(t *testing.T) {
	f := setup(t, func(c *config.Config) {
		c.RateLimit = config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2}
	})

	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/v1/status", nil).Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/v1/status", nil).Code)
	w := f.do(t, http.MethodGet, "/api/v1/status", nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestIndexPage(t *testing.T) {
	f := setup(t, nil)
	w := f.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Status: <span class=\"state idle\">idle</span>")
	require.Contains(t, w.Body.String(), "Stored: 0 jobs, 0 people.")
}
