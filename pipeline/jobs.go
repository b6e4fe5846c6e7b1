package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/use-agent/harvest/engine"
	"github.com/use-agent/harvest/extract"
	"github.com/use-agent/harvest/models"
)

// UnknownCompany names jobs whose source URL is not a company page.
const UnknownCompany = "Unknown Company"

// linkFallbackLimit caps jobs recovered from bare links.
const linkFallbackLimit = 20

var reCompanySlug = regexp.MustCompile(`linkedin\.com/company/([^/?#]+)`)

// ErrNoJobs means the search page had neither job cards nor posting links.
var ErrNoJobs = errors.New("pipeline: no jobs found")

// JobsOptions tunes a Jobs run.
type JobsOptions struct {
	ID string

	// Enrich fetches every posting page for description and details.
	Enrich bool

	// Limit caps the number of postings. 0 means no cap.
	Limit int

	FetchMode string
}

// SearchTarget derives the display company name and the public job search
// URL from a company page URL. Other URLs are searched as given.
func SearchTarget(companyURL string) (company, searchURL string) {
	m := reCompanySlug.FindStringSubmatch(companyURL)
	if m == nil {
		return UnknownCompany, companyURL
	}
	slug := m[1]
	company = cases.Title(language.English).String(strings.ReplaceAll(slug, "-", " "))
	q := url.Values{}
	q.Set("keywords", "")
	q.Set("location", "")
	q.Set("company", slug)
	q.Set("trk", "public_jobs_jobs-search-bar_search-submit")
	return company, "https://www.linkedin.com/jobs/search?" + q.Encode()
}

// Jobs scrapes the open postings of a company.
func (r *Runner) Jobs(ctx context.Context, companyURL string, opts JobsOptions) models.RunStatus {
	ru := r.start(opts.ID, models.RunJobs, 0)

	company, searchURL := SearchTarget(companyURL)
	base, err := url.Parse(searchURL)
	if err != nil {
		return ru.finish(models.NewScrapeError(models.ErrCodeInvalidInput, "invalid company URL", err))
	}
	slog.Info("searching jobs", "company", company, "url", searchURL)

	page, err := r.fetch.Fetch(ctx, &engine.FetchRequest{URL: searchURL, Mode: opts.FetchMode, Scroll: true})
	if err != nil {
		return ru.finish(err)
	}
	doc, err := extract.Parse(page.HTML)
	if err != nil {
		return ru.finish(models.NewScrapeError(models.ErrCodeEmptyDocument, "unparseable search page", err))
	}

	jobs := r.collectJobs(doc.Selection, company, base, opts.Limit)
	if len(jobs) == 0 {
		return ru.finish(ErrNoJobs)
	}
	ru.status.Total = len(jobs)
	slog.Info("job postings found", "company", company, "count", len(jobs))

	for i := range jobs {
		if err := ctx.Err(); err != nil {
			return ru.finish(err)
		}
		j := &jobs[i]

		if opts.Enrich && j.JobURL != "" {
			if i > 0 {
				if err := r.pause(ctx, r.pacing.CardDelayMin, r.pacing.CardDelayMax); err != nil {
					return ru.finish(err)
				}
			}
			if err := r.enrich(ctx, j, opts.FetchMode); err != nil {
				slog.Warn("job detail failed, keeping card data", "url", j.JobURL, "error", err)
			}
		}
		j.IsRemote = ClassifyRemote(j)

		if err := r.store.UpsertJob(ctx, j); err != nil {
			ru.failed(j.JobURL, models.NewScrapeError(models.ErrCodeStorage, "failed to store job", err))
			continue
		}
		ru.succeeded(j.JobURL)
	}
	return ru.finish(nil)
}

// collectJobs reads job cards, or bare posting links when no card
// container matches. Cards without a title or URL are dropped.
func (r *Runner) collectJobs(root *goquery.Selection, company string, base *url.URL, limit int) []models.Job {
	now := r.now()
	var jobs []models.Job

	cards := extract.Cards(root, extract.JobCardContainers, 0)
	for _, card := range cards {
		res, err := extract.ExtractFrom(card, extract.JobCardSchema)
		if err != nil {
			continue
		}
		j := JobFromCard(res, company, base, now)
		if j.JobTitle == "" || j.JobURL == "" {
			continue
		}
		jobs = append(jobs, j)
		if limit > 0 && len(jobs) == limit {
			return jobs
		}
	}
	if len(cards) > 0 {
		return jobs
	}

	n := linkFallbackLimit
	if limit > 0 {
		n = min(n, limit)
	}
	for _, l := range extract.Links(root, base, extract.JobLinkPattern, 0) {
		if l.Text == "" {
			continue
		}
		jobs = append(jobs, JobFromLink(l, company, now))
		if len(jobs) == n {
			break
		}
	}
	return jobs
}

func (r *Runner) enrich(ctx context.Context, j *models.Job, mode string) error {
	page, err := r.fetch.Fetch(ctx, &engine.FetchRequest{URL: j.JobURL, Mode: mode})
	if err != nil {
		return err
	}
	doc, err := extract.Parse(page.HTML)
	if err != nil {
		return fmt.Errorf("parse %s: %w", j.JobURL, err)
	}
	res, err := extract.Extract(doc, extract.JobDetailSchema)
	if err != nil {
		return err
	}
	MergeDetail(j, res)
	return nil
}
