package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/use-agent/harvest/engine"
	"github.com/use-agent/harvest/extract"
	"github.com/use-agent/harvest/models"
)

// ErrNothingResolved marks a profile page where neither name, title nor
// company could be extracted.
var ErrNothingResolved = errors.New("pipeline: no profile fields resolved")

// PeopleOptions tunes a People run.
type PeopleOptions struct {
	// ID labels the run; Tracker.TryStart issues one.
	ID string

	// Upload pushes stored profiles to the upload sink.
	Upload bool

	// Session selects the signed-in page variant schema.
	Session bool

	// FetchMode is passed to the engine: auto, http or browser.
	FetchMode string
}

// People scrapes each profile URL in order. A profile that fails to fetch,
// extract or store is counted and skipped; the run goes on.
func (r *Runner) People(ctx context.Context, urls []string, opts PeopleOptions) models.RunStatus {
	ru := r.start(opts.ID, models.RunPeople, len(urls))
	if len(urls) == 0 {
		return ru.finish(models.NewScrapeError(models.ErrCodeInvalidInput, "no profile URLs given", nil))
	}

	schema := extract.PersonSchema
	if opts.Session {
		schema = extract.SessionPersonSchema
	}

	upload := opts.Upload && r.upload != nil
	if upload {
		if err := r.upload.Ping(ctx); err != nil {
			slog.Warn("upload sink unreachable, storing locally only", "error", err)
			upload = false
		}
	}

	var stored []models.Person
	for i, u := range urls {
		if err := ctx.Err(); err != nil {
			return ru.finish(err)
		}

		p, err := r.person(ctx, u, opts.FetchMode, schema)
		if err != nil {
			slog.Warn("profile failed", "url", u, "error", err)
			ru.failed(u, err)
		} else {
			slog.Info("profile scraped", "url", u, "name", p.Name, "progress", fmt.Sprintf("%d/%d", i+1, len(urls)))
			stored = append(stored, p)
			ru.succeeded(u)
		}

		if i < len(urls)-1 {
			if err := r.pause(ctx, r.pacing.MinDelay, r.pacing.MaxDelay); err != nil {
				return ru.finish(err)
			}
		}
	}

	if upload && len(stored) > 0 {
		r.uploadPeople(ctx, ru, stored)
	}
	return ru.finish(nil)
}

// person fetches, extracts and stores one profile.
func (r *Runner) person(ctx context.Context, profileURL, mode string, schema extract.Schema) (models.Person, error) {
	page, err := r.fetch.Fetch(ctx, &engine.FetchRequest{URL: profileURL, Mode: mode, Scroll: true})
	if err != nil {
		return models.Person{}, err
	}
	doc, err := extract.Parse(page.HTML)
	if err != nil {
		return models.Person{}, models.NewScrapeError(models.ErrCodeEmptyDocument, "unparseable profile page", err)
	}
	res, err := extract.Extract(doc, schema)
	if err != nil {
		return models.Person{}, err
	}
	slog.Debug("profile extracted", append([]any{"url", profileURL}, res.LogAttrs()...)...)

	p := PersonFromResult(profileURL, res, r.now())
	if !p.Resolved() {
		return models.Person{}, ErrNothingResolved
	}
	if err := r.store.UpsertPerson(ctx, &p); err != nil {
		return models.Person{}, models.NewScrapeError(models.ErrCodeStorage, "failed to store profile", err)
	}
	return p, nil
}

// uploadPeople sends profiles whose fingerprint changed since their last
// upload and records the new fingerprints.
func (r *Runner) uploadPeople(ctx context.Context, ru *run, people []models.Person) {
	var (
		pending []models.Person
		prints  = make(map[string]string, len(people))
	)
	for i := range people {
		p := &people[i]
		fp := Fingerprint(p)
		prev, err := r.store.UploadFingerprint(ctx, p.LinkedInURL)
		if err != nil {
			slog.Warn("fingerprint lookup failed, uploading anyway", "url", p.LinkedInURL, "error", err)
		}
		if prev == fp {
			ru.status.Skipped++
			continue
		}
		prints[p.LinkedInURL] = fp
		pending = append(pending, *p)
	}
	if len(pending) == 0 {
		slog.Info("no changed profiles to upload", "skipped", ru.status.Skipped)
		return
	}

	res := r.upload.CreatePeople(ctx, pending)
	ru.status.Uploaded += res.Uploaded
	ru.status.UploadFailed += res.Failed
	for _, u := range res.UploadedURLs {
		if err := r.store.MarkUploaded(ctx, u, prints[u]); err != nil {
			slog.Warn("failed to record upload", "url", u, "error", err)
		}
	}
	slog.Info("upload finished",
		"uploaded", res.Uploaded,
		"failed", res.Failed,
		"skipped", ru.status.Skipped,
	)
}
