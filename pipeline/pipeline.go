// Package pipeline runs the batch workflows: scraping a list of profiles and
// scraping a company's open jobs. A run fetches each page through the
// engine, extracts fields, persists records and (for people) uploads them,
// pausing a jittered delay between items. Progress is reported as
// models.RunEvent values to a Listener; nothing is kept in package state.
package pipeline

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/use-agent/harvest/airtable"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/engine"
	"github.com/use-agent/harvest/models"
)

// Fetcher loads a page. *engine.Dispatcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error)
}

// Store persists records. *store.Store implements it.
type Store interface {
	UpsertPerson(ctx context.Context, p *models.Person) error
	UpsertJob(ctx context.Context, j *models.Job) error
	UploadFingerprint(ctx context.Context, url string) (string, error)
	MarkUploaded(ctx context.Context, url, fingerprint string) error
}

// Uploader pushes people to the upload sink. *airtable.Client implements it.
type Uploader interface {
	Ping(ctx context.Context) error
	CreatePeople(ctx context.Context, people []models.Person) airtable.BatchResult
}

// Runner executes runs. Runs on one Runner should not overlap; Tracker
// enforces that for the API.
type Runner struct {
	fetch    Fetcher
	store    Store
	upload   Uploader
	listener Listener
	pacing   config.PacingConfig

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
	randN func(n int64) int64
}

// New creates a Runner. upload and listener may be nil.
func New(fetch Fetcher, store Store, upload Uploader, listener Listener, pacing config.PacingConfig) *Runner {
	if listener == nil {
		listener = ListenerFunc(func(models.RunEvent) {})
	}
	return &Runner{
		fetch:    fetch,
		store:    store,
		upload:   upload,
		listener: listener,
		pacing:   pacing,
		now:      time.Now,
		sleep:    sleepCtx,
		randN:    rand.Int64N,
	}
}

// CanUpload reports whether an upload sink is configured.
func (r *Runner) CanUpload() bool { return r.upload != nil }

// jitter draws a delay uniformly from [lo, hi].
func (r *Runner) jitter(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(r.randN(int64(hi-lo)+1))
}

// pause waits a jittered delay between items.
func (r *Runner) pause(ctx context.Context, lo, hi time.Duration) error {
	d := r.jitter(lo, hi)
	if d <= 0 {
		return ctx.Err()
	}
	return r.sleep(ctx, d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// run is the status of one workflow execution and the emitter for it.
type run struct {
	r      *Runner
	status models.RunStatus
}

func (r *Runner) start(id string, kind models.RunKind, total int) *run {
	now := r.now()
	ru := &run{r: r, status: models.RunStatus{
		ID:        id,
		Kind:      kind,
		State:     models.StateRunning,
		Total:     total,
		StartedAt: &now,
	}}
	ru.emit(models.EventRunStarted, "", nil)
	return ru
}

func (ru *run) emit(typ, item string, err error) {
	ev := models.RunEvent{Type: typ, Item: item, Status: ru.status, Time: ru.r.now()}
	if err != nil {
		ev.Error = err.Error()
	}
	ru.r.listener.OnEvent(ev)
}

func (ru *run) succeeded(item string) {
	ru.status.Processed++
	ru.status.Succeeded++
	ru.emit(models.EventItemDone, item, nil)
}

func (ru *run) failed(item string, err error) {
	ru.status.Processed++
	ru.status.Failed++
	ru.emit(models.EventItemFailed, item, err)
}

// finish settles the final state and emits the terminal event.
func (ru *run) finish(err error) models.RunStatus {
	now := ru.r.now()
	s := &ru.status
	s.FinishedAt = &now

	switch {
	case err != nil:
		s.State = models.StateFailed
		s.Error = err.Error()
	case s.Total > 0 && s.Succeeded == 0:
		s.State = models.StateFailed
	case s.Failed > 0 || s.UploadFailed > 0:
		s.State = models.StatePartial
	default:
		s.State = models.StateCompleted
	}

	typ := models.EventRunCompleted
	if s.State == models.StateFailed {
		typ = models.EventRunFailed
	}
	ru.emit(typ, "", err)
	return ru.status
}
