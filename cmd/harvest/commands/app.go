package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/use-agent/harvest/airtable"
	"github.com/use-agent/harvest/cache"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/engine"
	"github.com/use-agent/harvest/pipeline"
	"github.com/use-agent/harvest/scraper"
	"github.com/use-agent/harvest/store"
	"github.com/use-agent/harvest/webhook"
)

// app is the wired set of collaborators shared by the subcommands.
type app struct {
	store    *store.Store
	scraper  *scraper.Scraper  // nil when the browser tier is disabled
	airtable *airtable.Client  // nil when uploads are not configured
	notifier *webhook.Notifier // nil without a webhook URL
	tracker  *pipeline.Tracker
	runner   *pipeline.Runner
	engines  []string // fetch tiers in escalation order
}

// wire opens the store and builds the fetch engines, sinks and runner.
// extra listeners receive run events next to the tracker and webhook.
func wire(ctx context.Context, cfg *config.Config, extra ...pipeline.Listener) (*app, error) {
	// ── 1. Storage ──────────────────────────────────────────────────
	st, err := store.Open(ctx, cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	a := &app{store: st, tracker: pipeline.NewTracker()}

	// ── 2. Fetch engines ────────────────────────────────────────────
	retry := engine.RetryPolicy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
	}
	engines := []engine.Engine{engine.NewHTTPEngine(cfg.Engine.HTTPTimeout, retry)}

	if cfg.Engine.EnableBrowser {
		sc, err := scraper.New(cfg.Browser, cfg.Scraper)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		a.scraper = sc
		// The closure keeps engine/ from importing scraper/.
		engines = append(engines, engine.NewRodEngine(sc.Fetch))
	}

	memory := engine.NewDomainMemory(cfg.Engine.MemoryTTL)
	pages := cache.New[*engine.FetchResult](cfg.Cache.MaxEntries, cfg.Cache.TTL)
	dispatcher := engine.NewDispatcher(engines, memory, pages)
	a.engines = dispatcher.Engines()
	slog.Info("fetch engines ready", "engines", a.engines)

	// ── 3. Sinks and listeners ──────────────────────────────────────
	var upload pipeline.Uploader
	if cfg.Airtable.Enabled() {
		a.airtable = airtable.New(cfg.Airtable)
		upload = a.airtable
	} else {
		slog.Info("airtable not configured, uploads disabled")
	}

	listeners := pipeline.Fanout{a.tracker}
	if cfg.Webhook.URL != "" {
		a.notifier = webhook.New(cfg.Webhook.URL, cfg.Webhook.Secret)
		listeners = append(listeners, a.notifier)
	}
	listeners = append(listeners, extra...)

	a.runner = pipeline.New(dispatcher, st, upload, listeners, cfg.Pacing)
	return a, nil
}

// close drains webhook deliveries, then releases the browser and database.
func (a *app) close() error {
	if a.notifier != nil {
		a.notifier.Wait()
	}
	var errs []error
	if a.scraper != nil {
		a.scraper.Close()
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
