package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/use-agent/harvest/cache"
	"github.com/use-agent/harvest/models"
)

// Dispatcher tries engines one after another, cheapest first, and stops at
// the first healthy page. Unlike a race, a fetch never has two requests in
// flight for the same URL, which keeps the workflow inside the target's
// rate limits.
type Dispatcher struct {
	engines []Engine
	memory  *DomainMemory
	pages   *cache.Cache[*FetchResult]
}

// NewDispatcher creates a Dispatcher. engines are in escalation order.
// memory and pages may be nil.
func NewDispatcher(engines []Engine, memory *DomainMemory, pages *cache.Cache[*FetchResult]) *Dispatcher {
	return &Dispatcher{engines: engines, memory: memory, pages: pages}
}

// Engines lists the configured engine names in escalation order.
func (d *Dispatcher) Engines() []string {
	names := make([]string, len(d.engines))
	for i, e := range d.engines {
		names[i] = e.Name()
	}
	return names
}

// Fetch returns the first healthy page for req. Failures are reported as a
// *models.ScrapeError carrying every engine's error.
func (d *Dispatcher) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	key := cache.Key(req.URL, req.Mode)
	if d.pages != nil && !req.NoCache {
		if res, ok := d.pages.Get(key); ok {
			hit := *res
			hit.Cached = true
			return &hit, nil
		}
	}

	host := hostOf(req.URL)
	plan := d.plan(req.Mode, host)
	if len(plan) == 0 {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput,
			fmt.Sprintf("no engine available for fetch mode %q", req.Mode), nil)
	}

	var errs []error
	for i, eng := range plan {
		res, err := eng.Fetch(ctx, req)
		if err == nil {
			err = CheckPage(res)
		}
		if err == nil {
			if i > 0 && d.memory != nil {
				d.memory.Set(host, eng.Name())
			}
			if d.pages != nil {
				d.pages.Set(key, res)
			}
			slog.Debug("page fetched", "url", req.URL, "engine", eng.Name(), "status", res.StatusCode)
			return res, nil
		}

		errs = append(errs, fmt.Errorf("%s: %w", eng.Name(), err))
		if ctx.Err() != nil {
			break
		}
		if i < len(plan)-1 {
			slog.Info("engine failed, escalating", "url", req.URL, "engine", eng.Name(), "error", err)
		}
	}

	// A remembered engine that now fails is forgotten.
	if d.memory != nil && d.memory.Get(host) != "" {
		d.memory.Delete(host)
	}
	return nil, classify(req.URL, errors.Join(errs...))
}

// plan orders the engines for one fetch.
func (d *Dispatcher) plan(mode, host string) []Engine {
	switch mode {
	case ModeHTTP, ModeBrowser:
		for _, e := range d.engines {
			if e.Name() == mode {
				return []Engine{e}
			}
		}
		return nil
	}

	if d.memory != nil {
		if remembered := d.memory.Get(host); remembered != "" {
			for i, e := range d.engines {
				if e.Name() == remembered {
					slog.Debug("domain memory hit", "host", host, "engine", remembered)
					return d.engines[i:]
				}
			}
		}
	}
	return d.engines
}

func classify(rawURL string, err error) error {
	code := models.ErrCodeNavigation
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		code = models.ErrCodeTimeout
	case errors.Is(err, ErrAuthWall):
		code = models.ErrCodeAuthWall
	case errors.Is(err, ErrEmptyShell):
		code = models.ErrCodeEmptyDocument
	}
	var se *StatusError
	if errors.As(err, &se) && se.Code == 429 {
		code = models.ErrCodeRateLimited
	}
	return models.NewScrapeError(code, "fetch failed for "+rawURL, err)
}

// hostOf parses the hostname from a URL string.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
