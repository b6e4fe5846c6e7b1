package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/harvest/engine"
	"github.com/use-agent/harvest/models"
	"github.com/ysmood/gson"
)

// Fetch loads req.URL in a pooled tab and returns the rendered HTML. It
// satisfies engine.BrowserFunc.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Timeout guard     – hard deadline on the entire operation
//  2. Acquire page      – borrow a tab from the pool (or create one)
//  3. DEFER: cleanup    – about:blank + return to pool
//  4. Stealth, headers, cookies, hijack – all before navigation
//  5. Navigate and wait for the DOM to settle
//  6. Scroll            – lazy profile sections only render when visible
//  7. Extract           – page.HTML(), title, final URL
func (s *Scraper) Fetch(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	// ── 1. Timeout guard ──────────────────────────────────────────────
	timeout := req.Timeout
	if timeout <= 0 || timeout > s.scraperCfg.DefaultTimeout {
		timeout = s.scraperCfg.DefaultTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// ── 2. Acquire page from pool ─────────────────────────────────────
	s.activePages.Add(1)
	defer s.activePages.Add(-1)

	page, err := s.pagePool.Get(func() (*rod.Page, error) {
		return s.browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to acquire page from pool", err)
	}

	// ── 3. Cleanup uses the page without the request context so it still
	// works after a timeout.
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		s.pagePool.Put(page)
	}()

	// ── 4. Pre-navigation setup ───────────────────────────────────────
	if req.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		}
	}
	if len(req.Headers) > 0 {
		_ = proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(req.Headers)}.Call(page)
	}
	for _, c := range s.cookiesFor(req) {
		if _, cookieErr := c.Call(page); cookieErr != nil {
			slog.Warn("failed to set cookie", "name", c.Name, "error", cookieErr)
		}
	}
	router := setupHijack(page, s.scraperCfg.BlockedResourceTypes)
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	p := page.Context(ctx)

	// ── 5. Navigate ───────────────────────────────────────────────────
	if err := s.navigate(p, req.URL); err != nil {
		return nil, categorizeError(err, "navigation to target URL failed")
	}
	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", stableErr)
	}

	// Status from the navigation timing entry; no CDP listener needed.
	var statusCode int
	if res, evalErr := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`); evalErr == nil {
		statusCode = res.Value.Int()
	}

	// ── 6. Scroll ─────────────────────────────────────────────────────
	if req.Scroll {
		if scrollErr := scrollPage(p, s.scraperCfg.ScrollSteps); scrollErr != nil {
			slog.Debug("scroll stopped early", "url", req.URL, "error", scrollErr)
		}
	}

	// ── 7. Extract rendered HTML ──────────────────────────────────────
	rawHTML, err := p.HTML()
	if err != nil {
		return nil, categorizeError(err, "failed to extract page HTML")
	}
	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = req.URL
	}

	return &engine.FetchResult{
		HTML:       rawHTML,
		Title:      evalStringOrEmpty(p, `() => document.title`),
		StatusCode: statusCode,
		FinalURL:   finalURL,
	}, nil
}

// navigate bounds page.Navigate alone by NavigationTimeout.
func (s *Scraper) navigate(p *rod.Page, target string) error {
	if s.scraperCfg.NavigationTimeout <= 0 {
		return p.Navigate(target)
	}
	return p.Timeout(s.scraperCfg.NavigationTimeout).Navigate(target)
}

// cookiesFor merges the request cookies with the configured session cookie.
func (s *Scraper) cookiesFor(req *engine.FetchRequest) []proto.NetworkSetCookie {
	host := ""
	if u, err := url.Parse(req.URL); err == nil {
		host = u.Hostname()
	}
	return buildCookies(host, req.Cookies, s.scraperCfg.SessionCookie)
}

// sessionCookieName is the site's authenticated-session cookie.
const sessionCookieName = "li_at"

// buildCookies turns request cookies into CDP calls. The session cookie is
// only attached for linkedin.com hosts, and an explicit li_at in the request
// takes precedence over it.
func buildCookies(host string, cookies []http.Cookie, session string) []proto.NetworkSetCookie {
	out := make([]proto.NetworkSetCookie, 0, len(cookies)+1)
	hasSession := false
	for _, c := range cookies {
		domain := c.Domain
		if domain == "" {
			domain = host
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		if c.Name == sessionCookieName {
			hasSession = true
		}
		out = append(out, proto.NetworkSetCookie{Name: c.Name, Value: c.Value, Domain: domain, Path: path})
	}
	if session != "" && !hasSession && isLinkedInHost(host) {
		out = append(out, proto.NetworkSetCookie{
			Name:     sessionCookieName,
			Value:    session,
			Domain:   ".linkedin.com",
			Path:     "/",
			Secure:   true,
			HTTPOnly: true,
		})
	}
	return out
}

func isLinkedInHost(host string) bool {
	return host == "linkedin.com" || hasDomainSuffix(host, "linkedin.com")
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors.
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to proto.NetworkHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw errors into typed ScrapeErrors so the API layer
// can map them to HTTP status codes.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
