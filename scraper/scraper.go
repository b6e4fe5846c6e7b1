// Package scraper drives a real Chrome through go-rod. It is the browser
// tier behind engine.RodEngine: pages that the plain HTTP engine cannot
// read (sign-in walls, client-rendered sections) are loaded here.
package scraper

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/models"
)

// Scraper owns the browser connection and the page pool.
// It is safe for concurrent use.
type Scraper struct {
	browser     *rod.Browser
	pagePool    rod.Pool[rod.Page]
	browserCfg  config.BrowserConfig
	scraperCfg  config.ScraperConfig
	activePages atomic.Int32
	startTime   time.Time

	// attached is set when we connected to a Chrome someone else started;
	// Close then only disconnects.
	attached bool
}

// New launches a browser, or attaches to browserCfg.CDPURL when set, and
// creates the page pool.
func New(browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig) (*Scraper, error) {
	controlURL := browserCfg.CDPURL
	attached := controlURL != ""

	if !attached {
		var err error
		controlURL, err = launch(browserCfg)
		if err != nil {
			return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
		}
		slog.Info("browser launched", "controlURL", controlURL)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}
	if attached {
		slog.Info("attached to running browser", "controlURL", controlURL)
	}

	pool := rod.NewPagePool(browserCfg.MaxPages)
	slog.Info("page pool created", "maxPages", browserCfg.MaxPages, "session", scraperCfg.SessionCookie != "")

	return &Scraper{
		browser:    browser,
		pagePool:   pool,
		browserCfg: browserCfg,
		scraperCfg: scraperCfg,
		startTime:  time.Now(),
		attached:   attached,
	}, nil
}

func launch(cfg config.BrowserConfig) (string, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.DefaultProxy != "" {
		l = l.Proxy(cfg.DefaultProxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("window-size"), "1366,900")

	return l.Launch()
}

// Stats returns a snapshot of the pool's current state.
func (s *Scraper) Stats() models.PoolStats {
	return models.PoolStats{
		MaxPages:    s.browserCfg.MaxPages,
		ActivePages: int(s.activePages.Load()),
		Uptime:      time.Since(s.startTime).Round(time.Second).String(),
	}
}

// Close drains the page pool and stops the browser. An attached browser is
// left running.
func (s *Scraper) Close() {
	slog.Info("scraper shutting down: draining page pool")
	s.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	if s.attached {
		// Browser.Close would end the user's Chrome.
		slog.Info("scraper detached from browser")
		return
	}
	s.browser.MustClose()
	slog.Info("scraper shutdown complete")
}
