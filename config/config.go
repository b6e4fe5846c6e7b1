// Package config reads harvest's configuration from the environment once at
// startup. Credentials (Airtable token, session cookie) are only ever read
// from here.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Retry     RetryConfig
	Pacing    PacingConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
	Engine    EngineConfig
	Store     StoreConfig
	Airtable  AirtableConfig
	Webhook   WebhookConfig
}

// EngineConfig controls the fetch dispatcher.
type EngineConfig struct {
	// EnableBrowser allows escalation from plain HTTP to headless Chrome.
	EnableBrowser bool // default: true

	// HTTPTimeout is the per-attempt deadline for the pure HTTP engine.
	HTTPTimeout time.Duration // default: 15s

	// MemoryTTL is how long a host stays marked as browser-only.
	MemoryTTL time.Duration // default: 1h
}

// RetryConfig is the fetch retry policy.
type RetryConfig struct {
	// MaxAttempts bounds the number of tries per fetch, first included.
	MaxAttempts int // default: 3

	// BaseDelay is the backoff before the second attempt; it doubles after.
	BaseDelay time.Duration // default: 1s

	// MaxDelay caps a single backoff.
	MaxDelay time.Duration // default: 30s
}

// PacingConfig is the delay between consecutive items of a batch run.
// Each delay is drawn uniformly from [MinDelay, MaxDelay].
type PacingConfig struct {
	MinDelay time.Duration // default: 3s
	MaxDelay time.Duration // default: 7s

	// CardDelay bounds the pause between job detail pages.
	CardDelayMin time.Duration // default: 500ms
	CardDelayMax time.Duration // default: 1s
}

// CacheConfig controls the fetched-page cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached pages.
	MaxEntries int // default: 500

	// TTL is how long a fetched page is reused.
	TTL time.Duration // default: 10m
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"

	// BaseURL is where cmd/harvest-mcp reaches the API.
	BaseURL string // default: "http://localhost:8080"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 2

	// DefaultProxy is the default proxy URL for all requests.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// CDPURL connects to an already running Chrome (for example one the
	// user signed in to by hand) instead of launching a new one.
	CDPURL string
}

// ScraperConfig controls page loading.
type ScraperConfig struct {
	// DefaultTimeout bounds one page fetch end to end.
	DefaultTimeout time.Duration // default: 30s

	// NavigationTimeout is the max time for page.Navigate alone.
	NavigationTimeout time.Duration // default: 15s

	// ScrollSteps is how many viewport scrolls load lazy profile sections.
	ScrollSteps int // default: 4

	// BlockedResourceTypes lists resource types to block.
	// default: ["Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string

	// SessionCookie is the li_at cookie of a signed-in session. Empty means
	// public pages only.
	SessionCookie string
}

// StoreConfig controls the embedded database.
type StoreConfig struct {
	// Path of the sqlite file. ":memory:" keeps everything in RAM.
	Path string // default: "harvest.db"
}

// AirtableConfig controls the upload sink. Uploads are disabled unless
// APIKey, BaseID and Table are all set.
type AirtableConfig struct {
	APIKey  string
	BaseID  string
	Table   string        // default: "People"
	BaseURL string        // default: "https://api.airtable.com/v0"
	Batch   int           // default: 10
	Timeout time.Duration // default: 30s
}

// Enabled reports whether every credential is present.
func (c AirtableConfig) Enabled() bool {
	return c.APIKey != "" && c.BaseID != "" && c.Table != ""
}

// WebhookConfig controls run notifications. Empty URL disables them.
type WebhookConfig struct {
	URL    string
	Secret string
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    envOr("HARVEST_HOST", "0.0.0.0"),
			Port:    envIntOr("HARVEST_PORT", 8080),
			Mode:    envOr("HARVEST_MODE", "release"),
			BaseURL: envOr("HARVEST_BASE_URL", "http://localhost:8080"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("HARVEST_HEADLESS", true),
			MaxPages:     envIntOr("HARVEST_MAX_PAGES", 2),
			DefaultProxy: os.Getenv("HARVEST_PROXY"),
			NoSandbox:    envBoolOr("HARVEST_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("HARVEST_BROWSER_BIN"),
			CDPURL:       os.Getenv("HARVEST_CDP_URL"),
		},
		Scraper: ScraperConfig{
			DefaultTimeout:    envDurationOr("HARVEST_FETCH_TIMEOUT", 30*time.Second),
			NavigationTimeout: envDurationOr("HARVEST_NAV_TIMEOUT", 15*time.Second),
			ScrollSteps:       envIntOr("HARVEST_SCROLL_STEPS", 4),
			BlockedResourceTypes: envSliceOr("HARVEST_BLOCKED_RESOURCES", []string{
				"Stylesheet", "Font", "Media",
			}),
			SessionCookie: os.Getenv("HARVEST_SESSION_COOKIE"),
		},
		Retry: RetryConfig{
			MaxAttempts: envIntOr("HARVEST_RETRY_ATTEMPTS", 3),
			BaseDelay:   envDurationOr("HARVEST_RETRY_BASE_DELAY", time.Second),
			MaxDelay:    envDurationOr("HARVEST_RETRY_MAX_DELAY", 30*time.Second),
		},
		Pacing: PacingConfig{
			MinDelay:     envDurationOr("HARVEST_DELAY_MIN", 3*time.Second),
			MaxDelay:     envDurationOr("HARVEST_DELAY_MAX", 7*time.Second),
			CardDelayMin: envDurationOr("HARVEST_CARD_DELAY_MIN", 500*time.Millisecond),
			CardDelayMax: envDurationOr("HARVEST_CARD_DELAY_MAX", time.Second),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("HARVEST_AUTH_ENABLED", false),
			APIKeys: envSliceOr("HARVEST_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("HARVEST_RATE_RPS", 5.0),
			Burst:             envIntOr("HARVEST_RATE_BURST", 10),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("HARVEST_CACHE_MAX_ENTRIES", 500),
			TTL:        envDurationOr("HARVEST_CACHE_TTL", 10*time.Minute),
		},
		Log: LogConfig{
			Level:  envOr("HARVEST_LOG_LEVEL", "info"),
			Format: envOr("HARVEST_LOG_FORMAT", "text"),
		},
		Engine: EngineConfig{
			EnableBrowser: envBoolOr("HARVEST_ENABLE_BROWSER", true),
			HTTPTimeout:   envDurationOr("HARVEST_HTTP_TIMEOUT", 15*time.Second),
			MemoryTTL:     envDurationOr("HARVEST_DOMAIN_MEMORY_TTL", time.Hour),
		},
		Store: StoreConfig{
			Path: envOr("HARVEST_DB_PATH", "harvest.db"),
		},
		Airtable: AirtableConfig{
			APIKey:  os.Getenv("AIRTABLE_API_KEY"),
			BaseID:  os.Getenv("AIRTABLE_BASE_ID"),
			Table:   envOr("AIRTABLE_TABLE_NAME", "People"),
			BaseURL: envOr("AIRTABLE_BASE_URL", "https://api.airtable.com/v0"),
			Batch:   envIntOr("AIRTABLE_BATCH_SIZE", 10),
			Timeout: envDurationOr("AIRTABLE_TIMEOUT", 30*time.Second),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("HARVEST_WEBHOOK_URL"),
			Secret: os.Getenv("HARVEST_WEBHOOK_SECRET"),
		},
	}
}

// Validate rejects settings the workflows cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Pacing.MinDelay < 0 || c.Pacing.MaxDelay < c.Pacing.MinDelay {
		errs = append(errs, fmt.Errorf("delay bounds [%s, %s] are invalid", c.Pacing.MinDelay, c.Pacing.MaxDelay))
	}
	if c.Pacing.CardDelayMin < 0 || c.Pacing.CardDelayMax < c.Pacing.CardDelayMin {
		errs = append(errs, fmt.Errorf("card delay bounds [%s, %s] are invalid", c.Pacing.CardDelayMin, c.Pacing.CardDelayMax))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry attempts must be >= 1, got %d", c.Retry.MaxAttempts))
	}
	if c.Airtable.Batch < 1 || c.Airtable.Batch > 10 {
		errs = append(errs, fmt.Errorf("airtable batch size must be in [1, 10], got %d", c.Airtable.Batch))
	}
	if c.Auth.Enabled && len(c.Auth.APIKeys) == 0 {
		errs = append(errs, errors.New("auth enabled without HARVEST_API_KEYS"))
	}
	return errors.Join(errs...)
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
