// Package engine fetches pages for the extraction workflows. Engines are
// tried in escalating cost order (plain HTTP, then a real browser) by the
// Dispatcher; retries with backoff are owned here and never leak into
// extraction.
package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier (e.g. "http", "browser").
	Name() string

	// Fetch retrieves the page content for the given request.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// Fetch modes accepted by the Dispatcher.
const (
	ModeAuto    = "auto"
	ModeHTTP    = "http"
	ModeBrowser = "browser"
)

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Cookies []http.Cookie
	Timeout time.Duration
	Stealth bool

	// Mode is one of ModeAuto, ModeHTTP, ModeBrowser. Empty means auto.
	Mode string

	// Scroll asks browser engines to scroll the page so lazy sections load.
	Scroll bool

	// NoCache bypasses the dispatcher's page cache.
	NoCache bool
}

// FetchResult is the output of a successful engine fetch.
type FetchResult struct {
	HTML       string
	Title      string
	StatusCode int
	FinalURL   string
	EngineName string
	Cached     bool
}

var (
	// ErrAuthWall means the site redirected to a sign-in or challenge page
	// instead of the requested content.
	ErrAuthWall = errors.New("engine: redirected to sign-in wall")

	// ErrEmptyShell means the response was HTML but carried no rendered
	// content, typically a JavaScript bootstrap page.
	ErrEmptyShell = errors.New("engine: page has no rendered content")
)

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	Code        int
	ContentType string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("engine: status %d (content-type: %s)", e.Code, e.ContentType)
}
