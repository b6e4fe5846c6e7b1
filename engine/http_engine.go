package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	tls "github.com/refraction-networking/utls"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"

// HTTPEngine fetches server-rendered pages without a browser. Public
// profile and job pages are mostly server-rendered, so this is the cheap
// first tier.
type HTTPEngine struct {
	client  *http.Client
	retry   RetryPolicy
	timeout time.Duration
}

// maxRedirects matches what browsers tolerate before giving up.
const maxRedirects = 10

// chromeSpec is Chrome's ClientHello with ALPN limited to http/1.1, since
// http.Transport cannot run h2 over a utls connection.
var chromeSpec = sync.OnceValues(func() (*tls.ClientHelloSpec, error) {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return nil, err
	}
	for _, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
		}
	}
	return &spec, nil
})

// dialChrome opens a TLS connection that presents Chrome's fingerprint.
func dialChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	spec, err := chromeSpec()
	if err != nil {
		return nil, fmt.Errorf("http_engine: chrome hello: %w", err)
	}

	raw, err := (&net.Dialer{Timeout: 10 * time.Second}).DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	host, _, _ := net.SplitHostPort(addr)

	conn := tls.UClient(raw, &tls.Config{ServerName: host}, tls.HelloCustom)
	if err := conn.ApplyPreset(spec); err != nil {
		raw.Close()
		return nil, fmt.Errorf("http_engine: apply tls spec: %w", err)
	}
	if err := conn.HandshakeContext(ctx); err != nil {
		raw.Close()
		return nil, fmt.Errorf("http_engine: handshake %s: %w", host, err)
	}
	return conn, nil
}

// stopAtWall refuses to follow a redirect into a sign-in page, so the
// fetch fails fast with ErrAuthWall instead of returning the login form.
func stopAtWall(req *http.Request, via []*http.Request) error {
	if isWall(req.URL.String()) {
		return fmt.Errorf("%w: %s", ErrAuthWall, req.URL.Path)
	}
	if len(via) >= maxRedirects {
		return fmt.Errorf("http_engine: stopped after %d redirects", maxRedirects)
	}
	return nil
}

// NewHTTPEngine creates an HTTPEngine with a Chrome-like TLS fingerprint.
// timeout bounds each attempt; retry decides how many attempts a fetch gets.
func NewHTTPEngine(timeout time.Duration, retry RetryPolicy) *HTTPEngine {
	return &HTTPEngine{
		client: &http.Client{
			Transport: &http.Transport{
				DialTLSContext:      dialChrome,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
			CheckRedirect: stopAtWall,
		},
		retry:   retry,
		timeout: timeout,
	}
}

func (e *HTTPEngine) Name() string { return ModeHTTP }

// Fetch GETs req.URL, retrying transient failures per the engine's policy.
func (e *HTTPEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	var result *FetchResult
	err := e.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		res, err := e.fetchOnce(ctx, req)
		if err != nil {
			slog.Debug("http fetch attempt failed", "url", req.URL, "attempt", attempt, "error", err)
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *HTTPEngine) fetchOnce(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	timeout := req.Timeout
	if timeout <= 0 || (e.timeout > 0 && e.timeout < timeout) {
		timeout = e.timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("http_engine: build request: %w", err)
	}

	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9")
	httpReq.Header.Set("Accept-Encoding", "identity")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	for i := range req.Cookies {
		httpReq.AddCookie(&req.Cookies[i])
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http_engine: get %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	// 10 MB is far above any profile or search page.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("http_engine: read body: %w", err)
	}

	ct := resp.Header.Get("Content-Type")
	if resp.StatusCode >= 400 || !isHTMLContentType(ct) {
		return nil, &StatusError{Code: resp.StatusCode, ContentType: ct}
	}

	page := string(body)
	return &FetchResult{
		HTML:       page,
		Title:      pageTitle(page),
		StatusCode: resp.StatusCode,
		FinalURL:   resp.Request.URL.String(),
		EngineName: e.Name(),
	}, nil
}

func isHTMLContentType(ct string) bool {
	mt, _, _ := strings.Cut(strings.ToLower(ct), ";")
	mt = strings.TrimSpace(mt)
	return mt == "text/html" || mt == "application/xhtml+xml"
}

// pageTitle returns the text of the first <title> in the document head.
func pageTitle(body string) string {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return ""
	}
	for n := range doc.Descendants() {
		if n.Type == html.ElementNode && n.DataAtom == atom.Title {
			if c := n.FirstChild; c != nil && c.Type == html.TextNode {
				return strings.TrimSpace(c.Data)
			}
			return ""
		}
	}
	return ""
}
