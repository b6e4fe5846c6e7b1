package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestHTTPEngineFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing user agent")
		}
		if c, err := r.Cookie("li_at"); err != nil || c.Value != "tok" {
			t.Errorf("session cookie = %v, %v", c, err)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><head><title> Jane Doe | LinkedIn </title></head><body>hi</body></html>")
	}))
	defer srv.Close()

	e := NewHTTPEngine(5*time.Second, RetryPolicy{MaxAttempts: 1})
	res, err := e.Fetch(context.Background(), &FetchRequest{
		URL:     srv.URL,
		Cookies: []http.Cookie{{Name: "li_at", Value: "tok"}},
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Title != "Jane Doe | LinkedIn" {
		t.Errorf("title = %q", res.Title)
	}
	if res.StatusCode != http.StatusOK || res.EngineName != ModeHTTP {
		t.Errorf("status=%d engine=%q", res.StatusCode, res.EngineName)
	}
}

func TestHTTPEngineRetriesTransientStatus(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body>ok</body></html>")
	}))
	defer srv.Close()

	e := NewHTTPEngine(5*time.Second, RetryPolicy{MaxAttempts: 3, sleep: noSleep})
	if _, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL}); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("hits = %d, want 3", got)
	}
}

func TestHTTPEngineRejectsNonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	e := NewHTTPEngine(5*time.Second, RetryPolicy{MaxAttempts: 3, sleep: noSleep})
	_, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL})
	se, ok := err.(*StatusError)
	if !ok {
		t.Fatalf("err = %T %v, want *StatusError", err, err)
	}
	if se.ContentType != "application/json" {
		t.Errorf("content type = %q", se.ContentType)
	}
}

func TestHTTPEngineStopsAtAuthWall(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/in/jane" {
			hits.Add(1)
			http.Redirect(w, r, "/authwall?trk=public_profile", http.StatusFound)
			return
		}
		t.Errorf("followed redirect to %s", r.URL)
	}))
	defer srv.Close()

	e := NewHTTPEngine(5*time.Second, RetryPolicy{MaxAttempts: 3, sleep: noSleep})
	_, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL + "/in/jane"})
	if !errors.Is(err, ErrAuthWall) {
		t.Fatalf("err = %v, want ErrAuthWall", err)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("hits = %d, want 1 (auth wall is not retried)", got)
	}
}

func TestIsHTMLContentType(t *testing.T) {
	for ct, want := range map[string]bool{
		"text/html":                      true,
		"text/html; charset=utf-8":       true,
		"Application/XHTML+XML":          true,
		"application/json":               false,
		"text/plain; note=text/html-ish": false,
		"":                               false,
	} {
		if got := isHTMLContentType(ct); got != want {
			t.Errorf("isHTMLContentType(%q) = %v, want %v", ct, got, want)
		}
	}
}
