package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/use-agent/harvest/models"
)

func TestNotifierSignsTerminalEvents(t *testing.T) {
	var (
		hits atomic.Int32
		got  Event
		sig  string
		body []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, _ = io.ReadAll(r.Body)
		sig = r.Header.Get(SignatureHeader)
		json.Unmarshal(body, &got)
	}))
	defer srv.Close()

	n := New(srv.URL, "s3cret")
	status := models.RunStatus{ID: "run-9", State: models.StateCompleted, Succeeded: 4}

	n.OnEvent(models.RunEvent{Type: models.EventItemDone, Status: status})
	n.OnEvent(models.RunEvent{Type: models.EventRunCompleted, Status: status, Time: time.Unix(1700000000, 0)})
	n.Wait()

	if hits.Load() != 1 {
		t.Fatalf("hits = %d, want 1", hits.Load())
	}
	if got.Type != models.EventRunCompleted || got.RunID != "run-9" || got.Status.Succeeded != 4 {
		t.Errorf("payload = %+v", got)
	}
	if got.Timestamp != 1700000000 {
		t.Errorf("timestamp = %d", got.Timestamp)
	}
	if want := "sha256=" + Sign("s3cret", body); sig != want {
		t.Errorf("signature = %q, want %q", sig, want)
	}
}

func TestNotifierRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		if r.Header.Get(SignatureHeader) != "" {
			t.Error("unsigned notifier sent a signature")
		}
	}))
	defer srv.Close()

	n := New(srv.URL, "")
	n.delays = []time.Duration{0, time.Millisecond, time.Millisecond, time.Millisecond}
	n.OnEvent(models.RunEvent{Type: models.EventRunFailed, Status: models.RunStatus{ID: "r"}})
	n.Wait()

	if got := hits.Load(); got != 3 {
		t.Errorf("hits = %d, want 3", got)
	}
}
