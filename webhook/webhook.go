// Package webhook notifies an HTTP endpoint when a run finishes.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/use-agent/harvest/models"
)

// SignatureHeader carries "sha256=<hex HMAC of the body>" when a secret is
// configured.
const SignatureHeader = "X-Harvest-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string           `json:"type"` // "run.completed" or "run.failed"
	RunID     string           `json:"run_id"`
	Timestamp int64            `json:"timestamp"`
	Status    models.RunStatus `json:"status"`
}

// Notifier delivers terminal run events. It implements pipeline.Listener.
type Notifier struct {
	url    string
	secret string
	client *http.Client
	delays []time.Duration
	wg     sync.WaitGroup
}

// New creates a Notifier posting to url. An empty secret sends unsigned
// requests.
func New(url, secret string) *Notifier {
	return &Notifier{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
		delays: []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second},
	}
}

// OnEvent sends run.completed and run.failed in the background and ignores
// everything else.
func (n *Notifier) OnEvent(ev models.RunEvent) {
	if ev.Type != models.EventRunCompleted && ev.Type != models.EventRunFailed {
		return
	}
	n.deliverAsync(&Event{
		Type:      ev.Type,
		RunID:     ev.Status.ID,
		Timestamp: ev.Time.Unix(),
		Status:    ev.Status,
	})
}

// Wait blocks until pending deliveries finish or give up.
func (n *Notifier) Wait() { n.wg.Wait() }

// Deliver sends one event synchronously.
func (n *Notifier) Deliver(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Harvest-Webhook/1.0")
	if n.secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign(n.secret, body))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (n *Notifier) deliverAsync(event *Event) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		for attempt, delay := range n.delays {
			if delay > 0 {
				time.Sleep(delay)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := n.Deliver(ctx, event)
			cancel()
			if err == nil {
				slog.Info("webhook delivered", "event", event.Type, "run_id", event.RunID, "attempt", attempt+1)
				return
			}
			slog.Warn("webhook delivery failed",
				"event", event.Type,
				"run_id", event.RunID,
				"attempt", attempt+1,
				"error", err,
			)
		}
		slog.Error("webhook delivery exhausted all retries", "event", event.Type, "run_id", event.RunID)
	}()
}
