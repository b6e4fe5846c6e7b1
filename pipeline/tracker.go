package pipeline

import (
	"sync"

	"github.com/google/uuid"

	"github.com/use-agent/harvest/models"
)

// Listener receives run events. OnEvent is called synchronously from the
// running workflow and must not block for long.
type Listener interface {
	OnEvent(ev models.RunEvent)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ev models.RunEvent)

func (f ListenerFunc) OnEvent(ev models.RunEvent) { f(ev) }

// Fanout delivers each event to every listener in order.
type Fanout []Listener

func (f Fanout) OnEvent(ev models.RunEvent) {
	for _, l := range f {
		if l != nil {
			l.OnEvent(ev)
		}
	}
}

// Tracker holds the status of the latest run and admits one run at a time.
type Tracker struct {
	mu      sync.Mutex
	current models.RunStatus
}

func NewTracker() *Tracker {
	return &Tracker{current: models.RunStatus{State: models.StateIdle}}
}

// TryStart reserves the tracker for a new run of kind and returns its ID.
// ok is false while another run is in progress.
func (t *Tracker) TryStart(kind models.RunKind) (id string, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current.Running() {
		return "", false
	}
	id = uuid.NewString()
	t.current = models.RunStatus{
		ID:      id,
		Kind:    kind,
		State:   models.StateRunning,
		Message: "starting",
	}
	return id, true
}

// OnEvent records the status carried by ev. Events of a run other than
// the reserved one are ignored.
func (t *Tracker) OnEvent(ev models.RunEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current.ID != "" && ev.Status.ID != t.current.ID {
		return
	}
	t.current = ev.Status
	t.current.Message = describe(ev)
}

// Snapshot returns a copy of the latest status.
func (t *Tracker) Snapshot() models.RunStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

func describe(ev models.RunEvent) string {
	switch ev.Type {
	case models.EventRunStarted:
		return "running"
	case models.EventItemDone:
		return "scraped " + ev.Item
	case models.EventItemFailed:
		return "failed " + ev.Item + ": " + ev.Error
	case models.EventRunCompleted:
		return "finished"
	case models.EventRunFailed:
		if ev.Error != "" {
			return "failed: " + ev.Error
		}
		return "failed"
	}
	return ev.Type
}
