package models

import "time"

// RunKind names the workflow a run executes.
type RunKind string

const (
	RunPeople RunKind = "people"
	RunJobs   RunKind = "jobs"
)

// RunState is the lifecycle state of a run.
type RunState string

const (
	StateIdle      RunState = "idle"
	StateRunning   RunState = "running"
	StateCompleted RunState = "completed"
	StatePartial   RunState = "partial"
	StateFailed    RunState = "failed"
)

// RunStatus is a snapshot of a batch run. It is a value: listeners receive
// copies and never share it with the running workflow.
type RunStatus struct {
	ID           string     `json:"id,omitempty"`
	Kind         RunKind    `json:"kind,omitempty"`
	State        RunState   `json:"state"`
	Message      string     `json:"message,omitempty"`
	Total        int        `json:"total"`
	Processed    int        `json:"processed"`
	Succeeded    int        `json:"succeeded"`
	Failed       int        `json:"failed"`
	Uploaded     int        `json:"uploaded"`
	UploadFailed int        `json:"upload_failed"`
	Skipped      int        `json:"skipped"`
	Error        string     `json:"error,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// Running reports whether the run has started and not finished.
func (s RunStatus) Running() bool { return s.State == StateRunning }

// Event types emitted by a run.
const (
	EventRunStarted   = "run.started"
	EventItemDone     = "item.succeeded"
	EventItemFailed   = "item.failed"
	EventRunCompleted = "run.completed"
	EventRunFailed    = "run.failed"
)

// RunEvent is emitted to listeners as a run progresses.
type RunEvent struct {
	Type   string    `json:"type"`
	Item   string    `json:"item,omitempty"`
	Error  string    `json:"error,omitempty"`
	Status RunStatus `json:"status"`
	Time   time.Time `json:"time"`
}
