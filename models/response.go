package models

// RunResponse is the immediate response for the scrape triggers.
type RunResponse struct {
	ID     string    `json:"id"`
	Status RunStatus `json:"status"`
}

// PeopleResponse is the response for GET /api/v1/people.
type PeopleResponse struct {
	Count  int      `json:"count"`
	People []Person `json:"people"`
}

// JobsResponse is the response for GET /api/v1/jobs.
type JobsResponse struct {
	Count int   `json:"count"`
	Jobs  []Job `json:"jobs"`
}

// ClearResponse is the response for DELETE /api/v1/jobs.
type ClearResponse struct {
	Deleted int64 `json:"deleted"`
}

// ErrorResponse wraps an ErrorDetail for JSON error bodies.
type ErrorResponse struct {
	Error *ErrorDetail `json:"error"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	Engines   []string  `json:"engines"` // fetch tiers in escalation order
	PoolStats PoolStats `json:"pool_stats"`
	Store     string    `json:"store"`
	Version   string    `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int    `json:"max_pages"`
	ActivePages int    `json:"active_pages"`
	BrowserPID  int    `json:"browser_pid"`
	Uptime      string `json:"uptime,omitempty"` // since the browser connected
}
