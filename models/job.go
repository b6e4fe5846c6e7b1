package models

import "time"

// Remote classification values for Job.IsRemote.
const (
	RemoteYes     = "Yes"
	RemoteNo      = "No"
	RemoteUnknown = "Unknown"
)

// NotSpecified fills location and type for jobs recovered from bare links.
const NotSpecified = "Not specified"

// Job is a scraped job posting, keyed by JobURL.
type Job struct {
	JobURL          string    `json:"job_url"`
	CompanyName     string    `json:"company_name"`
	JobTitle        string    `json:"job_title"`
	JobLocation     string    `json:"job_location"`
	JobType         string    `json:"job_type"`
	JobDescription  string    `json:"job_description"`
	PostedDate      string    `json:"posted_date"`
	SalaryRange     string    `json:"salary_range"`
	ExperienceLevel string    `json:"experience_level"`
	Department      string    `json:"department"`
	IsRemote        string    `json:"is_remote"`
	ScrapedAt       time.Time `json:"scraped_at"`
}
