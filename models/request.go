package models

// ScrapePeopleRequest is the payload for POST /api/v1/people/scrape.
type ScrapePeopleRequest struct {
	// URLs are member profile URLs. Required.
	URLs []string `json:"urls" binding:"required,min=1,max=200,dive,url"`

	// Upload pushes the scraped profiles to Airtable after they are stored.
	// Default: true when Airtable is configured.
	Upload *bool `json:"upload,omitempty"`

	// FetchMode controls the fetching strategy.
	// "auto" (default): try HTTP first, fall back to the browser.
	// "http": pure HTTP only.
	// "browser": headless Chrome only.
	FetchMode string `json:"fetch_mode,omitempty" binding:"omitempty,oneof=auto browser http"`

	// Session selects the signed-in page variant. Default: true when a
	// session cookie is configured.
	Session *bool `json:"session,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *ScrapePeopleRequest) Defaults(uploadConfigured, sessionConfigured bool) {
	if r.Upload == nil {
		r.Upload = &uploadConfigured
	}
	if r.Session == nil {
		r.Session = &sessionConfigured
	}
	if r.FetchMode == "" {
		r.FetchMode = "auto"
	}
}

// ScrapeJobsRequest is the payload for POST /api/v1/jobs/scrape.
type ScrapeJobsRequest struct {
	// CompanyURL is a company page, e.g. https://www.linkedin.com/company/acme.
	CompanyURL string `json:"company_url" binding:"required,url"`

	// Enrich fetches every posting page for description, salary,
	// experience level and department. Default: false.
	Enrich bool `json:"enrich,omitempty"`

	// Limit caps the number of postings. Default: 25. Max: 100.
	Limit int `json:"limit,omitempty" binding:"omitempty,min=1,max=100"`

	FetchMode string `json:"fetch_mode,omitempty" binding:"omitempty,oneof=auto browser http"`
}

// Defaults applies default values to unset fields.
func (r *ScrapeJobsRequest) Defaults() {
	if r.Limit == 0 {
		r.Limit = 25
	}
	if r.FetchMode == "" {
		r.FetchMode = "auto"
	}
}
