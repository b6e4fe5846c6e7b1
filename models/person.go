package models

import "time"

// Person is a scraped member profile. Unresolved fields are empty strings
// or empty slices, never nil.
type Person struct {
	LinkedInURL             string           `json:"linkedin_url"`
	Name                    string           `json:"name"`
	ProfilePhoto            string           `json:"profile_photo"`
	CurrentJobTitle         string           `json:"current_job_title"`
	CurrentCompany          string           `json:"current_company"`
	Location                string           `json:"location"`
	ConnectionsCount        string           `json:"connections_count"`
	Skills                  []string         `json:"skills"`
	UndergraduateUniversity string           `json:"undergraduate_university"`
	GraduateSchools         []School         `json:"graduate_schools"`
	Education               []EducationEntry `json:"education"`
	ScrapedAt               time.Time        `json:"scraped_at"`
}

// School is a graduate program.
type School struct {
	School string `json:"school"`
	Degree string `json:"degree"`
}

// EducationEntry is one education record with its classified level:
// "undergraduate", "graduate" or "unknown".
type EducationEntry struct {
	School string `json:"school"`
	Degree string `json:"degree"`
	Level  string `json:"level"`
}

// Resolved reports whether enough of the profile was found to count the
// scrape as a success.
func (p *Person) Resolved() bool {
	return p.Name != "" || p.CurrentJobTitle != "" || p.CurrentCompany != ""
}
